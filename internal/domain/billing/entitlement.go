package billing

import (
	"fmt"
	"time"
)

// SyntheticIDPrefix marks entitlements created from one-time purchases.
// The synthetic id gives a one-time purchase the same unique-key upsert
// semantics as a real recurring subscription.
const SyntheticIDPrefix = "one_time_"

// EntitlementStatus mirrors the processor's subscription status verbatim.
// This subsystem stores the processor's state machine, it does not
// re-derive it.
type EntitlementStatus string

const (
	StatusActive            EntitlementStatus = "active"
	StatusTrialing          EntitlementStatus = "trialing"
	StatusPastDue           EntitlementStatus = "past_due"
	StatusCanceled          EntitlementStatus = "canceled"
	StatusUnpaid            EntitlementStatus = "unpaid"
	StatusIncomplete        EntitlementStatus = "incomplete"
	StatusIncompleteExpired EntitlementStatus = "incomplete_expired"
	StatusPaused            EntitlementStatus = "paused"
)

// ValidStatuses contains every status the processor can deliver.
var ValidStatuses = map[EntitlementStatus]bool{
	StatusActive:            true,
	StatusTrialing:          true,
	StatusPastDue:           true,
	StatusCanceled:          true,
	StatusUnpaid:            true,
	StatusIncomplete:        true,
	StatusIncompleteExpired: true,
	StatusPaused:            true,
}

// grantingStatuses are the statuses under which the entitlement counts as
// granted, subject to the period window.
var grantingStatuses = map[EntitlementStatus]bool{
	StatusActive:   true,
	StatusTrialing: true,
}

// Entitlement is the canonical subscription/purchase record. It is mutated
// only by the reconciler (and pre-provisioned by the checkout bridge for
// one-time purchases, with the webhook as the source of truth).
type Entitlement struct {
	id                     uint
	externalSubscriptionID string
	userID                 string
	externalCustomerID     string
	planID                 PlanID
	status                 EntitlementStatus
	periodStart            time.Time
	periodEnd              time.Time
	cancelAtPeriodEnd      bool
	canceledAt             *time.Time
	trialEnd               *time.Time
	createdAt              time.Time
	updatedAt              time.Time
}

// NewSubscriptionEntitlement builds an entitlement for a recurring
// subscription, keyed by the processor's subscription id.
func NewSubscriptionEntitlement(
	externalSubscriptionID, userID, externalCustomerID string,
	planID PlanID,
	status EntitlementStatus,
	periodStart, periodEnd time.Time,
	cancelAtPeriodEnd bool,
	canceledAt, trialEnd *time.Time,
) (*Entitlement, error) {
	if externalSubscriptionID == "" {
		return nil, fmt.Errorf("external subscription ID is required")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if !ValidPlans[planID] {
		return nil, fmt.Errorf("invalid plan: %s", planID)
	}
	if !ValidStatuses[status] {
		return nil, fmt.Errorf("invalid entitlement status: %s", status)
	}

	now := time.Now()
	return &Entitlement{
		externalSubscriptionID: externalSubscriptionID,
		userID:                 userID,
		externalCustomerID:     externalCustomerID,
		planID:                 planID,
		status:                 status,
		periodStart:            periodStart,
		periodEnd:              periodEnd,
		cancelAtPeriodEnd:      cancelAtPeriodEnd,
		canceledAt:             canceledAt,
		trialEnd:               trialEnd,
		createdAt:              now,
		updatedAt:              now,
	}, nil
}

// NewOneTimeEntitlement builds an entitlement for a one-time purchase.
// The record is keyed by a synthetic id derived from the checkout session
// so that the pre-provision write and the webhook write converge on the
// same row. One-time purchases never auto-renew.
func NewOneTimeEntitlement(
	sessionID, userID, externalCustomerID string,
	planID PlanID,
	purchasedAt time.Time,
) (*Entitlement, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("checkout session ID is required")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if !planID.IsOneTime() {
		return nil, fmt.Errorf("plan %s is not a one-time plan", planID)
	}

	now := time.Now()
	return &Entitlement{
		externalSubscriptionID: SyntheticSubscriptionID(sessionID),
		userID:                 userID,
		externalCustomerID:     externalCustomerID,
		planID:                 planID,
		status:                 StatusActive,
		periodStart:            purchasedAt,
		periodEnd:              OneTimePeriodEnd(planID, purchasedAt),
		cancelAtPeriodEnd:      true,
		createdAt:              now,
		updatedAt:              now,
	}, nil
}

// ReconstructEntitlement reconstructs an entitlement from persistence.
func ReconstructEntitlement(
	id uint,
	externalSubscriptionID, userID, externalCustomerID string,
	planID PlanID,
	status EntitlementStatus,
	periodStart, periodEnd time.Time,
	cancelAtPeriodEnd bool,
	canceledAt, trialEnd *time.Time,
	createdAt, updatedAt time.Time,
) (*Entitlement, error) {
	if id == 0 {
		return nil, fmt.Errorf("entitlement ID cannot be zero")
	}
	if externalSubscriptionID == "" {
		return nil, fmt.Errorf("external subscription ID is required")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if !ValidPlans[planID] {
		return nil, fmt.Errorf("invalid plan: %s", planID)
	}
	if !ValidStatuses[status] {
		return nil, fmt.Errorf("invalid entitlement status: %s", status)
	}

	return &Entitlement{
		id:                     id,
		externalSubscriptionID: externalSubscriptionID,
		userID:                 userID,
		externalCustomerID:     externalCustomerID,
		planID:                 planID,
		status:                 status,
		periodStart:            periodStart,
		periodEnd:              periodEnd,
		cancelAtPeriodEnd:      cancelAtPeriodEnd,
		canceledAt:             canceledAt,
		trialEnd:               trialEnd,
		createdAt:              createdAt,
		updatedAt:              updatedAt,
	}, nil
}

// SyntheticSubscriptionID derives the deterministic idempotency key for a
// one-time purchase from its checkout session id.
func SyntheticSubscriptionID(sessionID string) string {
	return SyntheticIDPrefix + sessionID
}

func (e *Entitlement) ID() uint { return e.id }

func (e *Entitlement) ExternalSubscriptionID() string { return e.externalSubscriptionID }

func (e *Entitlement) UserID() string { return e.userID }

func (e *Entitlement) ExternalCustomerID() string { return e.externalCustomerID }

func (e *Entitlement) PlanID() PlanID { return e.planID }

func (e *Entitlement) Status() EntitlementStatus { return e.status }

func (e *Entitlement) PeriodStart() time.Time { return e.periodStart }

func (e *Entitlement) PeriodEnd() time.Time { return e.periodEnd }

func (e *Entitlement) CancelAtPeriodEnd() bool { return e.cancelAtPeriodEnd }

func (e *Entitlement) CanceledAt() *time.Time { return e.canceledAt }

func (e *Entitlement) TrialEnd() *time.Time { return e.trialEnd }

func (e *Entitlement) CreatedAt() time.Time { return e.createdAt }

func (e *Entitlement) UpdatedAt() time.Time { return e.updatedAt }

// SetID assigns the persistence identifier after an insert.
func (e *Entitlement) SetID(id uint) error {
	if e.id != 0 && e.id != id {
		return fmt.Errorf("entitlement ID already set")
	}
	e.id = id
	return nil
}

// IsGranted reports whether the entitlement confers access at the given
// instant: a granting status and an unexpired period window.
func (e *Entitlement) IsGranted(now time.Time) bool {
	return grantingStatuses[e.status] && now.Before(e.periodEnd)
}

// SelectActive picks the entitlement that governs the user's current plan
// when several records exist: highest plan precedence among granted
// records, ties broken by the most recent period start. Returns nil when
// nothing is granted.
func SelectActive(records []*Entitlement, now time.Time) *Entitlement {
	var best *Entitlement
	for _, e := range records {
		if !e.IsGranted(now) {
			continue
		}
		if best == nil {
			best = e
			continue
		}
		if e.planID.Precedence() > best.planID.Precedence() {
			best = e
			continue
		}
		if e.planID.Precedence() == best.planID.Precedence() && e.periodStart.After(best.periodStart) {
			best = e
		}
	}
	return best
}
