package billing

import (
	"context"
	"encoding/json"
	"time"

	domainBilling "chartly/internal/domain/billing"
	"chartly/internal/shared/errors"
	"chartly/internal/shared/logger"
)

// Reconciler consumes verified, deduplicated processor events and keeps
// the canonical entitlement records in agreement with the processor.
//
// The reconciler mirrors the processor's subscription state machine, it
// does not re-derive it: each event's upsert overwrites the record with
// that event's values, so the guarantee is last-write-wins by delivery
// time, not by logical event time.
type Reconciler struct {
	ledger       domainBilling.EventLedger
	mappings     domainBilling.CustomerMappingRepository
	entitlements domainBilling.EntitlementRepository
	prices       *domainBilling.PriceTable
	now          func() time.Time
	logger       logger.Interface
}

func NewReconciler(
	ledger domainBilling.EventLedger,
	mappings domainBilling.CustomerMappingRepository,
	entitlements domainBilling.EntitlementRepository,
	prices *domainBilling.PriceTable,
	logger logger.Interface,
) *Reconciler {
	return &Reconciler{
		ledger:       ledger,
		mappings:     mappings,
		entitlements: entitlements,
		prices:       prices,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock overrides the reconciler's clock. Intended for tests.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// ProcessEvent records the event in the ledger and, for first deliveries,
// dispatches it by type. Replays short-circuit as duplicates before any
// reconciliation logic runs. A ledger or store failure surfaces as a
// server error so the processor redelivers; on retry the ledger reports
// duplicate and the remaining steps re-run via the same path.
func (r *Reconciler) ProcessEvent(ctx context.Context, eventID, eventType string, createdAt time.Time, payload []byte) error {
	outcome, err := r.ledger.Record(ctx, &domainBilling.LedgerEntry{
		EventID:   eventID,
		Type:      eventType,
		CreatedAt: createdAt,
		Payload:   payload,
	})
	if err != nil {
		return errors.NewStoreFailureError(err.Error())
	}
	if outcome == domainBilling.RecordDuplicate {
		return nil
	}

	switch {
	case eventType == EventCheckoutCompleted:
		return r.handleCheckoutCompleted(ctx, payload)
	case IsSubscriptionEvent(eventType):
		return r.handleSubscriptionEvent(ctx, payload)
	default:
		r.logger.Debugw("ignoring billing event type",
			"event_id", eventID,
			"event_type", eventType,
		)
		return nil
	}
}

// handleSubscriptionEvent upserts the entitlement for a recurring
// subscription. Unmapped customers and unknown prices are acknowledged
// with a warning and no mutation: erroring would make the processor
// redeliver forever.
func (r *Reconciler) handleSubscriptionEvent(ctx context.Context, payload []byte) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(payload, &sub); err != nil {
		r.logger.Warnw("unparseable subscription payload, acknowledging",
			"error", err,
		)
		return nil
	}

	userID, err := r.resolveUser(ctx, sub.Customer, sub.Metadata["user_id"])
	if err != nil {
		return errors.NewStoreFailureError(err.Error())
	}
	if userID == "" {
		r.logger.Warnw("subscription event for unmapped customer, skipping",
			"subscription_id", sub.ID,
			"customer_id", sub.Customer,
		)
		return nil
	}

	priceID := sub.priceID()
	point, ok := r.prices.ResolvePrice(priceID)
	if !ok {
		r.logger.Warnw("subscription event references unknown price, skipping",
			"subscription_id", sub.ID,
			"price_id", priceID,
		)
		return nil
	}

	now := r.now()
	entitlement, err := domainBilling.NewSubscriptionEntitlement(
		sub.ID,
		userID,
		sub.Customer,
		point.PlanID,
		domainBilling.EntitlementStatus(sub.Status),
		sub.periodStart(now),
		sub.periodEnd(now),
		sub.CancelAtPeriodEnd,
		epochToTimePtr(sub.CanceledAt),
		epochToTimePtr(sub.TrialEnd),
	)
	if err != nil {
		r.logger.Warnw("invalid subscription event payload, skipping",
			"subscription_id", sub.ID,
			"error", err,
		)
		return nil
	}

	if err := r.entitlements.Upsert(ctx, entitlement); err != nil {
		return errors.NewStoreFailureError(err.Error())
	}

	return nil
}

// handleCheckoutCompleted confirms the customer mapping and, for one-time
// purchases, upserts the synthetic-id entitlement. Subscription-mode
// sessions produce no entitlement here; the subscription lifecycle events
// carry that.
func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, payload []byte) error {
	var sess checkoutSessionPayload
	if err := json.Unmarshal(payload, &sess); err != nil {
		r.logger.Warnw("unparseable checkout session payload, acknowledging",
			"error", err,
		)
		return nil
	}

	userID := sess.userID()
	if userID == "" && sess.Customer != "" {
		mapped, err := r.mappings.LookupUserByCustomer(ctx, sess.Customer)
		if err != nil {
			return errors.NewStoreFailureError(err.Error())
		}
		userID = mapped
	}
	if userID == "" {
		r.logger.Warnw("checkout session with no resolvable user, skipping",
			"session_id", sess.ID,
		)
		return nil
	}

	if sess.Customer != "" {
		if err := r.mappings.UpsertCustomer(ctx, userID, sess.Customer); err != nil {
			return errors.NewStoreFailureError(err.Error())
		}
	}

	if sess.Mode != sessionModePayment {
		return nil
	}

	priceID := sess.Metadata["price_id"]
	point, ok := r.prices.ResolvePrice(priceID)
	if !ok {
		r.logger.Warnw("checkout session references unknown price, skipping",
			"session_id", sess.ID,
			"price_id", priceID,
		)
		return nil
	}
	if !point.PlanID.IsOneTime() {
		r.logger.Warnw("payment-mode session for a recurring plan, skipping",
			"session_id", sess.ID,
			"plan_id", point.PlanID,
		)
		return nil
	}

	entitlement, err := domainBilling.NewOneTimeEntitlement(
		sess.ID,
		userID,
		sess.Customer,
		point.PlanID,
		r.now(),
	)
	if err != nil {
		r.logger.Warnw("invalid one-time purchase payload, skipping",
			"session_id", sess.ID,
			"error", err,
		)
		return nil
	}

	if err := r.entitlements.Upsert(ctx, entitlement); err != nil {
		return errors.NewStoreFailureError(err.Error())
	}

	return nil
}

// resolveUser maps the event's customer to an internal user, falling back
// to the user id embedded in event metadata and lazily creating the
// mapping from it.
func (r *Reconciler) resolveUser(ctx context.Context, customerID, metadataUserID string) (string, error) {
	if customerID != "" {
		userID, err := r.mappings.LookupUserByCustomer(ctx, customerID)
		if err != nil {
			return "", err
		}
		if userID != "" {
			return userID, nil
		}
	}

	if metadataUserID == "" {
		return "", nil
	}

	if customerID != "" {
		if err := r.mappings.UpsertCustomer(ctx, metadataUserID, customerID); err != nil {
			return "", err
		}
		r.logger.Infow("customer mapping created lazily from event metadata",
			"user_id", metadataUserID,
			"customer_id", customerID,
		)
	}

	return metadataUserID, nil
}
