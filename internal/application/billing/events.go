package billing

import (
	"strings"
	"time"
)

// Processor event types this gateway acts on. Everything else is
// acknowledged without touching state, which keeps the endpoint
// forward-compatible with new processor event types.
const (
	EventCheckoutCompleted = "checkout.session.completed"

	subscriptionEventPrefix = "customer.subscription."
)

// IsSubscriptionEvent reports whether the event mutates a subscription
// lifecycle (created, updated, deleted, ...).
func IsSubscriptionEvent(eventType string) bool {
	return strings.HasPrefix(eventType, subscriptionEventPrefix)
}

// Checkout session modes as delivered by the processor.
const (
	sessionModePayment      = "payment"
	sessionModeSubscription = "subscription"
)

// subscriptionPayload is the slice of the processor's subscription object
// the reconciler reads. Timestamps are the processor's epoch seconds.
type subscriptionPayload struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CanceledAt         int64             `json:"canceled_at"`
	TrialEnd           int64             `json:"trial_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// priceID returns the price identifier of the first line item.
func (p *subscriptionPayload) priceID() string {
	if len(p.Items.Data) == 0 {
		return ""
	}
	return p.Items.Data[0].Price.ID
}

// periodStart prefers the top-level field and falls back through the line
// item to the provided default, so a payload missing a period timestamp
// never produces a zero window.
func (p *subscriptionPayload) periodStart(fallback time.Time) time.Time {
	if p.CurrentPeriodStart > 0 {
		return time.Unix(p.CurrentPeriodStart, 0).UTC()
	}
	if len(p.Items.Data) > 0 && p.Items.Data[0].CurrentPeriodStart > 0 {
		return time.Unix(p.Items.Data[0].CurrentPeriodStart, 0).UTC()
	}
	return fallback
}

func (p *subscriptionPayload) periodEnd(fallback time.Time) time.Time {
	if p.CurrentPeriodEnd > 0 {
		return time.Unix(p.CurrentPeriodEnd, 0).UTC()
	}
	if len(p.Items.Data) > 0 && p.Items.Data[0].CurrentPeriodEnd > 0 {
		return time.Unix(p.Items.Data[0].CurrentPeriodEnd, 0).UTC()
	}
	return fallback
}

// checkoutSessionPayload is the slice of the processor's checkout session
// object the reconciler reads. The session is self-describing: checkout
// creation embeds user, plan and price into metadata so the event can be
// handled even when no customer mapping exists yet.
type checkoutSessionPayload struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	Customer          string            `json:"customer"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

func (p *checkoutSessionPayload) userID() string {
	if uid := p.Metadata["user_id"]; uid != "" {
		return uid
	}
	return p.ClientReferenceID
}

func epochToTimePtr(epoch int64) *time.Time {
	if epoch <= 0 {
		return nil
	}
	t := time.Unix(epoch, 0).UTC()
	return &t
}
