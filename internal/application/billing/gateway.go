package billing

import (
	"context"

	domainBilling "chartly/internal/domain/billing"
)

// ProcessorCheckout carries everything needed to open a processor
// checkout session.
type ProcessorCheckout struct {
	CustomerID string
	UserID     string
	PlanID     domainBilling.PlanID
	PriceID    string
	OneTime    bool
}

// ProcessorSession is the subset of the processor's session the bridge
// consumes.
type ProcessorSession struct {
	ID         string
	URL        string
	CustomerID string
}

// ProcessorGateway is the synchronous surface of the external payment
// processor. Implementations must honor the context deadline: webhook
// handlers have no caller-side cancellation, so a hung processor call
// must time out rather than stall the delivery.
type ProcessorGateway interface {
	CreateCustomer(ctx context.Context, userID, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, req ProcessorCheckout) (*ProcessorSession, error)
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}
