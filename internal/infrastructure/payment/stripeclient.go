// Package payment wraps the Stripe SDK behind the processor gateway the
// checkout bridge consumes. All calls are synchronous and bounded by the
// caller's context.
package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"

	appBilling "chartly/internal/application/billing"
	sharedConfig "chartly/internal/shared/config"
	"chartly/internal/shared/id"
	"chartly/internal/shared/logger"
)

type StripeClient struct {
	successURL      string
	cancelURL       string
	portalReturnURL string
	logger          logger.Interface
}

var _ appBilling.ProcessorGateway = (*StripeClient)(nil)

func NewStripeClient(cfg *sharedConfig.BillingConfig, logger logger.Interface) *StripeClient {
	stripe.Key = cfg.SecretKey
	return &StripeClient{
		successURL:      cfg.SuccessURL,
		cancelURL:       cfg.CancelURL,
		portalReturnURL: cfg.PortalReturnURL,
		logger:          logger,
	}
}

// CreateCustomer creates a processor customer tagged with the internal
// user id so webhook events stay self-describing.
func (c *StripeClient) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.AddMetadata("user_id", userID)

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	c.logger.Infow("processor customer created",
		"user_id", userID,
		"customer_id", cust.ID,
	)
	return cust.ID, nil
}

// CreateCheckoutSession opens a checkout session. The internal user id,
// plan and price ride along in session metadata (and in subscription
// metadata for recurring plans) so later webhook events can resolve the
// user even when no customer mapping exists yet.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req appBilling.ProcessorCheckout) (*appBilling.ProcessorSession, error) {
	mode := stripe.CheckoutSessionModeSubscription
	if req.OneTime {
		mode = stripe.CheckoutSessionModePayment
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(mode)),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		ClientReferenceID: stripe.String(req.UserID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	idempotencyKey, err := id.GenerateWithPrefix(id.PrefixIdempotency, id.DefaultLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate idempotency key: %w", err)
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	params.AddMetadata("user_id", req.UserID)
	params.AddMetadata("plan_id", string(req.PlanID))
	params.AddMetadata("price_id", req.PriceID)

	if !req.OneTime {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": req.UserID,
				"plan_id": string(req.PlanID),
			},
		}
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	result := &appBilling.ProcessorSession{
		ID:  sess.ID,
		URL: sess.URL,
	}
	if sess.Customer != nil {
		result.CustomerID = sess.Customer.ID
	}
	return result, nil
}

// CreatePortalSession opens a billing portal session for an existing
// processor customer.
func (c *StripeClient) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(c.portalReturnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}

	return sess.URL, nil
}
