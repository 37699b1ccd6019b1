package billing

import (
	"context"
	"time"

	domainBilling "chartly/internal/domain/billing"
	"chartly/internal/shared/errors"
	"chartly/internal/shared/logger"
)

// CheckoutService is the synchronous bridge between user actions and the
// payment processor: it creates checkout/portal sessions and, for one-time
// plans, optimistically pre-provisions the entitlement so the user is not
// left waiting on webhook delivery latency.
type CheckoutService struct {
	gateway      ProcessorGateway
	mappings     domainBilling.CustomerMappingRepository
	entitlements domainBilling.EntitlementRepository
	prices       *domainBilling.PriceTable
	now          func() time.Time
	logger       logger.Interface
}

func NewCheckoutService(
	gateway ProcessorGateway,
	mappings domainBilling.CustomerMappingRepository,
	entitlements domainBilling.EntitlementRepository,
	prices *domainBilling.PriceTable,
	logger logger.Interface,
) *CheckoutService {
	return &CheckoutService{
		gateway:      gateway,
		mappings:     mappings,
		entitlements: entitlements,
		prices:       prices,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *CheckoutService) WithClock(now func() time.Time) *CheckoutService {
	s.now = now
	return s
}

// StartCheckout resolves or creates the customer mapping, opens a
// processor checkout session for the requested plan and period, and
// returns the redirect URL.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID, email string, plan domainBilling.PlanID, period domainBilling.BillingPeriod) (string, error) {
	if !domainBilling.ValidPlans[plan] || plan == domainBilling.PlanFree {
		return "", errors.NewValidationError("plan is not purchasable", string(plan))
	}
	if plan.IsOneTime() {
		period = domainBilling.PeriodOneTime
	}

	priceID, ok := s.prices.PriceFor(plan, period)
	if !ok {
		s.logger.Warnw("no price configured for requested plan",
			"plan_id", plan,
			"period", period,
		)
		return "", errors.NewBadRequestError("plan is not available for the requested billing period")
	}

	customerID, err := s.mappings.LookupCustomerByUser(ctx, userID)
	if err != nil {
		return "", errors.NewInternalError("failed to resolve billing profile", err.Error())
	}
	if customerID == "" {
		customerID, err = s.gateway.CreateCustomer(ctx, userID, email)
		if err != nil {
			return "", errors.NewInternalError("failed to create billing profile", err.Error())
		}
		if err := s.mappings.UpsertCustomer(ctx, userID, customerID); err != nil {
			return "", errors.NewInternalError("failed to store billing profile", err.Error())
		}
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, ProcessorCheckout{
		CustomerID: customerID,
		UserID:     userID,
		PlanID:     plan,
		PriceID:    priceID,
		OneTime:    plan.IsOneTime(),
	})
	if err != nil {
		return "", errors.NewInternalError("failed to create checkout session", err.Error())
	}

	if sess.CustomerID != "" && sess.CustomerID != customerID {
		if err := s.mappings.UpsertCustomer(ctx, userID, sess.CustomerID); err != nil {
			return "", errors.NewInternalError("failed to store billing profile", err.Error())
		}
		customerID = sess.CustomerID
	}

	if plan.IsOneTime() {
		s.preProvision(ctx, sess.ID, userID, customerID, plan)
	}

	s.logger.Infow("checkout session created",
		"user_id", userID,
		"plan_id", plan,
		"period", period,
		"session_id", sess.ID,
	)
	return sess.URL, nil
}

// preProvision writes the synthetic-id entitlement before the webhook
// arrives. This is an explicit eventual-consistency window: the later
// webhook upsert is authoritative and overwrites whatever is here, so a
// failed pre-provision only costs the user the head start, never
// correctness.
func (s *CheckoutService) preProvision(ctx context.Context, sessionID, userID, customerID string, plan domainBilling.PlanID) {
	entitlement, err := domainBilling.NewOneTimeEntitlement(sessionID, userID, customerID, plan, s.now())
	if err != nil {
		s.logger.Warnw("failed to build pre-provisioned entitlement",
			"session_id", sessionID,
			"error", err,
		)
		return
	}

	if err := s.entitlements.Upsert(ctx, entitlement); err != nil {
		s.logger.Warnw("failed to pre-provision one-time entitlement",
			"session_id", sessionID,
			"user_id", userID,
			"error", err,
		)
	}
}

// StartPortalSession opens the processor's billing portal for an existing
// customer. A user without a mapping gets the distinct no-billing-profile
// condition so the UI routes them to checkout instead of retrying.
func (s *CheckoutService) StartPortalSession(ctx context.Context, userID string) (string, error) {
	customerID, err := s.mappings.LookupCustomerByUser(ctx, userID)
	if err != nil {
		return "", errors.NewInternalError("failed to resolve billing profile", err.Error())
	}
	if customerID == "" {
		return "", errors.NewNoBillingProfileError()
	}

	url, err := s.gateway.CreatePortalSession(ctx, customerID)
	if err != nil {
		return "", errors.NewInternalError("failed to create portal session", err.Error())
	}

	return url, nil
}
