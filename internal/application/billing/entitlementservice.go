package billing

import (
	"context"
	"time"

	domainBilling "chartly/internal/domain/billing"
	"chartly/internal/shared/logger"
)

// EntitlementService answers "what plan does this user have right now".
// When several records are granted at once (plan changes, stacked one-time
// passes), the highest-precedence plan wins, ties broken by the most
// recent period start. Users with nothing granted are on the free plan.
type EntitlementService struct {
	entitlements domainBilling.EntitlementRepository
	now          func() time.Time
	logger       logger.Interface
}

func NewEntitlementService(entitlements domainBilling.EntitlementRepository, logger logger.Interface) *EntitlementService {
	return &EntitlementService{
		entitlements: entitlements,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *EntitlementService) WithClock(now func() time.Time) *EntitlementService {
	s.now = now
	return s
}

// ActiveEntitlement returns the governing entitlement record, or nil when
// the user has none granted.
func (s *EntitlementService) ActiveEntitlement(ctx context.Context, userID string) (*domainBilling.Entitlement, error) {
	now := s.now()
	records, err := s.entitlements.GetGrantedByUser(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	return domainBilling.SelectActive(records, now), nil
}

// ActivePlan resolves the user's current plan, defaulting to free.
func (s *EntitlementService) ActivePlan(ctx context.Context, userID string) (domainBilling.PlanID, error) {
	entitlement, err := s.ActiveEntitlement(ctx, userID)
	if err != nil {
		return "", err
	}
	if entitlement == nil {
		return domainBilling.PlanFree, nil
	}
	return entitlement.PlanID(), nil
}
