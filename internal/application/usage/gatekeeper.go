// Package usage implements the gatekeeper consulted by metered endpoints
// before any billable work runs.
package usage

import (
	"context"
	"time"

	domainBilling "chartly/internal/domain/billing"
	domainUsage "chartly/internal/domain/usage"
	"chartly/internal/infrastructure/ratelimit"
	sharedConfig "chartly/internal/shared/config"
	"chartly/internal/shared/logger"
)

// PlanResolver reports the user's currently active plan.
type PlanResolver interface {
	ActivePlan(ctx context.Context, userID string) (domainBilling.PlanID, error)
}

// Gatekeeper bundles the two limiters metered endpoints consult. The
// failure policies are deliberately asymmetric and must stay that way:
//
//   - The rate limiter fails open on storage errors. It exists for abuse
//     mitigation; blocking all traffic on a Redis outage is worse than
//     briefly not limiting it.
//   - The usage limiter fails closed (surfaces the error). Usage gates
//     paid entitlement; silently allowing unmetered calls would grant
//     more than the user paid for.
type Gatekeeper struct {
	counters   domainUsage.CounterRepository
	limiter    ratelimit.RateLimiter
	plans      PlanResolver
	limits     map[domainBilling.PlanID]int64
	rateLimits map[string]sharedConfig.EndpointRateLimit
	now        func() time.Time
	logger     logger.Interface
}

func NewGatekeeper(
	counters domainUsage.CounterRepository,
	limiter ratelimit.RateLimiter,
	plans PlanResolver,
	limits map[domainBilling.PlanID]int64,
	rateLimits map[string]sharedConfig.EndpointRateLimit,
	logger logger.Interface,
) *Gatekeeper {
	return &Gatekeeper{
		counters:   counters,
		limiter:    limiter,
		plans:      plans,
		limits:     limits,
		rateLimits: rateLimits,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock overrides the gatekeeper clock. Intended for tests.
func (g *Gatekeeper) WithClock(now func() time.Time) *Gatekeeper {
	g.now = now
	return g
}

// UsageLimitFor returns the monthly cap for a plan. Unknown plans get
// zero, which denies everything and surfaces misconfiguration loudly.
func (g *Gatekeeper) UsageLimitFor(plan domainBilling.PlanID) int64 {
	return g.limits[plan]
}

// CheckUsage atomically increments the user's monthly counter for the
// resource when it is below the plan limit. Any storage error is returned
// to the caller (fail closed).
func (g *Gatekeeper) CheckUsage(ctx context.Context, userID string, resource domainUsage.ResourceType) (domainUsage.Decision, error) {
	plan, err := g.plans.ActivePlan(ctx, userID)
	if err != nil {
		return domainUsage.Decision{}, err
	}
	limit := g.limits[plan]

	now := g.now()
	key := domainUsage.CounterKey{
		UserID:       userID,
		ResourceType: resource,
		PeriodBucket: domainUsage.MonthBucket(now),
	}

	allowed, count, err := g.counters.IncrementIfBelow(ctx, key, limit)
	if err != nil {
		return domainUsage.Decision{}, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	decision := domainUsage.Decision{
		Allowed:   allowed,
		Used:      count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   domainUsage.MonthResetAt(now),
	}

	if !allowed {
		g.logger.Infow("usage limit reached",
			"user_id", userID,
			"resource", resource,
			"plan_id", plan,
			"used", count,
			"limit", limit,
		)
	}

	return decision, nil
}

// CurrentUsage reads the counter without incrementing, for display.
func (g *Gatekeeper) CurrentUsage(ctx context.Context, userID string, resource domainUsage.ResourceType) (domainUsage.Decision, error) {
	plan, err := g.plans.ActivePlan(ctx, userID)
	if err != nil {
		return domainUsage.Decision{}, err
	}
	limit := g.limits[plan]

	now := g.now()
	key := domainUsage.CounterKey{
		UserID:       userID,
		ResourceType: resource,
		PeriodBucket: domainUsage.MonthBucket(now),
	}

	count, err := g.counters.CurrentCount(ctx, key)
	if err != nil {
		return domainUsage.Decision{}, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return domainUsage.Decision{
		Allowed:   count < limit,
		Used:      count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   domainUsage.MonthResetAt(now),
	}, nil
}

// CheckRate enforces the short fixed-window limit configured for the
// endpoint. A limiter outage fails open: the request is allowed and the
// outage logged.
func (g *Gatekeeper) CheckRate(ctx context.Context, userID, endpoint string) (ratelimit.Result, error) {
	cfg, ok := g.rateLimits[endpoint]
	if !ok || cfg.MaxRequests <= 0 {
		return ratelimit.Result{Allowed: true, Remaining: -1}, nil
	}

	window := time.Duration(cfg.WindowSeconds) * time.Second
	result, err := g.limiter.Allow(ctx, endpoint+":"+userID, cfg.MaxRequests, window)
	if err != nil {
		g.logger.Errorw("rate limiter unavailable, failing open",
			"error", err,
			"endpoint", endpoint,
			"user_id", userID,
		)
		return ratelimit.Result{Allowed: true, Remaining: -1}, nil
	}

	return result, nil
}
