package usage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainBilling "chartly/internal/domain/billing"
	domainUsage "chartly/internal/domain/usage"
	"chartly/internal/infrastructure/ratelimit"
	sharedConfig "chartly/internal/shared/config"
	"chartly/internal/shared/logger"
)

// nopLogger is a no-op logger for testing.
type nopLogger struct{}

func newNopLogger() logger.Interface { return &nopLogger{} }

func (l *nopLogger) Debug(msg string, args ...any)                   {}
func (l *nopLogger) Info(msg string, args ...any)                    {}
func (l *nopLogger) Warn(msg string, args ...any)                    {}
func (l *nopLogger) Error(msg string, args ...any)                   {}
func (l *nopLogger) With(args ...any) logger.Interface               { return l }
func (l *nopLogger) Named(name string) logger.Interface              { return l }
func (l *nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}

// memCounters is an in-memory counter store.
type memCounters struct {
	counts map[string]int64
	fail   bool
}

func newMemCounters() *memCounters {
	return &memCounters{counts: make(map[string]int64)}
}

func (m *memCounters) IncrementIfBelow(ctx context.Context, key domainUsage.CounterKey, limit int64) (bool, int64, error) {
	if m.fail {
		return false, 0, fmt.Errorf("counter store unavailable")
	}
	current := m.counts[key.String()]
	if current >= limit {
		return false, current, nil
	}
	m.counts[key.String()] = current + 1
	return true, current + 1, nil
}

func (m *memCounters) CurrentCount(ctx context.Context, key domainUsage.CounterKey) (int64, error) {
	if m.fail {
		return 0, fmt.Errorf("counter store unavailable")
	}
	return m.counts[key.String()], nil
}

// fixedPlans resolves every user to one plan.
type fixedPlans struct {
	plan domainBilling.PlanID
	err  error
}

func (p *fixedPlans) ActivePlan(ctx context.Context, userID string) (domainBilling.PlanID, error) {
	return p.plan, p.err
}

// stubLimiter returns a canned result or error.
type stubLimiter struct {
	result ratelimit.Result
	err    error
	calls  int
}

func (l *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ratelimit.Result, error) {
	l.calls++
	return l.result, l.err
}

func testRateLimits() map[string]sharedConfig.EndpointRateLimit {
	return map[string]sharedConfig.EndpointRateLimit{
		"analysis": {MaxRequests: 10, WindowSeconds: 60},
	}
}

func testUsageLimits() map[domainBilling.PlanID]int64 {
	return map[domainBilling.PlanID]int64{
		domainBilling.PlanFree: 2,
		domainBilling.PlanPro:  500,
	}
}

func TestGatekeeper_CheckUsage(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	newGatekeeper := func(counters *memCounters, plans *fixedPlans) *Gatekeeper {
		g := NewGatekeeper(counters, &stubLimiter{}, plans, testUsageLimits(), testRateLimits(), newNopLogger())
		g.WithClock(func() time.Time { return now })
		return g
	}

	t.Run("allows below the plan limit", func(t *testing.T) {
		g := newGatekeeper(newMemCounters(), &fixedPlans{plan: domainBilling.PlanFree})

		decision, err := g.CheckUsage(ctx, "user_1", domainUsage.ResourceAnalysis)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, int64(1), decision.Used)
		assert.Equal(t, int64(2), decision.Limit)
		assert.Equal(t, int64(1), decision.Remaining)
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), decision.ResetAt)
	})

	t.Run("denies at the plan limit", func(t *testing.T) {
		counters := newMemCounters()
		g := newGatekeeper(counters, &fixedPlans{plan: domainBilling.PlanFree})

		for i := 0; i < 2; i++ {
			_, err := g.CheckUsage(ctx, "user_1", domainUsage.ResourceAnalysis)
			require.NoError(t, err)
		}

		decision, err := g.CheckUsage(ctx, "user_1", domainUsage.ResourceAnalysis)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, int64(2), decision.Used)
		assert.Zero(t, decision.Remaining)
	})

	t.Run("unknown plan denies everything", func(t *testing.T) {
		g := newGatekeeper(newMemCounters(), &fixedPlans{plan: domainBilling.PlanLifetime})

		decision, err := g.CheckUsage(ctx, "user_1", domainUsage.ResourceAnalysis)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Zero(t, decision.Limit)
	})

	t.Run("counter store error fails closed", func(t *testing.T) {
		counters := newMemCounters()
		counters.fail = true
		g := newGatekeeper(counters, &fixedPlans{plan: domainBilling.PlanPro})

		_, err := g.CheckUsage(ctx, "user_1", domainUsage.ResourceAnalysis)
		assert.Error(t, err)
	})

	t.Run("plan resolution error fails closed", func(t *testing.T) {
		g := newGatekeeper(newMemCounters(), &fixedPlans{err: fmt.Errorf("entitlement store unavailable")})

		_, err := g.CheckUsage(ctx, "user_1", domainUsage.ResourceAnalysis)
		assert.Error(t, err)
	})
}

func TestGatekeeper_CheckRate(t *testing.T) {
	ctx := context.Background()

	newGatekeeper := func(limiter *stubLimiter) *Gatekeeper {
		return NewGatekeeper(newMemCounters(), limiter, &fixedPlans{plan: domainBilling.PlanPro}, testUsageLimits(), testRateLimits(), newNopLogger())
	}

	t.Run("passes through the limiter result", func(t *testing.T) {
		limiter := &stubLimiter{result: ratelimit.Result{Allowed: false, Remaining: 0}}
		g := newGatekeeper(limiter)

		result, err := g.CheckRate(ctx, "user_1", "analysis")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 1, limiter.calls)
	})

	t.Run("limiter outage fails open", func(t *testing.T) {
		limiter := &stubLimiter{err: fmt.Errorf("redis down")}
		g := newGatekeeper(limiter)

		result, err := g.CheckRate(ctx, "user_1", "analysis")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("unconfigured endpoint is unlimited", func(t *testing.T) {
		limiter := &stubLimiter{}
		g := newGatekeeper(limiter)

		result, err := g.CheckRate(ctx, "user_1", "export")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Zero(t, limiter.calls)
	})
}
