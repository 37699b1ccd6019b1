package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appUsage "chartly/internal/application/usage"
	domainBilling "chartly/internal/domain/billing"
	domainUsage "chartly/internal/domain/usage"
	"chartly/internal/infrastructure/ratelimit"
	sharedConfig "chartly/internal/shared/config"
)

// scenarioCounters is a minimal in-memory counter store for the
// end-to-end flow below.
type scenarioCounters struct {
	counts map[string]int64
}

func (m *scenarioCounters) IncrementIfBelow(ctx context.Context, key domainUsage.CounterKey, limit int64) (bool, int64, error) {
	current := m.counts[key.String()]
	if current >= limit {
		return false, current, nil
	}
	m.counts[key.String()] = current + 1
	return true, current + 1, nil
}

func (m *scenarioCounters) CurrentCount(ctx context.Context, key domainUsage.CounterKey) (int64, error) {
	return m.counts[key.String()], nil
}

type scenarioLimiter struct{}

func (scenarioLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ratelimit.Result, error) {
	return ratelimit.Result{Allowed: true, Remaining: int64(limit)}, nil
}

// TestPassPurchaseFlow walks the full one-time purchase lifecycle:
// checkout with pre-provision, the authoritative webhook, metered usage
// under the upgraded limit, and expiry back to the free plan.
func TestPassPurchaseFlow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	gateway := &fakeGateway{}
	mappings := newMemMappings()
	entitlements := newMemEntitlements()
	counters := &scenarioCounters{counts: make(map[string]int64)}

	checkout := NewCheckoutService(gateway, mappings, entitlements, testPriceTable(), newNopLogger())
	checkout.WithClock(clock)
	reconciler := NewReconciler(newMemLedger(), mappings, entitlements, testPriceTable(), newNopLogger())
	reconciler.WithClock(clock)
	plans := NewEntitlementService(entitlements, newNopLogger())
	plans.WithClock(clock)

	limits := map[domainBilling.PlanID]int64{
		domainBilling.PlanFree: 2,
		domainBilling.PlanPass: 100,
	}
	gatekeeper := appUsage.NewGatekeeper(counters, scenarioLimiter{}, plans, limits,
		map[string]sharedConfig.EndpointRateLimit{}, newNopLogger())
	gatekeeper.WithClock(clock)

	// Free user burns through the free tier.
	for i := 0; i < 2; i++ {
		decision, err := gatekeeper.CheckUsage(ctx, "user_1", domainUsage.ResourceAnalysis)
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}
	decision, err := gatekeeper.CheckUsage(ctx, "user_1", domainUsage.ResourceAnalysis)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	// Checkout for a pass pre-provisions immediately.
	_, err = checkout.StartCheckout(ctx, "user_1", "u@example.com", domainBilling.PlanPass, domainBilling.PeriodOneTime)
	require.NoError(t, err)

	plan, err := plans.ActivePlan(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, domainBilling.PlanPass, plan)

	// The authoritative webhook converges on the same synthetic row.
	sessionID := "cs_1" // first session the fake gateway minted
	payload := []byte(fmt.Sprintf(`{
		"id": %q,
		"mode": "payment",
		"customer": "cus_new_1",
		"metadata": {"user_id": "user_1", "price_id": "price_pass"}
	}`, sessionID))
	require.NoError(t, reconciler.ProcessEvent(ctx, "evt_checkout", "checkout.session.completed", now, payload))

	records, err := entitlements.GetByUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// The pass limit now applies; the exhausted free counter is irrelevant
	// because the cap moved, not the count.
	decision, err = gatekeeper.CheckUsage(ctx, "user_1", domainUsage.ResourceAnalysis)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, int64(100), decision.Limit)

	// Eight days later the pass has lapsed and free limits govern again.
	now = now.Add(8 * 24 * time.Hour)

	plan, err = plans.ActivePlan(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, domainBilling.PlanFree, plan)

	decision, err = gatekeeper.CheckUsage(ctx, "user_1", domainUsage.ResourceAnalysis)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(2), decision.Limit)
}

// TestSubscriptionLifecycleFlow drives a recurring subscription from
// creation through cancellation via webhook deliveries alone.
func TestSubscriptionLifecycleFlow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	mappings := newMemMappings()
	entitlements := newMemEntitlements()
	reconciler := NewReconciler(newMemLedger(), mappings, entitlements, testPriceTable(), newNopLogger())
	plans := NewEntitlementService(entitlements, newNopLogger())
	plans.WithClock(func() time.Time { return now })

	require.NoError(t, mappings.UpsertCustomer(ctx, "user_1", "cus_1"))

	start := now.Add(-time.Hour).Unix()
	end := now.Add(30 * 24 * time.Hour).Unix()

	created := subscriptionJSON("sub_1", "cus_1", "price_pro_monthly", "active", start, end)
	require.NoError(t, reconciler.ProcessEvent(ctx, "evt_1", "customer.subscription.created", now, created))

	plan, err := plans.ActivePlan(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, domainBilling.PlanPro, plan)

	deleted := subscriptionJSON("sub_1", "cus_1", "price_pro_monthly", "canceled", start, end)
	require.NoError(t, reconciler.ProcessEvent(ctx, "evt_2", "customer.subscription.deleted", now, deleted))

	plan, err = plans.ActivePlan(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, domainBilling.PlanFree, plan)
}
