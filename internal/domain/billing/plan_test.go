package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanPrecedence(t *testing.T) {
	assert.Equal(t, 0, PlanFree.Precedence())
	assert.Equal(t, 1, PlanPass.Precedence())
	assert.Equal(t, 2, PlanPro.Precedence())
	assert.Equal(t, 3, PlanLifetime.Precedence())
	assert.Equal(t, 0, PlanID("unknown").Precedence())
}

func TestPlanIsOneTime(t *testing.T) {
	assert.True(t, PlanPass.IsOneTime())
	assert.True(t, PlanLifetime.IsOneTime())
	assert.False(t, PlanFree.IsOneTime())
	assert.False(t, PlanPro.IsOneTime())
}

func TestOneTimePeriodEnd(t *testing.T) {
	purchasedAt := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	t.Run("pass expires after exactly seven days", func(t *testing.T) {
		end := OneTimePeriodEnd(PlanPass, purchasedAt)
		assert.Equal(t, purchasedAt.Add(7*24*time.Hour), end)
	})

	t.Run("lifetime expires a hundred years out", func(t *testing.T) {
		end := OneTimePeriodEnd(PlanLifetime, purchasedAt)
		assert.Equal(t, purchasedAt.AddDate(100, 0, 0), end)
	})
}

func TestPriceTable(t *testing.T) {
	table := NewPriceTable(map[string]PricePoint{
		"price_pro_monthly": {PlanID: PlanPro, Period: PeriodMonthly},
		"price_pro_yearly":  {PlanID: PlanPro, Period: PeriodYearly},
		"price_pass":        {PlanID: PlanPass, Period: PeriodOneTime},
	})

	t.Run("resolves known price", func(t *testing.T) {
		point, ok := table.ResolvePrice("price_pro_yearly")
		assert.True(t, ok)
		assert.Equal(t, PlanPro, point.PlanID)
		assert.Equal(t, PeriodYearly, point.Period)
	})

	t.Run("unknown price misses", func(t *testing.T) {
		_, ok := table.ResolvePrice("price_retired")
		assert.False(t, ok)
	})

	t.Run("forward lookup by plan and period", func(t *testing.T) {
		priceID, ok := table.PriceFor(PlanPass, PeriodOneTime)
		assert.True(t, ok)
		assert.Equal(t, "price_pass", priceID)
	})

	t.Run("missing period for a known plan misses", func(t *testing.T) {
		_, ok := table.PriceFor(PlanPass, PeriodMonthly)
		assert.False(t, ok)
	})

	t.Run("entries with invalid plans are dropped", func(t *testing.T) {
		bad := NewPriceTable(map[string]PricePoint{
			"price_bogus": {PlanID: PlanID("enterprise"), Period: PeriodMonthly},
		})
		_, ok := bad.ResolvePrice("price_bogus")
		assert.False(t, ok)
	})
}
