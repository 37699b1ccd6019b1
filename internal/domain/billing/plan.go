package billing

import "time"

// PlanID is a named entitlement tier.
type PlanID string

const (
	PlanFree     PlanID = "free"
	PlanPass     PlanID = "pass"
	PlanPro      PlanID = "pro"
	PlanLifetime PlanID = "lifetime"
)

// ValidPlans contains all known plan identifiers.
var ValidPlans = map[PlanID]bool{
	PlanFree:     true,
	PlanPass:     true,
	PlanPro:      true,
	PlanLifetime: true,
}

// BillingPeriod distinguishes recurring cycles from one-time purchases.
type BillingPeriod string

const (
	PeriodMonthly BillingPeriod = "monthly"
	PeriodYearly  BillingPeriod = "yearly"
	PeriodOneTime BillingPeriod = "one_time"
)

const (
	// PassDuration is the validity window of the one-time short pass.
	PassDuration = 7 * 24 * time.Hour

	// LifetimeYears is the effectively-infinite window for lifetime
	// purchases. A concrete period end keeps every downstream check a
	// uniform "now < period_end" comparison.
	LifetimeYears = 100
)

// Precedence orders plans from lowest to highest privilege. Used to pick
// the active entitlement when a user holds several records.
func (p PlanID) Precedence() int {
	switch p {
	case PlanLifetime:
		return 3
	case PlanPro:
		return 2
	case PlanPass:
		return 1
	default:
		return 0
	}
}

// IsOneTime reports whether the plan is purchased once rather than
// subscribed to.
func (p PlanID) IsOneTime() bool {
	return p == PlanPass || p == PlanLifetime
}

// OneTimePeriodEnd computes the validity window end for a one-time plan
// purchased at the given instant.
func OneTimePeriodEnd(plan PlanID, purchasedAt time.Time) time.Time {
	if plan == PlanLifetime {
		return purchasedAt.AddDate(LifetimeYears, 0, 0)
	}
	return purchasedAt.Add(PassDuration)
}

// PricePoint identifies what a processor price sells: a plan and its
// billing period.
type PricePoint struct {
	PlanID PlanID
	Period BillingPeriod
}

// PriceTable is the static, bidirectional price-identifier mapping loaded
// once at startup. Absence of an entry is a request-time configuration
// error, never a crash.
type PriceTable struct {
	byPrice map[string]PricePoint
	byPlan  map[PlanID]map[BillingPeriod]string
}

// NewPriceTable builds a price table from priceID -> PricePoint entries.
func NewPriceTable(entries map[string]PricePoint) *PriceTable {
	t := &PriceTable{
		byPrice: make(map[string]PricePoint, len(entries)),
		byPlan:  make(map[PlanID]map[BillingPeriod]string),
	}
	for priceID, point := range entries {
		if priceID == "" || !ValidPlans[point.PlanID] {
			continue
		}
		t.byPrice[priceID] = point
		if t.byPlan[point.PlanID] == nil {
			t.byPlan[point.PlanID] = make(map[BillingPeriod]string)
		}
		t.byPlan[point.PlanID][point.Period] = priceID
	}
	return t
}

// ResolvePrice reverse-maps a processor price identifier to its plan.
func (t *PriceTable) ResolvePrice(priceID string) (PricePoint, bool) {
	point, ok := t.byPrice[priceID]
	return point, ok
}

// PriceFor returns the processor price identifier for a plan and period.
func (t *PriceTable) PriceFor(plan PlanID, period BillingPeriod) (string, bool) {
	periods, ok := t.byPlan[plan]
	if !ok {
		return "", false
	}
	priceID, ok := periods[period]
	return priceID, ok
}
