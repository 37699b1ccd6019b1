// Package usage defines the metered-operation counters consulted before
// billable work runs. Counters are append-by-increment and roll over on
// their window boundary.
package usage

import (
	"context"
	"fmt"
	"time"
)

// ResourceType names a metered resource.
type ResourceType string

const (
	// ResourceAnalysis is the AI chart-analysis call.
	ResourceAnalysis ResourceType = "analysis"
)

// Decision is the outcome of a conditional counter increment.
type Decision struct {
	Allowed   bool
	Used      int64
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// MonthBucket returns the calendar-month key for the given instant,
// e.g. "2026-08". All usage counters for a month share one bucket.
func MonthBucket(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// MonthResetAt returns the instant the current month bucket rolls over.
func MonthResetAt(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// CounterKey identifies one monthly counter row.
type CounterKey struct {
	UserID       string
	ResourceType ResourceType
	PeriodBucket string
}

func (k CounterKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.UserID, k.ResourceType, k.PeriodBucket)
}

// CounterRepository stores monthly usage counters. IncrementIfBelow is the
// single atomic read-modify-write the gatekeeper relies on: two concurrent
// calls near the limit must never both succeed when only one should.
type CounterRepository interface {
	// IncrementIfBelow atomically increments the counter when its current
	// value is below limit. It reports whether the increment happened and
	// the counter value after the call.
	IncrementIfBelow(ctx context.Context, key CounterKey, limit int64) (allowed bool, count int64, err error)

	// CurrentCount returns the counter value, zero when no row exists.
	CurrentCount(ctx context.Context, key CounterKey) (int64, error)
}
