package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthBucket(t *testing.T) {
	assert.Equal(t, "2026-08", MonthBucket(time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)))

	// Buckets are computed in UTC regardless of the input zone.
	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, "2026-08", MonthBucket(time.Date(2026, 9, 1, 8, 0, 0, 0, tokyo)))
}

func TestMonthResetAt(t *testing.T) {
	t.Run("mid month", func(t *testing.T) {
		resetAt := MonthResetAt(time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), resetAt)
	})

	t.Run("december rolls into next year", func(t *testing.T) {
		resetAt := MonthResetAt(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), resetAt)
	})
}

func TestCounterKeyString(t *testing.T) {
	key := CounterKey{UserID: "user_1", ResourceType: ResourceAnalysis, PeriodBucket: "2026-08"}
	assert.Equal(t, "user_1/analysis/2026-08", key.String())
}
