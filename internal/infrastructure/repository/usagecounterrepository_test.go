package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chartly/internal/domain/usage"
	"chartly/internal/infrastructure/persistence/models"
)

func TestUsageCounterRepository_IncrementIfBelow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUsageCounterRepository(db, newNopLogger())
	ctx := context.Background()

	key := usage.CounterKey{UserID: "user_1", ResourceType: usage.ResourceAnalysis, PeriodBucket: "2026-08"}

	t.Run("first increment creates the row at one", func(t *testing.T) {
		allowed, count, err := repo.IncrementIfBelow(ctx, key, 3)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(1), count)
	})

	t.Run("increments up to the limit then denies", func(t *testing.T) {
		const limit = int64(3)

		var allowedCalls int
		for i := 0; i < 5; i++ {
			allowed, _, err := repo.IncrementIfBelow(ctx, key, limit)
			require.NoError(t, err)
			if allowed {
				allowedCalls++
			}
		}

		// One increment already happened above; exactly limit total pass.
		assert.Equal(t, int(limit)-1, allowedCalls)

		count, err := repo.CurrentCount(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, limit, count)
	})

	t.Run("denied calls never move the counter", func(t *testing.T) {
		_, count, err := repo.IncrementIfBelow(ctx, key, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("separate month bucket starts fresh", func(t *testing.T) {
		nextMonth := usage.CounterKey{UserID: "user_1", ResourceType: usage.ResourceAnalysis, PeriodBucket: "2026-09"}
		allowed, count, err := repo.IncrementIfBelow(ctx, nextMonth, 3)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(1), count)
	})

	t.Run("zero limit denies without creating a row", func(t *testing.T) {
		zeroKey := usage.CounterKey{UserID: "user_2", ResourceType: usage.ResourceAnalysis, PeriodBucket: "2026-08"}
		allowed, count, err := repo.IncrementIfBelow(ctx, zeroKey, 0)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Zero(t, count)

		stored, err := repo.CurrentCount(ctx, zeroKey)
		require.NoError(t, err)
		assert.Zero(t, stored)
	})
}

// setupFileTestDB opens a file-backed sqlite database that tolerates
// parallel writers; the in-memory setup gives every connection its own
// database and cannot host a concurrency test.
func setupFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL",
		filepath.Join(t.TempDir(), "counters.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.UsageCounterModel{}))
	return db
}

func TestUsageCounterRepository_ConcurrentIncrements(t *testing.T) {
	db := setupFileTestDB(t)
	repo := NewUsageCounterRepository(db, newNopLogger())
	ctx := context.Background()

	const limit = int64(10)
	const racers = 8

	key := usage.CounterKey{UserID: "user_1", ResourceType: usage.ResourceAnalysis, PeriodBucket: "2026-08"}

	// Seed the counter to one below the limit.
	for i := int64(0); i < limit-1; i++ {
		allowed, _, err := repo.IncrementIfBelow(ctx, key, limit)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	// With one slot left, racing callers must win exactly once.
	var wg sync.WaitGroup
	allows := make(chan bool, racers)
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _, err := repo.IncrementIfBelow(ctx, key, limit)
			allows <- allowed
			errs <- err
		}()
	}
	wg.Wait()
	close(allows)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	allowCount := 0
	for allowed := range allows {
		if allowed {
			allowCount++
		}
	}
	assert.Equal(t, 1, allowCount)

	count, err := repo.CurrentCount(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, limit, count)
}

func TestUsageCounterRepository_CurrentCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUsageCounterRepository(db, newNopLogger())
	ctx := context.Background()

	key := usage.CounterKey{UserID: "user_1", ResourceType: usage.ResourceAnalysis, PeriodBucket: "2026-08"}

	count, err := repo.CurrentCount(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, count)
}
