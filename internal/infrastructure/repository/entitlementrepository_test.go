package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chartly/internal/domain/billing"
	"chartly/internal/infrastructure/persistence/models"
)

func newTestEntitlement(t *testing.T, subID string, status billing.EntitlementStatus, start, end time.Time) *billing.Entitlement {
	t.Helper()
	e, err := billing.NewSubscriptionEntitlement(subID, "user_1", "cus_1", billing.PlanPro, status, start, end, false, nil, nil)
	require.NoError(t, err)
	return e
}

func TestEntitlementRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntitlementRepository(db, newNopLogger())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("insert assigns an id", func(t *testing.T) {
		e := newTestEntitlement(t, "sub_1", billing.StatusActive, now, now.Add(30*24*time.Hour))
		require.NoError(t, repo.Upsert(ctx, e))
		assert.NotZero(t, e.ID())
	})

	t.Run("second upsert overwrites the same row", func(t *testing.T) {
		updated := newTestEntitlement(t, "sub_1", billing.StatusCanceled, now, now.Add(30*24*time.Hour))
		require.NoError(t, repo.Upsert(ctx, updated))

		var count int64
		require.NoError(t, db.Model(&models.EntitlementModel{}).Where("external_subscription_id = ?", "sub_1").Count(&count).Error)
		assert.Equal(t, int64(1), count)

		got, err := repo.GetByExternalSubscriptionID(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, billing.StatusCanceled, got.Status())
	})

	t.Run("pre-provision then webhook converge on one row", func(t *testing.T) {
		pre, err := billing.NewOneTimeEntitlement("cs_1", "user_1", "", billing.PlanPass, now)
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, pre))

		// The authoritative webhook write carries the customer id.
		confirmed, err := billing.NewOneTimeEntitlement("cs_1", "user_1", "cus_1", billing.PlanPass, now.Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, confirmed))

		var count int64
		require.NoError(t, db.Model(&models.EntitlementModel{}).Where("external_subscription_id = ?", "one_time_cs_1").Count(&count).Error)
		assert.Equal(t, int64(1), count)

		got, err := repo.GetByExternalSubscriptionID(ctx, "one_time_cs_1")
		require.NoError(t, err)
		assert.Equal(t, "cus_1", got.ExternalCustomerID())
	})
}

func TestEntitlementRepository_GetGrantedByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntitlementRepository(db, newNopLogger())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	seed := []*billing.Entitlement{
		newTestEntitlement(t, "sub_active", billing.StatusActive, now.Add(-time.Hour), now.Add(time.Hour)),
		newTestEntitlement(t, "sub_trialing", billing.StatusTrialing, now.Add(-2*time.Hour), now.Add(time.Hour)),
		newTestEntitlement(t, "sub_past_due", billing.StatusPastDue, now.Add(-time.Hour), now.Add(time.Hour)),
		newTestEntitlement(t, "sub_expired", billing.StatusActive, now.Add(-48*time.Hour), now.Add(-time.Hour)),
	}
	for _, e := range seed {
		require.NoError(t, repo.Upsert(ctx, e))
	}

	granted, err := repo.GetGrantedByUser(ctx, "user_1", now)
	require.NoError(t, err)
	require.Len(t, granted, 2)

	// Ordered by period start, newest first.
	assert.Equal(t, "sub_active", granted[0].ExternalSubscriptionID())
	assert.Equal(t, "sub_trialing", granted[1].ExternalSubscriptionID())

	t.Run("not found sentinel on direct lookup", func(t *testing.T) {
		_, err := repo.GetByExternalSubscriptionID(ctx, "sub_nope")
		assert.ErrorIs(t, err, billing.ErrEntitlementNotFound)
	})
}
