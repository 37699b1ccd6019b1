package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chartly/internal/domain/usage"
	"chartly/internal/infrastructure/persistence/models"
	"chartly/internal/shared/errors"
	"chartly/internal/shared/logger"
)

type UsageCounterRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewUsageCounterRepository(db *gorm.DB, logger logger.Interface) usage.CounterRepository {
	return &UsageCounterRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// IncrementIfBelow performs the conditional increment as one UPDATE so the
// read-modify-write is never split across round trips. A missing row is
// created with count=1 (guarded by the composite unique index against the
// concurrent-first-request race), then the UPDATE is retried once.
func (r *UsageCounterRepositoryImpl) IncrementIfBelow(ctx context.Context, key usage.CounterKey, limit int64) (bool, int64, error) {
	if limit <= 0 {
		count, err := r.CurrentCount(ctx, key)
		if err != nil {
			return false, 0, err
		}
		return false, count, nil
	}

	incremented, err := r.conditionalIncrement(ctx, key, limit)
	if err != nil {
		return false, 0, err
	}

	if !incremented {
		created, err := r.tryCreate(ctx, key)
		if err != nil {
			return false, 0, err
		}
		if created {
			return true, 1, nil
		}

		// Row existed after all (either at the limit or inserted by a
		// concurrent request). One retry settles which.
		incremented, err = r.conditionalIncrement(ctx, key, limit)
		if err != nil {
			return false, 0, err
		}
	}

	count, err := r.CurrentCount(ctx, key)
	if err != nil {
		return false, 0, err
	}

	return incremented, count, nil
}

func (r *UsageCounterRepositoryImpl) conditionalIncrement(ctx context.Context, key usage.CounterKey, limit int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.UsageCounterModel{}).
		Where("user_id = ? AND resource_type = ? AND period_bucket = ? AND count < ?",
			key.UserID, string(key.ResourceType), key.PeriodBucket, limit).
		Updates(map[string]interface{}{
			"count":      gorm.Expr("count + 1"),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		r.logger.Errorw("failed to increment usage counter",
			"error", result.Error,
			"counter", key.String(),
		)
		return false, fmt.Errorf("failed to increment usage counter: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *UsageCounterRepositoryImpl) tryCreate(ctx context.Context, key usage.CounterKey) (bool, error) {
	model := &models.UsageCounterModel{
		UserID:       key.UserID,
		ResourceType: string(key.ResourceType),
		PeriodBucket: key.PeriodBucket,
		Count:        1,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "resource_type"}, {Name: "period_bucket"}},
		DoNothing: true,
	}).Create(model)

	if result.Error != nil {
		if errors.IsDuplicateError(result.Error) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create usage counter: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *UsageCounterRepositoryImpl) CurrentCount(ctx context.Context, key usage.CounterKey) (int64, error) {
	var model models.UsageCounterModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND resource_type = ? AND period_bucket = ?",
			key.UserID, string(key.ResourceType), key.PeriodBucket).
		First(&model).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get usage counter: %w", err)
	}

	return model.Count, nil
}
