package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chartly/internal/domain/billing"
	"chartly/internal/infrastructure/persistence/mappers"
	"chartly/internal/infrastructure/persistence/models"
	"chartly/internal/shared/logger"
)

type EntitlementRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.EntitlementMapper
	logger logger.Interface
}

func NewEntitlementRepository(db *gorm.DB, logger logger.Interface) billing.EntitlementRepository {
	return &EntitlementRepositoryImpl{
		db:     db,
		mapper: mappers.NewEntitlementMapper(),
		logger: logger,
	}
}

// Upsert performs a single atomic insert-or-update keyed by the external
// subscription id. Redelivered or concurrent events for the same
// subscription overwrite rather than interleave: last write wins by
// delivery time.
func (r *EntitlementRepositoryImpl) Upsert(ctx context.Context, e *billing.Entitlement) error {
	model, err := r.mapper.ToModel(e)
	if err != nil {
		return fmt.Errorf("failed to convert entitlement to model: %w", err)
	}
	model.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"external_customer_id",
			"plan_id",
			"status",
			"period_start",
			"period_end",
			"cancel_at_period_end",
			"canceled_at",
			"trial_end",
			"updated_at",
		}),
	}).Create(model)

	if result.Error != nil {
		r.logger.Errorw("failed to upsert entitlement",
			"error", result.Error,
			"external_subscription_id", e.ExternalSubscriptionID(),
		)
		return fmt.Errorf("failed to upsert entitlement: %w", result.Error)
	}

	if e.ID() == 0 && model.ID > 0 {
		if err := e.SetID(model.ID); err != nil {
			return err
		}
	}

	r.logger.Infow("entitlement upserted",
		"external_subscription_id", e.ExternalSubscriptionID(),
		"user_id", e.UserID(),
		"plan_id", e.PlanID(),
		"status", e.Status(),
	)
	return nil
}

func (r *EntitlementRepositoryImpl) GetByExternalSubscriptionID(ctx context.Context, externalSubscriptionID string) (*billing.Entitlement, error) {
	var model models.EntitlementModel
	err := r.db.WithContext(ctx).
		Where("external_subscription_id = ?", externalSubscriptionID).
		First(&model).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, billing.ErrEntitlementNotFound
		}
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *EntitlementRepositoryImpl) GetByUser(ctx context.Context, userID string) ([]*billing.Entitlement, error) {
	var entitlementModels []*models.EntitlementModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period_start DESC").
		Find(&entitlementModels).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get entitlements by user: %w", err)
	}

	return r.mapper.ToEntities(entitlementModels)
}

func (r *EntitlementRepositoryImpl) GetGrantedByUser(ctx context.Context, userID string, now time.Time) ([]*billing.Entitlement, error) {
	var entitlementModels []*models.EntitlementModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND period_end > ? AND status IN ?", userID, now,
			[]string{string(billing.StatusActive), string(billing.StatusTrialing)}).
		Order("period_start DESC").
		Find(&entitlementModels).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get granted entitlements: %w", err)
	}

	return r.mapper.ToEntities(entitlementModels)
}
