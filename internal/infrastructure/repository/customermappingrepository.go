package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chartly/internal/domain/billing"
	"chartly/internal/infrastructure/persistence/models"
	"chartly/internal/shared/logger"
)

type CustomerMappingRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewCustomerMappingRepository(db *gorm.DB, logger logger.Interface) billing.CustomerMappingRepository {
	return &CustomerMappingRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// UpsertCustomer creates or replaces the mapping for the user. Last write
// wins on user_id conflict: a user has one external customer in steady
// state.
func (r *CustomerMappingRepositoryImpl) UpsertCustomer(ctx context.Context, userID, externalCustomerID string) error {
	model := &models.CustomerMappingModel{
		UserID:             userID,
		ExternalCustomerID: externalCustomerID,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"external_customer_id", "updated_at"}),
	}).Create(model)

	if result.Error != nil {
		r.logger.Errorw("failed to upsert customer mapping",
			"error", result.Error,
			"user_id", userID,
		)
		return fmt.Errorf("failed to upsert customer mapping: %w", result.Error)
	}

	return nil
}

func (r *CustomerMappingRepositoryImpl) LookupCustomerByUser(ctx context.Context, userID string) (string, error) {
	var model models.CustomerMappingModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&model).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up customer by user: %w", err)
	}

	return model.ExternalCustomerID, nil
}

func (r *CustomerMappingRepositoryImpl) LookupUserByCustomer(ctx context.Context, externalCustomerID string) (string, error) {
	var model models.CustomerMappingModel
	err := r.db.WithContext(ctx).
		Where("external_customer_id = ?", externalCustomerID).
		First(&model).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up user by customer: %w", err)
	}

	return model.UserID, nil
}
