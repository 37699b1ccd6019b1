package repository

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"chartly/internal/domain/billing"
	"chartly/internal/infrastructure/persistence/models"
	"chartly/internal/shared/errors"
	"chartly/internal/shared/logger"
)

type BillingEventRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewBillingEventRepository(db *gorm.DB, logger logger.Interface) billing.EventLedger {
	return &BillingEventRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Record attempts an unconditional insert of the ledger row. A unique
// constraint violation on event_id is mapped to RecordDuplicate and is
// never an error; anything else is a hard failure so the caller can force
// the processor to redeliver.
func (r *BillingEventRepositoryImpl) Record(ctx context.Context, entry *billing.LedgerEntry) (billing.RecordOutcome, error) {
	model := &models.BillingEventModel{
		EventID:   entry.EventID,
		Type:      entry.Type,
		CreatedAt: entry.CreatedAt,
		Payload:   datatypes.JSON(entry.Payload),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			r.logger.Infow("duplicate billing event, skipping",
				"event_id", entry.EventID,
				"event_type", entry.Type,
			)
			return billing.RecordDuplicate, nil
		}
		r.logger.Errorw("failed to record billing event",
			"error", err,
			"event_id", entry.EventID,
		)
		return 0, fmt.Errorf("failed to record billing event: %w", err)
	}

	return billing.RecordInserted, nil
}
