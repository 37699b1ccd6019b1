package mappers

import (
	"fmt"

	"chartly/internal/domain/billing"
	"chartly/internal/infrastructure/persistence/models"
)

type EntitlementMapper interface {
	ToEntity(model *models.EntitlementModel) (*billing.Entitlement, error)
	ToModel(entity *billing.Entitlement) (*models.EntitlementModel, error)
	ToEntities(models []*models.EntitlementModel) ([]*billing.Entitlement, error)
}

type EntitlementMapperImpl struct{}

func NewEntitlementMapper() EntitlementMapper {
	return &EntitlementMapperImpl{}
}

func (m *EntitlementMapperImpl) ToEntity(model *models.EntitlementModel) (*billing.Entitlement, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := billing.ReconstructEntitlement(
		model.ID,
		model.ExternalSubscriptionID,
		model.UserID,
		model.ExternalCustomerID,
		billing.PlanID(model.PlanID),
		billing.EntitlementStatus(model.Status),
		model.PeriodStart,
		model.PeriodEnd,
		model.CancelAtPeriodEnd,
		model.CanceledAt,
		model.TrialEnd,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct entitlement: %w", err)
	}

	return entity, nil
}

func (m *EntitlementMapperImpl) ToModel(entity *billing.Entitlement) (*models.EntitlementModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.EntitlementModel{
		ID:                     entity.ID(),
		ExternalSubscriptionID: entity.ExternalSubscriptionID(),
		UserID:                 entity.UserID(),
		ExternalCustomerID:     entity.ExternalCustomerID(),
		PlanID:                 string(entity.PlanID()),
		Status:                 string(entity.Status()),
		PeriodStart:            entity.PeriodStart(),
		PeriodEnd:              entity.PeriodEnd(),
		CancelAtPeriodEnd:      entity.CancelAtPeriodEnd(),
		CanceledAt:             entity.CanceledAt(),
		TrialEnd:               entity.TrialEnd(),
		CreatedAt:              entity.CreatedAt(),
		UpdatedAt:              entity.UpdatedAt(),
	}, nil
}

func (m *EntitlementMapperImpl) ToEntities(entitlementModels []*models.EntitlementModel) ([]*billing.Entitlement, error) {
	entities := make([]*billing.Entitlement, 0, len(entitlementModels))
	for _, model := range entitlementModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
