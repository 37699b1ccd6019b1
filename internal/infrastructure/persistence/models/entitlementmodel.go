package models

import "time"

// EntitlementModel is the canonical subscription/purchase record.
// This is the anti-corruption layer between domain and database.
type EntitlementModel struct {
	ID                     uint      `gorm:"primarykey"`
	ExternalSubscriptionID string    `gorm:"uniqueIndex;not null;size:255"`
	UserID                 string    `gorm:"not null;size:64;index:idx_user_entitlement"`
	ExternalCustomerID     string    `gorm:"size:255"`
	PlanID                 string    `gorm:"not null;size:32"`
	Status                 string    `gorm:"not null;size:32;index:idx_entitlement_status"`
	PeriodStart            time.Time `gorm:"not null"`
	PeriodEnd              time.Time `gorm:"not null;index:idx_period_end"`
	CancelAtPeriodEnd      bool      `gorm:"not null;default:false"`
	CanceledAt             *time.Time
	TrialEnd               *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (EntitlementModel) TableName() string {
	return "entitlements"
}
