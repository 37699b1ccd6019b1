package models

import "time"

// CustomerMappingModel links an internal user id to the processor's
// customer id. One row per user, looked up in both directions.
type CustomerMappingModel struct {
	ID                 uint      `gorm:"primarykey"`
	UserID             string    `gorm:"uniqueIndex;not null;size:64"`
	ExternalCustomerID string    `gorm:"index:idx_external_customer;not null;size:255"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (CustomerMappingModel) TableName() string {
	return "customer_mappings"
}
