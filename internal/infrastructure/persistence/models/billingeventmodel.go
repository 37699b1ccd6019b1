package models

import (
	"time"

	"gorm.io/datatypes"
)

// BillingEventModel is the write-once ledger row for an inbound processor
// event, keyed by the processor's event identifier.
type BillingEventModel struct {
	ID         uint           `gorm:"primarykey"`
	EventID    string         `gorm:"uniqueIndex;not null;size:255"`
	Type       string         `gorm:"not null;size:100;index:idx_event_type"`
	CreatedAt  time.Time      `gorm:"not null"`
	Payload    datatypes.JSON `gorm:"not null"`
	InsertedAt time.Time      `gorm:"autoCreateTime"`
}

func (BillingEventModel) TableName() string {
	return "billing_events"
}
