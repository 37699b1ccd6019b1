package models

import "time"

// UsageCounterModel is one monthly usage counter row. The composite unique
// index is what makes the conditional increment race-safe.
type UsageCounterModel struct {
	ID           uint      `gorm:"primarykey"`
	UserID       string    `gorm:"not null;size:64;uniqueIndex:idx_usage_counter,priority:1"`
	ResourceType string    `gorm:"not null;size:32;uniqueIndex:idx_usage_counter,priority:2"`
	PeriodBucket string    `gorm:"not null;size:16;uniqueIndex:idx_usage_counter,priority:3"`
	Count        int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UsageCounterModel) TableName() string {
	return "usage_counters"
}
