package models

import (
	"time"

	"gorm.io/gorm"
)

// Device — зарегистрированный рефрактометр (минимум для ingest/статуса).
type Device struct {
	gorm.Model
	DeviceID   string `gorm:"column:device_id;type:varchar(255);uniqueIndex"`
	Name       string
	LastSeenAt *time.Time

	// Refractometry thresholds, owned by operators, not by the ingest path.
	TargetRI  *float64 `gorm:"column:target_ri;type:decimal(10,4)"`
	AlertLow  *float64 `gorm:"type:decimal(10,4)"`
	AlertHigh *float64 `gorm:"type:decimal(10,4)"`
}
