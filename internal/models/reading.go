package models

import (
	"time"

	"gorm.io/gorm"
)

// Reading — одно измерение прибора. Строки неизменяемы: ни update, ни delete.
type Reading struct {
	gorm.Model
	DeviceID     string    `gorm:"column:device_id;type:varchar(255);index;not null"`
	Device       Device    `gorm:"foreignKey:DeviceID;references:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
	Ts           time.Time `gorm:"index;not null"`
	Value        float64   `gorm:"type:decimal(10,4);not null"`
	Unit         string    `gorm:"type:varchar(50);not null"`
	TemperatureC *float64  `gorm:"column:temperature_c;type:decimal(5,2)"`

	// Client-supplied correlation token; the unique index is the single
	// source of truth for idempotent ingest (NULLs are exempt).
	EventID *string `gorm:"column:event_id;type:char(36);uniqueIndex"`
}

// ReadingPayload — wire-формат POST /api/v1/readings. Общий для сервера и
// симулятора, чтобы очередь на клиенте хранила ровно то, что уходит по сети.
type ReadingPayload struct {
	DeviceID     string    `json:"device_id"`
	Ts           time.Time `json:"ts"`
	Value        float64   `json:"value"`
	Unit         string    `json:"unit"`
	TemperatureC *float64  `json:"temperature_c"`
	EventID      *string   `json:"event_id"`
}

// ReadingResponse echoes a stored reading back to the submitter.
type ReadingResponse struct {
	ID           uint      `json:"id"`
	DeviceID     string    `json:"device_id"`
	Ts           time.Time `json:"ts"`
	Value        float64   `json:"value"`
	Unit         string    `json:"unit"`
	TemperatureC *float64  `json:"temperature_c"`
	EventID      *string   `json:"event_id"`
}

func NewReadingResponse(r Reading) ReadingResponse {
	return ReadingResponse{
		ID:           r.ID,
		DeviceID:     r.DeviceID,
		Ts:           r.Ts,
		Value:        r.Value,
		Unit:         r.Unit,
		TemperatureC: r.TemperatureC,
		EventID:      r.EventID,
	}
}
