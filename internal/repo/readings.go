package repo

import (
	"errors"

	"refractiq/internal/models"

	"gorm.io/gorm"
)

type ReadingStore struct {
	db *gorm.DB
}

func NewReadingStore(db *gorm.DB) *ReadingStore {
	return &ReadingStore{db: db}
}

// InsertOutcome — результат попытки вставки измерения.
type InsertOutcome int

const (
	// Inserted — строка записана этим вызовом.
	Inserted InsertOutcome = iota
	// Conflicted — event_id уже занят, Reading содержит существующую строку.
	Conflicted
	// Failed — ошибка хранилища, причина в Err.
	Failed
)

type InsertResult struct {
	Outcome InsertOutcome
	Reading models.Reading
	Err     error
}

// TryInsert attempts to persist a new reading. A unique-constraint violation
// on event_id is resolved by re-querying for the winner's row; the unique
// index is the single source of truth, no application-level locking.
func (s *ReadingStore) TryInsert(r *models.Reading) InsertResult {
	err := s.db.Create(r).Error
	if err == nil {
		return InsertResult{Outcome: Inserted, Reading: *r}
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) || r.EventID == nil {
		return InsertResult{Outcome: Failed, Err: err}
	}

	// конкурент успел первым — возвращаем его строку
	existing, ok, qerr := s.FindByEventID(*r.EventID)
	if qerr != nil {
		return InsertResult{Outcome: Failed, Err: qerr}
	}
	if !ok {
		// конфликт был, а строки нет — хранилище в несогласованном состоянии
		return InsertResult{Outcome: Failed, Err: err}
	}
	return InsertResult{Outcome: Conflicted, Reading: existing}
}

func (s *ReadingStore) FindByEventID(eventID string) (models.Reading, bool, error) {
	var m models.Reading
	if err := s.db.Where("event_id = ?", eventID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Reading{}, false, nil
		}
		return models.Reading{}, false, err
	}
	return m, true, nil
}

// LatestForDevice — последнее по ts измерение устройства.
func (s *ReadingStore) LatestForDevice(deviceID string) (models.Reading, bool, error) {
	var m models.Reading
	err := s.db.Where("device_id = ?", deviceID).Order("ts DESC").First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Reading{}, false, nil
		}
		return models.Reading{}, false, err
	}
	return m, true, nil
}

// HistoryForDevice — история измерений, новые сверху.
func (s *ReadingStore) HistoryForDevice(deviceID string, limit int) ([]models.Reading, error) {
	var out []models.Reading
	err := s.db.Where("device_id = ?", deviceID).Order("ts DESC").Limit(limit).Find(&out).Error
	return out, err
}
