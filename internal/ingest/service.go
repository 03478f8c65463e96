package ingest

import (
	"fmt"

	"refractiq/internal/models"
	"refractiq/internal/repo"
)

// IngestError — ошибка хранилища, не объяснимая разрешимым конфликтом.
// Повторять запрос — ответственность клиента, сервис сам не ретраит.
type IngestError struct {
	Cause error
}

func (e *IngestError) Error() string { return fmt.Sprintf("ingest failed: %v", e.Cause) }
func (e *IngestError) Unwrap() error { return e.Cause }

// Service — идемпотентный путь записи измерений.
type Service struct {
	devices  *repo.DeviceStore
	readings *repo.ReadingStore
}

func NewService(devices *repo.DeviceStore, readings *repo.ReadingStore) *Service {
	return &Service{devices: devices, readings: readings}
}

// Ingest persists a validated payload at most once per event_id.
//
// Повторная подача того же event_id (последовательная или конкурентная)
// сходится к одной строке: оптимистичная проверка до вставки, затем вставка,
// затем перечитывание по конфликту уникального индекса. Измерения без
// event_id не дедуплицируются и всегда создают новую строку.
func (s *Service) Ingest(p models.ReadingPayload) (models.Reading, error) {
	if _, err := s.devices.Touch(p.DeviceID, p.Ts); err != nil {
		return models.Reading{}, &IngestError{Cause: err}
	}

	if p.EventID != nil {
		existing, ok, err := s.readings.FindByEventID(*p.EventID)
		if err != nil {
			return models.Reading{}, &IngestError{Cause: err}
		}
		if ok {
			return existing, nil
		}
	}

	res := s.readings.TryInsert(&models.Reading{
		DeviceID:     p.DeviceID,
		Ts:           p.Ts,
		Value:        p.Value,
		Unit:         p.Unit,
		TemperatureC: p.TemperatureC,
		EventID:      p.EventID,
	})
	switch res.Outcome {
	case repo.Inserted, repo.Conflicted:
		return res.Reading, nil
	default:
		return models.Reading{}, &IngestError{Cause: res.Err}
	}
}
