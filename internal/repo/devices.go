package repo

import (
	"errors"
	"fmt"
	"time"

	"refractiq/internal/models"

	"gorm.io/gorm"
)

type DeviceStore struct {
	db *gorm.DB
}

func NewDeviceStore(db *gorm.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

// Touch — создаёт/обновляет отметку живости устройства по device_id.
//
// last_seen_at пишется безусловно (last write wins): запоздавшее измерение
// откатит отметку назад. Поведение сохранено как есть, риск описан в DESIGN.md.
func (s *DeviceStore) Touch(deviceID string, ts time.Time) (models.Device, error) {
	var m models.Device

	tx := s.db.Where(&models.Device{DeviceID: deviceID}).First(&m)
	if tx.Error != nil {
		if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return models.Device{}, tx.Error
		}
		m = models.Device{
			DeviceID:   deviceID,
			Name:       fmt.Sprintf("Device %s", deviceID),
			LastSeenAt: &ts,
		}
		if err := s.db.Create(&m).Error; err != nil {
			// гонка двух первых ingest'ов одного устройства: строку уже
			// создал конкурент, перечитываем и обновляем её
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.Device{}, err
			}
			if err := s.db.Where(&models.Device{DeviceID: deviceID}).First(&m).Error; err != nil {
				return models.Device{}, err
			}
		} else {
			return m, nil
		}
	}

	if err := s.db.Model(&m).Update("last_seen_at", ts).Error; err != nil {
		return models.Device{}, err
	}
	m.LastSeenAt = &ts
	return m, nil
}

func (s *DeviceStore) FindByDeviceID(deviceID string) (models.Device, bool, error) {
	var m models.Device
	if err := s.db.Where(&models.Device{DeviceID: deviceID}).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Device{}, false, nil
		}
		return models.Device{}, false, err
	}
	return m, true, nil
}

// List — все устройства, стабильный порядок по device_id.
func (s *DeviceStore) List() ([]models.Device, error) {
	var out []models.Device
	err := s.db.Order("device_id").Find(&out).Error
	return out, err
}
