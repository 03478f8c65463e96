package devices

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"refractiq/internal/models"
	"refractiq/internal/repo"

	"github.com/gorilla/mux"
)

// HTTP — read-only коллабораторы поверх DeviceStore/ReadingStore: список
// устройств со статусом и история измерений. Записей здесь нет.
type HTTP struct {
	devices  *repo.DeviceStore
	readings *repo.ReadingStore
	now      func() time.Time
}

func NewHTTP(devices *repo.DeviceStore, readings *repo.ReadingStore) *HTTP {
	return &HTTP{devices: devices, readings: readings, now: time.Now}
}

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/devices", h.listDevices).Methods(http.MethodGet)
	r.HandleFunc("/devices/{device_id}/readings", h.deviceReadings).Methods(http.MethodGet)
}

type latestReading struct {
	Value float64   `json:"value"`
	Unit  string    `json:"unit"`
	Ts    time.Time `json:"ts"`
}

type deviceView struct {
	DeviceID      string              `json:"device_id"`
	Name          string              `json:"name"`
	LastSeenAt    *time.Time          `json:"last_seen_at"`
	Status        models.DeviceStatus `json:"status"`
	TargetRI      *float64            `json:"target_ri"`
	AlertLow      *float64            `json:"alert_low"`
	AlertHigh     *float64            `json:"alert_high"`
	LatestReading *latestReading      `json:"latest_reading"`
}

func (h *HTTP) listDevices(w http.ResponseWriter, _ *http.Request) {
	devs, err := h.devices.List()
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "List failed", err.Error(), nil)
		return
	}

	now := h.now()
	out := make([]deviceView, 0, len(devs))
	for _, d := range devs {
		v := deviceView{
			DeviceID:   d.DeviceID,
			Name:       d.Name,
			LastSeenAt: d.LastSeenAt,
			Status:     models.StatusFor(d.LastSeenAt, now),
			TargetRI:   d.TargetRI,
			AlertLow:   d.AlertLow,
			AlertHigh:  d.AlertHigh,
		}
		if r, ok, rerr := h.readings.LatestForDevice(d.DeviceID); rerr == nil && ok {
			v.LatestReading = &latestReading{Value: r.Value, Unit: r.Unit, Ts: r.Ts}
		}
		out = append(out, v)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"devices": out})
}

func (h *HTTP) deviceReadings(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			models.WriteProblem(w, http.StatusBadRequest, "Bad request", "limit must be in [1, 1000]", nil)
			return
		}
		limit = n
	}

	if _, ok, err := h.devices.FindByDeviceID(deviceID); err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Lookup failed", err.Error(), nil)
		return
	} else if !ok {
		models.WriteProblem(w, http.StatusNotFound, "Not found", "device not found", map[string]string{"device_id": deviceID})
		return
	}

	history, err := h.readings.HistoryForDevice(deviceID, limit)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Query failed", err.Error(), nil)
		return
	}

	type readingView struct {
		ID           uint      `json:"id"`
		Ts           time.Time `json:"ts"`
		Value        float64   `json:"value"`
		Unit         string    `json:"unit"`
		TemperatureC *float64  `json:"temperature_c"`
	}
	out := make([]readingView, 0, len(history))
	for _, rd := range history {
		out = append(out, readingView{ID: rd.ID, Ts: rd.Ts, Value: rd.Value, Unit: rd.Unit, TemperatureC: rd.TemperatureC})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"device_id": deviceID, "readings": out})
}
