package ingest

import (
	"encoding/json"
	"net/http"

	"refractiq/internal/logs"
	"refractiq/internal/models"
	"refractiq/internal/validate"

	"github.com/gorilla/mux"
)

type HTTP struct{ svc *Service }

func NewHTTP(svc *Service) *HTTP { return &HTTP{svc: svc} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	// POST /api/v1/readings  { device_id, ts, value, unit, temperature_c, event_id }
	r.HandleFunc("/readings", h.createReading).Methods(http.MethodPost)
}

func (h *HTTP) createReading(w http.ResponseWriter, r *http.Request) {
	var in models.ReadingPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad request", "invalid json body", nil)
		return
	}
	if in.DeviceID == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad request", "device_id required", nil)
		return
	}
	if in.Ts.IsZero() {
		models.WriteProblem(w, http.StatusBadRequest, "Bad request", "ts required (ISO8601)", nil)
		return
	}

	// Валидация до любой записи: невалидное не персистится и не ретраится.
	if err := validate.ReadingValues(in.Unit, in.Value, in.TemperatureC); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Validation failed", err.Error(), nil)
		return
	}

	reading, err := h.svc.Ingest(in)
	if err != nil {
		logs.Logger.Errorf("ingest %s: %v", in.DeviceID, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Ingest failed", err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(models.NewReadingResponse(reading))
}
