package handlers

import (
	"net/http"
	"strings"

	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/services"
)

// TelemetryHandler exposes telemetry ingest and latest-state queries.
type TelemetryHandler struct {
	Dispatch *services.Dispatcher
}

// Telemetry handles POST /telemetry (ingest a sample) and GET /telemetry
// (latest sample plus staleness flag).
func (h *TelemetryHandler) Telemetry(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.ingest(w, r)
	case http.MethodGet:
		h.latest(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *TelemetryHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req dto.IngestTelemetryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DriverID) == "" {
		writeError(w, r, http.StatusBadRequest, "driver_id is required")
		return
	}

	sample := domain.TelemetrySample{
		DriverID:       req.DriverID,
		Coords:         domain.Coordinates{Lon: req.Lon, Lat: req.Lat},
		SpeedKPH:       req.SpeedKPH,
		HeadingDegrees: req.HeadingDegrees,
		BatteryPercent: req.BatteryPercent,
		SignalStrength: req.SignalStrength,
	}
	if req.Timestamp != nil {
		sample.Timestamp = *req.Timestamp
	}

	if err := h.Dispatch.Ingest(r.Context(), sample); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]string{"driver_id": req.DriverID})
}

func (h *TelemetryHandler) latest(w http.ResponseWriter, r *http.Request) {
	driverID := strings.TrimSpace(r.URL.Query().Get("driver_id"))
	if driverID == "" {
		writeError(w, r, http.StatusBadRequest, "driver_id is required")
		return
	}

	status, err := h.Dispatch.Latest(r.Context(), driverID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if status == nil {
		writeError(w, r, http.StatusNotFound, "no telemetry for driver")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.TelemetryResponse{
		DriverID:       status.Sample.DriverID,
		Lon:            status.Sample.Coords.Lon,
		Lat:            status.Sample.Coords.Lat,
		SpeedKPH:       status.Sample.SpeedKPH,
		HeadingDegrees: status.Sample.HeadingDegrees,
		BatteryPercent: status.Sample.BatteryPercent,
		SignalStrength: status.Sample.SignalStrength,
		Timestamp:      status.Sample.Timestamp,
		Stale:          status.Stale,
	})
}
