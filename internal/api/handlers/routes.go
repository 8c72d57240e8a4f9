package handlers

import (
	"context"
	"net/http"
	"strings"

	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/services"
)

// RouteHandler exposes route optimization and lifecycle operations.
type RouteHandler struct {
	Dispatch *services.Dispatcher
}

// Get handles GET /routes: the driver's current route (in-progress, else
// pending).
func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	driverID := strings.TrimSpace(r.URL.Query().Get("driver_id"))
	if driverID == "" {
		writeError(w, r, http.StatusBadRequest, "driver_id is required")
		return
	}

	rt, err := h.Dispatch.Route(r.Context(), driverID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if rt == nil {
		writeError(w, r, http.StatusNotFound, "driver has no active route")
		return
	}
	writeJSON(w, r, http.StatusOK, routeResponse(rt))
}

// Optimize handles POST /routes/optimize: synchronous recomputation of a
// driver's pending route.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.OptimizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rt, err := h.Dispatch.Optimize(r.Context(), req.DriverID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if rt == nil {
		writeJSON(w, r, http.StatusOK, map[string]string{"driver_id": req.DriverID, "route": "none"})
		return
	}
	writeJSON(w, r, http.StatusOK, routeResponse(rt))
}

// Start handles POST /routes/start.
func (h *RouteHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Dispatch.Start)
}

// Complete handles POST /routes/complete.
func (h *RouteHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Dispatch.Complete)
}

// Cancel handles POST /routes/cancel.
func (h *RouteHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Dispatch.Cancel)
}

// action factors the shared decode/execute/respond shape of the three
// lifecycle transitions.
func (h *RouteHandler) action(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, routeID string) error) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.RouteActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RouteID) == "" {
		writeError(w, r, http.StatusBadRequest, "route_id is required")
		return
	}

	if err := op(r.Context(), req.RouteID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	rt, err := h.Dispatch.RouteByID(r.Context(), req.RouteID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, routeResponse(rt))
}

func routeResponse(rt *domain.Route) dto.RouteResponse {
	stops := make([]dto.StopResponse, 0, len(rt.Stops))
	for _, s := range rt.Stops {
		stop := dto.StopResponse{
			OrderID:  s.OrderID,
			Address:  s.Address,
			Sequence: s.Sequence,
		}
		if s.Coords != nil {
			stop.Coords = s.Coords.CoordsToList()
		}
		stops = append(stops, stop)
	}

	return dto.RouteResponse{
		RouteID:          rt.RouteID,
		DriverID:         rt.DriverID,
		Status:           string(rt.Status),
		Ready:            rt.Ready,
		EstimatedSeconds: int(rt.EstimatedTime.Seconds()),
		ActualSeconds:    int(rt.ActualTime.Seconds()),
		StartTime:        rt.StartTime,
		EndTime:          rt.EndTime,
		Stops:            stops,
	}
}
