package handlers

import (
	"net/http"
	"strings"

	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/services"
)

// AssignmentHandler exposes assignment engine operations.
type AssignmentHandler struct {
	Dispatch *services.Dispatcher
}

// Assign handles POST /assignments: an atomic batch of orders onto one
// driver.
func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.AssignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DriverID) == "" || len(req.OrderIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "driver_id and order_ids are required")
		return
	}

	if err := h.Dispatch.Assign(r.Context(), req.DriverID, req.OrderIDs); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"driver_id": req.DriverID,
		"assigned":  len(req.OrderIDs),
	})
}

// Unassign handles POST /assignments/unassign.
func (h *AssignmentHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.UnassignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Dispatch.Unassign(r.Context(), req.DriverID, req.OrderID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{
		"driver_id": req.DriverID,
		"order_id":  req.OrderID,
	})
}

// AutoDistribute handles POST /assignments/auto: spread a tenant's
// pending orders across its assignable drivers.
func (h *AssignmentHandler) AutoDistribute(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.AutoDistributeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.TenantID) == "" {
		writeError(w, r, http.StatusBadRequest, "tenant_id is required")
		return
	}

	report, err := h.Dispatch.AutoDistribute(r.Context(), req.TenantID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.DistributionResponse{
		AssignedPerDriver:   report.AssignedPerDriver,
		UnassignedRemainder: report.UnassignedRemainder,
	}
	if res.UnassignedRemainder == nil {
		res.UnassignedRemainder = []string{}
	}
	writeJSON(w, r, http.StatusOK, res)
}
