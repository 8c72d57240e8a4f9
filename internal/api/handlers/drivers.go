package handlers

import (
	"net/http"
	"strings"

	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/services"
)

// DriverHandler exposes driver registry operations.
type DriverHandler struct {
	Dispatch *services.Dispatcher
}

// Drivers handles POST /drivers (register) and GET /drivers (list a
// tenant's assignable drivers).
func (h *DriverHandler) Drivers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.register(w, r)
	case http.MethodGet:
		h.listAvailable(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *DriverHandler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDriverRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.DriverID) == "" || strings.TrimSpace(req.TenantID) == "" {
		writeError(w, r, http.StatusBadRequest, "driver_id and tenant_id are required")
		return
	}

	driver := domain.NewDriver(req.DriverID, req.TenantID, req.Name, req.Capacity)
	driver.Phone = req.Phone
	driver.Vehicle = domain.Vehicle{Kind: req.VehicleKind, Plate: req.VehiclePlate}

	if err := h.Dispatch.Register(r.Context(), driver); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, driverResponse(driver))
}

func (h *DriverHandler) listAvailable(w http.ResponseWriter, r *http.Request) {
	tenantID := strings.TrimSpace(r.URL.Query().Get("tenant_id"))
	if tenantID == "" {
		writeError(w, r, http.StatusBadRequest, "tenant_id is required")
		return
	}

	drivers, err := h.Dispatch.ListAvailable(r.Context(), tenantID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.ListDriversResponse{Drivers: make([]dto.DriverResponse, 0, len(drivers))}
	for _, drv := range drivers {
		res.Drivers = append(res.Drivers, driverResponse(drv))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// SetStatus handles POST /drivers/status.
func (h *DriverHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.SetDriverStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Dispatch.SetStatus(r.Context(), req.DriverID, domain.DriverStatus(req.Status)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"driver_id": req.DriverID, "status": req.Status})
}

// Deactivate handles POST /drivers/deactivate.
func (h *DriverHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.DeactivateDriverRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Dispatch.Deactivate(r.Context(), req.DriverID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"driver_id": req.DriverID})
}

// Capacity handles GET /drivers/capacity.
func (h *DriverHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	driverID := strings.TrimSpace(r.URL.Query().Get("driver_id"))
	if driverID == "" {
		writeError(w, r, http.StatusBadRequest, "driver_id is required")
		return
	}

	remaining, err := h.Dispatch.CapacityRemaining(r.Context(), driverID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.CapacityResponse{DriverID: driverID, CapacityRemaining: remaining})
}

func driverResponse(drv *domain.Driver) dto.DriverResponse {
	return dto.DriverResponse{
		DriverID:          drv.DriverID,
		TenantID:          drv.TenantID,
		Name:              drv.Name,
		Phone:             drv.Phone,
		Status:            string(drv.Status),
		Capacity:          drv.Capacity,
		CapacityRemaining: drv.CapacityRemaining(),
		AssignedOrderIDs:  append([]string{}, drv.AssignedOrderIDs...),
		VehicleKind:       drv.Vehicle.Kind,
		VehiclePlate:      drv.Vehicle.Plate,
		DeactivatedAt:     drv.DeactivatedAt,
	}
}
