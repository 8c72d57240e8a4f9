package dto

import "time"

type RegisterDriverRequest struct {
	DriverID     string `json:"driver_id"`
	TenantID     string `json:"tenant_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Capacity     int    `json:"capacity"`
	VehicleKind  string `json:"vehicle_kind"`
	VehiclePlate string `json:"vehicle_plate"`
}

type SetDriverStatusRequest struct {
	DriverID string `json:"driver_id"`
	Status   string `json:"status"`
}

type DeactivateDriverRequest struct {
	DriverID string `json:"driver_id"`
}

type DriverResponse struct {
	DriverID          string     `json:"driver_id"`
	TenantID          string     `json:"tenant_id"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone"`
	Status            string     `json:"status"`
	Capacity          int        `json:"capacity"`
	CapacityRemaining int        `json:"capacity_remaining"`
	AssignedOrderIDs  []string   `json:"assigned_order_ids"`
	VehicleKind       string     `json:"vehicle_kind"`
	VehiclePlate      string     `json:"vehicle_plate"`
	DeactivatedAt     *time.Time `json:"deactivated_at,omitempty"`
}

type ListDriversResponse struct {
	Drivers []DriverResponse `json:"drivers"`
}

type CapacityResponse struct {
	DriverID          string `json:"driver_id"`
	CapacityRemaining int    `json:"capacity_remaining"`
}
