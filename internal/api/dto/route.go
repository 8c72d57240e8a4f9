package dto

import "time"

type OptimizeRequest struct {
	DriverID string `json:"driver_id"`
}

type RouteActionRequest struct {
	RouteID string `json:"route_id"`
}

type StopResponse struct {
	OrderID  string    `json:"order_id"`
	Address  string    `json:"address"`
	Coords   []float64 `json:"coords,omitempty"`
	Sequence int       `json:"sequence"`
}

type RouteResponse struct {
	RouteID          string         `json:"route_id"`
	DriverID         string         `json:"driver_id"`
	Status           string         `json:"status"`
	Ready            bool           `json:"ready"`
	EstimatedSeconds int            `json:"estimated_seconds"`
	ActualSeconds    int            `json:"actual_seconds"`
	StartTime        *time.Time     `json:"start_time,omitempty"`
	EndTime          *time.Time     `json:"end_time,omitempty"`
	Stops            []StopResponse `json:"stops"`
}
