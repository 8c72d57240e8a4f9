package dto

type AssignRequest struct {
	DriverID string   `json:"driver_id"`
	OrderIDs []string `json:"order_ids"`
}

type UnassignRequest struct {
	DriverID string `json:"driver_id"`
	OrderID  string `json:"order_id"`
}

type AutoDistributeRequest struct {
	TenantID string `json:"tenant_id"`
}

type DistributionResponse struct {
	AssignedPerDriver   map[string]int `json:"assigned_per_driver"`
	UnassignedRemainder []string       `json:"unassigned_remainder"`
}
