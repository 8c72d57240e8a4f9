package domain

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Represents a customer order eligible for delivery.
//
// Orders are created by the upstream order system; the dispatch core never
// invents them. It only moves Status between pending, processing and
// delivered as the order passes through assignment and route completion.
// Coords is nil when the address has not been geocoded; route optimization
// then falls back to assignment order for that driver.
type Order struct {
	OrderID      string
	TenantID     string
	CustomerName string
	Address      string
	Coords       *Coordinates
	Total        float64
	Status       OrderStatus
	CreatedAt    time.Time
}
