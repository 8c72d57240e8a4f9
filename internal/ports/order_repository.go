package ports

import (
	"context"

	"dispatch-route-service/internal/domain"
)

// Port: read/update access to externally created orders. The dispatch core
// never inserts orders; it only reads them and moves their status.
type OrderRepository interface {
	// Retrieve an order by id. Returns domain.ErrOrderNotFound when absent.
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	// Return a tenant's pending orders sorted by creation time, then id.
	ListPending(ctx context.Context, tenantID string) ([]*domain.Order, error)
	// Persist a status change.
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}
