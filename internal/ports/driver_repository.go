package ports

import (
	"context"

	"dispatch-route-service/internal/domain"
)

// Port: a boundary for storing and retrieving Driver aggregates.
//
// Save persists the full aggregate including the assignment set. OwnerOf
// answers the exclusivity question (which driver, if any, currently holds
// an order) without loading every driver.
type DriverRepository interface {
	// Retrieve a driver by id. Returns domain.ErrDriverNotFound when absent.
	Get(ctx context.Context, driverID string) (*domain.Driver, error)
	// Persist a driver aggregate, creating or replacing it.
	Save(ctx context.Context, driver *domain.Driver) error
	// Return all drivers for a tenant, sorted by driver id.
	List(ctx context.Context, tenantID string) ([]*domain.Driver, error)
	// Return the id of the driver whose assignment set contains orderID.
	OwnerOf(ctx context.Context, orderID string) (string, bool, error)
}
