package ports

import (
	"context"

	"dispatch-route-service/internal/domain"
)

// Port: a boundary for storing Route aggregates.
type RouteRepository interface {
	// Retrieve a route by id. Returns domain.ErrRouteNotFound when absent.
	Get(ctx context.Context, routeID string) (*domain.Route, error)
	// Persist a route, creating or replacing it.
	Save(ctx context.Context, route *domain.Route) error
	// Delete a route by id. Deleting an absent route is not an error.
	Delete(ctx context.Context, routeID string) error
	// Return a driver's routes, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Route, error)
}
