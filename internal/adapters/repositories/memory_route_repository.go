package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dispatch-route-service/internal/domain"
)

// In-memory implementation of the RouteRepository port.
type MemoryRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route
	seq    map[string]int
	next   int
}

func NewMemoryRouteRepository() *MemoryRouteRepository {
	return &MemoryRouteRepository{
		routes: make(map[string]*domain.Route),
		seq:    make(map[string]int),
	}
}

func copyRoute(r *domain.Route) *domain.Route {
	out := *r
	out.Stops = append([]domain.Stop(nil), r.Stops...)
	if r.StartTime != nil {
		t := *r.StartTime
		out.StartTime = &t
	}
	if r.EndTime != nil {
		t := *r.EndTime
		out.EndTime = &t
	}
	return &out
}

func (m *MemoryRouteRepository) Get(ctx context.Context, routeID string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rt, ok := m.routes[routeID]
	if !ok {
		return nil, fmt.Errorf("route %s: %w", routeID, domain.ErrRouteNotFound)
	}
	return copyRoute(rt), nil
}

func (m *MemoryRouteRepository) Save(ctx context.Context, route *domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.routes[route.RouteID]; !ok {
		m.next++
		m.seq[route.RouteID] = m.next
	}
	m.routes[route.RouteID] = copyRoute(route)
	return nil
}

func (m *MemoryRouteRepository) Delete(ctx context.Context, routeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.routes, routeID)
	delete(m.seq, routeID)
	return nil
}

// ListByDriver returns a driver's routes newest first.
func (m *MemoryRouteRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Route, 0, 4)
	for _, rt := range m.routes {
		if rt.DriverID == driverID {
			out = append(out, copyRoute(rt))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return m.seq[out[i].RouteID] > m.seq[out[j].RouteID]
	})
	return out, nil
}
