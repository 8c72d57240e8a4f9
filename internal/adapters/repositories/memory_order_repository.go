package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dispatch-route-service/internal/domain"
)

// In-memory implementation of the OrderRepository port.
//
// Add is not part of the port: orders come from the upstream order system,
// and only seeding code (dbtool, simulator, tests) creates them.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*domain.Order)}
}

func copyOrder(o *domain.Order) *domain.Order {
	out := *o
	if o.Coords != nil {
		c := *o.Coords
		out.Coords = &c
	}
	return &out
}

func (m *MemoryOrderRepository) Add(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.OrderID] = copyOrder(order)
}

func (m *MemoryOrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
	}
	return copyOrder(order), nil
}

func (m *MemoryOrderRepository) ListPending(ctx context.Context, tenantID string) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Order, 0, len(m.orders))
	for _, order := range m.orders {
		if order.TenantID == tenantID && order.Status == domain.OrderPending {
			out = append(out, copyOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out, nil
}

func (m *MemoryOrderRepository) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
	}
	order.Status = status
	return nil
}
