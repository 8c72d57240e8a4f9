package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dispatch-route-service/internal/domain"
)

// In-memory implementation of the DriverRepository port. Aggregates are
// copied on the way in and out so callers never share memory with the
// store. Safe for concurrent use.
type MemoryDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver
}

func NewMemoryDriverRepository() *MemoryDriverRepository {
	return &MemoryDriverRepository{drivers: make(map[string]*domain.Driver)}
}

func copyDriver(d *domain.Driver) *domain.Driver {
	out := *d
	out.AssignedOrderIDs = append([]string(nil), d.AssignedOrderIDs...)
	if d.DeactivatedAt != nil {
		t := *d.DeactivatedAt
		out.DeactivatedAt = &t
	}
	return &out
}

func (m *MemoryDriverRepository) Get(ctx context.Context, driverID string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	drv, ok := m.drivers[driverID]
	if !ok {
		return nil, fmt.Errorf("driver %s: %w", driverID, domain.ErrDriverNotFound)
	}
	return copyDriver(drv), nil
}

func (m *MemoryDriverRepository) Save(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drivers[driver.DriverID] = copyDriver(driver)
	return nil
}

func (m *MemoryDriverRepository) List(ctx context.Context, tenantID string) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Driver, 0, len(m.drivers))
	for _, drv := range m.drivers {
		if drv.TenantID == tenantID {
			out = append(out, copyDriver(drv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DriverID < out[j].DriverID })
	return out, nil
}

func (m *MemoryDriverRepository) OwnerOf(ctx context.Context, orderID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, drv := range m.drivers {
		if drv.HasOrder(orderID) {
			return drv.DriverID, true, nil
		}
	}
	return "", false, nil
}
