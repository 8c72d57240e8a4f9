package telemetrystore

import (
	"context"
	"sync"

	"dispatch-route-service/internal/domain"
)

// In-memory implementation of the TelemetryStore port: one latest-sample
// slot per driver, overwritten on every ingest.
type MemoryStore struct {
	mu     sync.RWMutex
	latest map[string]domain.TelemetrySample
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{latest: make(map[string]domain.TelemetrySample)}
}

func (m *MemoryStore) SetLatest(ctx context.Context, sample domain.TelemetrySample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[sample.DriverID] = sample
	return nil
}

func (m *MemoryStore) Latest(ctx context.Context, driverID string) (domain.TelemetrySample, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sample, ok := m.latest[driverID]
	return sample, ok, nil
}
