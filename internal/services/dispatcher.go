package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
)

// Config tunes route optimization and can be left zero for defaults.
type Config struct {
	// Depot is the fixed origin every route starts from.
	Depot domain.Coordinates
	// AvgSpeedKPH converts inter-stop distance into travel time.
	AvgSpeedKPH float64
	// StopService is the handling time added per stop.
	StopService time.Duration
	// InlineOptimize runs scheduled optimizations on the caller's goroutine
	// instead of asynchronously. Used by tests and the dbtool.
	InlineOptimize bool
}

const (
	defaultAvgSpeedKPH = 30.0
	defaultStopService = 5 * time.Minute
)

// Deps are the collaborator ports the dispatcher is composed from.
type Deps struct {
	Drivers   ports.DriverRepository
	Orders    ports.OrderRepository
	Routes    ports.RouteRepository
	Telemetry ports.TelemetryStore
	Publisher ports.EventPublisher
	Metric    ports.DistanceMetric
}

// Dispatcher is the single dispatch authority for driver assignment, route
// optimization, route lifecycle and telemetry.
//
// All mutating operations on a driver (assign/unassign, start/complete/
// cancel, optimize) serialize on that driver's lock; operations on distinct
// drivers proceed concurrently. Telemetry ingestion bypasses the lock table
// entirely: it is a single atomic overwrite of the latest-sample slot.
type Dispatcher struct {
	drivers   ports.DriverRepository
	orders    ports.OrderRepository
	routes    ports.RouteRepository
	telemetry ports.TelemetryStore
	publisher ports.EventPublisher
	metric    ports.DistanceMetric
	cfg       Config
	now       func() time.Time

	locks driverLocks

	// versions count assignment-set changes per driver. An async
	// optimization captures the version at request time and discards its
	// result if the version moved while it was in flight.
	vmu      sync.Mutex
	versions map[string]uint64
}

func New(deps Deps, cfg Config) *Dispatcher {
	if cfg.AvgSpeedKPH <= 0 {
		cfg.AvgSpeedKPH = defaultAvgSpeedKPH
	}
	if cfg.StopService <= 0 {
		cfg.StopService = defaultStopService
	}
	return &Dispatcher{
		drivers:   deps.Drivers,
		orders:    deps.Orders,
		routes:    deps.Routes,
		telemetry: deps.Telemetry,
		publisher: deps.Publisher,
		metric:    deps.Metric,
		cfg:       cfg,
		now:       time.Now,
		versions:  make(map[string]uint64),
	}
}

func (d *Dispatcher) publish(ctx context.Context, ev domain.Event) {
	if d.publisher == nil {
		return
	}
	ev.At = d.now()
	d.publisher.Publish(ctx, ev)
}

func (d *Dispatcher) version(driverID string) uint64 {
	d.vmu.Lock()
	defer d.vmu.Unlock()
	return d.versions[driverID]
}

func (d *Dispatcher) bumpVersion(driverID string) {
	d.vmu.Lock()
	defer d.vmu.Unlock()
	d.versions[driverID]++
}

// driverLocks is a lazily populated table of per-driver mutexes.
type driverLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *driverLocks) get(driverID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	mu, ok := l.m[driverID]
	if !ok {
		mu = &sync.Mutex{}
		l.m[driverID] = mu
	}
	return mu
}

// lock acquires a single driver's lock and returns the unlock func.
func (l *driverLocks) lock(driverID string) func() {
	mu := l.get(driverID)
	mu.Lock()
	return mu.Unlock
}

// lockAll acquires several driver locks in ascending id order so that
// concurrent multi-driver operations cannot deadlock.
func (l *driverLocks) lockAll(driverIDs []string) func() {
	ids := make([]string, len(driverIDs))
	copy(ids, driverIDs)
	sort.Strings(ids)

	held := make([]*sync.Mutex, 0, len(ids))
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		mu := l.get(id)
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
