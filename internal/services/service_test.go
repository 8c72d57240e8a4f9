package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"dispatch-route-service/internal/adapters/distance"
	"dispatch-route-service/internal/adapters/notify"
	"dispatch-route-service/internal/adapters/repositories"
	"dispatch-route-service/internal/adapters/telemetrystore"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
)

const testTenant = "acme"

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// fakeClock is a settable time source shared with the dispatcher under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// eventLog records every published event for assertions.
type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func (l *eventLog) record(ev domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []domain.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.EventKind, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (l *eventLog) last() (domain.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return domain.Event{}, false
	}
	return l.events[len(l.events)-1], true
}

type fixture struct {
	dispatch *Dispatcher
	drivers  *repositories.MemoryDriverRepository
	orders   *repositories.MemoryOrderRepository
	routes   *repositories.MemoryRouteRepository
	events   *eventLog
	clock    *fakeClock
}

// newFixture builds a dispatcher over in-memory adapters with a fixed
// clock and synchronous optimization. Distances are plane geometry so
// expected orderings can be read off the coordinates.
func newFixture(t *testing.T, metric ports.DistanceMetric) *fixture {
	t.Helper()

	if metric == nil {
		metric = distance.NewEuclidean()
	}

	f := &fixture{
		drivers: repositories.NewMemoryDriverRepository(),
		orders:  repositories.NewMemoryOrderRepository(),
		routes:  repositories.NewMemoryRouteRepository(),
		events:  &eventLog{},
		clock:   &fakeClock{t: testEpoch},
	}

	bus := notify.NewBus()
	bus.Subscribe(f.events.record)

	f.dispatch = New(Deps{
		Drivers:   f.drivers,
		Orders:    f.orders,
		Routes:    f.routes,
		Telemetry: telemetrystore.NewMemoryStore(),
		Publisher: bus,
		Metric:    metric,
	}, Config{
		Depot:          domain.Coordinates{Lon: 0, Lat: 0},
		AvgSpeedKPH:    60,
		StopService:    5 * time.Minute,
		InlineOptimize: true,
	})
	f.dispatch.now = f.clock.Now

	return f
}

func (f *fixture) addDriver(t *testing.T, id string, capacity int) {
	t.Helper()
	drv := domain.NewDriver(id, testTenant, "Driver "+id, capacity)
	if err := f.dispatch.Register(context.Background(), drv); err != nil {
		t.Fatalf("register driver %s: %v", id, err)
	}
}

// addOrder creates a pending order at plane position (x, y) kilometers
// from the depot. Creation times step one minute apart in call order so
// tie-breaks stay deterministic.
func (f *fixture) addOrder(id string, x, y float64, offset time.Duration) {
	f.orders.Add(&domain.Order{
		OrderID:      id,
		TenantID:     testTenant,
		CustomerName: "Customer " + id,
		Address:      id + " Test St",
		Coords:       &domain.Coordinates{Lon: x, Lat: y},
		Total:        10,
		Status:       domain.OrderPending,
		CreatedAt:    testEpoch.Add(offset),
	})
}

func (f *fixture) addUngeocodedOrder(id string, offset time.Duration) {
	f.orders.Add(&domain.Order{
		OrderID:      id,
		TenantID:     testTenant,
		CustomerName: "Customer " + id,
		Address:      id + " Test St",
		Status:       domain.OrderPending,
		CreatedAt:    testEpoch.Add(offset),
	})
}

func (f *fixture) driver(t *testing.T, id string) *domain.Driver {
	t.Helper()
	drv, err := f.drivers.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get driver %s: %v", id, err)
	}
	return drv
}

func (f *fixture) order(t *testing.T, id string) *domain.Order {
	t.Helper()
	order, err := f.orders.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get order %s: %v", id, err)
	}
	return order
}

// route returns the driver's current route per dispatcher resolution
// rules, failing the test on lookup errors.
func (f *fixture) route(t *testing.T, driverID string) *domain.Route {
	t.Helper()
	rt, err := f.dispatch.Route(context.Background(), driverID)
	if err != nil {
		t.Fatalf("route for %s: %v", driverID, err)
	}
	return rt
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
