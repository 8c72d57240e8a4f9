package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"dispatch-route-service/internal/adapters/repositories"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/services"
)

// Simulator drives a full dispatch cycle in-process: onboard a fleet,
// create orders around the depot, auto-distribute, then walk each route
// from start to completion while feeding telemetry. It exists for demos
// and load sanity checks; all randomness flows through the injected
// *rand.Rand so a fixed seed replays the identical scenario.
type Simulator struct {
	Dispatch *services.Dispatcher
	Orders   *repositories.MemoryOrderRepository
	Rand     *rand.Rand

	Tenant      string
	Depot       domain.Coordinates
	DriverCount int
	OrderCount  int
}

type Report struct {
	Drivers         int
	Orders          int
	RoutesCompleted int
	Unassigned      int
}

func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	if s.DriverCount <= 0 {
		s.DriverCount = 3
	}
	if s.OrderCount <= 0 {
		s.OrderCount = 10
	}

	if err := s.onboardFleet(ctx); err != nil {
		return nil, err
	}
	s.createOrders()

	dist, err := s.Dispatch.AutoDistribute(ctx, s.Tenant)
	if err != nil {
		return nil, fmt.Errorf("simulate: distribute: %w", err)
	}
	slog.Info("distributed orders",
		"drivers", len(dist.AssignedPerDriver),
		"unassigned", len(dist.UnassignedRemainder),
	)

	completed := 0
	for i := 0; i < s.DriverCount; i++ {
		n, err := s.runDriverDay(ctx, s.driverID(i))
		if err != nil {
			return nil, err
		}
		completed += n
	}

	return &Report{
		Drivers:         s.DriverCount,
		Orders:          s.OrderCount,
		RoutesCompleted: completed,
		Unassigned:      len(dist.UnassignedRemainder),
	}, nil
}

func (s *Simulator) driverID(i int) string { return fmt.Sprintf("sim-driver-%02d", i+1) }

func (s *Simulator) onboardFleet(ctx context.Context) error {
	kinds := []string{"bike", "car", "van"}
	for i := 0; i < s.DriverCount; i++ {
		drv := domain.NewDriver(s.driverID(i), s.Tenant, fmt.Sprintf("Sim Driver %d", i+1), 0)
		drv.Vehicle = domain.Vehicle{
			Kind:  kinds[s.Rand.Intn(len(kinds))],
			Plate: fmt.Sprintf("SIM-%03d", s.Rand.Intn(1000)),
		}
		if err := s.Dispatch.Register(ctx, drv); err != nil {
			return fmt.Errorf("simulate: register %s: %w", drv.DriverID, err)
		}
	}
	return nil
}

// createOrders scatters orders within roughly 5km of the depot. Every
// tenth order is left ungeocoded to exercise the degraded-route path.
func (s *Simulator) createOrders() {
	base := time.Now().UTC()
	for i := 0; i < s.OrderCount; i++ {
		order := &domain.Order{
			OrderID:      fmt.Sprintf("sim-order-%03d", i+1),
			TenantID:     s.Tenant,
			CustomerName: fmt.Sprintf("Customer %d", i+1),
			Address:      fmt.Sprintf("%d Simulation Ave", 100+i),
			Total:        5 + s.Rand.Float64()*45,
			Status:       domain.OrderPending,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}
		if i%10 != 9 {
			order.Coords = &domain.Coordinates{
				Lon: s.Depot.Lon + (s.Rand.Float64()-0.5)*0.1,
				Lat: s.Depot.Lat + (s.Rand.Float64()-0.5)*0.1,
			}
		}
		s.Orders.Add(order)
	}
}

// runDriverDay walks the driver's pending route end to end, emitting a
// telemetry sample at every stop.
func (s *Simulator) runDriverDay(ctx context.Context, driverID string) (int, error) {
	rt, err := s.Dispatch.Route(ctx, driverID)
	if err != nil {
		return 0, fmt.Errorf("simulate: route for %s: %w", driverID, err)
	}
	if rt == nil {
		return 0, nil
	}
	if !rt.Ready {
		if rt, err = s.Dispatch.Optimize(ctx, driverID); err != nil {
			return 0, fmt.Errorf("simulate: optimize %s: %w", driverID, err)
		}
	}
	if rt == nil {
		return 0, nil
	}

	if err := s.Dispatch.Start(ctx, rt.RouteID); err != nil {
		return 0, fmt.Errorf("simulate: start %s: %w", rt.RouteID, err)
	}

	battery := 60 + s.Rand.Float64()*40
	pos := s.Depot
	for _, stop := range rt.Stops {
		if stop.Coords != nil {
			pos = *stop.Coords
		}
		battery -= s.Rand.Float64() * 3
		sample := domain.TelemetrySample{
			DriverID:       driverID,
			Coords:         pos,
			SpeedKPH:       10 + s.Rand.Float64()*30,
			HeadingDegrees: s.Rand.Float64() * 360,
			BatteryPercent: battery,
			SignalStrength: 1 + s.Rand.Intn(5),
		}
		if err := s.Dispatch.Ingest(ctx, sample); err != nil {
			return 0, fmt.Errorf("simulate: telemetry for %s: %w", driverID, err)
		}
	}

	if err := s.Dispatch.Complete(ctx, rt.RouteID); err != nil {
		return 0, fmt.Errorf("simulate: complete %s: %w", rt.RouteID, err)
	}
	slog.Info("route completed", "driver_id", driverID, "route_id", rt.RouteID, "stops", len(rt.Stops))
	return 1, nil
}
