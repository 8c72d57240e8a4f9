package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"dispatch-route-service/internal/adapters/distance"
	"dispatch-route-service/internal/adapters/notify"
	"dispatch-route-service/internal/adapters/repositories"
	"dispatch-route-service/internal/adapters/telemetrystore"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/services"
	"dispatch-route-service/internal/sim"
)

// Runs a full dispatch day against in-memory adapters. No server, no
// database; useful for demos and for eyeballing planner output.
func main() {
	drivers := flag.Int("drivers", 3, "number of drivers to onboard")
	orders := flag.Int("orders", 12, "number of orders to create")
	seed := flag.Int64("seed", 1, "random seed (same seed, same scenario)")
	flag.Parse()

	logger := obs.NewLogger("simulator")

	bus := notify.NewBus()
	bus.Subscribe(func(ev domain.Event) {
		slog.Info("event", "kind", string(ev.Kind), "driver_id", ev.DriverID, "route_id", ev.RouteID)
	})

	orderRepo := repositories.NewMemoryOrderRepository()
	dispatch := services.New(services.Deps{
		Drivers:   repositories.NewMemoryDriverRepository(),
		Orders:    orderRepo,
		Routes:    repositories.NewMemoryRouteRepository(),
		Telemetry: telemetrystore.NewMemoryStore(),
		Publisher: bus,
		Metric:    distance.NewHaversine(),
	}, services.Config{
		Depot:          domain.Coordinates{Lon: -112.09, Lat: 33.45},
		AvgSpeedKPH:    30,
		StopService:    5 * time.Minute,
		InlineOptimize: true,
	})

	s := &sim.Simulator{
		Dispatch:    dispatch,
		Orders:      orderRepo,
		Rand:        rand.New(rand.NewSource(*seed)),
		Tenant:      "sim",
		Depot:       domain.Coordinates{Lon: -112.09, Lat: 33.45},
		DriverCount: *drivers,
		OrderCount:  *orders,
	}

	report, err := s.Run(context.Background())
	if err != nil {
		logger.Error("simulation failed", "err", err)
		os.Exit(1)
	}

	logger.Info("simulation complete",
		"drivers", report.Drivers,
		"orders", report.Orders,
		"routes_completed", report.RoutesCompleted,
		"unassigned", report.Unassigned,
	)
}
