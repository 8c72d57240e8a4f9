package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
)

// Optimize recomputes the stop ordering for a driver's pending route.
//
// Only the orders not already riding on an in-progress route participate;
// the in-progress route is never touched. An existing pending route is
// replaced in place, otherwise a fresh pending route is created. With no
// orders left to cover, a leftover pending route is deleted and nil is
// returned.
func (d *Dispatcher) Optimize(ctx context.Context, driverID string) (*domain.Route, error) {
	unlock := d.locks.lock(driverID)
	defer unlock()
	return d.optimizeLocked(ctx, driverID)
}

// ScheduleOptimize requests an asynchronous re-optimization. The result is
// discarded if the driver's assignment set changes before it is applied.
func (d *Dispatcher) ScheduleOptimize(driverID string) {
	unlock := d.locks.lock(driverID)
	defer unlock()
	d.scheduleOptimizeLocked(driverID)
}

// scheduleOptimizeLocked must be called with the driver's lock held.
func (d *Dispatcher) scheduleOptimizeLocked(driverID string) {
	if d.cfg.InlineOptimize {
		if _, err := d.optimizeLocked(context.Background(), driverID); err != nil {
			slog.Error("inline optimize failed", "driver_id", driverID, "err", err)
		}
		return
	}

	requested := d.version(driverID)
	go func() {
		unlock := d.locks.lock(driverID)
		defer unlock()

		if d.version(driverID) != requested {
			obs.StaleOptimizations.Inc()
			return
		}
		if _, err := d.optimizeLocked(context.Background(), driverID); err != nil {
			slog.Error("optimize failed", "driver_id", driverID, "err", err)
		}
	}()
}

// invalidateRouteLocked marks the driver's pending route as awaiting
// optimization after an assignment change. Must be called with the
// driver's lock held.
func (d *Dispatcher) invalidateRouteLocked(ctx context.Context, driverID string) {
	routes, err := d.routes.ListByDriver(ctx, driverID)
	if err != nil {
		slog.Error("invalidate route: list routes", "driver_id", driverID, "err", err)
		return
	}
	for _, rt := range routes {
		if rt.Status != domain.RoutePending {
			continue
		}
		rt.Ready = false
		if err := d.routes.Save(ctx, rt); err != nil {
			slog.Error("invalidate route: save", "route_id", rt.RouteID, "err", err)
		}
		return
	}
}

func (d *Dispatcher) optimizeLocked(ctx context.Context, driverID string) (*domain.Route, error) {
	start := time.Now()
	defer obs.ObserveOptimizeLatency(start)

	drv, err := d.drivers.Get(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	routes, err := d.routes.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	var pending *domain.Route
	covered := make(map[string]struct{})
	for _, rt := range routes {
		switch rt.Status {
		case domain.RoutePending:
			if pending == nil {
				pending = rt
			}
		case domain.RouteInProgress:
			for _, stop := range rt.Stops {
				covered[stop.OrderID] = struct{}{}
			}
		}
	}

	// Orders to route, in assignment order.
	uncovered := make([]*domain.Order, 0, drv.AssignedCount())
	for _, orderID := range drv.AssignedOrderIDs {
		if _, ok := covered[orderID]; ok {
			continue
		}
		order, err := d.orders.Get(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("optimize: %w", err)
		}
		uncovered = append(uncovered, order)
	}

	if len(uncovered) == 0 {
		if pending != nil {
			if err := d.routes.Delete(ctx, pending.RouteID); err != nil {
				return nil, fmt.Errorf("optimize: delete empty route %s: %w", pending.RouteID, err)
			}
		}
		return nil, nil
	}

	stops, estimated, degraded := planStops(d.cfg, d.metric, uncovered)
	if degraded {
		slog.Warn("optimize: distance data unusable, using assignment order", "driver_id", driverID)
	}

	if pending == nil {
		pending = &domain.Route{
			RouteID:  nextRouteID(driverID, routes),
			DriverID: driverID,
			Status:   domain.RoutePending,
		}
	}
	pending.Stops = stops
	pending.Ready = true
	pending.EstimatedTime = estimated

	if err := d.routes.Save(ctx, pending); err != nil {
		return nil, fmt.Errorf("optimize: save route %s: %w", pending.RouteID, err)
	}
	return pending, nil
}

// nextRouteID continues the rt-<driverID>-<n> sequence from the driver's
// stored routes, terminal ones included. Counting from persisted state
// keeps ids unique across process restarts; an in-memory counter would
// reset and overwrite an earlier route's row.
func nextRouteID(driverID string, existing []*domain.Route) string {
	prefix := fmt.Sprintf("rt-%s-", driverID)

	var last uint64
	for _, rt := range existing {
		if !strings.HasPrefix(rt.RouteID, prefix) {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimPrefix(rt.RouteID, prefix), 10, 64)
		if err == nil && n > last {
			last = n
		}
	}
	return fmt.Sprintf("%s%d", prefix, last+1)
}

// planStops orders stops by a greedy nearest-neighbor walk from the depot.
//
// At each step the closest unvisited order wins; ties break on earliest
// creation time, then order id, so identical inputs always produce the
// identical ordering. Estimated time is accumulated travel at the
// configured average speed plus per-stop service time. When any order
// lacks coordinates or the metric fails, the walk degrades to assignment
// order rather than failing the dispatch flow.
func planStops(cfg Config, metric ports.DistanceMetric, orders []*domain.Order) ([]domain.Stop, time.Duration, bool) {
	for _, order := range orders {
		if order.Coords == nil {
			return fallbackStops(orders), serviceTime(cfg, len(orders)), true
		}
	}

	current := cfg.Depot
	remaining := make([]*domain.Order, len(orders))
	copy(remaining, orders)

	stops := make([]domain.Stop, 0, len(orders))
	var travel time.Duration

	for len(remaining) > 0 {
		best := -1
		bestKm := math.MaxFloat64

		for i, order := range remaining {
			km, err := metric.DistanceKm(current, *order.Coords)
			if err != nil {
				return fallbackStops(orders), serviceTime(cfg, len(orders)), true
			}
			if km < bestKm || (km == bestKm && best >= 0 && closerInTime(order, remaining[best])) {
				bestKm = km
				best = i
			}
		}

		chosen := remaining[best]
		travel += time.Duration(bestKm / cfg.AvgSpeedKPH * float64(time.Hour))
		stops = append(stops, domain.Stop{
			OrderID:  chosen.OrderID,
			Address:  chosen.Address,
			Coords:   chosen.Coords,
			Sequence: len(stops),
		})

		current = *chosen.Coords
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return stops, travel + serviceTime(cfg, len(stops)), false
}

// closerInTime is the deterministic tie-breaker for equal distances.
func closerInTime(a, b *domain.Order) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// fallbackStops keeps the assignment order when distances cannot be
// computed. A degraded route beats no route.
func fallbackStops(orders []*domain.Order) []domain.Stop {
	stops := make([]domain.Stop, 0, len(orders))
	for i, order := range orders {
		stops = append(stops, domain.Stop{
			OrderID:  order.OrderID,
			Address:  order.Address,
			Coords:   order.Coords,
			Sequence: i,
		})
	}
	return stops
}

func serviceTime(cfg Config, stopCount int) time.Duration {
	return time.Duration(stopCount) * cfg.StopService
}
