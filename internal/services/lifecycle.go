package services

import (
	"context"
	"fmt"

	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
)

// routeUnderLock resolves the route's driver, takes that driver's lock and
// re-reads the route so lifecycle transitions see current state. The
// returned unlock func must be deferred by the caller.
func (d *Dispatcher) routeUnderLock(ctx context.Context, routeID string) (*domain.Route, func(), error) {
	rt, err := d.routes.Get(ctx, routeID)
	if err != nil {
		return nil, nil, err
	}

	unlock := d.locks.lock(rt.DriverID)
	rt, err = d.routes.Get(ctx, routeID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return rt, unlock, nil
}

// Start moves a pending route to in-progress and puts the driver to work.
// A route without a computed stop order cannot start.
func (d *Dispatcher) Start(ctx context.Context, routeID string) (err error) {
	defer obs.Time(ctx, "dispatch.Start")(&err)

	rt, unlock, err := d.routeUnderLock(ctx, routeID)
	if err != nil {
		return fmt.Errorf("start route: %w", err)
	}
	defer unlock()

	drv, err := d.drivers.Get(ctx, rt.DriverID)
	if err != nil {
		return fmt.Errorf("start route %s: %w", routeID, err)
	}

	if err := rt.Start(d.now()); err != nil {
		return fmt.Errorf("start route: %w", err)
	}
	if drv.Status != domain.DriverBusy {
		drv.Status = domain.DriverBusy
		if err := d.drivers.Save(ctx, drv); err != nil {
			return fmt.Errorf("start route %s: save driver: %w", routeID, err)
		}
	}
	if err := d.routes.Save(ctx, rt); err != nil {
		return fmt.Errorf("start route %s: save route: %w", routeID, err)
	}

	obs.RoutesStarted.Inc()
	d.publish(ctx, domain.Event{
		Kind:     domain.EventRouteStarted,
		DriverID: rt.DriverID,
		RouteID:  rt.RouteID,
		OrderIDs: rt.OrderIDs(),
	})
	return nil
}

// Complete finishes an in-progress route: the measured duration is
// recorded, every stop's order is delivered and released from the driver,
// and the driver goes available again once nothing is left assigned.
func (d *Dispatcher) Complete(ctx context.Context, routeID string) (err error) {
	defer obs.Time(ctx, "dispatch.Complete")(&err)

	rt, unlock, err := d.routeUnderLock(ctx, routeID)
	if err != nil {
		return fmt.Errorf("complete route: %w", err)
	}
	defer unlock()

	drv, err := d.drivers.Get(ctx, rt.DriverID)
	if err != nil {
		return fmt.Errorf("complete route %s: %w", routeID, err)
	}

	if err := rt.Complete(d.now()); err != nil {
		return fmt.Errorf("complete route: %w", err)
	}

	if err := d.releaseStops(ctx, rt, drv, domain.OrderDelivered); err != nil {
		return fmt.Errorf("complete route %s: %w", routeID, err)
	}
	if err := d.routes.Save(ctx, rt); err != nil {
		return fmt.Errorf("complete route %s: save route: %w", routeID, err)
	}

	obs.RoutesCompleted.Inc()
	d.publish(ctx, domain.Event{
		Kind:     domain.EventRouteCompleted,
		DriverID: rt.DriverID,
		RouteID:  rt.RouteID,
		OrderIDs: rt.OrderIDs(),
	})
	return nil
}

// Cancel aborts a pending or in-progress route and releases its orders
// back to pending, where the assignment engine can pick them up again.
func (d *Dispatcher) Cancel(ctx context.Context, routeID string) (err error) {
	defer obs.Time(ctx, "dispatch.Cancel")(&err)

	rt, unlock, err := d.routeUnderLock(ctx, routeID)
	if err != nil {
		return fmt.Errorf("cancel route: %w", err)
	}
	defer unlock()

	drv, err := d.drivers.Get(ctx, rt.DriverID)
	if err != nil {
		return fmt.Errorf("cancel route %s: %w", routeID, err)
	}

	if err := rt.Cancel(d.now()); err != nil {
		return fmt.Errorf("cancel route: %w", err)
	}

	if err := d.releaseStops(ctx, rt, drv, domain.OrderPending); err != nil {
		return fmt.Errorf("cancel route %s: %w", routeID, err)
	}
	if err := d.routes.Save(ctx, rt); err != nil {
		return fmt.Errorf("cancel route %s: save route: %w", routeID, err)
	}

	obs.RoutesCancelled.Inc()
	d.publish(ctx, domain.Event{
		Kind:     domain.EventRouteCancelled,
		DriverID: rt.DriverID,
		RouteID:  rt.RouteID,
		OrderIDs: rt.OrderIDs(),
	})
	return nil
}

// releaseStops moves every stop order to its terminal status and frees the
// driver's capacity. The assignment set changed, so the driver's version
// is bumped.
func (d *Dispatcher) releaseStops(ctx context.Context, rt *domain.Route, drv *domain.Driver, to domain.OrderStatus) error {
	for _, stop := range rt.Stops {
		if err := d.orders.SetStatus(ctx, stop.OrderID, to); err != nil {
			return fmt.Errorf("release order %s: %w", stop.OrderID, err)
		}
		if drv.HasOrder(stop.OrderID) {
			if err := drv.Unassign(stop.OrderID); err != nil {
				return fmt.Errorf("release order %s: %w", stop.OrderID, err)
			}
		}
	}

	if drv.AssignedCount() == 0 && drv.Status == domain.DriverBusy {
		drv.Status = domain.DriverAvailable
	}
	if err := d.drivers.Save(ctx, drv); err != nil {
		return fmt.Errorf("save driver %s: %w", drv.DriverID, err)
	}

	d.bumpVersion(drv.DriverID)
	return nil
}

// Route returns the route a read-only consumer cares about for a driver:
// the in-progress one if any, else the newest pending one, else nil.
func (d *Dispatcher) Route(ctx context.Context, driverID string) (*domain.Route, error) {
	routes, err := d.routes.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}

	var pending *domain.Route
	for _, rt := range routes {
		switch rt.Status {
		case domain.RouteInProgress:
			return rt, nil
		case domain.RoutePending:
			if pending == nil {
				pending = rt
			}
		}
	}
	return pending, nil
}

// RouteByID returns a single route record.
func (d *Dispatcher) RouteByID(ctx context.Context, routeID string) (*domain.Route, error) {
	return d.routes.Get(ctx, routeID)
}
