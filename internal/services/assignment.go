package services

import (
	"context"
	"fmt"

	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
)

// Assign places a batch of orders on one driver.
//
// The batch is atomic: every order is validated (exists, still pending,
// not held by any driver) and the driver's remaining capacity must cover
// the whole batch before anything is mutated. On success the orders move
// to processing, the driver goes busy, an AssignmentCreated event is
// emitted and the driver's route is scheduled for re-optimization.
func (d *Dispatcher) Assign(ctx context.Context, driverID string, orderIDs []string) (err error) {
	defer obs.Time(ctx, "dispatch.Assign")(&err)

	if len(orderIDs) == 0 {
		return nil
	}

	unlock := d.locks.lock(driverID)
	defer unlock()

	drv, err := d.drivers.Get(ctx, driverID)
	if err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	if drv.Deactivated() || drv.Status == domain.DriverOffline {
		return fmt.Errorf("assign: driver %s is not assignable: %w", driverID, domain.ErrInvalidStateTransition)
	}

	if err := d.validateBatch(ctx, drv, orderIDs); err != nil {
		return err
	}

	for _, orderID := range orderIDs {
		if err := drv.Assign(orderID); err != nil {
			return fmt.Errorf("assign: %w", err)
		}
		if err := d.orders.SetStatus(ctx, orderID, domain.OrderProcessing); err != nil {
			return fmt.Errorf("assign: mark order %s processing: %w", orderID, err)
		}
	}
	if drv.Status == domain.DriverAvailable {
		drv.Status = domain.DriverBusy
	}

	if err := d.drivers.Save(ctx, drv); err != nil {
		return fmt.Errorf("assign: save driver %s: %w", driverID, err)
	}

	d.bumpVersion(driverID)
	d.invalidateRouteLocked(ctx, driverID)
	obs.AssignmentsTotal.Add(float64(len(orderIDs)))

	d.publish(ctx, domain.Event{
		Kind:     domain.EventAssignmentCreated,
		DriverID: driverID,
		OrderIDs: append([]string(nil), orderIDs...),
	})

	d.scheduleOptimizeLocked(driverID)
	return nil
}

// validateBatch checks every order in the batch before any mutation so
// that a failing batch leaves no partial state.
func (d *Dispatcher) validateBatch(ctx context.Context, drv *domain.Driver, orderIDs []string) error {
	if len(orderIDs) > drv.CapacityRemaining() {
		return fmt.Errorf(
			"assign: driver %s remaining=%d batch=%d: %w",
			drv.DriverID, drv.CapacityRemaining(), len(orderIDs), domain.ErrDriverAtCapacity,
		)
	}

	seen := make(map[string]struct{}, len(orderIDs))
	for _, orderID := range orderIDs {
		if _, dup := seen[orderID]; dup {
			return fmt.Errorf("assign: order %s listed twice: %w", orderID, domain.ErrOrderAlreadyAssigned)
		}
		seen[orderID] = struct{}{}

		order, err := d.orders.Get(ctx, orderID)
		if err != nil {
			return fmt.Errorf("assign: %w", err)
		}
		if order.Status != domain.OrderPending {
			return fmt.Errorf("assign: order %s is %s: %w", orderID, order.Status, domain.ErrOrderAlreadyAssigned)
		}

		if owner, held, err := d.drivers.OwnerOf(ctx, orderID); err != nil {
			return fmt.Errorf("assign: %w", err)
		} else if held {
			return fmt.Errorf("assign: order %s held by driver %s: %w", orderID, owner, domain.ErrOrderAlreadyAssigned)
		}
	}
	return nil
}

// Unassign releases one order from a driver. Permitted only while the
// driver's route has not started; afterwards the order rides to completion
// or cancellation.
func (d *Dispatcher) Unassign(ctx context.Context, driverID, orderID string) (err error) {
	defer obs.Time(ctx, "dispatch.Unassign")(&err)

	unlock := d.locks.lock(driverID)
	defer unlock()

	drv, err := d.drivers.Get(ctx, driverID)
	if err != nil {
		return fmt.Errorf("unassign: %w", err)
	}
	if !drv.HasOrder(orderID) {
		return fmt.Errorf("unassign: driver %s does not hold order %s: %w", driverID, orderID, domain.ErrOrderNotFound)
	}

	routes, err := d.routes.ListByDriver(ctx, driverID)
	if err != nil {
		return fmt.Errorf("unassign: %w", err)
	}
	for _, rt := range routes {
		if rt.Status != domain.RouteInProgress {
			continue
		}
		for _, stop := range rt.Stops {
			if stop.OrderID == orderID {
				return fmt.Errorf(
					"unassign: order %s is on started route %s: %w",
					orderID, rt.RouteID, domain.ErrInvalidStateTransition,
				)
			}
		}
	}

	if err := drv.Unassign(orderID); err != nil {
		return fmt.Errorf("unassign: %w", err)
	}
	if err := d.orders.SetStatus(ctx, orderID, domain.OrderPending); err != nil {
		return fmt.Errorf("unassign: revert order %s: %w", orderID, err)
	}
	if drv.AssignedCount() == 0 && drv.Status == domain.DriverBusy {
		drv.Status = domain.DriverAvailable
	}

	if err := d.drivers.Save(ctx, drv); err != nil {
		return fmt.Errorf("unassign: save driver %s: %w", driverID, err)
	}

	d.bumpVersion(driverID)
	d.invalidateRouteLocked(ctx, driverID)
	obs.UnassignmentsTotal.Inc()

	d.scheduleOptimizeLocked(driverID)
	return nil
}

// DistributionReport summarizes one AutoDistribute run.
type DistributionReport struct {
	// AssignedPerDriver counts orders placed on each driver.
	AssignedPerDriver map[string]int
	// UnassignedRemainder lists orders left pending because no driver had
	// capacity for them.
	UnassignedRemainder []string
}

// AutoDistribute spreads a tenant's pending orders across its assignable
// drivers round-robin, bounded by each driver's remaining capacity.
//
// Drivers are taken in ascending id order and orders in creation order, so
// repeated runs over the same inputs place the same orders on the same
// drivers. All touched driver locks are held for the duration, acquired in
// ascending id order.
func (d *Dispatcher) AutoDistribute(ctx context.Context, tenantID string) (_ *DistributionReport, err error) {
	defer obs.Time(ctx, "dispatch.AutoDistribute")(&err)

	candidates, err := d.ListAvailable(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("auto distribute: %w", err)
	}

	ids := make([]string, 0, len(candidates))
	for _, drv := range candidates {
		ids = append(ids, drv.DriverID)
	}
	unlock := d.locks.lockAll(ids)
	defer unlock()

	// Re-read under lock: capacity may have moved since the candidate scan.
	drivers := make([]*domain.Driver, 0, len(ids))
	for _, id := range ids {
		drv, err := d.drivers.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("auto distribute: %w", err)
		}
		if drv.Assignable() {
			drivers = append(drivers, drv)
		}
	}

	pending, err := d.orders.ListPending(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("auto distribute: %w", err)
	}

	report := &DistributionReport{AssignedPerDriver: make(map[string]int)}
	placed := make(map[string][]string)

	next := 0
	for _, order := range pending {
		target := -1
		for probe := 0; probe < len(drivers); probe++ {
			i := (next + probe) % len(drivers)
			if drivers[i].CapacityRemaining() > 0 {
				target = i
				break
			}
		}
		if target == -1 {
			report.UnassignedRemainder = append(report.UnassignedRemainder, order.OrderID)
			continue
		}

		drv := drivers[target]
		if err := drv.Assign(order.OrderID); err != nil {
			return nil, fmt.Errorf("auto distribute: %w", err)
		}
		placed[drv.DriverID] = append(placed[drv.DriverID], order.OrderID)
		report.AssignedPerDriver[drv.DriverID]++
		next = target + 1
	}

	// Apply per driver only after the whole distribution is decided.
	for _, drv := range drivers {
		orderIDs := placed[drv.DriverID]
		if len(orderIDs) == 0 {
			continue
		}

		for _, orderID := range orderIDs {
			if err := d.orders.SetStatus(ctx, orderID, domain.OrderProcessing); err != nil {
				return nil, fmt.Errorf("auto distribute: mark order %s processing: %w", orderID, err)
			}
		}
		if drv.Status == domain.DriverAvailable {
			drv.Status = domain.DriverBusy
		}
		if err := d.drivers.Save(ctx, drv); err != nil {
			return nil, fmt.Errorf("auto distribute: save driver %s: %w", drv.DriverID, err)
		}

		d.bumpVersion(drv.DriverID)
		d.invalidateRouteLocked(ctx, drv.DriverID)
		obs.AssignmentsTotal.Add(float64(len(orderIDs)))

		d.publish(ctx, domain.Event{
			Kind:     domain.EventAssignmentCreated,
			DriverID: drv.DriverID,
			OrderIDs: orderIDs,
		})
		d.scheduleOptimizeLocked(drv.DriverID)
	}

	return report, nil
}
