package services

import (
	"context"
	"errors"
	"fmt"

	"dispatch-route-service/internal/domain"
)

// Register adds a driver from the roster source. The dispatch core owns
// status, capacity and the assignment set from this point on: the driver
// starts available with an empty set, regardless of what the caller filled
// in.
func (d *Dispatcher) Register(ctx context.Context, driver *domain.Driver) error {
	if driver == nil || driver.DriverID == "" {
		return errors.New("register driver: driver id must be non-empty")
	}

	unlock := d.locks.lock(driver.DriverID)
	defer unlock()

	_, err := d.drivers.Get(ctx, driver.DriverID)
	if err == nil {
		return fmt.Errorf("register driver %s: %w", driver.DriverID, domain.ErrDuplicateDriver)
	}
	if !errors.Is(err, domain.ErrDriverNotFound) {
		return fmt.Errorf("register driver %s: %w", driver.DriverID, err)
	}

	driver.Status = domain.DriverAvailable
	driver.AssignedOrderIDs = nil
	driver.DeactivatedAt = nil
	if driver.Capacity <= 0 {
		driver.Capacity = domain.DefaultDriverCapacity
	}

	if err := d.drivers.Save(ctx, driver); err != nil {
		return fmt.Errorf("register driver %s: %w", driver.DriverID, err)
	}
	return nil
}

// SetStatus applies a manual status change, rejecting combinations that
// contradict the assignment set (busy with nothing assigned).
func (d *Dispatcher) SetStatus(ctx context.Context, driverID string, status domain.DriverStatus) error {
	switch status {
	case domain.DriverAvailable, domain.DriverBusy, domain.DriverOffline:
	default:
		return fmt.Errorf("set status: unknown status %q: %w", status, domain.ErrInvalidStateTransition)
	}

	unlock := d.locks.lock(driverID)
	defer unlock()

	drv, err := d.drivers.Get(ctx, driverID)
	if err != nil {
		return fmt.Errorf("set status %s: %w", driverID, err)
	}

	if status == domain.DriverBusy && drv.AssignedCount() == 0 {
		return fmt.Errorf("set status %s: busy with no assignments: %w", driverID, domain.ErrInvalidStateTransition)
	}

	drv.Status = status
	if err := d.drivers.Save(ctx, drv); err != nil {
		return fmt.Errorf("set status %s: %w", driverID, err)
	}
	return nil
}

// Deactivate soft-retires a driver. The record stays because routes may
// still reference it; the driver simply takes no further work.
func (d *Dispatcher) Deactivate(ctx context.Context, driverID string) error {
	unlock := d.locks.lock(driverID)
	defer unlock()

	drv, err := d.drivers.Get(ctx, driverID)
	if err != nil {
		return fmt.Errorf("deactivate driver %s: %w", driverID, err)
	}
	if drv.Deactivated() {
		return nil
	}

	t := d.now()
	drv.DeactivatedAt = &t
	if err := d.drivers.Save(ctx, drv); err != nil {
		return fmt.Errorf("deactivate driver %s: %w", driverID, err)
	}
	return nil
}

// ListAvailable returns a tenant's drivers that can take more work:
// available, or busy with spare capacity. Deactivated and offline drivers
// are excluded.
func (d *Dispatcher) ListAvailable(ctx context.Context, tenantID string) ([]*domain.Driver, error) {
	all, err := d.drivers.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list available drivers: %w", err)
	}

	out := make([]*domain.Driver, 0, len(all))
	for _, drv := range all {
		if drv.Deactivated() {
			continue
		}
		if drv.Status == domain.DriverAvailable ||
			(drv.Status == domain.DriverBusy && drv.AssignedCount() < drv.Capacity) {
			out = append(out, drv)
		}
	}
	return out, nil
}

// CapacityRemaining reports how many more orders a driver can take.
func (d *Dispatcher) CapacityRemaining(ctx context.Context, driverID string) (int, error) {
	drv, err := d.drivers.Get(ctx, driverID)
	if err != nil {
		return 0, fmt.Errorf("capacity remaining %s: %w", driverID, err)
	}
	return drv.CapacityRemaining(), nil
}

// Driver returns a driver record for read-only consumers.
func (d *Dispatcher) Driver(ctx context.Context, driverID string) (*domain.Driver, error) {
	return d.drivers.Get(ctx, driverID)
}
