package domain

import (
	"fmt"
	"time"
)

type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverBusy      DriverStatus = "busy"
	DriverOffline   DriverStatus = "offline"
)

// DefaultDriverCapacity is the number of orders a driver may carry
// concurrently when onboarding supplies no explicit limit.
const DefaultDriverCapacity = 5

type Vehicle struct {
	Kind  string
	Plate string
}

// Driver aggregate holding the assignment set and status/capacity bookkeeping.
//
// Identity and vehicle metadata come from the roster source at onboarding;
// Status, Capacity and AssignedOrderIDs are owned by the dispatch core from
// then on. AssignedOrderIDs preserves assignment order so a degraded route
// can fall back to it. Drivers referenced by routes are never deleted, only
// deactivated.
type Driver struct {
	DriverID         string
	TenantID         string
	Name             string
	Phone            string
	Status           DriverStatus
	Capacity         int
	AssignedOrderIDs []string
	Vehicle          Vehicle
	DeactivatedAt    *time.Time
}

func NewDriver(id, tenantID, name string, capacity int) *Driver {
	if capacity <= 0 {
		capacity = DefaultDriverCapacity
	}
	return &Driver{
		DriverID: id,
		TenantID: tenantID,
		Name:     name,
		Status:   DriverAvailable,
		Capacity: capacity,
	}
}

func (d *Driver) AssignedCount() int { return len(d.AssignedOrderIDs) }

func (d *Driver) CapacityRemaining() int { return d.Capacity - len(d.AssignedOrderIDs) }

func (d *Driver) HasOrder(orderID string) bool {
	for _, id := range d.AssignedOrderIDs {
		if id == orderID {
			return true
		}
	}
	return false
}

// Add a single order to the assignment set.
func (d *Driver) Assign(orderID string) error {
	if d.HasOrder(orderID) {
		return fmt.Errorf("assign driver %s: order %s: %w", d.DriverID, orderID, ErrOrderAlreadyAssigned)
	}
	if d.CapacityRemaining() <= 0 {
		return fmt.Errorf("assign driver %s: capacity=%d: %w", d.DriverID, d.Capacity, ErrDriverAtCapacity)
	}
	d.AssignedOrderIDs = append(d.AssignedOrderIDs, orderID)
	return nil
}

// Remove a single order from the assignment set.
func (d *Driver) Unassign(orderID string) error {
	for i, id := range d.AssignedOrderIDs {
		if id == orderID {
			d.AssignedOrderIDs = append(d.AssignedOrderIDs[:i], d.AssignedOrderIDs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("unassign driver %s: order %s: %w", d.DriverID, orderID, ErrOrderNotFound)
}

// Deactivated drivers keep their record (routes may still reference them)
// but take no new work.
func (d *Driver) Deactivated() bool { return d.DeactivatedAt != nil }

// A driver can take more work when it is active, not offline, and has
// capacity to spare.
func (d *Driver) Assignable() bool {
	if d.Deactivated() || d.Status == DriverOffline {
		return false
	}
	return d.CapacityRemaining() > 0
}
