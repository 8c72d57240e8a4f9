package domain

import (
	"errors"
	"testing"
)

func TestDriverAssignCapacity(t *testing.T) {
	d := NewDriver("drv-1", "t-1", "Alma", 2)

	if err := d.Assign("ord-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Assign("ord-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := d.CapacityRemaining(); got != 0 {
		t.Fatalf("capacity remaining = %d, want 0", got)
	}

	err := d.Assign("ord-3")
	if !errors.Is(err, ErrDriverAtCapacity) {
		t.Fatalf("expected ErrDriverAtCapacity, got %v", err)
	}
	if d.AssignedCount() != 2 {
		t.Fatalf("assignment set mutated on failed assign: %v", d.AssignedOrderIDs)
	}
}

func TestDriverAssignDuplicate(t *testing.T) {
	d := NewDriver("drv-1", "t-1", "Alma", 5)

	if err := d.Assign("ord-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Assign("ord-1"); !errors.Is(err, ErrOrderAlreadyAssigned) {
		t.Fatalf("expected ErrOrderAlreadyAssigned, got %v", err)
	}
}

func TestDriverUnassignRestoresCapacity(t *testing.T) {
	d := NewDriver("drv-1", "t-1", "Alma", 3)

	if err := d.Assign("ord-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := d.CapacityRemaining()

	if err := d.Assign("ord-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Unassign("ord-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := d.CapacityRemaining(); got != before {
		t.Fatalf("capacity remaining = %d, want %d", got, before)
	}
	if err := d.Unassign("ord-9"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestDriverAssignable(t *testing.T) {
	d := NewDriver("drv-1", "t-1", "Alma", 1)
	if !d.Assignable() {
		t.Fatal("fresh driver should be assignable")
	}

	d.Status = DriverOffline
	if d.Assignable() {
		t.Fatal("offline driver must not be assignable")
	}

	d.Status = DriverBusy
	if err := d.Assign("ord-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Assignable() {
		t.Fatal("driver at capacity must not be assignable")
	}
}
