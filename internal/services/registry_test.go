package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch-route-service/internal/domain"
)

func TestRegisterNormalizesDriver(t *testing.T) {
	f := newFixture(t, nil)

	drv := &domain.Driver{
		DriverID:         "d1",
		TenantID:         testTenant,
		Name:             "Ana",
		Status:           domain.DriverBusy,
		AssignedOrderIDs: []string{"stale-order"},
	}
	if err := f.dispatch.Register(context.Background(), drv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := f.driver(t, "d1")
	if got.Status != domain.DriverAvailable {
		t.Fatalf("status = %s, want available", got.Status)
	}
	if got.AssignedCount() != 0 {
		t.Fatalf("assigned count = %d, want 0", got.AssignedCount())
	}
	if got.Capacity != domain.DefaultDriverCapacity {
		t.Fatalf("capacity = %d, want default %d", got.Capacity, domain.DefaultDriverCapacity)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	err := f.dispatch.Register(context.Background(), domain.NewDriver("d1", testTenant, "Again", 5))
	if !errors.Is(err, domain.ErrDuplicateDriver) {
		t.Fatalf("error = %v, want ErrDuplicateDriver", err)
	}
}

func TestSetStatusBusyRequiresAssignments(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	err := f.dispatch.SetStatus(context.Background(), "d1", domain.DriverBusy)
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("error = %v, want ErrInvalidStateTransition", err)
	}

	if err := f.dispatch.SetStatus(context.Background(), "d1", domain.DriverOffline); err != nil {
		t.Fatalf("offline: unexpected error: %v", err)
	}
	if got := f.driver(t, "d1").Status; got != domain.DriverOffline {
		t.Fatalf("status = %s, want offline", got)
	}
}

func TestSetStatusUnknownValue(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	err := f.dispatch.SetStatus(context.Background(), "d1", domain.DriverStatus("napping"))
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestDeactivateIsSoftAndIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	if err := f.dispatch.Deactivate(context.Background(), "d1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.dispatch.Deactivate(context.Background(), "d1"); err != nil {
		t.Fatalf("second deactivate: unexpected error: %v", err)
	}

	got := f.driver(t, "d1")
	if !got.Deactivated() {
		t.Fatal("driver not deactivated")
	}
	if !got.DeactivatedAt.Equal(testEpoch) {
		t.Fatalf("deactivated at %v, want %v", got.DeactivatedAt, testEpoch)
	}
}

func TestListAvailableFiltersFleet(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d-available", 5)
	f.addDriver(t, "d-busy-spare", 2)
	f.addDriver(t, "d-busy-full", 1)
	f.addDriver(t, "d-offline", 5)
	f.addDriver(t, "d-retired", 5)

	f.addOrder("o1", 1, 0, 0)
	f.addOrder("o2", 2, 0, time.Minute)
	ctx := context.Background()
	if err := f.dispatch.Assign(ctx, "d-busy-spare", []string{"o1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := f.dispatch.Assign(ctx, "d-busy-full", []string{"o2"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := f.dispatch.SetStatus(ctx, "d-offline", domain.DriverOffline); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := f.dispatch.Deactivate(ctx, "d-retired"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	out, err := f.dispatch.ListAvailable(ctx, testTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]bool{"d-available": true, "d-busy-spare": true}
	if len(out) != len(want) {
		t.Fatalf("got %d drivers, want %d", len(out), len(want))
	}
	for _, drv := range out {
		if !want[drv.DriverID] {
			t.Fatalf("unexpected driver %s in available list", drv.DriverID)
		}
	}
}

func TestCapacityRemaining(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 3)
	f.addOrder("o1", 1, 0, 0)

	ctx := context.Background()
	if err := f.dispatch.Assign(ctx, "d1", []string{"o1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	got, err := f.dispatch.CapacityRemaining(ctx, "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Fatalf("capacity remaining = %d, want 2", got)
	}

	if _, err := f.dispatch.CapacityRemaining(ctx, "ghost"); !errors.Is(err, domain.ErrDriverNotFound) {
		t.Fatalf("error = %v, want ErrDriverNotFound", err)
	}
}
