package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch-route-service/internal/domain"
)

func TestStartRequiresComputedRoute(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	// A pending route whose stop order was invalidated and never recomputed.
	rt := &domain.Route{
		RouteID:  "rt-d1-manual",
		DriverID: "d1",
		Status:   domain.RoutePending,
		Stops:    []domain.Stop{{OrderID: "o1", Address: "o1 Test St"}},
	}
	if err := f.routes.Save(context.Background(), rt); err != nil {
		t.Fatalf("save route: %v", err)
	}

	err := f.dispatch.Start(context.Background(), rt.RouteID)
	if !errors.Is(err, domain.ErrRouteNotReady) {
		t.Fatalf("error = %v, want ErrRouteNotReady", err)
	}
}

func TestStartTwiceRejectedWithoutSideEffects(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)
	f.addOrder("o1", 1, 0, 0)

	ctx := context.Background()
	if err := f.dispatch.Assign(ctx, "d1", []string{"o1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	rt := f.route(t, "d1")
	if err := f.dispatch.Start(ctx, rt.RouteID); err != nil {
		t.Fatalf("start: %v", err)
	}

	err := f.dispatch.Start(ctx, rt.RouteID)
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("error = %v, want ErrInvalidStateTransition", err)
	}

	got, err := f.dispatch.RouteByID(ctx, rt.RouteID)
	if err != nil {
		t.Fatalf("route by id: %v", err)
	}
	if got.Status != domain.RouteInProgress {
		t.Fatalf("route status = %s, want in-progress", got.Status)
	}
	if !got.StartTime.Equal(testEpoch) {
		t.Fatalf("start time = %v, want %v", got.StartTime, testEpoch)
	}
	if f.driver(t, "d1").Status != domain.DriverBusy {
		t.Fatal("driver no longer busy after rejected second start")
	}
}

func TestCompleteRecordsMeasuredDuration(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)
	f.addOrder("o1", 1, 0, 0)
	f.addOrder("o2", 2, 0, time.Minute)

	ctx := context.Background()
	if err := f.dispatch.Assign(ctx, "d1", []string{"o1", "o2"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	rt := f.route(t, "d1")
	if err := f.dispatch.Start(ctx, rt.RouteID); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.clock.Advance(27 * time.Minute)
	if err := f.dispatch.Complete(ctx, rt.RouteID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := f.dispatch.RouteByID(ctx, rt.RouteID)
	if err != nil {
		t.Fatalf("route by id: %v", err)
	}
	if got.Status != domain.RouteCompleted {
		t.Fatalf("route status = %s, want completed", got.Status)
	}
	if got.ActualTime != 27*time.Minute {
		t.Fatalf("actual time = %v, want 27m", got.ActualTime)
	}

	for _, id := range []string{"o1", "o2"} {
		if status := f.order(t, id).Status; status != domain.OrderDelivered {
			t.Fatalf("order %s status = %s, want delivered", id, status)
		}
	}
	drv := f.driver(t, "d1")
	if drv.Status != domain.DriverAvailable {
		t.Fatalf("driver status = %s, want available", drv.Status)
	}
	if drv.CapacityRemaining() != 5 {
		t.Fatalf("capacity remaining = %d, want 5", drv.CapacityRemaining())
	}
}

func TestCompleteFromPendingRejected(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)
	f.addOrder("o1", 1, 0, 0)

	ctx := context.Background()
	if err := f.dispatch.Assign(ctx, "d1", []string{"o1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	rt := f.route(t, "d1")

	err := f.dispatch.Complete(ctx, rt.RouteID)
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("error = %v, want ErrInvalidStateTransition", err)
	}
	if got := f.order(t, "o1").Status; got != domain.OrderProcessing {
		t.Fatalf("order status = %s, want processing", got)
	}
}

func TestCancelReleasesOrdersForReassignment(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)
	f.addOrder("o1", 1, 0, 0)
	f.addOrder("o2", 2, 0, time.Minute)

	ctx := context.Background()
	if err := f.dispatch.Assign(ctx, "d1", []string{"o1", "o2"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	rt := f.route(t, "d1")
	if err := f.dispatch.Start(ctx, rt.RouteID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.dispatch.Cancel(ctx, rt.RouteID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	for _, id := range []string{"o1", "o2"} {
		if got := f.order(t, id).Status; got != domain.OrderPending {
			t.Fatalf("order %s status = %s, want pending", id, got)
		}
	}
	if f.driver(t, "d1").Status != domain.DriverAvailable {
		t.Fatal("driver not released after cancel")
	}

	// The released orders are assignable again, to anyone.
	f.addDriver(t, "d2", 5)
	if err := f.dispatch.Assign(ctx, "d2", []string{"o1", "o2"}); err != nil {
		t.Fatalf("reassign after cancel: %v", err)
	}
}

func TestCancelPendingRoute(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)
	f.addOrder("o1", 1, 0, 0)

	ctx := context.Background()
	if err := f.dispatch.Assign(ctx, "d1", []string{"o1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	rt := f.route(t, "d1")

	if err := f.dispatch.Cancel(ctx, rt.RouteID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, err := f.dispatch.RouteByID(ctx, rt.RouteID)
	if err != nil {
		t.Fatalf("route by id: %v", err)
	}
	if got.Status != domain.RouteCancelled {
		t.Fatalf("route status = %s, want cancelled", got.Status)
	}
	if got.ActualTime != 0 {
		t.Fatalf("actual time = %v, want 0 for a never-started route", got.ActualTime)
	}
}

func TestLifecycleEventsEmittedInOrder(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)
	f.addOrder("o1", 1, 0, 0)

	ctx := context.Background()
	if err := f.dispatch.Assign(ctx, "d1", []string{"o1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	rt := f.route(t, "d1")
	if err := f.dispatch.Start(ctx, rt.RouteID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.dispatch.Complete(ctx, rt.RouteID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	want := []domain.EventKind{
		domain.EventAssignmentCreated,
		domain.EventRouteStarted,
		domain.EventRouteCompleted,
	}
	got := f.events.kinds()
	if len(got) != len(want) {
		t.Fatalf("event kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event kinds = %v, want %v", got, want)
		}
	}
}

func TestRouteResolutionPrefersInProgress(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)
	f.addOrder("o1", 1, 0, 0)

	ctx := context.Background()
	if err := f.dispatch.Assign(ctx, "d1", []string{"o1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	started := f.route(t, "d1")
	if err := f.dispatch.Start(ctx, started.RouteID); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.addOrder("o2", 2, 0, time.Minute)
	if err := f.dispatch.Assign(ctx, "d1", []string{"o2"}); err != nil {
		t.Fatalf("assign o2: %v", err)
	}

	got := f.route(t, "d1")
	if got == nil || got.RouteID != started.RouteID {
		t.Fatalf("resolved route = %+v, want in-progress %s", got, started.RouteID)
	}
}

func TestStartUnknownRoute(t *testing.T) {
	f := newFixture(t, nil)

	err := f.dispatch.Start(context.Background(), "rt-ghost")
	if !errors.Is(err, domain.ErrRouteNotFound) {
		t.Fatalf("error = %v, want ErrRouteNotFound", err)
	}
}
