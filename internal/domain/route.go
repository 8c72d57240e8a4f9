package domain

import (
	"fmt"
	"time"
)

type RouteStatus string

const (
	RoutePending    RouteStatus = "pending"
	RouteInProgress RouteStatus = "in-progress"
	RouteCompleted  RouteStatus = "completed"
	RouteCancelled  RouteStatus = "cancelled"
)

// rank orders route states for the monotonic-transition check. Cancelled is
// terminal from either live state.
func (s RouteStatus) rank() int {
	switch s {
	case RoutePending:
		return 0
	case RouteInProgress:
		return 1
	case RouteCompleted, RouteCancelled:
		return 2
	}
	return -1
}

// Represents a single stop in a delivery route.
// A Stop corresponds to delivering exactly one order at its address,
// at the position Sequence within the driver's run.
type Stop struct {
	OrderID  string
	Address  string
	Coords   *Coordinates
	Sequence int
}

// Represents the planned delivery run for a single driver.
//
// A Route is created or replaced by the optimizer while pending and then
// driven forward by the lifecycle: pending → in-progress → completed, with
// cancellation allowed from either live state. Transitions never move
// backwards. Ready reports whether a stop ordering has been computed since
// the assignment set last changed; a route cannot start until it is ready.
type Route struct {
	RouteID       string
	DriverID      string
	Stops         []Stop
	Status        RouteStatus
	Ready         bool
	EstimatedTime time.Duration
	ActualTime    time.Duration
	StartTime     *time.Time
	EndTime       *time.Time
}

func (r *Route) OrderIDs() []string {
	ids := make([]string, 0, len(r.Stops))
	for _, s := range r.Stops {
		ids = append(ids, s.OrderID)
	}
	return ids
}

// transition validates and applies a forward-only status change.
func (r *Route) transition(to RouteStatus) error {
	ok := false
	switch to {
	case RouteInProgress:
		ok = r.Status == RoutePending
	case RouteCompleted:
		ok = r.Status == RouteInProgress
	case RouteCancelled:
		ok = r.Status == RoutePending || r.Status == RouteInProgress
	}
	if !ok || to.rank() < r.Status.rank() {
		return fmt.Errorf("route %s: %s -> %s: %w", r.RouteID, r.Status, to, ErrInvalidStateTransition)
	}
	r.Status = to
	return nil
}

// Begin the route. Valid only from pending with a computed stop order.
func (r *Route) Start(now time.Time) error {
	if r.Status == RoutePending && !r.Ready {
		return fmt.Errorf("route %s: %w", r.RouteID, ErrRouteNotReady)
	}
	if err := r.transition(RouteInProgress); err != nil {
		return err
	}
	t := now
	r.StartTime = &t
	return nil
}

// Finish the route, recording the measured duration.
func (r *Route) Complete(now time.Time) error {
	if err := r.transition(RouteCompleted); err != nil {
		return err
	}
	t := now
	r.EndTime = &t
	if r.StartTime != nil {
		r.ActualTime = now.Sub(*r.StartTime)
	}
	return nil
}

// Abort the route from pending or in-progress.
func (r *Route) Cancel(now time.Time) error {
	if err := r.transition(RouteCancelled); err != nil {
		return err
	}
	t := now
	r.EndTime = &t
	return nil
}

// Live reports whether the route still holds orders (not yet terminal).
func (r *Route) Live() bool {
	return r.Status == RoutePending || r.Status == RouteInProgress
}
