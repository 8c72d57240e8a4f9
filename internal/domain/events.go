package domain

import "time"

type EventKind string

const (
	EventAssignmentCreated EventKind = "assignment_created"
	EventRouteStarted      EventKind = "route_started"
	EventRouteCompleted    EventKind = "route_completed"
	EventRouteCancelled    EventKind = "route_cancelled"
	EventDriverAlert       EventKind = "driver_alert"
)

type AlertKind string

const (
	AlertLowBattery AlertKind = "low_battery"
	AlertWeakSignal AlertKind = "weak_signal"
)

type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "info"
	SeverityWarning AlertSeverity = "warning"
)

type DriverAlert struct {
	Kind     AlertKind
	Severity AlertSeverity
	Detail   string
}

// Event is the closed set of dispatch state changes published to external
// subscribers. Kind discriminates which of the optional fields are set:
// RouteID for route events, OrderIDs for assignment and route events,
// Alert for driver alerts.
type Event struct {
	Kind     EventKind
	DriverID string
	RouteID  string
	OrderIDs []string
	Alert    *DriverAlert
	At       time.Time
}
