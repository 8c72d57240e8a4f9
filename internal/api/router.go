package api

import (
	"net/http"

	"dispatch-route-service/internal/api/handlers"
	"dispatch-route-service/internal/services"
)

// NewRouter wires HTTP handlers with the dispatcher and returns an
// http.Handler. This is the API composition root (handlers stay unaware
// of concrete adapters).
func NewRouter(dispatch *services.Dispatcher) http.Handler {
	mux := http.NewServeMux()

	driverHandler := &handlers.DriverHandler{Dispatch: dispatch}
	assignHandler := &handlers.AssignmentHandler{Dispatch: dispatch}
	routeHandler := &handlers.RouteHandler{Dispatch: dispatch}
	telemetryHandler := &handlers.TelemetryHandler{Dispatch: dispatch}

	mux.HandleFunc("/health", handlers.Health)

	mux.HandleFunc("/drivers", driverHandler.Drivers)
	mux.HandleFunc("/drivers/status", driverHandler.SetStatus)
	mux.HandleFunc("/drivers/deactivate", driverHandler.Deactivate)
	mux.HandleFunc("/drivers/capacity", driverHandler.Capacity)

	mux.HandleFunc("/assignments", assignHandler.Assign)
	mux.HandleFunc("/assignments/unassign", assignHandler.Unassign)
	mux.HandleFunc("/assignments/auto", assignHandler.AutoDistribute)

	mux.HandleFunc("/routes", routeHandler.Get)
	mux.HandleFunc("/routes/optimize", routeHandler.Optimize)
	mux.HandleFunc("/routes/start", routeHandler.Start)
	mux.HandleFunc("/routes/complete", routeHandler.Complete)
	mux.HandleFunc("/routes/cancel", routeHandler.Cancel)

	mux.HandleFunc("/telemetry", telemetryHandler.Telemetry)

	return loggingMiddleware(mux)
}
