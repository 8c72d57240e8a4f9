package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AssignmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_assignments_total",
		Help: "Orders assigned to drivers",
	})
	UnassignmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_unassignments_total",
		Help: "Orders released back to pending before route start",
	})
	RoutesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_routes_started_total",
		Help: "Routes moved to in-progress",
	})
	RoutesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_routes_completed_total",
		Help: "Routes completed",
	})
	RoutesCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_routes_cancelled_total",
		Help: "Routes cancelled",
	})
	TelemetrySamples = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_telemetry_samples_total",
		Help: "Telemetry samples ingested",
	})
	DriverAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_driver_alerts_total",
		Help: "Advisory driver alerts by kind",
	}, []string{"kind"})
	StaleOptimizations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_stale_optimizations_total",
		Help: "Optimization results discarded because assignments changed mid-flight",
	})
	OptimizeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_optimize_latency_seconds",
		Help:    "Route optimization latency",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveOptimizeLatency(start time.Time) {
	OptimizeLatency.Observe(time.Since(start).Seconds())
}

// StartMetricsServer serves /metrics and a trivial liveness probe. Blocks;
// run it on its own goroutine.
func StartMetricsServer(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	_ = http.ListenAndServe(":"+port, mux)
}
