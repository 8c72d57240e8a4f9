package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"dispatch-route-service/internal/adapters/distance"
	"dispatch-route-service/internal/adapters/notify"
	"dispatch-route-service/internal/adapters/repositories"
	"dispatch-route-service/internal/adapters/telemetrystore"
	"dispatch-route-service/internal/api"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"dispatch-route-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, redis, AMQP) behind ports and starts
// the HTTP server.
func main() {
	logger := obs.NewLogger("dispatch")

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found (using environment variables)")
	}

	dbPath := getEnv("DB_PATH", "data/dispatch.db")
	seedPath := getEnv("SEED_PATH", "")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")

	db, err := openDB(dbPath)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize schema and optionally seed demo data for local runs.
	if err := repositories.InitSchema(db); err != nil {
		logger.Error("init schema", "err", err)
		os.Exit(1)
	}
	if seedPath != "" {
		if err := repositories.SeedFromJSON(db, seedPath); err != nil {
			logger.Error("seed database", "err", err)
			os.Exit(1)
		}
	}

	var telemetry ports.TelemetryStore = telemetrystore.NewMemoryStore()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		store, err := telemetrystore.NewRedisStore(addr)
		if err != nil {
			logger.Error("connect redis", "err", err)
			os.Exit(1)
		}
		defer store.Close()
		telemetry = store
		logger.Info("telemetry store", "backend", "redis", "addr", addr)
	}

	bus := notify.NewBus()
	if url := os.Getenv("AMQP_URL"); url != "" {
		pub, err := notify.DialAMQP(url)
		if err != nil {
			logger.Error("connect amqp", "err", err)
			os.Exit(1)
		}
		defer pub.Close()
		bus.Attach(pub)
		logger.Info("event mirror", "backend", "amqp")
	}

	var metric ports.DistanceMetric = distance.NewHaversine()
	if getEnv("DISTANCE_METRIC", "haversine") == "euclidean" {
		metric = distance.NewEuclidean()
	}

	dispatch := services.New(services.Deps{
		Drivers:   repositories.NewSqliteDriverRepository(db),
		Orders:    repositories.NewSqliteOrderRepository(db),
		Routes:    repositories.NewSqliteRouteRepository(db),
		Telemetry: telemetry,
		Publisher: bus,
		Metric:    metric,
	}, services.Config{
		Depot: domain.Coordinates{
			Lon: getEnvFloat("DEPOT_LON", -112.09),
			Lat: getEnvFloat("DEPOT_LAT", 33.45),
		},
		AvgSpeedKPH: getEnvFloat("AVG_SPEED_KPH", 30),
		StopService: time.Duration(getEnvFloat("SERVICE_MINUTES", 5) * float64(time.Minute)),
	})

	go obs.StartMetricsServer(metricsPort)

	router := api.NewRouter(dispatch)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("server listening", "addr", srv.Addr, "metrics_port", metricsPort)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		logger.Info("server stopped")
	case err := <-errCh:
		if err != http.ErrServerClosed {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid float env value, using fallback", "key", key, "value", v)
		return fallback
	}
	return f
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}
