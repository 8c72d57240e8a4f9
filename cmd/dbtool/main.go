package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"dispatch-route-service/internal/adapters/repositories"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/db"
)

// dbtool provisions a Postgres schema for deployments that outgrow the
// embedded SQLite file, and loads the same JSON seed files the server
// uses. The SQL here is the Postgres dialect of the sqlite repository
// schema.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "data/seeds/dispatch.json"
	}
	if err := initAndSeed(db, seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(db *sql.DB, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := initSchema(db); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Println("Schema ready.")

	log.Println("Seeding database...")
	if err := seedFromJSON(db, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Println("Seeding complete.")

	return nil
}

func initSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS drivers (
			driver_id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			capacity INTEGER NOT NULL,
			vehicle_kind TEXT NOT NULL DEFAULT '',
			vehicle_plate TEXT NOT NULL DEFAULT '',
			deactivated_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS driver_assignments (
			driver_id TEXT NOT NULL,
			order_id TEXT NOT NULL UNIQUE,
			seq INTEGER NOT NULL,
			PRIMARY KEY (driver_id, order_id)
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			address TEXT NOT NULL,
			lon DOUBLE PRECISION,
			lat DOUBLE PRECISION,
			total DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS routes (
			route_id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			status TEXT NOT NULL,
			ready BOOLEAN NOT NULL DEFAULT FALSE,
			estimated_seconds BIGINT NOT NULL DEFAULT 0,
			actual_seconds BIGINT NOT NULL DEFAULT 0,
			start_time TIMESTAMPTZ,
			end_time TIMESTAMPTZ,
			inserted_seq BIGSERIAL
		);`,
		`CREATE TABLE IF NOT EXISTS route_stops (
			route_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			order_id TEXT NOT NULL,
			address TEXT NOT NULL,
			lon DOUBLE PRECISION,
			lat DOUBLE PRECISION,
			PRIMARY KEY (route_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_routes_driver
		ON routes(driver_id, inserted_seq);`,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

func seedFromJSON(db *sql.DB, seedPath string) error {
	data, err := repositories.LoadSeedFile(seedPath)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed dispatch: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	driverQuery := `
	INSERT INTO drivers (driver_id, tenant_id, name, phone, status, capacity, vehicle_kind, vehicle_plate)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (driver_id) DO UPDATE SET
		tenant_id = EXCLUDED.tenant_id,
		name = EXCLUDED.name,
		phone = EXCLUDED.phone,
		capacity = EXCLUDED.capacity,
		vehicle_kind = EXCLUDED.vehicle_kind,
		vehicle_plate = EXCLUDED.vehicle_plate;
	`
	for _, d := range data.Drivers {
		capacity := d.Capacity
		if capacity <= 0 {
			capacity = domain.DefaultDriverCapacity
		}
		if _, err := tx.Exec(driverQuery,
			d.DriverID, d.TenantID, d.Name, d.Phone,
			string(domain.DriverAvailable), capacity, d.VehicleKind, d.VehiclePlate,
		); err != nil {
			return fmt.Errorf("seed dispatch: insert driver %s: %w", d.DriverID, err)
		}
	}

	orderQuery := `
	INSERT INTO orders (order_id, tenant_id, customer_name, address, lon, lat, total, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (order_id) DO UPDATE SET
		tenant_id = EXCLUDED.tenant_id,
		customer_name = EXCLUDED.customer_name,
		address = EXCLUDED.address,
		lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		total = EXCLUDED.total;
	`
	for _, o := range data.Orders {
		createdAt := o.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := tx.Exec(orderQuery,
			o.OrderID, o.TenantID, o.CustomerName, o.Address, o.Lon, o.Lat,
			o.Total, string(domain.OrderPending), createdAt,
		); err != nil {
			return fmt.Errorf("seed dispatch: insert order %s: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed dispatch: commit tx: %w", err)
	}

	return nil
}
