package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dispatch-route-service/internal/domain"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDriversQuery := `
	CREATE TABLE IF NOT EXISTS drivers (
		driver_id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		capacity INTEGER NOT NULL,
		vehicle_kind TEXT NOT NULL DEFAULT '',
		vehicle_plate TEXT NOT NULL DEFAULT '',
		deactivated_at TEXT
	);
	`

	createAssignmentsQuery := `
	CREATE TABLE IF NOT EXISTS driver_assignments (
		driver_id TEXT NOT NULL,
		order_id TEXT NOT NULL UNIQUE,
		seq INTEGER NOT NULL,
		PRIMARY KEY (driver_id, order_id)
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		address TEXT NOT NULL,
		lon REAL,
		lat REAL,
		total REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		route_id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		status TEXT NOT NULL,
		ready INTEGER NOT NULL DEFAULT 0,
		estimated_seconds INTEGER NOT NULL DEFAULT 0,
		actual_seconds INTEGER NOT NULL DEFAULT 0,
		start_time TEXT,
		end_time TEXT,
		inserted_seq INTEGER NOT NULL
	);
	`

	createStopsQuery := `
	CREATE TABLE IF NOT EXISTS route_stops (
		route_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		order_id TEXT NOT NULL,
		address TEXT NOT NULL,
		lon REAL,
		lat REAL,
		PRIMARY KEY (route_id, seq)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_routes_driver
	ON routes(driver_id, inserted_seq);
	`

	statements := []string{
		createDriversQuery,
		createAssignmentsQuery,
		createOrdersQuery,
		createRoutesQuery,
		createStopsQuery,
		createIndexQuery,
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

type DriverSeed struct {
	DriverID     string `json:"driver_id"`
	TenantID     string `json:"tenant_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Capacity     int    `json:"capacity"`
	VehicleKind  string `json:"vehicle_kind"`
	VehiclePlate string `json:"vehicle_plate"`
}

type OrderSeed struct {
	OrderID      string    `json:"order_id"`
	TenantID     string    `json:"tenant_id"`
	CustomerName string    `json:"customer_name"`
	Address      string    `json:"address"`
	Lon          *float64  `json:"lon"`
	Lat          *float64  `json:"lat"`
	Total        float64   `json:"total"`
	CreatedAt    time.Time `json:"created_at"`
}

type SeedFile struct {
	Drivers []DriverSeed `json:"drivers"`
	Orders  []OrderSeed  `json:"orders"`
}

// LoadSeedFile reads and validates a demo seed file.
func LoadSeedFile(jsonPath string) (SeedFile, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return SeedFile{}, fmt.Errorf("seed dispatch: read %q: %w", jsonPath, err)
	}

	var data SeedFile
	if err := json.Unmarshal(bytes, &data); err != nil {
		return SeedFile{}, fmt.Errorf("seed dispatch: parse json: %w", err)
	}

	for i, d := range data.Drivers {
		if strings.TrimSpace(d.DriverID) == "" || strings.TrimSpace(d.TenantID) == "" {
			return SeedFile{}, fmt.Errorf("seed dispatch: driver at index %d: id and tenant are required", i+1)
		}
	}
	for i, o := range data.Orders {
		if strings.TrimSpace(o.OrderID) == "" || strings.TrimSpace(o.TenantID) == "" {
			return SeedFile{}, fmt.Errorf("seed dispatch: order at index %d: id and tenant are required", i+1)
		}
		if strings.TrimSpace(o.Address) == "" {
			return SeedFile{}, fmt.Errorf("seed dispatch: order %s: address cannot be empty", o.OrderID)
		}
	}

	return data, nil
}

// Populate the database with driver and order data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	data, err := LoadSeedFile(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed dispatch: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	driverQuery := `
	INSERT OR REPLACE INTO drivers (
		driver_id, tenant_id, name, phone, status, capacity, vehicle_kind, vehicle_plate
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
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
	INSERT OR REPLACE INTO orders (
		order_id, tenant_id, customer_name, address, lon, lat, total, status, created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	for _, o := range data.Orders {
		if _, err := tx.Exec(orderQuery,
			o.OrderID, o.TenantID, o.CustomerName, o.Address, o.Lon, o.Lat,
			o.Total, string(domain.OrderPending), o.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("seed dispatch: insert order %s: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed dispatch: commit tx: %w", err)
	}

	return nil
}
