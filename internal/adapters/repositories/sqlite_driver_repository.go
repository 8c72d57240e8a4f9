package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dispatch-route-service/internal/domain"
)

// SQLite-backed implementation of the DriverRepository port. The
// assignment set lives in driver_assignments, ordered by seq so assignment
// order survives a restart.
type SqliteDriverRepository struct{ DB *sql.DB }

func NewSqliteDriverRepository(db *sql.DB) *SqliteDriverRepository {
	return &SqliteDriverRepository{DB: db}
}

func (s *SqliteDriverRepository) Get(ctx context.Context, driverID string) (*domain.Driver, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite driver repository: DB is nil")
	}

	query := `
	SELECT driver_id, tenant_id, name, phone, status, capacity, vehicle_kind, vehicle_plate, deactivated_at
	FROM drivers
	WHERE driver_id = ?;
	`
	drv, err := scanDriver(s.DB.QueryRowContext(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("driver %s: %w", driverID, domain.ErrDriverNotFound)
		}
		return nil, fmt.Errorf("get driver: %w", err)
	}

	if err := s.loadAssignments(ctx, drv); err != nil {
		return nil, fmt.Errorf("get driver: %w", err)
	}
	return drv, nil
}

func (s *SqliteDriverRepository) loadAssignments(ctx context.Context, drv *domain.Driver) error {
	query := `
	SELECT order_id
	FROM driver_assignments
	WHERE driver_id = ?
	ORDER BY seq;
	`
	rows, err := s.DB.QueryContext(ctx, query, drv.DriverID)
	if err != nil {
		return fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		if err := rows.Scan(&orderID); err != nil {
			return fmt.Errorf("scan assignment: %w", err)
		}
		drv.AssignedOrderIDs = append(drv.AssignedOrderIDs, orderID)
	}
	return rows.Err()
}

// Save upserts the driver row and rewrites its assignment set in one tx.
func (s *SqliteDriverRepository) Save(ctx context.Context, driver *domain.Driver) error {
	if s.DB == nil {
		return errors.New("sqlite driver repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save driver: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var deactivated any
	if driver.DeactivatedAt != nil {
		deactivated = driver.DeactivatedAt.UTC().Format(time.RFC3339Nano)
	}

	upsert := `
	INSERT OR REPLACE INTO drivers (
		driver_id, tenant_id, name, phone, status, capacity, vehicle_kind, vehicle_plate, deactivated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	if _, err := tx.ExecContext(ctx, upsert,
		driver.DriverID, driver.TenantID, driver.Name, driver.Phone,
		string(driver.Status), driver.Capacity,
		driver.Vehicle.Kind, driver.Vehicle.Plate, deactivated,
	); err != nil {
		return fmt.Errorf("save driver %s: %w", driver.DriverID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM driver_assignments WHERE driver_id = ?;`, driver.DriverID,
	); err != nil {
		return fmt.Errorf("save driver %s: clear assignments: %w", driver.DriverID, err)
	}

	insert := `INSERT INTO driver_assignments (driver_id, order_id, seq) VALUES (?, ?, ?);`
	for i, orderID := range driver.AssignedOrderIDs {
		if _, err := tx.ExecContext(ctx, insert, driver.DriverID, orderID, i); err != nil {
			return fmt.Errorf("save driver %s: insert assignment %s: %w", driver.DriverID, orderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save driver %s: commit tx: %w", driver.DriverID, err)
	}
	return nil
}

func (s *SqliteDriverRepository) List(ctx context.Context, tenantID string) ([]*domain.Driver, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite driver repository: DB is nil")
	}

	query := `
	SELECT driver_id, tenant_id, name, phone, status, capacity, vehicle_kind, vehicle_plate, deactivated_at
	FROM drivers
	WHERE tenant_id = ?
	ORDER BY driver_id;
	`
	rows, err := s.DB.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	drivers := make([]*domain.Driver, 0, 16)
	for rows.Next() {
		drv, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("list drivers: %w", err)
		}
		drivers = append(drivers, drv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drivers: row iteration: %w", err)
	}

	for _, drv := range drivers {
		if err := s.loadAssignments(ctx, drv); err != nil {
			return nil, fmt.Errorf("list drivers: %w", err)
		}
	}
	return drivers, nil
}

func (s *SqliteDriverRepository) OwnerOf(ctx context.Context, orderID string) (string, bool, error) {
	if s.DB == nil {
		return "", false, errors.New("sqlite driver repository: DB is nil")
	}

	var driverID string
	err := s.DB.QueryRowContext(ctx,
		`SELECT driver_id FROM driver_assignments WHERE order_id = ?;`, orderID,
	).Scan(&driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("owner of order %s: %w", orderID, err)
	}
	return driverID, true, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var drv domain.Driver
	var status string
	var deactivated sql.NullString

	err := row.Scan(
		&drv.DriverID, &drv.TenantID, &drv.Name, &drv.Phone, &status,
		&drv.Capacity, &drv.Vehicle.Kind, &drv.Vehicle.Plate, &deactivated,
	)
	if err != nil {
		return nil, err
	}

	drv.Status = domain.DriverStatus(status)
	if deactivated.Valid {
		t, err := time.Parse(time.RFC3339Nano, deactivated.String)
		if err != nil {
			return nil, fmt.Errorf("parse deactivated_at: %w", err)
		}
		drv.DeactivatedAt = &t
	}
	return &drv, nil
}
