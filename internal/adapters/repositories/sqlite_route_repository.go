package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dispatch-route-service/internal/domain"
)

// SQLite-backed implementation of the RouteRepository port. Stops live in
// route_stops keyed by (route_id, seq); inserted_seq preserves creation
// order so ListByDriver can return newest first.
type SqliteRouteRepository struct{ DB *sql.DB }

func NewSqliteRouteRepository(db *sql.DB) *SqliteRouteRepository {
	return &SqliteRouteRepository{DB: db}
}

func (s *SqliteRouteRepository) Get(ctx context.Context, routeID string) (*domain.Route, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite route repository: DB is nil")
	}

	query := `
	SELECT route_id, driver_id, status, ready, estimated_seconds, actual_seconds, start_time, end_time
	FROM routes
	WHERE route_id = ?;
	`
	rt, err := scanRoute(s.DB.QueryRowContext(ctx, query, routeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("route %s: %w", routeID, domain.ErrRouteNotFound)
		}
		return nil, fmt.Errorf("get route: %w", err)
	}

	if err := s.loadStops(ctx, rt); err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	return rt, nil
}

func (s *SqliteRouteRepository) loadStops(ctx context.Context, rt *domain.Route) error {
	query := `
	SELECT seq, order_id, address, lon, lat
	FROM route_stops
	WHERE route_id = ?
	ORDER BY seq;
	`
	rows, err := s.DB.QueryContext(ctx, query, rt.RouteID)
	if err != nil {
		return fmt.Errorf("query stops: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stop domain.Stop
		var lon, lat sql.NullFloat64
		if err := rows.Scan(&stop.Sequence, &stop.OrderID, &stop.Address, &lon, &lat); err != nil {
			return fmt.Errorf("scan stop: %w", err)
		}
		if lon.Valid && lat.Valid {
			stop.Coords = &domain.Coordinates{Lon: lon.Float64, Lat: lat.Float64}
		}
		rt.Stops = append(rt.Stops, stop)
	}
	return rows.Err()
}

// Save upserts the route row and rewrites its stops in one tx. A new
// route takes the next inserted_seq; replacing keeps the original.
func (s *SqliteRouteRepository) Save(ctx context.Context, route *domain.Route) error {
	if s.DB == nil {
		return errors.New("sqlite route repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var start, end any
	if route.StartTime != nil {
		start = route.StartTime.UTC().Format(time.RFC3339Nano)
	}
	if route.EndTime != nil {
		end = route.EndTime.UTC().Format(time.RFC3339Nano)
	}
	ready := 0
	if route.Ready {
		ready = 1
	}

	upsert := `
	INSERT INTO routes (
		route_id, driver_id, status, ready, estimated_seconds, actual_seconds, start_time, end_time, inserted_seq
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(inserted_seq), 0) + 1 FROM routes))
	ON CONFLICT(route_id) DO UPDATE SET
		status = excluded.status,
		ready = excluded.ready,
		estimated_seconds = excluded.estimated_seconds,
		actual_seconds = excluded.actual_seconds,
		start_time = excluded.start_time,
		end_time = excluded.end_time;
	`
	if _, err := tx.ExecContext(ctx, upsert,
		route.RouteID, route.DriverID, string(route.Status), ready,
		int(route.EstimatedTime.Seconds()), int(route.ActualTime.Seconds()), start, end,
	); err != nil {
		return fmt.Errorf("save route %s: %w", route.RouteID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM route_stops WHERE route_id = ?;`, route.RouteID,
	); err != nil {
		return fmt.Errorf("save route %s: clear stops: %w", route.RouteID, err)
	}

	insert := `INSERT INTO route_stops (route_id, seq, order_id, address, lon, lat) VALUES (?, ?, ?, ?, ?, ?);`
	for _, stop := range route.Stops {
		var lon, lat any
		if stop.Coords != nil {
			lon, lat = stop.Coords.Lon, stop.Coords.Lat
		}
		if _, err := tx.ExecContext(ctx, insert,
			route.RouteID, stop.Sequence, stop.OrderID, stop.Address, lon, lat,
		); err != nil {
			return fmt.Errorf("save route %s: insert stop %s: %w", route.RouteID, stop.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save route %s: commit tx: %w", route.RouteID, err)
	}
	return nil
}

func (s *SqliteRouteRepository) Delete(ctx context.Context, routeID string) error {
	if s.DB == nil {
		return errors.New("sqlite route repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM route_stops WHERE route_id = ?;`, routeID); err != nil {
		return fmt.Errorf("delete route %s: stops: %w", routeID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM routes WHERE route_id = ?;`, routeID); err != nil {
		return fmt.Errorf("delete route %s: %w", routeID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete route %s: commit tx: %w", routeID, err)
	}
	return nil
}

func (s *SqliteRouteRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Route, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite route repository: DB is nil")
	}

	query := `
	SELECT route_id, driver_id, status, ready, estimated_seconds, actual_seconds, start_time, end_time
	FROM routes
	WHERE driver_id = ?
	ORDER BY inserted_seq DESC;
	`
	rows, err := s.DB.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	routes := make([]*domain.Route, 0, 4)
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("list routes: %w", err)
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	for _, rt := range routes {
		if err := s.loadStops(ctx, rt); err != nil {
			return nil, fmt.Errorf("list routes: %w", err)
		}
	}
	return routes, nil
}

func scanRoute(row rowScanner) (*domain.Route, error) {
	var rt domain.Route
	var status string
	var ready, estimated, actual int
	var start, end sql.NullString

	err := row.Scan(&rt.RouteID, &rt.DriverID, &status, &ready, &estimated, &actual, &start, &end)
	if err != nil {
		return nil, err
	}

	rt.Status = domain.RouteStatus(status)
	rt.Ready = ready != 0
	rt.EstimatedTime = time.Duration(estimated) * time.Second
	rt.ActualTime = time.Duration(actual) * time.Second

	if start.Valid {
		t, err := time.Parse(time.RFC3339Nano, start.String)
		if err != nil {
			return nil, fmt.Errorf("parse start_time: %w", err)
		}
		rt.StartTime = &t
	}
	if end.Valid {
		t, err := time.Parse(time.RFC3339Nano, end.String)
		if err != nil {
			return nil, fmt.Errorf("parse end_time: %w", err)
		}
		rt.EndTime = &t
	}
	return &rt, nil
}
