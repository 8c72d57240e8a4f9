package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dispatch-route-service/internal/domain"
)

// SQLite-backed implementation of the OrderRepository port.
type SqliteOrderRepository struct{ DB *sql.DB }

func NewSqliteOrderRepository(db *sql.DB) *SqliteOrderRepository {
	return &SqliteOrderRepository{DB: db}
}

func (s *SqliteOrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite order repository: DB is nil")
	}

	query := `
	SELECT order_id, tenant_id, customer_name, address, lon, lat, total, status, created_at
	FROM orders
	WHERE order_id = ?;
	`
	order, err := scanOrder(s.DB.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *SqliteOrderRepository) ListPending(ctx context.Context, tenantID string) ([]*domain.Order, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite order repository: DB is nil")
	}

	query := `
	SELECT order_id, tenant_id, customer_name, address, lon, lat, total, status, created_at
	FROM orders
	WHERE tenant_id = ? AND status = ?
	ORDER BY created_at, order_id;
	`
	rows, err := s.DB.QueryContext(ctx, query, tenantID, string(domain.OrderPending))
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, 64)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list pending orders: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending orders: row iteration: %w", err)
	}
	return orders, nil
}

func (s *SqliteOrderRepository) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if s.DB == nil {
		return errors.New("sqlite order repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE order_id = ?;`, string(status), orderID,
	)
	if err != nil {
		return fmt.Errorf("set order status %s: %w", orderID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
	}
	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var status, createdAt string
	var lon, lat sql.NullFloat64

	err := row.Scan(
		&order.OrderID, &order.TenantID, &order.CustomerName, &order.Address,
		&lon, &lat, &order.Total, &status, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatus(status)
	if lon.Valid && lat.Valid {
		order.Coords = &domain.Coordinates{Lon: lon.Float64, Lat: lat.Float64}
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	order.CreatedAt = t
	return &order, nil
}
