package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Open connects to the Postgres instance backing dispatch provisioning
// (the dbtool's schema and seed runs). Pool limits stay small; the tool
// is a short-lived batch client, not a serving path.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open dispatch db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("verify dispatch db connection: %w", err)
	}

	return db, nil
}
