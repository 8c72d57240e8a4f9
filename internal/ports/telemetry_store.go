package ports

import (
	"context"

	"dispatch-route-service/internal/domain"
)

// Port: the latest-known telemetry slot per driver. Writes overwrite; no
// history is retained here (history is an external collaborator's concern).
type TelemetryStore interface {
	// Overwrite the latest sample for the sample's driver.
	SetLatest(ctx context.Context, sample domain.TelemetrySample) error
	// Return the latest sample for a driver; ok is false when none exists.
	Latest(ctx context.Context, driverID string) (domain.TelemetrySample, bool, error)
}
