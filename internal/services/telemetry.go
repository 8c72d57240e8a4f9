package services

import (
	"context"
	"fmt"

	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
)

// TelemetryStatus is the answer to a latest-telemetry query: the most
// recent sample and whether it has gone stale.
type TelemetryStatus struct {
	Sample domain.TelemetrySample
	Stale  bool
}

// Ingest overwrites the latest-known sample for a driver.
//
// Samples from unknown, offline or deactivated drivers are rejected.
// Ingestion takes no per-driver lock: it is a single overwrite of the
// latest-sample slot and must not block assignment or lifecycle work.
// Low-battery and weak-signal readings raise advisory DriverAlert events.
func (d *Dispatcher) Ingest(ctx context.Context, sample domain.TelemetrySample) error {
	drv, err := d.drivers.Get(ctx, sample.DriverID)
	if err != nil {
		return fmt.Errorf("ingest telemetry: %w", err)
	}
	if drv.Deactivated() || drv.Status == domain.DriverOffline {
		return fmt.Errorf("ingest telemetry: driver %s is offline: %w", sample.DriverID, domain.ErrDriverNotFound)
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = d.now()
	}
	if err := d.telemetry.SetLatest(ctx, sample); err != nil {
		return fmt.Errorf("ingest telemetry: %w", err)
	}
	obs.TelemetrySamples.Inc()

	if sample.LowBattery() {
		obs.DriverAlerts.WithLabelValues(string(domain.AlertLowBattery)).Inc()
		d.publish(ctx, domain.Event{
			Kind:     domain.EventDriverAlert,
			DriverID: sample.DriverID,
			Alert: &domain.DriverAlert{
				Kind:     domain.AlertLowBattery,
				Severity: domain.SeverityWarning,
				Detail:   fmt.Sprintf("battery at %.0f%%", sample.BatteryPercent),
			},
		})
	}
	if sample.WeakSignal() {
		obs.DriverAlerts.WithLabelValues(string(domain.AlertWeakSignal)).Inc()
		d.publish(ctx, domain.Event{
			Kind:     domain.EventDriverAlert,
			DriverID: sample.DriverID,
			Alert: &domain.DriverAlert{
				Kind:     domain.AlertWeakSignal,
				Severity: domain.SeverityInfo,
				Detail:   fmt.Sprintf("signal strength %d", sample.SignalStrength),
			},
		})
	}
	return nil
}

// Latest returns the most recent sample for a driver with its staleness
// flag. Staleness is advisory, never an error. A nil status means no
// sample has arrived yet.
func (d *Dispatcher) Latest(ctx context.Context, driverID string) (*TelemetryStatus, error) {
	if _, err := d.drivers.Get(ctx, driverID); err != nil {
		return nil, fmt.Errorf("latest telemetry: %w", err)
	}

	sample, ok, err := d.telemetry.Latest(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("latest telemetry: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &TelemetryStatus{Sample: sample, Stale: sample.Stale(d.now())}, nil
}
