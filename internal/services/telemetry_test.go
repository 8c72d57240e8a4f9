package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch-route-service/internal/domain"
)

func sampleFor(driverID string) domain.TelemetrySample {
	return domain.TelemetrySample{
		DriverID:       driverID,
		Coords:         domain.Coordinates{Lon: 1, Lat: 1},
		SpeedKPH:       24,
		HeadingDegrees: 90,
		BatteryPercent: 80,
		SignalStrength: 4,
	}
}

func TestIngestAndLatest(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	ctx := context.Background()
	if err := f.dispatch.Ingest(ctx, sampleFor("d1")); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	status, err := f.dispatch.Latest(ctx, "d1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if status == nil {
		t.Fatal("expected a sample")
	}
	if status.Sample.SpeedKPH != 24 {
		t.Fatalf("speed = %v, want 24", status.Sample.SpeedKPH)
	}
	if !status.Sample.Timestamp.Equal(testEpoch) {
		t.Fatalf("timestamp = %v, want defaulted to %v", status.Sample.Timestamp, testEpoch)
	}
	if status.Stale {
		t.Fatal("fresh sample reported stale")
	}
}

func TestLatestStalenessThreshold(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	ctx := context.Background()
	if err := f.dispatch.Ingest(ctx, sampleFor("d1")); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	f.clock.Advance(10 * time.Second)
	status, err := f.dispatch.Latest(ctx, "d1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if status.Stale {
		t.Fatal("sample stale at +10s, threshold is 30s")
	}

	f.clock.Advance(21 * time.Second)
	status, err = f.dispatch.Latest(ctx, "d1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !status.Stale {
		t.Fatal("sample not stale at +31s")
	}
}

func TestIngestOverwritesPrevious(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	ctx := context.Background()
	if err := f.dispatch.Ingest(ctx, sampleFor("d1")); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	f.clock.Advance(time.Minute)
	second := sampleFor("d1")
	second.SpeedKPH = 48
	if err := f.dispatch.Ingest(ctx, second); err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	status, err := f.dispatch.Latest(ctx, "d1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if status.Sample.SpeedKPH != 48 {
		t.Fatalf("speed = %v, want the newer sample's 48", status.Sample.SpeedKPH)
	}
	if status.Stale {
		t.Fatal("newer sample reported stale")
	}
}

func TestIngestRejectsUnknownAndOfflineDrivers(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d-offline", 5)
	f.addDriver(t, "d-retired", 5)

	ctx := context.Background()
	if err := f.dispatch.SetStatus(ctx, "d-offline", domain.DriverOffline); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := f.dispatch.Deactivate(ctx, "d-retired"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	for _, id := range []string{"ghost", "d-offline", "d-retired"} {
		err := f.dispatch.Ingest(ctx, sampleFor(id))
		if !errors.Is(err, domain.ErrDriverNotFound) {
			t.Fatalf("driver %s: error = %v, want ErrDriverNotFound", id, err)
		}
	}
}

func TestLatestWithoutSamples(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	status, err := f.dispatch.Latest(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != nil {
		t.Fatalf("status = %+v, want nil before any ingest", status)
	}

	if _, err := f.dispatch.Latest(context.Background(), "ghost"); !errors.Is(err, domain.ErrDriverNotFound) {
		t.Fatalf("error = %v, want ErrDriverNotFound", err)
	}
}

func TestLowBatteryRaisesAlert(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	sample := sampleFor("d1")
	sample.BatteryPercent = 15
	if err := f.dispatch.Ingest(context.Background(), sample); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	ev, ok := f.events.last()
	if !ok || ev.Kind != domain.EventDriverAlert {
		t.Fatalf("last event = %+v, want driver_alert", ev)
	}
	if ev.Alert == nil || ev.Alert.Kind != domain.AlertLowBattery {
		t.Fatalf("alert = %+v, want low_battery", ev.Alert)
	}
	if ev.Alert.Severity != domain.SeverityWarning {
		t.Fatalf("severity = %s, want warning", ev.Alert.Severity)
	}
}

func TestWeakSignalRaisesAlert(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	sample := sampleFor("d1")
	sample.SignalStrength = 1
	if err := f.dispatch.Ingest(context.Background(), sample); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	ev, ok := f.events.last()
	if !ok || ev.Kind != domain.EventDriverAlert {
		t.Fatalf("last event = %+v, want driver_alert", ev)
	}
	if ev.Alert == nil || ev.Alert.Kind != domain.AlertWeakSignal {
		t.Fatalf("alert = %+v, want weak_signal", ev.Alert)
	}
}

func TestHealthySampleRaisesNoAlert(t *testing.T) {
	f := newFixture(t, nil)
	f.addDriver(t, "d1", 5)

	if err := f.dispatch.Ingest(context.Background(), sampleFor("d1")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if kinds := f.events.kinds(); len(kinds) != 0 {
		t.Fatalf("events = %v, want none", kinds)
	}
}
