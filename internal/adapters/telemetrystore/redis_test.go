package telemetrystore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"dispatch-route-service/internal/domain"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()

	srv := miniredis.RunT(t)
	store, err := NewRedisStore(srv.Addr())
	if err != nil {
		t.Fatalf("connect store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sample := domain.TelemetrySample{
		DriverID:       "d1",
		Coords:         domain.Coordinates{Lon: -112.07, Lat: 33.45},
		SpeedKPH:       31.5,
		HeadingDegrees: 182,
		BatteryPercent: 64,
		SignalStrength: 3,
		Timestamp:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := store.SetLatest(ctx, sample); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := store.Latest(ctx, "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("sample not found after set")
	}
	if got.SpeedKPH != sample.SpeedKPH || got.SignalStrength != sample.SignalStrength {
		t.Fatalf("got %+v, want %+v", got, sample)
	}
	if !got.Timestamp.Equal(sample.Timestamp) {
		t.Fatalf("timestamp = %v, want %v", got.Timestamp, sample.Timestamp)
	}
}

func TestRedisStoreOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := domain.TelemetrySample{DriverID: "d1", SpeedKPH: 10, Timestamp: time.Now().UTC()}
	second := domain.TelemetrySample{DriverID: "d1", SpeedKPH: 20, Timestamp: time.Now().UTC()}
	if err := store.SetLatest(ctx, first); err != nil {
		t.Fatalf("set first: %v", err)
	}
	if err := store.SetLatest(ctx, second); err != nil {
		t.Fatalf("set second: %v", err)
	}

	got, ok, err := store.Latest(ctx, "d1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.SpeedKPH != 20 {
		t.Fatalf("speed = %v, want the newer 20", got.SpeedKPH)
	}
}

func TestRedisStoreMiss(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Latest(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("found a sample that was never stored")
	}
}
