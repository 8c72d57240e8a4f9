package telemetrystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatch-route-service/internal/domain"
)

// Redis-backed implementation of the TelemetryStore port, for deployments
// where the latest driver positions must survive a dispatcher restart or
// be read by other processes. One key per driver, overwritten on every
// ingest; keys expire well past the staleness threshold so dead drivers
// eventually vanish.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("telemetry store: redis ping: %w", err)
	}
	return &RedisStore{client: client, ttl: 10 * time.Minute}, nil
}

func (r *RedisStore) Close() error { return r.client.Close() }

func telemetryKey(driverID string) string { return "telemetry:latest:" + driverID }

type sampleRecord struct {
	DriverID       string    `json:"driver_id"`
	Lon            float64   `json:"lon"`
	Lat            float64   `json:"lat"`
	SpeedKPH       float64   `json:"speed_kph"`
	HeadingDegrees float64   `json:"heading"`
	BatteryPercent float64   `json:"battery"`
	SignalStrength int       `json:"signal"`
	Timestamp      time.Time `json:"timestamp"`
}

func (r *RedisStore) SetLatest(ctx context.Context, sample domain.TelemetrySample) error {
	body, err := json.Marshal(sampleRecord{
		DriverID:       sample.DriverID,
		Lon:            sample.Coords.Lon,
		Lat:            sample.Coords.Lat,
		SpeedKPH:       sample.SpeedKPH,
		HeadingDegrees: sample.HeadingDegrees,
		BatteryPercent: sample.BatteryPercent,
		SignalStrength: sample.SignalStrength,
		Timestamp:      sample.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("telemetry store: marshal sample: %w", err)
	}

	if err := r.client.Set(ctx, telemetryKey(sample.DriverID), body, r.ttl).Err(); err != nil {
		return fmt.Errorf("telemetry store: set %s: %w", sample.DriverID, err)
	}
	return nil
}

func (r *RedisStore) Latest(ctx context.Context, driverID string) (domain.TelemetrySample, bool, error) {
	body, err := r.client.Get(ctx, telemetryKey(driverID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.TelemetrySample{}, false, nil
	}
	if err != nil {
		return domain.TelemetrySample{}, false, fmt.Errorf("telemetry store: get %s: %w", driverID, err)
	}

	var rec sampleRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return domain.TelemetrySample{}, false, fmt.Errorf("telemetry store: parse %s: %w", driverID, err)
	}

	return domain.TelemetrySample{
		DriverID:       rec.DriverID,
		Coords:         domain.Coordinates{Lon: rec.Lon, Lat: rec.Lat},
		SpeedKPH:       rec.SpeedKPH,
		HeadingDegrees: rec.HeadingDegrees,
		BatteryPercent: rec.BatteryPercent,
		SignalStrength: rec.SignalStrength,
		Timestamp:      rec.Timestamp,
	}, true, nil
}
