package domain

import "time"

// Staleness threshold for latest-known driver telemetry. A sample older
// than this is reported stale but kept until a newer one supersedes it.
const TelemetryStaleAfter = 30 * time.Second

// Advisory alert thresholds. Crossing one raises a DriverAlert event, never
// an error.
const (
	LowBatteryPercent = 20.0
	WeakSignalLevel   = 2
)

// A single location/health reading from a driver's device. Only the most
// recent sample per driver is retained.
type TelemetrySample struct {
	DriverID       string
	Coords         Coordinates
	SpeedKPH       float64
	HeadingDegrees float64
	BatteryPercent float64
	SignalStrength int
	Timestamp      time.Time
}

// Stale reports whether the sample has outlived the freshness threshold.
func (s TelemetrySample) Stale(now time.Time) bool {
	return now.Sub(s.Timestamp) > TelemetryStaleAfter
}

func (s TelemetrySample) LowBattery() bool { return s.BatteryPercent < LowBatteryPercent }

func (s TelemetrySample) WeakSignal() bool { return s.SignalStrength < WeakSignalLevel }
