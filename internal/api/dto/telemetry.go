package dto

import "time"

type IngestTelemetryRequest struct {
	DriverID       string     `json:"driver_id"`
	Lon            float64    `json:"lon"`
	Lat            float64    `json:"lat"`
	SpeedKPH       float64    `json:"speed_kph"`
	HeadingDegrees float64    `json:"heading"`
	BatteryPercent float64    `json:"battery"`
	SignalStrength int        `json:"signal"`
	Timestamp      *time.Time `json:"timestamp"`
}

type TelemetryResponse struct {
	DriverID       string    `json:"driver_id"`
	Lon            float64   `json:"lon"`
	Lat            float64   `json:"lat"`
	SpeedKPH       float64   `json:"speed_kph"`
	HeadingDegrees float64   `json:"heading"`
	BatteryPercent float64   `json:"battery"`
	SignalStrength int       `json:"signal"`
	Timestamp      time.Time `json:"timestamp"`
	Stale          bool      `json:"stale"`
}
