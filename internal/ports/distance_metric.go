package ports

import "dispatch-route-service/internal/domain"

// Contract for measuring travel distance between two points.
//
// The metric is pluggable (haversine for geographic coordinates, euclidean
// for planar test grids); stop ordering and ETA math are metric-agnostic.
type DistanceMetric interface {
	// Return the distance between two coordinates in kilometers.
	DistanceKm(a, b domain.Coordinates) (float64, error)
}
