package distance

import (
	"math"

	"dispatch-route-service/internal/domain"
)

// Euclidean treats coordinates as points on a plane where one unit is one
// kilometer. Useful for test grids and synthetic demo data, where
// great-circle math only obscures expectations.
type Euclidean struct{}

func NewEuclidean() Euclidean { return Euclidean{} }

func (Euclidean) DistanceKm(a, b domain.Coordinates) (float64, error) {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat
	return math.Sqrt(dx*dx + dy*dy), nil
}
