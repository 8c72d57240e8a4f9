package distance

import (
	"math"

	"dispatch-route-service/internal/domain"
)

const earthRadiusKm = 6371.0

// Haversine measures great-circle distance between geographic coordinates.
// This is the default metric for real address data.
type Haversine struct{}

func NewHaversine() Haversine { return Haversine{} }

func (Haversine) DistanceKm(a, b domain.Coordinates) (float64, error) {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h)), nil
}
