package distance

import (
	"errors"

	"dispatch-route-service/internal/domain"
)

// MockMetric behaves like Euclidean until told to fail, for exercising
// the optimizer's degraded fallback path.
type MockMetric struct {
	Fail bool
}

func (m *MockMetric) DistanceKm(a, b domain.Coordinates) (float64, error) {
	if m.Fail {
		return 0, errors.New("mock metric: distance unavailable")
	}
	return Euclidean{}.DistanceKm(a, b)
}
