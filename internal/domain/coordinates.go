package domain

// Coordinates is a geographic point: the depot, a delivery address, or a
// driver's reported position. Value semantics; never mutated in place.
type Coordinates struct {
	Lon float64
	Lat float64
}

// CoordsToList renders the point as [lon, lat] for JSON payloads.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }
