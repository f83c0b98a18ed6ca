package geo

import (
	"math"

	"github.com/wingbite/trackd/internal/domain/model"
)

const (
	// DefaultPathSamples is the number of points rendered along a route.
	DefaultPathSamples = 30
	// earthRadiusKm is Earth's radius used by the Haversine formula.
	earthRadiusKm = 6371.0
)

// Position returns the point reached after covering the given fraction of the
// straight segment from start to end. Progress outside [0,1] is clamped to the
// endpoints. Missing coordinates degrade instead of failing: with no start the
// end is returned, with no end the start, and with neither the zero
// coordinate. Rendering therefore survives incomplete snapshots.
func Position(start, end *model.Coordinate, progress float64) model.Coordinate {
	switch {
	case start == nil && end == nil:
		return model.Coordinate{}
	case start == nil:
		return *end
	case end == nil:
		return *start
	}

	p := ClampProgress(progress)
	return model.Coordinate{
		Lat: start.Lat + (end.Lat-start.Lat)*p,
		Lng: start.Lng + (end.Lng-start.Lng)*p,
	}
}

// ClampProgress clamps a progress scalar to [0,1]. NaN counts as zero.
func ClampProgress(p float64) float64 {
	if math.IsNaN(p) || p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	return p
}

// SamplePath returns n equally spaced points along the segment from start to
// end, endpoints included. n below two falls back to DefaultPathSamples. The
// samples only feed the traveled/remaining path rendering; the current
// position is always computed from the continuous progress value, never
// snapped to the nearest sample.
func SamplePath(start, end *model.Coordinate, n int) []model.Coordinate {
	if n < 2 {
		n = DefaultPathSamples
	}
	path := make([]model.Coordinate, n)
	for i := 0; i < n; i++ {
		path[i] = Position(start, end, float64(i)/float64(n-1))
	}
	return path
}

// SplitPath divides sampled path points into the traveled and remaining
// portions for the given progress. The boundary point belongs to both halves
// so the two rendered polylines stay connected.
func SplitPath(path []model.Coordinate, progress float64) (traveled, remaining []model.Coordinate) {
	if len(path) == 0 {
		return nil, nil
	}
	p := ClampProgress(progress)
	boundary := int(math.Round(p * float64(len(path)-1)))
	return path[:boundary+1], path[boundary:]
}

// HaversineKm computes the great-circle distance between two coordinates in
// kilometers.
func HaversineKm(a, b model.Coordinate) float64 {
	const degToRad = math.Pi / 180

	dLat := (b.Lat - a.Lat) * degToRad
	dLng := (b.Lng - a.Lng) * degToRad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*degToRad)*math.Cos(b.Lat*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}
