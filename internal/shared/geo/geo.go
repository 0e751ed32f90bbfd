package geo

import (
	"math"
	"time"
)

const earthRadiusM = 6371000

// Coordinate is a single GPS sample. Altitude is optional; samples
// without altitude still contribute to distance but not to elevation.
type Coordinate struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	AltitudeM *float64  `json:"altitude_m,omitempty"`
	AccuracyM float64   `json:"accuracy_m,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Valid reports whether the coordinate is usable: lat/lng in range,
// a parseable timestamp and a non-negative accuracy.
func Valid(c Coordinate) bool {
	return c.Lat >= -90 && c.Lat <= 90 &&
		c.Lng >= -180 && c.Lng <= 180 &&
		c.AccuracyM >= 0 &&
		!c.Timestamp.IsZero()
}

// Distance returns the great-circle distance between two coordinates in
// meters, using the haversine formula with a mean Earth radius.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}

// TotalDistance sums Distance over consecutive pairs. Sequences shorter
// than two points have zero length.
func TotalDistance(coords []Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(coords); i++ {
		total += Distance(coords[i-1], coords[i])
	}
	return total
}

// ElevationGain sums positive altitude deltas over consecutive pairs.
// Pairs where either point lacks altitude contribute nothing.
func ElevationGain(coords []Coordinate) float64 {
	gain := 0.0
	for i := 1; i < len(coords); i++ {
		prev, curr := coords[i-1], coords[i]
		if prev.AltitudeM == nil || curr.AltitudeM == nil {
			continue
		}
		if diff := *curr.AltitudeM - *prev.AltitudeM; diff > 0 {
			gain += diff
		}
	}
	return gain
}

// ElevationLoss sums descents over consecutive pairs, as a positive number.
func ElevationLoss(coords []Coordinate) float64 {
	loss := 0.0
	for i := 1; i < len(coords); i++ {
		prev, curr := coords[i-1], coords[i]
		if prev.AltitudeM == nil || curr.AltitudeM == nil {
			continue
		}
		if diff := *prev.AltitudeM - *curr.AltitudeM; diff > 0 {
			loss += diff
		}
	}
	return loss
}

// AverageSpeed returns distance/duration in m/s, or 0 for a zero duration.
func AverageSpeed(distanceM, durationSec float64) float64 {
	if durationSec == 0 {
		return 0
	}
	return distanceM / durationSec
}

// MaxSpeed returns the fastest instantaneous speed between consecutive
// points. Pairs with a non-positive time delta are skipped.
func MaxSpeed(coords []Coordinate) float64 {
	max := 0.0
	for i := 1; i < len(coords); i++ {
		prev, curr := coords[i-1], coords[i]
		dt := curr.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt <= 0 {
			continue
		}
		if speed := Distance(prev, curr) / dt; speed > max {
			max = speed
		}
	}
	return max
}

// Smooth drops GPS outliers. The first point is always kept; each
// subsequent point is kept only if the speed from the last kept point is
// within maxSpeedMps. Comparing against the last kept point (not the
// previous raw point) means one spurious jump does not discard the real
// motion that follows it.
func Smooth(coords []Coordinate, maxSpeedMps float64) []Coordinate {
	if len(coords) < 2 {
		return coords
	}

	kept := []Coordinate{coords[0]}
	for i := 1; i < len(coords); i++ {
		last := kept[len(kept)-1]
		curr := coords[i]

		dt := curr.Timestamp.Sub(last.Timestamp).Seconds()
		if dt <= 0 {
			continue
		}
		if Distance(last, curr)/dt <= maxSpeedMps {
			kept = append(kept, curr)
		}
	}
	return kept
}
