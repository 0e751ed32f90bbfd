package completion

import (
	"fmt"
	"math"
)

type Difficulty string

const (
	Easy     Difficulty = "Easy"
	Moderate Difficulty = "Moderate"
	Hard     Difficulty = "Hard"
	Expert   Difficulty = "Expert"
)

// Criteria are the thresholds a finalized recording must meet. Zero
// fields fall back to the defaults.
type Criteria struct {
	MinimumDistanceM   float64 `json:"minimum_distance_m"`
	MinimumDurationSec float64 `json:"minimum_duration_sec"`
	MinimumPoints      int     `json:"minimum_points"`
}

const (
	defaultMinDistanceM   = 500
	defaultMinDurationSec = 300
	defaultMinPoints      = 10

	nftMinDistanceM   = 1000
	nftMinDurationSec = 600

	baseTokens        = 10
	tokensPerKm       = 5
	tokensPer100mGain = 2
)

func DefaultCriteria() Criteria {
	return Criteria{
		MinimumDistanceM:   defaultMinDistanceM,
		MinimumDurationSec: defaultMinDurationSec,
		MinimumPoints:      defaultMinPoints,
	}
}

func (c Criteria) withDefaults() Criteria {
	if c.MinimumDistanceM == 0 {
		c.MinimumDistanceM = defaultMinDistanceM
	}
	if c.MinimumDurationSec == 0 {
		c.MinimumDurationSec = defaultMinDurationSec
	}
	if c.MinimumPoints == 0 {
		c.MinimumPoints = defaultMinPoints
	}
	return c
}

type Result struct {
	Completed            bool     `json:"completed"`
	DistanceM            float64  `json:"distance_m"`
	DurationSec          float64  `json:"duration_sec"`
	ElevationGainM       float64  `json:"elevation_gain_m"`
	TrekTokensEarned     int      `json:"trek_tokens_earned"`
	NFTEligible          bool     `json:"nft_eligible"`
	CompletionPercentage float64  `json:"completion_percentage"`
	Reasons              []string `json:"reasons,omitempty"`
}

// Metrics are the finalized figures of one trail recording, decoupled
// from how the recording was captured.
type Metrics struct {
	DistanceM      float64
	DurationSec    float64
	ElevationGainM float64
	Points         int
	Active         bool
}

// Verify decides pass/fail for a recording. All checks run so every
// missed threshold is reported, not just the first one.
func Verify(m Metrics, criteria Criteria) Result {
	criteria = criteria.withDefaults()

	var reasons []string
	if m.DistanceM < criteria.MinimumDistanceM {
		reasons = append(reasons, fmt.Sprintf("Minimum distance not met (%s < %s)",
			FormatDistance(m.DistanceM), FormatDistance(criteria.MinimumDistanceM)))
	}
	if m.DurationSec < criteria.MinimumDurationSec {
		reasons = append(reasons, fmt.Sprintf("Minimum duration not met (%dmin < %dmin)",
			int(m.DurationSec)/60, int(criteria.MinimumDurationSec)/60))
	}
	if m.Active {
		reasons = append(reasons, "Trail recording is still active")
	}
	if m.Points < criteria.MinimumPoints {
		reasons = append(reasons, "Insufficient GPS tracking data")
	}

	completed := len(reasons) == 0

	distancePct := math.Min(100, m.DistanceM/criteria.MinimumDistanceM*100)
	durationPct := math.Min(100, m.DurationSec/criteria.MinimumDurationSec*100)

	result := Result{
		Completed:            completed,
		DistanceM:            m.DistanceM,
		DurationSec:          m.DurationSec,
		ElevationGainM:       m.ElevationGainM,
		CompletionPercentage: math.Min(distancePct, durationPct),
		Reasons:              reasons,
	}

	if completed {
		result.TrekTokensEarned = Reward(m.DistanceM, m.ElevationGainM)
	}
	result.NFTEligible = completed &&
		m.DistanceM >= nftMinDistanceM &&
		m.DurationSec >= nftMinDurationSec

	return result
}

// Reward is the TREK token formula: a base amount plus distance and
// elevation bonuses.
func Reward(distanceM, elevationGainM float64) int {
	return baseTokens +
		tokensPerKm*int(math.Floor(distanceM/1000)) +
		tokensPer100mGain*int(math.Floor(elevationGainM/100))
}

// Classify maps trail metrics to a difficulty band with an additive
// score: longer, steeper and slower trails score higher.
func Classify(distanceM, elevationGainM, durationSec float64) Difficulty {
	distanceKm := distanceM / 1000
	durationHours := durationSec / 3600

	score := 0
	switch {
	case distanceKm > 20:
		score += 3
	case distanceKm > 10:
		score += 2
	case distanceKm > 5:
		score += 1
	}

	switch {
	case elevationGainM > 1000:
		score += 3
	case elevationGainM > 500:
		score += 2
	case elevationGainM > 200:
		score += 1
	}

	if durationHours > 0 {
		pace := distanceKm / durationHours
		if pace < 2 {
			score += 2
		} else if pace < 3 {
			score += 1
		}
	}

	switch {
	case score >= 6:
		return Expert
	case score >= 4:
		return Hard
	case score >= 2:
		return Moderate
	default:
		return Easy
	}
}

// FormatDistance renders meters for user-facing text, switching to
// kilometers from 1 km up.
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.2f km", meters/1000)
	}
	return fmt.Sprintf("%.0f m", meters)
}
