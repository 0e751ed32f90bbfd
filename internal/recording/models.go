package recording

import (
	"time"

	"backend-vintrek/internal/shared/geo"
)

// Recording is the live aggregate for one tracking session. It is mutated
// by accepted GPS samples until Stop finalizes it.
type Recording struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time,omitempty"`

	Coordinates []geo.Coordinate `json:"coordinates"`

	IsActive bool `json:"is_active"`
	IsPaused bool `json:"is_paused"`

	TotalDistanceM   float64 `json:"total_distance_m"`
	TotalDurationSec float64 `json:"total_duration_sec"`
	AverageSpeedMps  float64 `json:"average_speed_mps"`
	MaxSpeedMps      float64 `json:"max_speed_mps"`
	ElevationGainM   float64 `json:"elevation_gain_m"`
	ElevationLossM   float64 `json:"elevation_loss_m"`
}

// Stats is a read-only snapshot for live UI feedback.
type Stats struct {
	DistanceM       float64 `json:"distance_m"`
	DurationSec     float64 `json:"duration_sec"`
	AverageSpeedMps float64 `json:"average_speed_mps"`
	CurrentSpeedMps float64 `json:"current_speed_mps"`
}
