package trails

import (
	"time"

	"backend-vintrek/internal/completion"
)

// Trail is a catalog entry hikers can discover and record against.
type Trail struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description,omitempty"`
	Location      string                `json:"location"`
	Difficulty    completion.Difficulty `json:"difficulty"`
	DistanceM     float64               `json:"distance_m"`
	DurationSec   float64               `json:"duration_sec"`
	Lat           float64               `json:"lat"`
	Lng           float64               `json:"lng"`
	ElevationM    float64               `json:"elevation_m"`
	Features      []string              `json:"features,omitempty"`
	ContributedBy string                `json:"contributed_by,omitempty"`
	Available     bool                  `json:"available"`
	CreatedAt     time.Time             `json:"created_at"`
}

// Access is one recorded visit, the free-access replacement for the
// old booking flow.
type Access struct {
	ID            string    `json:"id"`
	TrailID       string    `json:"trail_id"`
	WalletAddress string    `json:"wallet_address"`
	AccessedAt    time.Time `json:"accessed_at"`
}
