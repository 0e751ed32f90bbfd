package stats

import (
	"backend-vintrek/internal/completion"
	"backend-vintrek/internal/reward"
)

// UserStats is a pure aggregate of a wallet's completed trails. It is
// recomputed on read, never stored as a source of truth.
type UserStats struct {
	TotalTrails        int           `json:"total_trails"`
	TotalDistanceM     float64       `json:"total_distance_m"`
	TotalDurationSec   float64       `json:"total_duration_sec"`
	TotalElevationGain float64       `json:"total_elevation_gain_m"`
	TrekTokensEarned   int           `json:"trek_tokens_earned"`
	NFTsMinted         int           `json:"nfts_minted"`
	FavoriteTrail      string        `json:"favorite_trail,omitempty"`
	LongestTrail       string        `json:"longest_trail,omitempty"`
	Achievements       []Achievement `json:"achievements"`
}

type Achievement struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Compute aggregates the trail collection into UserStats, including the
// threshold-based achievement list.
func Compute(trails []reward.CompletedTrail) UserStats {
	stats := UserStats{
		TotalTrails:  len(trails),
		Achievements: []Achievement{},
	}

	counts := map[string]int{}
	var longestDistance float64
	hasExpert := false

	for _, trail := range trails {
		stats.TotalDistanceM += trail.DistanceM
		stats.TotalDurationSec += trail.DurationSec
		stats.TotalElevationGain += trail.ElevationGainM
		stats.TrekTokensEarned += trail.TrekTokensEarned
		if trail.NFTMinted {
			stats.NFTsMinted++
		}
		if trail.Difficulty == completion.Expert {
			hasExpert = true
		}

		counts[trail.Name]++
		if trail.DistanceM > longestDistance {
			longestDistance = trail.DistanceM
			stats.LongestTrail = trail.Name
		}
	}

	best := 0
	for name, n := range counts {
		if n > best || (n == best && name < stats.FavoriteTrail) {
			best = n
			stats.FavoriteTrail = name
		}
	}

	stats.Achievements = achievements(stats, hasExpert)
	return stats
}

func achievements(stats UserStats, hasExpert bool) []Achievement {
	earned := []Achievement{}

	if stats.TotalDistanceM >= 100000 {
		earned = append(earned, Achievement{ID: "distance_100k", Name: "100km Explorer", Category: "distance"})
	}
	if stats.TotalDistanceM >= 50000 {
		earned = append(earned, Achievement{ID: "distance_50k", Name: "50km Adventurer", Category: "distance"})
	}
	if stats.TotalDistanceM >= 10000 {
		earned = append(earned, Achievement{ID: "distance_10k", Name: "10km Hiker", Category: "distance"})
	}

	if stats.TotalTrails >= 50 {
		earned = append(earned, Achievement{ID: "trails_50", Name: "Trail Master", Category: "trails"})
	}
	if stats.TotalTrails >= 20 {
		earned = append(earned, Achievement{ID: "trails_20", Name: "Trail Enthusiast", Category: "trails"})
	}
	if stats.TotalTrails >= 5 {
		earned = append(earned, Achievement{ID: "trails_5", Name: "Trail Explorer", Category: "trails"})
	}

	if hasExpert {
		earned = append(earned, Achievement{ID: "expert_trail", Name: "Expert Climber", Category: "special"})
	}
	if stats.NFTsMinted >= 10 {
		earned = append(earned, Achievement{ID: "nft_collector", Name: "NFT Collector", Category: "special"})
	}

	return earned
}
