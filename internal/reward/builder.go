package reward

import (
	"fmt"
	"net/url"
	"time"

	"backend-vintrek/internal/completion"
	"backend-vintrek/internal/recording"
	"backend-vintrek/internal/shared/geo"

	"github.com/google/uuid"
)

// CompletedTrail is the persisted record of one verified hike. It is
// created once at completion and only its verification fields change
// afterwards, when ledger confirmation arrives.
type CompletedTrail struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Description      string                `json:"description,omitempty"`
	Location         string                `json:"location"`
	Difficulty       completion.Difficulty `json:"difficulty"`
	CompletedAt      time.Time             `json:"completed_at"`
	DurationSec      float64               `json:"duration_sec"`
	DistanceM        float64               `json:"distance_m"`
	ElevationGainM   float64               `json:"elevation_gain_m"`
	Coordinates      []geo.Coordinate      `json:"coordinates"`
	Photos           []string              `json:"photos,omitempty"`
	Notes            string                `json:"notes,omitempty"`
	WalletAddress    string                `json:"wallet_address"`
	NFTMinted        bool                  `json:"nft_minted"`
	NFTTokenID       string                `json:"nft_token_id,omitempty"`
	TrekTokensEarned int                   `json:"trek_tokens_earned"`
	Verified         bool                  `json:"verified"`
}

// NewCompletedTrail builds the persisted record from a finalized
// recording and its completion result. Minting happens later, so
// NFTMinted always starts false.
func NewCompletedTrail(rec recording.Recording, result completion.Result, walletAddress, location string) CompletedTrail {
	if location == "" {
		location = "Unknown Location"
	}

	return CompletedTrail{
		ID:               uuid.NewString(),
		Name:             rec.Name,
		Description:      rec.Description,
		Location:         location,
		Difficulty:       completion.Classify(rec.TotalDistanceM, rec.ElevationGainM, rec.TotalDurationSec),
		CompletedAt:      time.Now().UTC(),
		DurationSec:      rec.TotalDurationSec,
		DistanceM:        rec.TotalDistanceM,
		ElevationGainM:   rec.ElevationGainM,
		Coordinates:      rec.Coordinates,
		WalletAddress:    walletAddress,
		TrekTokensEarned: result.TrekTokensEarned,
		Verified:         result.Completed,
	}
}

type NFTAttribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

type NFTProperties struct {
	TrailID         string  `json:"trail_id"`
	CompletionDate  string  `json:"completion_date"`
	DistanceKm      float64 `json:"distance_km"`
	DurationHours   float64 `json:"duration_hours"`
	ElevationGainM  float64 `json:"elevation_gain_m"`
	CoordinatesHash string  `json:"coordinates_hash"`
	WalletAddress   string  `json:"wallet_address"`
}

type NFTMetadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Attributes  []NFTAttribute `json:"attributes"`
	Properties  NFTProperties  `json:"properties"`
}

// BuildNFTMetadata produces the certificate document for a completed
// trail. An empty imageURL falls back to the generated placeholder.
func BuildNFTMetadata(trail CompletedTrail, imageURL string) NFTMetadata {
	if imageURL == "" {
		imageURL = trailImageURL(trail)
	}

	return NFTMetadata{
		Name: "VinTrek Trail: " + trail.Name,
		Description: fmt.Sprintf(
			"A blockchain certificate commemorating the completion of %s trail. Distance: %s, Duration: %d minutes.",
			trail.Name, completion.FormatDistance(trail.DistanceM), int(trail.DurationSec)/60),
		Image: imageURL,
		Attributes: []NFTAttribute{
			{TraitType: "Trail Name", Value: trail.Name},
			{TraitType: "Location", Value: trail.Location},
			{TraitType: "Difficulty", Value: string(trail.Difficulty)},
			{TraitType: "Distance (km)", Value: roundTo(trail.DistanceM/1000, 2)},
			{TraitType: "Duration (minutes)", Value: int(trail.DurationSec) / 60},
			{TraitType: "Elevation Gain (m)", Value: int(trail.ElevationGainM)},
			{TraitType: "Completion Date", Value: trail.CompletedAt.Format("2006-01-02")},
			{TraitType: "TREK Tokens Earned", Value: trail.TrekTokensEarned},
		},
		Properties: NFTProperties{
			TrailID:         trail.ID,
			CompletionDate:  trail.CompletedAt.Format(time.RFC3339),
			DistanceKm:      trail.DistanceM / 1000,
			DurationHours:   trail.DurationSec / 3600,
			ElevationGainM:  trail.ElevationGainM,
			CoordinatesHash: PathHash(trail.Coordinates),
			WalletAddress:   trail.WalletAddress,
		},
	}
}

// PathHash fingerprints the coordinate path with a rolling 32-bit hash
// over the stringified lat/lng list. Tamper-evidence for display only,
// not cryptographic integrity.
func PathHash(coords []geo.Coordinate) string {
	var h int32
	first := true
	for _, c := range coords {
		if !first {
			h = h*31 + int32('|')
		}
		first = false
		for _, ch := range fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng) {
			h = h*31 + int32(ch)
		}
	}
	if h < 0 {
		h = -h
	}
	return fmt.Sprintf("%x", h)
}

func trailImageURL(trail CompletedTrail) string {
	params := url.Values{}
	params.Set("name", trail.Name)
	params.Set("distance", fmt.Sprintf("%.1f", trail.DistanceM/1000))
	params.Set("difficulty", string(trail.Difficulty))
	params.Set("date", trail.CompletedAt.Format("2006-01-02"))
	return "https://api.vintrek.com/nft-image?" + params.Encode()
}

func roundTo(v float64, places int) float64 {
	scale := 1.0
	for i := 0; i < places; i++ {
		scale *= 10
	}
	return float64(int64(v*scale+0.5)) / scale
}
