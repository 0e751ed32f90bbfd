package hybrid

import (
	"context"
	"errors"
	"sync"
	"time"

	"backend-vintrek/internal/cache"
	"backend-vintrek/internal/completion"
	"backend-vintrek/internal/ledger"
	"backend-vintrek/internal/recording"
	"backend-vintrek/internal/reward"
	"backend-vintrek/internal/shared/geo"

	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
)

var (
	ErrMissingWallet  = errors.New("wallet address required")
	ErrSyncInProgress = errors.New("sync already in progress")
)

// Ledger is the slice of the chain client the coordinator needs.
type Ledger interface {
	StoreCompletion(ctx context.Context, trailID, trailName, hikerAddress string,
		distanceM, durationSec float64, difficulty string, path []geo.Coordinate, tokens int, nftMinted bool) (string, error)
	RecordReward(ctx context.Context, hikerAddress, trailID, rewardType string, amount int) (string, error)
	CompletionHistory(ctx context.Context, hikerAddress string) ([]ledger.HistoryEntry, error)
}

// Outcome reports how far a completion got through the two tiers. The
// local cache write is the source of truth for "did this happen"; the
// transaction hash is the source of truth for "can it be proven".
type Outcome struct {
	Success           bool   `json:"success"`
	BlockchainTxHash  string `json:"blockchain_tx_hash,omitempty"`
	LocalCacheUpdated bool   `json:"local_cache_updated"`
	Error             string `json:"error,omitempty"`
}

// Coordinator implements the local-first completion flow: cache write
// first, ledger proof best-effort, reconciliation on demand.
type Coordinator struct {
	ledger Ledger
	users  *cache.UserCache
	log    *logrus.Entry

	mu       sync.Mutex
	status   Status
	inFlight bool
}

func NewCoordinator(chain Ledger, users *cache.UserCache, log *logrus.Entry) *Coordinator {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Coordinator{ledger: chain, users: users, log: log, status: StatusIdle}
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// CompleteTrail persists the trail locally, then attempts the on-chain
// proof. A ledger failure never rolls back the local write: the outcome
// still reports success with an empty transaction hash.
func (c *Coordinator) CompleteTrail(ctx context.Context, walletAddress string,
	rec recording.Recording, result completion.Result, location string) (Outcome, reward.CompletedTrail, error) {

	if walletAddress == "" {
		return Outcome{}, reward.CompletedTrail{}, ErrMissingWallet
	}
	if !c.begin() {
		return Outcome{}, reward.CompletedTrail{}, ErrSyncInProgress
	}
	defer c.end()

	trail := reward.NewCompletedTrail(rec, result, walletAddress, location)

	// local cache first: completion must survive a ledger outage
	trail.Verified = false
	if err := c.users.AddCompletedTrail(ctx, walletAddress, trail); err != nil {
		c.setStatus(StatusError)
		return Outcome{Success: false, Error: err.Error()}, trail, nil
	}

	outcome := Outcome{Success: true, LocalCacheUpdated: true}

	txHash, err := c.ledger.StoreCompletion(ctx, trail.ID, trail.Name, walletAddress,
		trail.DistanceM, trail.DurationSec, string(trail.Difficulty), trail.Coordinates,
		trail.TrekTokensEarned, trail.NFTMinted)
	if err != nil {
		c.log.WithError(err).Warn("ledger proof failed, keeping local copy")
		c.setStatus(StatusError)
		return outcome, trail, nil
	}

	outcome.BlockchainTxHash = txHash
	trail.Verified = true
	if err := c.users.MarkVerified(ctx, walletAddress, trail.ID, txHash); err != nil {
		c.log.WithError(err).Warn("failed to mark cached trail verified")
	}

	if trail.TrekTokensEarned > 0 {
		if _, err := c.ledger.RecordReward(ctx, walletAddress, trail.ID, "completion", trail.TrekTokensEarned); err != nil {
			c.log.WithError(err).Warn("reward recording failed")
		}
	}

	c.setStatus(StatusSynced)
	return outcome, trail, nil
}

// SyncWithBlockchain re-pulls the wallet's full proof history and
// merges every entry into the cache as verified. Recovery path for a
// cleared or stale cache.
func (c *Coordinator) SyncWithBlockchain(ctx context.Context, walletAddress string) (Outcome, error) {
	if walletAddress == "" {
		return Outcome{}, ErrMissingWallet
	}
	if !c.begin() {
		return Outcome{}, ErrSyncInProgress
	}
	defer c.end()

	entries, err := c.ledger.CompletionHistory(ctx, walletAddress)
	if err != nil {
		c.setStatus(StatusError)
		return Outcome{Success: false, Error: err.Error()}, nil
	}

	for _, entry := range entries {
		trail := trailFromProof(entry, walletAddress)
		if err := c.users.AddCompletedTrail(ctx, walletAddress, trail); err != nil {
			c.setStatus(StatusError)
			return Outcome{Success: false, Error: err.Error()}, nil
		}
	}

	c.setStatus(StatusSynced)
	return Outcome{Success: true, LocalCacheUpdated: true}, nil
}

// History is cache-first: a warm cache answers immediately, a cold one
// falls back to the ledger and repopulates.
func (c *Coordinator) History(ctx context.Context, walletAddress string) ([]reward.CompletedTrail, error) {
	if walletAddress == "" {
		return nil, ErrMissingWallet
	}

	trails, err := c.users.CompletedTrails(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	if len(trails) > 0 {
		return trails, nil
	}

	entries, err := c.ledger.CompletionHistory(ctx, walletAddress)
	if err != nil {
		// offline: an empty cache is still an answer
		c.log.WithError(err).Warn("ledger history unavailable")
		return trails, nil
	}

	fetched := make([]reward.CompletedTrail, 0, len(entries))
	for _, entry := range entries {
		trail := trailFromProof(entry, walletAddress)
		fetched = append(fetched, trail)
		if err := c.users.AddCompletedTrail(ctx, walletAddress, trail); err != nil {
			c.log.WithError(err).Warn("failed to cache fetched trail")
		}
	}
	return fetched, nil
}

func (c *Coordinator) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return false
	}
	c.inFlight = true
	c.status = StatusSyncing
	return true
}

func (c *Coordinator) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if c.status == StatusSyncing {
		c.status = StatusIdle
	}
}

func (c *Coordinator) setStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}

// trailFromProof rebuilds a cacheable trail from an on-chain entry.
// Anything read back from the ledger is verified by definition.
func trailFromProof(entry ledger.HistoryEntry, walletAddress string) reward.CompletedTrail {
	coords := make([]geo.Coordinate, 0, len(entry.Proof.GPSCheckpoints))
	for _, cp := range entry.Proof.GPSCheckpoints {
		ts, err := time.Parse(time.RFC3339, cp.Timestamp)
		if err != nil {
			ts = time.Time{}
		}
		coords = append(coords, geo.Coordinate{Lat: cp.Lat, Lng: cp.Lng, Timestamp: ts})
	}

	completedAt, err := time.Parse(time.RFC3339, entry.Proof.CompletionTimestamp)
	if err != nil {
		completedAt = time.Time{}
	}

	return reward.CompletedTrail{
		ID:               entry.Proof.TrailID,
		Name:             entry.Proof.TrailName,
		Location:         "Unknown Location",
		Difficulty:       completion.Difficulty(entry.Proof.Difficulty),
		CompletedAt:      completedAt,
		DurationSec:      entry.Proof.DurationSeconds,
		DistanceM:        entry.Proof.DistanceMeters,
		Coordinates:      coords,
		WalletAddress:    walletAddress,
		NFTMinted:        entry.Proof.NFTMinted,
		TrekTokensEarned: entry.Proof.TrekTokensEarned,
		Notes:            "tx:" + entry.TxHash,
		Verified:         true,
	}
}
