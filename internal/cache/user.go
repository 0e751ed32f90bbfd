package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend-vintrek/internal/reward"
	"backend-vintrek/internal/stats"
)

const userKeyPrefix = "vintrek:user:"

// Record is the per-wallet cache blob, read and written whole. Last
// write wins; there is no field-level locking across writers.
type Record struct {
	WalletAddress     string                  `json:"wallet_address"`
	CompletedTrails   []reward.CompletedTrail `json:"completed_trails"`
	Stats             stats.UserStats         `json:"stats"`
	Preferences       Preferences             `json:"preferences"`
	LastSyncTimestamp int64                   `json:"last_sync_timestamp"`
}

type Preferences struct {
	PreferredUnits string `json:"preferred_units"`
	MapStyle       string `json:"map_style"`
	Notifications  struct {
		TrailReminders bool `json:"trail_reminders"`
		Achievements   bool `json:"achievements"`
		TokenRewards   bool `json:"token_rewards"`
	} `json:"notifications"`
	Privacy struct {
		ShareStats        bool `json:"share_stats"`
		ShowOnLeaderboard bool `json:"show_on_leaderboard"`
	} `json:"privacy"`
}

func DefaultPreferences() Preferences {
	prefs := Preferences{PreferredUnits: "metric", MapStyle: "terrain"}
	prefs.Notifications.TrailReminders = true
	prefs.Notifications.Achievements = true
	prefs.Notifications.TokenRewards = true
	return prefs
}

// UserCache keeps each wallet's trail history close at hand. It is the
// fast local half of the hybrid scheme: writes land here first, ledger
// confirmation catches up later.
type UserCache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewUserCache(store Store, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserCache{store: store, ttl: ttl, now: time.Now}
}

// Load returns the wallet's cache record. Records older than the TTL
// are treated as absent so callers re-fetch from the ledger.
func (c *UserCache) Load(ctx context.Context, walletAddress string) (Record, error) {
	raw, err := c.store.Get(ctx, userKeyPrefix+walletAddress)
	if err != nil {
		return Record{}, err
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Record{}, err
	}
	if c.expired(record.LastSyncTimestamp) {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// Save stamps the sync timestamp and writes the whole record.
func (c *UserCache) Save(ctx context.Context, record Record) error {
	record.LastSyncTimestamp = c.now().UnixMilli()
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, userKeyPrefix+record.WalletAddress, raw, c.ttl)
}

// AddCompletedTrail upserts one trail by id and recomputes the wallet's
// aggregate stats from the full collection.
func (c *UserCache) AddCompletedTrail(ctx context.Context, walletAddress string, trail reward.CompletedTrail) error {
	record, err := c.loadOrEmpty(ctx, walletAddress)
	if err != nil {
		return err
	}

	replaced := false
	for i := range record.CompletedTrails {
		if record.CompletedTrails[i].ID == trail.ID {
			record.CompletedTrails[i] = trail
			replaced = true
			break
		}
	}
	if !replaced {
		record.CompletedTrails = append(record.CompletedTrails, trail)
	}

	record.Stats = stats.Compute(record.CompletedTrails)
	return c.Save(ctx, record)
}

func (c *UserCache) CompletedTrails(ctx context.Context, walletAddress string) ([]reward.CompletedTrail, error) {
	record, err := c.Load(ctx, walletAddress)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record.CompletedTrails, nil
}

// MarkVerified flips a cached trail to verified once its ledger proof
// confirms, recording the transaction reference.
func (c *UserCache) MarkVerified(ctx context.Context, walletAddress, trailID, txHash string) error {
	record, err := c.Load(ctx, walletAddress)
	if err != nil {
		return err
	}

	for i := range record.CompletedTrails {
		if record.CompletedTrails[i].ID == trailID {
			record.CompletedTrails[i].Verified = true
			if txHash != "" {
				record.CompletedTrails[i].Notes = appendNote(record.CompletedTrails[i].Notes, "tx:"+txHash)
			}
			return c.Save(ctx, record)
		}
	}
	return ErrNotFound
}

func (c *UserCache) Preferences(ctx context.Context, walletAddress string) (Preferences, error) {
	record, err := c.Load(ctx, walletAddress)
	if errors.Is(err, ErrNotFound) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return Preferences{}, err
	}
	return record.Preferences, nil
}

func (c *UserCache) UpdatePreferences(ctx context.Context, walletAddress string, prefs Preferences) error {
	record, err := c.loadOrEmpty(ctx, walletAddress)
	if err != nil {
		return err
	}
	record.Preferences = prefs
	return c.Save(ctx, record)
}

func (c *UserCache) Stats(ctx context.Context, walletAddress string) (stats.UserStats, error) {
	record, err := c.Load(ctx, walletAddress)
	if errors.Is(err, ErrNotFound) {
		return stats.Compute(nil), nil
	}
	if err != nil {
		return stats.UserStats{}, err
	}
	return record.Stats, nil
}

func (c *UserCache) Clear(ctx context.Context, walletAddress string) error {
	return c.store.Delete(ctx, userKeyPrefix+walletAddress)
}

func (c *UserCache) loadOrEmpty(ctx context.Context, walletAddress string) (Record, error) {
	record, err := c.Load(ctx, walletAddress)
	if errors.Is(err, ErrNotFound) {
		return Record{
			WalletAddress:   walletAddress,
			CompletedTrails: []reward.CompletedTrail{},
			Stats:           stats.Compute(nil),
			Preferences:     DefaultPreferences(),
		}, nil
	}
	return record, err
}

func (c *UserCache) expired(lastSyncMilli int64) bool {
	if lastSyncMilli == 0 {
		return false
	}
	return c.now().Sub(time.UnixMilli(lastSyncMilli)) > c.ttl
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}
