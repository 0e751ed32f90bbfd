package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-vintrek/internal/reward"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func redisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := redisStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, "k", []byte(`{"a":1}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, err := store.Get(ctx, "k")
	if err != nil || string(val) != `{"a":1}` {
		t.Fatalf("get: %q %v", val, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	base := time.Now()
	store.now = func() time.Time { return base }
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}

	base = base.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired entry must read as absent, got %v", err)
	}
}

func TestUserCacheUpsertRecomputesStats(t *testing.T) {
	c := NewUserCache(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	wallet := "addr_test1abc"

	trail := reward.CompletedTrail{ID: "t1", Name: "Ella Rock", DistanceM: 8000, DurationSec: 7200, TrekTokensEarned: 50}
	if err := c.AddCompletedTrail(ctx, wallet, trail); err != nil {
		t.Fatalf("add: %v", err)
	}

	record, err := c.Load(ctx, wallet)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if record.Stats.TotalTrails != 1 || record.Stats.TrekTokensEarned != 50 {
		t.Fatalf("stats not recomputed: %+v", record.Stats)
	}
	if record.LastSyncTimestamp == 0 {
		t.Fatalf("save must stamp sync timestamp")
	}

	// upsert by id replaces, not duplicates
	trail.TrekTokensEarned = 55
	if err := c.AddCompletedTrail(ctx, wallet, trail); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	trails, err := c.CompletedTrails(ctx, wallet)
	if err != nil {
		t.Fatalf("trails: %v", err)
	}
	if len(trails) != 1 || trails[0].TrekTokensEarned != 55 {
		t.Fatalf("expected replaced trail, got %+v", trails)
	}
}

func TestUserCacheMarkVerified(t *testing.T) {
	c := NewUserCache(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	wallet := "addr_test1abc"

	if err := c.AddCompletedTrail(ctx, wallet, reward.CompletedTrail{ID: "t1", Name: "A"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := c.MarkVerified(ctx, wallet, "t1", "txhash123"); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	trails, _ := c.CompletedTrails(ctx, wallet)
	if !trails[0].Verified {
		t.Fatalf("trail not verified")
	}

	if err := c.MarkVerified(ctx, wallet, "unknown", "tx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown trail, got %v", err)
	}
}

func TestUserCacheStaleRecordReadsAsAbsent(t *testing.T) {
	store := NewMemoryStore()
	c := NewUserCache(store, time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }
	ctx := context.Background()
	wallet := "addr_test1abc"

	if err := c.AddCompletedTrail(ctx, wallet, reward.CompletedTrail{ID: "t1"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := c.Load(ctx, wallet); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale record must read as absent, got %v", err)
	}
	trails, err := c.CompletedTrails(ctx, wallet)
	if err != nil || trails != nil {
		t.Fatalf("stale history reads empty, got %v %v", trails, err)
	}
}

func TestUserCachePreferences(t *testing.T) {
	c := NewUserCache(redisStore(t), time.Minute)
	ctx := context.Background()
	wallet := "addr_test1abc"

	prefs, err := c.Preferences(ctx, wallet)
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if prefs.PreferredUnits != "metric" {
		t.Fatalf("expected metric default, got %+v", prefs)
	}

	prefs.PreferredUnits = "imperial"
	prefs.MapStyle = "satellite"
	if err := c.UpdatePreferences(ctx, wallet, prefs); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := c.Preferences(ctx, wallet)
	if err != nil || got.PreferredUnits != "imperial" || got.MapStyle != "satellite" {
		t.Fatalf("preferences not persisted: %+v %v", got, err)
	}
}

func TestUserCacheClear(t *testing.T) {
	c := NewUserCache(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	wallet := "addr_test1abc"

	if err := c.AddCompletedTrail(ctx, wallet, reward.CompletedTrail{ID: "t1"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.Clear(ctx, wallet); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := c.Load(ctx, wallet); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cleared cache, got %v", err)
	}
}
