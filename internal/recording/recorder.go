package recording

import (
	"errors"
	"sync"
	"time"

	"backend-vintrek/internal/shared/geo"

	"github.com/google/uuid"
)

var (
	ErrAlreadyActive     = errors.New("a recording is already active")
	ErrNotActive         = errors.New("no active recording")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

type Options struct {
	// MinPointGapM drops samples closer than this to the last accepted
	// point. A noise filter, not data loss.
	MinPointGapM         float64
	SmoothingEnabled     bool
	SmoothingMaxSpeedMps float64
	Now                  func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MinPointGapM == 0 {
		o.MinPointGapM = 5
	}
	if o.SmoothingMaxSpeedMps == 0 {
		o.SmoothingMaxSpeedMps = 20
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Recorder owns at most one active Recording. State machine:
// idle → recording ⇄ paused → stopped (back to idle).
type Recorder struct {
	opts Options

	mu           sync.Mutex
	rec          *Recording
	lastAccepted *geo.Coordinate
	startedAt    time.Time
	pausedAt     time.Time
	pausedTotal  time.Duration
}

func NewRecorder(opts Options) *Recorder {
	return &Recorder{opts: opts.withDefaults()}
}

func (r *Recorder) Start(name, description string) (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec != nil {
		return Recording{}, ErrAlreadyActive
	}

	now := r.opts.Now()
	r.rec = &Recording{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		StartTime:   now,
		Coordinates: []geo.Coordinate{},
		IsActive:    true,
	}
	r.startedAt = now
	r.pausedTotal = 0
	r.pausedAt = time.Time{}
	r.lastAccepted = nil

	return *r.rec, nil
}

// AddPoint feeds one GPS sample. Samples arriving while idle or paused are
// ignored (late callbacks after Stop are expected), samples below the
// minimum gap are dropped, and out-of-range coordinates are rejected.
func (r *Recorder) AddPoint(c geo.Coordinate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil || !r.rec.IsActive || r.rec.IsPaused {
		return false, nil
	}
	if !geo.Valid(c) {
		return false, ErrInvalidCoordinate
	}
	if r.lastAccepted != nil && geo.Distance(*r.lastAccepted, c) < r.opts.MinPointGapM {
		return false, nil
	}

	r.rec.Coordinates = append(r.rec.Coordinates, c)
	r.lastAccepted = &r.rec.Coordinates[len(r.rec.Coordinates)-1]
	r.recalcStatsLocked()
	return true, nil
}

func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil || !r.rec.IsActive {
		return ErrNotActive
	}
	if r.rec.IsPaused {
		return nil
	}
	r.rec.IsPaused = true
	r.pausedAt = r.opts.Now()
	return nil
}

func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil || !r.rec.IsActive {
		return ErrNotActive
	}
	if !r.rec.IsPaused {
		return nil
	}
	r.rec.IsPaused = false
	r.pausedTotal += r.opts.Now().Sub(r.pausedAt)
	r.pausedAt = time.Time{}
	return nil
}

// Stop finalizes and returns the Recording, optionally smoothing the
// coordinate path, then clears live state for the next session.
func (r *Recorder) Stop() (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil || !r.rec.IsActive {
		return Recording{}, ErrNotActive
	}

	now := r.opts.Now()
	if r.rec.IsPaused {
		r.pausedTotal += now.Sub(r.pausedAt)
		r.rec.IsPaused = false
	}

	r.rec.EndTime = now
	r.rec.IsActive = false
	r.rec.TotalDurationSec = r.activeDurationLocked(now)
	r.rec.AverageSpeedMps = geo.AverageSpeed(r.rec.TotalDistanceM, r.rec.TotalDurationSec)
	if r.opts.SmoothingEnabled {
		r.rec.Coordinates = geo.Smooth(r.rec.Coordinates, r.opts.SmoothingMaxSpeedMps)
	}

	final := *r.rec
	r.rec = nil
	r.lastAccepted = nil
	r.pausedTotal = 0
	return final, nil
}

// Snapshot returns a copy of the live Recording, if one is active.
func (r *Recorder) Snapshot() (Recording, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rec == nil {
		return Recording{}, false
	}
	snap := *r.rec
	snap.Coordinates = append([]geo.Coordinate(nil), r.rec.Coordinates...)
	return snap, true
}

func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec != nil && r.rec.IsActive
}

// CurrentStats reports live distance, duration and speeds without
// mutating recorder state.
func (r *Recorder) CurrentStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil {
		return Stats{}
	}

	stats := Stats{
		DistanceM:       r.rec.TotalDistanceM,
		DurationSec:     r.activeDurationLocked(r.opts.Now()),
		AverageSpeedMps: r.rec.AverageSpeedMps,
	}

	coords := r.rec.Coordinates
	if len(coords) >= 2 {
		last, prev := coords[len(coords)-1], coords[len(coords)-2]
		if dt := last.Timestamp.Sub(prev.Timestamp).Seconds(); dt > 0 {
			stats.CurrentSpeedMps = geo.Distance(prev, last) / dt
		}
	}
	return stats
}

func (r *Recorder) recalcStatsLocked() {
	now := r.opts.Now()
	coords := r.rec.Coordinates

	r.rec.TotalDistanceM = geo.TotalDistance(coords)
	r.rec.TotalDurationSec = r.activeDurationLocked(now)
	r.rec.AverageSpeedMps = geo.AverageSpeed(r.rec.TotalDistanceM, r.rec.TotalDurationSec)
	r.rec.MaxSpeedMps = geo.MaxSpeed(coords)
	r.rec.ElevationGainM = geo.ElevationGain(coords)
	r.rec.ElevationLossM = geo.ElevationLoss(coords)
}

// activeDurationLocked is wall-clock elapsed minus accumulated paused time.
func (r *Recorder) activeDurationLocked(now time.Time) float64 {
	elapsed := now.Sub(r.startedAt) - r.pausedTotal
	if r.rec != nil && r.rec.IsPaused {
		elapsed -= now.Sub(r.pausedAt)
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed.Seconds()
}
