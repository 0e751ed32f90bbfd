package gps

import (
	"context"
	"errors"
	"sync"
	"time"

	"backend-vintrek/internal/shared/geo"

	"github.com/sirupsen/logrus"
)

// ErrorCode classifies platform location failures.
type ErrorCode string

const (
	CodePermissionDenied    ErrorCode = "permission_denied"
	CodePositionUnavailable ErrorCode = "position_unavailable"
	CodeTimeout             ErrorCode = "timeout"
	CodeUnknown             ErrorCode = "unknown"
)

type PositionError struct {
	Code    ErrorCode
	Message string
}

func (e *PositionError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// ErrWatchUnsupported is returned by providers that cannot push continuous
// updates. The sampler falls back to single-shot polling on a timer.
var ErrWatchUnsupported = errors.New("continuous position watch unsupported")

// Provider bridges a platform location service. Watch delivers updates on
// the provider's own schedule until the returned stop function is called.
type Provider interface {
	CurrentPosition(ctx context.Context) (geo.Coordinate, error)
	Watch(onUpdate func(geo.Coordinate), onError func(error)) (stop func(), err error)
}

type Options struct {
	OnPosition     func(geo.Coordinate)
	OnError        func(PositionError)
	PollInterval   time.Duration // fallback polling cadence
	RequestTimeout time.Duration
	Logger         *logrus.Entry
}

// Sampler normalizes a Provider's output into Coordinates. Pausing only
// flags the stream for consumers; sampling continues so the current
// position stays visible.
type Sampler struct {
	provider Provider
	opts     Options

	mu            sync.Mutex
	running       bool
	paused        bool
	hasPermission bool
	current       *geo.Coordinate
	lastErr       *PositionError
	stopWatch     func()
	pollDone      chan struct{}
}

func NewSampler(provider Provider, opts Options) *Sampler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.New())
	}
	return &Sampler{provider: provider, opts: opts}
}

// RequestPermission attempts a single position fetch. Denial is state, not
// an error: callers branch on the returned bool and read LastError.
func (s *Sampler) RequestPermission(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	pos, err := s.provider.CurrentPosition(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.hasPermission = false
		s.lastErr = classify(err)
		s.opts.Logger.WithField("code", s.lastErr.Code).Warn("location permission check failed")
		return false
	}

	s.hasPermission = true
	s.lastErr = nil
	s.current = &pos
	return true
}

// Start begins continuous updates. Returns false when permission is denied
// or the sampler is already running.
func (s *Sampler) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	if !s.RequestPermission(ctx) {
		return false
	}

	stop, err := s.provider.Watch(s.handleUpdate, s.handleError)
	if err != nil {
		if !errors.Is(err, ErrWatchUnsupported) {
			s.mu.Lock()
			s.lastErr = classify(err)
			s.mu.Unlock()
			return false
		}
		s.opts.Logger.Info("watch unsupported, polling single-shot positions")
		stop = s.startPolling()
	}

	s.mu.Lock()
	s.running = true
	s.paused = false
	s.stopWatch = stop
	s.mu.Unlock()
	return true
}

// Stop cancels updates. Safe to call repeatedly.
func (s *Sampler) Stop() {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.running = false
	s.paused = false
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (s *Sampler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.paused = true
	}
}

func (s *Sampler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.paused = false
	}
}

func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sampler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Current returns the most recent position, if any has been observed.
func (s *Sampler) Current() (geo.Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return geo.Coordinate{}, false
	}
	return *s.current, true
}

func (s *Sampler) LastError() *PositionError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Sampler) handleUpdate(pos geo.Coordinate) {
	s.mu.Lock()
	s.current = &pos
	s.lastErr = nil
	cb := s.opts.OnPosition
	s.mu.Unlock()

	if cb != nil {
		cb(pos)
	}
}

func (s *Sampler) handleError(err error) {
	perr := classify(err)
	s.mu.Lock()
	s.lastErr = perr
	cb := s.opts.OnError
	s.mu.Unlock()

	s.opts.Logger.WithField("code", perr.Code).Warn("position update failed")
	if cb != nil {
		cb(*perr)
	}
}

func (s *Sampler) startPolling() func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.opts.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.opts.RequestTimeout)
				pos, err := s.provider.CurrentPosition(ctx)
				cancel()
				if err != nil {
					s.handleError(err)
					continue
				}
				s.handleUpdate(pos)
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func classify(err error) *PositionError {
	var perr *PositionError
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &PositionError{Code: CodeTimeout, Message: "location request timed out"}
	}
	return &PositionError{Code: CodeUnknown, Message: err.Error()}
}
