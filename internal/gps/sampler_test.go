package gps

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"backend-vintrek/internal/shared/geo"
)

type fakeProvider struct {
	mu          sync.Mutex
	currentErr  error
	watchErr    error
	onUpdate    func(geo.Coordinate)
	onError     func(error)
	stopped     bool
	currentCall int
}

func (p *fakeProvider) CurrentPosition(_ context.Context) (geo.Coordinate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentCall++
	if p.currentErr != nil {
		return geo.Coordinate{}, p.currentErr
	}
	return geo.Coordinate{Lat: 6.9, Lng: 79.8, Timestamp: time.Now()}, nil
}

func (p *fakeProvider) Watch(onUpdate func(geo.Coordinate), onError func(error)) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watchErr != nil {
		return nil, p.watchErr
	}
	p.onUpdate = onUpdate
	p.onError = onError
	return func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
	}, nil
}

func (p *fakeProvider) push(c geo.Coordinate) {
	p.mu.Lock()
	cb := p.onUpdate
	p.mu.Unlock()
	if cb != nil {
		cb(c)
	}
}

func TestRequestPermissionDenied(t *testing.T) {
	provider := &fakeProvider{currentErr: &PositionError{Code: CodePermissionDenied, Message: "denied"}}
	sampler := NewSampler(provider, Options{})

	if sampler.RequestPermission(context.Background()) {
		t.Fatalf("expected permission denied")
	}
	if perr := sampler.LastError(); perr == nil || perr.Code != CodePermissionDenied {
		t.Fatalf("expected permission_denied error, got %v", perr)
	}
}

func TestStartFailsWithoutPermission(t *testing.T) {
	provider := &fakeProvider{currentErr: &PositionError{Code: CodePermissionDenied, Message: "denied"}}
	sampler := NewSampler(provider, Options{})

	if sampler.Start(context.Background()) {
		t.Fatalf("start should fail when permission denied")
	}
	if sampler.Running() {
		t.Fatalf("sampler should not be running")
	}
}

func TestStartWatchAndPushPositions(t *testing.T) {
	provider := &fakeProvider{}
	var received []geo.Coordinate
	var mu sync.Mutex
	sampler := NewSampler(provider, Options{
		OnPosition: func(c geo.Coordinate) {
			mu.Lock()
			received = append(received, c)
			mu.Unlock()
		},
	})

	if !sampler.Start(context.Background()) {
		t.Fatalf("expected start to succeed")
	}
	if !sampler.Running() {
		t.Fatalf("expected running")
	}

	provider.push(geo.Coordinate{Lat: 6.91, Lng: 79.81, Timestamp: time.Now()})

	mu.Lock()
	count := len(received)
	mu.Unlock()
	if count != 1 {
		t.Fatalf("expected 1 pushed position, got %d", count)
	}

	if _, ok := sampler.Current(); !ok {
		t.Fatalf("expected a current position")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	provider := &fakeProvider{}
	sampler := NewSampler(provider, Options{})

	if !sampler.Start(context.Background()) {
		t.Fatalf("start failed")
	}
	sampler.Stop()
	sampler.Stop()

	if sampler.Running() {
		t.Fatalf("expected stopped")
	}
	provider.mu.Lock()
	stopped := provider.stopped
	provider.mu.Unlock()
	if !stopped {
		t.Fatalf("expected provider watch cancelled")
	}
}

func TestPauseResumeKeepsSampling(t *testing.T) {
	provider := &fakeProvider{}
	sampler := NewSampler(provider, Options{})

	if !sampler.Start(context.Background()) {
		t.Fatalf("start failed")
	}

	sampler.Pause()
	if !sampler.Paused() {
		t.Fatalf("expected paused")
	}

	// positions still update while paused, consumers decide what to drop
	provider.push(geo.Coordinate{Lat: 6.95, Lng: 79.85, Timestamp: time.Now()})
	if c, ok := sampler.Current(); !ok || c.Lat != 6.95 {
		t.Fatalf("expected current position to update while paused")
	}

	sampler.Resume()
	if sampler.Paused() {
		t.Fatalf("expected resumed")
	}
}

func TestPollingFallback(t *testing.T) {
	provider := &fakeProvider{watchErr: ErrWatchUnsupported}
	var mu sync.Mutex
	var received int
	sampler := NewSampler(provider, Options{
		PollInterval: 10 * time.Millisecond,
		OnPosition: func(geo.Coordinate) {
			mu.Lock()
			received++
			mu.Unlock()
		},
	})

	if !sampler.Start(context.Background()) {
		t.Fatalf("expected polling fallback to start")
	}
	defer sampler.Stop()

	deadline := time.After(time.Second)
	for {
		mu.Lock()
		n := received
		mu.Unlock()
		if n >= 2 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for polled positions")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestClassify(t *testing.T) {
	if classify(context.DeadlineExceeded).Code != CodeTimeout {
		t.Fatalf("expected timeout classification")
	}
	if classify(errors.New("boom")).Code != CodeUnknown {
		t.Fatalf("expected unknown classification")
	}
	perr := &PositionError{Code: CodePositionUnavailable, Message: "no fix"}
	if classify(perr).Code != CodePositionUnavailable {
		t.Fatalf("expected original code preserved")
	}
}

func TestWatchErrorSurfacesToCallback(t *testing.T) {
	provider := &fakeProvider{}
	var got *PositionError
	var mu sync.Mutex
	sampler := NewSampler(provider, Options{
		OnError: func(e PositionError) {
			mu.Lock()
			got = &e
			mu.Unlock()
		},
	})

	if !sampler.Start(context.Background()) {
		t.Fatalf("start failed")
	}

	provider.mu.Lock()
	cb := provider.onError
	provider.mu.Unlock()
	cb(&PositionError{Code: CodeTimeout, Message: "timeout"})

	mu.Lock()
	defer mu.Unlock()
	if got == nil || got.Code != CodeTimeout {
		t.Fatalf("expected timeout error surfaced, got %v", got)
	}
}
