package recording

import (
	"context"
	"testing"
	"time"

	"backend-vintrek/internal/gps"
	"backend-vintrek/internal/shared/geo"
)

type stubProvider struct {
	position geo.Coordinate
	err      error

	onUpdate func(geo.Coordinate)
}

func (p *stubProvider) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	if p.err != nil {
		return geo.Coordinate{}, p.err
	}
	return p.position, nil
}

func (p *stubProvider) Watch(onUpdate func(geo.Coordinate), onError func(error)) (func(), error) {
	p.onUpdate = onUpdate
	return func() { p.onUpdate = nil }, nil
}

func (p *stubProvider) push(c geo.Coordinate) {
	if p.onUpdate != nil {
		p.onUpdate(c)
	}
}

func TestSessionFeedsRecorder(t *testing.T) {
	provider := &stubProvider{position: geo.Coordinate{Lat: 6.9, Lng: 79.86, Timestamp: time.Now()}}
	sess := NewSession(provider, Options{}, gps.Options{}, nil)

	ok, err := sess.Start(context.Background(), "Knuckles", "")
	if err != nil || !ok {
		t.Fatalf("start: ok=%v err=%v", ok, err)
	}

	provider.push(geo.Coordinate{Lat: 6.9000, Lng: 79.8600, Timestamp: time.Now()})
	provider.push(geo.Coordinate{Lat: 6.9010, Lng: 79.8600, Timestamp: time.Now().Add(time.Minute)})

	snap, active := sess.Recorder.Snapshot()
	if !active {
		t.Fatalf("expected active recording")
	}
	if len(snap.Coordinates) != 2 {
		t.Fatalf("expected 2 points, got %d", len(snap.Coordinates))
	}

	final, err := sess.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if final.IsActive {
		t.Fatalf("stopped recording still active")
	}
	if sess.Sampler.Running() {
		t.Fatalf("sampler should be stopped")
	}
}

func TestSessionPermissionDenied(t *testing.T) {
	provider := &stubProvider{err: &gps.PositionError{Code: gps.CodePermissionDenied, Message: "user denied location"}}
	sess := NewSession(provider, Options{}, gps.Options{}, nil)

	ok, err := sess.Start(context.Background(), "No permission", "")
	if err != nil {
		t.Fatalf("denied permission is not an error: %v", err)
	}
	if ok {
		t.Fatalf("expected start refused")
	}
	if perr := sess.Sampler.LastError(); perr == nil || perr.Code != gps.CodePermissionDenied {
		t.Fatalf("expected permission denied cause, got %+v", perr)
	}
	if sess.Recorder.Active() {
		t.Fatalf("recorder must stay idle")
	}
}

func TestSessionPauseAppliesToBoth(t *testing.T) {
	provider := &stubProvider{position: geo.Coordinate{Lat: 6.9, Lng: 79.86, Timestamp: time.Now()}}
	sess := NewSession(provider, Options{}, gps.Options{}, nil)

	if ok, _ := sess.Start(context.Background(), "Paused", ""); !ok {
		t.Fatalf("start refused")
	}
	if err := sess.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !sess.Sampler.Paused() {
		t.Fatalf("sampler should be paused")
	}

	// samples during pause are dropped, not recorded
	provider.push(geo.Coordinate{Lat: 6.9, Lng: 79.86, Timestamp: time.Now()})
	snap, _ := sess.Recorder.Snapshot()
	if len(snap.Coordinates) != 0 {
		t.Fatalf("paused session must not record points")
	}

	if err := sess.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if sess.Sampler.Paused() {
		t.Fatalf("sampler should be resumed")
	}
}

func TestSessionDoubleStart(t *testing.T) {
	provider := &stubProvider{position: geo.Coordinate{Lat: 6.9, Lng: 79.86, Timestamp: time.Now()}}
	sess := NewSession(provider, Options{}, gps.Options{}, nil)

	if ok, _ := sess.Start(context.Background(), "First", ""); !ok {
		t.Fatalf("start refused")
	}
	if _, err := sess.Start(context.Background(), "Second", ""); err != ErrAlreadyActive {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
}
