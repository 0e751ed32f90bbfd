package recording

import (
	"encoding/json"
	"errors"
	"sync"

	"backend-vintrek/internal/shared/geo"
	"backend-vintrek/internal/stream"
)

var ErrNotFound = errors.New("recording not found")

// Manager indexes live recorders by recording ID for clients that push
// their own GPS samples over HTTP. Accepted points are broadcast on the
// stream hub for live followers.
type Manager struct {
	opts Options
	hub  *stream.Hub

	mu        sync.Mutex
	recorders map[string]*Recorder
}

func NewManager(opts Options, hub *stream.Hub) *Manager {
	return &Manager{
		opts:      opts,
		hub:       hub,
		recorders: map[string]*Recorder{},
	}
}

func (m *Manager) Start(name, description string) (Recording, error) {
	rec := NewRecorder(m.opts)
	started, err := rec.Start(name, description)
	if err != nil {
		return Recording{}, err
	}

	m.mu.Lock()
	m.recorders[started.ID] = rec
	m.mu.Unlock()
	return started, nil
}

func (m *Manager) AddPoint(id string, c geo.Coordinate) (bool, error) {
	rec, ok := m.recorder(id)
	if !ok {
		return false, ErrNotFound
	}

	accepted, err := rec.AddPoint(c)
	if err != nil {
		return false, err
	}
	if accepted && m.hub != nil {
		payload, _ := json.Marshal(c)
		m.hub.Publish(id, payload)
	}
	return accepted, nil
}

func (m *Manager) Pause(id string) error {
	rec, ok := m.recorder(id)
	if !ok {
		return ErrNotFound
	}
	return rec.Pause()
}

func (m *Manager) Resume(id string) error {
	rec, ok := m.recorder(id)
	if !ok {
		return ErrNotFound
	}
	return rec.Resume()
}

// Stop finalizes and forgets the recording; the caller owns the result.
func (m *Manager) Stop(id string) (Recording, error) {
	rec, ok := m.recorder(id)
	if !ok {
		return Recording{}, ErrNotFound
	}

	final, err := rec.Stop()
	if err != nil {
		return Recording{}, err
	}

	m.mu.Lock()
	delete(m.recorders, id)
	m.mu.Unlock()
	return final, nil
}

func (m *Manager) Stats(id string) (Stats, error) {
	rec, ok := m.recorder(id)
	if !ok {
		return Stats{}, ErrNotFound
	}
	return rec.CurrentStats(), nil
}

func (m *Manager) Snapshot(id string) (Recording, error) {
	rec, ok := m.recorder(id)
	if !ok {
		return Recording{}, ErrNotFound
	}
	snap, active := rec.Snapshot()
	if !active {
		return Recording{}, ErrNotFound
	}
	return snap, nil
}

func (m *Manager) recorder(id string) (*Recorder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recorders[id]
	return rec, ok
}
