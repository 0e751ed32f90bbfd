package recording

import (
	"context"

	"backend-vintrek/internal/gps"
	"backend-vintrek/internal/shared/geo"

	"github.com/sirupsen/logrus"
)

// Session wires a GPS sampler to a recorder for on-device capture:
// sampler callbacks feed the recorder, pause/resume apply to both so the
// device can idle its location hardware while paused time is excluded.
type Session struct {
	Sampler  *gps.Sampler
	Recorder *Recorder
	log      *logrus.Entry
}

func NewSession(provider gps.Provider, opts Options, gpsOpts gps.Options, log *logrus.Entry) *Session {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}

	s := &Session{
		Recorder: NewRecorder(opts),
		log:      log,
	}

	onPosition := gpsOpts.OnPosition
	gpsOpts.OnPosition = func(c geo.Coordinate) {
		if _, err := s.Recorder.AddPoint(c); err != nil {
			s.log.WithError(err).Warn("dropped GPS sample")
		}
		if onPosition != nil {
			onPosition(c)
		}
	}
	s.Sampler = gps.NewSampler(provider, gpsOpts)
	return s
}

// Start returns false without error when location permission is denied;
// the sampler's LastError carries the classified cause.
func (s *Session) Start(ctx context.Context, name, description string) (bool, error) {
	if s.Recorder.Active() {
		return false, ErrAlreadyActive
	}
	if !s.Sampler.Start(ctx) {
		return false, nil
	}
	if _, err := s.Recorder.Start(name, description); err != nil {
		s.Sampler.Stop()
		return false, err
	}
	return true, nil
}

func (s *Session) Pause() error {
	s.Sampler.Pause()
	return s.Recorder.Pause()
}

func (s *Session) Resume() error {
	s.Sampler.Resume()
	return s.Recorder.Resume()
}

// Stop cancels sampling and finalizes the recording. Pending position
// callbacks may still fire once; the recorder ignores them.
func (s *Session) Stop() (Recording, error) {
	s.Sampler.Stop()
	return s.Recorder.Stop()
}
