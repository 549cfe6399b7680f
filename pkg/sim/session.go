package sim

import (
	"errors"

	"github.com/slipangle/rallyarcade/log"
	"github.com/slipangle/rallyarcade/pkg/storage"
	"github.com/slipangle/rallyarcade/pkg/track"
)

const (
	DefaultPhysicsRate   = 120
	DefaultMaxFrameDelta = 0.25
)

// FrameResult reports what one render-tick frame did. Alpha is the leftover
// accumulator fraction, usable as a render interpolation factor.
type FrameResult struct {
	Steps  int
	Alpha  float64
	Events []Event
}

// Session owns the transient state of one play session: the vehicle, the
// progression machine, the ghost recorder and an optional ghost playback.
// It is single threaded; the host drives it from its render callback.
type Session struct {
	trk      *track.Track
	vehicle  *Vehicle
	progress *Progress
	recorder *GhostRecorder
	ghost    *GhostPlayer

	store      storage.Store
	driverName string
	recording  bool
	playback   bool

	rate        int
	stepDt      float64
	maxFrame    float64
	accumulator float64
	simTime     float64

	vehicleOpts []VehicleOption

	l *log.Logger
}

type SessionOption func(*Session)

// WithStore attaches the persistence collaborator. Best times and ghosts are
// written through it on new-best completions.
func WithStore(store storage.Store) SessionOption {
	return func(s *Session) {
		s.store = store
	}
}

func WithPhysicsRate(rate int) SessionOption {
	return func(s *Session) {
		if rate > 0 {
			s.rate = rate
		}
	}
}

func WithMaxFrameDelta(maxFrame float64) SessionOption {
	return func(s *Session) {
		if maxFrame > 0 {
			s.maxFrame = maxFrame
		}
	}
}

// WithRecording enables ghost recording for this session's attempts.
func WithRecording(enabled bool) SessionOption {
	return func(s *Session) {
		s.recording = enabled
	}
}

// WithGhostPlayback replays the stored ghost (if any) alongside the player.
func WithGhostPlayback(enabled bool) SessionOption {
	return func(s *Session) {
		s.playback = enabled
	}
}

// WithDriverName enables leaderboard submission under the given name.
func WithDriverName(name string) SessionOption {
	return func(s *Session) {
		s.driverName = name
	}
}

func WithSessionLogger(arg *log.Logger) SessionOption {
	return func(s *Session) {
		s.l = arg
	}
}

func WithVehicleTuning(t Tuning) SessionOption {
	return func(s *Session) {
		s.vehicleOpts = append(s.vehicleOpts, WithTuning(t))
	}
}

func WithSessionMarkSink(sink MarkSink) SessionOption {
	return func(s *Session) {
		s.vehicleOpts = append(s.vehicleOpts, WithMarkSink(sink))
	}
}

func NewSession(trk *track.Track, opts ...SessionOption) *Session {
	s := &Session{
		trk:      trk,
		rate:     DefaultPhysicsRate,
		maxFrame: DefaultMaxFrameDelta,
		l:        log.Default().Named("sim.session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.vehicle = NewVehicle(s.vehicleOpts...)
	s.stepDt = 1.0 / float64(s.rate)

	var progressOpts []ProgressOption
	if s.store != nil {
		if best, ok, err := s.store.BestTime(trk.Name()); err == nil && ok {
			progressOpts = append(progressOpts, WithBestTime(best))
		} else if err != nil {
			s.l.Error("loading best time", log.ErrorField(err))
		}
	}
	s.progress = NewProgress(trk, progressOpts...)
	s.recorder = NewGhostRecorder(trk.Name(), s.rate)

	if s.playback && s.store != nil {
		trace, err := s.store.Ghost(trk.Name())
		switch {
		case err == nil:
			s.ghost = NewGhostPlayer(trace)
			s.l.Info("ghost loaded",
				log.String("track", trk.Name()),
				log.Int("samples", len(trace.Samples)))
		case errors.Is(err, storage.ErrNotFound):
			s.l.Debug("no ghost stored", log.String("track", trk.Name()))
		default:
			s.l.Error("loading ghost", log.ErrorField(err))
		}
	}

	start := trk.StartLine()
	s.vehicle.Reset(start.Position, start.Angle)
	return s
}

// Frame consumes one render tick's worth of real time and runs zero or more
// fixed physics steps. The frame delta is clamped so a stalled host (tab in
// the background) doesn't trigger a runaway catch-up burst.
func (s *Session) Frame(dt float64, in Controls) FrameResult {
	if dt < 0 {
		dt = 0
	}
	if dt > s.maxFrame {
		dt = s.maxFrame
	}
	s.accumulator += dt

	res := FrameResult{}
	for s.accumulator >= s.stepDt {
		s.accumulator -= s.stepDt
		res.Events = append(res.Events, s.step(in)...)
		res.Steps++
	}
	res.Alpha = s.accumulator / s.stepDt
	return res
}

// step runs exactly one fixed physics step: vehicle, progression, recorder,
// ghost, in lockstep.
func (s *Session) step(in Controls) []Event {
	s.simTime += s.stepDt
	s.vehicle.Step(s.trk, in, s.stepDt)

	events := s.progress.Update(s.vehicle.State.Position, s.vehicle.tuning.Radius, s.simTime)
	for _, ev := range events {
		switch ev {
		case EventStarted:
			if s.recording {
				s.recorder.Start()
			}
			s.l.Debug("stage started", log.String("track", s.trk.Name()))
		case EventCheckpoint:
			s.l.Debug("checkpoint passed",
				log.Int("index", s.progress.Snapshot().CheckpointIndex))
		case EventComplete:
			s.finishAttempt()
		}
	}
	s.recorder.Record(s.vehicle.State, int64(s.simTime*1000))

	if s.ghost != nil {
		s.ghost.Advance(s.stepDt)
	}
	return events
}

// finishAttempt persists results of a completed stage: on a new best the
// stage time, the recorded ghost and a leaderboard entry are written through
// the store. Recordings of slower attempts are discarded.
func (s *Session) finishAttempt() {
	snap := s.progress.Snapshot()
	s.l.Info("stage complete",
		log.String("track", s.trk.Name()),
		log.Float64("time", snap.StageTime),
		log.Bool("newBest", snap.NewBest))

	if s.store == nil {
		s.recorder.Discard()
		return
	}
	if snap.NewBest {
		if err := s.store.SaveBestTime(s.trk.Name(), snap.StageTime); err != nil {
			s.l.Error("saving best time", log.ErrorField(err))
		}
		if s.recorder.Active() {
			trace := s.recorder.Finish(snap.StageTime)
			if err := s.store.SaveGhost(trace); err != nil {
				s.l.Error("saving ghost", log.ErrorField(err))
			}
		}
	} else {
		s.recorder.Discard()
	}
	if s.driverName != "" {
		if _, err := s.store.SubmitTime(s.trk.Name(), s.driverName, snap.StageTime); err != nil {
			s.l.Error("submitting leaderboard time", log.ErrorField(err))
		}
	}
}

// Reset restarts the attempt: vehicle back to the start pose, progression to
// NotStarted (best time preserved), partial recording discarded, ghost
// playback rewound.
func (s *Session) Reset() {
	start := s.trk.StartLine()
	s.vehicle.Reset(start.Position, start.Angle)
	s.progress.Reset()
	s.recorder.Discard()
	if s.ghost != nil {
		s.ghost.Restart()
	}
	s.accumulator = 0
	s.simTime = 0
}

func (s *Session) Track() *track.Track { return s.trk }

// VehicleState returns the live vehicle state for HUD/minimap polling.
func (s *Session) VehicleState() VehicleState { return s.vehicle.State }

// Progress returns the HUD-facing progression snapshot.
func (s *Session) Progress() ProgressSnapshot { return s.progress.Snapshot() }

// GhostState returns the ghost playback state; ok is false when no ghost is
// loaded or it has finished.
func (s *Session) GhostState() (VehicleState, bool) {
	if s.ghost == nil || !s.ghost.Active() {
		return VehicleState{}, false
	}
	return s.ghost.State, true
}

func (s *Session) SimTime() float64 { return s.simTime }
