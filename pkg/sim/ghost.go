package sim

import (
	"math"

	"github.com/gofrs/uuid/v5"

	"github.com/slipangle/rallyarcade/pkg/model"
)

// GhostRecorder collects one vehicle sample per fixed physics step while an
// attempt is running. A completed recording becomes an immutable GhostTrace.
type GhostRecorder struct {
	trackName string
	frameRate int
	samples   []model.GhostSample
	active    bool
}

func NewGhostRecorder(trackName string, frameRate int) *GhostRecorder {
	return &GhostRecorder{trackName: trackName, frameRate: frameRate}
}

// Start clears any partial recording and begins a new one.
func (r *GhostRecorder) Start() {
	r.samples = r.samples[:0]
	r.active = true
}

func (r *GhostRecorder) Active() bool { return r.active }
func (r *GhostRecorder) Len() int     { return len(r.samples) }

// Record appends one sample. No-op unless the recorder has been started.
func (r *GhostRecorder) Record(state VehicleState, nowMs int64) {
	if !r.active {
		return
	}
	r.samples = append(r.samples, model.GhostSample{
		Position:    state.Position,
		Heading:     state.Heading,
		Speed:       state.Speed,
		SlipAngle:   state.SlipAngle,
		TimestampMs: nowMs,
	})
}

// Finish seals the recording into a trace and clears the recorder for the
// next attempt.
func (r *GhostRecorder) Finish(stageTime float64) *model.GhostTrace {
	trace := &model.GhostTrace{
		ID:        uuid.Must(uuid.NewV4()).String(),
		TrackName: r.trackName,
		StageTime: stageTime,
		FrameRate: r.frameRate,
		Samples:   append([]model.GhostSample{}, r.samples...),
	}
	r.Discard()
	return trace
}

// Discard drops the in-progress recording.
func (r *GhostRecorder) Discard() {
	r.samples = r.samples[:0]
	r.active = false
}

// GhostPlayer replays a recorded trace as a non-interactive vehicle. It never
// runs the physics model: each update picks the sample at the elapsed-time
// cursor and copies it into its state, so a recording replays identically
// regardless of the viewer's frame rate or physics tuning.
type GhostPlayer struct {
	State VehicleState

	trace   *model.GhostTrace
	elapsed float64
	active  bool
}

func NewGhostPlayer(trace *model.GhostTrace) *GhostPlayer {
	p := &GhostPlayer{trace: trace}
	p.Restart()
	return p
}

// Active reports whether the player still has samples left to show.
func (p *GhostPlayer) Active() bool { return p.active }

func (p *GhostPlayer) Trace() *model.GhostTrace { return p.trace }

// Restart rewinds the cursor to the beginning of the trace.
func (p *GhostPlayer) Restart() {
	p.elapsed = 0
	p.active = p.trace != nil && len(p.trace.Samples) > 0
	if p.active {
		p.apply(0)
	}
}

// Advance moves the cursor by the elapsed real seconds. Reaching the end of
// the trace deactivates the player until Restart is called.
func (p *GhostPlayer) Advance(dt float64) {
	if !p.active {
		return
	}
	p.elapsed += dt
	idx := int(math.Round(p.elapsed * float64(p.trace.FrameRate)))
	if idx >= len(p.trace.Samples) {
		p.active = false
		return
	}
	p.apply(idx)
}

func (p *GhostPlayer) apply(idx int) {
	s := p.trace.Samples[idx]
	p.State.Position = s.Position
	p.State.Heading = s.Heading
	p.State.Speed = s.Speed
	p.State.SlipAngle = s.SlipAngle
}
