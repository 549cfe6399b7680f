package sim

import (
	"github.com/slipangle/rallyarcade/pkg/geom"
	"github.com/slipangle/rallyarcade/pkg/model"
	"github.com/slipangle/rallyarcade/pkg/track"
)

// StageState is the progression state of one attempt.
type StageState int

const (
	StageNotStarted StageState = iota
	StageInProgress
	StageComplete
)

func (s StageState) String() string {
	switch s {
	case StageNotStarted:
		return "not-started"
	case StageInProgress:
		return "in-progress"
	case StageComplete:
		return "complete"
	}
	return "unknown"
}

// Event is a discrete progression event produced by an update.
type Event int

const (
	EventStarted Event = iota
	EventCheckpoint
	EventComplete
)

// ProgressSnapshot is the HUD-facing view of an attempt.
type ProgressSnapshot struct {
	State           StageState `json:"state"`
	CheckpointIndex int        `json:"checkpointIndex"`
	CheckpointTotal int        `json:"checkpointTotal"`
	Elapsed         float64    `json:"elapsed"`
	StageTime       float64    `json:"stageTime"`
	BestTime        float64    `json:"bestTime"`
	HasBest         bool       `json:"hasBest"`
	NewBest         bool       `json:"newBest"`
}

// Progress tracks stage start, ordered checkpoint completion and finish
// detection for one attempt. Updates never fail; geometry that doesn't match
// leaves the machine where it is.
type Progress struct {
	trk *track.Track

	state           StageState
	checkpointIndex int
	startTime       float64
	elapsed         float64
	stageTime       float64
	bestTime        float64
	hasBest         bool
	newBest         bool
}

type ProgressOption func(*Progress)

// WithBestTime seeds the best time carried over from earlier attempts.
func WithBestTime(t float64) ProgressOption {
	return func(p *Progress) {
		p.bestTime = t
		p.hasBest = true
	}
}

func NewProgress(trk *track.Track, opts ...ProgressOption) *Progress {
	p := &Progress{trk: trk}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Update advances the state machine against the vehicle's bounding circle.
// now is the session's accumulated simulation time in seconds. At most one
// checkpoint is granted per update; order is strict, skipping is impossible.
func (p *Progress) Update(pos geom.Vector2, radius, now float64) []Event {
	var events []Event

	switch p.state {
	case StageNotStarted:
		if intersectsLine(pos, radius, p.trk.StartLine()) {
			p.state = StageInProgress
			p.startTime = now
			p.elapsed = 0
			events = append(events, EventStarted)
		}
	case StageInProgress:
		p.elapsed = now - p.startTime
		if p.checkpointIndex < p.trk.CheckpointCount() {
			rect := p.trk.CheckpointRect(p.checkpointIndex)
			if geom.CircleRectIntersect(pos, radius, rect) {
				p.checkpointIndex++
				events = append(events, EventCheckpoint)
			}
		}
		if p.checkpointIndex == p.trk.CheckpointCount() &&
			intersectsLine(pos, radius, p.trk.FinishLine()) {
			p.state = StageComplete
			p.stageTime = p.elapsed
			if !p.hasBest || p.stageTime < p.bestTime {
				p.bestTime = p.stageTime
				p.hasBest = true
				p.newBest = true
			}
			events = append(events, EventComplete)
		}
	case StageComplete:
		// terminal for the attempt
	}
	return events
}

func intersectsLine(pos geom.Vector2, radius float64, line model.Line) bool {
	return geom.CircleOrientedRectIntersect(
		pos, radius, line.Position, line.Angle, line.Width, track.GateDepth)
}

// Reset returns the machine to NotStarted with timers cleared. The best time
// survives across attempts.
func (p *Progress) Reset() {
	p.state = StageNotStarted
	p.checkpointIndex = 0
	p.startTime = 0
	p.elapsed = 0
	p.stageTime = 0
	p.newBest = false
}

func (p *Progress) State() StageState { return p.state }
func (p *Progress) Started() bool     { return p.state != StageNotStarted }
func (p *Progress) Complete() bool    { return p.state == StageComplete }
func (p *Progress) StageTime() float64 {
	return p.stageTime
}

// BestTime returns the carried best time; ok is false before the first
// completed attempt.
func (p *Progress) BestTime() (float64, bool) {
	return p.bestTime, p.hasBest
}

func (p *Progress) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		State:           p.state,
		CheckpointIndex: p.checkpointIndex,
		CheckpointTotal: p.trk.CheckpointCount(),
		Elapsed:         p.elapsed,
		StageTime:       p.stageTime,
		BestTime:        p.bestTime,
		HasBest:         p.hasBest,
		NewBest:         p.newBest,
	}
}
