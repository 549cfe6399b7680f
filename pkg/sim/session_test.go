//nolint:funlen // ok for tests
package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipangle/rallyarcade/pkg/storage"
)

func TestSessionFixedStepAccumulation(t *testing.T) {
	trk := stripTrack(t)
	// a rate of 128 keeps every delta below an exact binary fraction
	s := NewSession(trk, WithPhysicsRate(128))
	step := 1.0 / 128.0

	tests := []struct {
		name      string
		deltas    []float64
		wantSteps int
	}{
		{
			name:      "single exact frame",
			deltas:    []float64{8 * step},
			wantSteps: 8,
		},
		{
			name:      "irregular chunks, same total",
			deltas:    []float64{3.5 * step, 0.5 * step, 2 * step, 2 * step},
			wantSteps: 8,
		},
		{
			name:      "many tiny fractions",
			deltas:    []float64{0.25 * step, 0.25 * step, 0.5 * step, 7 * step},
			wantSteps: 8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Reset()
			total := 0
			for _, dt := range tt.deltas {
				res := s.Frame(dt, Controls{})
				total += res.Steps
				assert.GreaterOrEqual(t, res.Alpha, 0.0)
				assert.Less(t, res.Alpha, 1.0)
			}
			assert.Equal(t, tt.wantSteps, total)
		})
	}
}

func TestSessionClampsFrameDelta(t *testing.T) {
	trk := stripTrack(t)
	s := NewSession(trk, WithPhysicsRate(128), WithMaxFrameDelta(0.25))

	// a 10 second stall must not trigger a 1280-step catch-up burst
	res := s.Frame(10.0, Controls{})
	assert.Equal(t, 32, res.Steps)

	res = s.Frame(-1, Controls{})
	assert.Zero(t, res.Steps)
}

// runStage drives a session flat out down the strip until the stage
// completes or the step budget runs out.
func runStage(t *testing.T, s *Session) []Event {
	t.Helper()
	var events []Event
	for range 4000 {
		res := s.Frame(4*testDt, Controls{Throttle: 1})
		events = append(events, res.Events...)
		if s.Progress().State == StageComplete {
			return events
		}
	}
	t.Fatal("stage did not complete within the step budget")
	return nil
}

func TestSessionFullStage(t *testing.T) {
	trk := stripTrack(t)
	store := storage.NewMemoryStore()
	s := NewSession(trk,
		WithStore(store),
		WithRecording(true),
		WithDriverName("vasily"),
	)

	events := runStage(t, s)

	assert.Contains(t, events, EventStarted)
	assert.Contains(t, events, EventComplete)
	started := 0
	checkpoints := 0
	for _, ev := range events {
		switch ev {
		case EventStarted:
			started++
		case EventCheckpoint:
			checkpoints++
		case EventComplete:
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, trk.CheckpointCount(), checkpoints)

	snap := s.Progress()
	assert.True(t, snap.NewBest)
	assert.Greater(t, snap.StageTime, 0.0)

	// best time, ghost and leaderboard all went through the store
	best, ok, err := store.BestTime(trk.Name())
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, snap.StageTime, best, 1e-9)

	trace, err := store.Ghost(trk.Name())
	require.NoError(t, err)
	assert.Greater(t, len(trace.Samples), 0)
	assert.InDelta(t, snap.StageTime, trace.StageTime, 1e-9)

	board, err := store.Leaderboard(trk.Name())
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "vasily", board[0].Name)
}

func TestSessionSlowerAttemptKeepsStoredGhost(t *testing.T) {
	trk := stripTrack(t)
	store := storage.NewMemoryStore()
	// pre-seed an unbeatable best time
	require.NoError(t, store.SaveBestTime(trk.Name(), 0.001))

	s := NewSession(trk, WithStore(store), WithRecording(true))
	runStage(t, s)

	assert.False(t, s.Progress().NewBest)
	_, err := store.Ghost(trk.Name())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	best, ok, err := store.BestTime(trk.Name())
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.001, best, 1e-9)
}

func TestSessionReset(t *testing.T) {
	trk := stripTrack(t)
	s := NewSession(trk)

	for range 100 {
		s.Frame(testDt, Controls{Throttle: 1, Steer: 0.2})
	}
	require.True(t, s.Progress().State == StageInProgress)
	require.Greater(t, s.VehicleState().Speed, 0.0)

	s.Reset()

	assert.Equal(t, StageNotStarted, s.Progress().State)
	assert.Zero(t, s.VehicleState().Speed)
	assert.Equal(t, trk.StartLine().Position, s.VehicleState().Position)
	assert.Zero(t, s.SimTime())
}

func TestSessionGhostPlayback(t *testing.T) {
	trk := stripTrack(t)
	store := storage.NewMemoryStore()

	// record a ghost with a first session
	rec := NewSession(trk, WithStore(store), WithRecording(true))
	runStage(t, rec)

	// a fresh session replays it
	s := NewSession(trk, WithStore(store), WithGhostPlayback(true))
	ghost, ok := s.GhostState()
	require.True(t, ok)
	first := ghost.Position

	for range 60 {
		s.Frame(testDt, Controls{})
	}
	ghost, ok = s.GhostState()
	require.True(t, ok)
	assert.NotEqual(t, first, ghost.Position)

	// without a stored ghost, playback is simply absent
	empty := NewSession(trk, WithStore(storage.NewMemoryStore()), WithGhostPlayback(true))
	_, ok = empty.GhostState()
	assert.False(t, ok)
}

func TestSessionCarriesStoredBestTime(t *testing.T) {
	trk := stripTrack(t)
	store := storage.NewMemoryStore()
	require.NoError(t, store.SaveBestTime(trk.Name(), 42.5))

	s := NewSession(trk, WithStore(store))
	snap := s.Progress()
	assert.True(t, snap.HasBest)
	assert.InDelta(t, 42.5, snap.BestTime, 1e-9)
}
