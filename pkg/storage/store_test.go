//nolint:funlen // ok for tests
package storage

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipangle/rallyarcade/pkg/model"
)

func TestLeaderboardInsertion(t *testing.T) {
	store := NewMemoryStore()
	times := []float64{50.1, 48.3, 52.0, 47.9, 51.5, 49.0, 53.3, 46.2, 54.8, 48.9, 55.0}

	var board []model.LeaderboardEntry
	for i, tm := range times {
		var err error
		board, err = store.SubmitTime("ring", "driver", tm)
		require.NoError(t, err)
		require.LessOrEqual(t, len(board), MaxLeaderboardEntries, "insert %d", i)
	}

	// 11 submissions keep the 10 lowest, ascending
	require.Len(t, board, MaxLeaderboardEntries)
	got := lo.Map(board, func(e model.LeaderboardEntry, _ int) float64 { return e.Time })
	assert.Equal(t, []float64{46.2, 47.9, 48.3, 48.9, 49.0, 50.1, 51.5, 52.0, 53.3, 54.8}, got)
}

func TestLeaderboardTiesKeepInsertionOrder(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.SubmitTime("ring", "first", 50.0)
	require.NoError(t, err)
	_, err = store.SubmitTime("ring", "second", 50.0)
	require.NoError(t, err)
	board, err := store.SubmitTime("ring", "faster", 49.0)
	require.NoError(t, err)

	require.Len(t, board, 3)
	assert.Equal(t, "faster", board[0].Name)
	assert.Equal(t, "first", board[1].Name)
	assert.Equal(t, "second", board[2].Name)
}

func TestMemoryStoreBestTime(t *testing.T) {
	store := NewMemoryStore()

	_, ok, err := store.BestTime("ring")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveBestTime("ring", 45.2))
	best, ok, err := store.BestTime("ring")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 45.2, best, 1e-9)

	// tracks don't leak into each other
	_, ok, err = store.BestTime("other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreGhost(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Ghost("ring")
	assert.ErrorIs(t, err, ErrNotFound)

	trace := &model.GhostTrace{ID: "g1", TrackName: "ring", StageTime: 44.9, FrameRate: 120}
	require.NoError(t, store.SaveGhost(trace))

	got, err := store.Ghost("ring")
	require.NoError(t, err)
	assert.Equal(t, "g1", got.ID)

	// a new ghost replaces the prior one
	require.NoError(t, store.SaveGhost(&model.GhostTrace{ID: "g2", TrackName: "ring"}))
	got, err = store.Ghost("ring")
	require.NoError(t, err)
	assert.Equal(t, "g2", got.ID)
}
