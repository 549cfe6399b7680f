package storage

import (
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/slipangle/rallyarcade/pkg/model"
)

// MaxLeaderboardEntries caps the per-track leaderboard size.
const MaxLeaderboardEntries = 10

var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator the simulation host writes through.
// Everything is keyed by track name; the medium is the store's business.
type Store interface {
	BestTime(trackName string) (float64, bool, error)
	SaveBestTime(trackName string, t float64) error
	Ghost(trackName string) (*model.GhostTrace, error)
	SaveGhost(trace *model.GhostTrace) error
	Leaderboard(trackName string) ([]model.LeaderboardEntry, error)
	SubmitTime(trackName, name string, t float64) ([]model.LeaderboardEntry, error)
}

// insertEntry keeps the board ascending by time with ties broken by insertion
// order, capped at MaxLeaderboardEntries.
func insertEntry(
	board []model.LeaderboardEntry, name string, t float64,
) []model.LeaderboardEntry {
	entry := model.LeaderboardEntry{
		ID:   uuid.Must(uuid.NewV4()).String(),
		Name: name,
		Time: t,
	}
	idx := len(board)
	for i := range board {
		if board[i].Time > t {
			idx = i
			break
		}
	}
	board = append(board, model.LeaderboardEntry{})
	copy(board[idx+1:], board[idx:])
	board[idx] = entry
	if len(board) > MaxLeaderboardEntries {
		board = board[:MaxLeaderboardEntries]
	}
	return board
}
