package storage

import (
	"sync"

	"github.com/slipangle/rallyarcade/pkg/model"
)

type trackRecord struct {
	BestTime    float64                  `json:"bestTime"`
	HasBest     bool                     `json:"hasBest"`
	Ghost       *model.GhostTrace        `json:"ghost,omitempty"`
	Leaderboard []model.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// MemoryStore keeps everything in process memory. Used by tests and as the
// session server default.
type MemoryStore struct {
	mutex sync.Mutex
	items map[string]*trackRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*trackRecord)}
}

func (s *MemoryStore) record(trackName string) *trackRecord {
	if rec, ok := s.items[trackName]; ok {
		return rec
	}
	rec := &trackRecord{}
	s.items[trackName] = rec
	return rec
}

func (s *MemoryStore) BestTime(trackName string) (float64, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec := s.record(trackName)
	return rec.BestTime, rec.HasBest, nil
}

func (s *MemoryStore) SaveBestTime(trackName string, t float64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec := s.record(trackName)
	rec.BestTime = t
	rec.HasBest = true
	return nil
}

func (s *MemoryStore) Ghost(trackName string) (*model.GhostTrace, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec := s.record(trackName)
	if rec.Ghost == nil {
		return nil, ErrNotFound
	}
	return rec.Ghost, nil
}

func (s *MemoryStore) SaveGhost(trace *model.GhostTrace) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.record(trace.TrackName).Ghost = trace
	return nil
}

func (s *MemoryStore) Leaderboard(trackName string) ([]model.LeaderboardEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec := s.record(trackName)
	out := make([]model.LeaderboardEntry, len(rec.Leaderboard))
	copy(out, rec.Leaderboard)
	return out, nil
}

func (s *MemoryStore) SubmitTime(
	trackName, name string, t float64,
) ([]model.LeaderboardEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec := s.record(trackName)
	rec.Leaderboard = insertEntry(rec.Leaderboard, name, t)
	out := make([]model.LeaderboardEntry, len(rec.Leaderboard))
	copy(out, rec.Leaderboard)
	return out, nil
}
