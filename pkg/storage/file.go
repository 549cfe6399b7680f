package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ohler55/ojg/oj"

	"github.com/slipangle/rallyarcade/log"
	"github.com/slipangle/rallyarcade/pkg/model"
)

// FileStore persists one JSON document per track under a data directory.
type FileStore struct {
	mutex sync.Mutex
	dir   string
	l     *log.Logger
}

type FileStoreOption func(*FileStore)

func WithLogger(arg *log.Logger) FileStoreOption {
	return func(s *FileStore) {
		s.l = arg
	}
}

func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	s := &FileStore{dir: dir, l: log.Default().Named("storage")}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// trackSlug maps a track name to a stable filename.
func trackSlug(trackName string) string {
	slug := strings.ToLower(trackName)
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, slug)
	return strings.Trim(slug, "-")
}

func (s *FileStore) path(trackName string) string {
	return filepath.Join(s.dir, trackSlug(trackName)+".json")
}

func (s *FileStore) load(trackName string) (*trackRecord, error) {
	raw, err := os.ReadFile(s.path(trackName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &trackRecord{}, nil
		}
		return nil, fmt.Errorf("reading track record: %w", err)
	}
	var rec trackRecord
	if err := oj.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parsing track record: %w", err)
	}
	return &rec, nil
}

func (s *FileStore) save(trackName string, rec *trackRecord) error {
	raw, err := oj.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding track record: %w", err)
	}
	if err := os.WriteFile(s.path(trackName), raw, 0o644); err != nil {
		return fmt.Errorf("writing track record: %w", err)
	}
	s.l.Debug("saved track record",
		log.String("track", trackName), log.Int("bytes", len(raw)))
	return nil
}

func (s *FileStore) BestTime(trackName string) (float64, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec, err := s.load(trackName)
	if err != nil {
		return 0, false, err
	}
	return rec.BestTime, rec.HasBest, nil
}

func (s *FileStore) SaveBestTime(trackName string, t float64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec, err := s.load(trackName)
	if err != nil {
		return err
	}
	rec.BestTime = t
	rec.HasBest = true
	return s.save(trackName, rec)
}

func (s *FileStore) Ghost(trackName string) (*model.GhostTrace, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec, err := s.load(trackName)
	if err != nil {
		return nil, err
	}
	if rec.Ghost == nil {
		return nil, ErrNotFound
	}
	return rec.Ghost, nil
}

// SaveGhost replaces any prior ghost for the trace's track.
func (s *FileStore) SaveGhost(trace *model.GhostTrace) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec, err := s.load(trace.TrackName)
	if err != nil {
		return err
	}
	rec.Ghost = trace
	return s.save(trace.TrackName, rec)
}

func (s *FileStore) Leaderboard(trackName string) ([]model.LeaderboardEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec, err := s.load(trackName)
	if err != nil {
		return nil, err
	}
	return rec.Leaderboard, nil
}

func (s *FileStore) SubmitTime(
	trackName, name string, t float64,
) ([]model.LeaderboardEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec, err := s.load(trackName)
	if err != nil {
		return nil, err
	}
	rec.Leaderboard = insertEntry(rec.Leaderboard, name, t)
	if err := s.save(trackName, rec); err != nil {
		return nil, err
	}
	return rec.Leaderboard, nil
}
