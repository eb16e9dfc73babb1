package archive

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStore keeps records in a map for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]RunRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		return errors.New("archive is not initialized")
	}
	s.runs[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.runs == nil {
		return RunRecord{}, false, errors.New("archive is not initialized")
	}
	rec, ok := s.runs[id]
	return rec, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.runs == nil {
		return nil, errors.New("archive is not initialized")
	}
	out := make([]RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		rec.Results = nil
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
