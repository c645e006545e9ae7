// Package memory keeps run records in process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bellsc7/hrsyncad/internal/syncrun/models"
	"github.com/bellsc7/hrsyncad/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]models.Run
}

func New() *InMemoryStore {
	return &InMemoryStore{runs: make(map[uuid.UUID]models.Run)}
}

func (s *InMemoryStore) Create(_ context.Context, run *models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return sentinel.ErrConflict
	}
	s.runs[run.ID] = *run
	return nil
}

func (s *InMemoryStore) Finalize(_ context.Context, run *models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.runs[run.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if cur.IsFinal() {
		return sentinel.ErrInvalidState
	}
	s.runs[run.ID] = *run
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &run, nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Run, 0, len(s.runs))
	for _, run := range s.runs {
		r := run
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
