// Package memory is an in-process personnel store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bellsc7/hrsyncad/internal/personnel/models"
	"github.com/bellsc7/hrsyncad/pkg/platform/sentinel"
	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
)

// InMemoryStore keeps records keyed by ID.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[int64]models.Record
	nextID  int64
}

func New() *InMemoryStore {
	return &InMemoryStore{records: make(map[int64]models.Record)}
}

// Put inserts or replaces a record. A zero ID is assigned the next free ID.
// LastUpdated always moves forward so a pending SaveBatch sees the edit.
func (s *InMemoryStore) Put(ctx context.Context, r models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		s.nextID++
		r.ID = s.nextID
	} else if r.ID > s.nextID {
		s.nextID = r.ID
	}
	r.LastUpdated = requestcontext.Now(ctx)
	if prev, ok := s.records[r.ID]; ok && !r.LastUpdated.After(prev.LastUpdated) {
		r.LastUpdated = prev.LastUpdated.Add(time.Microsecond)
	}
	s.records[r.ID] = r
	return r, nil
}

func (s *InMemoryStore) Get(_ context.Context, id int64) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return models.Record{}, sentinel.ErrNotFound
	}
	return r, nil
}

// ListPending returns records not yet reconciled, ordered by ID.
func (s *InMemoryStore) ListPending(_ context.Context) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, 0, len(s.records))
	for _, r := range s.records {
		if !r.DirectorySynced {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveBatch persists the sync markers of records still unchanged since they
// were listed. Records edited or removed in the meantime are skipped and
// their IDs returned.
func (s *InMemoryStore) SaveBatch(ctx context.Context, records []models.Record) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := requestcontext.Now(ctx)
	var stale []int64
	for _, r := range records {
		cur, ok := s.records[r.ID]
		if !ok || !cur.LastUpdated.Equal(r.LastUpdated) {
			stale = append(stale, r.ID)
			continue
		}
		cur.DirectorySynced = r.DirectorySynced
		cur.LastUpdated = now
		s.records[r.ID] = cur
	}
	return stale, nil
}
