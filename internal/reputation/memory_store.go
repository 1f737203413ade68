package reputation

import (
	"context"
	"sync"

	"github.com/skald-run/skald/internal/model"
)

// MemoryStore is an in-process Store, used as the default for stateless
// mode and for tests. A request's stateless working set is a fresh
// MemoryStore seeded from the caller-supplied sources and discarded once
// the response is built; nothing here survives across requests unless the
// caller keeps the instance around itself.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]model.SourceRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.SourceRecord)}
}

// SeedMemoryStore returns a MemoryStore pre-populated with the given
// records, used to stand up a stateless request's working set from its
// caller-supplied source list.
func SeedMemoryStore(records []model.SourceRecord) *MemoryStore {
	s := NewMemoryStore()
	for _, rec := range records {
		s.records[rec.SourceID] = rec
	}
	return s
}

// FindOrCreate implements Store.
func (s *MemoryStore) FindOrCreate(_ context.Context, sourceID string, def model.SourceRecord) (model.SourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[sourceID]; ok {
		return rec, nil
	}
	s.records[sourceID] = def
	return def, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, sourceID string) (model.SourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[sourceID]
	if !ok {
		return model.SourceRecord{}, model.ErrNotFound
	}
	return rec, nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, rec model.SourceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.SourceID] = rec
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]model.SourceRecord)
	return nil
}

// Has reports whether sourceID has a record, without creating one.
func (s *MemoryStore) Has(sourceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[sourceID]
	return ok
}

// All returns every record currently held, in no particular order. Used by
// stateless consolidation to assemble the response's sources list.
func (s *MemoryStore) All() []model.SourceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SourceRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}
