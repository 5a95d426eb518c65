// Package memory keeps the record collection in process memory, optionally
// seeded from a JSON file. It backs development runs and tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"energylog/internal/core"
	"energylog/internal/records"
)

// SeedFile is the file NewFromFiles looks for in its base directory.
const SeedFile = "seed_records.json"

type Store struct {
	mu    sync.RWMutex
	items []core.EnergyRecord
	ids   *records.IDAllocator
}

var _ records.Collection = (*Store)(nil)

// New returns a store holding a copy of seed. Seed records without an id get one.
func New(seed []core.EnergyRecord) *Store {
	s := &Store{ids: records.NewIDAllocator(time.Now)}
	s.items = records.MergeRecords(nil, s.ids.Assign(seed, nil))
	return s
}

// NewFromFiles seeds the store from base/seed_records.json. A missing or
// unreadable seed file yields an empty store.
func NewFromFiles(base string) *Store {
	path := filepath.Join(base, SeedFile)
	f, err := os.Open(path)
	if err != nil {
		return New(nil)
	}
	defer f.Close()

	seed, err := records.ParseImport(f)
	if err != nil {
		slog.Warn("Ignoring seed file", "path", path, "error", err)
		return New(nil)
	}
	return New(seed)
}

func (s *Store) All(_ context.Context) ([]core.EnergyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.EnergyRecord(nil), s.items...), nil
}

func (s *Store) Get(_ context.Context, id int64) (core.EnergyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], nil
	}
	return core.EnergyRecord{}, fmt.Errorf("get %d: %w", id, records.ErrNotFound)
}

func (s *Store) Append(_ context.Context, r core.EnergyRecord) (core.EnergyRecord, error) {
	if err := r.Validate(); err != nil {
		return core.EnergyRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == 0 {
		r.ID = s.ids.Next(s.hasLocked)
	}
	s.items = records.MergeRecords(s.items, []core.EnergyRecord{r})
	return r, nil
}

func (s *Store) Merge(_ context.Context, incoming []core.EnergyRecord) ([]core.EnergyRecord, error) {
	if err := records.ValidateAll(incoming); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.ids.Assign(incoming, s.hasLocked)
	s.items = records.MergeRecords(s.items, stored)
	return stored, nil
}

func (s *Store) Replace(_ context.Context, id int64, r core.EnergyRecord) (core.EnergyRecord, error) {
	if err := r.Validate(); err != nil {
		return core.EnergyRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return core.EnergyRecord{}, fmt.Errorf("replace %d: %w", id, records.ErrNotFound)
	}
	r.ID = id
	s.items[i] = r
	return r, nil
}

func (s *Store) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("remove %d: %w", id, records.ErrNotFound)
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return nil
}

func (s *Store) indexLocked(id int64) int {
	for i, r := range s.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) hasLocked(id int64) bool {
	return s.indexLocked(id) >= 0
}
