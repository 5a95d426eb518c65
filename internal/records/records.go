// Package records defines the record collection every backend implements,
// along with the merge and JSON transfer rules they share.
package records

import (
	"context"
	"errors"
	"time"

	"energylog/internal/core"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrMalformedImport = errors.New("malformed import")
)

type (
	Reader interface {
		// All returns the whole collection in insertion order.
		All(ctx context.Context) ([]core.EnergyRecord, error)
		// Get returns the record with the given id or ErrNotFound.
		Get(ctx context.Context, id int64) (core.EnergyRecord, error)
	}

	// Writer mutates the collection. Every write validates the records first
	// and leaves the collection unchanged on error.
	Writer interface {
		// Append stores r, assigning an id when r.ID is zero.
		Append(ctx context.Context, r core.EnergyRecord) (core.EnergyRecord, error)
		// Merge adds incoming records, replacing stored records with the same id.
		// It returns the incoming records as stored.
		Merge(ctx context.Context, incoming []core.EnergyRecord) ([]core.EnergyRecord, error)
		// Replace swaps the record with the given id for r. The id is kept.
		Replace(ctx context.Context, id int64, r core.EnergyRecord) (core.EnergyRecord, error)
		// Remove deletes the record with the given id.
		Remove(ctx context.Context, id int64) error
	}

	Collection interface {
		Reader
		Writer
	}
)

// MergeRecords combines existing and incoming, de-duplicating by id. A record
// keeps the position of its first occurrence and the value of its last.
// Neither input is modified.
func MergeRecords(existing, incoming []core.EnergyRecord) []core.EnergyRecord {
	out := make([]core.EnergyRecord, 0, len(existing)+len(incoming))
	pos := make(map[int64]int, len(existing)+len(incoming))
	for _, list := range [][]core.EnergyRecord{existing, incoming} {
		for _, r := range list {
			if i, ok := pos[r.ID]; ok {
				out[i] = r
				continue
			}
			pos[r.ID] = len(out)
			out = append(out, r)
		}
	}
	return out
}

// IDAllocator hands out record ids based on the current Unix millisecond,
// bumped past any id already taken.
type IDAllocator struct {
	now  func() time.Time
	last int64
}

func NewIDAllocator(now func() time.Time) *IDAllocator {
	if now == nil {
		now = time.Now
	}
	return &IDAllocator{now: now}
}

// Next returns an id not reported as taken. It is not safe for concurrent
// use; stores call it under their own lock.
func (a *IDAllocator) Next(taken func(int64) bool) int64 {
	id := a.now().UnixMilli()
	if id <= a.last {
		id = a.last + 1
	}
	for taken != nil && taken(id) {
		id++
	}
	a.last = id
	return id
}

// Assign returns a copy of list where every zero id is replaced by a fresh
// one. Ids present in list count as taken alongside those reported by taken.
func (a *IDAllocator) Assign(list []core.EnergyRecord, taken func(int64) bool) []core.EnergyRecord {
	out := append([]core.EnergyRecord(nil), list...)
	used := make(map[int64]bool, len(out))
	for _, r := range out {
		if r.ID != 0 {
			used[r.ID] = true
		}
	}
	isTaken := func(id int64) bool {
		return used[id] || (taken != nil && taken(id))
	}
	for i := range out {
		if out[i].ID == 0 {
			out[i].ID = a.Next(isTaken)
			used[out[i].ID] = true
		}
	}
	return out
}

// ValidateAll checks every record and returns the first failure.
func ValidateAll(list []core.EnergyRecord) error {
	for _, r := range list {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
