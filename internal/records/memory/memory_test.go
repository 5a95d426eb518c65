package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"energylog/internal/core"
	"energylog/internal/records"
)

func sample(id int64, cost float64) core.EnergyRecord {
	return core.EnergyRecord{ID: id, Type: core.Charging, Electric: 20, Cost: cost, Date: core.NewDate(2024, 2, 1)}
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New([]core.EnergyRecord{sample(1, 10)})

	created, err := s.Append(ctx, sample(0, 20))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if created.ID == 0 || created.ID == 1 {
		t.Fatalf("expected a fresh id, got %d", created.ID)
	}

	repl := sample(999, 15)
	got, err := s.Replace(ctx, 1, repl)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got.ID != 1 || got.Cost != 15 {
		t.Fatalf("replace result %+v", got)
	}

	if err := s.Remove(ctx, created.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	all, _ := s.All(ctx)
	if len(all) != 1 || all[0].ID != 1 || all[0].Cost != 15 {
		t.Fatalf("all = %+v", all)
	}
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	if _, err := s.Replace(ctx, 42, sample(0, 1)); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("replace: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, 42); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if err := s.Remove(ctx, 42); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("remove: expected ErrNotFound, got %v", err)
	}
}

func TestStoreRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := New([]core.EnergyRecord{sample(1, 10)})
	bad := sample(2, -5)

	if _, err := s.Append(ctx, bad); !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Merge(ctx, []core.EnergyRecord{sample(3, 1), bad}); err == nil {
		t.Fatalf("merge accepted an invalid record")
	}
	all, _ := s.All(ctx)
	if len(all) != 1 {
		t.Fatalf("collection changed after failed writes: %+v", all)
	}
}

func TestStoreMerge(t *testing.T) {
	ctx := context.Background()
	s := New([]core.EnergyRecord{sample(1, 10), sample(2, 20)})

	stored, err := s.Merge(ctx, []core.EnergyRecord{sample(2, 25), sample(0, 30), sample(3, 40)})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(stored) != 3 || stored[1].ID == 0 {
		t.Fatalf("stored = %+v", stored)
	}

	all, _ := s.All(ctx)
	if len(all) != 4 {
		t.Fatalf("len = %d", len(all))
	}
	if all[1].ID != 2 || all[1].Cost != 25 {
		t.Fatalf("merged record misplaced: %+v", all[1])
	}
}

func TestStoreAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New([]core.EnergyRecord{sample(1, 10)})
	all, _ := s.All(ctx)
	all[0].Cost = 999
	again, _ := s.All(ctx)
	if again[0].Cost != 10 {
		t.Fatalf("All leaked internal state")
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	body := `[{"id":1,"type":"refueling","oil":30,"cost":240,"kilometerOfDisplay":100,"date":"2024-01-05"}]`
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	all, _ := NewFromFiles(dir).All(context.Background())
	if len(all) != 1 || all[0].Oil != 30 {
		t.Fatalf("seed not loaded: %+v", all)
	}

	empty, _ := NewFromFiles(t.TempDir()).All(context.Background())
	if len(empty) != 0 {
		t.Fatalf("expected empty store without seed file")
	}
}
