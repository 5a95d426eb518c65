package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"energylog/internal/config"
	"energylog/internal/core"
	"energylog/internal/records/memory"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDir: "seed"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.DataDirectory != "seed" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "postgres"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	seed := `[{"id":1,"type":"refueling","oil":40,"electric":0,"cost":300,"kilometerOfDisplay":1000,"date":"2024-01-05"}]`
	if err := os.WriteFile(filepath.Join(dir, memory.SeedFile), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.SQLite != nil {
		t.Error("memory backend should not expose sqlite")
	}
	all, err := res.Records.All(context.Background())
	if err != nil || len(all) != 1 || all[0].Type != core.Refueling {
		t.Errorf("seeded records = %+v, %v", all, err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energylog.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.SQLite == nil {
		t.Fatal("sqlite repository not exposed")
	}
	ctx := context.Background()
	stored, err := res.Records.Create(ctx, core.EnergyRecord{Type: core.Charging, Electric: 30, Cost: 20, Date: core.NewDate(2024, 1, 1)})
	if err != nil {
		t.Fatal(err)
	}
	status, err := res.SQLite.SyncStatus(ctx, stored.ID)
	if err != nil || status != "pending" {
		t.Errorf("sync status = %q, %v", status, err)
	}
}

func TestCreateBackendInvalid(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "nope"}); err == nil {
		t.Error("expected error")
	}
}
