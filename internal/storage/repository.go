package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"energylog/internal/core"
	"energylog/internal/records"

	_ "modernc.org/sqlite"
)

// Sync states of a stored record with respect to the spreadsheet mirror.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

const recordColumns = `id, type, oil, electric, cost, kilometer_of_display, date_millis, date_text`

type SQLiteRepository struct {
	db *sql.DB
	// mu serialises writers so id allocation sees a stable set of ids.
	mu  sync.Mutex
	ids *records.IDAllocator
}

var _ records.Collection = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, ids: records.NewIDAllocator(time.Now)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) All(ctx context.Context) ([]core.EnergyRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []core.EnergyRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.EnergyRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.EnergyRecord{}, fmt.Errorf("get %d: %w", id, records.ErrNotFound)
	}
	if err != nil {
		return core.EnergyRecord{}, fmt.Errorf("get %d: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Append(ctx context.Context, rec core.EnergyRecord) (core.EnergyRecord, error) {
	stored, err := r.Merge(ctx, []core.EnergyRecord{rec})
	if err != nil {
		return core.EnergyRecord{}, err
	}
	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", stored[0].ID,
		"type", stored[0].Type,
		"cost", stored[0].Cost)
	return stored[0], nil
}

// Merge upserts incoming in one transaction. An existing row keeps its
// position and takes the new values.
func (r *SQLiteRepository) Merge(ctx context.Context, incoming []core.EnergyRecord) ([]core.EnergyRecord, error) {
	if err := records.ValidateAll(incoming); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback()

	taken, err := existingIDs(ctx, tx)
	if err != nil {
		return nil, err
	}
	stored := r.ids.Assign(incoming, func(id int64) bool { return taken[id] })

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (`+recordColumns+`, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending')
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			oil = excluded.oil,
			electric = excluded.electric,
			cost = excluded.cost,
			kilometer_of_display = excluded.kilometer_of_display,
			date_millis = excluded.date_millis,
			date_text = excluded.date_text,
			sync_status = 'pending',
			sync_error = NULL,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range stored {
		if _, err := stmt.ExecContext(ctx, recordArgs(rec)...); err != nil {
			return nil, fmt.Errorf("upsert record %d: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit merge: %w", err)
	}
	return stored, nil
}

func (r *SQLiteRepository) Replace(ctx context.Context, id int64, rec core.EnergyRecord) (core.EnergyRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.EnergyRecord{}, err
	}
	rec.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()

	args := append(recordArgs(rec)[1:], id)
	res, err := r.db.ExecContext(ctx, `
		UPDATE records SET
			type = ?, oil = ?, electric = ?, cost = ?, kilometer_of_display = ?,
			date_millis = ?, date_text = ?,
			sync_status = 'pending', sync_error = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, args...)
	if err != nil {
		return core.EnergyRecord{}, fmt.Errorf("replace %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.EnergyRecord{}, fmt.Errorf("replace %d: %w", id, records.ErrNotFound)
	}
	return rec, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("remove %d: %w", id, records.ErrNotFound)
	}
	slog.InfoContext(ctx, "Record deleted from SQLite", "id", id)
	return nil
}

// PendingSync returns up to limit records not yet mirrored, oldest first.
// Records whose last attempt failed are included.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.EnergyRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM records
		WHERE sync_status != 'synced'
		ORDER BY seq
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync records: %w", err)
	}
	defer rows.Close()

	var out []core.EnergyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SyncStatus returns the sync state of a record.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id int64) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM records WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("sync status %d: %w", id, records.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("sync status %d: %w", id, err)
	}
	return status, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE records SET sync_status = 'synced', sync_error = NULL, synced_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark record synced: %w", err)
	}
	slog.DebugContext(ctx, "Record marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64, cause string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE records SET sync_status = 'error', sync_error = ?
		WHERE id = ?`, cause, id)
	if err != nil {
		return fmt.Errorf("mark record sync error: %w", err)
	}
	slog.WarnContext(ctx, "Record marked with sync error", "id", id, "error", cause)
	return nil
}

func existingIDs(ctx context.Context, tx *sql.Tx) (map[int64]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM records`)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (core.EnergyRecord, error) {
	var (
		rec      core.EnergyRecord
		typ      string
		millis   sql.NullInt64
		dateText sql.NullString
	)
	if err := s.Scan(&rec.ID, &typ, &rec.Oil, &rec.Electric, &rec.Cost, &rec.KilometerOfDisplay, &millis, &dateText); err != nil {
		return core.EnergyRecord{}, err
	}
	rec.Type = core.EnergyType(typ)
	switch {
	case millis.Valid:
		rec.Date = core.DateFromMillis(millis.Int64)
	case dateText.Valid:
		rec.Date = core.DateFromString(dateText.String)
	}
	return rec, nil
}

func recordArgs(rec core.EnergyRecord) []any {
	var (
		millis   sql.NullInt64
		dateText sql.NullString
	)
	if ms, ok := rec.Date.Millis(); ok {
		millis = sql.NullInt64{Int64: ms, Valid: true}
	} else if s, ok := rec.Date.Text(); ok {
		dateText = sql.NullString{String: s, Valid: true}
	}
	return []any{rec.ID, string(rec.Type), rec.Oil, rec.Electric, rec.Cost, rec.KilometerOfDisplay, millis, dateText}
}
