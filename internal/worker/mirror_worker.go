// Package worker mirrors the record collection into a spreadsheet, driven by
// change messages with a periodic pass over rows still pending.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"energylog/internal/amqp"
	"energylog/internal/core"
	"energylog/internal/log"
	"energylog/internal/metrics"
	"energylog/internal/records"
	"energylog/internal/sheets"
)

// SyncStore is the storage side of mirroring: record lookup plus the sync
// bookkeeping kept next to every record.
type SyncStore interface {
	Get(ctx context.Context, id int64) (core.EnergyRecord, error)
	PendingSync(ctx context.Context, limit int) ([]core.EnergyRecord, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64, cause string) error
}

type MirrorWorker struct {
	store     SyncStore
	mirror    sheets.RecordMirror
	batchSize int
	logger    *log.Logger
}

func NewMirrorWorker(store SyncStore, mirror sheets.RecordMirror, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &MirrorWorker{
		store:     store,
		mirror:    mirror,
		batchSize: batchSize,
		logger:    log.ForComponent(log.ComponentWorker),
	}
}

// HandleChange applies one change message to the mirror.
//
// A failed upsert is recorded on the row and left to the periodic pass, so
// the message is acknowledged. A failed delete is returned so the broker
// redelivers it: nothing else remembers deleted records.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.RecordChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		log.FieldRecordID, msg.ID, log.FieldOperation, string(msg.Op))

	if msg.Op == amqp.OpDelete {
		return w.deleteRow(ctx, msg.ID)
	}

	r, err := w.store.Get(ctx, msg.ID)
	if errors.Is(err, records.ErrNotFound) {
		// Removed after the upsert was published.
		return w.deleteRow(ctx, msg.ID)
	}
	if err != nil {
		return fmt.Errorf("get record from storage: %w", err)
	}
	w.syncRecord(ctx, r)
	return nil
}

// ProcessPending mirrors up to one batch of rows not yet synced. It backs
// up the message path when messages are lost or the worker was down.
func (w *MirrorWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSync runs a larger pending pass once, before consuming messages.
func (w *MirrorWorker) StartupSync(ctx context.Context) error {
	n, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	if n == 0 {
		w.logger.InfoContext(ctx, "No pending records found on startup")
	}
	return nil
}

// Run calls ProcessPending every interval until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}

func (w *MirrorWorker) processPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending records: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending records", log.FieldCount, len(pending))
	synced := 0
	for _, r := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if w.syncRecord(ctx, r) {
			synced++
		}
	}
	return synced, nil
}

func (w *MirrorWorker) syncRecord(ctx context.Context, r core.EnergyRecord) bool {
	ref, err := w.mirror.UpsertRecord(ctx, r)
	metrics.IncMirror(log.OpSync, err)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror record",
			log.FieldRecordID, r.ID, log.FieldError, err)
		if markErr := w.store.MarkSyncError(ctx, r.ID, err.Error()); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error",
				log.FieldRecordID, r.ID, log.FieldError, markErr)
		}
		return false
	}

	if err := w.store.MarkSynced(ctx, r.ID); err != nil {
		// The row is in the sheet; the next pending pass rewrites it in place.
		w.logger.ErrorContext(ctx, "Failed to mark as synced",
			log.FieldRecordID, r.ID, log.FieldError, err)
	}
	w.logger.InfoContext(ctx, "Mirrored record", log.FieldRecordID, r.ID, "sheets_ref", ref)
	return true
}

func (w *MirrorWorker) deleteRow(ctx context.Context, id int64) error {
	err := w.mirror.DeleteRecord(ctx, id)
	metrics.IncMirror(log.OpDelete, err)
	if err != nil {
		return fmt.Errorf("delete mirrored record %d: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Removed mirrored record", log.FieldRecordID, id)
	return nil
}
