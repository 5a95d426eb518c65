package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync/atomic"

	"energylog/internal/core"
	"energylog/internal/log"
	"energylog/internal/metrics"
	"energylog/internal/records"
)

// ChangePublisher announces record writes to downstream consumers.
type ChangePublisher interface {
	PublishUpsert(ctx context.Context, id int64) error
	PublishDelete(ctx context.Context, id int64) error
}

// RecordService orchestrates record writes across the collection and the
// change publisher. The collection is written first; a failed publish is
// logged and never fails the write.
type RecordService struct {
	store     records.Collection
	publisher ChangePublisher
	version   atomic.Uint64
	logger    *log.Logger
}

// NewRecordService wires store and an optional publisher. A nil interface or
// a typed nil pointer both disable publishing.
func NewRecordService(store records.Collection, publisher ChangePublisher) *RecordService {
	if isNil(publisher) {
		publisher = nil
	}
	return &RecordService{
		store:     store,
		publisher: publisher,
		logger:    log.ForComponent(log.ComponentRecords),
	}
}

// Version changes after every successful write. Caches key on it.
func (s *RecordService) Version() uint64 {
	return s.version.Load()
}

func (s *RecordService) All(ctx context.Context) ([]core.EnergyRecord, error) {
	return s.store.All(ctx)
}

func (s *RecordService) Get(ctx context.Context, id int64) (core.EnergyRecord, error) {
	return s.store.Get(ctx, id)
}

// Create stores r, assigning an id when r.ID is zero.
func (s *RecordService) Create(ctx context.Context, r core.EnergyRecord) (core.EnergyRecord, error) {
	if err := r.Validate(); err != nil {
		return core.EnergyRecord{}, err
	}
	stored, err := s.store.Append(ctx, r)
	metrics.IncRecordWrite(log.OpCreate, err)
	if err != nil {
		return core.EnergyRecord{}, fmt.Errorf("save record: %w", err)
	}
	s.version.Add(1)

	s.logger.InfoContext(ctx, "Record created",
		log.NewFields().WithRecord(stored.ID, stored.Type.String(), stored.Cost).ToSlice()...)
	s.publishUpsert(ctx, stored.ID)
	return stored, nil
}

// Import merges incoming into the collection and announces one upsert per
// merged record. Nothing is stored when any record is invalid.
func (s *RecordService) Import(ctx context.Context, incoming []core.EnergyRecord) ([]core.EnergyRecord, error) {
	if err := records.ValidateAll(incoming); err != nil {
		return nil, fmt.Errorf("%w: %w", records.ErrMalformedImport, err)
	}
	stored, err := s.store.Merge(ctx, incoming)
	metrics.IncRecordWrite(log.OpImport, err)
	if err != nil {
		return nil, fmt.Errorf("merge records: %w", err)
	}
	s.version.Add(1)

	s.logger.InfoContext(ctx, "Records imported", log.FieldCount, len(stored))
	for _, r := range stored {
		s.publishUpsert(ctx, r.ID)
	}
	return stored, nil
}

// Replace swaps the record stored under id for r.
func (s *RecordService) Replace(ctx context.Context, id int64, r core.EnergyRecord) (core.EnergyRecord, error) {
	if err := r.Validate(); err != nil {
		return core.EnergyRecord{}, err
	}
	stored, err := s.store.Replace(ctx, id, r)
	metrics.IncRecordWrite(log.OpUpdate, err)
	if err != nil {
		return core.EnergyRecord{}, fmt.Errorf("replace record %d: %w", id, err)
	}
	s.version.Add(1)

	s.logger.InfoContext(ctx, "Record replaced",
		log.NewFields().WithRecord(stored.ID, stored.Type.String(), stored.Cost).ToSlice()...)
	s.publishUpsert(ctx, stored.ID)
	return stored, nil
}

func (s *RecordService) Remove(ctx context.Context, id int64) error {
	err := s.store.Remove(ctx, id)
	metrics.IncRecordWrite(log.OpDelete, err)
	if err != nil {
		return fmt.Errorf("remove record %d: %w", id, err)
	}
	s.version.Add(1)

	s.logger.InfoContext(ctx, "Record removed", log.FieldRecordID, id)
	if s.publisher == nil {
		return nil
	}
	err = s.publisher.PublishDelete(ctx, id)
	metrics.IncPublish(log.OpDelete, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish delete message",
			log.FieldRecordID, id, log.FieldError, err)
	}
	return nil
}

func (s *RecordService) publishUpsert(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishUpsert(ctx, id)
	metrics.IncPublish(log.OpSync, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish upsert message",
			log.FieldRecordID, id, log.FieldError, err)
	}
}

// Close closes the store and the publisher when they hold resources.
func (s *RecordService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}

func isNil(p ChangePublisher) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
