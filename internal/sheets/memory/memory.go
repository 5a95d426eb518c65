// Package memory is an in-process spreadsheet mirror, used when no Google
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"energylog/internal/core"
	ports "energylog/internal/sheets"
)

var (
	_ ports.RecordMirror = (*Mirror)(nil)
	_ ports.RecordLister = (*Mirror)(nil)
)

// Mirror keeps rows in insertion order, like a sheet without a header.
type Mirror struct {
	mu   sync.Mutex
	rows []core.EnergyRecord

	failNext int
}

func New() *Mirror {
	return &Mirror{}
}

// FailNext makes the next n mirror operations return an error.
func (m *Mirror) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

func (m *Mirror) UpsertRecord(_ context.Context, r core.EnergyRecord) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failLocked(); err != nil {
		return "", err
	}
	for i := range m.rows {
		if m.rows[i].ID == r.ID {
			m.rows[i] = r
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	m.rows = append(m.rows, r)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) DeleteRecord(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failLocked(); err != nil {
		return err
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Mirror) ListRecords(_ context.Context) ([]core.EnergyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.EnergyRecord(nil), m.rows...), nil
}

func (m *Mirror) failLocked() error {
	if m.failNext > 0 {
		m.failNext--
		return errors.New("mirror unavailable")
	}
	return nil
}
