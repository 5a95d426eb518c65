// Package sheets defines the spreadsheet mirror the worker keeps in step
// with the record collection.
package sheets

import (
	"context"

	"energylog/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordMirror keeps one spreadsheet row per record, keyed by id.
	RecordMirror interface {
		// UpsertRecord writes r over its existing row or appends a new one.
		UpsertRecord(ctx context.Context, r core.EnergyRecord) (rowRef string, err error)
		// DeleteRecord removes the row for id. A missing row is not an error.
		DeleteRecord(ctx context.Context, id int64) error
	}

	// RecordLister reads the mirrored records back.
	RecordLister interface {
		ListRecords(ctx context.Context) ([]core.EnergyRecord, error)
	}
)

// Header is the first row of a mirror sheet. Column A holds the record id.
var Header = []string{"ID", "Type", "Date", "Oil", "Electric", "Cost", "Odometer"}
