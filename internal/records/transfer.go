package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"energylog/internal/core"
)

// maxImportBytes bounds an import body.
const maxImportBytes = 10 << 20

// WriteExport writes list as an indented JSON array.
func WriteExport(w io.Writer, list []core.EnergyRecord) error {
	if list == nil {
		list = []core.EnergyRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// ExportFilename names an export download, e.g. "vehicle_24-05-01-0930.json".
func ExportFilename(vehicleID string, at time.Time) string {
	vehicleID = strings.TrimSpace(vehicleID)
	if vehicleID == "" {
		vehicleID = "vehicle"
	}
	return fmt.Sprintf("%s_%s.json", vehicleID, at.Format("06-01-02-1504"))
}

// ParseImport reads a JSON array of records. The whole input must decode and
// every record must validate, otherwise nothing is returned and the error
// wraps ErrMalformedImport.
func ParseImport(r io.Reader) ([]core.EnergyRecord, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrMalformedImport, err)
	}
	if len(data) > maxImportBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrMalformedImport, maxImportBytes)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedImport)
	}

	var list []core.EnergyRecord
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	for i, rec := range list {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedImport, i, err)
		}
	}
	return list, nil
}
