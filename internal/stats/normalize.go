package stats

import (
	"sort"
	"time"

	"energylog/internal/core"
)

// dated pairs a record with its resolved date.
type dated struct {
	rec core.EnergyRecord
	at  time.Time
	ok  bool
}

func resolve(records []core.EnergyRecord, loc *time.Location) []dated {
	out := make([]dated, len(records))
	for i, r := range records {
		t, ok := r.Date.Time(loc)
		out[i] = dated{rec: r, at: t, ok: ok}
	}
	return out
}

func sortDated(records []core.EnergyRecord, loc *time.Location) []dated {
	out := resolve(records, loc)
	sort.SliceStable(out, func(i, j int) bool {
		return compareDated(out[i], out[j]) < 0
	})
	return out
}

func compareDated(a, b dated) int {
	switch {
	case !a.ok && !b.ok:
		return 0
	case !a.ok:
		return 1
	case !b.ok:
		return -1
	default:
		return a.at.Compare(b.at)
	}
}

// Compare orders two records by date. Unparsable dates sort after valid ones
// and compare equal to each other.
func Compare(a, b core.EnergyRecord, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	da, oka := a.Date.Time(loc)
	db, okb := b.Date.Time(loc)
	return compareDated(dated{at: da, ok: oka}, dated{at: db, ok: okb})
}

// SortChronologically returns a copy of records in ascending date order.
// Records whose date cannot be parsed keep their relative order at the end.
func SortChronologically(records []core.EnergyRecord, loc *time.Location) []core.EnergyRecord {
	if loc == nil {
		loc = time.UTC
	}
	sorted := sortDated(records, loc)
	out := make([]core.EnergyRecord, len(sorted))
	for i, d := range sorted {
		out[i] = d.rec
	}
	return out
}
