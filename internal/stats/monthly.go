package stats

import (
	"energylog/internal/core"
)

// EntryKind tags a timeline entry.
type EntryKind string

const (
	EntryRecord EntryKind = "record"
	EntryRollup EntryKind = "rollup"
	EntryYear   EntryKind = "year"
)

// UnknownMonth is the month key of records whose date cannot be parsed.
const UnknownMonth = "unknown"

// YearMarker closes a calendar year in the timeline.
type YearMarker struct {
	Year      int     `json:"year"`
	TotalCost float64 `json:"totalCost"`
	Mileage   float64 `json:"mileage"` // sum of the year's monthly mileages
}

// TimelineEntry is one row of the timeline. Exactly one of Record, Rollup
// and Year is set, matching Kind.
type TimelineEntry struct {
	Kind   EntryKind           `json:"kind"`
	Record *core.EnergyRecord  `json:"record,omitempty"`
	Rollup *core.MonthlyRollup `json:"rollup,omitempty"`
	Year   *YearMarker         `json:"year,omitempty"`
}

// BuildTimeline filters and sorts records, then folds them into an ascending
// sequence: each record, its month's rollup after the month's last record,
// and a year marker after the year's last rollup.
//
// A rollup's mileage is the odometer of the month's last record minus the
// odometer of the previous month's last record. The first month subtracts
// opts.StartMileage, or 0. Mileage is not clamped.
//
// Records with unparsable dates form a trailing rollup keyed UnknownMonth.
func BuildTimeline(records []core.EnergyRecord, f Filter, opts Options) []TimelineEntry {
	loc := opts.location()
	sorted := sortDated(f.Apply(records, loc), loc)

	b := &timelineBuilder{
		withRecords: !f.OnlySummary,
		prevMileage: opts.baseline(),
	}
	for _, d := range sorted {
		b.add(d)
	}
	b.finish()
	return b.out
}

// BuildMonthlyRollups returns only the rollups of BuildTimeline, ascending.
func BuildMonthlyRollups(records []core.EnergyRecord, f Filter, opts Options) []core.MonthlyRollup {
	f.OnlySummary = true
	entries := BuildTimeline(records, f, opts)
	out := make([]core.MonthlyRollup, 0, len(entries))
	for _, e := range entries {
		if e.Kind == EntryRollup {
			out = append(out, *e.Rollup)
		}
	}
	return out
}

// Reverse returns the entries most recent first, for display.
func Reverse(entries []TimelineEntry) []TimelineEntry {
	out := make([]TimelineEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

type timelineBuilder struct {
	out         []TimelineEntry
	withRecords bool

	open     bool
	month    string
	year     int
	refuel   []core.EnergyAmount
	charge   []core.EnergyAmount
	odometer float64

	prevMileage float64

	yearOpen    bool
	yearCost    float64
	yearMileage float64
}

func (b *timelineBuilder) add(d dated) {
	key, year := UnknownMonth, 0
	if d.ok {
		key, year = d.at.Format(monthLayout), d.at.Year()
	}

	if b.open && key != b.month {
		b.closeMonth()
		if !d.ok || year != b.year {
			b.closeYear()
		}
	}

	if !b.open {
		b.open = true
		b.month = key
		b.year = year
		b.yearOpen = b.yearOpen || d.ok
	}

	r := d.rec
	switch r.Type {
	case core.Refueling:
		b.refuel = append(b.refuel, core.EnergyAmount{Amount: r.Oil, Cost: r.Cost})
	case core.Charging:
		b.charge = append(b.charge, core.EnergyAmount{Amount: r.Electric, Cost: r.Cost})
	}
	b.odometer = r.KilometerOfDisplay

	if b.withRecords {
		rec := r
		b.out = append(b.out, TimelineEntry{Kind: EntryRecord, Record: &rec})
	}
}

func (b *timelineBuilder) closeMonth() {
	rollup := &core.MonthlyRollup{
		Month:            b.month,
		Mileage:          b.odometer - b.prevMileage,
		RefuelingRecords: nonNil(b.refuel),
		ChargingRecords:  nonNil(b.charge),
	}
	b.out = append(b.out, TimelineEntry{Kind: EntryRollup, Rollup: rollup})

	if b.month != UnknownMonth {
		b.yearCost += rollup.TotalCost()
		b.yearMileage += rollup.Mileage
	}
	b.prevMileage = b.odometer
	b.open = false
	b.refuel, b.charge = nil, nil
	b.odometer = 0
}

func (b *timelineBuilder) closeYear() {
	if !b.yearOpen {
		return
	}
	b.out = append(b.out, TimelineEntry{Kind: EntryYear, Year: &YearMarker{
		Year:      b.year,
		TotalCost: core.Round2(b.yearCost),
		Mileage:   core.Round2(b.yearMileage),
	}})
	b.yearOpen = false
	b.yearCost, b.yearMileage = 0, 0
}

func (b *timelineBuilder) finish() {
	if !b.open {
		return
	}
	unknown := b.month == UnknownMonth
	b.closeMonth()
	if !unknown {
		b.closeYear()
	}
}

func nonNil(list []core.EnergyAmount) []core.EnergyAmount {
	if list == nil {
		return []core.EnergyAmount{}
	}
	return list
}
