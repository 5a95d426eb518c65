package stats

import (
	"errors"
	"fmt"
	"time"

	"energylog/internal/core"
)

const (
	// TypeAll disables the energy type filter.
	TypeAll = "all"

	monthLayout = "2006-01"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Filter selects the records shown in the timeline.
type Filter struct {
	EnergyType  string `json:"energyType"` // all | refueling | charging, empty means all
	Month       string `json:"month"`      // "2006-01", empty means every month
	OnlySummary bool   `json:"onlySummary"`
}

// Validate reports malformed filter values. Match never fails, it just
// matches nothing when the month cannot be parsed.
func (f Filter) Validate() error {
	switch f.EnergyType {
	case "", TypeAll, string(core.Refueling), string(core.Charging):
	default:
		return fmt.Errorf("%w: energy type %q", ErrInvalidFilter, f.EnergyType)
	}
	if f.Month != "" {
		if _, err := time.Parse(monthLayout, f.Month); err != nil {
			return fmt.Errorf("%w: month %q", ErrInvalidFilter, f.Month)
		}
	}
	return nil
}

// Match reports whether r passes both the type and the month filter.
// With a month filter active, records with unparsable dates never match.
func (f Filter) Match(r core.EnergyRecord, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	return newMatcher(f, loc)(r)
}

// Apply returns the matching records in input order.
func (f Filter) Apply(records []core.EnergyRecord, loc *time.Location) []core.EnergyRecord {
	if loc == nil {
		loc = time.UTC
	}
	match := newMatcher(f, loc)
	out := make([]core.EnergyRecord, 0, len(records))
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

func newMatcher(f Filter, loc *time.Location) func(core.EnergyRecord) bool {
	typeOK := func(r core.EnergyRecord) bool {
		return f.EnergyType == "" || f.EnergyType == TypeAll || string(r.Type) == f.EnergyType
	}
	if f.Month == "" {
		return typeOK
	}

	want, err := time.ParseInLocation(monthLayout, f.Month, loc)
	if err != nil {
		return func(core.EnergyRecord) bool { return false }
	}
	return func(r core.EnergyRecord) bool {
		if !typeOK(r) {
			return false
		}
		t, ok := r.Date.Time(loc)
		return ok && t.Year() == want.Year() && t.Month() == want.Month()
	}
}
