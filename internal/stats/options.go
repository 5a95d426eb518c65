// Package stats turns a snapshot of energy records into ordered summaries:
// the monthly timeline, yearly reports, cost statistics and period series.
//
// Every function here is a pure transform of its arguments. Nothing is cached
// and the input slices are never modified.
package stats

import "time"

// Options carries the caller's calendar and odometer settings.
type Options struct {
	// Location interprets zone-less dates and calendar boundaries. Nil means UTC.
	Location *time.Location
	// StartMileage is the odometer reading before the first record, if known.
	StartMileage *float64
	// OptimizeCost drops a trailing refueling record from cost statistics.
	OptimizeCost bool
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) baseline() float64 {
	if o.StartMileage == nil {
		return 0
	}
	return *o.StartMileage
}

// Mileage is a convenience for building Options.StartMileage.
func Mileage(v float64) *float64 {
	return &v
}
