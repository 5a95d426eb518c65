package stats

import (
	"math"
	"testing"

	"energylog/internal/core"
)

func refuel(id int64, date string, oil, cost, odo float64) core.EnergyRecord {
	return core.EnergyRecord{ID: id, Type: core.Refueling, Oil: oil, Cost: cost, KilometerOfDisplay: odo, Date: core.DateFromString(date)}
}

func charge(id int64, date string, kwh, cost, odo float64) core.EnergyRecord {
	return core.EnergyRecord{ID: id, Type: core.Charging, Electric: kwh, Cost: cost, KilometerOfDisplay: odo, Date: core.DateFromString(date)}
}

func ids(records []core.EnergyRecord) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}
