package stats

import (
	"fmt"
	"sort"

	"energylog/internal/core"
)

// QuarterCost is the spend and distance of one calendar quarter.
type QuarterCost struct {
	Quarter         string  `json:"quarter"` // "2024-Q1"
	Mileage         float64 `json:"mileage"`
	TotalCost       float64 `json:"totalCost"`
	AvgCostPer100Km float64 `json:"avgCostPer100Km"`
}

// CurvePoint is the cumulative cost per 100 km once the odometer reached Range.
type CurvePoint struct {
	Range float64 `json:"range"`
	Value float64 `json:"value"`
}

// MonthlyCount is the number of events of each type in a month.
type MonthlyCount struct {
	Month     string `json:"month"` // "2006-01"
	Refueling int    `json:"refueling"`
	Charging  int    `json:"charging"`
}

const curveStep = 100

// QuarterlyCosts groups records by calendar quarter. A quarter's mileage is
// its last odometer minus the odometer of the record just before the quarter,
// or opts.StartMileage for the first quarter. Quarters without positive
// mileage are omitted. Records with unparsable dates are ignored.
func QuarterlyCosts(records []core.EnergyRecord, opts Options) []QuarterCost {
	loc := opts.location()

	var valid []dated
	for _, d := range sortDated(records, loc) {
		if d.ok {
			valid = append(valid, d)
		}
	}

	out := []QuarterCost{}
	for start := 0; start < len(valid); {
		key := quarterKey(valid[start])
		end := start
		var cost float64
		for end < len(valid) && quarterKey(valid[end]) == key {
			cost += valid[end].rec.Cost
			end++
		}

		before := opts.baseline()
		if start > 0 {
			before = valid[start-1].rec.KilometerOfDisplay
		}
		mileage := valid[end-1].rec.KilometerOfDisplay - before
		if mileage > 0 {
			out = append(out, QuarterCost{
				Quarter:         key,
				Mileage:         mileage,
				TotalCost:       core.Round2(cost),
				AvgCostPer100Km: core.Round2(cost / mileage * 100),
			})
		}
		start = end
	}
	return out
}

func quarterKey(d dated) string {
	return fmt.Sprintf("%d-Q%d", d.at.Year(), (int(d.at.Month())-1)/3+1)
}

// CostCurve walks the records in odometer order, accumulating cost. Each time
// the odometer passes another 100 km mark, one point per mark crossed is
// emitted with the running cost per 100 km. Points of 100 or more are dropped
// as start-up noise.
func CostCurve(records []core.EnergyRecord) []CurvePoint {
	sorted := append([]core.EnergyRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].KilometerOfDisplay < sorted[j].KilometerOfDisplay
	})

	var (
		points  []CurvePoint
		running float64
	)
	for _, r := range sorted {
		running += r.Cost
		odo := r.KilometerOfDisplay
		next := float64(len(points) * curveStep)
		if odo <= 0 || odo < next {
			continue
		}
		value := core.Round2(running / odo * 100)
		marks := int((odo - next) / curveStep)
		for i := 0; i < marks; i++ {
			points = append(points, CurvePoint{Range: float64(len(points) * curveStep), Value: value})
		}
	}

	out := []CurvePoint{}
	for _, p := range points {
		if p.Value < 100 {
			out = append(out, p)
		}
	}
	return out
}

// MonthlyCounts counts refueling and charging events per month, ascending.
// Records with unparsable dates are ignored.
func MonthlyCounts(records []core.EnergyRecord, opts Options) []MonthlyCount {
	loc := opts.location()
	out := []MonthlyCount{}
	for _, d := range sortDated(records, loc) {
		if !d.ok {
			continue
		}
		key := d.at.Format(monthLayout)
		if len(out) == 0 || out[len(out)-1].Month != key {
			out = append(out, MonthlyCount{Month: key})
		}
		c := &out[len(out)-1]
		switch d.rec.Type {
		case core.Refueling:
			c.Refueling++
		case core.Charging:
			c.Charging++
		}
	}
	return out
}
