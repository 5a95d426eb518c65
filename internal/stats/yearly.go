package stats

import (
	"math"
	"sort"

	"energylog/internal/core"
)

const (
	capacityTrimRatio = 0.2
	capacityMargin    = 1.2
)

// ComputeYearlyReport aggregates the records dated in year. It returns nil
// when no record falls in that year. Records with unparsable dates are ignored.
//
// Figures are left unrounded except TotalElectric and the trend prices;
// call Rounded on the result before presenting it.
func ComputeYearlyReport(records []core.EnergyRecord, year int, opts Options) *core.YearlyReport {
	loc := opts.location()

	var inYear []core.EnergyRecord
	for _, d := range sortDated(records, loc) {
		if d.ok && d.at.Year() == year {
			inYear = append(inYear, d.rec)
		}
	}
	if len(inYear) == 0 {
		return nil
	}

	report := &core.YearlyReport{
		Year:           year,
		ElectricValues: []float64{},
		FuelPriceTrend: []core.PricePoint{},
	}

	var (
		maxPrice, minPrice, maxVolume, maxElectric *core.EnergyRecord
		priceSum                                   float64
		priceCount                                 int
		electricSum                                float64
	)
	for i := range inYear {
		r := &inYear[i]
		report.TotalCost += r.Cost

		switch r.Type {
		case core.Refueling:
			report.RefuelingCount++
			report.TotalOil += r.Oil

			up := r.UnitPrice()
			if maxPrice == nil || up > maxPrice.UnitPrice() {
				maxPrice = r
			}
			if minPrice == nil || up < minPrice.UnitPrice() {
				minPrice = r
			}
			if maxVolume == nil || r.Oil > maxVolume.Oil {
				maxVolume = r
			}
			if up > 0 {
				priceSum += up
				priceCount++
				report.FuelPriceTrend = append(report.FuelPriceTrend, core.PricePoint{
					Date:  r.Date,
					Price: core.Round2(up),
				})
			}

		case core.Charging:
			report.ChargingCount++
			electricSum += r.Electric

			if maxElectric == nil || r.Electric > maxElectric.Electric {
				maxElectric = r
			}
			if r.Electric > 0 {
				report.ElectricValues = append(report.ElectricValues, r.Electric)
			}
		}
	}
	report.TotalElectric = core.Round2(electricSum)

	first, last := inYear[0].KilometerOfDisplay, inYear[len(inYear)-1].KilometerOfDisplay
	report.TotalMileage = math.Max(0, last-first)
	if report.TotalMileage > 0 {
		report.AvgCostPer100Km = report.TotalCost / report.TotalMileage * 100
	}

	if priceCount > 0 {
		report.AvgFuelPrice = priceSum / float64(priceCount)
	}

	sort.Float64s(report.ElectricValues)
	report.EstimatedCapacity = EstimateCapacity(report.ElectricValues)

	report.MaxPriceRecord = reportRecord(maxPrice, true)
	report.MinPriceRecord = reportRecord(minPrice, true)
	report.MaxVolumeRecord = reportRecord(maxVolume, true)
	report.MaxElectricRecord = reportRecord(maxElectric, false)
	return report
}

// EstimateCapacity approximates the full battery capacity from charge amounts.
// The lowest 20% of the positive values (by count, rounded down) are dropped
// since top-up charges bias the sample low, and the mean of the rest is
// scaled by 1.2. It returns 0 when no value is positive.
func EstimateCapacity(values []float64) float64 {
	positive := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	if len(positive) == 0 {
		return 0
	}
	sort.Float64s(positive)

	kept := positive[int(math.Floor(float64(len(positive))*capacityTrimRatio)):]
	var sum float64
	for _, v := range kept {
		sum += v
	}
	return sum / float64(len(kept)) * capacityMargin
}

// YearsWithData lists the calendar years that have at least one record,
// most recent first.
func YearsWithData(records []core.EnergyRecord, opts Options) []int {
	loc := opts.location()
	seen := make(map[int]bool)
	var years []int
	for _, r := range records {
		t, ok := r.Date.Time(loc)
		if !ok || seen[t.Year()] {
			continue
		}
		seen[t.Year()] = true
		years = append(years, t.Year())
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

func reportRecord(r *core.EnergyRecord, withUnitPrice bool) *core.ReportRecord {
	if r == nil {
		return nil
	}
	return core.NewReportRecord(*r, withUnitPrice)
}
