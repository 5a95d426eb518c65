package stats

import (
	"math"

	"energylog/internal/core"
)

// KWhPerLitre converts between fuel and electricity for the equivalence figures.
const KWhPerLitre = 3.5

// CostStatistics is the all-time cost overview.
type CostStatistics struct {
	TotalKilometers    float64 `json:"totalKilometers"`
	RefuelingCost      float64 `json:"refuelingCost"`
	ChargingCost       float64 `json:"chargingCost"`
	TotalCost          float64 `json:"totalCost"`
	TotalOil           float64 `json:"totalOil"`
	TotalElectric      float64 `json:"totalElectric"`
	AvgCostPer100Km    float64 `json:"avgCostPer100Km"`
	EquivalentOil      float64 `json:"equivalentOil"`
	EquivalentElectric float64 `json:"equivalentElectric"`
	RecordCount        int     `json:"recordCount"`
	ExcludedLatest     bool    `json:"excludedLatest"`
}

// ComputeCostStatistics sums cost and energy over all records.
//
// Distance is the latest odometer, less opts.StartMileage when set (never
// below zero). With opts.OptimizeCost, a chronologically last refueling record
// is left out of the sums: the fuel it bought has not been driven yet.
func ComputeCostStatistics(records []core.EnergyRecord, opts Options) CostStatistics {
	sorted := SortChronologically(records, opts.location())

	var stats CostStatistics
	if len(sorted) == 0 {
		return stats
	}

	last := sorted[len(sorted)-1]
	stats.TotalKilometers = last.KilometerOfDisplay
	if opts.StartMileage != nil {
		stats.TotalKilometers = math.Max(0, last.KilometerOfDisplay-*opts.StartMileage)
	}

	counted := sorted
	if opts.OptimizeCost && last.Type == core.Refueling {
		counted = sorted[:len(sorted)-1]
		stats.ExcludedLatest = true
	}

	for _, r := range counted {
		switch r.Type {
		case core.Refueling:
			stats.RefuelingCost += r.Cost
			stats.TotalOil += r.Oil
		case core.Charging:
			stats.ChargingCost += r.Cost
			stats.TotalElectric += r.Electric
		}
	}
	stats.RecordCount = len(counted)
	stats.TotalCost = stats.RefuelingCost + stats.ChargingCost
	if stats.TotalKilometers > 0 {
		stats.AvgCostPer100Km = stats.TotalCost / stats.TotalKilometers * 100
	}
	stats.EquivalentOil = stats.TotalOil + stats.TotalElectric/KWhPerLitre
	stats.EquivalentElectric = stats.TotalElectric + stats.TotalOil*KWhPerLitre
	return stats
}

// Rounded returns a copy with every figure rounded to two decimals.
func (s CostStatistics) Rounded() CostStatistics {
	out := s
	out.TotalKilometers = core.Round2(s.TotalKilometers)
	out.RefuelingCost = core.Round2(s.RefuelingCost)
	out.ChargingCost = core.Round2(s.ChargingCost)
	out.TotalCost = core.Round2(s.TotalCost)
	out.TotalOil = core.Round2(s.TotalOil)
	out.TotalElectric = core.Round2(s.TotalElectric)
	out.AvgCostPer100Km = core.Round2(s.AvgCostPer100Km)
	out.EquivalentOil = core.Round2(s.EquivalentOil)
	out.EquivalentElectric = core.Round2(s.EquivalentElectric)
	return out
}
