package stats

import (
	"reflect"
	"testing"

	"energylog/internal/core"
)

// Scenario A.
func TestYearlyReportFuelPrices(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2024-01-01", 10, 50, 1000),
		refuel(2, "2024-02-01", 20, 80, 1400),
	}
	r := ComputeYearlyReport(records, 2024, Options{})
	if r == nil {
		t.Fatal("expected a report")
	}
	assertFloat(t, "avgFuelPrice", r.AvgFuelPrice, 4.5)
	if r.MinPriceRecord == nil || r.MinPriceRecord.Oil != 20 {
		t.Fatalf("minPriceRecord = %+v", r.MinPriceRecord)
	}
	if r.MaxPriceRecord == nil || r.MaxPriceRecord.Oil != 10 {
		t.Fatalf("maxPriceRecord = %+v", r.MaxPriceRecord)
	}
	if r.MaxVolumeRecord == nil || r.MaxVolumeRecord.ID != 2 {
		t.Fatalf("maxVolumeRecord = %+v", r.MaxVolumeRecord)
	}
	if r.MaxPriceRecord.UnitPrice == nil || *r.MaxPriceRecord.UnitPrice != 5 {
		t.Fatalf("maxPriceRecord unit price = %v", r.MaxPriceRecord.UnitPrice)
	}
	want := []core.PricePoint{
		{Date: core.DateFromString("2024-01-01"), Price: 5},
		{Date: core.DateFromString("2024-02-01"), Price: 4},
	}
	if !reflect.DeepEqual(r.FuelPriceTrend, want) {
		t.Fatalf("trend = %+v", r.FuelPriceTrend)
	}
	assertFloat(t, "totalCost", r.TotalCost, 130)
	assertFloat(t, "totalOil", r.TotalOil, 30)
	assertFloat(t, "totalMileage", r.TotalMileage, 400)
	assertFloat(t, "avgCostPer100Km", r.AvgCostPer100Km, 32.5)
	if r.RefuelingCount != 2 || r.ChargingCount != 0 {
		t.Fatalf("counts = %d/%d", r.RefuelingCount, r.ChargingCount)
	}
	if r.MaxElectricRecord != nil || r.EstimatedCapacity != 0 || len(r.ElectricValues) != 0 {
		t.Fatalf("unexpected charging data: %+v", r)
	}
}

// Scenario B.
func TestYearlyReportCapacity(t *testing.T) {
	records := []core.EnergyRecord{
		charge(1, "2024-03-01", 10, 5, 0),
		charge(2, "2024-03-02", 50, 25, 0),
		charge(3, "2024-03-03", 10, 5, 0),
		charge(4, "2024-03-04", 10, 5, 0),
		charge(5, "2024-03-05", 10, 5, 0),
		charge(6, "2024-03-06", 0, 0, 0),
	}
	r := ComputeYearlyReport(records, 2024, Options{})
	if want := []float64{10, 10, 10, 10, 50}; !reflect.DeepEqual(r.ElectricValues, want) {
		t.Fatalf("electricValues = %v", r.ElectricValues)
	}
	assertFloat(t, "estimatedCapacity", r.EstimatedCapacity, 24)
	assertFloat(t, "totalElectric", r.TotalElectric, 90)
	if r.MaxElectricRecord == nil || r.MaxElectricRecord.ID != 2 {
		t.Fatalf("maxElectricRecord = %+v", r.MaxElectricRecord)
	}
	if r.MaxElectricRecord.UnitPrice != nil {
		t.Fatalf("charging records carry no unit price")
	}
	if r.ChargingCount != 6 {
		t.Fatalf("chargingCount = %d", r.ChargingCount)
	}
}

func TestEstimateCapacity(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"only zeros", []float64{0, 0}, 0},
		{"single", []float64{40}, 48},
		{"four keeps all", []float64{10, 20, 30, 40}, 30},
		{"ten drops two", []float64{1, 2, 30, 30, 30, 30, 30, 30, 30, 30}, 36},
		{"unsorted input", []float64{50, 10, 10, 10, 10}, 24},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertFloat(t, "capacity", EstimateCapacity(tc.values), tc.want)
		})
	}
}

func TestYearlyReportNoData(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2023-12-31", 10, 50, 100),
		refuel(2, "bad date", 10, 50, 100),
	}
	if r := ComputeYearlyReport(records, 2024, Options{}); r != nil {
		t.Fatalf("expected nil, got %+v", r)
	}
	if r := ComputeYearlyReport(nil, 2024, Options{}); r != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestYearlyReportMileageNeverNegative(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2024-01-01", 10, 50, 90000),
		refuel(2, "2024-06-01", 10, 50, 120),
	}
	r := ComputeYearlyReport(records, 2024, Options{})
	if r.TotalMileage != 0 || r.AvgCostPer100Km != 0 {
		t.Fatalf("mileage = %v, avg = %v", r.TotalMileage, r.AvgCostPer100Km)
	}
}

func TestYearlyReportTieBreaksAndZeroOil(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(3, "2024-03-01", 30, 210, 300),
		refuel(1, "2024-01-01", 30, 240, 100),
		refuel(2, "2024-02-01", 0, 100, 200),
		charge(4, "2024-04-01", 45, 20, 400),
		charge(5, "2024-05-01", 45, 20, 500),
	}
	r := ComputeYearlyReport(records, 2024, Options{})
	if r.MaxVolumeRecord.ID != 1 {
		t.Fatalf("first equal volume must win, got %d", r.MaxVolumeRecord.ID)
	}
	if r.MaxElectricRecord.ID != 4 {
		t.Fatalf("first equal charge must win, got %d", r.MaxElectricRecord.ID)
	}
	if r.MinPriceRecord.ID != 2 {
		t.Fatalf("zero-oil record has unit price 0, got min %d", r.MinPriceRecord.ID)
	}
	// 8 and 7 per litre, the zero-oil record is left out of the mean and trend.
	assertFloat(t, "avgFuelPrice", r.AvgFuelPrice, 7.5)
	if len(r.FuelPriceTrend) != 2 {
		t.Fatalf("trend = %+v", r.FuelPriceTrend)
	}
}

func TestYearlyReportIgnoresOtherYears(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2023-12-31", 100, 1000, 50),
		refuel(2, "2024-01-01", 10, 50, 100),
		charge(3, "2024-12-31", 33.333, 20, 300),
		charge(4, "2024-07-01", 11.111, 5, 200),
		refuel(5, "2025-01-01", 100, 1000, 400),
	}
	r := ComputeYearlyReport(records, 2024, Options{})
	assertFloat(t, "totalCost", r.TotalCost, 75)
	assertFloat(t, "totalMileage", r.TotalMileage, 200)
	assertFloat(t, "totalElectric", r.TotalElectric, 44.44)
	if r.RefuelingCount != 1 || r.ChargingCount != 2 {
		t.Fatalf("counts = %d/%d", r.RefuelingCount, r.ChargingCount)
	}
}

func TestYearlyReportIdempotent(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(2, "2024-02-01", 20, 80, 1400),
		charge(3, "2024-02-15", 40, 18, 1600),
		refuel(1, "2024-01-01", 10, 50, 1000),
	}
	snapshot := append([]core.EnergyRecord(nil), records...)

	first := ComputeYearlyReport(records, 2024, Options{})
	second := ComputeYearlyReport(records, 2024, Options{})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reports differ:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(records, snapshot) {
		t.Fatalf("input records were modified")
	}
}

func TestYearlyReportRounded(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2024-01-01", 30.333, 200.25, 100),
		refuel(2, "2024-02-01", 12.5, 100.125, 400),
	}
	r := ComputeYearlyReport(records, 2024, Options{}).Rounded()
	assertFloat(t, "totalCost", r.TotalCost, 300.38)
	assertFloat(t, "totalOil", r.TotalOil, 42.83)
	assertFloat(t, "totalMileage", r.TotalMileage, 300)
	if r.MaxVolumeRecord.Oil != 30.33 {
		t.Fatalf("maxVolumeRecord.oil = %v", r.MaxVolumeRecord.Oil)
	}
}

func TestYearsWithData(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2023-05-01", 1, 1, 0),
		refuel(2, "2025-05-01", 1, 1, 0),
		refuel(3, "x", 1, 1, 0),
		refuel(4, "2023-06-01", 1, 1, 0),
	}
	if got, want := YearsWithData(records, Options{}), []int{2025, 2023}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
