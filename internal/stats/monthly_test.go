package stats

import (
	"reflect"
	"testing"

	"energylog/internal/core"
)

func kinds(entries []TimelineEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		switch e.Kind {
		case EntryRecord:
			out[i] = "r"
		case EntryRollup:
			out[i] = "m:" + e.Rollup.Month
		case EntryYear:
			out[i] = "y"
		}
	}
	return out
}

func TestBuildTimelineOrder(t *testing.T) {
	records := []core.EnergyRecord{
		charge(4, "2025-01-03", 30, 15, 900),
		refuel(1, "2024-01-05", 30, 240, 100),
		refuel(5, "broken", 10, 80, 950),
		charge(2, "2024-01-20", 40, 20, 300),
		refuel(3, "2024-02-11", 35, 270, 600),
	}
	entries := BuildTimeline(records, Filter{}, Options{})

	want := []string{"r", "r", "m:2024-01", "r", "m:2024-02", "y", "r", "m:2025-01", "y", "r", "m:" + UnknownMonth}
	if got := kinds(entries); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	jan := entries[2].Rollup
	assertFloat(t, "jan mileage", jan.Mileage, 300)
	if len(jan.RefuelingRecords) != 1 || len(jan.ChargingRecords) != 1 {
		t.Fatalf("jan groups: %+v", jan)
	}
	if jan.ChargingRecords[0] != (core.EnergyAmount{Amount: 40, Cost: 20}) {
		t.Fatalf("jan charging: %+v", jan.ChargingRecords)
	}
	assertFloat(t, "feb mileage", entries[4].Rollup.Mileage, 300)

	y2024 := entries[5].Year
	if y2024.Year != 2024 {
		t.Fatalf("year marker = %d", y2024.Year)
	}
	assertFloat(t, "2024 cost", y2024.TotalCost, 530)
	assertFloat(t, "2024 mileage", y2024.Mileage, 600)

	assertFloat(t, "2025-01 mileage", entries[7].Rollup.Mileage, 300)
	assertFloat(t, "unknown mileage", entries[10].Rollup.Mileage, 50)
}

// Scenario C: one month, odometers 100, 150, 210, baseline 90.
func TestBuildTimelineBaseline(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2024-05-01", 10, 80, 100),
		charge(2, "2024-05-10", 20, 10, 150),
		refuel(3, "2024-05-20", 10, 80, 210),
	}
	rollups := BuildMonthlyRollups(records, Filter{}, Options{StartMileage: Mileage(90)})
	if len(rollups) != 1 {
		t.Fatalf("got %d rollups", len(rollups))
	}
	assertFloat(t, "mileage", rollups[0].Mileage, 120)
	assertFloat(t, "total cost", rollups[0].TotalCost(), 170)
	assertFloat(t, "total oil", rollups[0].TotalOil(), 20)
	assertFloat(t, "total electric", rollups[0].TotalElectric(), 20)

	rollups = BuildMonthlyRollups(records, Filter{}, Options{})
	assertFloat(t, "mileage without baseline", rollups[0].Mileage, 210)
}

func TestBuildTimelineNegativeMileagePassesThrough(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2024-01-10", 10, 80, 5000),
		refuel(2, "2024-02-10", 10, 80, 100),
	}
	rollups := BuildMonthlyRollups(records, Filter{}, Options{})
	assertFloat(t, "feb mileage", rollups[1].Mileage, -4900)
}

func TestBuildTimelineOnlySummary(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2024-01-10", 10, 80, 100),
		refuel(2, "2024-02-10", 10, 80, 200),
	}
	got := kinds(BuildTimeline(records, Filter{OnlySummary: true}, Options{}))
	if want := []string{"m:2024-01", "m:2024-02", "y"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBuildTimelineEmpty(t *testing.T) {
	if got := BuildTimeline(nil, Filter{}, Options{}); len(got) != 0 {
		t.Fatalf("expected empty timeline, got %d entries", len(got))
	}
	if got := BuildMonthlyRollups(nil, Filter{}, Options{}); len(got) != 0 {
		t.Fatalf("expected no rollups, got %d", len(got))
	}
}

func TestBuildTimelineRollupsAscending(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2024-12-01", 1, 1, 10),
		refuel(2, "2023-06-01", 1, 1, 20),
		charge(3, "2024-01-01", 1, 1, 30),
		charge(4, "2023-06-15", 1, 1, 40),
		charge(5, "2022-11-30", 1, 1, 50),
	}
	rollups := BuildMonthlyRollups(records, Filter{}, Options{})
	for i := 1; i < len(rollups); i++ {
		if rollups[i-1].Month >= rollups[i].Month {
			t.Fatalf("rollups out of order: %s then %s", rollups[i-1].Month, rollups[i].Month)
		}
	}
	if len(rollups) != 4 {
		t.Fatalf("got %d rollups, want 4", len(rollups))
	}
}

func TestReverse(t *testing.T) {
	records := []core.EnergyRecord{
		refuel(1, "2024-01-10", 10, 80, 100),
		refuel(2, "2024-02-10", 10, 80, 200),
	}
	asc := BuildTimeline(records, Filter{}, Options{})
	desc := Reverse(asc)
	want := []string{"y", "m:2024-02", "r", "m:2024-01", "r"}
	if got := kinds(desc); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if desc[2].Record.ID != 2 || desc[4].Record.ID != 1 {
		t.Fatalf("records misplaced after reverse")
	}
	if asc[0].Kind != EntryRecord || asc[0].Record.ID != 1 {
		t.Fatalf("Reverse modified its input")
	}
}
