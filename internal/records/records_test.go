package records

import (
	"reflect"
	"testing"
	"time"

	"energylog/internal/core"
)

func rec(id int64, cost float64) core.EnergyRecord {
	return core.EnergyRecord{ID: id, Type: core.Refueling, Oil: 10, Cost: cost, Date: core.NewDate(2024, 1, 1)}
}

func TestMergeRecords(t *testing.T) {
	existing := []core.EnergyRecord{rec(1, 10), rec(2, 20), rec(3, 30)}
	incoming := []core.EnergyRecord{rec(4, 40), rec(2, 22), rec(4, 44), rec(5, 50)}

	got := MergeRecords(existing, incoming)
	want := []core.EnergyRecord{rec(1, 10), rec(2, 22), rec(3, 30), rec(4, 44), rec(5, 50)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
	if existing[1].Cost != 20 {
		t.Fatalf("existing slice modified")
	}
}

func TestMergeRecordsEmpty(t *testing.T) {
	if got := MergeRecords(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestIDAllocatorNext(t *testing.T) {
	now := time.UnixMilli(1000)
	a := NewIDAllocator(func() time.Time { return now })

	if id := a.Next(nil); id != 1000 {
		t.Fatalf("first id = %d", id)
	}
	// Same millisecond: bumped.
	if id := a.Next(nil); id != 1001 {
		t.Fatalf("second id = %d", id)
	}
	taken := map[int64]bool{1002: true, 1003: true}
	if id := a.Next(func(id int64) bool { return taken[id] }); id != 1004 {
		t.Fatalf("third id = %d", id)
	}
}

func TestIDAllocatorAssign(t *testing.T) {
	a := NewIDAllocator(func() time.Time { return time.UnixMilli(500) })
	in := []core.EnergyRecord{rec(0, 1), rec(501, 2), rec(0, 3)}
	out := a.Assign(in, func(id int64) bool { return id == 500 })

	got := []int64{out[0].ID, out[1].ID, out[2].ID}
	if want := []int64{502, 501, 503}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	if in[0].ID != 0 {
		t.Fatalf("input modified")
	}
}
