package share

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"energylog/internal/core"
)

func sampleReport() core.YearlyReport {
	up := 4.123456
	low := 3.5
	return core.YearlyReport{
		Year:            2024,
		TotalCost:       1234.56,
		TotalMileage:    8000,
		AvgCostPer100Km: 15.432,
		TotalOil:        250.5,
		TotalElectric:   410.25,
		RefuelingCount:  7,
		ChargingCount:   12,
		MaxPriceRecord: &core.ReportRecord{
			ID: 1700000000001, Type: core.Refueling, Oil: 30, Cost: 123.7, KilometerOfDisplay: 5100,
			Date: core.DateFromString("2024-05-01"), UnitPrice: &up,
		},
		MinPriceRecord: &core.ReportRecord{
			ID: 1700000000002, Type: core.Refueling, Oil: 40, Cost: 140, KilometerOfDisplay: 7000,
			Date: core.DateFromMillis(1717200000000), UnitPrice: &low,
		},
		MaxElectricRecord: &core.ReportRecord{
			ID: 3, Type: core.Charging, Electric: 55.5, Cost: 30,
			Date: core.DateFromString("2024-07-02 18:30"),
		},
		EstimatedCapacity: 60.12,
		ElectricValues:    []float64{10.5, 20, 55.5},
		AvgFuelPrice:      3.81,
		FuelPriceTrend: []core.PricePoint{
			{Date: core.DateFromString("2024-05-01"), Price: 4.12},
			{Date: core.DateFromMillis(1717200000000), Price: 3.5},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := NewCodec(time.UTC)
	report := sampleReport()

	payload, err := c.Encode(report)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := c.Prepare(report)
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *got, want)
	}

	// The caller's report is untouched.
	if report.MaxPriceRecord.ID == 0 || !report.MaxPriceRecord.Date.IsText() {
		t.Fatalf("Encode modified its input")
	}
}

func TestRoundTripIsStableForPreparedReports(t *testing.T) {
	prepared := NewCodec(nil).Prepare(sampleReport())
	payload, err := Encode(prepared)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(*got, prepared) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *got, prepared)
	}
}

func TestPrepareStripsLocalFields(t *testing.T) {
	p := NewCodec(time.UTC).Prepare(sampleReport())
	for _, r := range []*core.ReportRecord{p.MaxPriceRecord, p.MinPriceRecord, p.MaxElectricRecord} {
		if r.ID != 0 || r.KilometerOfDisplay != 0 {
			t.Fatalf("local fields kept: %+v", r)
		}
		if r.Date.IsText() {
			t.Fatalf("date not normalized: %v", r.Date)
		}
	}
	if p.MaxVolumeRecord != nil {
		t.Fatalf("nil record should stay nil")
	}
	if p.FuelPriceTrend[0].Date.IsText() {
		t.Fatalf("trend date not normalized")
	}
	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if got, _ := p.MaxPriceRecord.Date.Time(time.UTC); !got.Equal(want) {
		t.Fatalf("date = %v, want %v", got, want)
	}
}

func TestEncodeUsesShortKeys(t *testing.T) {
	payload, err := Encode(sampleReport())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw, err := url.QueryUnescape(payload)
	if err != nil {
		t.Fatalf("payload is not query-escaped: %v", err)
	}
	for _, long := range []string{`"year"`, `"unitPrice"`, `"fuelPriceTrend"`, `"price"`, `"date"`, `"electricValues"`, `"id"`, `"kilometerOfDisplay"`} {
		if strings.Contains(raw, long) {
			t.Errorf("payload still contains %s: %s", long, raw)
		}
	}
	for _, short := range []string{`"a":2024`, `"s":`, `"p":[`, `"n":[10.5,20,55.5]`} {
		if !strings.Contains(raw, short) {
			t.Errorf("payload misses %s: %s", short, raw)
		}
	}
	if strings.ContainsAny(payload, " {}\"") {
		t.Errorf("payload is not URL safe: %s", payload)
	}
}

func TestKeyCodesAreUnique(t *testing.T) {
	names := map[string]bool{}
	codes := map[string]bool{}
	for _, k := range keyCodes {
		if names[k.name] || codes[k.code] {
			t.Fatalf("duplicate entry %+v", k)
		}
		names[k.name], codes[k.code] = true, true
	}
}

func TestDecodeAcceptsUnescapedPayload(t *testing.T) {
	got, err := Decode(`{"a":2023,"b":10.5,"n":[],"p":[]}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Year != 2023 || got.TotalCost != 10.5 {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodePassesUnknownKeysThrough(t *testing.T) {
	got, err := Decode(url.QueryEscape(`{"a":2022,"zz":1,"mileageUnit":"km","i":{"t":10,"v":50,"w":"refueling","extra":true}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Year != 2022 || got.MaxPriceRecord == nil || got.MaxPriceRecord.Oil != 10 || got.MaxPriceRecord.Type != core.Refueling {
		t.Fatalf("got %+v", got)
	}
	if tree := rewriteKeys(map[string]any{"zz": 1}, toName); !reflect.DeepEqual(tree, map[string]any{"zz": 1}) {
		t.Fatalf("unknown key rewritten: %v", tree)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"%zz",
		url.QueryEscape(`{"a":`),
		url.QueryEscape(`[1,2,3]`),
		url.QueryEscape(`"just a string"`),
		url.QueryEscape(`{"a":"not a year"}`),
		url.QueryEscape(`{"a":1}{"a":2}`),
	}
	for _, payload := range cases {
		if _, err := Decode(payload); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("%q: expected ErrMalformedPayload, got %v", payload, err)
		}
	}
}
