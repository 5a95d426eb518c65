// Package share converts a yearly report to and from the compact payload
// carried in share links.
//
// A payload is the report's JSON with every known key replaced by a one-letter
// code, then query-escaped. Keys without a code pass through unchanged in both
// directions so older readers accept newer payloads.
package share

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"energylog/internal/core"
)

var ErrMalformedPayload = errors.New("malformed share payload")

// keyCodes pairs each canonical field name with its short code. Both
// directions are derived from this table.
var keyCodes = [...]struct {
	name string
	code string
}{
	{"year", "a"},
	{"totalCost", "b"},
	{"totalMileage", "c"},
	{"avgCostPer100Km", "d"},
	{"totalOil", "e"},
	{"totalElectric", "f"},
	{"refuelingCount", "g"},
	{"chargingCount", "h"},
	{"maxPriceRecord", "i"},
	{"minPriceRecord", "j"},
	{"maxVolumeRecord", "k"},
	{"maxElectricRecord", "l"},
	{"estimatedCapacity", "m"},
	{"electricValues", "n"},
	{"avgFuelPrice", "o"},
	{"fuelPriceTrend", "p"},
	{"price", "q"},
	{"date", "r"},
	{"unitPrice", "s"},
	{"oil", "t"},
	{"electric", "u"},
	{"cost", "v"},
	{"type", "w"},
	{"id", "x"},
	{"kilometerOfDisplay", "y"},
}

var (
	toCode = make(map[string]string, len(keyCodes))
	toName = make(map[string]string, len(keyCodes))
)

func init() {
	for _, k := range keyCodes {
		toCode[k.name] = k.code
		toName[k.code] = k.name
	}
}

// Codec encodes and decodes share payloads. Zone-less record dates are
// resolved in its location before they are turned into timestamps.
type Codec struct {
	loc *time.Location
}

func NewCodec(loc *time.Location) *Codec {
	if loc == nil {
		loc = time.UTC
	}
	return &Codec{loc: loc}
}

var defaultCodec = NewCodec(time.UTC)

// Encode uses a UTC codec.
func Encode(report core.YearlyReport) (string, error) {
	return defaultCodec.Encode(report)
}

// Decode uses a UTC codec.
func Decode(payload string) (*core.YearlyReport, error) {
	return defaultCodec.Decode(payload)
}

// Prepare returns the form of report that is actually shared: embedded records
// lose their local id and odometer reading, and every date becomes a
// millisecond timestamp. The input is not modified.
func (c *Codec) Prepare(report core.YearlyReport) core.YearlyReport {
	out := report
	out.MaxPriceRecord = c.prepareRecord(report.MaxPriceRecord)
	out.MinPriceRecord = c.prepareRecord(report.MinPriceRecord)
	out.MaxVolumeRecord = c.prepareRecord(report.MaxVolumeRecord)
	out.MaxElectricRecord = c.prepareRecord(report.MaxElectricRecord)
	if report.ElectricValues != nil {
		out.ElectricValues = append([]float64{}, report.ElectricValues...)
	}
	if report.FuelPriceTrend != nil {
		out.FuelPriceTrend = make([]core.PricePoint, len(report.FuelPriceTrend))
		for i, p := range report.FuelPriceTrend {
			out.FuelPriceTrend[i] = core.PricePoint{Date: p.Date.Normalize(c.loc), Price: p.Price}
		}
	}
	return out
}

func (c *Codec) prepareRecord(r *core.ReportRecord) *core.ReportRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.ID = 0
	cp.KilometerOfDisplay = 0
	cp.Date = r.Date.Normalize(c.loc)
	if r.UnitPrice != nil {
		p := *r.UnitPrice
		cp.UnitPrice = &p
	}
	return &cp
}

// Encode prepares report and returns its payload.
func (c *Codec) Encode(report core.YearlyReport) (string, error) {
	raw, err := json.Marshal(c.Prepare(report))
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	tree, err := decodeTree(raw)
	if err != nil {
		return "", fmt.Errorf("rewrite report: %w", err)
	}
	short, err := json.Marshal(rewriteKeys(tree, toCode))
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return url.QueryEscape(string(short)), nil
}

// Decode reverses Encode. The payload may still be query-escaped or may
// already have been unescaped by the caller. Any failure wraps
// ErrMalformedPayload.
func (c *Codec) Decode(payload string) (*core.YearlyReport, error) {
	text := strings.TrimSpace(payload)
	if !strings.HasPrefix(text, "{") {
		unescaped, err := url.QueryUnescape(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		text = unescaped
	}

	tree, err := decodeTree([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if _, ok := tree.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedPayload)
	}
	full, err := json.Marshal(rewriteKeys(tree, toName))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var report core.YearlyReport
	if err := json.Unmarshal(full, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &report, nil
}

// decodeTree keeps numbers as json.Number so values survive the rewrite
// byte for byte.
func decodeTree(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data")
	}
	return v, nil
}

func rewriteKeys(v any, table map[string]string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if mapped, ok := table[k]; ok {
				k = mapped
			}
			out[k] = rewriteKeys(val, table)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = rewriteKeys(val, table)
		}
		return out
	default:
		return v
	}
}
