// Package http provides the JSON HTTP API over the record and statistics
// services.
//
// This file implements utilities for parsing and validating request data:
// record bodies (JSON or form encoded), statistics query parameters and path
// values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"energylog/internal/core"
	"energylog/internal/stats"
)

// maxRecordBody bounds a single-record request body.
const maxRecordBody = 1 << 20

// errBadRequest marks request data that could not be parsed at all.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxRecordBody+1))
	if p.err == nil && len(p.body) > maxRecordBody {
		p.err = badRequest("body larger than %d bytes", maxRecordBody)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RecordFromRequest decodes one record from a JSON or form body. JSON bodies
// use the lenient record decoding; form bodies accept comma decimals. A form
// without a date is dated now. The record is not validated.
func RecordFromRequest(r *http.Request, now time.Time) (core.EnergyRecord, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		if errors.Is(err, errBadRequest) {
			return core.EnergyRecord{}, err
		}
		return core.EnergyRecord{}, badRequest("%v", err)
	}

	if p.IsJSON() {
		var rec core.EnergyRecord
		if err := json.Unmarshal(p.GetRaw(), &rec); err != nil {
			return core.EnergyRecord{}, badRequest("%v", err)
		}
		return rec, nil
	}
	return recordFromForm(p, now)
}

func recordFromForm(p *RequestBodyParser, now time.Time) (core.EnergyRecord, error) {
	typ, err := core.ParseEnergyType(p.Get("type"))
	if err != nil {
		return core.EnergyRecord{}, err
	}
	rec := core.EnergyRecord{Type: typ}

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"oil", &rec.Oil},
		{"electric", &rec.Electric},
		{"cost", &rec.Cost},
		{"kilometerOfDisplay", &rec.KilometerOfDisplay},
	} {
		v, err := core.ParseAmount(p.Get(f.name))
		if err != nil {
			return core.EnergyRecord{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	if id := p.Get("id"); id != "" {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil || n < 0 {
			return core.EnergyRecord{}, badRequest("invalid id %q", id)
		}
		rec.ID = n
	}

	rec.Date = parseDateValue(p.Get("date"), now)
	return rec, nil
}

// parseDateValue reads an all-digit value as a millisecond timestamp and
// anything else as a date string.
func parseDateValue(s string, now time.Time) core.RecordDate {
	if s == "" {
		return core.DateFromTime(now)
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return core.DateFromMillis(ms)
	}
	return core.DateFromString(s)
}

// StatsParams are the per-request overrides of the statistics options.
type StatsParams struct {
	StartMileage *float64
	OptimizeCost *bool
}

// ParseStatsParams reads startMileage and optimizeCost. Absent parameters
// stay nil so the configured defaults apply.
func ParseStatsParams(query url.Values) (StatsParams, error) {
	var params StatsParams
	if v := strings.TrimSpace(query.Get("startMileage")); v != "" {
		m, err := core.ParseAmount(v)
		if err != nil {
			return StatsParams{}, badRequest("invalid startMileage %q", v)
		}
		params.StartMileage = &m
	}
	if v := strings.TrimSpace(query.Get("optimizeCost")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return StatsParams{}, badRequest("invalid optimizeCost %q", v)
		}
		params.OptimizeCost = &b
	}
	return params, nil
}

// ParseFilter reads type, month and onlySummary. Values are validated by the
// statistics service.
func ParseFilter(query url.Values) (stats.Filter, error) {
	f := stats.Filter{
		EnergyType: strings.ToLower(strings.TrimSpace(query.Get("type"))),
		Month:      strings.TrimSpace(query.Get("month")),
	}
	if v := strings.TrimSpace(query.Get("onlySummary")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return stats.Filter{}, badRequest("invalid onlySummary %q", v)
		}
		f.OnlySummary = b
	}
	return f, nil
}

// ParseOrder reports whether entries should be newest first. The default is
// descending.
func ParseOrder(query url.Values) (descending bool, err error) {
	switch strings.ToLower(strings.TrimSpace(query.Get("order"))) {
	case "", "desc":
		return true, nil
	case "asc":
		return false, nil
	default:
		return false, badRequest("invalid order %q", query.Get("order"))
	}
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || year < 1 || year > 9999 {
		return 0, badRequest("invalid year %q", s)
	}
	return year, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", s)
	}
	return id, nil
}

// sanitizeInput removes control characters except tab and newlines, then trims.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
