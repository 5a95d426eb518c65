package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type dateKind uint8

const (
	dateUnset dateKind = iota
	dateMillis
	dateText
)

// RecordDate holds a record date exactly as it was supplied: either a Unix
// millisecond timestamp or a free-form date string. Strings are parsed lazily
// against a location, so a zone-less "2024-03-01" means midnight wherever the
// caller's calendar lives. A string that cannot be parsed is kept verbatim and
// reported as invalid instead of failing.
type RecordDate struct {
	kind   dateKind
	millis int64
	text   string
}

// Layouts accepted for string dates, tried in order.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006/1/2",
	"2006-01",
}

func DateFromMillis(ms int64) RecordDate {
	return RecordDate{kind: dateMillis, millis: ms}
}

func DateFromTime(t time.Time) RecordDate {
	return DateFromMillis(t.UnixMilli())
}

func DateFromString(s string) RecordDate {
	return RecordDate{kind: dateText, text: s}
}

// NewDate creates a date at midnight UTC.
func NewDate(year, month, day int) RecordDate {
	return DateFromTime(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

func (d RecordDate) IsZero() bool {
	return d.kind == dateUnset
}

// IsText reports whether the date was supplied as a string.
func (d RecordDate) IsText() bool {
	return d.kind == dateText
}

// Millis returns the timestamp of a date supplied in millisecond form.
func (d RecordDate) Millis() (int64, bool) {
	return d.millis, d.kind == dateMillis
}

// Text returns the raw string of a date supplied as text.
func (d RecordDate) Text() (string, bool) {
	return d.text, d.kind == dateText
}

// Time resolves the date in loc (nil means UTC). ok is false when the date is
// unset or its text cannot be parsed.
func (d RecordDate) Time(loc *time.Location) (t time.Time, ok bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch d.kind {
	case dateMillis:
		return time.UnixMilli(d.millis).In(loc), true
	case dateText:
		return parseDateText(d.text, loc)
	default:
		return time.Time{}, false
	}
}

// Valid reports whether the date resolves to an instant.
func (d RecordDate) Valid() bool {
	_, ok := d.Time(time.UTC)
	return ok
}

// Normalize converts a parseable date to its millisecond form in loc.
// Invalid dates are returned unchanged.
func (d RecordDate) Normalize(loc *time.Location) RecordDate {
	if d.kind == dateMillis {
		return d
	}
	t, ok := d.Time(loc)
	if !ok {
		return d
	}
	return DateFromTime(t)
}

func (d RecordDate) String() string {
	switch d.kind {
	case dateMillis:
		return time.UnixMilli(d.millis).UTC().Format(time.RFC3339)
	case dateText:
		return d.text
	default:
		return ""
	}
}

func (d RecordDate) MarshalJSON() ([]byte, error) {
	switch d.kind {
	case dateMillis:
		return []byte(strconv.FormatInt(d.millis, 10)), nil
	case dateText:
		return json.Marshal(d.text)
	default:
		return []byte("null"), nil
	}
}

func (d *RecordDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*d = RecordDate{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DateFromString(s)
		return nil
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		*d = DateFromMillis(int64(f))
		return nil
	}
}

func parseDateText(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}
