package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	Refueling EnergyType = "refueling"
	Charging  EnergyType = "charging"
)

type (
	// EnergyType tells which quantity of a record is meaningful:
	// refueling uses Oil (litres), charging uses Electric (kWh).
	EnergyType string

	// EnergyRecord is one refueling or charging event.
	EnergyRecord struct {
		ID                 int64      `json:"id"`
		Type               EnergyType `json:"type"`
		Oil                float64    `json:"oil"`
		Electric           float64    `json:"electric"`
		Cost               float64    `json:"cost"`
		KilometerOfDisplay float64    `json:"kilometerOfDisplay"`
		Date               RecordDate `json:"date"`
	}
)

var (
	ErrInvalidType    = errors.New("invalid energy type")
	ErrNegativeAmount = errors.New("negative amount")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// ParseEnergyType accepts the canonical lower-case names.
func ParseEnergyType(s string) (EnergyType, error) {
	t := EnergyType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

func (t EnergyType) IsValid() bool {
	return t == Refueling || t == Charging
}

func (t EnergyType) String() string {
	return string(t)
}

// Amount returns the quantity that belongs to the record's type.
func (r EnergyRecord) Amount() float64 {
	switch r.Type {
	case Refueling:
		return r.Oil
	case Charging:
		return r.Electric
	default:
		return 0
	}
}

// UnitPrice is cost per litre for refueling records. Zero volume yields 0.
func (r EnergyRecord) UnitPrice() float64 {
	if r.Oil == 0 {
		return 0
	}
	return r.Cost / r.Oil
}

// Validate checks the fields a record must satisfy before it is stored.
// Dates are deliberately not checked: unparsable dates are tolerated and sort last.
func (r EnergyRecord) Validate() error {
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, r.Type)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"oil", r.Oil},
		{"electric", r.Electric},
		{"cost", r.Cost},
		{"kilometerOfDisplay", r.KilometerOfDisplay},
	} {
		if f.v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrNegativeAmount, f.name, f.v)
		}
	}
	return nil
}

// UnmarshalJSON accepts numeric fields encoded either as numbers or as numeric strings.
// Non-numeric values decode to zero.
func (r *EnergyRecord) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID                 flexNumber `json:"id"`
		Type               EnergyType `json:"type"`
		Oil                flexNumber `json:"oil"`
		Electric           flexNumber `json:"electric"`
		Cost               flexNumber `json:"cost"`
		KilometerOfDisplay flexNumber `json:"kilometerOfDisplay"`
		Date               RecordDate `json:"date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = EnergyRecord{
		ID:                 int64(aux.ID),
		Type:               aux.Type,
		Oil:                float64(aux.Oil),
		Electric:           float64(aux.Electric),
		Cost:               float64(aux.Cost),
		KilometerOfDisplay: float64(aux.KilometerOfDisplay),
		Date:               aux.Date,
	}
	return nil
}

type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*n = 0
		return nil
	}
	*n = flexNumber(v)
	return nil
}
