// Package calculators is the table of small single-formula calculators
// (loan EMI, BMI, GST, NCB and friends) served next to the premium engine.
package calculators

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"insurez/internal/format"
	"insurez/internal/models"
)

var (
	ErrUnknownCalculator = errors.New("unknown calculator")
	ErrMissingInput      = errors.New("missing calculator input")
	ErrInvalidInput      = errors.New("invalid calculator input")
)

// Units with special display rules. Anything else is appended after the number.
const (
	UnitRupees  = "₹"
	UnitPercent = "%"
)

// Input describes one named numeric field.
type Input struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Values are the named inputs of one evaluation. Extra keys are ignored.
type Values map[string]float64

// Calculator is one row of the table.
type Calculator struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Title    string  `json:"title"`
	Inputs   []Input `json:"inputs"`
	Unit     string  `json:"unit"`

	formula func(v Values) float64
}

var registry = map[string]*Calculator{}

func register(c *Calculator) {
	if _, dup := registry[c.ID]; dup {
		panic("calculators: duplicate id " + c.ID)
	}
	registry[c.ID] = c
}

func Get(id string) (*Calculator, bool) {
	c, ok := registry[id]
	return c, ok
}

// List returns every calculator ordered by category, then id.
func List() []*Calculator {
	out := make([]*Calculator, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Compute evaluates calculator id. Every declared input must be present.
func Compute(id string, v Values) (models.CalcResult, error) {
	c, ok := Get(id)
	if !ok {
		return models.CalcResult{}, fmt.Errorf("%w: %q", ErrUnknownCalculator, id)
	}
	return c.Compute(v)
}

func (c *Calculator) Compute(v Values) (models.CalcResult, error) {
	for _, in := range c.Inputs {
		x, ok := v[in.Key]
		if !ok {
			return models.CalcResult{}, fmt.Errorf("%w: %s needs %q", ErrMissingInput, c.ID, in.Key)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return models.CalcResult{}, fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, in.Key)
		}
	}

	raw := c.formula(v)
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return models.CalcResult{}, fmt.Errorf("%w: %s result is not a finite number", ErrInvalidInput, c.ID)
	}

	value := round2(raw)
	return models.CalcResult{
		ID:      c.ID,
		Value:   value,
		Unit:    c.Unit,
		Display: display(value, c.Unit),
	}, nil
}

func display(v float64, unit string) string {
	switch unit {
	case UnitRupees:
		return format.Rupees(v)
	case UnitPercent:
		return format.Decimal(v, 2) + "%"
	case "":
		return format.Decimal(v, 2)
	default:
		return format.Decimal(v, 2) + " " + unit
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
