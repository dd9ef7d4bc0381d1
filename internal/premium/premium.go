// Package premium converts a PremiumInput into an annual and monthly premium
// estimate. It is pure: no I/O, no shared mutable state, and no bounds checks
// on in-range numbers. Callers validate inputs before calling Calculate.
package premium

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"insurez/internal/models"
	"insurez/internal/rules"
)

// ErrInvalidInput is returned for unknown policy types and non-finite results.
var ErrInvalidInput = errors.New("invalid premium input")

// Engine evaluates premiums against one rule table.
type Engine struct {
	r rules.PremiumRules
}

// New returns an Engine bound to t. A nil table means rules.Default().
func New(t *rules.Table) *Engine {
	if t == nil {
		t = rules.Default()
	}
	return &Engine{r: t.Premium}
}

// Calculate evaluates in with the active rule table.
func Calculate(in models.PremiumInput) (models.PremiumResult, error) {
	return New(nil).Calculate(in)
}

func (e *Engine) Calculate(in models.PremiumInput) (models.PremiumResult, error) {
	policyType := models.NormalizePolicyType(in.PolicyType)
	rate, ok := e.r.BaseRates[policyType]
	if !ok {
		return models.PremiumResult{}, fmt.Errorf("%w: unknown policy type %q", ErrInvalidInput, in.PolicyType)
	}

	b := models.Breakdown{
		BasePremiumBeforeFactors: (in.SumAssured / 1000) * rate,
		AgeFactor:                e.AgeFactor(in.Age),
		SmokerFactor:             e.SmokerFactor(policyType, in.SmokingStatus),
		OccupationMultiplier:     e.OccupationMultiplier(in.OccupationRisk),
		TermFactor:               e.TermFactor(in.PolicyTerm),
		AddonsFactor:             e.AddonsFactor(in.Addons),
	}

	raw := b.BasePremiumBeforeFactors * b.AgeFactor * b.SmokerFactor *
		b.OccupationMultiplier * b.TermFactor * b.AddonsFactor
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return models.PremiumResult{}, fmt.Errorf("%w: premium is not a finite number", ErrInvalidInput)
	}

	annual := math.Round(raw)
	return models.PremiumResult{
		AnnualPremium:  annual,
		MonthlyPremium: math.Round(annual / 12),
		Breakdown:      b,
	}, nil
}

// AgeFactor is a step function over the configured bands. Ages outside every
// band get the default factor without signalling an error.
func (e *Engine) AgeFactor(age int) float64 {
	for _, band := range e.r.AgeBands {
		if age >= band.Min && age <= band.Max {
			return band.Factor
		}
	}
	return e.r.DefaultAgeFactor
}

// SmokerFactor applies only to the smoker-rated policy types.
func (e *Engine) SmokerFactor(policyType, smokingStatus string) float64 {
	if !rules.ContainsFold(e.r.SmokerPolicyTypes, policyType) {
		return 1.0
	}
	if IsSmoker(smokingStatus) {
		return e.r.SmokerFactor
	}
	return 1.0
}

func (e *Engine) OccupationMultiplier(risk string) float64 {
	for level, m := range e.r.OccupationMultipliers {
		if strings.EqualFold(level, strings.TrimSpace(risk)) {
			return m
		}
	}
	return e.r.DefaultOccupationMultiplier
}

func (e *Engine) TermFactor(termYears int) float64 {
	return 1 + float64(termYears)/e.r.TermDivisor
}

// AddonsFactor sums the loading of each distinct selected addon. Unknown addons add nothing.
func (e *Engine) AddonsFactor(addons []string) float64 {
	factor := 1.0
	seen := make(map[string]bool, len(addons))
	for _, a := range addons {
		key := strings.ToLower(strings.TrimSpace(a))
		if seen[key] {
			continue
		}
		seen[key] = true
		for name, loading := range e.r.AddonLoadings {
			if strings.ToLower(name) == key {
				factor += loading
				break
			}
		}
	}
	return factor
}

// IsSmoker accepts "Smoker" in any case; "Non-Smoker" and anything else is not a smoker.
func IsSmoker(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "smoker")
}
