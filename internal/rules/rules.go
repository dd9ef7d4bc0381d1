// Package rules holds the versioned rule table shared by the premium engine and
// the recommendation scorer. The table is embedded at build time and may be
// replaced at startup from a YAML file.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultTable []byte

// Table is the complete rule set.
type Table struct {
	Version        string       `yaml:"version"`
	Premium        PremiumRules `yaml:"premium"`
	Recommendation ScoringRules `yaml:"recommendation"`
}

type AgeBand struct {
	Min    int     `yaml:"min" json:"min"`
	Max    int     `yaml:"max" json:"max"`
	Factor float64 `yaml:"factor" json:"factor"`
}

type PremiumRules struct {
	BaseRates                   map[string]float64 `yaml:"base_rates"`
	AgeBands                    []AgeBand          `yaml:"age_bands"`
	DefaultAgeFactor            float64            `yaml:"default_age_factor"`
	SmokerFactor                float64            `yaml:"smoker_factor"`
	SmokerPolicyTypes           []string           `yaml:"smoker_policy_types"`
	OccupationMultipliers       map[string]float64 `yaml:"occupation_multipliers"`
	DefaultOccupationMultiplier float64            `yaml:"default_occupation_multiplier"`
	TermDivisor                 float64            `yaml:"term_divisor"`
	AddonLoadings               map[string]float64 `yaml:"addon_loadings"`
}

type SmokingRule struct {
	PolicyTypes           []string `yaml:"policy_types"`
	SmokerCoverageAbove   float64  `yaml:"smoker_coverage_above"`
	SmokerPoints          int      `yaml:"smoker_points"`
	NonSmokerPremiumBelow float64  `yaml:"non_smoker_premium_below"`
	NonSmokerPoints       int      `yaml:"non_smoker_points"`
	SmokerNote            string   `yaml:"smoker_note"`
	NonSmokerNote         string   `yaml:"non_smoker_note"`
	OtherNote             string   `yaml:"other_note"`
}

// AgeBandRule awards points per policy type. Max 0 means open-ended.
type AgeBandRule struct {
	Min                int               `yaml:"min"`
	Max                int               `yaml:"max"`
	Points             map[string]int    `yaml:"points"`
	RequiresDependents []string          `yaml:"requires_dependents"`
	Reasons            map[string]string `yaml:"reasons"`
}

type GoalRule struct {
	Points map[string]int `yaml:"points"`
	Reason string         `yaml:"reason"`
}

type DependentsRule struct {
	Points            map[string]int `yaml:"points"`
	Reason            string         `yaml:"reason"`
	FamilyStatus      string         `yaml:"family_status"`
	FamilyPoints      int            `yaml:"family_points"`
	FamilyPolicyTypes []string       `yaml:"family_policy_types"`
	FamilyReason      string         `yaml:"family_reason"`
}

// ThresholdRule fires when the profile level matches and every non-zero bound holds.
type ThresholdRule struct {
	Levels        []string `yaml:"levels"`
	PremiumBelow  float64  `yaml:"premium_below"`
	CoverageAbove float64  `yaml:"coverage_above"`
	Points        int      `yaml:"points"`
	Reason        string   `yaml:"reason"`
}

type ScoringRules struct {
	MaxResults    int                 `yaml:"max_results"`
	MaxReasons    int                 `yaml:"max_reasons"`
	MaxScore      int                 `yaml:"max_score"`
	Smoking       SmokingRule         `yaml:"smoking"`
	AgeBands      []AgeBandRule       `yaml:"age_bands"`
	Goals         map[string]GoalRule `yaml:"goals"`
	Dependents    DependentsRule      `yaml:"dependents"`
	RiskTolerance []ThresholdRule     `yaml:"risk_tolerance"`
	Employment    []ThresholdRule     `yaml:"employment"`
}

// ContainsFold reports whether list holds v, ignoring case and surrounding spaces.
func ContainsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// Matches reports whether an age falls inside the band.
func (b AgeBandRule) Matches(age int) bool {
	if age < b.Min {
		return false
	}
	return b.Max == 0 || age <= b.Max
}

var (
	mu      sync.RWMutex
	current *Table
)

// Default returns the active table, parsing the embedded one on first use.
func Default() *Table {
	mu.RLock()
	t := current
	mu.RUnlock()
	if t != nil {
		return t
	}

	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		parsed, err := Parse(defaultTable)
		if err != nil {
			panic(fmt.Sprintf("rules: embedded table invalid: %v", err))
		}
		current = parsed
	}
	return current
}

// LoadFile parses a YAML rule table and makes it the active one.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	current = t
	mu.Unlock()
	return t, nil
}

// Parse decodes and validates a rule table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("rules: parse: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate rejects tables that would make the engine divide by zero or return nothing.
func (t *Table) Validate() error {
	var errs []error
	if t.Version == "" {
		errs = append(errs, errors.New("version is required"))
	}
	if len(t.Premium.BaseRates) == 0 {
		errs = append(errs, errors.New("premium.base_rates is empty"))
	}
	if t.Premium.TermDivisor == 0 {
		errs = append(errs, errors.New("premium.term_divisor must be non-zero"))
	}
	for i, b := range t.Premium.AgeBands {
		if b.Max < b.Min {
			errs = append(errs, fmt.Errorf("premium.age_bands[%d]: max %d < min %d", i, b.Max, b.Min))
		}
	}
	if t.Recommendation.MaxResults <= 0 {
		errs = append(errs, errors.New("recommendation.max_results must be positive"))
	}
	if t.Recommendation.MaxReasons <= 0 {
		errs = append(errs, errors.New("recommendation.max_reasons must be positive"))
	}
	if t.Recommendation.MaxScore <= 0 {
		errs = append(errs, errors.New("recommendation.max_score must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("rules: invalid table: %w", errors.Join(errs...))
	}
	return nil
}
