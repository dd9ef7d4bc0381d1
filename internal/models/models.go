package models

import (
	"encoding/json"
	"strings"
)

// Policy types known to the rule table. Other values pass through verbatim.
const (
	TypeLife   = "Life"
	TypeHealth = "Health"
	TypeMotor  = "Motor"
	TypeHome   = "Home"
	TypeTravel = "Travel"
	TypeCyber  = "Cyber"
)

var policyTypeAliases = map[string]string{
	"life":   TypeLife,
	"health": TypeHealth,
	"motor":  TypeMotor,
	"auto":   TypeMotor,
	"car":    TypeMotor,
	"home":   TypeHome,
	"travel": TypeTravel,
	"cyber":  TypeCyber,
}

// NormalizePolicyType maps backend spellings ("auto", "HEALTH") onto the canonical names.
func NormalizePolicyType(t string) string {
	trimmed := strings.TrimSpace(t)
	if canon, ok := policyTypeAliases[strings.ToLower(trimmed)]; ok {
		return canon
	}
	return trimmed
}

// Policy is reference data supplied by the backend. It is never mutated by scoring.
type Policy struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Provider       string  `json:"provider"`
	CoverageAmount float64 `json:"coverage_amount"`
	Premium        float64 `json:"premium"`
	DurationMonths int     `json:"duration_months"`
}

// UnmarshalJSON accepts both backend shapes: name|policy_name, type|category, and
// string or numeric ids (id or _id).
func (p *Policy) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             json.RawMessage `json:"id"`
		MongoID        json.RawMessage `json:"_id"`
		Name           string          `json:"name"`
		PolicyName     string          `json:"policy_name"`
		Type           string          `json:"type"`
		Category       string          `json:"category"`
		Provider       string          `json:"provider"`
		CoverageAmount float64         `json:"coverage_amount"`
		Premium        float64         `json:"premium"`
		DurationMonths int             `json:"duration_months"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id := rawID(raw.ID)
	if id == "" {
		id = rawID(raw.MongoID)
	}
	*p = Policy{
		ID:             id,
		Name:           firstNonEmpty(raw.Name, raw.PolicyName),
		Type:           NormalizePolicyType(firstNonEmpty(raw.Type, raw.Category)),
		Provider:       raw.Provider,
		CoverageAmount: raw.CoverageAmount,
		Premium:        raw.Premium,
		DurationMonths: raw.DurationMonths,
	}
	return nil
}

func rawID(m json.RawMessage) string {
	if len(m) == 0 || string(m) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(m))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// UserProfile is the recommendation input, built fresh per request from form state.
type UserProfile struct {
	Age             int    `json:"age"`
	EmploymentLevel string `json:"employmentLevel"`
	FamilyStatus    string `json:"familyStatus"`
	Dependents      int    `json:"dependents"`
	PrimaryGoal     string `json:"primaryGoal"`
	RiskTolerance   string `json:"riskTolerance"`
	SmokingStatus   string `json:"smokingStatus"`
}

// PremiumInput is the calculator input. Addons may be empty.
type PremiumInput struct {
	Age            int      `json:"age"`
	PolicyType     string   `json:"policyType"`
	SumAssured     float64  `json:"sumAssured"`
	PolicyTerm     int      `json:"policyTerm"`
	SmokingStatus  string   `json:"smokingStatus"`
	OccupationRisk string   `json:"occupationRisk"`
	Addons         []string `json:"addons,omitempty"`
}

// Breakdown lists every factor that went into a premium.
type Breakdown struct {
	AgeFactor                float64 `json:"ageFactor"`
	SmokerFactor             float64 `json:"smokerFactor"`
	OccupationMultiplier     float64 `json:"occupationMultiplier"`
	TermFactor               float64 `json:"termFactor"`
	AddonsFactor             float64 `json:"addonsFactor"`
	BasePremiumBeforeFactors float64 `json:"basePremiumBeforeFactors"`
}

type PremiumResult struct {
	AnnualPremium  float64   `json:"annualPremium"`
	MonthlyPremium float64   `json:"monthlyPremium"`
	Breakdown      Breakdown `json:"breakdown"`
}

// ScoredPolicy is a Policy with its fit score for one profile.
type ScoredPolicy struct {
	Policy
	Score          int      `json:"score"`
	Reasons        []string `json:"reasons"`
	SmokerAnalysis string   `json:"smokerAnalysis"`
}

// UnmarshalJSON decodes the policy fields through Policy's own decoder, which
// the embedding would otherwise promote over the score fields.
func (sp *ScoredPolicy) UnmarshalJSON(data []byte) error {
	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var score struct {
		Score          int      `json:"score"`
		Reasons        []string `json:"reasons"`
		SmokerAnalysis string   `json:"smokerAnalysis"`
	}
	if err := json.Unmarshal(data, &score); err != nil {
		return err
	}
	*sp = ScoredPolicy{
		Policy:         p,
		Score:          score.Score,
		Reasons:        score.Reasons,
		SmokerAnalysis: score.SmokerAnalysis,
	}
	return nil
}

// RecommendResult wraps the ranked list returned to API clients.
type RecommendResult struct {
	Evaluated       int            `json:"evaluated"`
	Matched         int            `json:"matched"`
	Recommendations []ScoredPolicy `json:"recommendations"`
	RulesVersion    string         `json:"rulesVersion"`
}

// PremiumQuote is the API envelope around a PremiumResult.
type PremiumQuote struct {
	QuoteID        string        `json:"quoteId"`
	Input          PremiumInput  `json:"input"`
	Result         PremiumResult `json:"result"`
	AnnualDisplay  string        `json:"annualDisplay"`
	MonthlyDisplay string        `json:"monthlyDisplay"`
	RulesVersion   string        `json:"rulesVersion"`
	Cached         bool          `json:"cached"`
}

// CalcResult is the output of one mini calculator.
type CalcResult struct {
	ID      string  `json:"id"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Display string  `json:"display"`
}
