package matcher

import (
	"sort"
	"strings"

	"insurez/internal/models"
	"insurez/internal/premium"
	"insurez/internal/rules"
)

// Scorer ranks policies for a profile against one rule table.
type Scorer struct {
	r       rules.ScoringRules
	version string
}

// New returns a Scorer bound to t. A nil table means rules.Default().
func New(t *rules.Table) *Scorer {
	if t == nil {
		t = rules.Default()
	}
	return &Scorer{r: t.Recommendation, version: t.Version}
}

// MatchPolicies scores policies with the active rule table.
func MatchPolicies(profile models.UserProfile, policies []models.Policy) models.RecommendResult {
	return New(nil).Match(profile, policies)
}

// Match scores every policy, drops the ones with no points, and returns the
// best MaxResults by descending score. Ties keep their input order.
// The input slice is never modified.
func (s *Scorer) Match(profile models.UserProfile, policies []models.Policy) models.RecommendResult {
	var matched []models.ScoredPolicy
	for _, p := range policies {
		sp := s.Score(profile, p)
		if sp.Score > 0 {
			matched = append(matched, sp)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Score > matched[j].Score
	})

	total := len(matched)
	if len(matched) > s.r.MaxResults {
		matched = matched[:s.r.MaxResults]
	}
	if matched == nil {
		matched = []models.ScoredPolicy{}
	}

	return models.RecommendResult{
		Evaluated:       len(policies),
		Matched:         total,
		Recommendations: matched,
		RulesVersion:    s.version,
	}
}

// card accumulates points and reasons for one policy.
type card struct {
	score   int
	reasons []string
}

func (c *card) add(points int, reason string) {
	if points == 0 {
		return
	}
	c.score += points
	if reason != "" {
		c.reasons = append(c.reasons, reason)
	}
}

// Score evaluates one policy. Rules run in a fixed order: smoking, age band,
// goal, dependents, family status, risk tolerance, employment.
func (s *Scorer) Score(profile models.UserProfile, p models.Policy) models.ScoredPolicy {
	policyType := models.NormalizePolicyType(p.Type)
	var c card

	analysis := s.smoking(&c, profile, p, policyType)
	s.ageBand(&c, profile, policyType)
	s.goal(&c, profile, policyType)
	s.dependents(&c, profile, policyType)
	s.family(&c, profile, policyType)
	s.threshold(&c, s.r.RiskTolerance, profile.RiskTolerance, p)
	s.threshold(&c, s.r.Employment, profile.EmploymentLevel, p)

	score := c.score
	if score > s.r.MaxScore {
		score = s.r.MaxScore
	}
	if score < 0 {
		score = 0
	}

	reasons := c.reasons
	if len(reasons) > s.r.MaxReasons {
		reasons = reasons[:s.r.MaxReasons]
	}
	if reasons == nil {
		reasons = []string{}
	}

	return models.ScoredPolicy{
		Policy:         p,
		Score:          score,
		Reasons:        reasons,
		SmokerAnalysis: analysis,
	}
}

// smoking adds points but never a reason; its sentence goes to smokerAnalysis.
func (s *Scorer) smoking(c *card, profile models.UserProfile, p models.Policy, policyType string) string {
	rule := s.r.Smoking
	if !rules.ContainsFold(rule.PolicyTypes, policyType) {
		return rule.OtherNote
	}
	if premium.IsSmoker(profile.SmokingStatus) {
		if p.CoverageAmount > rule.SmokerCoverageAbove {
			c.add(rule.SmokerPoints, "")
		}
		return rule.SmokerNote
	}
	if p.Premium < rule.NonSmokerPremiumBelow {
		c.add(rule.NonSmokerPoints, "")
	}
	return rule.NonSmokerNote
}

func (s *Scorer) ageBand(c *card, profile models.UserProfile, policyType string) {
	for _, band := range s.r.AgeBands {
		if !band.Matches(profile.Age) {
			continue
		}
		if rules.ContainsFold(band.RequiresDependents, policyType) && profile.Dependents <= 0 {
			return
		}
		c.add(band.Points[policyType], band.Reasons[policyType])
		return
	}
}

func (s *Scorer) goal(c *card, profile models.UserProfile, policyType string) {
	goal := strings.TrimSpace(profile.PrimaryGoal)
	for name, rule := range s.r.Goals {
		if strings.EqualFold(name, goal) {
			c.add(rule.Points[policyType], rule.Reason)
			return
		}
	}
}

func (s *Scorer) dependents(c *card, profile models.UserProfile, policyType string) {
	if profile.Dependents <= 0 {
		return
	}
	c.add(s.r.Dependents.Points[policyType], s.r.Dependents.Reason)
}

func (s *Scorer) family(c *card, profile models.UserProfile, policyType string) {
	d := s.r.Dependents
	if !strings.EqualFold(strings.TrimSpace(profile.FamilyStatus), d.FamilyStatus) {
		return
	}
	if rules.ContainsFold(d.FamilyPolicyTypes, policyType) {
		c.add(d.FamilyPoints, d.FamilyReason)
	}
}

// threshold applies the first rule whose level matches and whose bounds hold.
func (s *Scorer) threshold(c *card, list []rules.ThresholdRule, level string, p models.Policy) {
	for _, rule := range list {
		if !rules.ContainsFold(rule.Levels, level) {
			continue
		}
		if rule.PremiumBelow > 0 && !(p.Premium < rule.PremiumBelow) {
			continue
		}
		if rule.CoverageAbove > 0 && !(p.CoverageAmount > rule.CoverageAbove) {
			continue
		}
		c.add(rule.Points, rule.Reason)
		return
	}
}
