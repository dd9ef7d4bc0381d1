package handlers

import (
	"math"
	"strings"

	"insurez/internal/models"
	"insurez/internal/rules"
)

const (
	minAge        = 18
	maxAge        = 100
	maxDependents = 20
	maxSumAssured = 100_000_000_000 // 10,000 crore
	maxTermYears  = 40
	maxAddons     = 10
	maxTextField  = 64
)

var validSmoking = map[string]bool{
	"": true, "smoker": true, "non-smoker": true, "nonsmoker": true, "non smoker": true,
}

var validRiskTolerance = map[string]bool{
	"": true, "low": true, "medium": true, "high": true,
}

var validOccupationRisk = map[string]bool{
	"": true, "low": true, "medium": true, "high": true,
}

func validateProfile(p models.UserProfile) (string, bool) {
	if p.Age < minAge || p.Age > maxAge {
		return "Invalid age (18-100)", false
	}
	if p.Dependents < 0 || p.Dependents > maxDependents {
		return "Invalid number of dependents (0-20)", false
	}
	if !validSmoking[strings.ToLower(strings.TrimSpace(p.SmokingStatus))] {
		return "Invalid smoking status", false
	}
	if !validRiskTolerance[strings.ToLower(strings.TrimSpace(p.RiskTolerance))] {
		return "Invalid risk tolerance", false
	}
	for _, f := range []string{p.EmploymentLevel, p.FamilyStatus, p.PrimaryGoal} {
		if len(f) > maxTextField {
			return "Profile field too long", false
		}
	}
	return "", true
}

func validatePremiumInput(in models.PremiumInput) (string, bool) {
	if in.Age < minAge || in.Age > maxAge {
		return "Invalid age (18-100)", false
	}
	table := rules.Default()
	if _, ok := table.Premium.BaseRates[models.NormalizePolicyType(in.PolicyType)]; !ok {
		return "Unknown policy type", false
	}
	if math.IsNaN(in.SumAssured) || in.SumAssured <= 0 || in.SumAssured > maxSumAssured {
		return "Invalid sum assured", false
	}
	if in.PolicyTerm < 1 || in.PolicyTerm > maxTermYears {
		return "Invalid policy term (1-40 years)", false
	}
	if !validSmoking[strings.ToLower(strings.TrimSpace(in.SmokingStatus))] {
		return "Invalid smoking status", false
	}
	if !validOccupationRisk[strings.ToLower(strings.TrimSpace(in.OccupationRisk))] {
		return "Invalid occupation risk", false
	}
	if len(in.Addons) > maxAddons {
		return "Too many addons", false
	}
	for _, a := range in.Addons {
		if !knownAddon(table, a) {
			return "Unknown addon: " + a, false
		}
	}
	return "", true
}

func knownAddon(t *rules.Table, addon string) bool {
	for name := range t.Premium.AddonLoadings {
		if strings.EqualFold(name, strings.TrimSpace(addon)) {
			return true
		}
	}
	return false
}
