package catalog

import "insurez/internal/models"

// SeedPolicies is the built-in reference list served until a refresh succeeds.
func SeedPolicies() []models.Policy {
	return []models.Policy{
		{ID: "seed-life-term-shield", Name: "Term Shield 1 Cr", Type: models.TypeLife, Provider: "Suraksha Life", CoverageAmount: 10_000_000, Premium: 14_500, DurationMonths: 360},
		{ID: "seed-life-smart-saver", Name: "Smart Saver Endowment", Type: models.TypeLife, Provider: "Bharat Mutual", CoverageAmount: 1_500_000, Premium: 48_000, DurationMonths: 240},
		{ID: "seed-life-young-start", Name: "Young Starter Term", Type: models.TypeLife, Provider: "Suraksha Life", CoverageAmount: 5_000_000, Premium: 7_800, DurationMonths: 300},
		{ID: "seed-health-family-floater", Name: "Family Floater Plus", Type: models.TypeHealth, Provider: "Arogya General", CoverageAmount: 1_000_000, Premium: 18_500, DurationMonths: 12},
		{ID: "seed-health-individual", Name: "Individual Health Basic", Type: models.TypeHealth, Provider: "Arogya General", CoverageAmount: 500_000, Premium: 8_900, DurationMonths: 12},
		{ID: "seed-health-senior-care", Name: "Senior Care Comprehensive", Type: models.TypeHealth, Provider: "Niramaya Health", CoverageAmount: 1_500_000, Premium: 42_000, DurationMonths: 12},
		{ID: "seed-health-super-topup", Name: "Super Top-Up 25L", Type: models.TypeHealth, Provider: "Niramaya Health", CoverageAmount: 2_500_000, Premium: 6_200, DurationMonths: 12},
		{ID: "seed-motor-car-comprehensive", Name: "Car Comprehensive", Type: models.TypeMotor, Provider: "Sadak General", CoverageAmount: 800_000, Premium: 12_400, DurationMonths: 12},
		{ID: "seed-motor-two-wheeler", Name: "Two Wheeler Package", Type: models.TypeMotor, Provider: "Sadak General", CoverageAmount: 90_000, Premium: 2_100, DurationMonths: 12},
		{ID: "seed-home-griha-raksha", Name: "Griha Raksha Home Shield", Type: models.TypeHome, Provider: "Bharat Mutual", CoverageAmount: 5_000_000, Premium: 4_800, DurationMonths: 12},
		{ID: "seed-travel-world-explorer", Name: "World Explorer Travel", Type: models.TypeTravel, Provider: "Yatra Secure", CoverageAmount: 3_500_000, Premium: 1_900, DurationMonths: 1},
		{ID: "seed-travel-student-abroad", Name: "Student Abroad Cover", Type: models.TypeTravel, Provider: "Yatra Secure", CoverageAmount: 7_000_000, Premium: 9_500, DurationMonths: 12},
		{ID: "seed-cyber-digital-safe", Name: "Digital Safe Personal Cyber", Type: models.TypeCyber, Provider: "Kavach Digital", CoverageAmount: 200_000, Premium: 1_200, DurationMonths: 12},
	}
}
