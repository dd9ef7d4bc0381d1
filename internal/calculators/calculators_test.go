package calculators

import (
	"errors"
	"math"
	"testing"
)

func TestCompute_KnownValues(t *testing.T) {
	tests := []struct {
		id   string
		in   Values
		want float64
	}{
		{"emi", Values{"principal": 100_000, "annual_rate": 10, "tenure_months": 12}, 8791.59},
		{"emi", Values{"principal": 12_000, "annual_rate": 0, "tenure_months": 12}, 1000},
		{"fd", Values{"principal": 10_000, "annual_rate": 7, "years": 2}, 11_400},
		{"compound-interest", Values{"principal": 10_000, "annual_rate": 10, "years": 2}, 12_100},
		{"gst-add", Values{"amount": 1000, "gst_rate": 18}, 1180},
		{"gst-remove", Values{"amount": 1180, "gst_rate": 18}, 1000},
		{"roi", Values{"amount_invested": 1000, "amount_returned": 1500}, 50},
		{"break-even", Values{"fixed_costs": 10_000, "price_per_unit": 50, "variable_cost_per_unit": 30}, 500},
		{"bmi", Values{"weight_kg": 70, "height_m": 1.75}, 22.86},
		{"body-fat", Values{"weight_kg": 70, "height_m": 1.75, "age": 30, "is_male": 1}, 18.13},
		{"water-intake", Values{"weight_kg": 70}, 2.31},
		{"car-depreciation", Values{"purchase_price": 500_000, "depreciation_rate": 15, "years": 2}, 361_250},
		{"fuel-cost", Values{"distance_km": 300, "mileage_kmpl": 15, "fuel_price": 100}, 2000},
		{"mileage", Values{"distance_km": 450, "fuel_litres": 30}, 15},
		{"ncb", Values{"od_premium": 10_000, "claim_free_years": 3}, 6500},
		{"ncb", Values{"od_premium": 10_000, "claim_free_years": 9}, 5000},
		{"income-tax", Values{"annual_income": 1_000_000, "deductions": 0}, 40_000},
		{"income-tax", Values{"annual_income": 300_000, "deductions": 50_000}, 0},
		{"income-tax", Values{"annual_income": 1_200_000, "deductions": 0}, 60_000},
		{"income-tax", Values{"annual_income": 2_500_000, "deductions": 0}, 330_000},
		{"hra", Values{"basic_salary": 600_000, "hra_received": 300_000, "rent_paid": 360_000, "is_metro": 1}, 300_000},
		{"hra", Values{"basic_salary": 600_000, "hra_received": 300_000, "rent_paid": 360_000, "is_metro": 0}, 240_000},
		{"hra", Values{"basic_salary": 600_000, "hra_received": 300_000, "rent_paid": 10_000, "is_metro": 1}, 0},
		{"human-life-value", Values{"annual_income": 1_200_000, "annual_expenses": 400_000, "years_to_retirement": 25}, 20_000_000},
	}
	for _, tt := range tests {
		res, err := Compute(tt.id, tt.in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.id, err)
		}
		if math.Abs(res.Value-tt.want) > 0.005 {
			t.Errorf("%s %v: expected %v, got %v", tt.id, tt.in, tt.want, res.Value)
		}
		if res.ID != tt.id {
			t.Errorf("expected id %s, got %s", tt.id, res.ID)
		}
	}
}

func TestCompute_SIPMatchesAnnuityDue(t *testing.T) {
	res, err := Compute("sip", Values{"monthly_investment": 5000, "annual_return": 12, "years": 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i := 0.01
	want := 5000 * (math.Pow(1+i, 120) - 1) / i * (1 + i)
	if math.Abs(res.Value-want) > 0.01 {
		t.Errorf("expected %.2f, got %.2f", want, res.Value)
	}
}

func TestCompute_Display(t *testing.T) {
	res, err := Compute("bmi", Values{"weight_kg": 70, "height_m": 1.75})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Display != "22.86 BMI" {
		t.Errorf("expected display %q, got %q", "22.86 BMI", res.Display)
	}

	res, err = Compute("emi", Values{"principal": 100_000, "annual_rate": 10, "tenure_months": 12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Display != "₹8,791.59" {
		t.Errorf("expected display ₹8,791.59, got %q", res.Display)
	}

	res, _ = Compute("roi", Values{"amount_invested": 1000, "amount_returned": 1500})
	if res.Display != "50.00%" {
		t.Errorf("expected display 50.00%%, got %q", res.Display)
	}
}

func TestCompute_Errors(t *testing.T) {
	if _, err := Compute("teleport", Values{}); !errors.Is(err, ErrUnknownCalculator) {
		t.Errorf("expected ErrUnknownCalculator, got %v", err)
	}
	if _, err := Compute("bmi", Values{"weight_kg": 70}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected ErrMissingInput, got %v", err)
	}
	if _, err := Compute("bmi", Values{"weight_kg": 70, "height_m": 0}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero height, got %v", err)
	}
	if _, err := Compute("break-even", Values{"fixed_costs": 1, "price_per_unit": 5, "variable_cost_per_unit": 5}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero margin, got %v", err)
	}
	if _, err := Compute("mileage", Values{"distance_km": math.NaN(), "fuel_litres": 3}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for NaN input, got %v", err)
	}
}

func TestCompute_ExtraInputsIgnored(t *testing.T) {
	res, err := Compute("water-intake", Values{"weight_kg": 100, "height_m": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value != 3.3 {
		t.Errorf("expected 3.3, got %v", res.Value)
	}
}

func TestList_OrderedAndComplete(t *testing.T) {
	list := List()
	if len(list) != 18 {
		t.Fatalf("expected 18 calculators, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		a, b := list[i-1], list[i]
		if a.Category > b.Category || (a.Category == b.Category && a.ID >= b.ID) {
			t.Errorf("list out of order at %d: %s/%s before %s/%s", i, a.Category, a.ID, b.Category, b.ID)
		}
	}
	for _, c := range list {
		if len(c.Inputs) == 0 || c.Title == "" {
			t.Errorf("%s: incomplete definition", c.ID)
		}
	}
}

func TestNCBSlab(t *testing.T) {
	tests := map[float64]float64{-1: 0, 0: 0, 1: 0.20, 2: 0.25, 3: 0.35, 4: 0.45, 5: 0.50, 12: 0.50, 2.9: 0.25}
	for years, want := range tests {
		if got := NCBSlab(years); got != want {
			t.Errorf("NCBSlab(%v): expected %v, got %v", years, want, got)
		}
	}
}
