package calculators

import "math"

const (
	catFinance   = "finance"
	catHealth    = "health"
	catAuto      = "auto"
	catTax       = "tax"
	catInsurance = "insurance"
)

func in(key, label string) Input { return Input{Key: key, Label: label} }

func init() {
	register(&Calculator{
		ID: "emi", Category: catFinance, Title: "Loan EMI", Unit: UnitRupees,
		Inputs: []Input{in("principal", "Loan amount"), in("annual_rate", "Interest rate (% p.a.)"), in("tenure_months", "Tenure (months)")},
		formula: func(v Values) float64 {
			p, n := v["principal"], v["tenure_months"]
			r := v["annual_rate"] / 1200
			if r == 0 {
				return p / n
			}
			f := math.Pow(1+r, n)
			return p * r * f / (f - 1)
		},
	})
	register(&Calculator{
		ID: "sip", Category: catFinance, Title: "SIP maturity value", Unit: UnitRupees,
		Inputs: []Input{in("monthly_investment", "Monthly investment"), in("annual_return", "Expected return (% p.a.)"), in("years", "Duration (years)")},
		formula: func(v Values) float64 {
			p := v["monthly_investment"]
			i := v["annual_return"] / 1200
			n := 12 * v["years"]
			if i == 0 {
				return p * n
			}
			return p * (math.Pow(1+i, n) - 1) / i * (1 + i)
		},
	})
	register(&Calculator{
		ID: "fd", Category: catFinance, Title: "Fixed deposit maturity", Unit: UnitRupees,
		Inputs: []Input{in("principal", "Deposit amount"), in("annual_rate", "Interest rate (% p.a.)"), in("years", "Duration (years)")},
		formula: func(v Values) float64 {
			return v["principal"] * (1 + v["annual_rate"]*v["years"]/100)
		},
	})
	register(&Calculator{
		ID: "compound-interest", Category: catFinance, Title: "Compound interest", Unit: UnitRupees,
		Inputs: []Input{in("principal", "Principal"), in("annual_rate", "Interest rate (% p.a.)"), in("years", "Duration (years)")},
		formula: func(v Values) float64 {
			return v["principal"] * math.Pow(1+v["annual_rate"]/100, v["years"])
		},
	})
	register(&Calculator{
		ID: "gst-add", Category: catFinance, Title: "Add GST", Unit: UnitRupees,
		Inputs: []Input{in("amount", "Amount before GST"), in("gst_rate", "GST rate (%)")},
		formula: func(v Values) float64 {
			return v["amount"] * (1 + v["gst_rate"]/100)
		},
	})
	register(&Calculator{
		ID: "gst-remove", Category: catFinance, Title: "Remove GST", Unit: UnitRupees,
		Inputs: []Input{in("amount", "Amount including GST"), in("gst_rate", "GST rate (%)")},
		formula: func(v Values) float64 {
			return v["amount"] / (1 + v["gst_rate"]/100)
		},
	})
	register(&Calculator{
		ID: "roi", Category: catFinance, Title: "Return on investment", Unit: UnitPercent,
		Inputs: []Input{in("amount_invested", "Amount invested"), in("amount_returned", "Amount returned")},
		formula: func(v Values) float64 {
			inv := v["amount_invested"]
			return (v["amount_returned"] - inv) / inv * 100
		},
	})
	register(&Calculator{
		ID: "break-even", Category: catFinance, Title: "Break-even units", Unit: "units",
		Inputs: []Input{in("fixed_costs", "Fixed costs"), in("price_per_unit", "Price per unit"), in("variable_cost_per_unit", "Variable cost per unit")},
		formula: func(v Values) float64 {
			return v["fixed_costs"] / (v["price_per_unit"] - v["variable_cost_per_unit"])
		},
	})

	register(&Calculator{
		ID: "bmi", Category: catHealth, Title: "Body mass index", Unit: "BMI",
		Inputs:  []Input{in("weight_kg", "Weight (kg)"), in("height_m", "Height (m)")},
		formula: bmi,
	})
	register(&Calculator{
		ID: "body-fat", Category: catHealth, Title: "Body fat estimate", Unit: UnitPercent,
		Inputs: []Input{in("weight_kg", "Weight (kg)"), in("height_m", "Height (m)"), in("age", "Age"), in("is_male", "Male (1) or female (0)")},
		formula: func(v Values) float64 {
			male := 0.0
			if v["is_male"] != 0 {
				male = 1
			}
			return 1.2*bmi(v) + 0.23*v["age"] - 10.8*male - 5.4
		},
	})
	register(&Calculator{
		ID: "water-intake", Category: catHealth, Title: "Daily water intake", Unit: "L",
		Inputs: []Input{in("weight_kg", "Weight (kg)")},
		formula: func(v Values) float64 {
			return 0.033 * v["weight_kg"]
		},
	})

	register(&Calculator{
		ID: "car-depreciation", Category: catAuto, Title: "Car value after depreciation", Unit: UnitRupees,
		Inputs: []Input{in("purchase_price", "Purchase price"), in("depreciation_rate", "Depreciation (% per year)"), in("years", "Age of vehicle (years)")},
		formula: func(v Values) float64 {
			return v["purchase_price"] * math.Pow(1-v["depreciation_rate"]/100, v["years"])
		},
	})
	register(&Calculator{
		ID: "fuel-cost", Category: catAuto, Title: "Trip fuel cost", Unit: UnitRupees,
		Inputs: []Input{in("distance_km", "Distance (km)"), in("mileage_kmpl", "Mileage (km/l)"), in("fuel_price", "Fuel price per litre")},
		formula: func(v Values) float64 {
			return v["distance_km"] / v["mileage_kmpl"] * v["fuel_price"]
		},
	})
	register(&Calculator{
		ID: "mileage", Category: catAuto, Title: "Fuel efficiency", Unit: "km/l",
		Inputs: []Input{in("distance_km", "Distance (km)"), in("fuel_litres", "Fuel used (litres)")},
		formula: func(v Values) float64 {
			return v["distance_km"] / v["fuel_litres"]
		},
	})
	register(&Calculator{
		ID: "ncb", Category: catAuto, Title: "Own-damage premium after no-claim bonus", Unit: UnitRupees,
		Inputs: []Input{in("od_premium", "Own-damage premium"), in("claim_free_years", "Claim-free years")},
		formula: func(v Values) float64 {
			return v["od_premium"] * (1 - NCBSlab(v["claim_free_years"]))
		},
	})

	register(&Calculator{
		ID: "income-tax", Category: catTax, Title: "Income tax (new regime)", Unit: UnitRupees,
		Inputs: []Input{in("annual_income", "Annual income"), in("deductions", "Deductions")},
		formula: func(v Values) float64 {
			return SlabTax(math.Max(0, v["annual_income"]-v["deductions"]))
		},
	})
	register(&Calculator{
		ID: "hra", Category: catTax, Title: "HRA exemption", Unit: UnitRupees,
		Inputs: []Input{in("basic_salary", "Basic salary"), in("hra_received", "HRA received"), in("rent_paid", "Rent paid"), in("is_metro", "Metro city (1) or not (0)")},
		formula: func(v Values) float64 {
			basic := v["basic_salary"]
			share := 0.4
			if v["is_metro"] != 0 {
				share = 0.5
			}
			exempt := math.Min(v["hra_received"], math.Min(v["rent_paid"]-0.1*basic, share*basic))
			return math.Max(0, exempt)
		},
	})

	register(&Calculator{
		ID: "human-life-value", Category: catInsurance, Title: "Human life value", Unit: UnitRupees,
		Inputs: []Input{in("annual_income", "Annual income"), in("annual_expenses", "Personal annual expenses"), in("years_to_retirement", "Years to retirement")},
		formula: func(v Values) float64 {
			return (v["annual_income"] - v["annual_expenses"]) * v["years_to_retirement"]
		},
	})
}

func bmi(v Values) float64 {
	h := v["height_m"]
	return v["weight_kg"] / (h * h)
}

// ncbSlabs is the discount by completed claim-free years; five or more stays at the top slab.
var ncbSlabs = []float64{0, 0.20, 0.25, 0.35, 0.45, 0.50}

// NCBSlab returns the no-claim bonus fraction for a number of claim-free years.
func NCBSlab(years float64) float64 {
	y := int(math.Floor(years))
	if y < 0 {
		return 0
	}
	if y >= len(ncbSlabs) {
		return ncbSlabs[len(ncbSlabs)-1]
	}
	return ncbSlabs[y]
}

type taxSlab struct {
	upTo float64
	rate float64
}

// New-regime slabs. The income-tax calculator reports slab tax only; no
// rebate or cess is applied.
var taxSlabs = []taxSlab{
	{400_000, 0},
	{800_000, 0.05},
	{1_200_000, 0.10},
	{1_600_000, 0.15},
	{2_000_000, 0.20},
	{2_400_000, 0.25},
	{math.Inf(1), 0.30},
}

// SlabTax applies the progressive slabs to taxable income.
func SlabTax(taxable float64) float64 {
	tax, lower := 0.0, 0.0
	for _, s := range taxSlabs {
		if taxable <= lower {
			break
		}
		tax += (math.Min(taxable, s.upTo) - lower) * s.rate
		lower = s.upTo
	}
	return tax
}
