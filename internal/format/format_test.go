package format

import "testing"

func TestRupees(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "₹0.00"},
		{1234.5, "₹1,234.50"},
		{999, "₹999.00"},
		{-12, "-₹12.00"},
	}
	for _, tt := range tests {
		if got := Rupees(tt.in); got != tt.want {
			t.Errorf("Rupees(%v): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestWholeRupees(t *testing.T) {
	if got := WholeRupees(1500); got != "₹1,500" {
		t.Errorf("expected ₹1,500, got %s", got)
	}
	if got := WholeRupees(124.6); got != "₹125" {
		t.Errorf("expected ₹125, got %s", got)
	}
}

func TestDecimal(t *testing.T) {
	if got := Decimal(22.857, 2); got != "22.86" {
		t.Errorf("expected 22.86, got %s", got)
	}
}
