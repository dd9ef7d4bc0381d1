// Package format renders amounts for API responses, reports and the CLI.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const rupee = "₹"

var printer = message.NewPrinter(language.English)

// Rupees formats v with thousands separators and two decimals: "₹1,234.50".
func Rupees(v float64) string {
	return currency(v, 2)
}

// WholeRupees formats v rounded to whole units: "₹1,500".
func WholeRupees(v float64) string {
	return currency(math.Round(v), 0)
}

func currency(v float64, decimals int) string {
	if v < 0 {
		return "-" + currency(-v, decimals)
	}
	return rupee + printer.Sprint(number.Decimal(v, number.Scale(decimals)))
}

// Decimal formats v with grouping and a fixed number of decimals.
func Decimal(v float64, decimals int) string {
	return printer.Sprint(number.Decimal(v, number.Scale(decimals)))
}
