package shared

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// Round2 rounds an amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatINR renders an amount using Indian digit grouping, e.g. ₹1,00,000.00.
func FormatINR(amount float64) string {
	return inrPrinter.Sprintf("₹%.2f", amount)
}
