package domain

import (
	"fmt"
	"math"
)

// FormatMoney renders an amount as dollars with exactly two decimals,
// e.g. 2000 → "$2000.00". All currency in rejection messages uses it.
func FormatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// RoundCents rounds v to the nearest cent, halves away from zero.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percent returns part/whole*100, or 0 when whole is not positive.
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
