// Package money rounds currency amounts held as float64. Arithmetic runs on
// decimals built from the shortest float representation, so 1.005 rounds to
// 1.01 the way a NUMERIC(12,2) column does.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Net is amount minus deduction, never negative, rounded to cents.
func Net(amount, deduction float64) float64 {
	d := decimal.NewFromFloat(amount).Sub(decimal.NewFromFloat(deduction))
	if d.IsNegative() {
		return 0
	}
	return d.Round(2).InexactFloat64()
}

// Percent is pct percent of amount rounded half away from zero to a whole
// unit.
func Percent(amount, pct float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(pct)).Div(hundred).Round(0).IntPart()
}
