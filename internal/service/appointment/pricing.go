package appointment

import "github.com/jwalitptl/clinic-api/pkg/money"

// FinalAmount is cost minus a flat discount, never negative, rounded to
// cents.
func FinalAmount(cost, discount float64) float64 {
	return money.Net(cost, discount)
}
