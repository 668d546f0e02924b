package farm

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundMoney rounds a rupee amount to paisa using decimal arithmetic, so
// 0.125 rounds half away from zero instead of drifting with binary floats.
// Non-finite values pass through unchanged.
func RoundMoney(v float64) float64 {
	return Round(v, 2)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
