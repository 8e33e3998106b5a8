package onebeat

import "github.com/shopspring/decimal"

// RoundToUoM rounds value to a multiple of the unit rounding step using
// round-half-to-even. A non-positive step leaves the value untouched.
func RoundToUoM(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	s := decimal.NewFromFloat(step)
	rounded := decimal.NewFromFloat(value).Div(s).RoundBank(0).Mul(s)
	f, _ := rounded.Float64()
	return f
}
