package grading

import "math"

// Decimals returns the number of decimal places used when rounding x:
// at least 2, more for smaller magnitudes. Zero rounds to 2 places.
func Decimals(x float64) int {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return 2
	}
	d := int(-math.Floor(math.Log10(math.Abs(x))))
	if d < 2 {
		return 2
	}
	return d
}

// RoundMagnitude rounds x to Decimals(x) places.
func RoundMagnitude(x float64) float64 {
	return RoundTo(x, Decimals(x))
}

// RoundTo rounds half to even at the given number of decimal places.
func RoundTo(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(places))
	return math.RoundToEven(x*p) / p
}
