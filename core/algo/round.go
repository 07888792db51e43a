package algo

import "math"

// snapDigits is the number of extra decimal places a value is snapped to before
// rounding, so that sums such as 1.9499999999999997 round as the 1.95 they represent.
const snapDigits = 5

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return RoundTo(v, 1)
}

// RoundTo rounds half away from zero to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	grid := math.Pow10(snapDigits)
	snapped := math.Round(v*p*grid) / grid
	return math.Round(snapped) / p
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
