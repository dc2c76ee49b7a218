package mathutil

import "math"

// MaxPrecision is the largest number of decimal digits Round honors.
const MaxPrecision = 15

// Round rounds v to the given number of decimal digits, half away from zero.
// Negative precision is treated as zero and precision above MaxPrecision
// is clamped. NaN and ±Inf are returned unchanged.
func Round(v float64, precision int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	precision = min(max(precision, 0), MaxPrecision)
	scale := math.Pow(decimalBase, float64(precision))

	scaled := v * scale
	if math.IsInf(scaled, 0) {
		return v
	}

	return math.Round(scaled) / scale
}
