// Package mathutil provides the numeric helpers shared by the band filter
// design and the tempo estimators.
package mathutil

import (
	"math"
)

// BesselI0 computes the modified Bessel function of the first kind, order zero: I₀(x).
// It is the building block of the Kaiser window used by the band filter.
//
// Polynomial approximations from Abramowitz & Stegun:
//   - |x| < 3.75: series in (x/3.75)²
//   - otherwise: asymptotic expansion scaled by eˣ/√x
func BesselI0(x float64) float64 {
	ax := math.Abs(x)

	if ax < besselSmallArgThreshold {
		t := x / besselSmallArgThreshold
		t *= t

		return 1.0 + t*(besselI0Coeff1+t*(besselI0Coeff2+t*(besselI0Coeff3+
			t*(besselI0Coeff4+t*(besselI0Coeff5+t*besselI0Coeff6)))))
	}

	t := besselSmallArgThreshold / ax

	result := besselI0AsympCoeff0 + t*(besselI0AsympCoeff1+t*(besselI0AsympCoeff2+
		t*(besselI0AsympCoeff3+t*(besselI0AsympCoeff4+t*(besselI0AsympCoeff5+
			t*(besselI0AsympCoeff6+t*(besselI0AsympCoeff7+t*besselI0AsympCoeff8)))))))

	return math.Exp(ax) * result / math.Sqrt(ax)
}

// KaiserBeta returns the Kaiser window β for the desired stopband
// attenuation in dB (Kaiser & Schafer):
//   - att > 50 dB: β = 0.1102 * (att - 8.7)
//   - 21 dB ≤ att ≤ 50 dB: β = 0.5842 * (att - 21)^0.4 + 0.07886 * (att - 21)
//   - att < 21 dB: β = 0 (rectangular window)
func KaiserBeta(attenuation float64) float64 {
	if attenuation > kaiserAttHigh {
		return kaiserBetaHighCoeff1 * (attenuation - kaiserBetaHighOffset)
	} else if attenuation >= kaiserAttMedium {
		delta := attenuation - kaiserAttMedium
		return kaiserBetaMediumCoeff1*math.Pow(delta, kaiserBetaMediumPower) + kaiserBetaMediumCoeff2*delta
	}
	return 0.0
}

// EstimateFilterLength estimates the FIR length needed to reach the given
// attenuation over the given transition bandwidth (normalized to the sample
// rate), using N ≈ (att - 8) / (2.285 * 2π * Δf).
//
// The result is always odd so the filter has an integer group delay, and it
// is clamped to [3, 8191].
func EstimateFilterLength(attenuation, transitionBW float64) int {
	if transitionBW <= 0 {
		transitionBW = defaultTransitionBW
	}

	numTaps := (attenuation - kaiserFilterLengthOffset) /
		(kaiserFilterLengthMultiplier * kaiserFilterLengthPiFactor * math.Pi * transitionBW)

	taps := int(math.Ceil(numTaps))
	if taps%2 == 0 {
		taps++
	}

	return min(max(taps, minFilterLength), maxFilterLength)
}
