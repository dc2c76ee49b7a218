// Package filter designs and applies the linear-phase FIR filters that isolate
// the kick/bass band before peak extraction.
package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/go-beatgrid/internal/mathutil"
	"github.com/tphakala/simd/f64"
)

const (
	minFilterTaps = 3
	maxFilterTaps = 8191

	windowNormalizationFactor = 2.0

	sincCenterTap     = 1.0
	sincPiMultiplier  = math.Pi
	sincZeroThreshold = 1e-10

	nyquist = 0.5
)

// Kind selects the response shape of a designed filter.
type Kind int

const (
	// LowPass keeps content below the cutoff.
	LowPass Kind = iota

	// HighPass keeps content above the cutoff.
	HighPass
)

// String returns the filter kind name.
func (k Kind) String() string {
	switch k {
	case LowPass:
		return "lowpass"
	case HighPass:
		return "highpass"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KaiserWindow generates a symmetric Kaiser window of the given length.
//
//	w[n] = I₀(β * sqrt(1 - ((n - α)/α)²)) / I₀(β),  α = (N-1)/2
//
// The center tap is 1.0.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)
	if length == 1 {
		window[0] = sincCenterTap
		return window
	}

	alpha := float64(length-1) / windowNormalizationFactor
	i0Beta := mathutil.BesselI0(beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		window[n] = mathutil.BesselI0(beta*math.Sqrt(1.0-x*x)) / i0Beta
	}

	return window
}

// FilterParams holds parameters for filter design.
type FilterParams struct {
	// NumTaps is the filter length. It must be odd so the filter has an
	// integer group delay of (NumTaps-1)/2 samples.
	NumTaps int

	// CutoffFreq is the normalized cutoff frequency (cutoff Hz / sample rate),
	// strictly between 0 and 0.5.
	CutoffFreq float64

	// Attenuation is the desired stopband attenuation in dB.
	Attenuation float64

	// Gain is the passband gain (typically 1.0).
	Gain float64
}

// Validate checks if filter parameters are valid.
func (fp *FilterParams) Validate() error {
	if fp.NumTaps < minFilterTaps {
		return fmt.Errorf("filter too short: %d taps (minimum %d)", fp.NumTaps, minFilterTaps)
	}

	if fp.NumTaps > maxFilterTaps {
		return fmt.Errorf("filter too long: %d taps (maximum %d)", fp.NumTaps, maxFilterTaps)
	}

	if fp.NumTaps%2 == 0 {
		return fmt.Errorf("filter length must be odd: %d taps", fp.NumTaps)
	}

	if fp.CutoffFreq <= 0 || fp.CutoffFreq >= nyquist {
		return fmt.Errorf("invalid cutoff frequency: %f (must be in (0, 0.5))", fp.CutoffFreq)
	}

	if fp.Attenuation < 0 {
		return fmt.Errorf("invalid attenuation: %f dB (must be positive)", fp.Attenuation)
	}

	if fp.Gain <= 0 {
		return fmt.Errorf("invalid gain: %f (must be positive)", fp.Gain)
	}

	return nil
}

// DesignLowPassFilter designs a Kaiser-windowed sinc low-pass FIR filter,
// normalized to params.Gain at DC.
func DesignLowPassFilter(params FilterParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	beta := mathutil.KaiserBeta(params.Attenuation)
	window := KaiserWindow(params.NumTaps, beta)

	filter := make([]float64, params.NumTaps)
	center := float64(params.NumTaps-1) / windowNormalizationFactor

	for n := range params.NumTaps {
		x := float64(n) - center

		// sin(2πfc·x) / (πx), limit 2fc at x=0
		var sincValue float64
		if math.Abs(x) < sincZeroThreshold {
			sincValue = windowNormalizationFactor * params.CutoffFreq
		} else {
			arg := windowNormalizationFactor * sincPiMultiplier * params.CutoffFreq * x
			sincValue = math.Sin(arg) / (sincPiMultiplier * x)
		}

		filter[n] = sincValue * window[n]
	}

	sum := f64.Sum(filter)
	if math.Abs(sum) > sincZeroThreshold {
		f64.Scale(filter, filter, params.Gain/sum)
	}

	return filter, nil
}

// DesignHighPassFilter designs a high-pass filter by spectral inversion of
// the matching low-pass: h = Gain·δ[n-center] - lowpass. DC gain is zero.
func DesignHighPassFilter(params FilterParams) ([]float64, error) {
	lowParams := params
	lowParams.Gain = 1.0

	lp, err := DesignLowPassFilter(lowParams)
	if err != nil {
		return nil, err
	}

	f64.Scale(lp, lp, -params.Gain)
	lp[(len(lp)-1)/2] += params.Gain

	return lp, nil
}

// Spec describes a filter in physical units.
type Spec struct {
	Kind         Kind
	CutoffHz     float64
	TransitionHz float64
	Attenuation  float64
	SampleRate   int
}

// Design builds the filter described by spec, sizing it from the transition
// bandwidth and attenuation.
func Design(spec Spec) ([]float64, error) {
	if spec.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", spec.SampleRate)
	}

	rate := float64(spec.SampleRate)
	params := FilterParams{
		NumTaps:     mathutil.EstimateFilterLength(spec.Attenuation, spec.TransitionHz/rate),
		CutoffFreq:  spec.CutoffHz / rate,
		Attenuation: spec.Attenuation,
		Gain:        1.0,
	}

	switch spec.Kind {
	case LowPass:
		return DesignLowPassFilter(params)
	case HighPass:
		return DesignHighPassFilter(params)
	default:
		return nil, fmt.Errorf("unsupported filter kind: %v", spec.Kind)
	}
}

// FilterResponse holds the frequency response of a filter.
type FilterResponse struct {
	// Frequencies at which response was calculated (normalized, 0 to 0.5)
	Frequencies []float64

	// Magnitude response at each frequency (linear scale)
	Magnitude []float64

	// Phase response at each frequency (radians)
	Phase []float64
}

// ComputeFrequencyResponse evaluates the DTFT of a FIR filter at numPoints
// evenly spaced frequencies from DC to just below Nyquist.
func ComputeFrequencyResponse(coeffs []float64, numPoints int) FilterResponse {
	if numPoints <= 0 {
		numPoints = 512
	}

	response := FilterResponse{
		Frequencies: make([]float64, numPoints),
		Magnitude:   make([]float64, numPoints),
		Phase:       make([]float64, numPoints),
	}

	for k := range numPoints {
		freq := float64(k) / float64(windowNormalizationFactor*numPoints)
		response.Frequencies[k] = freq
		response.Magnitude[k], response.Phase[k] = ResponseAt(coeffs, freq)
	}

	return response
}

// ResponseAt returns the magnitude and phase of the filter at one
// normalized frequency.
func ResponseAt(coeffs []float64, freq float64) (magnitude, phase float64) {
	var realPart, imagPart float64
	omega := windowNormalizationFactor * sincPiMultiplier * freq

	for n, h := range coeffs {
		angle := omega * float64(n)
		realPart += h * math.Cos(angle)
		imagPart -= h * math.Sin(angle)
	}

	return math.Sqrt(realPart*realPart + imagPart*imagPart), math.Atan2(imagPart, realPart)
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	const (
		minMagnitude = 1e-10 // Avoid log(0)
		dbMultiplier = 20.0
	)

	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}
