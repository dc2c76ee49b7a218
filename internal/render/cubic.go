// Package render converts whole decoded buffers to the analysis sample rate.
//
// Analysis only looks at the sub-200 Hz band, so 4-point Hermite
// interpolation is sufficient; there is no anti-aliasing stage.
package render

import (
	"fmt"
	"math"
)

// Hermite interpolation coefficients (C1 continuous, Catmull-Rom form).
const (
	hermiteCoeff0_5 = 0.5
	hermiteCoeff1_5 = 1.5
	hermiteCoeff2_5 = 2.5
)

// Cubic resamples input from inputRate to outputRate using 4-point cubic
// Hermite interpolation. Samples outside the input are clamped to the
// nearest edge. The output holds floor(len(input) * outputRate/inputRate)
// samples. Equal rates return a copy.
func Cubic(input []float32, inputRate, outputRate int) ([]float32, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: %d -> %d", inputRate, outputRate)
	}

	if inputRate == outputRate {
		out := make([]float32, len(input))
		copy(out, input)
		return out, nil
	}

	n := len(input)
	if n == 0 {
		return []float32{}, nil
	}

	step := float64(inputRate) / float64(outputRate)
	outLen := int(math.Floor(float64(n) * float64(outputRate) / float64(inputRate)))
	out := make([]float32, outLen)

	at := func(i int) float64 {
		return float64(input[min(max(i, 0), n-1)])
	}

	for j := range outLen {
		pos := float64(j) * step
		i := int(pos)
		x := pos - float64(i)

		out[j] = float32(interpolate(at(i-1), at(i), at(i+1), at(i+2), x))
	}

	return out, nil
}

// interpolate evaluates the Hermite polynomial between y1 and y2:
// y = ((a*x + b)*x + c)*x + d.
func interpolate(y0, y1, y2, y3, x float64) float64 {
	coefA := -hermiteCoeff0_5*y0 + hermiteCoeff1_5*y1 - hermiteCoeff1_5*y2 + hermiteCoeff0_5*y3
	coefB := y0 - hermiteCoeff2_5*y1 + 2*y2 - hermiteCoeff0_5*y3
	coefC := -hermiteCoeff0_5*y0 + hermiteCoeff0_5*y2
	coefD := y1

	return ((coefA*x+coefB)*x+coefC)*x + coefD
}
