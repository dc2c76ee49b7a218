package filter

import (
	"github.com/tphakala/go-beatgrid/internal/simdops"
)

// Apply filters signal with a symmetric (linear-phase) kernel and returns a
// buffer of the same length. The kernel's group delay of (len(kernel)-1)/2
// samples is removed by zero-padding both ends, so transients keep their
// sample positions.
//
// Long kernels go through FFTConvolver; short ones use direct SIMD
// convolution in the sample type.
func Apply[F simdops.Float](signal []F, kernel []float64) []F {
	out := make([]F, len(signal))
	if len(signal) == 0 {
		return out
	}
	if len(kernel) == 0 {
		copy(out, signal)
		return out
	}

	delay := (len(kernel) - 1) / 2
	paddedLen := len(signal) + len(kernel) - 1

	if len(kernel) >= minKernelForFFT {
		padded := make([]float64, paddedLen)
		for i, v := range signal {
			padded[delay+i] = float64(v)
		}

		dst := make([]float64, len(signal))
		NewFFTConvolver(kernel).Convolve(dst, padded)

		for i, v := range dst {
			out[i] = F(v)
		}
		return out
	}

	padded := make([]F, paddedLen)
	copy(padded[delay:], signal)

	kernelF := make([]F, len(kernel))
	for i, v := range kernel {
		kernelF[i] = F(v)
	}

	simdops.For[F]().ConvolveValid(out, padded, kernelF)
	return out
}

// ApplyCascade runs signal through each kernel in order.
func ApplyCascade[F simdops.Float](signal []F, kernels ...[]float64) []F {
	out := signal
	for _, k := range kernels {
		out = Apply(out, k)
	}
	if len(kernels) == 0 {
		out = Apply(signal, nil)
	}
	return out
}
