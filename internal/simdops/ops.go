// Package simdops exposes the SIMD kernels used by the band filter behind a
// single generic entry point, so FIR code is written once for float32 and
// float64 samples.
package simdops

import (
	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// Float is the type constraint for supported floating-point types.
type Float interface {
	float32 | float64
}

// Ops provides SIMD-accelerated operations for type F.
type Ops[F Float] struct {
	// ConvolveValid computes valid convolution of signal with kernel:
	// dst[i] = Σ signal[i+k] * kernel[k], len(dst) = len(signal)-len(kernel)+1.
	ConvolveValid func(dst, signal, kernel []F)
}

var (
	ops32 = Ops[float32]{
		ConvolveValid: f32.ConvolveValid,
	}
	ops64 = Ops[float64]{
		ConvolveValid: f64.ConvolveValid,
	}
)

// For returns the Ops instance for type F.
func For[F Float]() *Ops[F] {
	var zero F
	switch any(zero).(type) {
	case float32:
		ops, ok := any(&ops32).(*Ops[F])
		if !ok {
			panic("simdops: type assertion failed for float32")
		}
		return ops
	case float64:
		ops, ok := any(&ops64).(*Ops[F])
		if !ok {
			panic("simdops: type assertion failed for float64")
		}
		return ops
	default:
		panic("simdops: unsupported float type")
	}
}
