package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func argmaxAbs[F float32 | float64](s []F) int {
	best, idx := F(0), 0
	for i, v := range s {
		if v < 0 {
			v = -v
		}
		if v > best {
			best, idx = v, i
		}
	}
	return idx
}

// TestApply_PreservesTransientPosition checks both the direct and FFT paths
// keep an impulse centered on its original sample.
func TestApply_PreservesTransientPosition(t *testing.T) {
	short, err := DesignLowPassFilter(FilterParams{NumTaps: 101, CutoffFreq: 0.1, Attenuation: 60, Gain: 1})
	require.NoError(t, err)
	long, err := Design(Spec{Kind: LowPass, CutoffHz: 150, TransitionHz: 50, Attenuation: 40, SampleRate: 44100})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(long), minKernelForFFT, "long kernel should take the FFT path")

	tests := []struct {
		name   string
		kernel []float64
		length int
		pos    int
	}{
		{"direct", short, 2000, 700},
		{"fft", long, 20000, 9000},
		{"fft_at_start", long, 20000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := make([]float32, tt.length)
			signal[tt.pos] = 1

			out := Apply(signal, tt.kernel)

			require.Len(t, out, tt.length)
			assert.Equal(t, tt.pos, argmaxAbs(out))
			center := tt.kernel[(len(tt.kernel)-1)/2]
			assert.InDelta(t, center, float64(out[tt.pos]), 1e-6)
		})
	}
}

// TestApply_FFTMatchesDirect compares overlap-save against direct convolution.
func TestApply_FFTMatchesDirect(t *testing.T) {
	kernel, err := DesignLowPassFilter(FilterParams{NumTaps: 801, CutoffFreq: 0.05, Attenuation: 60, Gain: 1})
	require.NoError(t, err)

	signal := make([]float64, 5000)
	for i := range signal {
		signal[i] = float64((i*7919)%23) - 11
	}

	fftOut := Apply(signal, kernel)

	delay := (len(kernel) - 1) / 2
	padded := make([]float64, len(signal)+len(kernel)-1)
	copy(padded[delay:], signal)
	for n := range signal {
		var acc float64
		for k, h := range kernel {
			acc += padded[n+k] * h
		}
		assert.InDelta(t, acc, fftOut[n], 1e-8, "sample %d", n)
	}
}

func TestApply_EdgeCases(t *testing.T) {
	assert.Empty(t, Apply([]float32{}, []float64{1}))

	in := []float32{1, 2, 3}
	out := Apply(in, nil)
	assert.Equal(t, in, out)
	out[0] = 9
	assert.Equal(t, float32(1), in[0], "Apply must not alias its input")
}

func TestApplyCascade(t *testing.T) {
	identity := []float64{0, 1, 0}
	in := []float64{1, -2, 3, -4}

	assert.InDeltaSlice(t, in, ApplyCascade(in, identity, identity), 1e-12)
	assert.InDeltaSlice(t, in, ApplyCascade(in), 1e-12)
}

func BenchmarkApply_BassBand(b *testing.B) {
	lp, _ := Design(Spec{Kind: LowPass, CutoffHz: 150, TransitionHz: 50, Attenuation: 40, SampleRate: 44100})
	hp, _ := Design(Spec{Kind: HighPass, CutoffHz: 100, TransitionHz: 50, Attenuation: 40, SampleRate: 44100})
	signal := make([]float32, 44100*10)
	for i := 0; i < len(signal); i += 22050 {
		signal[i] = 1
	}

	b.ResetTimer()
	for b.Loop() {
		_ = ApplyCascade(signal, lp, hp)
	}
}
