package beatgrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-beatgrid/internal/testutil"
)

func rms(s []float32) float64 {
	var sum float64
	for _, v := range s {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(s)))
}

func TestBandFilter_PassesBassRejectsMids(t *testing.T) {
	f := NewBandFilter(DefaultLowPassFreq, DefaultHighPassFreq)
	const n = testRate * 2

	tests := []struct {
		name    string
		freq    float64
		passing bool
	}{
		{"in_band_125Hz", 125, true},
		{"sub_bass_20Hz", 20, false},
		{"mids_1kHz", 1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testutil.Sine(testRate, tt.freq, n, 0.5)
			out, err := f.Apply([][]float32{in}, testRate)
			require.NoError(t, err)
			require.Len(t, out, 1)
			require.Len(t, out[0], n)

			// Measure away from the edges where the kernel is truncated.
			core := out[0][testRate/2 : n-testRate/2]
			ratio := rms(core) / rms(in[testRate/2:n-testRate/2])
			if tt.passing {
				assert.InDelta(t, 1.0, ratio, 0.1)
			} else {
				assert.Less(t, ratio, 0.05)
			}
		})
	}
}

func TestBandFilter_KernelsCachedPerRate(t *testing.T) {
	f := NewBandFilter(DefaultLowPassFreq, DefaultHighPassFreq)

	lp1, hp1, err := f.Kernels(testRate)
	require.NoError(t, err)
	lp2, hp2, err := f.Kernels(testRate)
	require.NoError(t, err)

	assert.Same(t, &lp1[0], &lp2[0])
	assert.Same(t, &hp1[0], &hp2[0])
	testutil.AssertOddLength(t, lp1)

	lp48, _, err := f.Kernels(48000)
	require.NoError(t, err)
	assert.NotEqual(t, len(lp1), len(lp48))
}

func TestBandFilter_InvalidBand(t *testing.T) {
	_, err := NewBandFilter(100, 150).Apply([][]float32{{0, 1, 0}}, testRate)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewBandFilter(150, 100).Apply([][]float32{{0, 1, 0}}, 200)
	assert.ErrorIs(t, err, ErrInvalidConfig, "band above Nyquist")
}

func TestBandFilter_ParallelMatchesSequential(t *testing.T) {
	left := testutil.ClickTrackBPM(testRate, 128, 3)
	right := testutil.Sine(testRate, 110, len(left), 0.3)
	channels := [][]float32{left, right}

	seq := NewBandFilter(DefaultLowPassFreq, DefaultHighPassFreq)
	par := NewBandFilter(DefaultLowPassFreq, DefaultHighPassFreq)
	par.Parallel = true

	want, err := seq.Apply(channels, testRate)
	require.NoError(t, err)
	got, err := par.Apply(channels, testRate)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestPassthroughFilter_Copies(t *testing.T) {
	in := [][]float32{{1, 2, 3}, {4, 5, 6}}

	out, err := PassthroughFilter{}.Apply(in, testRate)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out[0][0] = 9
	assert.Equal(t, float32(1), in[0][0])
}

func TestRenderBuffer(t *testing.T) {
	t.Run("mono_upmixed", func(t *testing.T) {
		buf := &Buffer{SampleRate: testRate, Channels: [][]float32{{0.1, 0.2, 0.3}}}
		out, err := renderBuffer(buf, testRate, false)
		require.NoError(t, err)
		require.Equal(t, 2, out.NumChannels())
		assert.Equal(t, out.Channels[0], out.Channels[1])
		out.Channels[1][0] = 7
		assert.NotEqual(t, out.Channels[0][0], out.Channels[1][0], "channels must not alias")
	})

	t.Run("resampled", func(t *testing.T) {
		buf := &Buffer{SampleRate: 22050, Channels: testutil.Stereo(testutil.Sine(22050, 100, 22050, 0.5))}
		out, err := renderBuffer(buf, testRate, true)
		require.NoError(t, err)
		assert.Equal(t, testRate, out.SampleRate)
		assert.Equal(t, testRate, out.Len())
		assert.Equal(t, 2, out.NumChannels())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := renderBuffer(&Buffer{SampleRate: 0, Channels: [][]float32{{0}}}, testRate, false)
		assert.ErrorIs(t, err, ErrInvalidConfig)

		_, err = renderBuffer(&Buffer{SampleRate: testRate, Channels: [][]float32{{0}}}, 0, false)
		assert.ErrorIs(t, err, ErrDecode)
	})
}
