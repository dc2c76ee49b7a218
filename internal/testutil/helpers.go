// Package testutil provides signal generators, WAV fixtures and assertions
// shared by the beat detection tests.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	WindowTolerance  = 1e-10
)

const (
	halfDivisor     = 2
	secondsPerMin   = 60.0
	wavFormatPCM    = 1
	defaultBitDepth = 16
)

// ClickTrack returns a mono buffer of durationSeconds holding unit-step
// impulses of the given amplitude every intervalSeconds, starting at
// startSeconds.
func ClickTrack(sampleRate int, intervalSeconds, startSeconds, durationSeconds float64, amplitude float32) []float32 {
	n := int(durationSeconds * float64(sampleRate))
	out := make([]float32, n)
	for k := 0; ; k++ {
		pos := int(math.Round((startSeconds + float64(k)*intervalSeconds) * float64(sampleRate)))
		if pos >= n {
			break
		}
		if pos >= 0 {
			out[pos] = amplitude
		}
	}
	return out
}

// ClickTrackBPM is ClickTrack with the interval expressed as a tempo.
func ClickTrackBPM(sampleRate int, bpm, durationSeconds float64) []float32 {
	return ClickTrack(sampleRate, secondsPerMin/bpm, 0, durationSeconds, 1)
}

// Silence returns n zero samples.
func Silence(n int) []float32 {
	return make([]float32, n)
}

// Stereo returns a two channel buffer with ch on the left and a copy on the right.
func Stereo(ch []float32) [][]float32 {
	right := make([]float32, len(ch))
	copy(right, ch)
	return [][]float32{ch, right}
}

// Sine returns n samples of a sine at freq Hz.
func Sine(sampleRate int, freq float64, n int, amplitude float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = amplitude * float32(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

// WriteWAV encodes planar channels as 16-bit PCM into a file under t.TempDir()
// and returns its path.
func WriteWAV(t *testing.T, name string, channels [][]float32, sampleRate int) string {
	t.Helper()
	require.NotEmpty(t, channels, "WriteWAV needs at least one channel")

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	numChannels := len(channels)
	frames := len(channels[0])
	maxVal := float64(int(1)<<(defaultBitDepth-1) - 1)

	data := make([]int, frames*numChannels)
	for i := range frames {
		for ch := range numChannels {
			v := max(-1, min(1, float64(channels[ch][i])))
			data[i*numChannels+ch] = int(math.Round(v * maxVal))
		}
	}

	enc := wav.NewEncoder(f, sampleRate, defaultBitDepth, numChannels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		SourceBitDepth: defaultBitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())

	return path
}

// ReadFile reads a fixture written by WriteWAV.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// AssertSymmetric verifies that a slice is symmetric (s[i] == s[n-1-i]).
func AssertSymmetric(t *testing.T, s []float64, tolerance float64) bool {
	t.Helper()
	n := len(s)
	for i := 0; i < n/halfDivisor; i++ {
		j := n - 1 - i
		if !assert.InDelta(t, s[i], s[j], tolerance,
			"slice not symmetric at i=%d: s[%d]=%f != s[%d]=%f", i, i, s[i], j, s[j]) {
			return false
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertDCGain verifies that the sum of coefficients equals the expected DC gain.
func AssertDCGain(t *testing.T, coeffs []float64, expectedGain, tolerance float64) bool {
	t.Helper()
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return assert.InDelta(t, expectedGain, sum, tolerance,
		"DC gain = %f, want %f", sum, expectedGain)
}

// AssertCenterIsMax verifies that the center element has the largest magnitude.
func AssertCenterIsMax(t *testing.T, s []float64) bool {
	t.Helper()
	if len(s) == 0 {
		return assert.Fail(t, "empty slice")
	}
	centerIdx := len(s) / halfDivisor
	centerValue := math.Abs(s[centerIdx])
	for i, v := range s {
		if math.Abs(v) > centerValue {
			return assert.Fail(t, "center is not max",
				"|s[%d]|=%f > center |s[%d]|=%f", i, math.Abs(v), centerIdx, centerValue)
		}
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// AssertOddLength verifies that a slice has an odd length.
func AssertOddLength(t *testing.T, s []float64) bool {
	t.Helper()
	return assert.Equal(t, 1, len(s)%halfDivisor, "slice length %d is not odd", len(s))
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			append([]any{"value %f is outside range [%f, %f]", value, minVal, maxVal}, msgAndArgs...)...)
	}
	return true
}

// PhaseDistance returns the circular distance between two phases in a cycle of length period.
func PhaseDistance(a, b, period float64) float64 {
	d := math.Mod(math.Abs(a-b), period)
	return min(d, period-d)
}
