package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-beatgrid/internal/testutil"
)

const (
	defaultTolerance = 1e-10
	windowTolerance  = 1e-10

	testWindowLength11 = 11
	testWindowLength21 = 21
	testBeta5          = 5.0
	testBeta8          = 8.653728

	testAttenuation40 = 40.0
	testAttenuation80 = 80.0
	testCutoff0_25    = 0.25
	testGainUnity     = 1.0

	testSampleRate   = 44100
	testTransitionHz = 50.0
	testLowPassHz    = 150.0
	testHighPassHz   = 100.0

	passbandRippleDB = 0.5
	stopbandCeilDB   = -30.0
)

func TestKaiserWindow_Symmetry(t *testing.T) {
	tests := []struct {
		name   string
		length int
		beta   float64
	}{
		{"length_11_beta_5", testWindowLength11, testBeta5},
		{"length_21_beta_8", testWindowLength21, testBeta8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := KaiserWindow(tt.length, tt.beta)

			assert.Len(t, window, tt.length)
			testutil.AssertSymmetric(t, window, windowTolerance)
			testutil.AssertCenterIsMax(t, window)
			assert.InDelta(t, 1.0, window[tt.length/2], windowTolerance)
		})
	}
}

func TestKaiserWindow_EdgeCases(t *testing.T) {
	assert.Empty(t, KaiserWindow(0, testBeta5))
	assert.Empty(t, KaiserWindow(-1, testBeta5))

	single := KaiserWindow(1, testBeta5)
	require.Len(t, single, 1)
	assert.InDelta(t, 1.0, single[0], windowTolerance)
}

func TestFilterParams_Validate(t *testing.T) {
	valid := FilterParams{NumTaps: 101, CutoffFreq: testCutoff0_25, Attenuation: testAttenuation80, Gain: testGainUnity}

	tests := []struct {
		name    string
		mutate  func(*FilterParams)
		wantErr bool
	}{
		{"valid_params", func(*FilterParams) {}, false},
		{"too_few_taps", func(p *FilterParams) { p.NumTaps = 1 }, true},
		{"too_many_taps", func(p *FilterParams) { p.NumTaps = 10001 }, true},
		{"even_taps", func(p *FilterParams) { p.NumTaps = 100 }, true},
		{"cutoff_zero", func(p *FilterParams) { p.CutoffFreq = 0 }, true},
		{"cutoff_nyquist", func(p *FilterParams) { p.CutoffFreq = 0.5 }, true},
		{"negative_attenuation", func(p *FilterParams) { p.Attenuation = -10 }, true},
		{"zero_gain", func(p *FilterParams) { p.Gain = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDesignLowPassFilter(t *testing.T) {
	for _, gain := range []float64{testGainUnity, 2.0, 0.5} {
		params := FilterParams{NumTaps: 101, CutoffFreq: testCutoff0_25, Attenuation: testAttenuation80, Gain: gain}

		h, err := DesignLowPassFilter(params)
		require.NoError(t, err)

		assert.Len(t, h, params.NumTaps)
		testutil.AssertSymmetric(t, h, defaultTolerance)
		testutil.AssertDCGain(t, h, gain, defaultTolerance)
	}
}

func TestDesignHighPassFilter(t *testing.T) {
	params := FilterParams{NumTaps: 101, CutoffFreq: testCutoff0_25, Attenuation: testAttenuation80, Gain: testGainUnity}

	h, err := DesignHighPassFilter(params)
	require.NoError(t, err)

	testutil.AssertSymmetric(t, h, defaultTolerance)
	testutil.AssertDCGain(t, h, 0, 1e-9)

	nyquistMag, _ := ResponseAt(h, 0.5)
	assert.InDelta(t, 1.0, nyquistMag, 1e-3)
}

func TestDesign_BassBand(t *testing.T) {
	lp, err := Design(Spec{Kind: LowPass, CutoffHz: testLowPassHz, TransitionHz: testTransitionHz, Attenuation: testAttenuation40, SampleRate: testSampleRate})
	require.NoError(t, err)
	hp, err := Design(Spec{Kind: HighPass, CutoffHz: testHighPassHz, TransitionHz: testTransitionHz, Attenuation: testAttenuation40, SampleRate: testSampleRate})
	require.NoError(t, err)

	testutil.AssertOddLength(t, lp)
	testutil.AssertOddLength(t, hp)

	norm := func(hz float64) float64 { return hz / testSampleRate }

	tests := []struct {
		name    string
		kernel  []float64
		freqHz  float64
		passing bool
	}{
		{"lowpass_passes_50Hz", lp, 50, true},
		{"lowpass_rejects_1kHz", lp, 1000, false},
		{"highpass_passes_1kHz", hp, 1000, true},
		{"highpass_rejects_20Hz", hp, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mag, _ := ResponseAt(tt.kernel, norm(tt.freqHz))
			db := MagnitudeDB(mag)
			if tt.passing {
				assert.LessOrEqual(t, math.Abs(db), passbandRippleDB, "%.1f Hz at %.2f dB", tt.freqHz, db)
			} else {
				assert.LessOrEqual(t, db, stopbandCeilDB, "%.1f Hz at %.2f dB", tt.freqHz, db)
			}
		})
	}
}

func TestDesign_InvalidSpec(t *testing.T) {
	_, err := Design(Spec{Kind: LowPass, CutoffHz: 150, TransitionHz: 50, Attenuation: 40, SampleRate: 0})
	assert.Error(t, err)

	_, err = Design(Spec{Kind: LowPass, CutoffHz: 30000, TransitionHz: 50, Attenuation: 40, SampleRate: testSampleRate})
	assert.Error(t, err, "cutoff above Nyquist")

	_, err = Design(Spec{Kind: Kind(7), CutoffHz: 150, TransitionHz: 50, Attenuation: 40, SampleRate: testSampleRate})
	assert.Error(t, err)
}

func TestComputeFrequencyResponse(t *testing.T) {
	coeffs := []float64{0.25, 0.5, 0.25}
	const points = 512

	response := ComputeFrequencyResponse(coeffs, points)

	assert.Len(t, response.Frequencies, points)
	assert.Len(t, response.Magnitude, points)
	assert.Len(t, response.Phase, points)
	assert.InDelta(t, 1.0, response.Magnitude[0], 1e-2)
	assert.LessOrEqual(t, response.Magnitude[points-1], 1e-2)
}

func TestMagnitudeDB(t *testing.T) {
	assert.InDelta(t, 0.0, MagnitudeDB(1), 0.01)
	assert.InDelta(t, -6.0206, MagnitudeDB(0.5), 0.01)
	assert.InDelta(t, -20.0, MagnitudeDB(0.1), 0.01)
	assert.InDelta(t, -200.0, MagnitudeDB(0), 0.01)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "lowpass", LowPass.String())
	assert.Equal(t, "highpass", HighPass.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func BenchmarkDesign_BassLowPass(b *testing.B) {
	spec := Spec{Kind: LowPass, CutoffHz: testLowPassHz, TransitionHz: testTransitionHz, Attenuation: testAttenuation40, SampleRate: testSampleRate}
	for b.Loop() {
		_, _ = Design(spec)
	}
}
