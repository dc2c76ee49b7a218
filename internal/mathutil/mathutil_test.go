package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tphakala/go-beatgrid/internal/testutil"
)

// TestBesselI0 tests BesselI0 against known values.
func TestBesselI0(t *testing.T) {
	tests := []struct {
		name      string
		x         float64
		expected  float64
		tolerance float64
	}{
		{"Zero", 0.0, 1.0, 1e-15},
		{"Small positive", 0.5, 1.063483344, 1e-7},
		{"One", 1.0, 1.266065848, 1e-7},
		{"Three", 3.0, 4.880792565, 1e-7},
		{"Four", 4.0, 11.30192217, 1e-7},
		{"Ten", 10.0, 2815.716628, 1e-6},
		{"Negative one", -1.0, 1.266065848, 1e-7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertRelativeError(t, tt.expected, BesselI0(tt.x), tt.tolerance)
		})
	}
}

func TestKaiserBeta(t *testing.T) {
	tests := []struct {
		name        string
		attenuation float64
		expected    float64
	}{
		{"below_21dB_is_rectangular", 15, 0},
		{"medium_band", 40, 0.5842*math.Pow(19, 0.4) + 0.07886*19},
		{"high_band", 80, 0.1102 * (80 - 8.7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, KaiserBeta(tt.attenuation), 1e-12)
		})
	}
}

func TestEstimateFilterLength(t *testing.T) {
	t.Run("always_odd", func(t *testing.T) {
		for _, bw := range []float64{0.001, 0.0011, 0.01, 0.05, 0.2} {
			assert.Equal(t, 1, EstimateFilterLength(40, bw)%2, "bw=%v", bw)
		}
	})

	t.Run("narrower_transition_needs_more_taps", func(t *testing.T) {
		assert.Greater(t, EstimateFilterLength(40, 0.001), EstimateFilterLength(40, 0.01))
	})

	t.Run("clamped", func(t *testing.T) {
		assert.Equal(t, maxFilterLength, EstimateFilterLength(200, 1e-6))
		assert.Equal(t, minFilterLength, EstimateFilterLength(9, 0.45))
	})

	t.Run("non_positive_bandwidth_uses_default", func(t *testing.T) {
		assert.Equal(t, EstimateFilterLength(60, defaultTransitionBW), EstimateFilterLength(60, 0))
	})
}

func TestRound(t *testing.T) {
	tests := []struct {
		name      string
		v         float64
		precision int
		expected  float64
	}{
		{"integer", 119.6, 0, 120},
		{"half_away_from_zero", 2.5, 0, 3},
		{"negative_half", -2.5, 0, -3},
		{"four_digits", 0.123456, 4, 0.1235},
		{"eight_digits", 120.000000004, 8, 120},
		{"negative_precision_is_zero", 1.7, -3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Round(tt.v, tt.precision), 1e-12)
		})
	}

	t.Run("non_finite_passthrough", func(t *testing.T) {
		assert.True(t, math.IsNaN(Round(math.NaN(), 4)))
		assert.True(t, math.IsInf(Round(math.Inf(1), 4), 1))
	})
}
