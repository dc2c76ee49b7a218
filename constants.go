package beatgrid

import "time"

// Configuration defaults.
const (
	// DefaultSampleRate is the rate decoded audio is rendered to before analysis.
	DefaultSampleRate = 44100

	// DefaultLowPassFreq is the upper edge of the analysis band in Hz.
	DefaultLowPassFreq = 150.0

	// DefaultHighPassFreq is the lower edge of the analysis band in Hz.
	DefaultHighPassFreq = 100.0

	// DefaultBPMMin and DefaultBPMMax bound the octave-folded tempo, [min, max).
	DefaultBPMMin = 90.0
	DefaultBPMMax = 180.0

	// DefaultTimeSignature is the number of beats per bar.
	DefaultTimeSignature = 4

	// DefaultPrecision is the number of decimal digits kept in results.
	DefaultPrecision = 8

	// BeatMapPrecision is the precision used when results feed a generated beat map.
	BeatMapPrecision = 4

	// DefaultWindowSeconds is the peak extraction window length.
	DefaultWindowSeconds = 0.5

	// DefaultTapIdleTimeout is how long a tap session survives without taps.
	DefaultTapIdleTimeout = 5 * time.Second
)

// Peak extraction.
const (
	// peakKeepFraction is the share of loudest windows kept by ExtractPeaks.
	peakKeepFraction = 0.5
)

// Tempo clustering.
const (
	// tempoLookahead is how many following peaks each peak is paired with.
	tempoLookahead = 9

	// maxTempoGroups is the number of ranked candidates returned.
	maxTempoGroups = 5

	// octaveFactor doubles or halves a tempo during folding.
	octaveFactor = 2.0
)

// Beat phase estimation.
const (
	// attackCorrection shifts detected peaks back by this fraction of a beat.
	attackCorrection = 0.05

	// offsetBandSeconds is the tolerance around the loudest peak's phase.
	offsetBandSeconds = 0.05

	// firstBarMinVolume is the quietest peak accepted as the first downbeat.
	firstBarMinVolume = 0.02
)

// Unit conversions and layout.
const (
	secondsPerMinute = 60.0
	msPerMinute      = 60000.0

	stereoChannels = 2
	maxChannels    = 256
)

// Band filter design.
const (
	// defaultTransitionHz is the width of each band edge.
	defaultTransitionHz = 50.0

	// defaultStopbandDB is the attenuation outside the band.
	defaultStopbandDB = 40.0
)
