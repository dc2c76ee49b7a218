package beatgrid

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/tphakala/go-beatgrid/internal/mathutil"
)

// BPMRange is the half-open tempo interval [Min, Max) that candidate tempos
// are octave-folded into.
type BPMRange struct {
	Min float64
	Max float64
}

// Contains reports whether tempo lies in [Min, Max).
func (r BPMRange) Contains(tempo float64) bool {
	return tempo >= r.Min && tempo < r.Max
}

// Validate checks that the range is finite, positive and spans at least one
// octave, which folding needs to always land inside it.
func (r BPMRange) Validate() error {
	if !finite(r.Min, r.Max) {
		return fmt.Errorf("%w: bpm range [%g, %g) must be finite", ErrInvalidConfig, r.Min, r.Max)
	}
	if r.Min <= 0 {
		return fmt.Errorf("%w: bpm range minimum must be positive", ErrInvalidConfig)
	}
	if r.Max < octaveFactor*r.Min {
		return fmt.Errorf("%w: bpm range [%g, %g) must span at least one octave", ErrInvalidConfig, r.Min, r.Max)
	}
	return nil
}

// foldable reports whether FoldTempo can always land inside r.
func (r BPMRange) foldable() bool {
	return finite(r.Min, r.Max) && r.Min > 0 && r.Max >= octaveFactor*r.Min
}

// PhaseSource selects which left channel feeds the beat phase estimator.
type PhaseSource int

const (
	// PhaseFromRaw uses the unfiltered left channel.
	PhaseFromRaw PhaseSource = iota

	// PhaseFromFiltered uses the band-filtered left channel.
	PhaseFromFiltered
)

// String returns the phase source name.
func (p PhaseSource) String() string {
	switch p {
	case PhaseFromRaw:
		return "raw"
	case PhaseFromFiltered:
		return "filtered"
	default:
		return fmt.Sprintf("PhaseSource(%d)", int(p))
	}
}

// Config holds analysis configuration.
type Config struct {
	// SampleRate is the rate decoded audio is rendered to, in Hz.
	SampleRate int

	// LowPassFreq is the upper edge of the analysis band in Hz.
	LowPassFreq float64

	// HighPassFreq is the lower edge of the analysis band in Hz.
	HighPassFreq float64

	// BPMRange bounds the detected tempo. Max must be at least 2*Min.
	BPMRange BPMRange

	// TimeSignature is the number of beats per bar.
	TimeSignature int

	// RoundToInteger rounds tempo candidates to whole BPM instead of
	// Precision decimal digits.
	RoundToInteger bool

	// Precision is the number of decimal digits kept for tempo, offset and
	// first bar (0-15).
	Precision int

	// Instrumentation attaches stage timings to results.
	Instrumentation bool

	// WindowSeconds is the peak extraction window length.
	WindowSeconds float64

	// PhaseSource picks the raw or filtered left channel for phase estimation.
	PhaseSource PhaseSource

	// EnableParallel renders and filters channels concurrently.
	// Has no effect on mono audio.
	EnableParallel bool

	// Fetcher retrieves audio for Analyze. Nil selects AutoFetcher.
	Fetcher Fetcher

	// Decoder turns fetched bytes into samples. Nil selects AutoDecoder.
	Decoder Decoder

	// Filter isolates the analysis band. Nil selects a BandFilter built from
	// LowPassFreq and HighPassFreq.
	Filter Filter

	// Logger receives per-stage debug records. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the standard analysis configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:    DefaultSampleRate,
		LowPassFreq:   DefaultLowPassFreq,
		HighPassFreq:  DefaultHighPassFreq,
		BPMRange:      BPMRange{Min: DefaultBPMMin, Max: DefaultBPMMax},
		TimeSignature: DefaultTimeSignature,
		Precision:     DefaultPrecision,
		WindowSeconds: DefaultWindowSeconds,
		PhaseSource:   PhaseFromRaw,
	}
}

// BeatMapConfig returns DefaultConfig with the coarser precision used for
// generated beat maps.
func BeatMapConfig() Config {
	c := DefaultConfig()
	c.Precision = BeatMapPrecision
	return c
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	}

	nyquist := float64(c.SampleRate) / 2
	if !finite(c.HighPassFreq, c.LowPassFreq) ||
		c.HighPassFreq <= 0 || c.LowPassFreq <= c.HighPassFreq || c.LowPassFreq >= nyquist {
		return fmt.Errorf("%w: filter band must satisfy 0 < high-pass (%g) < low-pass (%g) < %g Hz",
			ErrInvalidConfig, c.HighPassFreq, c.LowPassFreq, nyquist)
	}

	if err := c.BPMRange.Validate(); err != nil {
		return err
	}

	if c.TimeSignature < 1 {
		return fmt.Errorf("%w: time signature must be at least 1", ErrInvalidConfig)
	}

	if c.Precision < 0 || c.Precision > mathutil.MaxPrecision {
		return fmt.Errorf("%w: precision must be 0-%d digits", ErrInvalidConfig, mathutil.MaxPrecision)
	}

	if !finite(c.WindowSeconds) || c.WindowSeconds <= 0 {
		return fmt.Errorf("%w: window length must be positive", ErrInvalidConfig)
	}

	if c.PhaseSource != PhaseFromRaw && c.PhaseSource != PhaseFromFiltered {
		return fmt.Errorf("%w: unknown phase source %v", ErrInvalidConfig, c.PhaseSource)
	}

	return nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (c *Config) tempoOptions() TempoOptions {
	return TempoOptions{
		Range:          c.BPMRange,
		Precision:      c.Precision,
		RoundToInteger: c.RoundToInteger,
	}
}

func (c *Config) offsetOptions() OffsetOptions {
	return OffsetOptions{
		TimeSignature: c.TimeSignature,
		WindowSeconds: c.WindowSeconds,
	}
}

// Error kinds. Pipeline failures arrive wrapped in a *StageError; use
// errors.Is to classify them.
var (
	// ErrInvalidConfig indicates invalid configuration or missing stage input.
	ErrInvalidConfig = errors.New("invalid beatgrid configuration")

	// ErrRetrieval indicates the audio could not be fetched.
	ErrRetrieval = errors.New("audio retrieval failed")

	// ErrNotFound indicates the audio location does not exist.
	ErrNotFound = fmt.Errorf("%w: not found", ErrRetrieval)

	// ErrDecode indicates the audio could not be decoded or rendered.
	ErrDecode = errors.New("audio decode failed")

	// ErrDetection indicates the signal gave no usable tempo or phase
	// (silence, too short, or no peaks).
	ErrDetection = errors.New("beat detection failed")
)

// Stage identifies a step of the analysis pipeline.
type Stage int

const (
	StageFetch Stage = iota
	StageDecode
	StageRender
	StageFilter
	StagePeaks
	StageTempo
	StageOffset
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageFetch:
		return "fetch"
	case StageDecode:
		return "decode"
	case StageRender:
		return "render"
	case StageFilter:
		return "filter"
	case StagePeaks:
		return "peaks"
	case StageTempo:
		return "tempo"
	case StageOffset:
		return "offset"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// StageError reports which pipeline stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("beatgrid: %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Perf is the timing breakdown attached when Config.Instrumentation is set.
type Perf struct {
	Fetch   time.Duration `json:"fetch"`
	Render  time.Duration `json:"render"`
	Process time.Duration `json:"process"`
}

// BeatInfo is the result of an analysis.
type BeatInfo struct {
	// BPM is the detected tempo, folded into the configured range.
	BPM float64 `json:"bpm"`

	// Offset is the phase of the beat grid in seconds, in [0, 60/BPM).
	Offset float64 `json:"offset"`

	// FirstBar is the time of the first downbeat in seconds.
	FirstBar float64 `json:"firstBar"`

	Perf *Perf `json:"perf,omitempty"`
}

// BeatPeriod returns the length of one beat in seconds.
func (b BeatInfo) BeatPeriod() float64 {
	if b.BPM <= 0 {
		return 0
	}
	return secondsPerMinute / b.BPM
}

// BeatTime returns the time in seconds of the k-th grid line at the given
// subdivision of a beat (1 = beats, 0.5 = eighth notes in 4/4):
// FirstBar + Offset + k*(60/BPM)*subdivision.
func (b BeatInfo) BeatTime(k int, subdivision float64) float64 {
	return b.FirstBar + b.Offset + float64(k)*b.BeatPeriod()*subdivision
}
