package beatgrid

import (
	"fmt"
	"math"
	"slices"
)

// OffsetResult holds the beat phase estimate for a signal.
type OffsetResult struct {
	// Offset is the mean phase in seconds of the peaks agreeing with the
	// loudest one, in [0, 60/bpm).
	Offset float64

	// FirstBar is the time in seconds of the first window peak at or above
	// the first-bar volume floor.
	FirstBar float64
}

// OffsetOptions controls beat phase estimation.
type OffsetOptions struct {
	TimeSignature int
	WindowSeconds float64
}

// EstimateOffsets finds the beat grid phase of a single channel at a known
// tempo. Window peaks are shifted back by 5% of a beat to land on the attack
// rather than the loudest point, reduced modulo the beat period, and averaged
// over those within 50 ms of the loudest peak's phase.
//
// FirstBar is the first unshifted window peak of at least 0.02 volume. When it
// falls strictly between Offset and one beat it is replaced by Offset; when no
// peak is loud enough it equals Offset.
func EstimateOffsets(samples []float32, sampleRate int, bpm float64, opts OffsetOptions) (OffsetResult, error) {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return OffsetResult{}, fmt.Errorf("%w: bpm must be positive", ErrInvalidConfig)
	}
	if opts.TimeSignature < 1 {
		return OffsetResult{}, fmt.Errorf("%w: time signature must be at least 1", ErrInvalidConfig)
	}
	size, err := windowSize(sampleRate, opts.WindowSeconds)
	if err != nil {
		return OffsetResult{}, err
	}

	raw := windowPeaks([][]float32{samples}, size)
	if len(raw) == 0 {
		return OffsetResult{}, fmt.Errorf("%w: signal shorter than one window", ErrDetection)
	}

	beat := secondsPerMinute / bpm
	shift := int(math.Round(attackCorrection * beat * float64(sampleRate)))

	corrected := make([]Peak, len(raw))
	for i, p := range raw {
		corrected[i] = Peak{Position: p.Position - shift, Volume: p.Volume}
	}
	slices.SortStableFunc(corrected, byVolumeDesc)

	if corrected[0].Volume == 0 {
		return OffsetResult{}, fmt.Errorf("%w: silent signal", ErrDetection)
	}

	phase := func(p Peak) float64 {
		return lowestTimeOffset(float64(p.Position)/float64(sampleRate), beat, opts.TimeSignature)
	}

	ref := phase(corrected[0])
	var sum float64
	var divider int
	for _, p := range corrected {
		off := phase(p)
		if off-ref < offsetBandSeconds || ref-off > -offsetBandSeconds {
			sum += off
			divider++
		}
	}
	if divider == 0 {
		return OffsetResult{}, fmt.Errorf("%w: no peaks agree on phase", ErrDetection)
	}
	offset := sum / float64(divider)

	firstBar := offset
	for _, p := range raw {
		if p.Volume >= firstBarMinVolume {
			firstBar = float64(p.Position) / float64(sampleRate)
			break
		}
	}
	if firstBar > offset && firstBar < beat {
		firstBar = offset
	}

	return OffsetResult{Offset: offset, FirstBar: firstBar}, nil
}

// lowestTimeOffset reduces a time in seconds to its phase within one beat:
// whole bars are removed while t is at least one beat, then negative times
// are lifted by whole beats. Each step is a single operation regardless of
// how many bars or beats it spans.
func lowestTimeOffset(t, beat float64, timeSignature int) float64 {
	bar := beat * float64(timeSignature)
	if t >= beat {
		t -= (math.Floor((t-beat)/bar) + 1) * bar
	}
	if t < 0 || t >= beat {
		t = math.Mod(t, beat)
		if t < 0 {
			t += beat
		}
	}
	if t >= beat {
		// t was a hair below zero and rounded up onto the next beat.
		return 0
	}
	return t
}
