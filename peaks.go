package beatgrid

import (
	"fmt"
	"math"
	"slices"
)

// Peak is the loudest sample of one analysis window.
type Peak struct {
	// Position is the sample index of the peak. Phase-corrected peaks may
	// carry negative positions.
	Position int

	// Volume is the largest absolute amplitude across channels at Position.
	Volume float64
}

// ExtractPeaks splits the signal into windows of windowSeconds, takes the
// loudest cross-channel sample of each window and keeps the louder half,
// ordered by ascending position. Silent input yields zero-volume peaks
// rather than an error.
func ExtractPeaks(channels [][]float32, sampleRate int, windowSeconds float64) ([]Peak, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidConfig)
	}
	size, err := windowSize(sampleRate, windowSeconds)
	if err != nil {
		return nil, err
	}

	peaks := windowPeaks(channels, size)
	if len(peaks) == 0 {
		return peaks, nil
	}

	slices.SortStableFunc(peaks, byVolumeDesc)
	keep := max(1, int(math.Floor(float64(len(peaks))*peakKeepFraction)))
	peaks = peaks[:keep]

	slices.SortStableFunc(peaks, byPosition)
	return peaks, nil
}

func windowSize(sampleRate int, windowSeconds float64) (int, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	}
	if windowSeconds <= 0 || math.IsNaN(windowSeconds) || math.IsInf(windowSeconds, 0) {
		return 0, fmt.Errorf("%w: window length must be positive", ErrInvalidConfig)
	}
	size := int(float64(sampleRate) * windowSeconds)
	if size < 1 {
		return 0, fmt.Errorf("%w: window shorter than one sample", ErrInvalidConfig)
	}
	return size, nil
}

// windowPeaks returns one peak per complete window, in window order. The
// first sample reaching the window maximum wins ties. Channels shorter than
// the first are treated as silent past their end.
func windowPeaks(channels [][]float32, size int) []Peak {
	length := len(channels[0])
	windows := length / size
	peaks := make([]Peak, 0, windows)

	for w := range windows {
		start := w * size
		best := Peak{Position: start}
		for i := start; i < start+size; i++ {
			v := crossChannelMax(channels, i)
			if v > best.Volume {
				best = Peak{Position: i, Volume: v}
			}
		}
		peaks = append(peaks, best)
	}
	return peaks
}

func crossChannelMax(channels [][]float32, i int) float64 {
	var m float64
	for _, ch := range channels {
		if i >= len(ch) {
			continue
		}
		v := math.Abs(float64(ch[i]))
		if v > m {
			m = v
		}
	}
	return m
}

func byVolumeDesc(a, b Peak) int {
	switch {
	case a.Volume > b.Volume:
		return -1
	case a.Volume < b.Volume:
		return 1
	default:
		return 0
	}
}

func byPosition(a, b Peak) int {
	return a.Position - b.Position
}
