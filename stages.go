package beatgrid

import (
	"fmt"
	"sync"

	"github.com/tphakala/go-beatgrid/internal/filter"
	"github.com/tphakala/go-beatgrid/internal/render"
)

// Filter isolates the frequency band tempo detection runs on. Apply must not
// modify its input and returns channels of the same length.
type Filter interface {
	Apply(channels [][]float32, sampleRate int) ([][]float32, error)
}

// BandFilter is a linear-phase Kaiser band-pass: a low-pass at LowPassFreq
// followed by a high-pass at HighPassFreq. Filter delay is compensated, so
// transients keep their sample positions. Kernels are designed once per
// sample rate and shared; a BandFilter is safe for concurrent use.
type BandFilter struct {
	LowPassFreq  float64
	HighPassFreq float64

	// TransitionHz is the width of each band edge.
	TransitionHz float64

	// Attenuation is the stopband attenuation in dB.
	Attenuation float64

	// Parallel filters channels concurrently.
	Parallel bool

	mu      sync.RWMutex
	kernels map[int]bandKernels
}

type bandKernels struct {
	lowPass  []float64
	highPass []float64
}

// NewBandFilter creates a band filter with the default edge width and
// attenuation.
func NewBandFilter(lowPassFreq, highPassFreq float64) *BandFilter {
	return &BandFilter{
		LowPassFreq:  lowPassFreq,
		HighPassFreq: highPassFreq,
		TransitionHz: defaultTransitionHz,
		Attenuation:  defaultStopbandDB,
	}
}

// Apply filters every channel.
func (f *BandFilter) Apply(channels [][]float32, sampleRate int) ([][]float32, error) {
	lp, hp, err := f.Kernels(sampleRate)
	if err != nil {
		return nil, err
	}
	return processChannels(channels, f.Parallel, func(_ int, ch []float32) ([]float32, error) {
		return filter.ApplyCascade(ch, lp, hp), nil
	})
}

// Kernels returns the low-pass and high-pass kernels for sampleRate,
// designing and caching them on first use.
func (f *BandFilter) Kernels(sampleRate int) (lowPass, highPass []float64, err error) {
	f.mu.RLock()
	k, ok := f.kernels[sampleRate]
	f.mu.RUnlock()
	if ok {
		return k.lowPass, k.highPass, nil
	}

	if f.HighPassFreq <= 0 || f.LowPassFreq <= f.HighPassFreq {
		return nil, nil, fmt.Errorf("%w: band %g-%g Hz is empty", ErrInvalidConfig, f.HighPassFreq, f.LowPassFreq)
	}

	lowPass, err = filter.Design(filter.Spec{
		Kind:         filter.LowPass,
		CutoffHz:     f.LowPassFreq,
		TransitionHz: f.TransitionHz,
		Attenuation:  f.Attenuation,
		SampleRate:   sampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: low-pass: %w", ErrInvalidConfig, err)
	}
	highPass, err = filter.Design(filter.Spec{
		Kind:         filter.HighPass,
		CutoffHz:     f.HighPassFreq,
		TransitionHz: f.TransitionHz,
		Attenuation:  f.Attenuation,
		SampleRate:   sampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: high-pass: %w", ErrInvalidConfig, err)
	}

	f.mu.Lock()
	if f.kernels == nil {
		f.kernels = make(map[int]bandKernels)
	}
	f.kernels[sampleRate] = bandKernels{lowPass: lowPass, highPass: highPass}
	f.mu.Unlock()

	return lowPass, highPass, nil
}

// PassthroughFilter returns copies of its input unchanged. It suits signals
// that are already band-limited, such as synthetic click tracks.
type PassthroughFilter struct{}

// Apply copies every channel.
func (PassthroughFilter) Apply(channels [][]float32, _ int) ([][]float32, error) {
	return processChannels(channels, false, func(_ int, ch []float32) ([]float32, error) {
		out := make([]float32, len(ch))
		copy(out, ch)
		return out, nil
	})
}

// renderBuffer resamples buf to sampleRate and upmixes mono to stereo.
func renderBuffer(buf *Buffer, sampleRate int, parallel bool) (*Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	channels, err := processChannels(buf.Channels, parallel, func(i int, ch []float32) ([]float32, error) {
		out, err := render.Cubic(ch, buf.SampleRate, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %d: %w", ErrDecode, i, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	if len(channels) == 1 {
		right := make([]float32, len(channels[0]))
		copy(right, channels[0])
		channels = append(channels, right)
	}

	return &Buffer{SampleRate: sampleRate, Channels: channels}, nil
}

// processChannels runs fn on every channel, concurrently when parallel is set
// and there is more than one channel.
func processChannels(channels [][]float32, parallel bool, fn func(int, []float32) ([]float32, error)) ([][]float32, error) {
	output := make([][]float32, len(channels))

	if !parallel || len(channels) <= 1 {
		for ch := range channels {
			result, err := fn(ch, channels[ch])
			if err != nil {
				return nil, err
			}
			output[ch] = result
		}
		return output, nil
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(channels))

	for ch := range channels {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()

			result, err := fn(channel, channels[channel])
			if err != nil {
				errChan <- err
				return
			}
			output[channel] = result
		}(ch)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	return output, nil
}
