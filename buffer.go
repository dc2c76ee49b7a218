package beatgrid

import (
	"fmt"
	"time"
)

// Buffer is decoded PCM audio: one slice of float32 samples per channel at a
// fixed sample rate. Buffers passed to the analyzer are never modified.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Len returns the number of frames, the length of the first channel.
func (b *Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Len()) / float64(b.SampleRate) * float64(time.Second))
}

// Channel returns channel i, or nil if it does not exist.
func (b *Buffer) Channel(i int) []float32 {
	if i < 0 || i >= len(b.Channels) {
		return nil
	}
	return b.Channels[i]
}

// Validate checks the buffer has a positive rate and equal-length channels.
func (b *Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: buffer sample rate must be positive", ErrInvalidConfig)
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("%w: buffer has no channels", ErrInvalidConfig)
	}
	if len(b.Channels) > maxChannels {
		return fmt.Errorf("%w: buffer has %d channels, limit is %d", ErrInvalidConfig, len(b.Channels), maxChannels)
	}
	n := len(b.Channels[0])
	for i, ch := range b.Channels[1:] {
		if len(ch) != n {
			return fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrInvalidConfig, i+1, len(ch), n)
		}
	}
	return nil
}
