package beatgrid

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2/mp3"
)

// Decoder turns encoded audio bytes into a Buffer.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*Buffer, error)
}

// Container formats recognised by AutoDecoder.
const (
	FormatUnknown = "unknown"
	FormatWAV     = "wav"
	FormatMP3     = "mp3"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	bitsPerSample8  = 8
	bitsPerSample32 = 32
	unsigned8Bias   = 128

	// mp3ChunkFrames is the number of frames pulled from the MP3 stream per read.
	mp3ChunkFrames = 4096
)

// SniffFormat identifies the container format from the leading bytes.
func SniffFormat(data []byte) string {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// AutoDecoder picks WAVDecoder or MP3Decoder by sniffing the data.
type AutoDecoder struct {
	WAV WAVDecoder
	MP3 MP3Decoder
}

// Decode decodes WAV or MP3 data.
func (d AutoDecoder) Decode(ctx context.Context, data []byte) (*Buffer, error) {
	switch format := SniffFormat(data); format {
	case FormatWAV:
		return d.WAV.Decode(ctx, data)
	case FormatMP3:
		return d.MP3.Decode(ctx, data)
	default:
		return nil, fmt.Errorf("%w: unrecognised audio format", ErrDecode)
	}
}

// WAVDecoder decodes integer PCM WAV files of 8 to 32 bits.
type WAVDecoder struct{}

// Decode decodes a complete WAV file held in memory.
func (WAVDecoder) Decode(ctx context.Context, data []byte) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrDecode)
	}
	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: unsupported WAV encoding %d", ErrDecode, decoder.WavAudioFormat)
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if pcm == nil || pcm.Format == nil {
		return nil, fmt.Errorf("%w: missing WAV format", ErrDecode)
	}

	numChannels := pcm.Format.NumChannels
	rate := pcm.Format.SampleRate
	bitDepth := int(decoder.BitDepth)
	if pcm.SourceBitDepth > 0 {
		bitDepth = pcm.SourceBitDepth
	}
	if numChannels <= 0 || numChannels > maxChannels || rate <= 0 {
		return nil, fmt.Errorf("%w: bad WAV format (%d channels, %d Hz)", ErrDecode, numChannels, rate)
	}
	if bitDepth < bitsPerSample8 || bitDepth > bitsPerSample32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecode, bitDepth)
	}

	frames := len(pcm.Data) / numChannels
	if frames == 0 {
		return nil, fmt.Errorf("%w: WAV file has no samples", ErrDecode)
	}

	channels := deinterleave(pcm.Data, numChannels, frames, bitDepth)
	return &Buffer{SampleRate: rate, Channels: channels}, nil
}

// deinterleave splits interleaved integer samples into normalized float32
// channels. 8-bit WAV samples are unsigned and are re-centered first.
func deinterleave(data []int, numChannels, frames, bitDepth int) [][]float32 {
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	bias := 0
	if bitDepth == bitsPerSample8 {
		bias = unsigned8Bias
	}

	channels := make([][]float32, numChannels)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}
	for i := range frames {
		for ch := range numChannels {
			channels[ch][i] = float32(float64(data[i*numChannels+ch]-bias) * scale)
		}
	}
	return channels
}

// MP3Decoder decodes MPEG-1/2 layer III audio.
type MP3Decoder struct{}

// Decode decodes a complete MP3 file held in memory. Mono streams yield a
// single channel.
func (MP3Decoder) Decode(ctx context.Context, data []byte) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer func() { _ = streamer.Close() }()

	rate := int(format.SampleRate)
	if rate <= 0 {
		return nil, fmt.Errorf("%w: bad MP3 sample rate %d", ErrDecode, rate)
	}

	capacity := max(streamer.Len(), 0)
	left := make([]float32, 0, capacity)
	right := make([]float32, 0, capacity)

	chunk := make([][2]float64, mp3ChunkFrames)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, ok := streamer.Stream(chunk)
		for _, frame := range chunk[:n] {
			left = append(left, float32(frame[0]))
			right = append(right, float32(frame[1]))
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(left) == 0 {
		return nil, fmt.Errorf("%w: MP3 stream has no samples", ErrDecode)
	}

	channels := [][]float32{left, right}
	if format.NumChannels == 1 {
		channels = channels[:1]
	}
	return &Buffer{SampleRate: rate, Channels: channels}, nil
}
