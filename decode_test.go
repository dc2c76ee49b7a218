package beatgrid

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-beatgrid/internal/testutil"
)

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVEfmt "), FormatWAV},
		{"riff_not_wave", []byte("RIFF\x00\x00\x00\x00AVI LIST"), FormatUnknown},
		{"id3", []byte("ID3\x04\x00"), FormatMP3},
		{"frame_sync", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatMP3},
		{"empty", nil, FormatUnknown},
		{"text", []byte("hello world"), FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SniffFormat(tt.data))
		})
	}
}

func TestWAVDecoder_Stereo16Bit(t *testing.T) {
	left := []float32{0, 0.5, -0.5, 0.25}
	right := []float32{1, -1, 0, 0.125}
	path := testutil.WriteWAV(t, "stereo.wav", [][]float32{left, right}, 22050)

	buf, err := WAVDecoder{}.Decode(context.Background(), testutil.ReadFile(t, path))
	require.NoError(t, err)

	assert.Equal(t, 22050, buf.SampleRate)
	require.Equal(t, 2, buf.NumChannels())
	require.Equal(t, 4, buf.Len())

	const lsb = 1.0 / 32768
	for i := range left {
		assert.InDelta(t, left[i], buf.Channels[0][i], 2*lsb, "left %d", i)
		assert.InDelta(t, right[i], buf.Channels[1][i], 2*lsb, "right %d", i)
	}
}

func TestWAVDecoder_Mono(t *testing.T) {
	path := testutil.WriteWAV(t, "mono.wav", [][]float32{testutil.ClickTrackBPM(8000, 120, 1)}, 8000)

	buf, err := AutoDecoder{}.Decode(context.Background(), testutil.ReadFile(t, path))
	require.NoError(t, err)

	assert.Equal(t, 1, buf.NumChannels())
	assert.Equal(t, 8000, buf.Len())
	assert.InDelta(t, 1.0, buf.Channels[0][4000], 1e-3)
}

func TestDecoders_Reject(t *testing.T) {
	ctx := context.Background()

	_, err := WAVDecoder{}.Decode(ctx, []byte("not a wav file at all"))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = AutoDecoder{}.Decode(ctx, []byte("plain text"))
	assert.ErrorIs(t, err, ErrDecode)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = MP3Decoder{}.Decode(canceled, []byte("ID3"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeinterleave(t *testing.T) {
	t.Run("16_bit", func(t *testing.T) {
		got := deinterleave([]int{16384, -32768, 0, 32767}, 2, 2, 16)
		assert.InDeltaSlice(t, []float32{0.5, 0}, got[0], 1e-6)
		assert.InDeltaSlice(t, []float32{-1, 32767.0 / 32768}, got[1], 1e-6)
	})

	t.Run("8_bit_unsigned", func(t *testing.T) {
		got := deinterleave([]int{128, 255, 0}, 1, 3, 8)
		assert.InDeltaSlice(t, []float32{0, 127.0 / 128, -1}, got[0], 1e-6)
	})

	t.Run("24_bit", func(t *testing.T) {
		got := deinterleave([]int{1 << 22}, 1, 1, 24)
		assert.InDelta(t, 0.5, got[0][0], 1e-9)
	})
}

func TestBuffer(t *testing.T) {
	buf := &Buffer{SampleRate: 1000, Channels: [][]float32{make([]float32, 1500), make([]float32, 1500)}}

	require.NoError(t, buf.Validate())
	assert.Equal(t, 1500, buf.Len())
	assert.Equal(t, 2, buf.NumChannels())
	assert.Equal(t, 1500*time.Millisecond, buf.Duration())
	assert.Nil(t, buf.Channel(2))
	assert.Len(t, buf.Channel(1), 1500)

	empty := &Buffer{SampleRate: 1000}
	assert.Zero(t, empty.Len())
	assert.ErrorIs(t, empty.Validate(), ErrInvalidConfig)
}
