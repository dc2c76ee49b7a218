package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	beatgrid "github.com/tphakala/go-beatgrid"
	"github.com/tphakala/go-beatgrid/internal/cache"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	faint  = color.New(color.Faint)
)

// report is one analyzed input as printed by the CLI.
type report struct {
	Location string `json:"location"`
	beatgrid.BeatInfo
	Cached bool `json:"cached,omitempty"`
}

// gridLine is a beat position in seconds from the start of the audio.
type gridLine struct {
	Time     float64
	Downbeat bool
}

// analyzeLocation fetches location and analyzes it, consulting store first
// when one is given.
func analyzeLocation(
	ctx context.Context,
	analyzer *beatgrid.Analyzer,
	fetcher beatgrid.Fetcher,
	store *cache.Store,
	location string,
) (report, []byte, error) {
	rep := report{Location: location}

	start := time.Now()
	data, err := fetcher.Fetch(ctx, location)
	if err != nil {
		return rep, nil, &beatgrid.StageError{Stage: beatgrid.StageFetch, Err: err}
	}
	fetchTime := time.Since(start)

	var key string
	if store != nil {
		key = cache.Key(data, analyzer.Config())
		info, ok, err := store.Get(ctx, key)
		if err != nil {
			return rep, data, err
		}
		if ok {
			rep.BeatInfo = info
			rep.Cached = true
			return rep, data, nil
		}
	}

	info, err := analyzer.AnalyzeData(ctx, data)
	if err != nil {
		return rep, data, err
	}
	if info.Perf != nil {
		info.Perf.Fetch = fetchTime
	}
	rep.BeatInfo = info

	if store != nil {
		if err := store.Put(ctx, key, info); err != nil {
			return rep, data, err
		}
	}
	return rep, data, nil
}

// beatGrid lists every beat between zero and duration seconds. Beats whose
// index from the first bar is a multiple of timeSignature are downbeats.
func beatGrid(info beatgrid.BeatInfo, duration float64, timeSignature int) []gridLine {
	period := info.BeatPeriod()
	if period <= 0 || duration <= 0 || timeSignature < 1 {
		return nil
	}

	origin := info.BeatTime(0, 1)
	k := int(math.Ceil(-origin / period))

	var lines []gridLine
	for {
		t := origin + float64(k)*period
		if t >= duration {
			break
		}
		if t >= 0 {
			lines = append(lines, gridLine{
				Time:     t,
				Downbeat: ((k%timeSignature)+timeSignature)%timeSignature == 0,
			})
		}
		k++
	}
	return lines
}

// mixClicks downmixes buf to mono and overlays a short tone on every grid line.
func mixClicks(buf *beatgrid.Buffer, lines []gridLine) []float64 {
	n := buf.Len()
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	gain := sourceMixGain / float64(buf.NumChannels())
	for _, ch := range buf.Channels {
		for i, v := range ch {
			out[i] += float64(v) * gain
		}
	}

	rate := float64(buf.SampleRate)
	clickLen := int(clickDuration * rate)
	for _, line := range lines {
		amp := beatAmplitude
		if line.Downbeat {
			amp = downbeatAmplitude
		}
		start := int(math.Round(line.Time * rate))
		for i := 0; i < clickLen && start+i < n; i++ {
			decay := 1 - float64(i)/float64(clickLen)
			out[start+i] += amp * decay * math.Sin(2*math.Pi*clickFreq*float64(i)/rate)
		}
	}
	return out
}

// writeClickWAV writes a 16-bit mono WAV of the source audio with the beat
// grid audible as clicks.
func writeClickWAV(path string, buf *beatgrid.Buffer, info beatgrid.BeatInfo, timeSignature int) (err error) {
	if err := buf.Validate(); err != nil {
		return err
	}

	lines := beatGrid(info, buf.Duration().Seconds(), timeSignature)
	mixed := mixClicks(buf, lines)

	data := make([]int, len(mixed))
	for i, v := range mixed {
		data[i] = int(math.Round(max(-1, min(1, v)) * maxInt16))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create click track: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	enc := wav.NewEncoder(f, buf.SampleRate, clickWAVBitDepth, clickWAVChannels, clickWAVFormatPCM)
	ib := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: clickWAVChannels, SampleRate: buf.SampleRate},
		SourceBitDepth: clickWAVBitDepth,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("failed to write click track: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize click track: %w", err)
	}
	return nil
}

// printReport writes a human readable summary of rep.
func printReport(w io.Writer, rep report) {
	_, _ = bold.Fprintf(w, "%s\n", rep.Location)
	_, _ = fmt.Fprint(w, "  BPM:       ")
	_, _ = green.Fprintf(w, "%g\n", rep.BPM)
	_, _ = fmt.Fprintf(w, "  Offset:    %gs\n", rep.Offset)
	_, _ = fmt.Fprintf(w, "  First bar: %gs\n", rep.FirstBar)
	if rep.Cached {
		_, _ = yellow.Fprintln(w, "  (cached)")
	}
	if p := rep.Perf; p != nil {
		_, _ = faint.Fprintf(w, "  fetch   "+millisecondsFormat+"\n", ms(p.Fetch))
		_, _ = faint.Fprintf(w, "  render  "+millisecondsFormat+"\n", ms(p.Render))
		_, _ = faint.Fprintf(w, "  process "+millisecondsFormat+"\n", ms(p.Process))
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
