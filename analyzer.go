package beatgrid

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tphakala/go-beatgrid/internal/mathutil"
)

// Analyzer runs the beat grid pipeline: fetch, decode, render, band filter,
// peak extraction, tempo clustering and phase estimation. An Analyzer holds no
// per-call state and may be used from multiple goroutines.
type Analyzer struct {
	config  Config
	fetcher Fetcher
	decoder Decoder
	filter  Filter
	logger  *slog.Logger
}

// New creates an Analyzer. Nil collaborators in config are replaced by
// AutoFetcher, AutoDecoder and a BandFilter over the configured band.
func New(config *Config) (*Analyzer, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		config:  *config,
		fetcher: config.Fetcher,
		decoder: config.Decoder,
		filter:  config.Filter,
		logger:  config.Logger,
	}
	if a.fetcher == nil {
		a.fetcher = AutoFetcher{}
	}
	if a.decoder == nil {
		a.decoder = AutoDecoder{}
	}
	if a.filter == nil {
		bf := NewBandFilter(config.LowPassFreq, config.HighPassFreq)
		bf.Parallel = config.EnableParallel
		a.filter = bf
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}

	return a, nil
}

// Config returns a copy of the analyzer configuration.
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze fetches the audio at location and runs the full pipeline.
func (a *Analyzer) Analyze(ctx context.Context, location string) (BeatInfo, error) {
	var perf Perf

	start := time.Now()
	data, err := a.fetcher.Fetch(ctx, location)
	if err != nil {
		return BeatInfo{}, stageErr(StageFetch, err)
	}
	perf.Fetch = time.Since(start)
	a.logger.Debug("fetched audio", "location", location, "bytes", len(data), "duration", perf.Fetch)

	return a.analyzeData(ctx, data, perf)
}

// AnalyzeData decodes encoded audio bytes and runs the pipeline from the
// decode stage on.
func (a *Analyzer) AnalyzeData(ctx context.Context, data []byte) (BeatInfo, error) {
	return a.analyzeData(ctx, data, Perf{})
}

// AnalyzeBuffer runs detection on an already decoded buffer at its own sample
// rate. The buffer needs at least two channels; only the first two are used.
func (a *Analyzer) AnalyzeBuffer(ctx context.Context, buf *Buffer) (BeatInfo, error) {
	return a.process(ctx, buf, Perf{})
}

func (a *Analyzer) analyzeData(ctx context.Context, data []byte, perf Perf) (BeatInfo, error) {
	if len(data) == 0 {
		return BeatInfo{}, stageErr(StageDecode, fmt.Errorf("%w: no audio data", ErrInvalidConfig))
	}

	start := time.Now()
	decoded, err := a.decoder.Decode(ctx, data)
	if err != nil {
		return BeatInfo{}, stageErr(StageDecode, err)
	}

	if err := ctx.Err(); err != nil {
		return BeatInfo{}, stageErr(StageRender, err)
	}
	rendered, err := renderBuffer(decoded, a.config.SampleRate, a.config.EnableParallel)
	if err != nil {
		return BeatInfo{}, stageErr(StageRender, err)
	}
	perf.Render = time.Since(start)
	a.logger.Debug("rendered audio",
		"source_rate", decoded.SampleRate,
		"channels", decoded.NumChannels(),
		"frames", rendered.Len(),
		"duration", perf.Render)

	return a.process(ctx, rendered, perf)
}

// process runs the numeric stages. Cancellation is honoured only before they
// start.
func (a *Analyzer) process(ctx context.Context, buf *Buffer, perf Perf) (BeatInfo, error) {
	if buf == nil {
		return BeatInfo{}, stageErr(StageFilter, fmt.Errorf("%w: buffer is nil", ErrInvalidConfig))
	}
	if err := buf.Validate(); err != nil {
		return BeatInfo{}, stageErr(StageFilter, err)
	}
	if buf.NumChannels() < stereoChannels {
		return BeatInfo{}, stageErr(StageFilter,
			fmt.Errorf("%w: need %d channels, got %d", ErrInvalidConfig, stereoChannels, buf.NumChannels()))
	}
	if err := ctx.Err(); err != nil {
		return BeatInfo{}, stageErr(StageFilter, err)
	}

	start := time.Now()
	rate := buf.SampleRate

	filtered, err := a.filter.Apply(buf.Channels[:stereoChannels], rate)
	if err != nil {
		return BeatInfo{}, stageErr(StageFilter, err)
	}

	peaks, err := ExtractPeaks(filtered, rate, a.config.WindowSeconds)
	if err != nil {
		return BeatInfo{}, stageErr(StagePeaks, err)
	}

	groups, err := ClusterTempos(peaks, rate, a.config.tempoOptions())
	if err != nil {
		return BeatInfo{}, stageErr(StageTempo, err)
	}
	bpm := groups[0].Tempo
	a.logger.Debug("tempo candidates", "peaks", len(peaks), "groups", len(groups), "bpm", bpm, "votes", groups[0].Count)

	phase := buf.Channels[0]
	if a.config.PhaseSource == PhaseFromFiltered {
		phase = filtered[0]
	}
	offsets, err := EstimateOffsets(phase, rate, bpm, a.config.offsetOptions())
	if err != nil {
		return BeatInfo{}, stageErr(StageOffset, err)
	}

	info := BeatInfo{
		BPM:      bpm,
		Offset:   mathutil.Round(offsets.Offset, a.config.Precision),
		FirstBar: mathutil.Round(offsets.FirstBar, a.config.Precision),
	}
	perf.Process = time.Since(start)
	if a.config.Instrumentation {
		info.Perf = &perf
	}

	a.logger.Debug("beat grid",
		"bpm", info.BPM,
		"offset", info.Offset,
		"first_bar", info.FirstBar,
		"duration", perf.Process)

	return info, nil
}
