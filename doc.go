// Package beatgrid estimates the tempo and beat grid of recorded music.
//
// Given a decoded stereo waveform, the analyzer reports the dominant tempo in
// beats per minute, the phase offset of the beat grid in seconds and the time
// of the first downbeat. A separate [TapTracker] turns live tap events into a
// running tempo estimate.
//
// # Quick Start
//
// Analyze a local file or URL:
//
//	config := beatgrid.DefaultConfig()
//	a, err := beatgrid.New(&config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	info, err := a.Analyze(ctx, "track.wav")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%.2f BPM, offset %.3fs, first bar %.3fs\n", info.BPM, info.Offset, info.FirstBar)
//
// Audio that is already decoded can be passed as a [Buffer] with
// [Analyzer.AnalyzeBuffer].
//
// # Pipeline
//
//	fetch -> decode -> render -> band filter -> peaks -> tempo -> phase
//
// The render stage resamples every channel to [Config.SampleRate] and upmixes
// mono to stereo. The band filter keeps the kick drum and bass range
// (100-150 Hz by default). [ExtractPeaks] keeps the louder half of the
// per-window maxima, [ClusterTempos] votes on the tempo implied by intervals
// between nearby peaks and folds every candidate into [Config.BPMRange], and
// [EstimateOffsets] finds the grid phase on the left channel.
//
// The numeric stages are exported and can be used on their own.
//
// # Errors
//
// Pipeline failures are returned as a [*StageError] naming the failed stage.
// Classify them with errors.Is against [ErrInvalidConfig], [ErrRetrieval],
// [ErrNotFound], [ErrDecode] and [ErrDetection]. Silent or very short audio
// reports [ErrDetection] instead of producing NaN results.
//
// # Thread Safety
//
// An [Analyzer] may be shared between goroutines. A [TapTracker] serializes
// taps and its idle reset internally.
package beatgrid
