// Command beatgrid detects the tempo, beat offset and first bar of audio files.
//
// Usage:
//
//	beatgrid song.mp3
//	beatgrid -json -int https://example.com/track.wav
//	beatgrid -beatmap -cache ~/.beatgrid.db *.mp3
//	beatgrid -click grid.wav song.wav          # Overlay the detected grid as clicks
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime/pprof"

	beatgrid "github.com/tphakala/go-beatgrid"
	"github.com/tphakala/go-beatgrid/internal/cache"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	jsonOut := flag.Bool("json", false, "Print results as JSON")
	beatMap := flag.Bool("beatmap", false, "Use beat map settings (4 decimal places)")
	precision := flag.Int("precision", beatgrid.DefaultPrecision, "Decimal places for BPM, offset and first bar")
	integer := flag.Bool("int", false, "Round BPM to an integer")
	minBPM := flag.Float64("min", beatgrid.DefaultBPMMin, "Lower bound of the tempo range")
	maxBPM := flag.Float64("max", beatgrid.DefaultBPMMax, "Upper bound of the tempo range (at least twice -min)")
	timeSig := flag.Int("ts", beatgrid.DefaultTimeSignature, "Beats per bar")
	filteredPhase := flag.Bool("filtered-phase", false, "Estimate the offset from the band filtered signal")
	parallel := flag.Bool("parallel", true, "Enable parallel channel processing")
	cachePath := flag.String("cache", "", "SQLite file for caching results")
	clickPath := flag.String("click", "", "Write a WAV with the detected grid as clicks (single input only)")
	timeout := flag.Duration("timeout", defaultTimeout, "Per-input analysis timeout")
	verbose := flag.Bool("v", false, "Verbose output with stage timings")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file (for PGO)")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Inputs may be local paths or http(s) URLs to WAV or MP3 audio.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return errors.New("insufficient arguments")
	}
	if *clickPath != "" && len(args) != 1 {
		return errors.New("-click needs exactly one input")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	config := beatgrid.DefaultConfig()
	if *beatMap {
		config = beatgrid.BeatMapConfig()
	} else {
		config.Precision = *precision
	}
	config.RoundToInteger = *integer
	config.BPMRange = beatgrid.BPMRange{Min: *minBPM, Max: *maxBPM}
	config.TimeSignature = *timeSig
	config.EnableParallel = *parallel
	config.Instrumentation = *verbose
	if *filteredPhase {
		config.PhaseSource = beatgrid.PhaseFromFiltered
	}
	if *verbose {
		config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		log.Printf("Tempo range: %g-%g BPM", config.BPMRange.Min, config.BPMRange.Max)
		log.Printf("Band: %g-%g Hz at %d Hz", config.HighPassFreq, config.LowPassFreq, config.SampleRate)
		log.Printf("Phase source: %s", config.PhaseSource)
	}

	analyzer, err := beatgrid.New(&config)
	if err != nil {
		return err
	}

	var store *cache.Store
	if *cachePath != "" {
		store, err = cache.Open(*cachePath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	fetcher := beatgrid.AutoFetcher{}
	reports := make([]report, 0, len(args))
	var failed int

	for _, location := range args {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		rep, data, err := analyzeLocation(ctx, analyzer, fetcher, store, location)
		if err == nil && *clickPath != "" {
			err = writeClick(ctx, *clickPath, data, rep.BeatInfo, config.TimeSignature)
		}
		cancel()

		if err != nil {
			failed++
			log.Printf("%s: %v", location, err)
			continue
		}
		reports = append(reports, rep)
		if !*jsonOut {
			printReport(os.Stdout, rep)
		}
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(args))
	}
	return nil
}

func writeClick(ctx context.Context, path string, data []byte, info beatgrid.BeatInfo, timeSignature int) error {
	buf, err := beatgrid.AutoDecoder{}.Decode(ctx, data)
	if err != nil {
		return err
	}
	if err := writeClickWAV(path, buf, info, timeSignature); err != nil {
		return err
	}
	log.Printf("Click track written to %s", path)
	return nil
}
