package main

import (
	"flag"
	"fmt"

	"github.com/tphakala/simd/cpu"

	beatgrid "github.com/tphakala/go-beatgrid"
	"github.com/tphakala/go-beatgrid/internal/filter"
)

const (
	responsePoints = 4096 // Resolution of the passband scan
	passbandDropDB = -3.0 // Edge of the usable band
)

// Frequencies probed in the summary table, in Hz.
var probeFreqs = []float64{20, 50, 80, 100, 125, 150, 200, 300, 1000, 5000}

func main() {
	rate := flag.Int("rate", beatgrid.DefaultSampleRate, "Sample rate in Hz")
	lowPass := flag.Float64("lp", beatgrid.DefaultLowPassFreq, "Low-pass cutoff in Hz")
	highPass := flag.Float64("hp", beatgrid.DefaultHighPassFreq, "High-pass cutoff in Hz")
	flag.Parse()

	fmt.Println("=== Analyzing Beat Band Filter ===")
	fmt.Printf("SIMD: %s\n\n", cpu.Info())

	bf := beatgrid.NewBandFilter(*lowPass, *highPass)
	lp, hp, err := bf.Kernels(*rate)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Filter info:\n")
	fmt.Printf("  Band: %g-%g Hz at %d Hz\n", *highPass, *lowPass, *rate)
	fmt.Printf("  Low-pass taps:  %d\n", len(lp))
	fmt.Printf("  High-pass taps: %d\n", len(hp))
	fmt.Printf("  Group delay: %d samples\n\n", (len(lp)-1)/2+(len(hp)-1)/2)

	var lpDC, hpDC float64
	for _, c := range lp {
		lpDC += c
	}
	for _, c := range hp {
		hpDC += c
	}
	fmt.Printf("DC gain: low-pass %.10f, high-pass %.10f\n\n", lpDC, hpDC)

	fmt.Println("Cascade response:")
	for _, hz := range probeFreqs {
		norm := hz / float64(*rate)
		lpMag, _ := filter.ResponseAt(lp, norm)
		hpMag, _ := filter.ResponseAt(hp, norm)
		fmt.Printf("  %6.0f Hz: %8.2f dB\n", hz, filter.MagnitudeDB(lpMag*hpMag))
	}

	lpResp := filter.ComputeFrequencyResponse(lp, responsePoints)
	hpResp := filter.ComputeFrequencyResponse(hp, responsePoints)
	lo, hi := -1.0, -1.0
	for k, f := range lpResp.Frequencies {
		db := filter.MagnitudeDB(lpResp.Magnitude[k] * hpResp.Magnitude[k])
		if db < passbandDropDB {
			continue
		}
		hz := f * float64(*rate)
		if lo < 0 {
			lo = hz
		}
		hi = hz
	}
	if lo < 0 {
		fmt.Printf("\nNo frequency passes within %g dB\n", passbandDropDB)
		return
	}
	fmt.Printf("\n%g dB passband: %.1f-%.1f Hz\n", passbandDropDB, lo, hi)
}
