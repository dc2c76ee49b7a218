package main

import "time"

const (
	// CLI defaults
	minRequiredArgs = 1
	defaultTimeout  = 2 * time.Minute

	// Click overlay
	clickFreq          = 1000.0 // Hz
	clickDuration      = 0.02   // seconds
	downbeatAmplitude  = 0.9
	beatAmplitude      = 0.5
	sourceMixGain      = 0.5
	clickWAVBitDepth   = 16
	clickWAVFormatPCM  = 1
	clickWAVChannels   = 1
	maxInt16           = 32767.0
	millisecondsFormat = "%6.1f ms"
)
