// Package audio defines the capture pipeline shared shape (spec §4.C):
// sources feed a single processing node which hands fixed-size PCM blocks
// downstream. Platform-specific sources live in capture_js.go (the wasm Web
// Audio graph) and pkg/audio/wavsource (host WAV-file playback for
// anuvadctl simulate and tests).
package audio

import (
	"context"
	"math"

	"github.com/tonybenoy/anuvad/internal/config"
)

// BlockSize is the processor callback's fixed buffer size (spec §4.C).
const BlockSize = config.CaptureFrameSize

// Source yields fixed-size (or final short) PCM blocks at the capture
// sample rate until exhausted or canceled.
type Source interface {
	// Next blocks until a PCM block is available, ctx is canceled, or the
	// source is exhausted (in which case it returns nil, nil).
	Next(ctx context.Context) ([]float32, error)
	Close() error
}

// RMS computes sqrt(mean(s^2)), the per-block audio level publication rule
// (spec §4.C step 2).
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float32
	for _, s := range samples {
		sumSquares += s * s
	}
	return float32(math.Sqrt(float64(sumSquares / float32(len(samples)))))
}
