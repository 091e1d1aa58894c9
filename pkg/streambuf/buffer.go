// Package streambuf implements the streaming PCM buffer (spec §4.B): a
// sliding window of at most 30s of audio that gates when the Whisper driver
// should re-run inference.
package streambuf

import "github.com/tonybenoy/anuvad/internal/config"

// Buffer is a rolling window of PCM samples with a marker tracking how much
// of it has already been fed to the decoder. It is not safe for concurrent
// use; a single capture loop owns it (the orchestrator's RunCapture, or
// anuvadctl simulate), which posts copies of it to the whisper worker.
type Buffer struct {
	samples         []float32
	lastInferencePos int
}

// New returns an empty Buffer pre-sized to the 30s capacity.
func New() *Buffer {
	return &Buffer{samples: make([]float32, 0, config.BufferCapacity)}
}

// Push appends pcm to the buffer. If the buffer would exceed its 30s
// capacity, the oldest samples are dropped and the inference marker decays by
// the same amount, saturating at zero rather than going negative.
func (b *Buffer) Push(pcm []float32) {
	b.samples = append(b.samples, pcm...)

	if excess := len(b.samples) - config.BufferCapacity; excess > 0 {
		b.samples = b.samples[excess:]
		b.lastInferencePos -= excess
		if b.lastInferencePos < 0 {
			b.lastInferencePos = 0
		}
	}
}

// ShouldTranscribe reports whether at least 3s of audio has arrived since the
// last inference.
func (b *Buffer) ShouldTranscribe() bool {
	return len(b.samples)-b.lastInferencePos >= config.InferenceThreshold
}

// GetChunk returns a copy of the whole buffer and advances the inference
// marker to the current length, unless neither ShouldTranscribe nor the
// minimum-threshold length condition holds, in which case it returns nil
// without disturbing the marker.
func (b *Buffer) GetChunk() []float32 {
	if !b.ShouldTranscribe() && len(b.samples) < config.InferenceThreshold {
		return nil
	}
	b.lastInferencePos = len(b.samples)
	chunk := make([]float32, len(b.samples))
	copy(chunk, b.samples)
	return chunk
}

// Clear resets the buffer and marker, used when a recording session ends.
func (b *Buffer) Clear() {
	b.samples = b.samples[:0]
	b.lastInferencePos = 0
}

// DurationSeconds returns the current buffered duration.
func (b *Buffer) DurationSeconds() float64 {
	return float64(len(b.samples)) / float64(config.SampleRateHz)
}

// Len returns the current number of buffered samples, mostly for tests and
// diagnostics.
func (b *Buffer) Len() int {
	return len(b.samples)
}
