// Package wavsource implements audio.Source by replaying a 16kHz mono WAV
// file block-by-block, the host stand-in for live capture used by
// `anuvadctl simulate` and by package tests that need real-shaped PCM.
package wavsource

import (
	"context"
	"io"
	"os"

	"github.com/go-audio/wav"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/pkg/apperrors"
	"github.com/tonybenoy/anuvad/pkg/audio"
)

// Source replays decoded PCM samples in audio.BlockSize chunks.
type Source struct {
	samples []float32
	pos     int
}

// Open reads and decodes a WAV file from disk.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Asset(path, "wav open failed: %v", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a WAV stream, downmixing to mono and normalizing samples to
// [-1, 1]; it rejects any sample rate other than config.SampleRateHz, the
// same "sample-rate unsupported" failure mode spec §4.C defines for live
// capture.
func Decode(r io.Reader) (*Source, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, apperrors.ModelLoad("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, apperrors.ModelLoad("wav decode failed: %v", err)
	}
	if buf.Format == nil {
		return nil, apperrors.ModelLoad("wav file has no format chunk")
	}
	if buf.Format.SampleRate != config.SampleRateHz {
		return nil, apperrors.Capture("wav sample rate %d unsupported, expected %d", buf.Format.SampleRate, config.SampleRateHz)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, apperrors.ModelLoad("wav file declares %d channels", channels)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	maxVal := float64(int64(1) << uint(bitDepth-1))

	n := len(buf.Data) / channels
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = float32((sum / float64(channels)) / maxVal)
	}

	return &Source{samples: samples}, nil
}

// Next returns the next BlockSize-sample chunk, or nil, nil once exhausted.
func (s *Source) Next(ctx context.Context) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if s.pos >= len(s.samples) {
		return nil, nil
	}
	end := s.pos + audio.BlockSize
	if end > len(s.samples) {
		end = len(s.samples)
	}
	block := s.samples[s.pos:end]
	s.pos = end
	return block, nil
}

// Close is a no-op; Source holds no live OS resources.
func (s *Source) Close() error { return nil }
