package wavsource

import (
	"context"
	"os"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/pkg/audio"
)

func writeSampleWAV(t *testing.T, sampleRate int, data []int) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "sample-*.wav")
	if err != nil {
		t.Fatalf("CreateTemp failed: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return f.Name()
}

func TestDecodeNormalizesAndChunks(t *testing.T) {
	samples := make([]int, audio.BlockSize+100)
	for i := range samples {
		samples[i] = 16384 // half of int16 max, positive
	}
	path := writeSampleWAV(t, config.SampleRateHz, samples)

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	first, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if len(first) != audio.BlockSize {
		t.Fatalf("expected first block of %d, got %d", audio.BlockSize, len(first))
	}
	if first[0] <= 0.49 || first[0] >= 0.51 {
		t.Fatalf("expected normalized sample near 0.5, got %v", first[0])
	}

	second, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if len(second) != 100 {
		t.Fatalf("expected final short block of 100, got %d", len(second))
	}

	third, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if third != nil {
		t.Fatalf("expected nil after exhaustion, got %d samples", len(third))
	}
}

func TestDecodeRejectsWrongSampleRate(t *testing.T) {
	path := writeSampleWAV(t, 44100, []int{0, 0, 0})
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for unsupported sample rate")
	}
}
