package mel

import (
	"math"
	"testing"

	"github.com/tonybenoy/anuvad/internal/config"
)

// flatFilterbank returns a filterbank where every mel bin sums all fft bins
// with its own distinct weights 1/(k+m+1), avoiding an all-zero projection that would make every
// frame's mel value identical (and the normalization denominator zero).
func flatFilterbank(numMelBins int) *Filterbank {
	weights := make([]float32, numMelBins*config.FFTBins)
	for m := 0; m < numMelBins; m++ {
		for k := 0; k < config.FFTBins; k++ {
			weights[m*config.FFTBins+k] = float32(1.0 / float64(k+m+1))
		}
	}
	return &Filterbank{NumMelBins: numMelBins, FFTBins: config.FFTBins, Weights: weights}
}

func sineWave(freqHz float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freqHz * float64(i) / float64(config.SampleRateHz)))
	}
	return out
}

func TestComputeShapeAndRange(t *testing.T) {
	fb := flatFilterbank(80)
	pcm := sineWave(440, 16000)

	spec, err := Compute(pcm, fb)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}

	if spec.NumMelBins != 80 {
		t.Fatalf("expected 80 mel bins, got %d", spec.NumMelBins)
	}
	if spec.NumFrames != 2998 {
		t.Fatalf("expected 2998 frames, got %d", spec.NumFrames)
	}
	if len(spec.Data) != 80*2998 {
		t.Fatalf("expected %d elements, got %d", 80*2998, len(spec.Data))
	}

	for _, v := range spec.Data {
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("mel value %v out of [-1,1]", v)
		}
	}
}

func TestFilterbankRoundTrip(t *testing.T) {
	original := flatFilterbank(80)
	data := original.Bytes()

	parsed, err := ParseFilterbank(data, 80)
	if err != nil {
		t.Fatalf("ParseFilterbank returned error: %v", err)
	}

	if parsed.FFTBins != original.FFTBins || parsed.NumMelBins != original.NumMelBins {
		t.Fatalf("shape mismatch after round-trip")
	}
	for i := range original.Weights {
		if parsed.Weights[i] != original.Weights[i] {
			t.Fatalf("element %d mismatch: got %v want %v", i, parsed.Weights[i], original.Weights[i])
		}
	}

	reserialized := parsed.Bytes()
	if len(reserialized) != len(data) {
		t.Fatalf("re-serialized length mismatch: %d vs %d", len(reserialized), len(data))
	}
	for i := range data {
		if reserialized[i] != data[i] {
			t.Fatalf("re-serialized byte %d mismatch", i)
		}
	}
}

func TestComputeRejectsFilterbankShapeMismatch(t *testing.T) {
	bad := &Filterbank{NumMelBins: 80, FFTBins: 100, Weights: make([]float32, 8000)}
	if _, err := Compute(sineWave(440, 1000), bad); err == nil {
		t.Fatal("expected error for mismatched fft bin count")
	}
}
