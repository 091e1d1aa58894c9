// Package mel implements the Whisper log-mel front-end (spec §4.D): PCM to a
// normalized log-mel spectrogram via a naive DFT, Hann window, and a
// precomputed mel filterbank.
package mel

import (
	"encoding/binary"
	"math"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/pkg/apperrors"
)

// Filterbank is the precomputed mel projection matrix, shape
// (NumMelBins, FFTBins), row-major.
type Filterbank struct {
	NumMelBins int
	FFTBins    int
	Weights    []float32
}

// ParseFilterbank decodes a contiguous little-endian f32 byte blob into a
// Filterbank of the given mel-bin count (spec §6: "no header").
func ParseFilterbank(data []byte, numMelBins int) (*Filterbank, error) {
	if len(data)%4 != 0 {
		return nil, apperrors.ModelLoad("mel filter byte length %d is not a multiple of 4", len(data))
	}
	n := len(data) / 4
	if n%numMelBins != 0 {
		return nil, apperrors.ModelLoad("mel filter element count %d not divisible by %d mel bins", n, numMelBins)
	}
	fftBins := n / numMelBins
	weights := make([]float32, n)
	for i := range weights {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		weights[i] = math.Float32frombits(bits)
	}
	return &Filterbank{NumMelBins: numMelBins, FFTBins: fftBins, Weights: weights}, nil
}

// Bytes re-serializes the filterbank to little-endian f32 bytes, bit-identical
// to what ParseFilterbank would consume for the same matrix.
func (f *Filterbank) Bytes() []byte {
	out := make([]byte, len(f.Weights)*4)
	for i, w := range f.Weights {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(w))
	}
	return out
}

// Spectrogram is a log-mel matrix, shape (NumMelBins, NumFrames), row-major
// by mel bin (each mel bin's frames are contiguous), per spec §4.D.
type Spectrogram struct {
	NumMelBins int
	NumFrames  int
	Data       []float32
}

// Compute converts a PCM window of up to config.BufferCapacity samples into a
// normalized log-mel Spectrogram, following spec §4.D steps 1-7.
func Compute(pcm []float32, fb *Filterbank) (*Spectrogram, error) {
	if fb == nil {
		return nil, apperrors.Inference("mel filterbank not loaded")
	}
	if fb.FFTBins != config.FFTBins {
		return nil, apperrors.ModelLoad("mel filterbank has %d fft bins, expected %d", fb.FFTBins, config.FFTBins)
	}

	padded := padOrTruncate(pcm, config.BufferCapacity)
	numFrames := (config.BufferCapacity-config.NFFT)/config.HopLength + 1

	window := hannWindow(config.NFFT)
	magnitudes := stftMagnitudeSquared(padded, window, numFrames)

	mel := projectMel(magnitudes, fb, numFrames)
	logMel(mel)
	normalize(mel)

	return &Spectrogram{NumMelBins: fb.NumMelBins, NumFrames: numFrames, Data: mel}, nil
}

func padOrTruncate(pcm []float32, n int) []float32 {
	out := make([]float32, n)
	copy(out, pcm)
	return out
}

func hannWindow(n int) []float32 {
	w := make([]float32, n)
	for i := range w {
		w[i] = float32(0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n))))
	}
	return w
}

// stftMagnitudeSquared computes |DFT|^2 for k = 0..N_FFT/2 per frame via a
// naive O(N^2) DFT, returning a (FFTBins, numFrames) matrix, row-major by bin.
// An FFT would satisfy the same contract faster; this is the
// quality-of-implementation tradeoff the spec explicitly allows (§4.D step 4).
func stftMagnitudeSquared(padded, window []float32, numFrames int) []float32 {
	fftBins := config.FFTBins
	out := make([]float32, fftBins*numFrames)

	for frame := 0; frame < numFrames; frame++ {
		start := frame * config.HopLength
		windowed := make([]float32, config.NFFT)
		for n := 0; n < config.NFFT; n++ {
			if start+n < len(padded) {
				windowed[n] = padded[start+n] * window[n]
			}
		}

		for k := 0; k < fftBins; k++ {
			var real, imag float64
			for n := 0; n < config.NFFT; n++ {
				angle := -2 * math.Pi * float64(k) * float64(n) / float64(config.NFFT)
				real += float64(windowed[n]) * math.Cos(angle)
				imag += float64(windowed[n]) * math.Sin(angle)
			}
			out[k*numFrames+frame] = float32(real*real + imag*imag)
		}
	}
	return out
}

func projectMel(magnitudes []float32, fb *Filterbank, numFrames int) []float32 {
	mel := make([]float32, fb.NumMelBins*numFrames)
	for m := 0; m < fb.NumMelBins; m++ {
		for frame := 0; frame < numFrames; frame++ {
			var sum float32
			for k := 0; k < fb.FFTBins; k++ {
				sum += fb.Weights[m*fb.FFTBins+k] * magnitudes[k*numFrames+frame]
			}
			mel[m*numFrames+frame] = sum
		}
	}
	return mel
}

func logMel(mel []float32) {
	for i, v := range mel {
		mel[i] = float32(math.Log(math.Max(float64(v), 1e-10)))
	}
}

// normalize applies spec §4.D step 7: let M = max(mel), m = max(min(mel), M-8),
// replace each x with 2*(max(x,m)-m)/(M-m) - 1.
func normalize(mel []float32) {
	maxVal := float32(math.Inf(-1))
	minVal := float32(math.Inf(1))
	for _, v := range mel {
		if v > maxVal {
			maxVal = v
		}
		if v < minVal {
			minVal = v
		}
	}
	floor := maxVal - 8.0
	if minVal > floor {
		floor = minVal
	}
	span := maxVal - floor
	for i, v := range mel {
		if v < floor {
			v = floor
		}
		mel[i] = 2*(v-floor)/span - 1
	}
}
