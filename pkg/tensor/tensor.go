// Package tensor defines the contract between the driver packages
// (pkg/whisperdriver, pkg/translator) and whatever actually runs the neural
// network math. Per spec §1 the kernel itself — attention, GEMM, quantized
// matmul — is assumed to be provided by a tensor library and is referenced
// here only by interface, the way the teacher wraps whisper.cpp behind a
// Model/Context pair in pkg/transcription/whisper_go_binding.go.
package tensor

import "context"

// Encoder turns a log-mel spectrogram into encoder hidden states. Whisper's
// encoder is the only user; a causal-LM-only engine may leave this unused.
type Encoder interface {
	// Encode consumes a (numMelBins, numFrames) row-major spectrogram and
	// returns the encoder's hidden state sequence.
	Encode(ctx context.Context, mel []float32, numMelBins, numFrames int) ([]float32, error)
	Close() error
}

// Decoder produces next-token logits given a running token sequence and an
// optional cross-attention context. Whisper's decoder passes the encoder's
// hidden states as hidden; the translator's causal LM passes nil and relies
// purely on the token history for self-attention.
type Decoder interface {
	// Step returns a vocab-sized logits vector for the token following tokens.
	Step(ctx context.Context, hidden []float32, tokens []int) ([]float32, error)
	Close() error
}

// Engine loads model weights into a ready-to-run Encoder/Decoder pair. One
// Engine instance is expected per loaded checkpoint (Whisper or the
// translator's GGUF model); LoadEncoder is only meaningful for Whisper.
type Engine interface {
	LoadEncoder(weights []byte) (Encoder, error)
	LoadDecoder(weights []byte) (Decoder, error)
}

// Argmax returns the index of the largest value in logits, the greedy
// decoding rule used by both drivers (spec §4.E step 5, §4.F step 3).
func Argmax(logits []float32) int {
	best := 0
	for i := 1; i < len(logits); i++ {
		if logits[i] > logits[best] {
			best = i
		}
	}
	return best
}
