// Package refengine is a small deterministic stand-in for a real quantized
// tensor runtime, used by cmd/anuvadctl simulate and by the driver unit
// tests the way a test double stands in for a live service — it never loads
// real weights, but it satisfies the tensor.Engine contract with behavior
// that is reproducible and terminates predictably.
package refengine

import (
	"context"

	"github.com/tonybenoy/anuvad/pkg/apperrors"
	"github.com/tonybenoy/anuvad/pkg/tensor"
)

// Options configures the deterministic decode behavior.
type Options struct {
	VocabSize int // must be > 0
	EOSID     int // emitted once StopAfter tokens have been generated
	StopAfter int // number of tokens to emit before forcing EOSID
}

// Engine is a deterministic tensor.Engine implementation.
type Engine struct {
	opts Options
}

// New constructs an Engine. Zero-value fields in opts are replaced with
// small sane defaults so callers can pass a partial Options.
func New(opts Options) *Engine {
	if opts.VocabSize <= 0 {
		opts.VocabSize = 256
	}
	if opts.StopAfter <= 0 {
		opts.StopAfter = 8
	}
	return &Engine{opts: opts}
}

// LoadEncoder ignores weights entirely and returns a fixed-behavior encoder.
func (e *Engine) LoadEncoder(weights []byte) (tensor.Encoder, error) {
	if len(weights) == 0 {
		return nil, apperrors.ModelLoad("refengine: empty weights blob")
	}
	return &Encoder{}, nil
}

// LoadDecoder ignores weights and returns a decoder using e's Options.
func (e *Engine) LoadDecoder(weights []byte) (tensor.Decoder, error) {
	if len(weights) == 0 {
		return nil, apperrors.ModelLoad("refengine: empty weights blob")
	}
	return &Decoder{opts: e.opts}, nil
}

// Encoder reduces a mel spectrogram to one hidden value per mel bin (the
// row mean), a cheap deterministic summary standing in for real attention.
type Encoder struct{}

func (enc *Encoder) Encode(ctx context.Context, mel []float32, numMelBins, numFrames int) ([]float32, error) {
	if numFrames <= 0 || numMelBins <= 0 || len(mel) != numMelBins*numFrames {
		return nil, apperrors.Inference("refengine: mel shape mismatch")
	}
	hidden := make([]float32, numMelBins)
	for m := 0; m < numMelBins; m++ {
		var sum float32
		for f := 0; f < numFrames; f++ {
			sum += mel[m*numFrames+f]
		}
		hidden[m] = sum / float32(numFrames)
	}
	return hidden, nil
}

func (enc *Encoder) Close() error { return nil }

// Decoder deterministically cycles through the vocabulary by generation
// step, then forces EOSID once StopAfter tokens have been produced, so a
// greedy decode loop around it always terminates quickly and reproducibly.
// A Step whose tokens are exactly one longer than the previous Step's
// continues the current generation; any other length starts a new one, so
// the prompt or prefix tokens do not count toward StopAfter.
type Decoder struct {
	opts Options

	started   bool
	lastLen   int
	generated int
}

func (d *Decoder) Step(ctx context.Context, hidden []float32, tokens []int) ([]float32, error) {
	logits := make([]float32, d.opts.VocabSize)

	if d.started && len(tokens) == d.lastLen+1 {
		d.generated++
	} else {
		d.generated = 0
	}
	d.started = true
	d.lastLen = len(tokens)

	step := d.generated
	if step >= d.opts.StopAfter {
		logits[d.opts.EOSID%d.opts.VocabSize] = 1000
		return logits, nil
	}

	var bias float32
	for _, v := range hidden {
		bias += v
	}
	idx := (step + int(bias*1000)) % d.opts.VocabSize
	if idx < 0 {
		idx += d.opts.VocabSize
	}
	if idx == d.opts.EOSID%d.opts.VocabSize {
		idx = (idx + 1) % d.opts.VocabSize
	}
	logits[idx] = 10
	return logits, nil
}

func (d *Decoder) Close() error { return nil }
