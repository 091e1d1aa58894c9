// Package whisperdriver loads a Whisper-family model and greedily decodes a
// transcript for one streaming-buffer window (spec §4.E).
package whisperdriver

import (
	"context"
	"strings"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/pkg/apperrors"
	"github.com/tonybenoy/anuvad/pkg/mel"
	"github.com/tonybenoy/anuvad/pkg/tensor"
	"github.com/tonybenoy/anuvad/pkg/tokenizer"
)

// Driver holds a loaded Whisper encoder/decoder pair, tokenizer, and
// filterbank. It is reused across windows; failures in one window never
// invalidate the loaded model for the next (spec §4.E "Failure").
type Driver struct {
	engine     tensor.Engine
	encoder    tensor.Encoder
	decoder    tensor.Decoder
	tok        *tokenizer.Tokenizer
	filterbank *mel.Filterbank
	language   string

	sotID           int
	transcribeID    int
	noTimestampsID  int
	eotID           int
}

// Load builds a Driver from the raw model/tokenizer/config/mel-filter blobs
// fetched by the asset cache, per spec §4.E load-time inputs.
func Load(engine tensor.Engine, encoderWeights, decoderWeights, tokenizerJSON, melFilters []byte) (*Driver, error) {
	tok, err := tokenizer.Load(tokenizerJSON)
	if err != nil {
		return nil, err
	}
	fb, err := mel.ParseFilterbank(melFilters, config.NumMelBins)
	if err != nil {
		return nil, err
	}

	enc, err := engine.LoadEncoder(encoderWeights)
	if err != nil {
		return nil, apperrors.ModelLoad("whisper encoder load failed: %v", err)
	}
	dec, err := engine.LoadDecoder(decoderWeights)
	if err != nil {
		return nil, apperrors.ModelLoad("whisper decoder load failed: %v", err)
	}

	d := &Driver{
		engine:     engine,
		encoder:    enc,
		decoder:    dec,
		tok:        tok,
		filterbank: fb,
		language:   "en",
	}
	d.resolveSpecialTokens()
	return d, nil
}

// resolveSpecialTokens looks up the prefix tokens by string, falling back to
// the Whisper-small defaults when the tokenizer doesn't define them (spec
// §4.E: "when lookup fails, the driver uses Whisper-small defaults").
func (d *Driver) resolveSpecialTokens() {
	d.sotID = lookupOrDefault(d.tok, "<|startoftranscript|>", config.FallbackSOT)
	d.transcribeID = lookupOrDefault(d.tok, "<|transcribe|>", config.FallbackTranscribe)
	d.noTimestampsID = lookupOrDefault(d.tok, "<|notimestamps|>", config.FallbackNoTimestamps)
	d.eotID = lookupOrDefault(d.tok, "<|endoftext|>", config.FallbackEOT)
}

func lookupOrDefault(tok *tokenizer.Tokenizer, token string, fallback int) int {
	if id, ok := tok.TokenToID(token); ok {
		return id
	}
	return fallback
}

// languageTokenID resolves the "<|xx|>" language token for d.language,
// falling back to the fixed offset reserved for "en" in Whisper-small's
// token table (spec §4.E Language detection is reserved, fixed to "en").
func (d *Driver) languageTokenID() int {
	if id, ok := d.tok.TokenToID("<|" + d.language + "|>"); ok {
		return id
	}
	return config.FallbackLanguageOffset
}

// SetLanguage overrides the fixed "en" default; the interface is kept open
// for a proper language detector per spec §4.E / §9 Open Question (i).
func (d *Driver) SetLanguage(code string) {
	d.language = code
}

// Result is the complete output of one transcribe(pcm) call (spec §4.E
// "each invocation returns a complete result for the window").
type Result struct {
	Text     string
	Language string
}

// Transcribe runs the mel front-end, encoder, and greedy decode loop over
// pcm, a full 30s (or shorter) streaming-buffer window.
func (d *Driver) Transcribe(ctx context.Context, pcm []float32) (*Result, error) {
	spec, err := mel.Compute(pcm, d.filterbank)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Inference("mel computation failed"), err)
	}

	hidden, err := d.encoder.Encode(ctx, spec.Data, spec.NumMelBins, spec.NumFrames)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Inference("encoder forward pass failed"), err)
	}

	tokens := []int{d.sotID, d.languageTokenID(), d.transcribeID, d.noTimestampsID}
	var result []int

	for i := 0; i < config.WhisperMaxTokens; i++ {
		logits, err := d.decoder.Step(ctx, hidden, tokens)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Inference("decoder forward pass failed"), err)
		}
		next := tensor.Argmax(logits)
		if next == d.eotID {
			break
		}
		tokens = append(tokens, next)
		result = append(result, next)
	}

	text := strings.TrimSpace(d.tok.Decode(result, true))
	return &Result{Text: text, Language: d.language}, nil
}

// Close releases the underlying encoder/decoder resources.
func (d *Driver) Close() error {
	var firstErr error
	if err := d.encoder.Close(); err != nil {
		firstErr = err
	}
	if err := d.decoder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
