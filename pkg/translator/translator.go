// Package translator loads the quantized GGUF instruction model and greedily
// streams a translation, one token at a time (spec §4.F).
package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/pkg/apperrors"
	"github.com/tonybenoy/anuvad/pkg/gguf"
	"github.com/tonybenoy/anuvad/pkg/langs"
	"github.com/tonybenoy/anuvad/pkg/tensor"
	"github.com/tonybenoy/anuvad/pkg/tokenizer"
)

const promptTemplate = `<|system|>
You are a professional translator. Translate the given text accurately to %s. Output ONLY the translation, nothing else.<|end|>
<|user|>
Translate the following text to %s:

%s<|end|>
<|assistant|>
`

// eosCandidates is the ordered list of EOS strings to probe per spec §4.F
// step 3, before falling back to config.FallbackEOS.
var eosCandidates = []string{"<|endoftext|>", "</s>", "<|end|>"}

// Driver holds a loaded GGUF model, its tokenizer, and the resolved EOS id.
type Driver struct {
	decoder tensor.Decoder
	tok     *tokenizer.Tokenizer
	eosID   int
}

// Load parses the GGUF container, loads its weights through engine, and
// resolves the tokenizer's EOS candidate chain.
func Load(engine tensor.Engine, modelBytes, tokenizerJSON []byte) (*Driver, error) {
	gf, err := gguf.Parse(modelBytes)
	if err != nil {
		return nil, err
	}

	tok, err := tokenizer.Load(tokenizerJSON)
	if err != nil {
		return nil, err
	}

	dec, err := engine.LoadDecoder(gf.DataSection)
	if err != nil {
		return nil, apperrors.ModelLoad("translator model load failed: %v", err)
	}

	d := &Driver{decoder: dec, tok: tok, eosID: resolveEOS(tok)}
	return d, nil
}

// resolveEOS implements spec §4.F step 3's fallback chain.
func resolveEOS(tok *tokenizer.Tokenizer) int {
	for _, cand := range eosCandidates {
		if id, ok := tok.TokenToID(cand); ok {
			return id
		}
	}
	return config.FallbackEOS
}

// BuildPrompt renders the chat-template literal with the target language's
// display name and the verbatim source text (spec §4.F, no escaping).
func BuildPrompt(targetLangCode, text string) string {
	name := langs.DisplayName(targetLangCode)
	return fmt.Sprintf(promptTemplate, name, name, text)
}

// TokenCallback is invoked once per generated token with its detokenized
// fragment (special tokens not skipped, per spec §4.F step 4).
type TokenCallback func(fragment string)

// Translate prefills the prompt, then greedily decodes up to
// config.TranslatorMaxTokens tokens, invoking onToken per generated token and
// returning the full concatenated output text.
func (d *Driver) Translate(ctx context.Context, targetLangCode, text string, onToken TokenCallback) (string, error) {
	prompt := BuildPrompt(targetLangCode, text)
	tokens := d.tok.Encode(prompt)
	if len(tokens) == 0 {
		return "", apperrors.Inference("translator prompt encoded to zero tokens")
	}

	var sb strings.Builder
	for i := 0; i < config.TranslatorMaxTokens; i++ {
		logits, err := d.decoder.Step(ctx, nil, tokens)
		if err != nil {
			return "", apperrors.Wrap(apperrors.Inference("translator forward pass failed"), err)
		}
		next := tensor.Argmax(logits)
		if next == d.eosID {
			break
		}
		tokens = append(tokens, next)

		fragment := d.tok.Decode([]int{next}, false)
		sb.WriteString(fragment)
		if onToken != nil {
			onToken(fragment)
		}
	}

	return sb.String(), nil
}

// Close releases the underlying decoder resources.
func (d *Driver) Close() error {
	return d.decoder.Close()
}
