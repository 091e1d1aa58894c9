// Package tokenizer loads a HuggingFace-format tokenizer.json (vocab + BPE
// merges + added/special tokens) and exposes byte-level BPE encode/decode,
// shared by the Whisper decoder driver and the translator driver — both
// underlying models use the same GPT-2-style tokenizer family.
//
// tokenizer.json's JSON shell is decoded here (sonic), but the BPE model
// itself — merge ranks, byte-level pre-tokenization, decoding — is built and
// run by github.com/sugarme/tokenizer, the Go port of HuggingFace's
// tokenizers library, rather than hand-rolled.
package tokenizer

import (
	"strings"

	"github.com/bytedance/sonic"
	hftok "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/decoder"
	"github.com/sugarme/tokenizer/model/bpe"
	"github.com/sugarme/tokenizer/pretokenizer"

	"github.com/tonybenoy/anuvad/pkg/apperrors"
)

// Tokenizer wraps a sugarme/tokenizer BPE tokenizer plus the set of tokens
// tokenizer.json marked as "special" (skipped when skipSpecial decoding).
type Tokenizer struct {
	tk      *hftok.Tokenizer
	special map[string]int
}

type tokenizerJSON struct {
	Model struct {
		Vocab  map[string]int `json:"vocab"`
		Merges []string       `json:"merges"`
	} `json:"model"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
}

// Load parses tokenizer.json bytes and builds a byte-level BPE tokenizer
// from its vocab/merges table.
func Load(data []byte) (*Tokenizer, error) {
	var doc tokenizerJSON
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.ModelLoad("tokenizer.json parse error: %v", err)
	}
	if len(doc.Model.Vocab) == 0 {
		return nil, apperrors.ModelLoad("tokenizer.json has an empty vocab")
	}

	vocab := make(map[string]int, len(doc.Model.Vocab)+len(doc.AddedTokens))
	for tok, id := range doc.Model.Vocab {
		vocab[tok] = id
	}
	special := make(map[string]int)
	for _, at := range doc.AddedTokens {
		vocab[at.Content] = at.ID
		if at.Special {
			special[at.Content] = at.ID
		}
	}

	merges := make([][]string, 0, len(doc.Model.Merges))
	for _, m := range doc.Model.Merges {
		parts := strings.SplitN(m, " ", 2)
		if len(parts) != 2 {
			continue
		}
		merges = append(merges, parts)
	}

	model, err := bpe.NewBpeFromVocabMerges(vocab, merges)
	if err != nil {
		return nil, apperrors.ModelLoad("bpe model build error: %v", err)
	}

	tk := hftok.NewTokenizer(model)
	tk.WithPreTokenizer(pretokenizer.NewByteLevel())
	tk.WithDecoder(decoder.NewByteLevel())
	for content, id := range special {
		tk.AddSpecialTokens([]hftok.AddedToken{hftok.NewAddedToken(content, true)})
		_ = id // id comes from tokenizer.json itself; AddSpecialTokens only needs the content to register it
	}

	return &Tokenizer{tk: tk, special: special}, nil
}

// TokenToID looks up a literal token string (typically a special token like
// "<|startoftranscript|>" or "<|en|>"). The second return value is false when
// the token is absent, letting callers fall back to spec-mandated defaults.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	id, ok := t.tk.TokenToId(token)
	return id, ok
}

// IDToToken returns the literal string for a token id, or "" if out of range.
func (t *Tokenizer) IDToToken(id int) string {
	tok, ok := t.tk.IdToToken(id)
	if !ok {
		return ""
	}
	return tok
}

// Encode runs byte-level BPE over s and returns the resulting token ids.
func (t *Tokenizer) Encode(s string) []int {
	en, err := t.tk.EncodeSingle(s, false)
	if err != nil {
		return nil
	}
	return en.Ids
}

// Decode concatenates the literal strings for ids. When skipSpecial is true,
// tokens registered as special (added_tokens with special=true, e.g. EOT/EOS)
// are omitted; the translator driver decodes single generated tokens with
// skipSpecial=false per spec §4.F step 4, while the Whisper driver skips
// special tokens when detokenizing a finished transcript (spec §4.E).
func (t *Tokenizer) Decode(ids []int, skipSpecial bool) string {
	if !skipSpecial {
		return t.tk.Decode(ids, false)
	}
	filtered := make([]int, 0, len(ids))
	for _, id := range ids {
		tok, ok := t.tk.IdToToken(id)
		if ok {
			if _, isSpecial := t.special[tok]; isSpecial {
				continue
			}
		}
		filtered = append(filtered, id)
	}
	return t.tk.Decode(filtered, true)
}
