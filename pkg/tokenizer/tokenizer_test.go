package tokenizer

import (
	"testing"

	"github.com/bytedance/sonic"
)

func sampleTokenizerJSON() []byte {
	doc := map[string]interface{}{
		"model": map[string]interface{}{
			"vocab": map[string]int{
				"h": 0, "e": 1, "l": 2, "o": 3, "Ġ": 4, "w": 5, "r": 6, "d": 7,
				"he": 8, "ll": 9, "hell": 10, "hello": 11, "Ġw": 12, "Ġwo": 13,
				"rld": 14, "Ġworld": 15, "rl": 19,
			},
			"merges": []string{
				"h e", "l l", "he ll", "hell o", "Ġ w", "Ġw o", "r l",
				"rl d", "Ġwo rld",
			},
		},
		"added_tokens": []map[string]interface{}{
			{"id": 16, "content": "<|startoftranscript|>", "special": true},
			{"id": 17, "content": "<|endoftext|>", "special": true},
			{"id": 18, "content": "</s>", "special": true},
		},
	}
	data, err := sonic.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

func TestLoadAndSpecialTokenLookup(t *testing.T) {
	tok, err := Load(sampleTokenizerJSON())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	id, ok := tok.TokenToID("<|startoftranscript|>")
	if !ok || id != 16 {
		t.Fatalf("expected <|startoftranscript|> -> 16, got %d ok=%v", id, ok)
	}

	if _, ok := tok.TokenToID("<|nonexistent|>"); ok {
		t.Fatal("expected missing token to report ok=false")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tok, err := Load(sampleTokenizerJSON())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	ids := tok.Encode("hello world")
	if len(ids) == 0 {
		t.Fatal("expected at least one token id")
	}

	decoded := tok.Decode(ids, false)
	if decoded != "hello world" {
		t.Fatalf("round trip mismatch: got %q", decoded)
	}
}

func TestDecodeSkipsSpecialTokens(t *testing.T) {
	tok, err := Load(sampleTokenizerJSON())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	startID, _ := tok.TokenToID("<|startoftranscript|>")
	ids := append([]int{startID}, tok.Encode("hello")...)

	withSpecial := tok.Decode(ids, false)
	withoutSpecial := tok.Decode(ids, true)

	if withSpecial == withoutSpecial {
		t.Fatal("expected skipSpecial=true to produce different output")
	}
	if withoutSpecial != "hello" {
		t.Fatalf("expected special-stripped decode to equal %q, got %q", "hello", withoutSpecial)
	}
}

func TestEOSCandidateResolution(t *testing.T) {
	tok, err := Load(sampleTokenizerJSON())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	candidates := []string{"<|endoftext|>", "</s>", "<|end|>"}
	var resolved int
	found := false
	for _, c := range candidates {
		if id, ok := tok.TokenToID(c); ok {
			resolved = id
			found = true
			break
		}
	}
	if !found || resolved != 17 {
		t.Fatalf("expected first-match EOS resolution to <|endoftext|>=17, got %d found=%v", resolved, found)
	}
}

func TestLoadRejectsEmptyVocab(t *testing.T) {
	data, _ := sonic.Marshal(map[string]interface{}{
		"model": map[string]interface{}{"vocab": map[string]int{}, "merges": []string{}},
	})
	if _, err := Load(data); err == nil {
		t.Fatal("expected error for empty vocab")
	}
}
