package translator

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/tonybenoy/anuvad/pkg/tensor/refengine"
)

// minimalGGUF builds the smallest valid GGUF container Parse will accept: no
// metadata, one zero-length tensor, enough to exercise Load without a real
// quantized model file.
func minimalGGUF() []byte {
	var buf bytes.Buffer
	buf.WriteString("GGUF")
	writeU32(&buf, 3)
	writeU64(&buf, 1)
	writeU64(&buf, 0)

	writeStr(&buf, "weight.0")
	writeU32(&buf, 1)
	writeU64(&buf, 0)
	writeU32(&buf, 0)
	writeU64(&buf, 0)

	for buf.Len()%32 != 0 {
		buf.WriteByte(0)
	}
	buf.Write(make([]byte, 4))
	return buf.Bytes()
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeStr(buf *bytes.Buffer, s string) {
	writeU64(buf, uint64(len(s)))
	buf.WriteString(s)
}

func sampleTokenizerJSON(withEOS bool) []byte {
	vocab := map[string]int{
		"<|system|>":    0,
		"<|user|>":      2,
		"<|assistant|>": 3,
		"h":             4,
		"i":             5,
	}
	if withEOS {
		vocab["<|end|>"] = 1
		vocab["</s>"] = 6
	}
	doc := map[string]interface{}{
		"model": map[string]interface{}{"vocab": vocab, "merges": []string{}},
	}
	data, _ := sonic.Marshal(doc)
	return data
}

func TestBuildPromptSubstitutesLanguageAndText(t *testing.T) {
	prompt := BuildPrompt("fr", "hello world")
	if !contains(prompt, "French") {
		t.Fatalf("expected prompt to contain display name French, got %q", prompt)
	}
	if !contains(prompt, "hello world") {
		t.Fatalf("expected prompt to contain source text verbatim, got %q", prompt)
	}
}

func TestResolveEOSPrefersKnownCandidate(t *testing.T) {
	engine := refengine.New(refengine.Options{VocabSize: 16, EOSID: 6, StopAfter: 2})
	d, err := Load(engine, minimalGGUF(), sampleTokenizerJSON(true))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if d.eosID != 6 {
		t.Fatalf("expected EOS resolved to </s> id 6, got %d", d.eosID)
	}
}

func TestResolveEOSFallsBackWithoutCandidates(t *testing.T) {
	engine := refengine.New(refengine.Options{VocabSize: 16, EOSID: 2, StopAfter: 2})
	d, err := Load(engine, minimalGGUF(), sampleTokenizerJSON(false))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if d.eosID != 2 {
		t.Fatalf("expected fallback EOS id 2, got %d", d.eosID)
	}
}

func TestTranslateTerminatesAndStreamsTokens(t *testing.T) {
	engine := refengine.New(refengine.Options{VocabSize: 16, EOSID: 6, StopAfter: 4})
	d, err := Load(engine, minimalGGUF(), sampleTokenizerJSON(true))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	var fragments []string
	out, err := d.Translate(context.Background(), "fr", "hi", func(fragment string) {
		fragments = append(fragments, fragment)
	})
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if len(fragments) == 0 {
		t.Fatal("expected at least one streamed token callback")
	}
	if out == "" {
		t.Fatal("expected non-empty concatenated output")
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
