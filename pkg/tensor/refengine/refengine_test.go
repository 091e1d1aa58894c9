package refengine

import (
	"context"
	"testing"
)

func TestEncodeProducesOnePerMelBin(t *testing.T) {
	e := New(Options{})
	enc, err := e.LoadEncoder([]byte{0x01})
	if err != nil {
		t.Fatalf("LoadEncoder returned error: %v", err)
	}

	mel := make([]float32, 80*10)
	hidden, err := enc.Encode(context.Background(), mel, 80, 10)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if len(hidden) != 80 {
		t.Fatalf("expected 80 hidden values, got %d", len(hidden))
	}
}

func TestDecodeForcesEOSAfterStopAfter(t *testing.T) {
	e := New(Options{VocabSize: 50, EOSID: 7, StopAfter: 3})
	dec, err := e.LoadDecoder([]byte{0x01})
	if err != nil {
		t.Fatalf("LoadDecoder returned error: %v", err)
	}

	var tokens []int
	var lastArgmax int
	for i := 0; i < 5; i++ {
		logits, err := dec.Step(context.Background(), nil, tokens)
		if err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
		best := 0
		for j, v := range logits {
			if v > logits[best] {
				best = j
			}
		}
		lastArgmax = best
		tokens = append(tokens, best)
	}

	if lastArgmax != 7 {
		t.Fatalf("expected EOS id 7 to win after StopAfter tokens, got %d", lastArgmax)
	}
}

func TestLoadRejectsEmptyWeights(t *testing.T) {
	e := New(Options{})
	if _, err := e.LoadEncoder(nil); err == nil {
		t.Fatal("expected error for empty weights")
	}
	if _, err := e.LoadDecoder(nil); err == nil {
		t.Fatal("expected error for empty weights")
	}
}
