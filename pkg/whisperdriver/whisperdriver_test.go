package whisperdriver

import (
	"context"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/pkg/mel"
	"github.com/tonybenoy/anuvad/pkg/tensor/refengine"
)

func sampleTokenizerJSON() []byte {
	doc := map[string]interface{}{
		"model": map[string]interface{}{
			"vocab": map[string]int{
				"<|startoftranscript|>": 0,
				"<|en|>":                1,
				"<|transcribe|>":        2,
				"<|notimestamps|>":      3,
				"<|endoftext|>":         4,
				"h":                     5,
				"i":                     6,
			},
			"merges": []string{},
		},
	}
	data, _ := sonic.Marshal(doc)
	return data
}

func flatFilterbankBytes(numMelBins int) []byte {
	weights := make([]float32, numMelBins*config.FFTBins)
	for m := 0; m < numMelBins; m++ {
		for k := 0; k < config.FFTBins; k++ {
			weights[m*config.FFTBins+k] = float32(1.0 / float64(k+m+1))
		}
	}
	fb := &mel.Filterbank{NumMelBins: numMelBins, FFTBins: config.FFTBins, Weights: weights}
	return fb.Bytes()
}

func TestLoadResolvesSpecialTokensFromTokenizer(t *testing.T) {
	engine := refengine.New(refengine.Options{VocabSize: 16, EOSID: 4, StopAfter: 3})
	d, err := Load(engine, []byte{0x1}, []byte{0x1}, sampleTokenizerJSON(), flatFilterbankBytes(config.NumMelBins))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if d.sotID != 0 || d.transcribeID != 2 || d.noTimestampsID != 3 || d.eotID != 4 {
		t.Fatalf("expected tokenizer-defined ids to win over fallbacks, got sot=%d transcribe=%d notimestamps=%d eot=%d",
			d.sotID, d.transcribeID, d.noTimestampsID, d.eotID)
	}
}

func TestLoadFallsBackWhenTokensMissing(t *testing.T) {
	doc := map[string]interface{}{
		"model": map[string]interface{}{
			"vocab":  map[string]int{"h": 0},
			"merges": []string{},
		},
	}
	data, _ := sonic.Marshal(doc)

	engine := refengine.New(refengine.Options{VocabSize: 60000, EOSID: config.FallbackEOT, StopAfter: 2})
	d, err := Load(engine, []byte{0x1}, []byte{0x1}, data, flatFilterbankBytes(config.NumMelBins))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if d.sotID != config.FallbackSOT || d.eotID != config.FallbackEOT {
		t.Fatalf("expected fallback ids, got sot=%d eot=%d", d.sotID, d.eotID)
	}
}

func TestTranscribeTerminatesWithinMaxTokens(t *testing.T) {
	engine := refengine.New(refengine.Options{VocabSize: 16, EOSID: 4, StopAfter: 5})
	d, err := Load(engine, []byte{0x1}, []byte{0x1}, sampleTokenizerJSON(), flatFilterbankBytes(config.NumMelBins))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	pcm := make([]float32, config.SampleRateHz*3)
	result, err := d.Transcribe(context.Background(), pcm)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if result.Language != "en" {
		t.Fatalf("expected default language en, got %q", result.Language)
	}
}

func TestSetLanguageOverridesDefault(t *testing.T) {
	engine := refengine.New(refengine.Options{VocabSize: 16, EOSID: 4, StopAfter: 1})
	d, err := Load(engine, []byte{0x1}, []byte{0x1}, sampleTokenizerJSON(), flatFilterbankBytes(config.NumMelBins))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	d.SetLanguage("fr")
	if d.language != "fr" {
		t.Fatalf("expected language fr, got %q", d.language)
	}
}
