// Package config holds the constants and host paths shared by the wasm app
// and the anuvadctl CLI: model URLs, the cache namespace, audio/mel geometry,
// and decode limits. Adapted from the teacher's config.Config/Current
// package-variable pattern.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// CacheNamespace is the named persistent cache used for model blobs in the
// browser's Cache Storage. anuvadctl's on-disk cache does not use it; its
// location is Config.CacheDir.
const CacheNamespace = "anuvad-models-v1"

// Audio and streaming-buffer geometry (spec §3).
const (
	SampleRateHz       = 16000
	CaptureFrameSize   = 4096
	BufferCapacity     = 30 * SampleRateHz // 480_000 samples
	InferenceThreshold = 3 * SampleRateHz  // 48_000 samples
)

// Mel front-end geometry (spec §4.D).
const (
	NFFT        = 400
	HopLength   = 160
	NumMelBins  = 80
	FFTBins     = NFFT/2 + 1 // 201
	NumMelFrames = (BufferCapacity-NFFT)/HopLength + 1
)

// Decode limits (spec §4.E, §4.F).
const (
	WhisperMaxTokens    = 224
	TranslatorMaxTokens = 512
)

// Whisper fallback special-token ids (spec §4.E), used when the tokenizer's
// vocab lookup fails.
const (
	FallbackSOT            = 50258
	FallbackTranscribe     = 50359
	FallbackNoTimestamps   = 50363
	FallbackEOT            = 50257
	FallbackLanguageOffset = 50259 // <|en|> in the whisper-small vocab
)

// FallbackEOS is used by the translator when none of <|endoftext|>, </s>,
// <|end|> are present in the tokenizer vocabulary.
const FallbackEOS = 2

// LowMemoryWarningBytes is the per-asset available-memory threshold below
// which the host cache logs a preflight warning before starting a download
// group (translator + whisper artifacts can together exceed 2.5GB).
const LowMemoryWarningBytes = 512 * 1024 * 1024

// ModelURLs holds the absolute URLs for a model's constituent artifacts.
type ModelURLs struct {
	WeightsURL   string
	TokenizerURL string
	ConfigURL    string // empty for the translator, which has no config.json
	MelFiltersURL string // empty for the translator
}

// DefaultWhisperURLs describes the whisper-small artifact set
// (spec §6, ≈460MB total).
func DefaultWhisperURLs() ModelURLs {
	base := "https://huggingface.co/openai/whisper-small/resolve/main"
	return ModelURLs{
		WeightsURL:    base + "/model.safetensors",
		TokenizerURL:  base + "/tokenizer.json",
		ConfigURL:     base + "/config.json",
		MelFiltersURL: base + "/melfilters.bytes",
	}
}

// DefaultTranslatorURLs describes the quantized Phi-3.5-mini artifact set
// (spec §6, ≈2GB total).
func DefaultTranslatorURLs() ModelURLs {
	return ModelURLs{
		WeightsURL:   "https://huggingface.co/microsoft/Phi-3.5-mini-instruct-gguf/resolve/main/Phi-3.5-mini-instruct-Q4_K_M.gguf",
		TokenizerURL: "https://huggingface.co/microsoft/Phi-3.5-mini-instruct/resolve/main/tokenizer.json",
	}
}

// Config holds the host-side settings for anuvadctl. The wasm build has no
// equivalent: it reads everything from the constants above and the browser
// APIs directly.
type Config struct {
	WhisperURLs    ModelURLs
	TranslatorURLs ModelURLs
	CacheDir       string
	BridgeAddr     string
}

// Current holds the active host-side configuration.
var Current = DefaultConfig()

// DefaultConfig returns the default anuvadctl configuration, applying any
// ANUVAD_* overrides found in a .env file or the process environment.
func DefaultConfig() *Config {
	_ = godotenv.Load() // best-effort; anuvadctl runs fine with no .env present

	cacheDir := os.Getenv("ANUVAD_CACHE_DIR")
	if cacheDir == "" {
		if dir, err := defaultCacheDir(); err == nil {
			cacheDir = dir
		} else {
			cacheDir = "./.anuvad-cache"
		}
	}

	whisper := DefaultWhisperURLs()
	translator := DefaultTranslatorURLs()
	if override := os.Getenv("ANUVAD_WHISPER_BASE_URL"); override != "" {
		whisper = ModelURLs{
			WeightsURL:    override + "/model.safetensors",
			TokenizerURL:  override + "/tokenizer.json",
			ConfigURL:     override + "/config.json",
			MelFiltersURL: override + "/melfilters.bytes",
		}
	}

	return &Config{
		WhisperURLs:    whisper,
		TranslatorURLs: translator,
		CacheDir:       cacheDir,
		BridgeAddr:     envOr("ANUVAD_BRIDGE_ADDR", "127.0.0.1:8787"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".anuvad", "cache")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return dir, nil
}
