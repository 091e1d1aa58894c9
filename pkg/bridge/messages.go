// Package bridge implements the tagged-variant worker message protocol (spec
// §4.G) and two transports for it: an in-process channel bridge (the wasm
// build's UI-thread-to-worker-goroutine path) and a websocket bridge (the
// host dev/test harness, standing in for postMessage across a real worker
// boundary).
package bridge

import (
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// MessageType tags the variant carried by a Message.
type MessageType string

const (
	// UI -> whisper worker
	TypeLoadModel  MessageType = "LoadModel"
	TypeTranscribe MessageType = "Transcribe"

	// whisper worker -> UI
	TypeModelLoaded          MessageType = "ModelLoaded"
	TypeTranscriptionResult  MessageType = "TranscriptionResult"
	TypeTranscriptionPartial MessageType = "TranscriptionPartial"

	// UI -> translator worker
	TypeLoadTranslatorModel MessageType = "LoadTranslatorModel"
	TypeTranslate           MessageType = "Translate"

	// translator worker -> UI
	TypeTranslatorModelLoaded MessageType = "TranslatorModelLoaded"
	TypeTranslationToken      MessageType = "TranslationToken"
	TypeTranslationDone       MessageType = "TranslationDone"

	// either direction
	TypeProgress MessageType = "Progress"
	TypeError    MessageType = "Error"
)

// Message is the single wire envelope for every variant in spec §4.G's
// table; unused fields are omitted from JSON via omitempty so each variant
// serializes to just its tag plus its own fields.
type Message struct {
	Type MessageType `json:"type"`
	// ID correlates a request with its eventual reply across the websocket
	// dev-bridge transport, where messages are not implicitly ordered
	// request-to-response the way an in-process channel is.
	ID string `json:"id,omitempty"`

	Weights    []byte  `json:"weights,omitempty"`
	Tokenizer  []byte  `json:"tokenizer,omitempty"`
	Config     []byte  `json:"config,omitempty"`
	MelFilters []byte  `json:"melFilters,omitempty"`
	Audio      []float32 `json:"audio,omitempty"`

	Text           string `json:"text,omitempty"`
	Language       string `json:"language,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
	Token          string `json:"token,omitempty"`

	Percent float64 `json:"percent,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Encode serializes a Message to its JSON wire form.
func Encode(m Message) ([]byte, error) {
	return sonic.Marshal(m)
}

// Decode parses a wire-form JSON message. Callers that receive a message
// with an unrecognized Type should ignore it per spec §4.G dispatch policy,
// not treat it as a decode error.
func Decode(data []byte) (Message, error) {
	var m Message
	err := sonic.Unmarshal(data, &m)
	return m, err
}

// NewID generates a fresh correlation id for a request message.
func NewID() string {
	return uuid.NewString()
}

// KnownType reports whether t is one of the protocol's defined variants.
func KnownType(t MessageType) bool {
	switch t {
	case TypeLoadModel, TypeTranscribe, TypeModelLoaded, TypeTranscriptionResult,
		TypeTranscriptionPartial, TypeLoadTranslatorModel, TypeTranslate,
		TypeTranslatorModelLoaded, TypeTranslationToken, TypeTranslationDone,
		TypeProgress, TypeError:
		return true
	default:
		return false
	}
}
