// Package appstate holds the reactive signals the UI layer observes (spec
// §4.H, §9 "Reactive signals are observable cells with many readers and
// explicit writers"). Any concrete UI can subscribe; the contract is only
// that subscribers re-evaluate on write.
package appstate

import "sync"

// Signal is a generic observable cell: one writer of record, any number of
// readers that want to be notified on change.
type Signal[T any] struct {
	mu   sync.RWMutex
	val  T
	subs map[int]func(T)
	next int
}

// NewSignal creates a Signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{val: initial, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.val
}

// Set writes a new value and notifies every current subscriber, in
// subscription order.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	s.val = v
	subs := make([]func(T), 0, len(s.subs))
	for id := 0; id < s.next; id++ {
		if fn, ok := s.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe registers fn to be called on every future Set. The returned
// function removes the subscription.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// ModelStatus is the lifecycle of a loaded model (spec §4.H "model statuses
// and progress (two pairs)").
type ModelStatus string

const (
	ModelNotLoaded ModelStatus = "NotLoaded"
	ModelLoading   ModelStatus = "Loading"
	ModelReady     ModelStatus = "Ready"
	ModelError     ModelStatus = "Error"
)

// RecordingState is whether the audio graph is currently capturing.
type RecordingState string

const (
	RecordingIdle      RecordingState = "Idle"
	RecordingInFlight  RecordingState = "Recording"
)

// AudioSource selects which media stream(s) feed the capture graph (spec §6
// "Source selection (Microphone / Tab Audio / Both)").
type AudioSource string

const (
	SourceMicrophone AudioSource = "Microphone"
	SourceTabAudio   AudioSource = "TabAudio"
	SourceBoth       AudioSource = "Both"
)

// State aggregates every independently observable signal named in spec §4.H.
type State struct {
	WhisperStatus    *Signal[ModelStatus]
	WhisperProgress  *Signal[float64]
	TranslatorStatus *Signal[ModelStatus]
	TranslatorProgress *Signal[float64]

	Recording *Signal[RecordingState]

	TranscriptionText *Signal[string]
	TranslationText   *Signal[string]

	SourceLanguage   *Signal[string]
	TargetLanguage   *Signal[string]
	DetectedLanguage *Signal[string]

	AudioLevel        *Signal[float64]
	ErrorMessage      *Signal[string]
	RecordingDuration *Signal[float64]
	AudioSourceSel    *Signal[AudioSource]
}

// New constructs a State with spec-mandated defaults: no model loaded, idle
// recording, auto source-language detection, microphone capture.
func New() *State {
	return &State{
		WhisperStatus:      NewSignal(ModelNotLoaded),
		WhisperProgress:    NewSignal(0.0),
		TranslatorStatus:   NewSignal(ModelNotLoaded),
		TranslatorProgress: NewSignal(0.0),
		Recording:          NewSignal(RecordingIdle),
		TranscriptionText:  NewSignal(""),
		TranslationText:    NewSignal(""),
		SourceLanguage:     NewSignal("auto"),
		TargetLanguage:     NewSignal("en"),
		DetectedLanguage:   NewSignal(""),
		AudioLevel:         NewSignal(0.0),
		ErrorMessage:       NewSignal(""),
		RecordingDuration:  NewSignal(0.0),
		AudioSourceSel:     NewSignal(SourceMicrophone),
	}
}

// ClearError resets the error banner, the effect of a user's dismiss click
// (spec §7 propagation policy).
func (s *State) ClearError() {
	s.ErrorMessage.Set("")
}

// HandleSpaceKey toggles recording when focus is not on an input field and
// the Whisper model is Ready (spec §4.H global shortcut). It returns the
// RecordingState the signal was set to, or the current state unchanged if
// the shortcut didn't apply.
func (s *State) HandleSpaceKey(focusedOnInput bool) RecordingState {
	if focusedOnInput || s.WhisperStatus.Get() != ModelReady {
		return s.Recording.Get()
	}
	next := RecordingInFlight
	if s.Recording.Get() == RecordingInFlight {
		next = RecordingIdle
	}
	s.Recording.Set(next)
	return next
}
