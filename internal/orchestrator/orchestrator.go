// Package orchestrator wires the streaming buffer, the bridge workers, and
// app state together (spec §4.H): it owns the capture loop and the two
// worker message dispatchers, the "single owning orchestrator value passed
// by reference" spec §9 prescribes in place of thread-local singletons.
package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tonybenoy/anuvad/pkg/appstate"
	"github.com/tonybenoy/anuvad/pkg/audio"
	"github.com/tonybenoy/anuvad/pkg/bridge"
	"github.com/tonybenoy/anuvad/pkg/streambuf"
)

// Orchestrator supervises one recording session's worker wiring.
type Orchestrator struct {
	State  *appstate.State
	buffer *streambuf.Buffer

	whisperWorker    *bridge.ChannelWorker
	translatorWorker *bridge.ChannelWorker
}

// New builds an Orchestrator around state, starting both worker goroutines
// with the given handlers (typically backed by pkg/whisperdriver and
// pkg/translator).
func New(state *appstate.State, whisperHandler, translatorHandler bridge.Handler) *Orchestrator {
	o := &Orchestrator{State: state, buffer: streambuf.New()}
	o.whisperWorker = bridge.NewChannelWorker(whisperHandler, o.dispatchWhisper)
	o.translatorWorker = bridge.NewChannelWorker(translatorHandler, o.dispatchTranslator)
	return o
}

func (o *Orchestrator) dispatchWhisper(m bridge.Message) {
	switch m.Type {
	case bridge.TypeModelLoaded:
		o.State.WhisperStatus.Set(appstate.ModelReady)
	case bridge.TypeTranscriptionResult, bridge.TypeTranscriptionPartial:
		o.State.TranscriptionText.Set(m.Text)
		if m.Language != "" {
			o.State.DetectedLanguage.Set(m.Language)
		}
	case bridge.TypeProgress:
		o.State.WhisperProgress.Set(m.Percent)
	case bridge.TypeError:
		o.State.WhisperStatus.Set(appstate.ModelError)
		o.State.ErrorMessage.Set(m.Message)
	}
}

func (o *Orchestrator) dispatchTranslator(m bridge.Message) {
	switch m.Type {
	case bridge.TypeTranslatorModelLoaded:
		o.State.TranslatorStatus.Set(appstate.ModelReady)
	case bridge.TypeTranslationToken:
		o.State.TranslationText.Set(o.State.TranslationText.Get() + m.Token)
	case bridge.TypeTranslationDone:
		o.State.TranslationText.Set(m.Text)
	case bridge.TypeProgress:
		o.State.TranslatorProgress.Set(m.Percent)
	case bridge.TypeError:
		o.State.TranslatorStatus.Set(appstate.ModelError)
		o.State.ErrorMessage.Set(m.Message)
	}
}

// LoadWhisperModel posts the LoadModel variant with the fetched artifact
// bytes and marks the model Loading.
func (o *Orchestrator) LoadWhisperModel(weights, tokenizer, cfg, melFilters []byte) {
	o.State.WhisperStatus.Set(appstate.ModelLoading)
	o.whisperWorker.Post(bridge.Message{
		Type: bridge.TypeLoadModel, ID: bridge.NewID(),
		Weights: weights, Tokenizer: tokenizer, Config: cfg, MelFilters: melFilters,
	})
}

// LoadTranslatorModel posts LoadTranslatorModel and marks the model Loading.
func (o *Orchestrator) LoadTranslatorModel(weights, tokenizer []byte) {
	o.State.TranslatorStatus.Set(appstate.ModelLoading)
	o.translatorWorker.Post(bridge.Message{
		Type: bridge.TypeLoadTranslatorModel, ID: bridge.NewID(),
		Weights: weights, Tokenizer: tokenizer,
	})
}

// RequestTranslation posts a Translate message for the current transcription
// text and target language.
func (o *Orchestrator) RequestTranslation() {
	o.translatorWorker.Post(bridge.Message{
		Type: bridge.TypeTranslate, ID: bridge.NewID(),
		Text: o.State.TranscriptionText.Get(), TargetLanguage: o.State.TargetLanguage.Get(),
	})
}

// RunCapture drives the capture loop over source until it is exhausted, ctx
// is canceled, or the Recording signal returns to Idle: every block updates
// AudioLevel and RecordingDuration, and a Transcribe message is posted to
// the whisper worker whenever the streaming buffer says it's time.
func (o *Orchestrator) RunCapture(ctx context.Context, source audio.Source) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o.State.Recording.Set(appstate.RecordingInFlight)
		defer o.State.Recording.Set(appstate.RecordingIdle)
		defer o.buffer.Clear()

		for {
			if o.State.Recording.Get() != appstate.RecordingInFlight {
				return nil
			}
			block, err := source.Next(ctx)
			if err != nil {
				return err
			}
			if block == nil {
				return nil
			}

			o.buffer.Push(block)
			o.State.AudioLevel.Set(float64(audio.RMS(block)))
			o.State.RecordingDuration.Set(o.buffer.DurationSeconds())

			if chunk := o.buffer.GetChunk(); chunk != nil {
				o.whisperWorker.Post(bridge.Message{Type: bridge.TypeTranscribe, ID: bridge.NewID(), Audio: chunk})
			}
		}
	})
	return g.Wait()
}

// Stop signals RunCapture's loop to return on its next iteration and tears
// down the media source (spec §4.C Teardown).
func (o *Orchestrator) Stop(source audio.Source) error {
	o.State.Recording.Set(appstate.RecordingIdle)
	return source.Close()
}

// Close stops both worker goroutines, allowing any in-flight message to
// finish first (spec §5 Cancellation).
func (o *Orchestrator) Close() {
	o.whisperWorker.Close()
	o.translatorWorker.Close()
}
