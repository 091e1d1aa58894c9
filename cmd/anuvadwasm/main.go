// Command anuvadwasm is the browser entry point: compiled with
// GOOS=js GOARCH=wasm, it wires the reactive app state, the Web Audio
// capture graph, the browser asset cache, the host JS tensor runtime, and
// the two in-process model workers together, then exposes a small
// JS-callable surface on window.anuvadApp for the extension's popup/content
// scripts to drive.
package main

import (
	"context"
	"sync"
	"syscall/js"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/internal/logger"
	"github.com/tonybenoy/anuvad/internal/orchestrator"
	"github.com/tonybenoy/anuvad/pkg/apperrors"
	"github.com/tonybenoy/anuvad/pkg/appstate"
	"github.com/tonybenoy/anuvad/pkg/assetcache"
	"github.com/tonybenoy/anuvad/pkg/audio"
	"github.com/tonybenoy/anuvad/pkg/bridge"
	"github.com/tonybenoy/anuvad/pkg/tensor/jsengine"
	"github.com/tonybenoy/anuvad/pkg/translator"
	"github.com/tonybenoy/anuvad/pkg/whisperdriver"
)

// app owns every long-lived piece of wasm-side state: the reactive
// appstate.State the page's JS renders against, the browser cache, the two
// model drivers (nil until loaded), and the active capture source.
type app struct {
	state *orchestrator.Orchestrator
	cache *assetcache.BrowserCache

	mu            sync.Mutex
	whisper       *whisperdriver.Driver
	translator    *translator.Driver
	capture       *audio.WebAudioSource
	cancelCapture context.CancelFunc
}

func main() {
	logger.EnableColors(false)
	logger.Initialize()
	logger.Info(logger.CategoryApp, "anuvad wasm module starting")

	resolver := bridge.NewExtensionAwareResolver(bridge.DocumentRelativeResolver{BaseURL: documentBaseURI()})
	logger.Info(logger.CategoryApp, "whisper worker script resolves to %s", resolver.ResolveWorkerScriptURL(bridge.WhisperWorkerScript))
	logger.Info(logger.CategoryApp, "translator worker script resolves to %s", resolver.ResolveWorkerScriptURL(bridge.TranslatorWorkerScript))

	a := &app{cache: assetcache.NewBrowserCache()}
	st := appstate.New()
	a.state = orchestrator.New(st, a.handleWhisperMessage, a.handleTranslatorMessage)

	if err := a.cache.RequestPersistence(context.Background()); err != nil {
		logger.Warning(logger.CategoryCache, "persistent storage request failed: %v", err)
	}

	registerJSAPI(a)
	installSpaceKeyShortcut(a, st)

	logger.Info(logger.CategoryApp, "anuvad wasm module ready")
	select {} // keep the goroutine (and the module) alive
}

func documentBaseURI() string {
	document := js.Global().Get("document")
	if document.IsUndefined() {
		return ""
	}
	return document.Get("baseURI").String()
}

// handleWhisperMessage is the bridge.Handler backing the whisper worker: it
// loads the model or runs one transcribe window, emitting the matching
// reply variant the orchestrator's dispatchWhisper expects.
func (a *app) handleWhisperMessage(ctx context.Context, msg bridge.Message, emit func(bridge.Message)) {
	switch msg.Type {
	case bridge.TypeLoadModel:
		engine, err := jsengine.New()
		if err != nil {
			emitError(emit, err)
			return
		}
		driver, err := whisperdriver.Load(engine, msg.Weights, msg.Weights, msg.Tokenizer, msg.MelFilters)
		if err != nil {
			emitError(emit, err)
			return
		}
		a.mu.Lock()
		a.whisper = driver
		a.mu.Unlock()
		emit(bridge.Message{Type: bridge.TypeModelLoaded, ID: msg.ID})

	case bridge.TypeTranscribe:
		a.mu.Lock()
		driver := a.whisper
		a.mu.Unlock()
		if driver == nil {
			emitError(emit, apperrors.Inference("transcribe requested before the whisper model finished loading"))
			return
		}
		result, err := driver.Transcribe(ctx, msg.Audio)
		if err != nil {
			emitError(emit, err)
			return
		}
		emit(bridge.Message{Type: bridge.TypeTranscriptionResult, ID: msg.ID, Text: result.Text, Language: result.Language})
	}
}

// handleTranslatorMessage mirrors handleWhisperMessage for the translator
// worker, streaming each decoded fragment as a TranslationToken before the
// terminal TranslationDone (spec §4.F streaming contract).
func (a *app) handleTranslatorMessage(ctx context.Context, msg bridge.Message, emit func(bridge.Message)) {
	switch msg.Type {
	case bridge.TypeLoadTranslatorModel:
		engine, err := jsengine.New()
		if err != nil {
			emitError(emit, err)
			return
		}
		driver, err := translator.Load(engine, msg.Weights, msg.Tokenizer)
		if err != nil {
			emitError(emit, err)
			return
		}
		a.mu.Lock()
		a.translator = driver
		a.mu.Unlock()
		emit(bridge.Message{Type: bridge.TypeTranslatorModelLoaded, ID: msg.ID})

	case bridge.TypeTranslate:
		a.mu.Lock()
		driver := a.translator
		a.mu.Unlock()
		if driver == nil {
			emitError(emit, apperrors.Inference("translate requested before the translator model finished loading"))
			return
		}
		full, err := driver.Translate(ctx, msg.TargetLanguage, msg.Text, func(fragment string) {
			emit(bridge.Message{Type: bridge.TypeTranslationToken, ID: msg.ID, Token: fragment})
		})
		if err != nil {
			emitError(emit, err)
			return
		}
		emit(bridge.Message{Type: bridge.TypeTranslationDone, ID: msg.ID, Text: full})
	}
}

func emitError(emit func(bridge.Message), err error) {
	emit(bridge.Message{Type: bridge.TypeError, ID: bridge.NewID(), Message: err.Error()})
}

// registerJSAPI exposes window.anuvadApp, the surface the extension's
// popup/content scripts call into; every method returns immediately and
// drives the orchestrator asynchronously, matching how a postMessage-based
// Worker boundary looks from the caller's side.
func registerJSAPI(a *app) {
	api := map[string]interface{}{
		"loadWhisperModel": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			go a.fetchAndLoadWhisper()
			return nil
		}),
		"loadTranslatorModel": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			go a.fetchAndLoadTranslator()
			return nil
		}),
		"startRecording": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			mode := appstate.SourceMicrophone
			if len(args) > 0 && args[0].Type() == js.TypeString {
				mode = appstate.AudioSource(args[0].String())
			}
			go a.startRecording(mode)
			return nil
		}),
		"stopRecording": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			a.stopRecording()
			return nil
		}),
		"requestTranslation": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			a.state.RequestTranslation()
			return nil
		}),
		"setTargetLanguage": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			if len(args) > 0 {
				a.state.State.TargetLanguage.Set(args[0].String())
			}
			return nil
		}),
		"clearError": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			a.state.State.ClearError()
			return nil
		}),
	}
	js.Global().Set("anuvadApp", js.ValueOf(api))
}

func (a *app) fetchAndLoadWhisper() {
	ctx := context.Background()
	urls := config.Current.WhisperURLs
	blobs, err := a.cache.Download(ctx, []string{urls.WeightsURL, urls.TokenizerURL, urls.ConfigURL, urls.MelFiltersURL}, func(frac float64) {
		a.state.State.WhisperProgress.Set(frac)
	})
	if err != nil {
		a.state.State.WhisperStatus.Set(appstate.ModelError)
		a.state.State.ErrorMessage.Set(err.Error())
		return
	}
	a.state.LoadWhisperModel(blobs[0], blobs[1], blobs[2], blobs[3])
}

func (a *app) fetchAndLoadTranslator() {
	ctx := context.Background()
	urls := config.Current.TranslatorURLs
	blobs, err := a.cache.Download(ctx, []string{urls.WeightsURL, urls.TokenizerURL}, func(frac float64) {
		a.state.State.TranslatorProgress.Set(frac)
	})
	if err != nil {
		a.state.State.TranslatorStatus.Set(appstate.ModelError)
		a.state.State.ErrorMessage.Set(err.Error())
		return
	}
	a.state.LoadTranslatorModel(blobs[0], blobs[1])
}

func (a *app) startRecording(mode appstate.AudioSource) {
	src, err := audio.Start(mode)
	if err != nil {
		a.state.State.ErrorMessage.Set(err.Error())
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.capture = src
	a.cancelCapture = cancel
	a.mu.Unlock()

	if err := a.state.RunCapture(ctx, src); err != nil {
		logger.Warning(logger.CategoryAudio, "capture loop ended: %v", err)
	}
}

// stopRecording cancels the capture loop's context (unblocking a pending
// source.Next call) before tearing down the Web Audio graph.
func (a *app) stopRecording() {
	a.mu.Lock()
	src := a.capture
	cancel := a.cancelCapture
	a.capture = nil
	a.cancelCapture = nil
	a.mu.Unlock()
	if src == nil {
		return
	}
	if cancel != nil {
		cancel()
	}
	if err := a.state.Stop(src); err != nil {
		logger.Warning(logger.CategoryAudio, "capture teardown failed: %v", err)
	}
}

// installSpaceKeyShortcut wires the global "press space to toggle recording"
// shortcut (spec §4.H): HandleSpaceKey decides whether the keystroke applies
// and what the new state should be, then the listener drives the actual
// capture graph to match.
func installSpaceKeyShortcut(a *app, st *appstate.State) {
	document := js.Global().Get("document")
	if document.IsUndefined() {
		return
	}
	var listener js.Func
	listener = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		event := args[0]
		if event.Get("code").String() != "Space" {
			return nil
		}
		focused := document.Get("activeElement")
		focusedOnInput := false
		if !focused.IsUndefined() && !focused.IsNull() {
			switch focused.Get("tagName").String() {
			case "INPUT", "TEXTAREA":
				focusedOnInput = true
			}
		}
		before := st.Recording.Get()
		after := st.HandleSpaceKey(focusedOnInput)
		if after == before {
			return nil
		}
		event.Call("preventDefault")
		if after == appstate.RecordingInFlight {
			go a.startRecording(st.AudioSourceSel.Get())
		} else {
			a.stopRecording()
		}
		return nil
	})
	document.Call("addEventListener", "keydown", listener)
}
