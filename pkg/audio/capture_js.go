//go:build js && wasm

package audio

import (
	"context"
	"syscall/js"

	"github.com/tonybenoy/anuvad/pkg/apperrors"
	"github.com/tonybenoy/anuvad/pkg/appstate"
	"github.com/tonybenoy/anuvad/pkg/bridge"
)

// Mode selects which media stream(s) feed the capture graph.
type Mode = appstate.AudioSource

// awaitPromise blocks the calling goroutine (safe under wasm's single OS
// thread + goroutine scheduler) until a JS Promise settles.
func awaitPromise(p js.Value) (js.Value, error) {
	result := make(chan js.Value, 1)
	failure := make(chan error, 1)

	var thenFunc, catchFunc js.Func
	thenFunc = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		thenFunc.Release()
		catchFunc.Release()
		if len(args) > 0 {
			result <- args[0]
		} else {
			result <- js.Undefined()
		}
		return nil
	})
	catchFunc = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		thenFunc.Release()
		catchFunc.Release()
		msg := "promise rejected"
		if len(args) > 0 {
			msg = args[0].Get("message").String()
		}
		failure <- apperrors.Permission("%s", msg)
		return nil
	})
	p.Call("then", thenFunc).Call("catch", catchFunc)

	select {
	case v := <-result:
		return v, nil
	case err := <-failure:
		return js.Value{}, err
	}
}

// WebAudioSource drives a 16kHz AudioContext + ScriptProcessorNode graph per
// spec §4.C, exposing each processed block through the audio.Source
// interface.
type WebAudioSource struct {
	audioCtx  js.Value
	processor js.Value
	streams   []js.Value
	onProcess js.Func
	blocks    chan []float32
	level     chan float32
}

// Start acquires the media stream(s) for mode, builds the audio graph, and
// begins delivering BlockSize-sample blocks.
func Start(mode Mode) (*WebAudioSource, error) {
	mediaDevices := js.Global().Get("navigator").Get("mediaDevices")
	if mediaDevices.IsUndefined() {
		return nil, apperrors.Capture("navigator.mediaDevices is unavailable")
	}

	var streams []js.Value

	switch mode {
	case appstate.SourceMicrophone, appstate.SourceBoth:
		constraints := js.ValueOf(map[string]interface{}{"audio": true, "video": false})
		stream, err := awaitPromise(mediaDevices.Call("getUserMedia", constraints))
		if err != nil {
			return nil, err
		}
		streams = append(streams, stream)
	}

	if mode == appstate.SourceBoth || mode == appstate.SourceTabAudio {
		if bridge.HasExtensionAPI() {
			stream, err := captureTabAudio()
			if err != nil {
				return nil, err
			}
			streams = append(streams, stream)
		} else if mode != appstate.SourceTabAudio || len(streams) == 0 {
			constraints := js.ValueOf(map[string]interface{}{"audio": true, "video": true})
			display, err := awaitPromise(mediaDevices.Call("getDisplayMedia", constraints))
			if err != nil {
				return nil, err
			}
			for _, track := range jsArrayToSlice(display.Call("getVideoTracks")) {
				track.Call("stop")
			}
			streams = append(streams, display)
		}
	}

	if len(streams) == 0 {
		return nil, apperrors.Capture("no audible source acquired for mode %s", mode)
	}

	audioCtxClass := js.Global().Get("AudioContext")
	if audioCtxClass.IsUndefined() {
		audioCtxClass = js.Global().Get("webkitAudioContext")
	}
	audioCtx := audioCtxClass.New(js.ValueOf(map[string]interface{}{"sampleRate": 16000}))

	processor := audioCtx.Call("createScriptProcessor", BlockSize, 1, 1)

	src := &WebAudioSource{
		audioCtx:  audioCtx,
		processor: processor,
		streams:   streams,
		blocks:    make(chan []float32, 8),
		level:     make(chan float32, 8),
	}

	for _, stream := range streams {
		node := audioCtx.Call("createMediaStreamSource", stream)
		node.Call("connect", processor)
	}

	src.onProcess = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		event := args[0]
		channelData := event.Get("inputBuffer").Call("getChannelData", 0)
		n := channelData.Get("length").Int()
		block := make([]float32, n)
		for i := 0; i < n; i++ {
			block[i] = float32(channelData.Index(i).Float())
		}
		select {
		case src.blocks <- block:
		default:
		}
		select {
		case src.level <- RMS(block):
		default:
		}
		return nil
	})
	processor.Set("onaudioprocess", src.onProcess)
	processor.Call("connect", audioCtx.Get("destination"))

	return src, nil
}

func jsArrayToSlice(v js.Value) []js.Value {
	n := v.Get("length").Int()
	out := make([]js.Value, n)
	for i := 0; i < n; i++ {
		out[i] = v.Index(i)
	}
	return out
}

// captureTabAudio calls the extension host's tab-capture API, which is
// exposed on the Chrome tabCapture namespace.
func captureTabAudio() (js.Value, error) {
	tabCapture := js.Global().Get("chrome").Get("tabCapture")
	if tabCapture.IsUndefined() {
		return js.Value{}, apperrors.Permission("extension host does not expose tabCapture")
	}
	result := make(chan js.Value, 1)
	failure := make(chan error, 1)
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		cb.Release()
		if len(args) == 0 || args[0].IsNull() || args[0].IsUndefined() {
			failure <- apperrors.Permission("tab capture denied")
			return nil
		}
		result <- args[0]
		return nil
	})
	tabCapture.Call("capture", js.ValueOf(map[string]interface{}{"audio": true, "video": false}), cb)

	select {
	case v := <-result:
		return v, nil
	case err := <-failure:
		return js.Value{}, err
	}
}

// Next returns the next captured block, or nil if ctx is canceled first.
func (s *WebAudioSource) Next(ctx context.Context) ([]float32, error) {
	select {
	case block := <-s.blocks:
		return block, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Level returns the most recently published RMS audio level, non-blocking.
func (s *WebAudioSource) Level() (float32, bool) {
	select {
	case v := <-s.level:
		return v, true
	default:
		return 0, false
	}
}

// Close tears down the audio graph: disconnect the processor, close the
// context, stop every track on every retained stream (spec §4.C Teardown).
func (s *WebAudioSource) Close() error {
	s.processor.Call("disconnect")
	s.onProcess.Release()
	s.audioCtx.Call("close")
	for _, stream := range s.streams {
		for _, track := range jsArrayToSlice(stream.Call("getTracks")) {
			track.Call("stop")
		}
	}
	return nil
}
