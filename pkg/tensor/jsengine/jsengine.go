//go:build js && wasm

// Package jsengine drives a host-provided JavaScript tensor runtime through
// syscall/js — the WASM build's only path to the GPU/CPU kernel actually
// doing inference in the page. It expects a global `anuvadTensor` object
// exposing loadEncoder/loadDecoder/encode/step/close methods, wired up by the
// page's JS bundle around whatever WebGPU/WASM-SIMD tensor library it ships.
package jsengine

import (
	"context"
	"syscall/js"

	"github.com/tonybenoy/anuvad/pkg/apperrors"
	"github.com/tonybenoy/anuvad/pkg/tensor"
)

// Engine drives the host's "anuvadTensor" JS object.
type Engine struct {
	host js.Value
}

// New binds to the global anuvadTensor object, failing fast if the host page
// hasn't installed one.
func New() (*Engine, error) {
	host := js.Global().Get("anuvadTensor")
	if host.IsUndefined() || host.IsNull() {
		return nil, apperrors.ModelLoad("host window.anuvadTensor tensor runtime is not installed")
	}
	return &Engine{host: host}, nil
}

func bytesToJS(data []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	return arr
}

func floatsToJS(data []float32) js.Value {
	arr := js.Global().Get("Float32Array").New(len(data))
	for i, v := range data {
		arr.SetIndex(i, v)
	}
	return arr
}

func jsToFloats(v js.Value) []float32 {
	n := v.Get("length").Int()
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(v.Index(i).Float())
	}
	return out
}

func intsToJS(data []int) js.Value {
	arr := js.Global().Get("Int32Array").New(len(data))
	for i, v := range data {
		arr.SetIndex(i, v)
	}
	return arr
}

// LoadEncoder asks the host runtime to instantiate a Whisper encoder from
// weights, returning a handle wrapping its JS-side model object.
func (e *Engine) LoadEncoder(weights []byte) (tensor.Encoder, error) {
	handle := e.host.Call("loadEncoder", bytesToJS(weights))
	if handle.IsUndefined() || handle.IsNull() {
		return nil, apperrors.ModelLoad("anuvadTensor.loadEncoder returned no handle")
	}
	return &jsEncoder{handle: handle}, nil
}

// LoadDecoder mirrors LoadEncoder for the decoder half (Whisper's decoder or
// the translator's causal LM, depending on which weights are passed).
func (e *Engine) LoadDecoder(weights []byte) (tensor.Decoder, error) {
	handle := e.host.Call("loadDecoder", bytesToJS(weights))
	if handle.IsUndefined() || handle.IsNull() {
		return nil, apperrors.ModelLoad("anuvadTensor.loadDecoder returned no handle")
	}
	return &jsDecoder{handle: handle}, nil
}

type jsEncoder struct {
	handle js.Value
}

func (e *jsEncoder) Encode(ctx context.Context, mel []float32, numMelBins, numFrames int) ([]float32, error) {
	result := e.handle.Call("encode", floatsToJS(mel), numMelBins, numFrames)
	if result.IsUndefined() || result.IsNull() {
		return nil, apperrors.Inference("anuvadTensor encoder returned no result")
	}
	return jsToFloats(result), nil
}

func (e *jsEncoder) Close() error {
	e.handle.Call("close")
	return nil
}

type jsDecoder struct {
	handle js.Value
}

func (d *jsDecoder) Step(ctx context.Context, hidden []float32, tokens []int) ([]float32, error) {
	var hiddenArg js.Value
	if hidden == nil {
		hiddenArg = js.Null()
	} else {
		hiddenArg = floatsToJS(hidden)
	}
	result := d.handle.Call("step", hiddenArg, intsToJS(tokens))
	if result.IsUndefined() || result.IsNull() {
		return nil, apperrors.Inference("anuvadTensor decoder returned no result")
	}
	return jsToFloats(result), nil
}

func (d *jsDecoder) Close() error {
	d.handle.Call("close")
	return nil
}
