//go:build js && wasm

package bridge

import "syscall/js"

// ExtensionResolver resolves worker script URLs through the extension
// runtime's URL-resolution API (chrome.runtime.getURL or equivalent) when
// running as a browser extension, mirroring
// crates/anuvad-app/src/workers/bridge.rs::worker_script_url.
type ExtensionResolver struct {
	fallback ScriptURLResolver
}

// NewExtensionAwareResolver probes the host for an extension runtime API
// and returns a resolver that uses it when present, falling back to a
// document-relative resolver otherwise (spec §9 "Chrome/extension
// detection is a runtime capability probe").
func NewExtensionAwareResolver(fallback ScriptURLResolver) ScriptURLResolver {
	if HasExtensionAPI() {
		return ExtensionResolver{fallback: fallback}
	}
	return fallback
}

// HasExtensionAPI reports whether the host page exposes a
// chrome.runtime.getURL-style extension API.
func HasExtensionAPI() bool {
	runtime := js.Global().Get("chrome").Get("runtime")
	if runtime.IsUndefined() || runtime.IsNull() {
		return false
	}
	getURL := runtime.Get("getURL")
	return getURL.Type() == js.TypeFunction
}

// ResolveWorkerScriptURL maps fileName into the extension's origin via
// chrome.runtime.getURL.
func (r ExtensionResolver) ResolveWorkerScriptURL(fileName string) string {
	runtime := js.Global().Get("chrome").Get("runtime")
	if runtime.IsUndefined() {
		return r.fallback.ResolveWorkerScriptURL(fileName)
	}
	result := runtime.Call("getURL", fileName)
	if result.Type() != js.TypeString {
		return r.fallback.ResolveWorkerScriptURL(fileName)
	}
	return result.String()
}
