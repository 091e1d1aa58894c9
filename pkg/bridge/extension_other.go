//go:build !(js && wasm)

package bridge

// HasExtensionAPI is always false on host builds; anuvadctl never runs
// inside a browser extension context.
func HasExtensionAPI() bool { return false }

// NewExtensionAwareResolver always returns fallback on host builds.
func NewExtensionAwareResolver(fallback ScriptURLResolver) ScriptURLResolver {
	return fallback
}
