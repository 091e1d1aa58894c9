package bridge

// Worker script file names at the deployment root (spec §6 "Worker script
// naming").
const (
	WhisperWorkerScript    = "whisper_worker.js"
	TranslatorWorkerScript = "translator_worker.js"
)

// ScriptURLResolver maps a worker script's relative file name to the
// absolute URL a module-type Worker should be constructed with. The wasm
// build's implementation (pkg/bridge/extension_js.go, js-tagged) asks the
// host "do you expose chrome.runtime.getURL?" via HasExtensionAPI and
// branches on the answer; the host build below never runs inside an
// extension, so it always takes the page-relative path.
type ScriptURLResolver interface {
	ResolveWorkerScriptURL(fileName string) string
}

// DocumentRelativeResolver resolves worker script URLs relative to a base
// document URL, the non-extension branch of spec §4.G's resolution rule.
type DocumentRelativeResolver struct {
	BaseURL string
}

// ResolveWorkerScriptURL joins fileName onto BaseURL.
func (r DocumentRelativeResolver) ResolveWorkerScriptURL(fileName string) string {
	if r.BaseURL == "" {
		return fileName
	}
	if r.BaseURL[len(r.BaseURL)-1] == '/' {
		return r.BaseURL + fileName
	}
	return r.BaseURL + "/" + fileName
}
