// Package apperrors defines the error kinds surfaced to the UI layer (spec §7):
// AssetError, PermissionError, CaptureError, ModelLoadError, InferenceError,
// and ProtocolError. Every subsystem wraps its failures in one of these so the
// bridge can route a single reactive error_message field without inspecting
// each package's sentinel errors individually.
package apperrors

import "fmt"

// Kind identifies which of the six error categories an Error belongs to.
type Kind string

const (
	KindAsset      Kind = "AssetError"
	KindPermission Kind = "PermissionError"
	KindCapture    Kind = "CaptureError"
	KindModelLoad  Kind = "ModelLoadError"
	KindInference  Kind = "InferenceError"
	KindProtocol   Kind = "ProtocolError"
)

// Error is a structured, user-facing failure. Message is the text shown in
// the error banner; Detail carries extra context (a URL, an HTTP status, a
// shape mismatch) that Error() appends in parentheses after Message; it is
// kept separately so callers can match on Kind without parsing strings.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, detail string, message string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(message, args...), Detail: detail}
}

// Asset builds an AssetError; detail typically carries the failing URL and
// HTTP status or cache subsystem message.
func Asset(detail string, message string, args ...any) *Error {
	return newErr(KindAsset, detail, message, args...)
}

// Permission builds a PermissionError for microphone/tab-capture/display-media denial.
func Permission(message string, args ...any) *Error {
	return newErr(KindPermission, "", message, args...)
}

// Capture builds a CaptureError for audio-graph construction failures.
func Capture(message string, args ...any) *Error {
	return newErr(KindCapture, "", message, args...)
}

// ModelLoad builds a ModelLoadError for tokenizer/safetensors/GGUF parse or shape failures.
func ModelLoad(message string, args ...any) *Error {
	return newErr(KindModelLoad, "", message, args...)
}

// Inference builds an InferenceError for encoder/decoder/forward/argmax failures at runtime.
func Inference(message string, args ...any) *Error {
	return newErr(KindInference, "", message, args...)
}

// Protocol builds a ProtocolError for an unexpected bridge message shape.
// Per spec §7 these are ignored by the bridge rather than propagated to the UI.
func Protocol(message string, args ...any) *Error {
	return newErr(KindProtocol, "", message, args...)
}

// Wrap attaches an underlying error to an Error built by one of the
// constructors above, preserving errors.Is/As compatibility via Unwrap.
func Wrap(e *Error, err error) *Error {
	e.Err = err
	return e
}
