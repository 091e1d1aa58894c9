package bridge

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := Message{Type: TypeTranscribe, Audio: []float32{0.1, 0.2, 0.3}, ID: NewID()}
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if decoded.Type != TypeTranscribe || len(decoded.Audio) != 3 {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestKnownTypeRejectsUnrecognized(t *testing.T) {
	if KnownType("NotARealVariant") {
		t.Fatal("expected unknown variant to report false")
	}
	if !KnownType(TypeProgress) {
		t.Fatal("expected Progress to be known")
	}
}

func TestChannelWorkerProcessesSequentially(t *testing.T) {
	var mu sync.Mutex
	var order []string

	handler := func(ctx context.Context, msg Message, emit func(Message)) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		order = append(order, msg.Text)
		mu.Unlock()
	}

	w := NewChannelWorker(handler, func(Message) {})
	for _, text := range []string{"a", "b", "c"} {
		w.Post(Message{Type: TypeTranscribe, Text: text})
	}
	w.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("expected sequential in-order processing, got %v", order)
	}
}

func TestChannelWorkerEmitsReplies(t *testing.T) {
	received := make(chan Message, 4)
	handler := func(ctx context.Context, msg Message, emit func(Message)) {
		emit(Message{Type: TypeModelLoaded})
	}
	w := NewChannelWorker(handler, func(m Message) { received <- m })
	w.Post(Message{Type: TypeLoadModel})

	select {
	case m := <-received:
		if m.Type != TypeModelLoaded {
			t.Fatalf("expected ModelLoaded, got %v", m.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}
	w.Close()
}

func TestDocumentRelativeResolver(t *testing.T) {
	r := DocumentRelativeResolver{BaseURL: "https://example.com/app"}
	if got := r.ResolveWorkerScriptURL(WhisperWorkerScript); got != "https://example.com/app/whisper_worker.js" {
		t.Fatalf("unexpected resolved URL: %q", got)
	}

	empty := DocumentRelativeResolver{}
	if got := empty.ResolveWorkerScriptURL(TranslatorWorkerScript); got != TranslatorWorkerScript {
		t.Fatalf("expected passthrough for empty base, got %q", got)
	}
}
