package appstate

import "testing"

func TestSignalNotifiesSubscribers(t *testing.T) {
	s := NewSignal(0)
	var got int
	unsub := s.Subscribe(func(v int) { got = v })

	s.Set(42)
	if got != 42 {
		t.Fatalf("expected subscriber to observe 42, got %d", got)
	}

	unsub()
	s.Set(7)
	if got != 42 {
		t.Fatalf("expected unsubscribed callback to not fire, got %d", got)
	}
}

func TestNewStateDefaults(t *testing.T) {
	st := New()
	if st.WhisperStatus.Get() != ModelNotLoaded {
		t.Fatalf("expected WhisperStatus NotLoaded, got %v", st.WhisperStatus.Get())
	}
	if st.Recording.Get() != RecordingIdle {
		t.Fatalf("expected Recording Idle, got %v", st.Recording.Get())
	}
	if st.SourceLanguage.Get() != "auto" {
		t.Fatalf("expected source language auto, got %v", st.SourceLanguage.Get())
	}
	if st.AudioSourceSel.Get() != SourceMicrophone {
		t.Fatalf("expected default source Microphone, got %v", st.AudioSourceSel.Get())
	}
}

func TestHandleSpaceKeyTogglesOnlyWhenReadyAndNotFocused(t *testing.T) {
	st := New()

	if got := st.HandleSpaceKey(false); got != RecordingIdle {
		t.Fatalf("expected no toggle while model not ready, got %v", got)
	}

	st.WhisperStatus.Set(ModelReady)

	if got := st.HandleSpaceKey(true); got != RecordingIdle {
		t.Fatalf("expected no toggle while focused on input, got %v", got)
	}

	if got := st.HandleSpaceKey(false); got != RecordingInFlight {
		t.Fatalf("expected toggle to Recording, got %v", got)
	}
	if got := st.HandleSpaceKey(false); got != RecordingIdle {
		t.Fatalf("expected toggle back to Idle, got %v", got)
	}
}

func TestClearError(t *testing.T) {
	st := New()
	st.ErrorMessage.Set("boom")
	st.ClearError()
	if st.ErrorMessage.Get() != "" {
		t.Fatalf("expected cleared error, got %q", st.ErrorMessage.Get())
	}
}
