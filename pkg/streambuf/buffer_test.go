package streambuf

import "testing"

func TestEmptyBuffer(t *testing.T) {
	b := New()
	if chunk := b.GetChunk(); len(chunk) != 0 {
		t.Fatalf("expected empty chunk, got %d samples", len(chunk))
	}
	if got := b.DurationSeconds(); got != 0.0 {
		t.Fatalf("expected duration 0.0, got %v", got)
	}
}

func TestThreeSecondTrigger(t *testing.T) {
	b := New()
	b.Push(make([]float32, 48000))

	if !b.ShouldTranscribe() {
		t.Fatal("expected should_transcribe to be true after 48000 samples")
	}

	chunk := b.GetChunk()
	if len(chunk) != 48000 {
		t.Fatalf("expected chunk of 48000 samples, got %d", len(chunk))
	}
	if b.lastInferencePos != 48000 {
		t.Fatalf("expected marker at 48000, got %d", b.lastInferencePos)
	}
}

func TestOverflowDropsOldestAndDecaysMarker(t *testing.T) {
	b := New()
	b.Push(make([]float32, 480000))
	b.lastInferencePos = 400000

	b.Push(make([]float32, 16000))

	if b.Len() != 480000 {
		t.Fatalf("expected length to stay at capacity 480000, got %d", b.Len())
	}
	if b.lastInferencePos != 384000 {
		t.Fatalf("expected marker to decay to 384000, got %d", b.lastInferencePos)
	}
}

func TestPushLengthInvariant(t *testing.T) {
	b := New()
	for _, n := range []int{1000, 500000, 200000} {
		prevLen := b.Len()
		b.Push(make([]float32, n))
		want := prevLen + n
		if want > 480000 {
			want = 480000
		}
		if b.Len() != want {
			t.Fatalf("push %d: expected length %d, got %d", n, want, b.Len())
		}
		if b.lastInferencePos > b.Len() {
			t.Fatalf("marker %d exceeds length %d", b.lastInferencePos, b.Len())
		}
	}
}

func TestClear(t *testing.T) {
	b := New()
	b.Push(make([]float32, 100000))
	b.GetChunk()
	b.Clear()

	if b.Len() != 0 || b.lastInferencePos != 0 {
		t.Fatalf("expected buffer reset, got len=%d pos=%d", b.Len(), b.lastInferencePos)
	}
}

func TestGetChunkBelowThresholdReturnsEmpty(t *testing.T) {
	b := New()
	b.Push(make([]float32, 1000))
	if chunk := b.GetChunk(); chunk != nil {
		t.Fatalf("expected nil chunk below threshold, got %d samples", len(chunk))
	}
}
