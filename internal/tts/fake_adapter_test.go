package tts

import (
	"context"
	"errors"
	"testing"
)

func TestFakeAdapter_SynthesizeUnderLimit(t *testing.T) {
	a := NewFakeAdapter()
	bufs, err := a.Synthesize(context.Background(), "short text", "fake-voice", "en")
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(bufs) != 1 {
		t.Fatalf("expected 1 buffer, got %d", len(bufs))
	}
	if bufs[0].Frames != len([]rune("short text")) {
		t.Errorf("Frames = %d, want %d", bufs[0].Frames, len([]rune("short text")))
	}
}

func TestFakeAdapter_TokenLimitExceeded(t *testing.T) {
	a := NewFakeAdapter()
	long := "Sentence one. Sentence two? Sentence three!"
	_, err := a.Synthesize(context.Background(), long, "fake-voice", "en")
	if !errors.Is(err, ErrTokenLimitExceeded) {
		t.Fatalf("Synthesize error = %v, want ErrTokenLimitExceeded", err)
	}
}

func TestFakeAdapter_VoicesFormatStable(t *testing.T) {
	a := NewFakeAdapter()
	voices, err := a.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices returned error: %v", err)
	}
	if len(voices) != 1 || voices[0].Format.SampleRate != 24000 {
		t.Fatalf("unexpected voices: %+v", voices)
	}
}
