package tts

import (
	"context"

	"github.com/yuanying/epub2audiobook/internal/pcm"
)

// FakeAdapter is a deterministic test double: one float32 frame per rune of
// input at a fixed sample rate, raising ErrTokenLimitExceeded whenever the
// input is at least TokenLimit characters long. Safe to construct fresh per
// worker like any other Adapter; holds no shared state across Synthesize
// calls.
type FakeAdapter struct {
	TokenLimit int
	SampleRate int
	Format     pcm.Format
}

// NewFakeAdapter returns a FakeAdapter with a 24kHz mono float32 target
// format and a 30-character token limit.
func NewFakeAdapter() *FakeAdapter {
	format := pcm.Format{SampleRate: 24000, Channels: 1, Sample: pcm.Float32, Interleaved: true}
	return &FakeAdapter{TokenLimit: 30, SampleRate: 24000, Format: format}
}

func (a *FakeAdapter) Voices(ctx context.Context) ([]Voice, error) {
	return []Voice{{ID: "fake-voice", Language: "en", Format: a.Format}}, nil
}

func (a *FakeAdapter) Synthesize(ctx context.Context, text, voice, language string) ([]pcm.Buffer, error) {
	if a.TokenLimit > 0 && len([]rune(text)) >= a.TokenLimit {
		return nil, ErrTokenLimitExceeded
	}
	frames := len([]rune(text))
	if frames == 0 {
		frames = 1
	}
	samples := make([]float32, frames*a.Format.Channels)
	return []pcm.Buffer{pcm.NewFloat32(frames, a.Format, samples)}, nil
}
