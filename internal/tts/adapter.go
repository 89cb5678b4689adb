// Package tts defines the uniform contract over the neural text-to-speech
// synthesizer: a stateless-per-worker Adapter producing PCM buffers for a
// chapter's normalized text, plus capability discovery of the voices and
// output formats it supports.
package tts

import (
	"context"

	"github.com/yuanying/epub2audiobook/internal/pcm"
)

// Voice describes one synthesizable voice and the canonical output format
// every buffer it produces will carry: consecutive calls for the same voice
// always yield buffers of identical format.
type Voice struct {
	ID       string
	Language string
	Format   pcm.Format
}

// Adapter is the capability set {enumerate, synthesize}. A concrete
// instance is owned by exactly one scheduler worker and must never be
// shared across workers: the model session it wraps is not safe for
// concurrent chapter synthesis.
type Adapter interface {
	// Voices returns the available voices and their canonical formats.
	Voices(ctx context.Context) ([]Voice, error)

	// Synthesize converts text to a sequence of PCM buffers using voice and
	// language. Returns ErrTokenLimitExceeded if text exceeds the model's
	// context; any other failure is returned as *SynthesisFailedError.
	Synthesize(ctx context.Context, text, voice, language string) ([]pcm.Buffer, error)
}

// Factory builds a fresh, unshared Adapter instance; the scheduler calls it
// once per chapter task, so no instance is shared between workers.
type Factory func() (Adapter, error)
