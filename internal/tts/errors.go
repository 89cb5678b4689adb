package tts

import (
	"errors"
	"fmt"
)

// ErrTokenLimitExceeded is raised when the input text exceeds the
// underlying synthesis model's context window. The scheduler recovers from
// it locally by bisection; it never reaches the orchestrator.
var ErrTokenLimitExceeded = errors.New("token limit exceeded")

// SynthesisFailedError wraps any other adapter failure. Fatal: it aborts
// the conversion run with the session folder preserved for diagnostics.
type SynthesisFailedError struct {
	Msg string
	Err error
}

func (e *SynthesisFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesis failed: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("synthesis failed: %s", e.Msg)
}

func (e *SynthesisFailedError) Unwrap() error { return e.Err }

func NewSynthesisFailed(msg string, err error) *SynthesisFailedError {
	return &SynthesisFailedError{Msg: msg, Err: err}
}
