// Package session implements the Conversion Orchestrator: the state
// machine driving the EPUB Reader, Text Normalizer, Synthesis Scheduler,
// and Audio Assembler across one conversion run, plus the
// ConversionSession artifact that tracks its progress and cancellation
// flag.
package session

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid"
)

// State is one node of the orchestrator's state machine.
type State string

const (
	StateIdle         State = "idle"
	StateParsing      State = "parsing"
	StateNormalizing  State = "normalizing"
	StateSynthesizing State = "synthesizing"
	StateAssembling   State = "assembling"
	StateComplete     State = "complete"
	StateCancelled    State = "cancelled"
	StateFailed       State = "failed"
)

// ConversionSession is the per-run artifact: a unique ID, its session
// folder, a cooperative cancellation flag, progress fraction, current
// stage status, and an ordered log. Safe for concurrent use: the
// scheduler's workers and the orchestrator's main goroutine both touch it.
type ConversionSession struct {
	ID         string
	Dir        string
	cancelled  atomic.Bool
	mu         sync.Mutex
	state      State
	fraction   float64
	statusText string
	log        []string
}

// New creates a session folder under outputRoot named "conversion_<UUID>"
// and returns its ConversionSession handle.
func New(outputRoot string) (*ConversionSession, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(outputRoot, "conversion_"+id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ConversionSession{ID: id.String(), Dir: dir, state: StateIdle}, nil
}

// Cancel sets the cancellation flag. Idempotent.
func (s *ConversionSession) Cancel() { s.cancelled.Store(true) }

// Cancelled reports whether Cancel has been called. Passed as the
// cancellation predicate to the scheduler and assembler.
func (s *ConversionSession) Cancelled() bool { return s.cancelled.Load() }

// SetState transitions the session to a new state and records a status
// line in the log: each state transition emits textual status.
func (s *ConversionSession) SetState(state State, statusText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.statusText = statusText
	s.log = append(s.log, string(state)+": "+statusText)
}

// SetProgress updates the progress fraction reported to observers.
func (s *ConversionSession) SetProgress(fraction float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fraction = fraction
}

// Logf appends a line to the session log without changing state, used for
// per-chapter status and non-fatal warnings.
func (s *ConversionSession) Logf(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, line)
}

// Snapshot returns the current Progress value.
func (s *ConversionSession) Snapshot() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]string, len(s.log))
	copy(entries, s.log)
	return Progress{
		Fraction:   s.fraction,
		StatusText: s.statusText,
		LogEntries: entries,
		State:      s.state,
	}
}

// Cleanup removes the session folder. Only called on explicit user
// request; a session is never removed implicitly.
func (s *ConversionSession) Cleanup() error {
	return os.RemoveAll(s.Dir)
}
