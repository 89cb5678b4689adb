package scheduler

import "errors"

// ErrCancelled is returned when the cancellation flag was observed before
// all chapters completed: terminal, no partial results.
var ErrCancelled = errors.New("cancelled")
