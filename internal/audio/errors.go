package audio

import "errors"

// ErrFormatConversionFailed is raised when converting a buffer to the
// target format fails. Non-fatal: the original buffer is used best-effort
// and the run continues, but the caller must log a warning.
var ErrFormatConversionFailed = errors.New("format conversion failed")

// ErrTranscodeFailed is raised when the external encoder fails to produce
// the final container. Fatal: the master PCM file is retained for
// diagnostics.
var ErrTranscodeFailed = errors.New("transcode failed")
