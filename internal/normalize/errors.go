package normalize

import "errors"

// ErrNormalizationFailed wraps an invalid searchReplaceRules pattern or an
// unparseable chapter document: fatal, aborts the conversion run.
var ErrNormalizationFailed = errors.New("normalization failed")
