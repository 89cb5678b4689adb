package epub

import "errors"

// Sentinel errors for the EPUB Reader's failure taxonomy. All are fatal:
// the caller aborts the conversion run on any of them.
var (
	ErrInvalidArchive   = errors.New("invalid archive: not a readable ZIP/EPUB container")
	ErrMissingContainer = errors.New("missing META-INF/container.xml")
	ErrMissingOPF       = errors.New("missing OPF package document")
	ErrEmptySpine       = errors.New("spine contains no HTML/XHTML content documents")
	ErrFileNotFound     = errors.New("file not found in archive")
)
