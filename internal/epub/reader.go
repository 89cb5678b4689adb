package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// EPUBReader provides random-access reads of ZIP-packed EPUB entries and
// resolves the package (OPF) location from META-INF/container.xml.
type EPUBReader struct {
	zipReader *zip.ReadCloser
	files     map[string]*zip.File
	opfPath   string
}

// container.xml structure
type containerXML struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// Open opens an EPUB file and resolves its package document location.
// Failures are the sentinel errors in errors.go: ErrInvalidArchive if the
// ZIP structure itself is unreadable, ErrMissingContainer if
// META-INF/container.xml is absent, ErrMissingOPF if no full-path
// attribute can be resolved from it.
func Open(path string) (*EPUBReader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, path, err)
	}

	reader := &EPUBReader{
		zipReader: zr,
		files:     make(map[string]*zip.File),
	}

	for _, f := range zr.File {
		reader.files[normalizePath(f.Name)] = f
	}

	if err := reader.resolveOPFPath(); err != nil {
		zr.Close()
		return nil, err
	}

	return reader, nil
}

// Close closes the underlying archive handle.
func (r *EPUBReader) Close() error {
	return r.zipReader.Close()
}

// OPFPath returns the resolved path to the package document.
func (r *EPUBReader) OPFPath() string {
	return r.opfPath
}

// Files returns the normalized-path -> zip.File index of every archive entry.
func (r *EPUBReader) Files() map[string]*zip.File {
	return r.files
}

// ReadFile reads the contents of a single archive entry.
func (r *EPUBReader) ReadFile(path string) ([]byte, error) {
	path = normalizePath(path)
	f, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// resolveOPFPath parses container.xml and records the first rootfile's
// full-path attribute.
func (r *EPUBReader) resolveOPFPath() error {
	content, err := r.ReadFile("META-INF/container.xml")
	if err != nil {
		return fmt.Errorf("%w", ErrMissingContainer)
	}

	var c containerXML
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("%w: malformed container.xml: %v", ErrMissingContainer, err)
	}

	if len(c.Rootfiles.Rootfile) == 0 {
		return fmt.Errorf("%w: no <rootfile> element", ErrMissingOPF)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.FullPath == "" {
			continue
		}
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			r.opfPath = normalizePath(rf.FullPath)
			return nil
		}
	}

	first := c.Rootfiles.Rootfile[0]
	if first.FullPath == "" {
		return fmt.Errorf("%w: rootfile missing full-path attribute", ErrMissingOPF)
	}
	r.opfPath = normalizePath(first.FullPath)
	return nil
}

// normalizePath strips a leading "./" so archive lookups are consistent
// regardless of how a particular EPUB packer wrote its entry names.
func normalizePath(path string) string {
	return strings.TrimPrefix(path, "./")
}
