package epub

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Book is the immutable result of parsing an EPUB archive: title/author/cover
// metadata plus the spine-ordered chapter list.
type Book struct {
	Title    string
	Author   string
	Cover    []byte // optional; nil if no cover was found or it failed to load
	Chapters []Chapter
}

// Chapter is one spine-ordered content document. HTML is the raw XHTML bytes
// for the Text Normalizer; StartTime/OutputArtifact are populated later by
// the Audio Assembler.
type Chapter struct {
	Index          int
	Title          string
	HTML           []byte
	SourcePath     string
	StartTime      float64
	OutputArtifact string
}

// Load opens path as an EPUB archive and produces a Book: metadata, cover,
// and spine-ordered chapters with titles resolved via the nav/NCX priority
// order. The returned error is always one of the sentinel errors in
// errors.go.
func Load(path string) (*Book, error) {
	reader, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	opfContent, err := reader.ReadFile(reader.OPFPath())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingOPF, err)
	}

	opfDir := filepath.ToSlash(filepath.Dir(reader.OPFPath()))
	if opfDir == "." {
		opfDir = ""
	}

	opf, err := ParseOPF(opfContent, opfDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingOPF, err)
	}

	titles := chapterTitleMap(reader, opf)

	chapters, err := buildSpineChapters(reader, opf, titles)
	if err != nil {
		return nil, err
	}
	if len(chapters) == 0 {
		return nil, ErrEmptySpine
	}

	book := &Book{
		Title:    resolveTitle(opf, path),
		Author:   resolveAuthor(opf),
		Chapters: chapters,
	}

	if cover := opf.DetectCover(); cover != nil {
		if data, err := reader.ReadFile(cover.Href); err == nil {
			book.Cover = data
		}
		// A missing/unreadable cover file is not a failure; Book.Cover simply
		// stays nil.
	}

	return book, nil
}

// resolveTitle returns the first dc:title, defaulted to the input file's stem.
func resolveTitle(opf *OPF, path string) string {
	if t := strings.TrimSpace(opf.Metadata.Title); t != "" {
		return t
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// resolveAuthor returns the first dc:creator, defaulted to "Unknown".
func resolveAuthor(opf *OPF) string {
	for _, c := range opf.Metadata.Creators {
		if name := strings.TrimSpace(c.Name); name != "" {
			return name
		}
	}
	return "Unknown"
}

// buildSpineChapters walks the spine in reading order, skipping itemrefs
// whose manifest entry is not an HTML/XHTML media type, and resolves each
// chapter's title via the priority list built by chapterTitleMap, falling
// back to the href basename or "Chapter <n>".
func buildSpineChapters(reader *EPUBReader, opf *OPF, titles map[string]string) ([]Chapter, error) {
	var chapters []Chapter

	for _, item := range opf.Spine {
		manifestItem, ok := opf.Manifest[item.IDRef]
		if !ok || !isHTMLMediaType(manifestItem.MediaType) {
			continue
		}

		html, err := reader.ReadFile(manifestItem.Href)
		if err != nil {
			return nil, fmt.Errorf("%w: chapter %s: %v", ErrEmptySpine, manifestItem.Href, err)
		}

		index := len(chapters)
		title := titles[manifestItem.Href]
		if title == "" {
			title = fallbackTitle(manifestItem.Href, index)
		}

		chapters = append(chapters, Chapter{
			Index:      index,
			Title:      title,
			HTML:       html,
			SourcePath: manifestItem.Href,
		})
	}

	return chapters, nil
}

func isHTMLMediaType(mediaType string) bool {
	mediaType = strings.ToLower(mediaType)
	return mediaType == "application/xhtml+xml" || mediaType == "text/html"
}

// fallbackTitle derives a title from an href's base filename with dashes
// replaced by spaces, or "Chapter <index+1>" if that yields nothing usable.
func fallbackTitle(href string, index int) string {
	base := filepath.Base(href)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "-", " ")
	base = strings.TrimSpace(base)
	if base == "" {
		return fmt.Sprintf("Chapter %d", index+1)
	}
	return base
}

// chapterTitleMap builds an href -> displayed-title mapping using, in
// priority order, the EPUB3 navigation document, then the NCX document.
// Returns an empty map if neither is present or parseable; callers fall
// back to fallbackTitle per chapter.
func chapterTitleMap(reader *EPUBReader, opf *OPF) map[string]string {
	ncx, err := LoadNCX(reader, opf)
	if err != nil || ncx == nil {
		return map[string]string{}
	}

	titles := make(map[string]string)
	flattenNavTitles(ncx.NavPoints, titles)
	return titles
}

func flattenNavTitles(points []NavPoint, out map[string]string) {
	for _, np := range points {
		if np.ContentPath != "" {
			label := strings.TrimSpace(np.Label)
			if label != "" {
				if _, exists := out[np.ContentPath]; !exists {
					out[np.ContentPath] = label
				}
			}
		}
		flattenNavTitles(np.Children, out)
	}
}
