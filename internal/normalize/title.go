package normalize

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// titlePriorityTags is the order §4.2's tagText/auto heuristics search:
// <title> outranks the headings, and only h1-h3 are considered.
var titlePriorityTags = []string{"title", "h1", "h2", "h3"}

// firstFewCharLimit bounds the "firstFew" heuristic to the first 60
// characters of the chapter's normalized text.
const firstFewCharLimit = 60

// blankTitlePlaceholder is returned, verbatim and exempt from the
// filesystem-hostile-character pass below, when neither heuristic yields
// any usable text.
const blankTitlePlaceholder = "<blank>"

var controlCharPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)
var digitsAndSpacesPattern = regexp.MustCompile(`^[0-9 ]+$`)

// ExtractTitle derives a chapter title from its source HTML and already
// normalized text using the configured heuristic:
//
//   - tagText: the sanitized text of the first of <title>, <h1>, <h2>, <h3>
//     with non-whitespace content.
//   - firstFew: the first 60 characters of normalizedText, sanitized.
//   - auto: tagText's candidate, falling back to firstFew when that
//     candidate is empty or consists only of digits and spaces.
//
// Every candidate is additionally sanitized by replacing filesystem-hostile
// characters with spaces, since titles become filename components. A
// candidate that is still empty after all of this becomes the literal
// placeholder "<blank>".
func ExtractTitle(htmlBytes []byte, normalizedText string, mode TitleMode) string {
	var candidate string
	switch mode {
	case TitleTagText:
		candidate = tagTextTitle(htmlBytes)
	case TitleFirstFew:
		candidate = firstFewTitle(normalizedText)
	default: // auto
		candidate = tagTextTitle(htmlBytes)
		if candidate == "" || digitsAndSpacesPattern.MatchString(candidate) {
			candidate = firstFewTitle(normalizedText)
		}
	}

	candidate = sanitizeFilenameChars(candidate)
	if candidate == "" {
		return blankTitlePlaceholder
	}
	return candidate
}

// tagTextTitle returns the sanitized text of the first of <title>, <h1>,
// <h2>, <h3> (in that priority order) with non-whitespace content, or ""
// if none is found.
func tagTextTitle(htmlBytes []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return ""
	}
	for _, tag := range titlePriorityTags {
		sel := doc.Find(tag).First()
		if sel.Length() == 0 {
			continue
		}
		if text := sanitizeTitleText(sel.Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstFewTitle returns the first firstFewCharLimit characters of
// normalizedText, sanitized.
func firstFewTitle(normalizedText string) string {
	runes := []rune(normalizedText)
	if len(runes) > firstFewCharLimit {
		runes = runes[:firstFewCharLimit]
	}
	return sanitizeTitleText(string(runes))
}

// sanitizeTitleText collapses whitespace and strips control characters, per
// §4.2's "sanitized (whitespace collapsed, control characters removed)".
func sanitizeTitleText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = controlCharPattern.ReplaceAllString(s, "")
	return collapseWhitespace(s)
}

var filenameHostilePattern = regexp.MustCompile(`[\\/:*?"<>|]`)

// sanitizeFilenameChars replaces filesystem-hostile characters with a space,
// then collapses and trims whitespace via collapseWhitespace.
func sanitizeFilenameChars(s string) string {
	s = filenameHostilePattern.ReplaceAllString(s, " ")
	return collapseWhitespace(s)
}

// SanitizeForFilename maps characters that are hostile to common filesystems
// to a space and trims surrounding whitespace/dots, for use as a filename
// component (e.g. "chapter_02_<title>.pcm" in the audio assembler, or the
// final container's name derived from the book title).
func SanitizeForFilename(title string) string {
	s := strings.Trim(sanitizeFilenameChars(title), ".")
	if s == "" {
		return "untitled"
	}
	return s
}
