package normalize

import (
	"regexp"
	"strings"
)

var newlineRunPattern = regexp.MustCompile(`\n{2,}`)

// applyNewlineMode collapses newline runs according to mode:
//   - single: any run of one or more newlines collapses to breakString.
//   - double: two-or-more-newline runs collapse to breakString; an
//     isolated single newline becomes a single space.
//   - none: every newline becomes a single space.
func applyNewlineMode(text string, mode NewlineMode, breakString string) string {
	switch mode {
	case NewlineSingle:
		return regexp.MustCompile(`\n+`).ReplaceAllString(text, breakString)
	case NewlineNone:
		return strings.ReplaceAll(text, "\n", " ")
	case NewlineDouble:
		return applyDoubleNewlineMode(text, breakString)
	default:
		return text
	}
}

// applyDoubleNewlineMode replaces runs of 2+ newlines with breakString while
// leaving breakString itself untouched, then replaces any remaining
// isolated single newlines with a space.
func applyDoubleNewlineMode(text, breakString string) string {
	matches := newlineRunPattern.FindAllStringIndex(text, -1)
	if matches == nil {
		return replaceIsolatedNewlines(text)
	}

	var buf strings.Builder
	last := 0
	for _, m := range matches {
		buf.WriteString(replaceIsolatedNewlines(text[last:m[0]]))
		buf.WriteString(breakString)
		last = m[1]
	}
	buf.WriteString(replaceIsolatedNewlines(text[last:]))
	return buf.String()
}

func replaceIsolatedNewlines(segment string) string {
	return strings.ReplaceAll(segment, "\n", " ")
}

// collapseWhitespace collapses runs of spaces, tabs, \r, \v and \f to a
// single space and trims the result. Newlines are not collapsed, so a
// breakString made of newlines survives; spaces or tabs inside breakString
// are collapsed like any other.
func collapseWhitespace(text string) string {
	var buf strings.Builder
	inRun := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\r' || r == '\v' || r == '\f' {
			if !inRun {
				buf.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		buf.WriteRune(r)
	}
	return strings.TrimSpace(buf.String())
}
