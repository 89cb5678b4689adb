package normalize

import (
	"fmt"
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// Normalize runs the full Text Normalizer pipeline over a chapter's raw
// HTML:
//
//  1. strip HTML to plain text, block elements contributing newline
//     boundaries;
//  2. normalize to NFC so decomposed accents from the source markup don't
//     reach the TTS adapter as separate combining runes;
//  3. drop superscript/bracketed footnote references, if enabled;
//  4. apply the ordered search/replace rules;
//  5. collapse newline runs per NewlineMode;
//  6. collapse whitespace runs to a single space and trim.
func Normalize(htmlBytes []byte, cfg Config) (string, error) {
	text, err := stripHTML(htmlBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNormalizationFailed, err)
	}
	text = norm.NFC.String(text)

	if cfg.ApplyFootnoteCleanup {
		text = cleanupFootnotes(text)
	}

	text, err = applySearchReplaceRules(text, cfg.SearchReplaceRules)
	if err != nil {
		return "", err
	}

	breakString := cfg.BreakString
	if breakString == "" {
		breakString = "\n\n"
	}
	text = applyNewlineMode(text, cfg.NewlineMode, breakString)

	return collapseWhitespace(text), nil
}

func applySearchReplaceRules(text string, rules []Rule) (string, error) {
	for _, rule := range rules {
		pattern := rule.Pattern
		if rule.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return "", fmt.Errorf("%w: invalid pattern %q: %v", ErrNormalizationFailed, rule.Pattern, err)
		}
		text = re.ReplaceAllString(text, rule.Replacement)
	}
	return text, nil
}
