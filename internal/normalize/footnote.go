package normalize

import "regexp"

// superscriptRefPattern matches a short numeric run (1-3 digits) that
// immediately follows a punctuation or end-quote character, with at most
// one intervening space and no intervening word character — a superscript
// footnote reference rendered as plain digits, e.g. "end.12" or
// "end. 12 And". Only the digits are dropped; the surrounding whitespace
// is cleaned up later by the whitespace-collapse stage.
var superscriptRefPattern = regexp.MustCompile(`([.!?;:,'"\x{2019}\x{201D}]\s?)(\d{1,3})\b`)

// bracketedRefPattern matches bracketed numeric references like "[3]" or
// "[3.1]".
var bracketedRefPattern = regexp.MustCompile(`\[\d+(\.\d+)*\]`)

// cleanupFootnotes strips superscript-style and bracketed numeric
// references from text, applied only when Config.ApplyFootnoteCleanup is
// set. Bracketed references go first: the superscript pass would otherwise
// eat the ".1" inside "[3.1]" and leave "[3.]" behind.
func cleanupFootnotes(text string) string {
	text = bracketedRefPattern.ReplaceAllString(text, "")
	text = superscriptRefPattern.ReplaceAllString(text, "$1")
	return text
}
