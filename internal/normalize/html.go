package normalize

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockBoundaryTags are the elements that contribute a newline boundary
// when extracting text; everything else is inline.
var blockBoundaryTags = map[string]bool{
	"p": true, "div": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// stripHTML removes <script>/<style> contents entirely and extracts text
// from the remaining elements, with block-level elements contributing a
// newline boundary and inline elements contributing none.
func stripHTML(htmlBytes []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return "", err
	}

	doc.Find("script, style").Remove()

	var buf strings.Builder
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		for _, n := range body.Nodes {
			walkText(n, &buf)
		}
	})

	// No <body> (fragment-only input): fall back to the whole document.
	if buf.Len() == 0 {
		for _, n := range doc.Nodes {
			walkText(n, &buf)
		}
	}

	return strings.TrimSpace(buf.String()), nil
}

func walkText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			// Pure formatting whitespace in the markup source (indentation
			// between block tags) carries no meaning; block elements supply
			// their own boundary newlines. A whitespace run with no newline
			// is meaningful inline spacing (e.g. between two <span>s).
			if strings.Contains(n.Data, "\n") {
				return
			}
			buf.WriteByte(' ')
			return
		}
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if tag == "br" {
			buf.WriteByte('\n')
			return
		}
		isBlock := blockBoundaryTags[tag]
		if isBlock {
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkText(c, buf)
		}
		if isBlock {
			buf.WriteByte('\n')
		}
		return
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkText(c, buf)
		}
	}
}
