package normalize

import (
	"errors"
	"testing"
)

func TestNormalize_FootnoteCleanup(t *testing.T) {
	html := []byte(`<p>See this. 12 And also [3.1] end.</p>`)
	cfg := Config{
		NewlineMode:          NewlineDouble,
		BreakString:          "|",
		ApplyFootnoteCleanup: true,
	}
	got, err := Normalize(html, cfg)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	want := "See this. And also end."
	if got != want {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}

func TestApplyNewlineMode(t *testing.T) {
	input := "a\n\nb\nc"

	cases := []struct {
		mode NewlineMode
		want string
	}{
		{NewlineSingle, "a|b|c"},
		{NewlineDouble, "a|b c"},
		{NewlineNone, "a  b c"},
	}

	for _, tc := range cases {
		got := applyNewlineMode(input, tc.mode, "|")
		if got != tc.want {
			t.Errorf("applyNewlineMode(%s) = %q, want %q", tc.mode, got, tc.want)
		}
	}
}

func TestNormalize_NewlineModeIntegration(t *testing.T) {
	html := []byte(`<p>a</p><p>b<br/>c</p>`)

	cases := []struct {
		mode NewlineMode
		want string
	}{
		{NewlineSingle, "a|b|c"},
		{NewlineDouble, "a|b c"},
		{NewlineNone, "a b c"},
	}

	for _, tc := range cases {
		cfg := Config{NewlineMode: tc.mode, BreakString: "|"}
		got, err := Normalize(html, cfg)
		if err != nil {
			t.Fatalf("Normalize(%s) returned error: %v", tc.mode, err)
		}
		if got != tc.want {
			t.Errorf("Normalize(%s) = %q, want %q", tc.mode, got, tc.want)
		}
	}
}

func TestNormalize_SearchReplaceRules(t *testing.T) {
	html := []byte(`<p>Hello World</p>`)
	cfg := Config{
		NewlineMode: NewlineNone,
		SearchReplaceRules: []Rule{
			{Pattern: "world", Replacement: "Go", CaseInsensitive: true},
		},
	}
	got, err := Normalize(html, cfg)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if got != "Hello Go" {
		t.Errorf("Normalize() = %q, want %q", got, "Hello Go")
	}
}

func TestNormalize_InvalidRulePattern(t *testing.T) {
	html := []byte(`<p>text</p>`)
	cfg := Config{
		NewlineMode: NewlineNone,
		SearchReplaceRules: []Rule{
			{Pattern: "(unclosed", Replacement: ""},
		},
	}
	_, err := Normalize(html, cfg)
	if !errors.Is(err, ErrNormalizationFailed) {
		t.Fatalf("Normalize() error = %v, want ErrNormalizationFailed", err)
	}
}

func TestNormalize_BlockAndInlineBoundaries(t *testing.T) {
	html := []byte(`<div><span>foo</span> <em>bar</em></div><p>baz</p>`)
	cfg := Config{NewlineMode: NewlineDouble, BreakString: "|"}
	got, err := Normalize(html, cfg)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if got != "foo bar|baz" {
		t.Errorf("Normalize() = %q, want %q", got, "foo bar|baz")
	}
}

func TestExtractTitle_TagText_PrefersTitleTagOverHeadings(t *testing.T) {
	html := []byte(`<html><head><title>Front Matter</title></head><body><h1>Chapter One: Beginnings</h1></body></html>`)
	got := ExtractTitle(html, "Body text here.", TitleTagText)
	want := "Front Matter"
	if got != want {
		t.Errorf("ExtractTitle() = %q, want %q", got, want)
	}
}

func TestExtractTitle_TagText_FallsBackToH1(t *testing.T) {
	html := []byte(`<h1>Chapter One: Beginnings</h1><p>Body text here.</p>`)
	got := ExtractTitle(html, "Body text here.", TitleTagText)
	want := "Chapter One Beginnings"
	if got != want {
		t.Errorf("ExtractTitle() = %q, want %q", got, want)
	}
}

func TestExtractTitle_TagText_IgnoresH4(t *testing.T) {
	// Spec only names h1-h3; h4 must not be treated as a title candidate.
	normalized := "The quick brown fox jumps over the lazy dog in the warm afternoon sun today and every day after that too, without fail, across many more than sixty characters of prose."
	html := []byte(`<h4>Not a title candidate</h4><p>` + normalized + `</p>`)
	got := ExtractTitle(html, normalized, TitleAuto)
	want := string([]rune(normalized)[:60])
	if got != want {
		t.Errorf("ExtractTitle() = %q, want %q", got, want)
	}
}

func TestExtractTitle_FirstFew_First60CharsOfNormalizedText(t *testing.T) {
	normalized := "The quick brown fox jumps over the lazy dog again and again and again."
	got := ExtractTitle([]byte(`<p>irrelevant</p>`), normalized, TitleFirstFew)
	// The 60th character is a space, which title sanitization trims.
	want := "The quick brown fox jumps over the lazy dog again and again"
	if got != want {
		t.Errorf("ExtractTitle() = %q, want %q", got, want)
	}
}

func TestExtractTitle_Auto_DigitsAndSpacesOnlyFallsBackToFirstFew(t *testing.T) {
	html := []byte(`<h1>  42  </h1>`)
	normalized := "The actual chapter body text starts right here instead."
	got := ExtractTitle(html, normalized, TitleAuto)
	want := "The actual chapter body text starts right here instead."
	if got != want {
		t.Errorf("ExtractTitle() = %q, want %q", got, want)
	}
}

func TestExtractTitle_EmptyUsesBlankPlaceholder(t *testing.T) {
	got := ExtractTitle([]byte(`<p></p>`), "", TitleAuto)
	if got != "<blank>" {
		t.Errorf("ExtractTitle() = %q, want %q", got, "<blank>")
	}
}

func TestExtractTitle_HostileCharactersReplacedWithSpaces(t *testing.T) {
	html := []byte(`<h1>Chapter 1: "The Start"?</h1>`)
	got := ExtractTitle(html, "", TitleTagText)
	want := `Chapter 1 The Start`
	if got != want {
		t.Errorf("ExtractTitle() = %q, want %q", got, want)
	}
}

func TestSanitizeForFilename(t *testing.T) {
	got := SanitizeForFilename(`Chapter 1: "The Start"?`)
	want := `Chapter 1 The Start`
	if got != want {
		t.Errorf("SanitizeForFilename() = %q, want %q", got, want)
	}
}
