package scheduler

import (
	"context"
	"errors"
	"strings"

	"github.com/yuanying/epub2audiobook/internal/pcm"
	"github.com/yuanying/epub2audiobook/internal/tts"
)

// isBoundaryRune reports the characters splitText searches for near the
// midpoint of a chapter's text.
func isBoundaryRune(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}

// splitText bisects text at a sentence-or-line boundary near its midpoint:
// search left from the midpoint for a boundary character, then right, then
// fall back to a raw character-count midpoint. Either half empty after
// trimming forces a strict midpoint split with single-character minimums
// so every recursion strictly reduces the remaining input.
func splitText(text string) (left, right string) {
	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n <= 1 {
		return string(runes), ""
	}

	mid := n / 2
	splitIdx := -1
	for i := mid; i >= 0; i-- {
		if isBoundaryRune(runes[i]) {
			splitIdx = i + 1
			break
		}
	}
	if splitIdx == -1 {
		for i := mid; i < n; i++ {
			if isBoundaryRune(runes[i]) {
				splitIdx = i + 1
				break
			}
		}
	}
	if splitIdx == -1 {
		splitIdx = mid
	}

	left = strings.TrimSpace(string(runes[:splitIdx]))
	right = strings.TrimSpace(string(runes[splitIdx:]))
	if left == "" || right == "" {
		strictMid := n / 2
		if strictMid < 1 {
			strictMid = 1
		}
		if strictMid > n-1 {
			strictMid = n - 1
		}
		left = string(runes[:strictMid])
		right = string(runes[strictMid:])
	}
	return left, right
}

// synthesizeWithFallback synthesizes text, and on ErrTokenLimitExceeded
// bisects and recurses left then right, incrementing limitHits once per
// overflow observed. Cancellation is checked before each recursion level;
// a cancelled run returns ErrCancelled without partial buffers for this
// chapter.
func synthesizeWithFallback(
	ctx context.Context,
	adapter tts.Adapter,
	text, voice, language string,
	limitHits *int,
	cancelled func() bool,
) ([]pcm.Buffer, error) {
	if cancelled() {
		return nil, ErrCancelled
	}

	bufs, err := adapter.Synthesize(ctx, text, voice, language)
	if err == nil {
		return bufs, nil
	}
	if !errors.Is(err, tts.ErrTokenLimitExceeded) {
		return nil, err
	}

	if len([]rune(strings.TrimSpace(text))) <= 1 {
		return nil, tts.NewSynthesisFailed("single character still exceeds token limit", err)
	}

	*limitHits++
	left, right := splitText(text)

	leftBufs, err := synthesizeWithFallback(ctx, adapter, left, voice, language, limitHits, cancelled)
	if err != nil {
		return nil, err
	}
	if right == "" {
		return leftBufs, nil
	}
	rightBufs, err := synthesizeWithFallback(ctx, adapter, right, voice, language, limitHits, cancelled)
	if err != nil {
		return nil, err
	}

	return append(leftBufs, rightBufs...), nil
}
