// Package scheduler implements the Synthesis Scheduler: bounded parallel
// dispatch of chapters to per-worker TTS adapters, with adaptive bisection
// fallback on token-limit overflow and cooperative cancellation.
package scheduler

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/yuanying/epub2audiobook/internal/pcm"
	"github.com/yuanying/epub2audiobook/internal/tts"
)

// ChapterInput is one unit of dispatch: a chapter's normalized text keyed
// by its stable spine index.
type ChapterInput struct {
	Index int
	Text  string
}

// ChapterResult is the scheduler's output for one chapter: its buffer
// sequence in bisection order, total duration, and the count of
// token-limit bisections observed while producing it.
type ChapterResult struct {
	Index     int
	Buffers   []pcm.Buffer
	Duration  float64
	LimitHits int
}

// WorkerCount computes W = max(1, min(CPU, chapters, userCap, 8)).
func WorkerCount(chapters, userCap int) int {
	w := runtime.NumCPU()
	if chapters < w {
		w = chapters
	}
	if userCap > 0 && userCap < w {
		w = userCap
	}
	if w > 8 {
		w = 8
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Run dispatches every chapter in index order, bounded by a semaphore of
// size WorkerCount, and returns results sorted by index: chapters are
// dispatched in index order but may complete out of order, so results are
// collected and sorted by index before handoff to the assembler.
//
// onComplete, if non-nil, is invoked once per chapter as soon as its
// synthesis finishes successfully — before the overall call returns, and
// regardless of whether a later chapter's cancellation or failure causes
// Run to ultimately return an error. The caller uses this to persist a
// chapter's intermediate file immediately, so a cancelled run preserves
// every chapter that actually finished rather than none at all. It may be
// called concurrently from multiple workers and must not block on Run's
// own state.
//
// newAdapter must build a fresh, unshared Adapter per call: it is invoked
// once per worker task, never reused across chapters.
func Run(
	ctx context.Context,
	chapters []ChapterInput,
	cfg tts.Config,
	newAdapter tts.Factory,
	cancelled func() bool,
	onComplete func(ChapterResult),
) ([]ChapterResult, error) {
	w := WorkerCount(len(chapters), cfg.MaxParallel)
	sem := semaphore.NewWeighted(int64(w))

	results := make([]ChapterResult, len(chapters))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, ch := range chapters {
		if cancelled() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = ErrCancelled
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(ch ChapterInput) {
			defer wg.Done()
			defer sem.Release(1)

			if cancelled() {
				mu.Lock()
				if firstErr == nil {
					firstErr = ErrCancelled
				}
				mu.Unlock()
				return
			}

			adapter, err := newAdapter()
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			limitHits := 0
			bufs, err := synthesizeWithFallback(ctx, adapter, ch.Text, cfg.Voice, cfg.Language, &limitHits, cancelled)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			duration := 0.0
			for _, b := range bufs {
				duration += b.Duration()
			}

			result := ChapterResult{
				Index:     ch.Index,
				Buffers:   bufs,
				Duration:  duration,
				LimitHits: limitHits,
			}

			if onComplete != nil {
				onComplete(result)
			}

			mu.Lock()
			results[ch.Index] = result
			mu.Unlock()
		}(ch)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if cancelled() {
		return nil, ErrCancelled
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results, nil
}
