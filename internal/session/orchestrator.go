package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuanying/epub2audiobook/internal/audio"
	"github.com/yuanying/epub2audiobook/internal/epub"
	"github.com/yuanying/epub2audiobook/internal/normalize"
	"github.com/yuanying/epub2audiobook/internal/scheduler"
	"github.com/yuanying/epub2audiobook/internal/tts"
)

// RunConfig bundles everything one conversion run needs: the input path,
// the recognized configuration surface, and the output destination.
type RunConfig struct {
	EPUBPath      string
	OutputDir     string
	OutputFormat  string // "primary" (m4b) or "alternate" (mp3)
	Normalization normalize.Config
	TTS           tts.Config
	NewAdapter    tts.Factory
	Encoder       audio.Encoder
}

// ErrCancelled is the orchestrator's terminal status on a cooperative
// cancel() call: partial per-chapter intermediates are retained.
var ErrCancelled = errors.New("cancelled")

// Summary is the post-run report. Counted token-limit bisections are
// surfaced as a warning here rather than failing the run.
type Summary struct {
	ContainerPath   string
	SidecarPath     string
	SessionDir      string
	TotalDuration   float64
	ChapterCount    int
	TotalBisections int
	Warnings        []string
}

// Run drives the four subsystems end to end, reporting progress through
// observer at each state transition and per chapter. The caller owns sess
// (created via New) so it can call sess.Cancel() from a signal handler or
// UI thread while Run is in flight.
func Run(ctx context.Context, sess *ConversionSession, cfg RunConfig, observer Observer) (*Summary, error) {
	report := func() {
		if observer != nil {
			observer.OnProgress(sess.Snapshot())
		}
	}

	sess.SetState(StateParsing, "reading "+cfg.EPUBPath)
	report()
	book, err := epub.Load(cfg.EPUBPath)
	if err != nil {
		sess.SetState(StateFailed, err.Error())
		report()
		return nil, err
	}

	sess.SetState(StateNormalizing, fmt.Sprintf("normalizing %d chapters", len(book.Chapters)))
	report()

	inputs := make([]scheduler.ChapterInput, len(book.Chapters))
	titles := make([]string, len(book.Chapters))
	for i, ch := range book.Chapters {
		text, err := normalize.Normalize(ch.HTML, cfg.Normalization)
		if err != nil {
			sess.SetState(StateFailed, err.Error())
			report()
			return nil, err
		}
		title := normalize.ExtractTitle(ch.HTML, text, cfg.Normalization.TitleMode)
		inputs[i] = scheduler.ChapterInput{Index: i, Text: text}
		titles[i] = title
		sess.Logf(fmt.Sprintf("normalized chapter %d: %q", i, title))
	}

	if sess.Cancelled() {
		sess.SetState(StateCancelled, "cancelled during normalization")
		report()
		return nil, ErrCancelled
	}

	sess.SetState(StateSynthesizing, "dispatching chapters to TTS")
	report()

	// Persist each chapter's intermediate file as soon as its synthesis
	// finishes, not only after every chapter succeeds: a mid-run cancel()
	// makes scheduler.Run return before reaching the per-chapter loop
	// below, so without this callback a cancelled run would preserve zero
	// intermediates instead of the chapters that actually completed.
	onChapterComplete := func(r scheduler.ChapterResult) {
		path := audio.IntermediatePath(sess.Dir, r.Index, titles[r.Index], audio.DefaultPCMExtension)
		if err := audio.WritePCMFile(path, r.Buffers); err != nil {
			sess.Logf(fmt.Sprintf("warning: writing intermediate for chapter %d: %v", r.Index, err))
			return
		}
		sess.Logf(fmt.Sprintf("chapter %d intermediate written: %s", r.Index, path))
	}

	results, err := scheduler.Run(ctx, inputs, cfg.TTS, cfg.NewAdapter, sess.Cancelled, onChapterComplete)
	if err != nil {
		if errors.Is(err, scheduler.ErrCancelled) {
			sess.SetState(StateCancelled, "cancelled during synthesis")
			report()
			return nil, ErrCancelled
		}
		sess.SetState(StateFailed, err.Error())
		report()
		return nil, err
	}

	totalBisections := 0
	for i, r := range results {
		totalBisections += r.LimitHits
		sess.SetProgress(float64(i+1) / float64(len(results)))
		sess.Logf(fmt.Sprintf("chapter %d synthesized (%d bisections)", i, r.LimitHits))
		report()
	}

	sess.SetState(StateAssembling, "assembling audiobook")
	report()

	chapterAudio := make([]audio.ChapterAudio, len(results))
	for i, r := range results {
		chapterAudio[i] = audio.ChapterAudio{Index: r.Index, Title: titles[r.Index], Buffers: r.Buffers}
	}

	ext := containerExtension(cfg.OutputFormat)
	outputPath, err := audio.ResolveOutputPath(cfg.OutputDir, book.Title, ext)
	if err != nil {
		sess.SetState(StateFailed, err.Error())
		report()
		return nil, err
	}

	asm := audio.NewAssembler(sess.Dir, cfg.Encoder)
	asmResult, err := asm.Assemble(ctx, chapterAudio, book.Title, book.Author, book.Cover, outputPath, sess.Cancelled)
	if err != nil {
		sess.SetState(StateFailed, err.Error())
		report()
		return nil, err
	}

	for _, w := range asmResult.Warnings {
		sess.Logf("warning: " + w)
	}
	if totalBisections > 0 {
		sess.Logf(fmt.Sprintf("warning: %d token-limit bisections occurred during synthesis", totalBisections))
	}

	sess.SetProgress(1.0)
	sess.SetState(StateComplete, "conversion complete")
	report()

	return &Summary{
		ContainerPath:   asmResult.ContainerPath,
		SidecarPath:     asmResult.SidecarPath,
		SessionDir:      sess.Dir,
		TotalDuration:   asmResult.TotalDuration,
		ChapterCount:    len(book.Chapters),
		TotalBisections: totalBisections,
		Warnings:        asmResult.Warnings,
	}, nil
}

func containerExtension(outputFormat string) string {
	if outputFormat == "alternate" {
		return "mp3"
	}
	return "m4b"
}
