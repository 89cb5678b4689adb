// Package audio implements the Audio Assembler: format unification across
// per-chapter buffer sequences, sequential append into a master PCM
// stream, transcode to the final compressed container, metadata tagging,
// and the chapters.json sidecar.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuanying/epub2audiobook/internal/normalize"
	"github.com/yuanying/epub2audiobook/internal/pcm"
)

// ChapterAudio is one chapter's synthesized buffer sequence, keyed by its
// stable spine index and sanitized title (for filename derivation).
type ChapterAudio struct {
	Index   int
	Title   string
	Buffers []pcm.Buffer
}

// ChapterSidecarEntry is one element of chapters.json.
type ChapterSidecarEntry struct {
	Start float64 `json:"start"`
	Title string  `json:"title"`
}

// Result is what the assembler hands back to the orchestrator.
type Result struct {
	ContainerPath string
	SidecarPath   string
	Intermediates []string
	TotalDuration float64
	Warnings      []string
}

// DefaultPCMExtension is the raw PCM intermediate file extension used by
// both the Assembler and any earlier incremental writer sharing its
// session directory.
const DefaultPCMExtension = "pcm"

// Assembler drives format unification, master-file assembly, and transcode
// for one conversion run. It is single-threaded by design: one Assembler
// owns the master PCM file handle for the duration of a run.
type Assembler struct {
	SessionDir string
	Extension  string // raw PCM intermediate extension, e.g. "pcm"
	Encoder    Encoder
}

// NewAssembler builds an Assembler rooted at sessionDir.
func NewAssembler(sessionDir string, encoder Encoder) *Assembler {
	return &Assembler{SessionDir: sessionDir, Extension: DefaultPCMExtension, Encoder: encoder}
}

// IntermediatePath returns the chapter_<NN>_<sanitizedTitle>.<ext> path an
// Assembler will write (and, on a successful run, overwrite with
// format-unified buffers). A caller that persists a chapter's raw buffers
// as soon as synthesis finishes — ahead of the Assembler's own pass, so
// cancellation doesn't lose completed chapters — must use this same
// function so both writers agree on the filename.
func IntermediatePath(sessionDir string, index int, title, ext string) string {
	sanitized := normalize.SanitizeForFilename(title)
	name := fmt.Sprintf("chapter_%02d_%s.%s", index, sanitized, ext)
	return filepath.Join(sessionDir, name)
}

// Assemble runs the full pipeline over chapters (already sorted by index)
// and writes the final container to outputPath (pre-resolved for
// collisions by the caller), plus a chapters.json sidecar beside it.
func (a *Assembler) Assemble(ctx context.Context, chapters []ChapterAudio, bookTitle, bookAuthor string, coverImage []byte, outputPath string, cancelled func() bool) (*Result, error) {
	result := &Result{}

	if len(chapters) == 0 {
		return nil, fmt.Errorf("assemble called with no chapters")
	}

	target := firstBufferFormat(chapters)

	intermediatePaths := make([]string, len(chapters))
	startTimes := make([]float64, len(chapters))
	sidecar := make([]ChapterSidecarEntry, len(chapters))

	var cumulative float64
	for i, ch := range chapters {
		if cancelled() {
			return nil, fmt.Errorf("assembly cancelled")
		}

		converted, warnings := unifyFormat(ch.Buffers, target)
		result.Warnings = append(result.Warnings, warnings...)

		path := a.intermediatePath(ch.Index, ch.Title)
		if err := WritePCMFile(path, converted); err != nil {
			return nil, err
		}
		intermediatePaths[i] = path

		duration := bufferSeqDuration(converted)
		startTimes[i] = cumulative
		sidecar[i] = ChapterSidecarEntry{Start: cumulative, Title: ch.Title}
		cumulative += duration
	}
	result.Intermediates = intermediatePaths
	result.TotalDuration = cumulative

	masterPath := filepath.Join(a.SessionDir, "master.pcm")
	if err := a.appendMaster(masterPath, intermediatePaths, target, cancelled); err != nil {
		return nil, err
	}

	chapterMarks := make([]ChapterMark, len(chapters))
	for i := range chapters {
		end := result.TotalDuration
		if i+1 < len(startTimes) {
			end = startTimes[i+1]
		}
		chapterMarks[i] = ChapterMark{Title: sidecar[i].Title, StartTime: startTimes[i], EndTime: end}
	}

	meta := Metadata{Title: bookTitle, Artist: bookAuthor, Artwork: coverImage, Chapters: chapterMarks}
	if err := a.Encoder.Transcode(ctx, masterPath, target, outputPath, meta); err != nil {
		// master PCM retained for diagnostics.
		return nil, err
	}
	os.Remove(masterPath)

	result.ContainerPath = outputPath
	sidecarPath, err := writeSidecar(outputPath, sidecar)
	if err != nil {
		return nil, err
	}
	result.SidecarPath = sidecarPath

	return result, nil
}

func firstBufferFormat(chapters []ChapterAudio) pcm.Format {
	for _, ch := range chapters {
		if len(ch.Buffers) > 0 {
			return ch.Buffers[0].Format
		}
	}
	return pcm.Format{}
}

// unifyFormat converts every buffer not already matching target, falling
// back to the original buffer with a warning on conversion failure (spec
// §4.5, §9 "error carry-over": never escalate this to fatal).
func unifyFormat(buffers []pcm.Buffer, target pcm.Format) ([]pcm.Buffer, []string) {
	out := make([]pcm.Buffer, len(buffers))
	var warnings []string
	for i, b := range buffers {
		if b.Format.Equal(target) {
			out[i] = b
			continue
		}
		converted, err := ConvertBuffer(b, target)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("chapter buffer %d: %v; using original buffer", i, err))
			out[i] = b
			continue
		}
		out[i] = converted
	}
	return out, warnings
}

func bufferSeqDuration(buffers []pcm.Buffer) float64 {
	var total float64
	for _, b := range buffers {
		total += b.Duration()
	}
	return total
}

func (a *Assembler) intermediatePath(index int, title string) string {
	return IntermediatePath(a.SessionDir, index, title, a.Extension)
}

func (a *Assembler) appendMaster(masterPath string, intermediates []string, target pcm.Format, cancelled func() bool) error {
	master, err := os.Create(masterPath)
	if err != nil {
		return fmt.Errorf("creating master PCM file: %w", err)
	}
	defer master.Close()

	for _, path := range intermediates {
		if cancelled() {
			return fmt.Errorf("assembly cancelled")
		}
		src, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening intermediate %s: %w", path, err)
		}
		_, err = AppendStream(master, src, target)
		src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeSidecar(containerPath string, entries []ChapterSidecarEntry) (string, error) {
	sidecarPath := filepath.Join(filepath.Dir(containerPath), "chapters.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding chapters.json: %w", err)
	}
	if err := os.WriteFile(sidecarPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing chapters.json: %w", err)
	}
	return sidecarPath, nil
}

// ResolveOutputPath derives the final container filename from the book
// title and resolves any collision with a " (N)" suffix.
func ResolveOutputPath(dir, bookTitle, ext string) (string, error) {
	base := normalize.SanitizeForFilename(bookTitle)
	candidate := filepath.Join(dir, fmt.Sprintf("%s.%s", base, ext))
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	} else if err != nil {
		return "", err
	}

	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d).%s", base, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
}
