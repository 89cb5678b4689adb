package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/yuanying/epub2audiobook/internal/pcm"
)

// ChapterMark is one entry of the FFMETADATA1 chapter list written
// alongside the transcode.
type ChapterMark struct {
	Title     string
	StartTime float64
	EndTime   float64
}

// Metadata carries the tags the encoder embeds in the final container:
// book title, author, optional cover artwork, and chapter marks.
type Metadata struct {
	Title    string
	Artist   string
	Artwork  []byte
	Chapters []ChapterMark
}

// Encoder is the capability set {transcode, tag}: the low-level
// compressed-container encoder, treated as an abstract service.
type Encoder interface {
	// Transcode converts the raw PCM file at pcmPath (in format) into the
	// compressed container at outputPath, embedding meta.
	Transcode(ctx context.Context, pcmPath string, format pcm.Format, outputPath string, meta Metadata) error
}

// FFmpegEncoder shells out to the system ffmpeg binary. The concrete
// default implementation of Encoder for this pipeline.
type FFmpegEncoder struct {
	BinaryPath string
	Bitrate    string
	Container  string // as passed in ("m4b" when empty); "alternate" or "mp3" selects mp3, anything else aac
}

// NewFFmpegEncoder resolves ffmpeg on PATH. container selects the output
// extension/codec pairing ("primary" -> m4b/aac, "alternate" -> mp3).
func NewFFmpegEncoder(container string) *FFmpegEncoder {
	path, _ := exec.LookPath("ffmpeg")
	bitrate := "128k"
	if container == "" {
		container = "m4b"
	}
	return &FFmpegEncoder{BinaryPath: path, Bitrate: bitrate, Container: container}
}

func (e *FFmpegEncoder) Transcode(ctx context.Context, pcmPath string, format pcm.Format, outputPath string, meta Metadata) error {
	if e.BinaryPath == "" {
		return fmt.Errorf("%w: ffmpeg binary not found on PATH", ErrTranscodeFailed)
	}

	sampleFormat := "f32le"
	if format.Sample == pcm.Int16 {
		sampleFormat = "s16le"
	}

	args := []string{
		"-f", sampleFormat,
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		"-i", pcmPath,
	}

	var coverPath string
	if len(meta.Artwork) > 0 {
		f, err := os.CreateTemp("", "cover-*.jpg")
		if err == nil {
			if _, werr := f.Write(meta.Artwork); werr == nil {
				coverPath = f.Name()
				defer os.Remove(coverPath)
			}
			f.Close()
		}
	}
	if coverPath != "" {
		args = append(args, "-i", coverPath)
	}

	// Every input must precede the output options, which ffmpeg would
	// otherwise apply to the next input.
	var chaptersPath string
	if len(meta.Chapters) > 0 {
		cf, err := writeChapterMetadataFile(meta.Chapters)
		if err == nil {
			chaptersPath = cf
			defer os.Remove(chaptersPath)
			args = append(args, "-i", chaptersPath)
		}
	}

	if coverPath != "" {
		args = append(args, "-map", "0:a", "-map", "1:v", "-c:v", "copy", "-disposition:v:0", "attached_pic")
	}
	if chaptersPath != "" {
		chaptersInput := "1"
		if coverPath != "" {
			chaptersInput = "2"
		}
		args = append(args, "-map_metadata", chaptersInput)
	}

	codec := "aac"
	if e.Container == "alternate" || e.Container == "mp3" {
		codec = "libmp3lame"
	}
	args = append(args, "-c:a", codec, "-b:a", e.Bitrate)

	if meta.Title != "" {
		args = append(args, "-metadata", "title="+meta.Title)
	}
	if meta.Artist != "" {
		args = append(args, "-metadata", "artist="+meta.Artist)
		args = append(args, "-metadata", "album_artist="+meta.Artist)
	}

	args = append(args, "-y", outputPath)

	cmd := exec.CommandContext(ctx, e.BinaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v: %s", ErrTranscodeFailed, err, stderr.String())
	}
	return nil
}

// writeChapterMetadataFile renders chapters in FFMETADATA1 format, the
// input ffmpeg expects for -map_metadata chapter injection.
func writeChapterMetadataFile(chapters []ChapterMark) (string, error) {
	f, err := os.CreateTemp("", "chapters-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	fmt.Fprintln(f, ";FFMETADATA1")
	for _, ch := range chapters {
		fmt.Fprintln(f, "[CHAPTER]")
		fmt.Fprintln(f, "TIMEBASE=1/1000")
		fmt.Fprintf(f, "START=%d\n", int64(ch.StartTime*1000))
		fmt.Fprintf(f, "END=%d\n", int64(ch.EndTime*1000))
		fmt.Fprintf(f, "title=%s\n", ch.Title)
	}
	return f.Name(), nil
}
