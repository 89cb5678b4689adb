package audio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/yuanying/epub2audiobook/internal/pcm"
)

// streamChunkFrames bounds how many frames are materialized at once when
// streaming an intermediate file into the master PCM stream.
const streamChunkFrames = 8192

// WritePCMFile writes a chapter's (already format-unified) buffer sequence
// to path as raw little-endian interleaved samples: one intermediate file
// per chapter.
func WritePCMFile(path string, buffers []pcm.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating intermediate PCM file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, buf := range buffers {
		if err := writeBuffer(w, buf); err != nil {
			return fmt.Errorf("writing intermediate PCM file %s: %w", path, err)
		}
	}
	return w.Flush()
}

func writeBuffer(w io.Writer, buf pcm.Buffer) error {
	switch buf.Format.Sample {
	case pcm.Float32:
		return binary.Write(w, binary.LittleEndian, buf.Float32Samples)
	case pcm.Int16:
		return binary.Write(w, binary.LittleEndian, buf.Int16Samples)
	default:
		return fmt.Errorf("unsupported sample format %v", buf.Format.Sample)
	}
}

// AppendStream copies src's raw samples onto dst in bounded chunks of
// streamChunkFrames, rather than materializing the whole file. Returns the
// number of frames copied.
func AppendStream(dst io.Writer, src io.Reader, format pcm.Format) (int64, error) {
	bytesPerFrame := bytesPerSample(format.Sample) * format.Channels
	if bytesPerFrame <= 0 {
		return 0, fmt.Errorf("invalid format for streaming: %v", format)
	}
	buf := make([]byte, streamChunkFrames*bytesPerFrame)

	var frames int64
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return frames, fmt.Errorf("writing master PCM stream: %w", werr)
			}
			frames += int64(n / bytesPerFrame)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return frames, fmt.Errorf("reading intermediate PCM file: %w", err)
		}
	}
	return frames, nil
}

func bytesPerSample(s pcm.SampleFormat) int {
	switch s {
	case pcm.Float32:
		return 4
	case pcm.Int16:
		return 2
	default:
		return 0
	}
}
