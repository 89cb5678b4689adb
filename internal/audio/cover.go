package audio

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for cover sources

	"github.com/disintegration/imaging"
)

const (
	defaultCoverMaxWidth    = 1400
	defaultCoverJPEGQuality = 90
	minCoverJPEGQuality     = 70
	defaultCoverMaxBytes    = 512 * 1024
)

// CoverOptimizer re-encodes an EPUB's cover image into a JPEG suitable for
// embedding as container artwork, bounding dimensions and file size the
// way the encoder's attached-picture stream expects. Adapted from the
// image pipeline's raster optimizer for the audiobook's single-artwork
// use case: covers are always flattened to JPEG, there is no transparency
// concern for embedded audio artwork.
type CoverOptimizer struct {
	MaxWidth    int
	Quality     int
	MinQuality  int
	MaxFileSize int
}

// NewCoverOptimizer returns an optimizer with practical defaults for
// embedded audiobook artwork.
func NewCoverOptimizer() *CoverOptimizer {
	return &CoverOptimizer{
		MaxWidth:    defaultCoverMaxWidth,
		Quality:     defaultCoverJPEGQuality,
		MinQuality:  minCoverJPEGQuality,
		MaxFileSize: defaultCoverMaxBytes,
	}
}

// Optimize decodes cover bytes and re-encodes them as a size-bounded JPEG.
// On decode failure the original bytes are returned unchanged along with a
// warning: a bad or oversized cover must never abort the run.
func (o *CoverOptimizer) Optimize(input []byte) (data []byte, warning string) {
	src, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return input, fmt.Sprintf("cover decode failed, embedding as-is: %v", err)
	}

	processed := src
	if o.MaxWidth > 0 && src.Bounds().Dx() > o.MaxWidth {
		processed = imaging.Resize(src, o.MaxWidth, 0, imaging.Lanczos)
	}

	encoded, quality, err := o.encodeWithSizeLimit(processed)
	if err != nil {
		return input, fmt.Sprintf("cover encode failed, embedding as-is: %v", err)
	}
	if o.MaxFileSize > 0 && len(encoded) > o.MaxFileSize {
		return encoded, fmt.Sprintf("cover exceeds %d bytes at quality %d", o.MaxFileSize, quality)
	}
	return encoded, ""
}

func (o *CoverOptimizer) encodeWithSizeLimit(img image.Image) ([]byte, int, error) {
	quality := clampQuality(o.Quality)
	minQuality := clampQuality(o.MinQuality)

	best, err := encodeCoverJPEG(img, quality)
	if err != nil {
		return nil, 0, err
	}
	if o.MaxFileSize <= 0 || len(best) <= o.MaxFileSize {
		return best, quality, nil
	}

	bestQuality := quality
	for q := quality - 5; q >= minQuality; q -= 5 {
		candidate, encErr := encodeCoverJPEG(img, q)
		if encErr != nil {
			return nil, 0, encErr
		}
		best = candidate
		bestQuality = q
		if len(candidate) <= o.MaxFileSize {
			return candidate, q, nil
		}
	}
	return best, bestQuality, nil
}

func clampQuality(q int) int {
	if q <= 0 {
		return defaultCoverJPEGQuality
	}
	if q > 100 {
		return 100
	}
	return q
}

func encodeCoverJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

