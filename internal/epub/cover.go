package epub

import (
	"strings"
)

// CoverInfo holds information about the detected cover image.
type CoverInfo struct {
	ManifestID      string
	Href            string
	MediaType       string
	DetectionMethod string // "meta", "properties", "filename", "first-image"
}

// DetectCover detects the cover image from the OPF manifest, in the
// priority order spec §4.1 step 7 specifies:
//  1. meta name="cover" content="<id>" (EPUB 2.0)
//  2. properties="cover-image" (EPUB 3.0)
//  3. manifest id or href containing "cover" (case-insensitive), image media type
//  4. the first image in the manifest
//
// Returns nil if no cover image is found.
func (opf *OPF) DetectCover() *CoverInfo {
	// (a) EPUB 2.0 - meta name="cover" content="<id>"
	if opf.Metadata.CoverID != "" {
		if item, ok := opf.Manifest[opf.Metadata.CoverID]; ok {
			return &CoverInfo{
				ManifestID:      item.ID,
				Href:            item.Href,
				MediaType:       item.MediaType,
				DetectionMethod: "meta",
			}
		}
	}

	// (b) EPUB 3.0 - properties contains "cover-image"
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		for _, prop := range item.Properties {
			if prop == "cover-image" {
				return &CoverInfo{
					ManifestID:      item.ID,
					Href:            item.Href,
					MediaType:       item.MediaType,
					DetectionMethod: "properties",
				}
			}
		}
	}

	// (c) id or href contains "cover" (case-insensitive), image media type
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if !isImageMediaType(item.MediaType) {
			continue
		}
		if strings.Contains(strings.ToLower(item.ID), "cover") ||
			strings.Contains(strings.ToLower(item.Href), "cover") {
			return &CoverInfo{
				ManifestID:      item.ID,
				Href:            item.Href,
				MediaType:       item.MediaType,
				DetectionMethod: "filename",
			}
		}
	}

	// (d) the first image in the manifest
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if isImageMediaType(item.MediaType) {
			return &CoverInfo{
				ManifestID:      item.ID,
				Href:            item.Href,
				MediaType:       item.MediaType,
				DetectionMethod: "first-image",
			}
		}
	}

	return nil
}

// FindCoverImage finds the cover image in the manifest.
// This is a convenience wrapper around DetectCover.
func (opf *OPF) FindCoverImage() (string, bool) {
	if c := opf.DetectCover(); c != nil {
		return c.Href, true
	}
	return "", false
}

// isImageMediaType checks if a media type is a raster image (SVG excluded).
func isImageMediaType(mediaType string) bool {
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
