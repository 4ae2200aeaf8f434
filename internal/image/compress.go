// Package image shrinks report photos before upload so a handful of phone
// camera shots does not blow the Airtable attachment payload limit.
package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

type Compressor struct {
	// MaxEdge caps the longest image dimension in pixels.
	MaxEdge int
	// Quality is the JPEG encode quality, 1-100.
	Quality int
}

func NewCompressor(maxEdge, quality int) *Compressor {
	if maxEdge <= 0 {
		maxEdge = 1280
	}
	if quality <= 0 || quality > 100 {
		quality = 75
	}
	return &Compressor{MaxEdge: maxEdge, Quality: quality}
}

// Compress decodes data, scales it down so the longest edge is at most
// MaxEdge, and re-encodes as JPEG. Images already within bounds are still
// re-encoded so the quality setting applies uniformly.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > c.MaxEdge || h > c.MaxEdge {
		if w >= h {
			h = h * c.MaxEdge / w
			w = c.MaxEdge
		} else {
			w = w * c.MaxEdge / h
			h = c.MaxEdge
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: c.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
