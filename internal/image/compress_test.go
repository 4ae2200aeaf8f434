package image

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompressScalesDownLongEdge(t *testing.T) {
	c := NewCompressor(1280, 75)

	out, err := c.Compress(encodePNG(t, 2000, 1000))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	bounds := decoded.Bounds()
	assert.Equal(t, 1280, bounds.Dx())
	assert.Equal(t, 640, bounds.Dy())
}

func TestCompressPortraitOrientation(t *testing.T) {
	c := NewCompressor(1280, 75)

	out, err := c.Compress(encodePNG(t, 500, 2000))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	bounds := decoded.Bounds()
	assert.Equal(t, 320, bounds.Dx())
	assert.Equal(t, 1280, bounds.Dy())
}

func TestCompressKeepsSmallImages(t *testing.T) {
	c := NewCompressor(1280, 75)

	out, err := c.Compress(encodePNG(t, 640, 480))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	bounds := decoded.Bounds()
	assert.Equal(t, 640, bounds.Dx())
	assert.Equal(t, 480, bounds.Dy())
}

func TestCompressRejectsGarbage(t *testing.T) {
	c := NewCompressor(1280, 75)

	_, err := c.Compress([]byte("not an image"))
	assert.Error(t, err)
}

func TestNewCompressorDefaults(t *testing.T) {
	c := NewCompressor(0, 0)
	assert.Equal(t, 1280, c.MaxEdge)
	assert.Equal(t, 75, c.Quality)

	c = NewCompressor(-1, 101)
	assert.Equal(t, 1280, c.MaxEdge)
	assert.Equal(t, 75, c.Quality)
}
