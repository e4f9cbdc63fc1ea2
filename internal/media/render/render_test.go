package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thumbforge/internal/media/sniffer"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestDimensions(t *testing.T) {
	w, h, err := Dimensions(encodePNG(t, 720, 619))
	require.NoError(t, err)
	assert.Equal(t, 720, w)
	assert.Equal(t, 619, h)
}

func TestDimensionsRejectsGarbage(t *testing.T) {
	_, _, err := Dimensions([]byte("not an image"))
	require.Error(t, err)
}

func TestSquareDownscalesNonSquareSource(t *testing.T) {
	src := encodePNG(t, 400, 300)

	out, err := Square(src, sniffer.FormatPNG, 200)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestSquareUpscalesSmallSource(t *testing.T) {
	src := encodeJPEG(t, 60, 40)

	out, err := Square(src, sniffer.FormatJPEG, 300)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestSquareRejectsNonPositiveSize(t *testing.T) {
	_, err := Square(encodePNG(t, 10, 10), sniffer.FormatPNG, 0)
	require.Error(t, err)
}
