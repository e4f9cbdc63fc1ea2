package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegHead = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	pngHead  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00}
)

func TestDetectAcceptedTypes(t *testing.T) {
	tests := []struct {
		filename string
		data     []byte
		want     Format
	}{
		{"photo.jpg", jpegHead, FormatJPEG},
		{"photo.JPEG", jpegHead, FormatJPEG},
		{"logo.png", pngHead, FormatPNG},
		{"LOGO.PNG", pngHead, FormatPNG},
	}

	for _, tt := range tests {
		got, err := Detect(tt.filename, tt.data)
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.want, got)
	}
}

func TestDetectRejectsUnknownExtension(t *testing.T) {
	_, err := Detect("anim.gif", jpegHead)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDetectRejectsUnknownContent(t *testing.T) {
	_, err := Detect("photo.jpg", []byte("GIF89a..."))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDetectRejectsMismatch(t *testing.T) {
	// PNG bytes hiding behind a jpg name, and the reverse.
	_, err := Detect("photo.jpg", pngHead)
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Detect("logo.png", jpegHead)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestDetectRejectsEmpty(t *testing.T) {
	_, err := Detect("photo.jpg", nil)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFormatMIME(t *testing.T) {
	assert.Equal(t, "image/jpeg", FormatJPEG.MIME())
	assert.Equal(t, "image/png", FormatPNG.MIME())
	assert.Equal(t, FormatPNG, FormatFromKey("user_1/abc.png"))
	assert.Equal(t, FormatJPEG, FormatFromKey("user_1/abc.jpg"))
}
