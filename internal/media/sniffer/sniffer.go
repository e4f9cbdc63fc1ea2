// Package sniffer validates uploads against the two accepted encodings,
// JPEG and PNG, checking both the claimed filename extension and the
// real magic signature of the bytes.
package sniffer

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

var (
	ErrUnsupportedType = errors.New("incorrect file type, allowed types: jpg png")
	ErrTypeMismatch    = errors.New("file extension does not match file content")
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// MIME returns the content type to store and serve the format with.
func (f Format) MIME() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Ext returns the canonical object-key extension.
func (f Format) Ext() string {
	if f == FormatPNG {
		return "png"
	}
	return "jpg"
}

// Detect validates filename and content together. The extension must be
// one of the accepted types, the bytes must carry a matching magic
// signature, and the two must agree.
func Detect(filename string, data []byte) (Format, error) {
	claimed, ok := formatFromExtension(filename)
	if !ok {
		return "", ErrUnsupportedType
	}

	actual, ok := formatFromContent(data)
	if !ok {
		return "", ErrUnsupportedType
	}

	if claimed != actual {
		return "", fmt.Errorf("%w: named %s, contains %s", ErrTypeMismatch, claimed, actual)
	}
	return actual, nil
}

// FormatFromKey recovers the stored format from an object key extension.
func FormatFromKey(key string) Format {
	if strings.EqualFold(filepath.Ext(key), ".png") {
		return FormatPNG
	}
	return FormatJPEG
}

func formatFromExtension(filename string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, true
	case ".png":
		return FormatPNG, true
	default:
		return "", false
	}
}

func formatFromContent(data []byte) (Format, bool) {
	if isJPEG(data) {
		return FormatJPEG, true
	}
	if isPNG(data) {
		return FormatPNG, true
	}
	return "", false
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}
