//go:build !cgo

package ocr

import (
	"context"
	"image"
)

// TesseractOptions configures a Tesseract engine.
type TesseractOptions struct {
	Language       string
	TessdataPrefix string
}

// Tesseract is unavailable in builds without cgo.
type Tesseract struct{}

// NewTesseract always returns ErrUnavailable without cgo.
func NewTesseract(opts TesseractOptions) (*Tesseract, error) {
	return nil, ErrUnavailable
}

func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]TextSpan, error) {
	return nil, ErrUnavailable
}

func (t *Tesseract) Close() error { return nil }

// Version returns an empty string without cgo.
func Version() string { return "" }
