//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/card-scanner/internal/imaging"
)

// TesseractOptions configures a Tesseract engine.
type TesseractOptions struct {
	// Language is a Tesseract language code such as "eng".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	// Empty uses the library default (TESSDATA_PREFIX).
	TessdataPrefix string
}

// Tesseract is an Engine backed by a single gosseract client.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates and configures a gosseract client.
func NewTesseract(opts TesseractOptions) (*Tesseract, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}

	client := gosseract.NewClient()

	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	return &Tesseract{client: client}, nil
}

// Recognize runs word-level OCR on img.
//
// Empty words are dropped. Confidence is converted from Tesseract's 0-100
// scale to 0-1.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]TextSpan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	if err := t.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get bounding boxes: %w", err)
	}

	offset := img.Bounds().Min
	spans := make([]TextSpan, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		spans = append(spans, TextSpan{
			Text:       box.Word,
			Confidence: clampConfidence(box.Confidence / 100.0),
			Bounds: Bounds{
				X1: box.Box.Min.X + offset.X,
				Y1: box.Box.Min.Y + offset.Y,
				X2: box.Box.Max.X + offset.X,
				Y2: box.Box.Max.Y + offset.Y,
			},
		})
	}
	return spans, nil
}

// Close releases the underlying client.
func (t *Tesseract) Close() error {
	return t.client.Close()
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
