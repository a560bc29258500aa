package ocr

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/ironsheep/card-scanner/internal/failure"
)

// DefaultMinConfidence is the confidence a span must exceed to be kept.
const DefaultMinConfidence = 0.5

// ErrUnavailable is returned when no OCR backend is compiled in or the
// backend cannot be initialized.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextSpan is one recognized word with its location and confidence.
type TextSpan struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the recognition confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this text in the image.
	Bounds Bounds `json:"bounds"`
}

// Engine recognizes text in an image.
//
// Implementations return spans in reading order. They need not be safe for
// concurrent use; wrap them in a Pool for that.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]TextSpan, error)
	Close() error
}

// Filter returns the spans whose confidence is strictly greater than
// threshold, in their original order.
func Filter(spans []TextSpan, threshold float64) []TextSpan {
	out := make([]TextSpan, 0, len(spans))
	for _, s := range spans {
		if s.Confidence > threshold {
			out = append(out, s)
		}
	}
	return out
}

// Text joins the span texts with single spaces.
func Text(spans []TextSpan) string {
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Extraction is the outcome of one OCR pass.
type Extraction struct {
	// Raw is every span the engine produced, for diagnostics.
	Raw []TextSpan `json:"raw"`

	// Spans is Raw after confidence filtering.
	Spans []TextSpan `json:"spans"`
}

// Extractor runs an engine and applies confidence filtering.
type Extractor struct {
	Engine        Engine
	MinConfidence float64
}

// NewExtractor returns an Extractor using DefaultMinConfidence.
func NewExtractor(engine Engine) *Extractor {
	return &Extractor{Engine: engine, MinConfidence: DefaultMinConfidence}
}

// Extract recognizes text in img and filters it.
//
// A nil engine or an engine error yields an OCR_FAILED error.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (*Extraction, error) {
	if e == nil || e.Engine == nil {
		return nil, failure.New(failure.OCRFailed, "no ocr engine configured", ErrUnavailable)
	}

	raw, err := e.Engine.Recognize(ctx, img)
	if err != nil {
		if failure.HasCode(err, failure.OCRFailed) {
			return nil, err
		}
		return nil, failure.New(failure.OCRFailed, "text recognition failed", err)
	}
	if raw == nil {
		raw = []TextSpan{}
	}

	return &Extraction{
		Raw:   raw,
		Spans: Filter(raw, e.MinConfidence),
	}, nil
}
