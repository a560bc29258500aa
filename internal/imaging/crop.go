package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult contains a cropped region encoded for transport.
type CropResult struct {
	X1          int    `json:"x1"`
	Y1          int    `json:"y1"`
	X2          int    `json:"x2"`
	Y2          int    `json:"y2"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Encode renders the region as a base64 PNG, optionally scaled.
//
// A scale of 1 (or any non-positive value) keeps the original size; other
// values resize with a Lanczos filter so small set icons can be inspected.
func (r *Region) Encode(scale float64) (*CropResult, error) {
	var out image.Image = r.Image

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(r.Width()) * scale)
		newHeight := int(float64(r.Height()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		out = imaging.Resize(r.Image, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}

	return &CropResult{
		X1:          r.Box.Min.X,
		Y1:          r.Box.Min.Y,
		X2:          r.Box.Max.X,
		Y2:          r.Box.Max.Y,
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// EncodePNG encodes an image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
