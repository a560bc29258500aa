package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/card-scanner/internal/failure"
)

// RelativeBox describes a rectangle as fractions of an image's width and height.
//
// (X0, Y0) is the top-left corner and (X1, Y1) the bottom-right corner. A box of
// {0, 0, 1, 1} covers the whole image.
type RelativeBox struct {
	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
}

var (
	// SetIconBox is the bottom-right 15% corner where set symbols are printed.
	SetIconBox = RelativeBox{X0: 0.85, Y0: 0.85, X1: 1, Y1: 1}

	// FullBox covers the entire image.
	FullBox = RelativeBox{X0: 0, Y0: 0, X1: 1, Y1: 1}
)

// Clamp returns a copy of the box with every fraction constrained to [0, 1].
// NaN fractions become 0.
func (b RelativeBox) Clamp() RelativeBox {
	return RelativeBox{
		X0: clampUnit(b.X0),
		Y0: clampUnit(b.Y0),
		X1: clampUnit(b.X1),
		Y1: clampUnit(b.Y1),
	}
}

// Empty reports whether the clamped box has no area.
func (b RelativeBox) Empty() bool {
	c := b.Clamp()
	return c.X0 >= c.X1 || c.Y0 >= c.Y1
}

func (b RelativeBox) String() string {
	return fmt.Sprintf("(%.3f,%.3f)-(%.3f,%.3f)", b.X0, b.Y0, b.X1, b.Y1)
}

// Rect converts the box to absolute pixel coordinates within bounds.
//
// Fractions are clamped, multiplied by the bounds' width and height, and
// truncated. When truncation collapses a valid box to zero width or height
// (tiny images), the rectangle is widened to one pixel, pulled back inside the
// bounds if needed. The returned rectangle is empty only when the clamped box
// itself is empty or bounds has no pixels.
func (b RelativeBox) Rect(bounds image.Rectangle) image.Rectangle {
	if bounds.Empty() || b.Empty() {
		return image.Rectangle{}
	}

	c := b.Clamp()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	x0 := bounds.Min.X + int(c.X0*w)
	y0 := bounds.Min.Y + int(c.Y0*h)
	x1 := bounds.Min.X + int(c.X1*w)
	y1 := bounds.Min.Y + int(c.Y1*h)

	x0, x1 = widen(x0, x1, bounds.Min.X, bounds.Max.X)
	y0, y1 = widen(y0, y1, bounds.Min.Y, bounds.Max.Y)

	return image.Rect(x0, y0, x1, y1).Intersect(bounds)
}

// Region is a rectangular sub-view of an image.
type Region struct {
	// Box is the region's location in the source image's coordinates.
	Box image.Rectangle

	// Image holds the region pixels, re-based so its bounds start at (0,0).
	Image *image.NRGBA
}

// Width returns the region width in pixels.
func (r *Region) Width() int { return r.Box.Dx() }

// Height returns the region height in pixels.
func (r *Region) Height() int { return r.Box.Dy() }

// ExtractRegion crops the part of img described by box.
//
// Out-of-range boxes are clamped silently (see RelativeBox.Rect). The call
// fails with a failure.InvalidRegion error only when the clamped box has zero
// or negative area or the image has no pixels.
//
// For any image with positive dimensions, SetIconBox always yields a
// non-empty region.
func ExtractRegion(img image.Image, box RelativeBox) (*Region, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, failure.Newf(failure.InvalidRegion, "image has no pixels")
	}

	rect := box.Rect(bounds)
	if rect.Empty() {
		return nil, failure.Newf(failure.InvalidRegion, "region %s has no area", box).
			With("box", box.String())
	}

	return &Region{
		Box:   rect,
		Image: imaging.Crop(img, rect),
	}, nil
}

// widen makes sure lo < hi within [min, max) by growing the span to one unit.
func widen(lo, hi, min, max int) (int, int) {
	if lo < hi {
		return lo, hi
	}
	if lo >= max {
		lo = max - 1
	}
	if lo < min {
		lo = min
	}
	return lo, lo + 1
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
