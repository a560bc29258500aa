package imaging

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains a color value in several representations.
type ColorResult struct {
	Hex string   `json:"hex"` // "#rrggbb"
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`
}

// DefaultFrameWidth is the fraction of the shorter side sampled by FrameColor.
const DefaultFrameWidth = 0.04

// FrameColor returns the average color of the card frame.
//
// The frame is the band of pixels along all four edges whose thickness is
// frameWidth times the shorter image side (at least one pixel). Trading card
// frames are a strong hint of the card's era and print run, so the value is
// reported alongside identification results for diagnostics.
//
// Averaging is performed in linear RGB so bright borders are not darkened by
// gamma. An image without pixels yields a zero ColorResult.
func FrameColor(img image.Image, frameWidth float64) ColorResult {
	bounds := img.Bounds()
	if bounds.Empty() {
		return ColorResult{}
	}

	short := bounds.Dx()
	if bounds.Dy() < short {
		short = bounds.Dy()
	}
	band := int(math.Round(float64(short) * frameWidth))
	if band < 1 {
		band = 1
	}

	var sumR, sumG, sumB float64
	var n int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !inFrame(x, y, bounds, band) {
				continue
			}
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				// Fully transparent pixel.
				continue
			}
			r, g, b := c.LinearRgb()
			sumR += r
			sumG += g
			sumB += b
			n++
		}
	}

	if n == 0 {
		return ColorResult{}
	}

	avg := colorful.LinearRgb(sumR/float64(n), sumG/float64(n), sumB/float64(n)).Clamped()
	return describeColor(avg)
}

func inFrame(x, y int, bounds image.Rectangle, band int) bool {
	return x < bounds.Min.X+band || x >= bounds.Max.X-band ||
		y < bounds.Min.Y+band || y >= bounds.Max.Y-band
}

func describeColor(c colorful.Color) ColorResult {
	r, g, b := c.RGB255()
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	return ColorResult{
		Hex: c.Hex(),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}
