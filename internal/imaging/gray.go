package imaging

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Grayscale converts any image to an 8-bit grayscale image of the same size.
//
// Images that are already *image.Gray are copied rather than converted so
// callers can rely on owning the result.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		out := image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
		draw.Draw(out, out.Bounds(), g, g.Bounds().Min, draw.Src)
		return out
	}
	rgba := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	b := rgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = row[x*4]
		}
	}
	return out
}

// ResizeGray scales img to exactly width x height and returns the luminance
// of every pixel in row-major order, in the range [0, 255].
//
// Bilinear filtering is used, matching the interpolation the set-icon
// templates were prepared with.
func ResizeGray(img image.Image, width, height int) []float64 {
	resized := imaging.Resize(Grayscale(img), width, height, imaging.Linear)

	out := make([]float64, 0, width*height)
	for y := 0; y < height; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+width*4]
		for x := 0; x < width; x++ {
			// Gray input keeps R == G == B, so the red channel is the luminance.
			out = append(out, float64(row[x*4]))
		}
	}
	return out
}
