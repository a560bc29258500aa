// Package imaging provides the image plumbing used by the card scanner.
//
// It decodes uploaded photos, caches images loaded from disk, derives the
// sub-regions the identification pipeline inspects (most importantly the
// set-icon corner), converts images to grayscale, and samples the card frame
// colour for diagnostics. All operations work with standard Go image.Image
// values and never mutate their input.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner:
//   - X increases rightward, Y increases downward
//   - Rectangles follow image.Rectangle: Min is inclusive, Max is exclusive
//
// Regions of interest are described with a RelativeBox, whose fractions are
// scaled by the image width and height and truncated to whole pixels. The
// default SetIconBox covers the bottom-right 15% of the card.
//
// # Out-of-Bounds Boxes
//
// ExtractRegion clamps boxes silently: fractions outside [0,1] are pulled back
// into range, and the resulting pixel rectangle is clipped to the image. Only
// a box that is empty after clamping is rejected, with a failure.InvalidRegion
// error.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Every other function is stateless and
// may be called concurrently on the same image.
//
// # Error Handling
//
// Decode returns failure.InvalidImage errors for bytes that are not a PNG,
// JPEG or GIF image. Region helpers return failure.InvalidRegion errors.
package imaging
