// Package match identifies a card's set by comparing its set-icon region
// against the template library.
//
// Both the region and every template are converted to grayscale and resized
// to a canonical square (DefaultSize x DefaultSize, bilinear) before they are
// compared, so templates may be stored at any resolution.
//
// # Scoring
//
// The score is the zero-mean normalized cross-correlation of the two canonical
// images, in [-1, 1]: 1 for identical patterns, 0 for unrelated ones, -1 for an
// inverted pattern. Because the mean is subtracted and the result divided by
// both standard deviations, uniform brightness and contrast changes do not
// affect it. An image with no variance (a flat color) scores 0 against
// anything.
//
// # Selection
//
// Templates are visited in library order. The best candidate is replaced
// only on a strictly higher score, so on a tie the template loaded first
// wins. The best candidate is accepted only if its score is strictly greater
// than the matcher threshold (DefaultThreshold, 0.8); otherwise the result
// carries no identifier.
package match
