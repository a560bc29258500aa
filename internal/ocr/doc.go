// Package ocr provides the text-recognition stage of the card pipeline.
//
// The package is built around the Engine interface: anything that turns an
// image into word-level TextSpans with confidences in [0, 1]. Tesseract (via
// gosseract/v2) is the production engine; tests substitute fakes.
//
// # Prerequisites
//
// The Tesseract engine requires cgo and the Tesseract/Leptonica libraries:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Without cgo, NewTesseract returns ErrUnavailable and the pipeline runs with
// OCR disabled (every card is reported with a null name).
//
// # Confidence Filtering
//
// Tesseract reports per-word confidence as 0-100; spans carry it as 0-1.
// Filter drops every span whose confidence is at or below a threshold
// (DefaultMinConfidence, 0.5). Filtering keeps the engine's reading order and
// is idempotent.
//
// # Concurrency
//
// gosseract clients are not safe for concurrent use. Pool owns a fixed number
// of engines and lends one to each caller; a pool of size one serializes all
// recognition. Pool itself implements Engine.
//
// # Error Handling
//
// Engine failures are reported as OCR_FAILED errors (see package failure).
// They are recoverable: the pipeline records a warning and continues without
// a card name.
package ocr
