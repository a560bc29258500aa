// Package pipeline orchestrates card identification.
//
// An Identifier runs the stages for one card photo in a fixed order:
//
//	Start -> RegionExtracted -> OCRComplete -> MatchComplete -> QueryBuilt -> SearchComplete -> Done
//
// Only an undecodable image aborts the run (INVALID_IMAGE). Every other
// failure degrades the result instead:
//
//   - region failure: card_set is null
//   - OCR failure or no confident text: name is null and the query is empty
//   - empty query: the marketplace is not called and listings is empty
//   - search failure or timeout: listings is empty
//
// Each degraded stage is logged at WARN and recorded in Result.Warnings, so
// callers always receive a structurally complete Result for any decodable
// image.
//
// # Dependencies
//
// Templates, the OCR engine and the marketplace searcher are injected through
// Config. The OCR engine is expected to be safe for concurrent use (wrap
// gosseract clients in an ocr.Pool). The template source is consulted once
// per run, so a concurrent reload never changes the library mid-match.
package pipeline
