// Package server implements the MCP (Model Context Protocol) server for card
// identification tools.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line, and answers
// initialize, tools/list, tools/call and ping.
//
// # Available Tools
//
// Identification:
//   - card_identify: run the whole pipeline on a card photo
//
// Individual stages:
//   - card_ocr: recognized words before and after confidence filtering
//   - card_match_icon: set icon match, per-template scores, optional crop
//   - card_frame_color: average frame color
//   - card_build_query: search phrase from a list of words
//
// Marketplace and templates:
//   - marketplace_search: listings for a query
//   - templates_list: identifiers of the loaded set icons
//
// Images are addressed by path and decoded once per server process; repeated
// tool calls on the same path reuse the decoded image.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors with code -32000. When the
// failure is classified (INVALID_IMAGE, OCR_FAILED, SEARCH_FAILED, ...) the
// error data is an object carrying the code; otherwise it is the error string.
// card_identify itself only fails for unreadable images: degraded stages are
// reported in the result's warnings.
package server
