package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/card-scanner/internal/failure"
	"github.com/ironsheep/card-scanner/internal/imaging"
	"github.com/ironsheep/card-scanner/internal/marketplace"
	"github.com/ironsheep/card-scanner/internal/match"
	"github.com/ironsheep/card-scanner/internal/ocr"
	"github.com/ironsheep/card-scanner/internal/query"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "card_identify", "card_ocr").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// When the error is a classified pipeline failure its code and details are
// returned as the error data.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "err", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", errorData(err))
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "card_identify":
		return s.handleCardIdentify(ctx, args)

	case "card_ocr":
		return s.handleCardOCR(ctx, args)
	case "card_match_icon":
		return s.handleCardMatchIcon(args)
	case "card_frame_color":
		return s.handleCardFrameColor(args)
	case "card_build_query":
		return s.handleCardBuildQuery(args)

	case "marketplace_search":
		return s.handleMarketplaceSearch(ctx, args)

	case "templates_list":
		return s.handleTemplatesList()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

func errorData(err error) interface{} {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe.ToMap()
	}
	return err.Error()
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) loadPath(args json.RawMessage) (pathArgs, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return a, err
	}
	if strings.TrimSpace(a.Path) == "" {
		return a, errors.New("path is required")
	}
	return a, nil
}

// === Identification ===

func (s *Server) handleCardIdentify(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.identifier.Identify(ctx, img)
}

// === Stage Handlers ===

type cardOCRResult struct {
	Text          string         `json:"text"`
	Spans         []ocr.TextSpan `json:"spans"`
	Raw           []ocr.TextSpan `json:"raw"`
	MinConfidence float64        `json:"min_confidence"`
}

func (s *Server) handleCardOCR(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	ext, err := s.identifier.ExtractText(ctx, img)
	if err != nil {
		return nil, err
	}
	return &cardOCRResult{
		Text:          ocr.Text(ext.Spans),
		Spans:         ext.Spans,
		Raw:           ext.Raw,
		MinConfidence: s.identifier.Options().MinConfidence,
	}, nil
}

type cardMatchIconArgs struct {
	Path          string  `json:"path"`
	IncludeRegion bool    `json:"include_region"`
	Scale         float64 `json:"scale"`
}

type cardMatchIconResult struct {
	match.Result
	Threshold  float64             `json:"threshold"`
	Candidates []match.Candidate   `json:"candidates"`
	Region     *imaging.CropResult `json:"region,omitempty"`
}

func (s *Server) handleCardMatchIcon(args json.RawMessage) (interface{}, error) {
	var a cardMatchIconArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Path) == "" {
		return nil, errors.New("path is required")
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Scale < 0 {
		return nil, fmt.Errorf("scale must be positive, got %g", a.Scale)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	m, region, err := s.identifier.MatchIcon(img)
	if err != nil {
		return nil, err
	}
	candidates, err := s.identifier.RankIcon(img)
	if err != nil {
		return nil, err
	}

	out := &cardMatchIconResult{
		Result:     m,
		Threshold:  s.identifier.Options().MatchThreshold,
		Candidates: candidates,
	}
	if a.IncludeRegion {
		crop, err := region.Encode(a.Scale)
		if err != nil {
			return nil, err
		}
		out.Region = crop
	}
	return out, nil
}

func (s *Server) handleCardFrameColor(args json.RawMessage) (interface{}, error) {
	a, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	color := imaging.FrameColor(img, s.identifier.Options().FrameWidth)
	return &color, nil
}

type cardBuildQueryArgs struct {
	Texts []string `json:"texts"`
	Limit int      `json:"limit"`
}

type cardBuildQueryResult struct {
	Query string `json:"query"`
	Name  string `json:"name,omitempty"`
}

func (s *Server) handleCardBuildQuery(args json.RawMessage) (interface{}, error) {
	var a cardBuildQueryArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Limit == 0 {
		a.Limit = query.MaxTerms
	}
	if a.Limit < 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", a.Limit)
	}

	spans := make([]ocr.TextSpan, len(a.Texts))
	for i, text := range a.Texts {
		spans[i] = ocr.TextSpan{Text: text, Confidence: 1}
	}

	name, _ := query.Name(spans)
	return &cardBuildQueryResult{
		Query: query.BuildN(spans, a.Limit),
		Name:  name,
	}, nil
}

// === Marketplace ===

type marketplaceSearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type marketplaceSearchResult struct {
	Query    string                `json:"query"`
	Listings []marketplace.Listing `json:"listings"`
}

func (s *Server) handleMarketplaceSearch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a marketplaceSearchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Query) == "" {
		return nil, errors.New("query is required")
	}
	if a.Limit < 0 || a.Limit > marketplace.MaxLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d, got %d", marketplace.MaxLimit, a.Limit)
	}

	listings, err := s.identifier.Search(ctx, a.Query, a.Limit)
	if err != nil {
		return nil, err
	}
	return &marketplaceSearchResult{Query: a.Query, Listings: listings}, nil
}

// === Templates ===

type templatesListResult struct {
	Dir       string   `json:"dir,omitempty"`
	Count     int      `json:"count"`
	Templates []string `json:"templates"`
}

func (s *Server) handleTemplatesList() (interface{}, error) {
	lib := s.identifier.Templates()
	return &templatesListResult{
		Dir:       lib.Dir(),
		Count:     lib.Len(),
		Templates: lib.IDs(),
	}, nil
}
