package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the card photo",
	}
}

func pathOnlySchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": pathProperty(),
		},
		"required": []string{"path"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Identification
		{
			Name:        "card_identify",
			Description: "Identify a trading card photo: read its text, match the set icon in the bottom-right corner, and look up comparable marketplace listings. Stages that fail are reported as warnings instead of aborting.",
			InputSchema: pathOnlySchema(),
		},

		// Individual stages
		{
			Name:        "card_ocr",
			Description: "Run text recognition on a card photo. Returns every recognized word plus the words kept after confidence filtering.",
			InputSchema: pathOnlySchema(),
		},
		{
			Name:        "card_match_icon",
			Description: "Match the set icon region of a card against the template library. Returns the best set, its score, a score for every template, and optionally the cropped icon as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"include_region": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the cropped icon region as base64 PNG (default: false)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the returned icon crop (default: 1.0)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "card_frame_color",
			Description: "Report the average color of the card's outer frame as hex, RGB, and HSL.",
			InputSchema: pathOnlySchema(),
		},
		{
			Name:        "card_build_query",
			Description: "Build a marketplace search phrase from recognized words, keeping the first three in order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"texts": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Recognized words in reading order",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Number of words to keep (default: 3)",
					},
				},
				"required": []string{"texts"},
			},
		},

		// Marketplace
		{
			Name:        "marketplace_search",
			Description: "Search the marketplace for listings matching a query.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search phrase",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of listings (default: 5, max: 100)",
					},
				},
				"required": []string{"query"},
			},
		},

		// Templates
		{
			Name:        "templates_list",
			Description: "List the set icon templates currently loaded.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
