package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// packInfoTool returns the tool definition for pack_info
func packInfoTool() mcp.Tool {
	return mcp.Tool{
		Name:        "pack_info",
		Description: "Report size, row counts, embedding dimension and a sample chunk for the loaded pack",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// searchPackTool returns the tool definition for search_pack
func searchPackTool(defaultTop int) mcp.Tool {
	return mcp.Tool{
		Name:        "search_pack",
		Description: "Hybrid search over the pack: BM25 full-text retrieval re-ranked with embedding similarity by Reciprocal Rank Fusion",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Full-text query (FTS5 syntax; retried as quoted terms on syntax errors)",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Number of results to return",
					"default":     defaultTop,
					"minimum":     1,
				},
				"fts_only": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, rank by BM25 only and skip embedding similarity",
					"default":     false,
				},
			},
			Required: []string{"query"},
		},
	}
}

// verifyPackTool returns the tool definition for verify_pack
func verifyPackTool() mcp.Tool {
	return mcp.Tool{
		Name:        "verify_pack",
		Description: "Run consistency checks on the pack: schema, FTS sync, orphans, embedding alignment and dimension, SQLite integrity",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
