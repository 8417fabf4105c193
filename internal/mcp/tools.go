package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/packcheck/internal/searcher"
	"github.com/dshills/packcheck/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodePackNotFound   = -32001 // Pack file is missing
	ErrorCodeProviderFailed = -32002 // Embedding provider could not embed the query
)

// handlePackInfo handles the pack_info tool invocation
func (s *Server) handlePackInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.backend.Info(ctx)
	if err != nil {
		return nil, s.toolError("pack_info", err)
	}
	return mcp.NewToolResultText(formatJSON(stats)), nil
}

// handleSearchPack handles the search_pack tool invocation
func (s *Server) handleSearchPack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	top, ok := getIntDefault(args, "top", s.defaultTop)
	if !ok || top < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top must be a positive integer", map[string]interface{}{
			"param": "top",
			"value": args["top"],
		})
	}

	ftsOnly, ok := getBoolDefault(args, "fts_only", false)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "fts_only must be a boolean", map[string]interface{}{
			"param": "fts_only",
			"value": args["fts_only"],
		})
	}

	resp, err := s.backend.Search(ctx, searcher.SearchRequest{
		Query:    query,
		Top:      top,
		FTSOnly:  ftsOnly,
		UseCache: true,
	})
	if err != nil {
		return nil, s.toolError("search_pack", err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"pack":     s.backend.PackPath(),
		"response": resp,
	})), nil
}

// handleVerifyPack handles the verify_pack tool invocation
func (s *Server) handleVerifyPack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.backend.Verify(ctx)
	if err != nil {
		return nil, s.toolError("verify_pack", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"ok":     report.OK(),
		"report": report,
	})), nil
}

// Helper functions

// toolError maps a backend error onto an MCP error code.
func (s *Server) toolError(tool string, err error) error {
	s.logger.Warn("tool call failed", zap.String("tool", tool), zap.Error(err))

	data := map[string]interface{}{"error": err.Error()}
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		return newMCPError(ErrorCodeInvalidParams, "invalid argument", data)
	case errors.Is(err, types.ErrPackNotFound):
		return newMCPError(ErrorCodePackNotFound, "pack not found", data)
	case errors.Is(err, types.ErrProviderUnavailable):
		return newMCPError(ErrorCodeProviderFailed, "embedding provider unavailable", data)
	default:
		return newMCPError(ErrorCodeInternalError, tool+" failed", data)
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// arguments returns the call arguments; absent arguments are an empty map.
func arguments(request mcp.CallToolRequest) (map[string]interface{}, bool) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, true
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	return args, ok
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value. ok is false
// when the key is present with another type.
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) (bool, bool) {
	raw, present := args[key]
	if !present || raw == nil {
		return defaultValue, true
	}
	val, ok := raw.(bool)
	return val, ok
}

// getIntDefault extracts an integer parameter with a default value. JSON numbers
// arrive as float64 and must be whole.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) (int, bool) {
	raw, present := args[key]
	if !present || raw == nil {
		return defaultValue, true
	}
	switch val := raw.(type) {
	case float64:
		if val != float64(int(val)) {
			return 0, false
		}
		return int(val), true
	case int:
		return val, true
	default:
		return 0, false
	}
}
