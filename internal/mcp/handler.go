package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sekolah/surat/internal/apperr"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// requireString extracts a required string argument from the tool request.
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

// optionalString returns a pointer to the string argument, or nil when the
// key was not sent. A present but non-string value is an error.
func optionalString(request mcp.CallToolRequest, key string) (*string, error) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("parameter %q must be a string", key)
	}
	return &s, nil
}

// optionalBool is optionalString for booleans.
func optionalBool(request mcp.CallToolRequest, key string) (*bool, error) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return nil, fmt.Errorf("parameter %q must be a boolean", key)
	}
	return &b, nil
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the client so it can correct its input; they do NOT terminate
// the MCP session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// serviceError renders a service failure as a tool error, including the
// per-field hints for validation failures.
func serviceError(err error) (*mcp.CallToolResult, error) {
	e := apperr.As(err)
	if len(e.Fields) == 0 {
		return toolError("%s: %s", e.Kind.Tag(), e.Message)
	}
	hints, _ := json.Marshal(e.Fields)
	return toolError("%s: %s %s", e.Kind.Tag(), e.Message, hints)
}
