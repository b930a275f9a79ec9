/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - MCP Server
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package mcp

// Scanner buffer sizes for the stdio transport
const (
	ScannerInitialBufferSize = 64 * 1024
	// ScannerMaxBufferSize bounds a single message
	ScannerMaxBufferSize = 1024 * 1024
)

// NewToolError creates a standardized error response for tools
func NewToolError(message string) (ToolResponse, error) {
	return ToolResponse{
		Content: []ContentItem{{Type: "text", Text: message}},
		IsError: true,
	}, nil
}

// NewToolSuccess creates a standardized success response for tools
func NewToolSuccess(message string) (ToolResponse, error) {
	return ToolResponse{
		Content: []ContentItem{{Type: "text", Text: message}},
	}, nil
}

// NewResourceSuccess creates a standardized success response for resources
func NewResourceSuccess(uri, mimeType, content string) (ResourceContent, error) {
	return ResourceContent{
		URI:      uri,
		MimeType: mimeType,
		Contents: []ContentItem{{Type: "text", Text: content}},
	}, nil
}
