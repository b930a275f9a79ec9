/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - MCP Tools
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package tools

import (
	"fmt"

	"kiosk-assistant/internal/mcp"
)

// ValidateStringParam extracts a string parameter. An empty string is
// accepted only when allowEmpty is set.
func ValidateStringParam(args map[string]interface{}, name string, allowEmpty bool) (string, *mcp.ToolResponse) {
	value, ok := args[name].(string)
	if !ok || (!allowEmpty && value == "") {
		resp, _ := mcp.NewToolError(fmt.Sprintf("Missing or invalid '%s' argument", name))
		return "", &resp
	}
	return value, nil
}

// ValidateIntParam extracts an optional integer parameter clamped to
// [minValue, maxValue]. JSON numbers arrive as float64.
func ValidateIntParam(args map[string]interface{}, name string, defaultValue, minValue, maxValue int) int {
	value, ok := args[name].(float64)
	if !ok {
		return defaultValue
	}
	n := int(value)
	if n < minValue {
		return minValue
	}
	if n > maxValue {
		return maxValue
	}
	return n
}
