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
	"context"
	"strings"

	"kiosk-assistant/internal/kbtypes"
	"kiosk-assistant/internal/mcp"
	"kiosk-assistant/internal/tsv"
)

// Answerer answers a kiosk question
type Answerer interface {
	ProcessQuery(ctx context.Context, query string) kbtypes.Answer
}

// AskTool creates the ask tool, which runs the full question pipeline
func AskTool(answerer Answerer) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name: "ask",
			Description: `Answer a visitor question about DGADR services, exactly as the kiosk would.

Returns the answer text followed by the contacts to show the visitor as TSV
(name, phone, email, department). Questions outside DGADR competences get a
redirect sentence and, when known, the contacts of the competent body.

<examples>
✓ {"question": "qual o contacto da Manuela Joia"}
✓ {"question": "Como funciona o regadio?"}
</examples>`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"question": map[string]interface{}{
						"type":        "string",
						"description": "The visitor's question, in Portuguese",
					},
				},
				Required: []string{"question"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			question, errResp := ValidateStringParam(args, "question", true)
			if errResp != nil {
				return *errResp, nil
			}

			answer := answerer.ProcessQuery(ctx, question)

			var sb strings.Builder
			sb.WriteString(answer.Answer)
			if len(answer.Contacts) > 0 {
				sb.WriteString("\n\n")
				sb.WriteString(tsv.Contacts(answer.Contacts))
			}
			return mcp.NewToolSuccess(sb.String())
		},
	}
}
