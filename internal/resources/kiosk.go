/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - MCP Resources
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/mcp"
	"kiosk-assistant/internal/routing"
	"kiosk-assistant/internal/tsv"
)

// Resource URIs
const (
	URIKnowledgeStats = "kiosk://kb/stats"
	URIContacts       = "kiosk://routing/contacts"
)

// KnowledgeStats describes the loaded knowledge store as JSON
func KnowledgeStats(store *kbstore.Store) Resource {
	return Resource{
		Definition: mcp.Resource{
			URI:         URIKnowledgeStats,
			Name:        "Knowledge Base Statistics",
			Description: "Number of chunks per source document and the embedding dimensions",
			MimeType:    "application/json",
		},
		Handler: func(ctx context.Context) (mcp.ResourceContent, error) {
			store.Load(ctx)
			data, err := json.MarshalIndent(store.Stats(), "", "  ")
			if err != nil {
				return mcp.ResourceContent{}, fmt.Errorf("failed to marshal stats: %w", err)
			}
			return mcp.NewResourceSuccess(URIKnowledgeStats, "application/json", string(data))
		},
	}
}

// Contacts lists the internal contact directory used for routing
func Contacts(router *routing.Router) Resource {
	return Resource{
		Definition: mcp.Resource{
			URI:         URIContacts,
			Name:        "DGADR Contact Directory",
			Description: "Internal contacts questions are routed to, as TSV",
			MimeType:    "text/tab-separated-values",
		},
		Handler: func(ctx context.Context) (mcp.ResourceContent, error) {
			return mcp.NewResourceSuccess(URIContacts, "text/tab-separated-values", tsv.Contacts(router.Contacts()))
		},
	}
}
