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
	"fmt"
	"strings"

	"kiosk-assistant/internal/compose"
	"kiosk-assistant/internal/embedding"
	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/kbtypes"
	"kiosk-assistant/internal/logging"
	"kiosk-assistant/internal/mcp"
	"kiosk-assistant/internal/search"
	"kiosk-assistant/internal/tsv"
)

// Result limits for search_knowledge_base
const (
	DefaultSearchResults = 5
	MaxSearchResults     = 20

	// candidatePoolFactor is how many ranked candidates per requested
	// result are offered to the diversity filter
	candidatePoolFactor = 3
)

// SearchKnowledgeBaseTool creates the search_knowledge_base tool. With an
// embedding provider results are ranked by similarity, falling back to
// keyword ranking when the provider fails; without one only keyword
// ranking is used. The ranked candidates are then filtered with MMR so
// neighbouring chunks of one document do not crowd out other sources.
func SearchKnowledgeBaseTool(store *kbstore.Store, provider embedding.Provider, threshold float64) Tool {
	logger := logging.For("tools")
	lexical := search.NewLexicalRanker(store)
	ranker := search.NewRanker(store, threshold)

	return Tool{
		Definition: mcp.Tool{
			Name: "search_knowledge_base",
			Description: `Search the DGADR document knowledge base and return the most relevant excerpts.

Results are TSV with columns rank, source, page, score and excerpt. Scores are
cosine similarities for semantic ranking, or keyword scores otherwise.
Near-duplicate excerpts are filtered out; lower lambda for more variety.

<examples>
✓ {"query": "estatuto da agricultura familiar"}
✓ {"query": "regadio coletivo", "top_k": 3}
</examples>`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search text",
					},
					"top_k": map[string]interface{}{
						"type":        "integer",
						"description": fmt.Sprintf("Number of results (default: %d, max: %d)", DefaultSearchResults, MaxSearchResults),
						"default":     DefaultSearchResults,
					},
					"lambda": map[string]interface{}{
						"type":        "number",
						"description": fmt.Sprintf("MMR diversity parameter: 0.0=max diversity, 1.0=max relevance (default: %.1f)", search.DefaultLambda),
						"default":     search.DefaultLambda,
					},
				},
				Required: []string{"query"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			query, errResp := ValidateStringParam(args, "query", false)
			if errResp != nil {
				return *errResp, nil
			}
			query = strings.TrimSpace(query)
			if query == "" {
				return mcp.NewToolError("query parameter is required")
			}
			topK := ValidateIntParam(args, "top_k", DefaultSearchResults, 1, MaxSearchResults)
			lambda := search.DefaultLambda
			if v, ok := args["lambda"].(float64); ok {
				lambda = v
			}
			pool := topK * candidatePoolFactor

			store.Load(ctx)
			if store.Len() == 0 {
				return mcp.NewToolError("The knowledge base is empty")
			}

			var results []kbtypes.RankedResult
			if provider != nil {
				vector, err := provider.Embed(ctx, query)
				if err == nil {
					results, err = ranker.Rank(vector, pool)
				}
				if err != nil {
					logger.Warn("semantic search failed, using keywords", "error", err)
				}
			}
			if len(results) == 0 {
				if res := lexical.Rank(query, pool); res != nil {
					results = res.Hits
				}
			}
			if len(results) == 0 {
				return mcp.NewToolSuccess("No relevant documents found.")
			}

			results = search.NewMMRSelector(lambda).Select(results, topK)

			tokens := search.Tokenize(query)
			rows := make([][]interface{}, 0, len(results))
			for i, r := range results {
				rows = append(rows, []interface{}{
					i + 1,
					r.Chunk.Metadata.Source,
					r.Chunk.Metadata.Page,
					r.Similarity,
					compose.Excerpt(r.Chunk.Content, tokens),
				})
			}
			return mcp.NewToolSuccess(tsv.Table([]string{"rank", "source", "page", "score", "excerpt"}, rows))
		},
	}
}
