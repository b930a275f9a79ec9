/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Answer Composer
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package compose turns ranked chunks into a short answer, either through
// a text generator or by excerpting the best chunk locally
package compose

import (
	"context"
	"errors"
	"fmt"

	"kiosk-assistant/internal/directory"
	"kiosk-assistant/internal/kbtypes"
	"kiosk-assistant/internal/llm"
)

// ErrGeneration wraps any failure of the text generator
var ErrGeneration = errors.New("answer generation failed")

// Composer builds answers for ranked results
type Composer struct {
	generator llm.Generator
	markers   []string
}

// New creates a composer. gen may be nil, in which case Generate always
// fails and callers fall back to Excerpt. markers identify phone directory
// sources; nil selects the default.
func New(gen llm.Generator, markers []string) *Composer {
	return &Composer{generator: gen, markers: markers}
}

// HasGenerator reports whether a text generator is configured
func (c *Composer) HasGenerator() bool {
	return c.generator != nil
}

// Generate asks the generator for an answer grounded in results. Results
// must be non-empty and in rank order.
func (c *Composer) Generate(ctx context.Context, query string, results []kbtypes.RankedResult) (string, error) {
	if c.generator == nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, llm.ErrNotConfigured)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("%w: no context", ErrGeneration)
	}

	answer, err := c.generator.Generate(ctx, llm.Request{
		SystemPrompt: SystemPrompt,
		Context:      BuildContext(results),
		Query:        query,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return answer, nil
}

// Directory extracts contacts when the best result is a phone directory.
// The text of every directory result is combined before parsing. The
// returned sources cite only the directory results.
func (c *Composer) Directory(results []kbtypes.RankedResult, tokens []string) (directory.Extraction, []kbtypes.RankedResult) {
	if len(results) == 0 || !c.IsDirectory(results[0].Chunk.Metadata.Source) {
		return directory.Extraction{}, nil
	}

	var hits []kbtypes.RankedResult
	var text string
	for _, r := range results {
		if !c.IsDirectory(r.Chunk.Metadata.Source) {
			continue
		}
		if len(hits) > 0 {
			text += "\n\n"
		}
		text += r.Chunk.Content
		hits = append(hits, r)
	}

	extraction := directory.Extract(text, tokens)
	if !extraction.Found() {
		return directory.Extraction{}, nil
	}
	return extraction, hits
}

// IsDirectory reports whether source names a phone directory
func (c *Composer) IsDirectory(source string) bool {
	return directory.IsDirectorySource(source, c.markers)
}
