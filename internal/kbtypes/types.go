/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package kbtypes

import "time"

// ChunkMetadata identifies where a chunk came from
type ChunkMetadata struct {
	Source     string `json:"source"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunkIndex"`
}

// RawChunk is a knowledge artifact record as read from disk or a database,
// before embedding validation. Embedding elements are pointers so that
// JSON nulls survive decoding.
type RawChunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Embedding []*float64    `json:"embedding"`
	Metadata  ChunkMetadata `json:"metadata"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`
}

// Chunk represents a validated unit of ingested text with its embedding
type Chunk struct {
	ID        string
	Content   string
	Embedding []float64
	Metadata  ChunkMetadata
}

// Contact is a person or department reachable by phone
type Contact struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department"`
}

// RankedResult is a chunk scored against a query. For the lexical ranker
// Similarity holds the raw lexical score.
type RankedResult struct {
	Chunk      *Chunk
	Similarity float64
}

// Source is a citation of a chunk's origin
type Source struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

// RAGResponse is the output of a ranking path. Contacts is populated only
// when the best matching source is a phone directory.
type RAGResponse struct {
	Answer     string    `json:"answer"`
	Sources    []Source  `json:"sources"`
	Confidence float64   `json:"confidence"`
	Contacts   []Contact `json:"contacts,omitempty"`
}

// Answer is the result of processing a user question
type Answer struct {
	Answer   string    `json:"answer"`
	Contacts []Contact `json:"contacts"`

	Strategy   string   `json:"strategy,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Sources    []Source `json:"sources,omitempty"`
	OutOfScope bool     `json:"out_of_scope,omitempty"`
}

// SourcesOf returns the citations for a list of ranked results
func SourcesOf(results []RankedResult) []Source {
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			Source: r.Chunk.Metadata.Source,
			Page:   r.Chunk.Metadata.Page,
		})
	}
	return sources
}
