/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package search

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"kiosk-assistant/internal/kbtypes"
)

// DefaultThreshold is the minimum cosine similarity for a result to count
// as relevant
const DefaultThreshold = 0.5

// DefaultTopK is the number of results considered per query
const DefaultTopK = 5

// ErrDimensionMismatch is returned when a query vector's length differs
// from the store's embeddings
var ErrDimensionMismatch = errors.New("query embedding dimension does not match knowledge base")

// Corpus is the read-only view of the knowledge store used for ranking
type Corpus interface {
	Entries() []*kbtypes.Chunk
	Dimensions() int
}

// CosineSimilarity returns dot(a,b)/(|a||b|). A zero-magnitude vector has
// similarity 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}

// Ranker scores query embeddings against every chunk in a corpus
type Ranker struct {
	corpus    Corpus
	threshold float64
}

// NewRanker creates a ranker. A non-positive threshold selects
// DefaultThreshold.
func NewRanker(corpus Corpus, threshold float64) *Ranker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Ranker{corpus: corpus, threshold: threshold}
}

// Threshold returns the acceptance threshold in use
func (r *Ranker) Threshold() float64 {
	return r.threshold
}

// Rank returns up to topK chunks ordered by similarity, ties in store
// order, keeping only those at or above the threshold. An empty result
// means nothing was relevant.
func (r *Ranker) Rank(query []float64, topK int) ([]kbtypes.RankedResult, error) {
	entries := r.corpus.Entries()
	if len(entries) == 0 {
		return nil, nil
	}
	if dims := r.corpus.Dimensions(); len(query) != dims {
		return nil, fmt.Errorf("%w: query has %d, store has %d", ErrDimensionMismatch, len(query), dims)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	results := make([]kbtypes.RankedResult, len(entries))
	for i, e := range entries {
		results[i] = kbtypes.RankedResult{
			Chunk:      e,
			Similarity: CosineSimilarity(query, e.Embedding),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > topK {
		results = results[:topK]
	}

	relevant := results[:0]
	for _, res := range results {
		if res.Similarity >= r.threshold {
			relevant = append(relevant, res)
		}
	}
	return relevant, nil
}
