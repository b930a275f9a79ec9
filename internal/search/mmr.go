/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Result Diversification
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package search

import (
	"math"

	"kiosk-assistant/internal/kbtypes"
)

// DefaultLambda favours relevance while still skipping near-duplicates
const DefaultLambda = 0.6

// MMRSelector implements Maximal Marginal Relevance for diversity filtering
type MMRSelector struct {
	lambda float64 // Balance between relevance (1.0) and diversity (0.0)
}

// NewMMRSelector creates a new MMR selector
// lambda: 0.0 = maximum diversity, 1.0 = maximum relevance
func NewMMRSelector(lambda float64) *MMRSelector {
	if lambda < 0.0 {
		lambda = 0.0
	}
	if lambda > 1.0 {
		lambda = 1.0
	}
	return &MMRSelector{lambda: lambda}
}

// Lambda returns the relevance weight in use
func (m *MMRSelector) Lambda() float64 {
	return m.lambda
}

// Select picks up to maxResults results from a ranking ordered by
// descending Similarity. The first pick is always the best ranked result;
// each later pick trades relevance against similarity to what is already
// selected. Selected results keep their original scores.
func (m *MMRSelector) Select(results []kbtypes.RankedResult, maxResults int) []kbtypes.RankedResult {
	if maxResults <= 0 || len(results) <= maxResults {
		return results
	}

	// Lexical scores are unbounded, so relevance is taken relative to the best
	maxScore := results[0].Similarity
	if maxScore <= 0 {
		maxScore = 1.0
	}

	remaining := make([]int, len(results))
	for i := range remaining {
		remaining[i] = i
	}
	selected := make([]kbtypes.RankedResult, 0, maxResults)

	for len(selected) < maxResults && len(remaining) > 0 {
		bestPos := -1
		bestScore := -math.MaxFloat64

		for pos, idx := range remaining {
			candidate := results[idx]
			relevance := candidate.Similarity / maxScore
			score := m.lambda*relevance + (1.0-m.lambda)*m.diversityScore(candidate, selected)

			if score > bestScore {
				bestScore = score
				bestPos = pos
			}
		}

		selected = append(selected, results[remaining[bestPos]])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	return selected
}

// diversityScore is 1 minus the highest similarity to any selected result
func (m *MMRSelector) diversityScore(candidate kbtypes.RankedResult, selected []kbtypes.RankedResult) float64 {
	if len(selected) == 0 {
		return 1.0
	}

	maxSimilarity := 0.0
	for _, s := range selected {
		if sim := chunkSimilarity(candidate.Chunk, s.Chunk); sim > maxSimilarity {
			maxSimilarity = sim
		}
	}
	return 1.0 - maxSimilarity
}

// chunkSimilarity estimates how much two chunks overlap, from 0.0 to 1.0
func chunkSimilarity(a, b *kbtypes.Chunk) float64 {
	if a == nil || b == nil {
		return 0.0
	}
	if a.ID != "" && a.ID == b.ID {
		return 1.0
	}

	if a.Metadata.Source == b.Metadata.Source {
		// Neighbouring chunks of one document usually repeat each other
		if abs(a.Metadata.ChunkIndex-b.Metadata.ChunkIndex) <= 1 {
			return 0.9
		}
		if a.Metadata.Page == b.Metadata.Page {
			return 0.6
		}
	}

	return jaccardSimilarity(a.Content, b.Content)
}

// jaccardSimilarity is |A ∩ B| / |A ∪ B| over the content tokens
func jaccardSimilarity(text1, text2 string) float64 {
	tokens1 := Tokenize(text1)
	tokens2 := Tokenize(text2)

	if len(tokens1) == 0 && len(tokens2) == 0 {
		return 1.0
	}
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	set1 := make(map[string]bool, len(tokens1))
	for _, token := range tokens1 {
		set1[token] = true
	}
	set2 := make(map[string]bool, len(tokens2))
	for _, token := range tokens2 {
		set2[token] = true
	}

	intersection := 0
	for token := range set1 {
		if set2[token] {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection

	return float64(intersection) / float64(union)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
