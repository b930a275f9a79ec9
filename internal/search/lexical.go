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
	"math"
	"sort"
	"strings"

	"kiosk-assistant/internal/kbtypes"
)

// Lexical scoring weights
const (
	// TokenScore is earned by a chunk containing a query token at all
	TokenScore = 3.0
	// RepeatBonus is added per extra occurrence, up to MaxRepeats
	RepeatBonus = 0.5
	MaxRepeats  = 3
	// SynonymScore is added per synonym found; far below TokenScore
	SynonymScore = 0.25
	// CoverageBoost multiplies the score of chunks containing every token
	CoverageBoost = 1.5
	// PhraseScore is added per token when the whole query appears verbatim
	PhraseScore = 3.0
)

// Confidence bounds for lexical results
const (
	MinLexicalConfidence = 0.5
	MaxLexicalConfidence = 0.95
)

// LexicalResult is a successful lexical ranking
type LexicalResult struct {
	// Hits hold the raw lexical score in Similarity
	Hits       []kbtypes.RankedResult
	Tokens     []string
	Confidence float64
}

// LexicalRanker scores chunks by keyword overlap without any network call
type LexicalRanker struct {
	corpus Corpus
}

// NewLexicalRanker creates a lexical ranker over corpus
func NewLexicalRanker(corpus Corpus) *LexicalRanker {
	return &LexicalRanker{corpus: corpus}
}

// Rank returns the topK chunks with a positive score, or nil when the query
// has no scoreable tokens or nothing matches
func (l *LexicalRanker) Rank(query string, topK int) *LexicalResult {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	syns := ExpandSynonyms(tokens)
	phrase := strings.ToLower(query)

	var hits []kbtypes.RankedResult
	for _, entry := range l.corpus.Entries() {
		score := ScoreContent(entry.Content, phrase, tokens, syns)
		if score > 0 {
			hits = append(hits, kbtypes.RankedResult{Chunk: entry, Similarity: score})
		}
	}
	if len(hits) == 0 {
		return nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	return &LexicalResult{
		Hits:       hits,
		Tokens:     tokens,
		Confidence: LexicalConfidence(hits[0].Similarity, len(tokens)),
	}
}

// ScoreContent scores one chunk's text. phrase is the lowercased original
// query, tokens the primary tokens and syns their disjoint synonyms.
func ScoreContent(content, phrase string, tokens, syns []string) float64 {
	text := strings.ToLower(content)

	score := 0.0
	matched := 0
	for _, token := range tokens {
		count := strings.Count(text, token)
		if count == 0 {
			continue
		}
		matched++
		score += TokenScore + float64(min(count-1, MaxRepeats))*RepeatBonus
	}

	for _, syn := range syns {
		if strings.Contains(text, syn) {
			score += SynonymScore
		}
	}

	if matched == len(tokens) {
		score *= CoverageBoost
	}

	if phrase != "" && strings.Contains(text, phrase) {
		score += float64(len(tokens)) * PhraseScore
	}

	return score
}

// LexicalConfidence maps the best score to [0.5, 0.95] by its ratio to the
// score of a chunk matching every token once
func LexicalConfidence(best float64, tokenCount int) float64 {
	if tokenCount <= 0 {
		return MinLexicalConfidence
	}
	ratio := math.Min(best/(float64(tokenCount)*TokenScore), 1)
	if ratio < 0 {
		ratio = 0
	}
	return math.Min(MinLexicalConfidence+ratio*(MaxLexicalConfidence-MinLexicalConfidence), MaxLexicalConfidence)
}
