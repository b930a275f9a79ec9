/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Query Orchestrator
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package assistant

import (
	"context"
	"fmt"

	"kiosk-assistant/internal/compose"
	"kiosk-assistant/internal/embedding"
	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/kbtypes"
	"kiosk-assistant/internal/routing"
	"kiosk-assistant/internal/search"
)

// Strategy names
const (
	StrategyEmbedding = "embedding"
	StrategyLexical   = "lexical"
	StrategyScripted  = "scripted"
	StrategyError     = "error"
)

// Result is the outcome of one strategy
type Result struct {
	Response kbtypes.RAGResponse
	// Grounded is set when the answer came from the knowledge store
	Grounded bool
}

// Strategy is one way of answering a question. Attempt returns a nil
// result with a nil error when the strategy has nothing to say, and an
// error when it failed; either way the next strategy is tried.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, query string) (*Result, error)
}

// EmbeddingStrategy ranks the store by embedding similarity and composes
// the answer with the generator when one is configured
type EmbeddingStrategy struct {
	store    *kbstore.Store
	provider embedding.Provider
	ranker   *search.Ranker
	composer *compose.Composer
	topK     int
}

// NewEmbeddingStrategy creates the embedding strategy
func NewEmbeddingStrategy(store *kbstore.Store, provider embedding.Provider, composer *compose.Composer, threshold float64, topK int) *EmbeddingStrategy {
	return &EmbeddingStrategy{
		store:    store,
		provider: provider,
		ranker:   search.NewRanker(store, threshold),
		composer: composer,
		topK:     topK,
	}
}

// Name implements Strategy
func (s *EmbeddingStrategy) Name() string { return StrategyEmbedding }

// Attempt implements Strategy
func (s *EmbeddingStrategy) Attempt(ctx context.Context, query string) (*Result, error) {
	if s.store.Len() == 0 {
		return nil, nil
	}

	vector, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.ranker.Rank(vector, s.topK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	tokens := search.Tokenize(query)
	confidence := results[0].Similarity

	if extraction, hits := s.composer.Directory(results, tokens); extraction.Found() {
		return directoryResult(extraction.Intro, extraction.Contacts, hits, confidence), nil
	}

	var answer string
	if s.composer.HasGenerator() {
		answer, err = s.composer.Generate(ctx, query, results)
		if err != nil {
			return nil, err
		}
	} else {
		answer = compose.Excerpt(results[0].Chunk.Content, tokens)
	}

	return &Result{
		Response: kbtypes.RAGResponse{
			Answer:     answer,
			Sources:    kbtypes.SourcesOf(results),
			Confidence: confidence,
		},
		Grounded: true,
	}, nil
}

// LexicalStrategy ranks the store by keyword overlap, without any
// network call
type LexicalStrategy struct {
	store    *kbstore.Store
	ranker   *search.LexicalRanker
	composer *compose.Composer
	topK     int
}

// NewLexicalStrategy creates the lexical strategy
func NewLexicalStrategy(store *kbstore.Store, composer *compose.Composer, topK int) *LexicalStrategy {
	return &LexicalStrategy{
		store:    store,
		ranker:   search.NewLexicalRanker(store),
		composer: composer,
		topK:     topK,
	}
}

// Name implements Strategy
func (s *LexicalStrategy) Name() string { return StrategyLexical }

// Attempt implements Strategy
func (s *LexicalStrategy) Attempt(ctx context.Context, query string) (*Result, error) {
	res := s.ranker.Rank(query, s.topK)
	if res == nil {
		return nil, nil
	}

	if extraction, hits := s.composer.Directory(res.Hits, res.Tokens); extraction.Found() {
		return directoryResult(extraction.Intro, extraction.Contacts, hits, res.Confidence), nil
	}

	return &Result{
		Response: kbtypes.RAGResponse{
			Answer:     compose.Excerpt(res.Hits[0].Chunk.Content, res.Tokens),
			Sources:    kbtypes.SourcesOf(res.Hits),
			Confidence: res.Confidence,
		},
		Grounded: true,
	}, nil
}

// ScriptedStrategy answers from the routing rules. It always succeeds.
type ScriptedStrategy struct {
	router *routing.Router
}

// NewScriptedStrategy creates the scripted strategy
func NewScriptedStrategy(router *routing.Router) *ScriptedStrategy {
	return &ScriptedStrategy{router: router}
}

// Name implements Strategy
func (s *ScriptedStrategy) Name() string { return StrategyScripted }

// Attempt implements Strategy
func (s *ScriptedStrategy) Attempt(ctx context.Context, query string) (*Result, error) {
	return &Result{
		Response: kbtypes.RAGResponse{Answer: s.router.Respond(query)},
	}, nil
}

func directoryResult(intro string, contacts []kbtypes.Contact, hits []kbtypes.RankedResult, confidence float64) *Result {
	return &Result{
		Response: kbtypes.RAGResponse{
			Answer:     intro,
			Sources:    kbtypes.SourcesOf(hits),
			Confidence: confidence,
			Contacts:   contacts,
		},
		Grounded: true,
	}
}
