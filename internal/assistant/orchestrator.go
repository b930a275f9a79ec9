/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Query Orchestrator
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package assistant answers kiosk questions. It tries each answering
// strategy in turn and then applies the routing policy to the winning
// answer: scope redirects, contact selection and procedure text.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kiosk-assistant/internal/compose"
	"kiosk-assistant/internal/embedding"
	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/kbtypes"
	"kiosk-assistant/internal/llm"
	"kiosk-assistant/internal/logging"
	"kiosk-assistant/internal/routing"
	"kiosk-assistant/internal/search"
)

// Recorder receives every processed question
type Recorder interface {
	Record(ctx context.Context, query string, answer kbtypes.Answer, elapsed time.Duration) error
}

// Config wires the orchestrator
type Config struct {
	Store  *kbstore.Store
	Router *routing.Router

	// Embedder enables the embedding strategy; nil skips it
	Embedder embedding.Provider
	// Generator composes answers on the embedding path; nil excerpts
	Generator llm.Generator

	Threshold        float64
	TopK             int
	DirectoryMarkers []string

	// Strategies replaces the chain built from the fields above
	Strategies []Strategy

	Recorder Recorder
}

// Orchestrator turns a question into an Answer
type Orchestrator struct {
	store      *kbstore.Store
	router     *routing.Router
	strategies []Strategy
	recorder   Recorder
	logger     *logging.Logger
}

// New creates an orchestrator
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("knowledge store is required")
	}
	if cfg.Router == nil {
		return nil, errors.New("router is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = search.DefaultTopK
	}

	strategies := cfg.Strategies
	if len(strategies) == 0 {
		composer := compose.New(cfg.Generator, cfg.DirectoryMarkers)
		if cfg.Embedder != nil {
			strategies = append(strategies, NewEmbeddingStrategy(cfg.Store, cfg.Embedder, composer, cfg.Threshold, cfg.TopK))
		}
		strategies = append(strategies,
			NewLexicalStrategy(cfg.Store, composer, cfg.TopK),
			NewScriptedStrategy(cfg.Router),
		)
	}

	return &Orchestrator{
		store:      cfg.Store,
		router:     cfg.Router,
		strategies: strategies,
		recorder:   cfg.Recorder,
		logger:     logging.For("assistant"),
	}, nil
}

// Strategies returns the names of the strategies in the order tried
func (o *Orchestrator) Strategies() []string {
	names := make([]string, 0, len(o.strategies))
	for _, s := range o.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Store returns the knowledge store
func (o *Orchestrator) Store() *kbstore.Store {
	return o.store
}

// ProcessQuery answers a question. It never fails: any internal error
// yields the fixed error answer with the default contact.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query string) kbtypes.Answer {
	start := time.Now()
	answer := o.process(ctx, query)
	elapsed := time.Since(start)

	o.logger.Info("query processed",
		"strategy", answer.Strategy,
		"contacts", len(answer.Contacts),
		"out_of_scope", answer.OutOfScope,
		"elapsed", elapsed.Round(time.Millisecond))

	if o.recorder != nil {
		if err := o.recorder.Record(ctx, query, answer, elapsed); err != nil {
			o.logger.Warn("failed to record query", "error", err)
		}
	}
	return answer
}

func (o *Orchestrator) process(ctx context.Context, query string) (answer kbtypes.Answer) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("query processing panicked", "panic", fmt.Sprint(r))
			answer = o.errorAnswer()
		}
	}()

	o.store.Load(ctx)

	result, strategy := o.attempt(ctx, query)
	return o.apply(query, result, strategy)
}

// attempt runs the strategies in order and returns the first answer
func (o *Orchestrator) attempt(ctx context.Context, query string) (*Result, string) {
	for _, s := range o.strategies {
		result, err := s.Attempt(ctx, query)
		if err != nil {
			o.logger.Warn("strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		if result != nil {
			o.logger.Debug("strategy answered", "strategy", s.Name(), "grounded", result.Grounded)
			return result, s.Name()
		}
	}

	// Only reachable with a custom chain lacking the scripted strategy
	return &Result{Response: kbtypes.RAGResponse{Answer: o.router.Defaults().Answer}}, StrategyScripted
}

// apply merges a strategy result with the routing decision
func (o *Orchestrator) apply(query string, result *Result, strategy string) kbtypes.Answer {
	d := o.router.Route(query)
	defaults := d.Defaults
	resp := result.Response

	outOfScope := d.OutOfScope || (d.Undetermined() && !result.Grounded)
	if outOfScope {
		if d.Irrelevant {
			return kbtypes.Answer{
				Answer:     defaults.IrrelevantAnswer,
				Contacts:   []kbtypes.Contact{},
				Strategy:   strategy,
				OutOfScope: true,
			}
		}
		return kbtypes.Answer{
			Answer:     defaults.OutOfScopeAnswer,
			Contacts:   firstNonEmpty(d.External, []kbtypes.Contact{defaults.Contact}),
			Strategy:   strategy,
			OutOfScope: true,
		}
	}

	answer := kbtypes.Answer{
		Answer:     resp.Answer,
		Strategy:   strategy,
		Confidence: resp.Confidence,
		Sources:    resp.Sources,
	}

	if o.router.IsNoInformation(resp.Answer) {
		answer.Answer = o.router.Respond(query)
		answer.Confidence = 0
		answer.Sources = nil
	}

	answer.Contacts = firstNonEmpty(
		resp.Contacts,
		d.Contacts,
		d.DivisionContacts,
		[]kbtypes.Contact{defaults.Contact},
	)

	if len(resp.Contacts) == 0 {
		if extra := append(append([]string{}, d.Procedures...), d.Legislation...); len(extra) > 0 {
			answer.Answer = strings.TrimSpace(answer.Answer + "\n\n" + strings.Join(extra, "\n\n"))
		}
	}

	return answer
}

func (o *Orchestrator) errorAnswer() kbtypes.Answer {
	defaults := o.router.Defaults()
	return kbtypes.Answer{
		Answer:   defaults.ErrorAnswer,
		Contacts: []kbtypes.Contact{defaults.Contact},
		Strategy: StrategyError,
	}
}

func firstNonEmpty(lists ...[]kbtypes.Contact) []kbtypes.Contact {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return []kbtypes.Contact{}
}
