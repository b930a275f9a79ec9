/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"fmt"

	"kiosk-assistant/internal/assistant"
	"kiosk-assistant/internal/config"
	"kiosk-assistant/internal/embedding"
	"kiosk-assistant/internal/filewatch"
	"kiosk-assistant/internal/kbdatabase"
	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/llm"
	"kiosk-assistant/internal/logging"
	"kiosk-assistant/internal/mcp"
	"kiosk-assistant/internal/querylog"
	"kiosk-assistant/internal/resources"
	"kiosk-assistant/internal/routing"
	"kiosk-assistant/internal/tools"
)

// app holds the wired components shared by every command
type app struct {
	cfg          *config.Config
	store        *kbstore.Store
	router       *routing.Router
	embedder     embedding.Provider
	orchestrator *assistant.Orchestrator
	queryLog     *querylog.Store
	watcher      *filewatch.Watcher
}

// newApp builds the assistant from cfg. The knowledge store is not loaded
// here; the first question (or an explicit Load) triggers it.
func newApp(cfg *config.Config) (*app, error) {
	a := &app{
		cfg:   cfg,
		store: kbstore.New(newKnowledgeSource(cfg.Knowledge)),
	}

	router, err := newRouter(cfg.Routing)
	if err != nil {
		return nil, err
	}
	a.router = router

	if cfg.Routing.Watch {
		a.watcher, err = router.Watch(cfg.Routing.TablesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to watch routing tables: %w", err)
		}
	}

	if cfg.Embedding.Enabled {
		a.embedder, err = embedding.NewProvider(embedding.Config{
			Provider:     cfg.Embedding.Provider,
			Model:        cfg.Embedding.Model,
			GeminiAPIKey: cfg.Embedding.GeminiAPIKey,
			OpenAIAPIKey: cfg.Embedding.OpenAIAPIKey,
			VoyageAPIKey: cfg.Embedding.VoyageAPIKey,
			OllamaURL:    cfg.Embedding.OllamaURL,
			Timeout:      cfg.Embedding.Timeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create embedding provider: %w", err)
		}
	}

	var generator llm.Generator
	if cfg.LLM.Enabled {
		baseURL := ""
		if cfg.LLM.Provider == "ollama" {
			baseURL = cfg.LLM.OllamaURL
		}
		client, err := llm.NewClient(llm.Config{
			Provider:    cfg.LLM.Provider,
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey(),
			BaseURL:     baseURL,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		generator = client
	}

	var recorder assistant.Recorder
	if cfg.QueryLog.Enabled {
		a.queryLog, err = querylog.NewStore(cfg.QueryLog.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
		recorder = a.queryLog
	}

	a.orchestrator, err = assistant.New(assistant.Config{
		Store:            a.store,
		Router:           a.router,
		Embedder:         a.embedder,
		Generator:        generator,
		Threshold:        cfg.Knowledge.SimilarityThreshold,
		TopK:             cfg.Knowledge.TopK,
		DirectoryMarkers: cfg.Knowledge.DirectoryMarkers,
		Recorder:         recorder,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	logging.Info("assistant ready",
		"source", cfg.Knowledge.Source, "strategies", a.orchestrator.Strategies())
	return a, nil
}

// Close releases the query log and stops the routing watcher
func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.queryLog != nil {
		if err := a.queryLog.Close(); err != nil {
			logging.Warn("failed to close query log", "error", err)
		}
	}
}

// mcpServer exposes the assistant's tools and resources over MCP
func (a *app) mcpServer() *mcp.Server {
	registry := tools.NewRegistry()
	registry.Register(tools.AskTool(a.orchestrator))
	registry.Register(tools.SearchKnowledgeBaseTool(a.store, a.embedder, a.cfg.Knowledge.SimilarityThreshold))

	res := resources.NewRegistry()
	res.Register(resources.KnowledgeStats(a.store))
	res.Register(resources.Contacts(a.router))

	server := mcp.NewServer(registry)
	server.SetResourceProvider(res)
	return server
}

func newKnowledgeSource(cfg config.KnowledgeConfig) kbstore.Source {
	switch cfg.Source {
	case config.SourceSQLite:
		return kbdatabase.NewSQLiteSource(cfg.Path)
	case config.SourcePostgres:
		src := kbdatabase.NewPostgresSource(cfg.DSN, cfg.Table)
		src.Timeout = cfg.LoadTimeout
		return src
	default:
		return kbstore.NewFileSource(cfg.Path)
	}
}

func newRouter(cfg config.RoutingConfig) (*routing.Router, error) {
	if cfg.TablesFile == "" {
		return routing.NewDefaultRouter()
	}

	tables, err := routing.LoadTables(cfg.TablesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load routing tables: %w", err)
	}
	return routing.NewRouter(tables)
}
