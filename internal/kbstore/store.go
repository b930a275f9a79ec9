/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Knowledge Store
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package kbstore holds the in-memory knowledge base that every ranking
// path queries. The store is loaded once per process from a Source.
package kbstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"kiosk-assistant/internal/kbtypes"
	"kiosk-assistant/internal/logging"
)

// ErrNoValidEntries is returned by Validate when nothing survives validation
var ErrNoValidEntries = errors.New("knowledge artifact has no valid embeddings")

// Source provides the raw knowledge artifact
type Source interface {
	Load(ctx context.Context) ([]kbtypes.RawChunk, error)
	Describe() string
}

// Store is an immutable-after-load collection of validated chunks
type Store struct {
	source Source
	group  singleflight.Group
	logger *logging.Logger

	mu      sync.RWMutex
	loaded  bool
	entries []*kbtypes.Chunk
	dims    int
}

// New creates a store that will read from src on first Load
func New(src Source) *Store {
	return &Store{
		source: src,
		logger: logging.For("kbstore"),
	}
}

// NewLoaded creates a store that is already loaded with the given chunks.
// Chunks are validated the same way as a loaded artifact.
func NewLoaded(chunks []kbtypes.Chunk) *Store {
	raw := make([]kbtypes.RawChunk, 0, len(chunks))
	for _, c := range chunks {
		raw = append(raw, ToRaw(c))
	}
	s := New(nil)
	entries, dims, _ := Validate(raw)
	s.entries = entries
	s.dims = dims
	s.loaded = true
	return s
}

// Load reads the artifact once. Concurrent callers share the in-flight
// attempt; once it finishes the store is permanently loaded, possibly
// empty. Load never reports failure to the caller.
func (s *Store) Load(ctx context.Context) {
	if s.Loaded() {
		return
	}

	// The shared attempt must not die with whichever caller started it
	ctx = context.WithoutCancel(ctx)

	_, _, _ = s.group.Do("load", func() (interface{}, error) {
		if s.Loaded() {
			return nil, nil
		}

		entries, dims, err := s.read(ctx)
		if err != nil {
			s.logger.Error("knowledge base load failed, continuing with empty store",
				"source", s.describe(), "error", err)
		} else {
			s.logger.Info("knowledge base loaded",
				"source", s.describe(), "entries", len(entries), "dimensions", dims)
		}

		s.mu.Lock()
		s.entries = entries
		s.dims = dims
		s.loaded = true
		s.mu.Unlock()
		return nil, nil
	})
}

func (s *Store) read(ctx context.Context) ([]*kbtypes.Chunk, int, error) {
	if s.source == nil {
		return nil, 0, errors.New("no knowledge source configured")
	}

	raw, err := s.source.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read knowledge artifact: %w", err)
	}

	entries, dims, dropped := Validate(raw)
	if dropped > 0 {
		s.logger.Warn("dropped invalid knowledge entries", "dropped", dropped, "kept", len(entries))
	}
	if len(entries) == 0 {
		return nil, 0, ErrNoValidEntries
	}
	return entries, dims, nil
}

func (s *Store) describe() string {
	if s.source == nil {
		return "none"
	}
	return s.source.Describe()
}

// Loaded reports whether a load attempt has completed
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Entries returns the loaded chunks in artifact order. Callers must not
// modify the returned chunks.
func (s *Store) Entries() []*kbtypes.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

// Len returns the number of loaded chunks
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Dimensions returns the embedding length shared by every chunk, or 0
// for an empty store
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims
}

// SourceCount is the number of chunks loaded from one origin document
type SourceCount struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

// Stats summarises the loaded store
type Stats struct {
	Loaded     bool          `json:"loaded"`
	Entries    int           `json:"entries"`
	Dimensions int           `json:"dimensions"`
	Sources    []SourceCount `json:"sources"`
}

// Stats returns entry counts per source document, sorted by source name
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range s.entries {
		counts[e.Metadata.Source]++
	}

	sources := make([]SourceCount, 0, len(counts))
	for name, n := range counts {
		sources = append(sources, SourceCount{Source: name, Chunks: n})
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Source < sources[j].Source
	})

	return Stats{
		Loaded:     s.loaded,
		Entries:    len(s.entries),
		Dimensions: s.dims,
		Sources:    sources,
	}
}
