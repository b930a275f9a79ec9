/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Query Log
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package querylog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kiosk-assistant/internal/kbtypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "queries.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStoreCreatesFile(t *testing.T) {
	store := newTestStore(t)
	if _, err := os.Stat(store.Path()); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := kbtypes.Answer{
		Answer:     "Segue o contacto para Jovens Agricultores:",
		Contacts:   []kbtypes.Contact{{Name: "Manuela Joia", Phone: "21 844 24 54", Department: "Jovens Agricultores"}},
		Strategy:   "lexical",
		Confidence: 0.95,
		Sources:    []kbtypes.Source{{Source: "central_telefonica.pdf", Page: 1}},
	}
	second := kbtypes.Answer{Answer: "Fora de âmbito", Strategy: "scripted", OutOfScope: true}

	if err := store.Record(ctx, "qual o contacto da Manuela Joia", first, 1500*time.Millisecond); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := store.Record(ctx, "futebol", second, time.Millisecond); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first
	if entries[0].Query != "futebol" || !entries[0].OutOfScope {
		t.Errorf("unexpected newest entry: %+v", entries[0])
	}
	if entries[0].Contacts == nil || len(entries[0].Contacts) != 0 {
		t.Errorf("nil contacts should round trip as empty, got %v", entries[0].Contacts)
	}

	got := entries[1]
	if got.ID == "" {
		t.Error("entry ID should not be empty")
	}
	if got.Strategy != "lexical" || got.Confidence != 0.95 {
		t.Errorf("unexpected entry: %+v", got)
	}
	if len(got.Contacts) != 1 || got.Contacts[0].Name != "Manuela Joia" {
		t.Errorf("contacts = %+v", got.Contacts)
	}
	if len(got.Sources) != 1 || got.Sources[0].Page != 1 {
		t.Errorf("sources = %+v", got.Sources)
	}
	if got.Elapsed != 1500*time.Millisecond {
		t.Errorf("elapsed = %v", got.Elapsed)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("Count() = %d, %v", n, err)
	}
}

func TestRecentLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, "regadio", kbtypes.Answer{Answer: "a"}, 0); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	entries, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}

	entries, err = store.Recent(ctx, 0)
	if err != nil || len(entries) != 5 {
		t.Errorf("Recent(0) = %d entries, %v", len(entries), err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.db")
	ctx := context.Background()

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.Record(ctx, "regadio", kbtypes.Answer{Answer: "a"}, 0); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	store.Close()

	store, err = NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()

	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("Count() after reopen = %d, want 1", n)
	}
}
