/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - MCP Resources
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package resources

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/kbtypes"
	"kiosk-assistant/internal/routing"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()

	router, err := routing.NewDefaultRouter()
	if err != nil {
		t.Fatalf("NewDefaultRouter() error = %v", err)
	}
	store := kbstore.NewLoaded([]kbtypes.Chunk{
		{ID: "1", Content: "a", Embedding: []float64{1, 0}, Metadata: kbtypes.ChunkMetadata{Source: "regadio.pdf"}},
		{ID: "2", Content: "b", Embedding: []float64{0, 1}, Metadata: kbtypes.ChunkMetadata{Source: "regadio.pdf"}},
	})

	r := NewRegistry()
	r.Register(KnowledgeStats(store))
	r.Register(Contacts(router))
	return r
}

func TestList(t *testing.T) {
	list := newRegistry(t).List()
	if len(list) != 2 || list[0].URI != URIKnowledgeStats || list[1].URI != URIContacts {
		t.Errorf("List() = %+v", list)
	}
}

func TestReadKnowledgeStats(t *testing.T) {
	content, err := newRegistry(t).Read(context.Background(), URIKnowledgeStats)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	var stats kbstore.Stats
	if err := json.Unmarshal([]byte(content.Contents[0].Text), &stats); err != nil {
		t.Fatalf("stats are not JSON: %v", err)
	}
	if stats.Entries != 2 || stats.Dimensions != 2 || len(stats.Sources) != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestReadContacts(t *testing.T) {
	content, err := newRegistry(t).Read(context.Background(), URIContacts)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	text := content.Contents[0].Text
	if !strings.HasPrefix(text, "name\tphone\temail\tdepartment\n") {
		t.Errorf("missing header: %q", text[:40])
	}
	if !strings.Contains(text, "Isabel Loureiro") {
		t.Error("directory should list Isabel Loureiro")
	}
}

func TestReadUnknown(t *testing.T) {
	if _, err := newRegistry(t).Read(context.Background(), "kiosk://nope"); err == nil {
		t.Error("expected error for unknown resource")
	}
}
