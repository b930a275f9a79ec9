/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - MCP Tools
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/kbtypes"
)

type stubAnswerer struct {
	answer kbtypes.Answer
	got    string
}

func (s *stubAnswerer) ProcessQuery(ctx context.Context, query string) kbtypes.Answer {
	s.got = query
	return s.answer
}

type stubEmbedder struct {
	vector []float64
	err    error
}

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return s.vector, s.err
}
func (s stubEmbedder) Dimensions() int      { return len(s.vector) }
func (s stubEmbedder) ModelName() string    { return "stub" }
func (s stubEmbedder) ProviderName() string { return "stub" }

func testStore() *kbstore.Store {
	return kbstore.NewLoaded([]kbtypes.Chunk{
		{
			ID:        "reg",
			Content:   "O regadio coletivo é apoiado.\nCandidaturas\tno PEPAC.",
			Embedding: []float64{1, 0},
			Metadata:  kbtypes.ChunkMetadata{Source: "regadio.pdf", Page: 3},
		},
		{
			ID:        "eaf",
			Content:   "Estatuto da Agricultura Familiar.",
			Embedding: []float64{0, 1},
			Metadata:  kbtypes.ChunkMetadata{Source: "eaf.pdf", Page: 1},
		},
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(SearchKnowledgeBaseTool(testStore(), nil, 0))
	r.Register(AskTool(&stubAnswerer{}))

	list := r.List()
	if len(list) != 2 || list[0].Name != "ask" || list[1].Name != "search_knowledge_base" {
		t.Fatalf("List() = %+v", list)
	}

	resp, err := r.Execute(context.Background(), "nope", nil)
	if err != nil || !resp.IsError || !strings.Contains(resp.Content[0].Text, "Tool not found") {
		t.Errorf("Execute(unknown) = %+v, %v", resp, err)
	}
}

func TestAskTool(t *testing.T) {
	stub := &stubAnswerer{answer: kbtypes.Answer{
		Answer:   "Segue o contacto para Jovens Agricultores:",
		Contacts: []kbtypes.Contact{{Name: "Manuela Joia", Phone: "21 844 24 54", Department: "Jovens Agricultores"}},
	}}
	tool := AskTool(stub)

	resp, err := tool.Handler(context.Background(), map[string]interface{}{"question": "qual o contacto da Manuela Joia"})
	if err != nil || resp.IsError {
		t.Fatalf("Handler() = %+v, %v", resp, err)
	}
	if stub.got != "qual o contacto da Manuela Joia" {
		t.Errorf("question not forwarded: %q", stub.got)
	}
	want := "Segue o contacto para Jovens Agricultores:\n\nname\tphone\temail\tdepartment\nManuela Joia\t21 844 24 54\t\tJovens Agricultores"
	if resp.Content[0].Text != want {
		t.Errorf("text = %q", resp.Content[0].Text)
	}

	resp, _ = tool.Handler(context.Background(), map[string]interface{}{"question": 42})
	if !resp.IsError {
		t.Error("non-string question should be rejected")
	}

	stub.answer = kbtypes.Answer{Answer: "Fora de âmbito", Contacts: []kbtypes.Contact{}}
	resp, _ = tool.Handler(context.Background(), map[string]interface{}{"question": ""})
	if resp.IsError || resp.Content[0].Text != "Fora de âmbito" {
		t.Errorf("empty question should still be answered: %+v", resp)
	}
}

func TestSearchKnowledgeBaseTool(t *testing.T) {
	tests := []struct {
		name       string
		embedder   *stubEmbedder
		args       map[string]interface{}
		wantError  bool
		wantPrefix string
		wantText   string
	}{
		{
			name:      "missing query",
			args:      map[string]interface{}{},
			wantError: true,
		},
		{
			name:      "blank query",
			args:      map[string]interface{}{"query": "   "},
			wantError: true,
		},
		{
			name:       "keyword ranking",
			args:       map[string]interface{}{"query": "regadio"},
			wantPrefix: "rank\tsource\tpage\tscore\texcerpt\n1\tregadio.pdf\t3\t",
			wantText:   `Candidaturas\tno PEPAC.`,
		},
		{
			name:       "semantic ranking",
			embedder:   &stubEmbedder{vector: []float64{0, 1}},
			args:       map[string]interface{}{"query": "familiar", "top_k": float64(1)},
			wantPrefix: "rank\tsource\tpage\tscore\texcerpt\n1\teaf.pdf\t1\t1.000\t",
		},
		{
			name:       "embedding failure falls back",
			embedder:   &stubEmbedder{err: errors.New("offline")},
			args:       map[string]interface{}{"query": "estatuto"},
			wantPrefix: "rank\tsource\tpage\tscore\texcerpt\n1\teaf.pdf",
		},
		{
			name:     "nothing found",
			args:     map[string]interface{}{"query": "futebol"},
			wantText: "No relevant documents found.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := SearchKnowledgeBaseTool(testStore(), nil, 0)
			if tt.embedder != nil {
				tool = SearchKnowledgeBaseTool(testStore(), *tt.embedder, 0)
			}

			resp, err := tool.Handler(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("Handler() error = %v", err)
			}
			if resp.IsError != tt.wantError {
				t.Fatalf("IsError = %v, text %q", resp.IsError, resp.Content[0].Text)
			}
			text := resp.Content[0].Text
			if !strings.HasPrefix(text, tt.wantPrefix) {
				t.Errorf("text = %q, want prefix %q", text, tt.wantPrefix)
			}
			if !strings.Contains(text, tt.wantText) {
				t.Errorf("text = %q, want it to contain %q", text, tt.wantText)
			}
		})
	}
}

func TestSearchKnowledgeBaseDiversity(t *testing.T) {
	store := kbstore.NewLoaded([]kbtypes.Chunk{
		{
			ID:        "guia-0",
			Content:   "Regadio coletivo: candidaturas abertas.",
			Embedding: []float64{1, 0},
			Metadata:  kbtypes.ChunkMetadata{Source: "guia.pdf", Page: 4, ChunkIndex: 0},
		},
		{
			ID:        "guia-1",
			Content:   "Regadio coletivo: candidaturas abertas até março.",
			Embedding: []float64{0.95, 0.31},
			Metadata:  kbtypes.ChunkMetadata{Source: "guia.pdf", Page: 4, ChunkIndex: 1},
		},
		{
			ID:        "lic",
			Content:   "Licenciamento de explorações pecuárias.",
			Embedding: []float64{0.7, 0.71},
			Metadata:  kbtypes.ChunkMetadata{Source: "licenciamento.pdf", Page: 2},
		},
	})
	tool := SearchKnowledgeBaseTool(store, stubEmbedder{vector: []float64{1, 0}}, 0.5)

	tests := []struct {
		name   string
		lambda interface{}
		second string
	}{
		{"default lambda prefers another document", nil, "2\tlicenciamento.pdf\t"},
		{"pure relevance keeps neighbours", float64(1), "2\tguia.pdf\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{"query": "regadio coletivo", "top_k": float64(2)}
			if tt.lambda != nil {
				args["lambda"] = tt.lambda
			}

			resp, err := tool.Handler(context.Background(), args)
			if err != nil || resp.IsError {
				t.Fatalf("Handler() = %+v, %v", resp, err)
			}
			lines := strings.Split(strings.TrimSpace(resp.Content[0].Text), "\n")
			if len(lines) != 3 {
				t.Fatalf("expected header and 2 rows, got %q", resp.Content[0].Text)
			}
			if !strings.HasPrefix(lines[1], "1\tguia.pdf\t4\t") {
				t.Errorf("first row = %q", lines[1])
			}
			if !strings.HasPrefix(lines[2], tt.second) {
				t.Errorf("second row = %q, want prefix %q", lines[2], tt.second)
			}
		})
	}
}

func TestSearchEmptyStore(t *testing.T) {
	tool := SearchKnowledgeBaseTool(kbstore.NewLoaded(nil), nil, 0)
	resp, _ := tool.Handler(context.Background(), map[string]interface{}{"query": "regadio"})
	if !resp.IsError {
		t.Error("empty store should report an error")
	}
}

func TestValidateIntParam(t *testing.T) {
	args := map[string]interface{}{"low": float64(-3), "high": float64(99), "ok": float64(7), "bad": "7"}
	tests := []struct {
		name string
		want int
	}{
		{"low", 1},
		{"high", 20},
		{"ok", 7},
		{"bad", 5},
		{"missing", 5},
	}
	for _, tt := range tests {
		if got := ValidateIntParam(args, tt.name, 5, 1, 20); got != tt.want {
			t.Errorf("ValidateIntParam(%s) = %d, want %d", tt.name, got, tt.want)
		}
	}
}
