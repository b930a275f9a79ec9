/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Terminal Chat
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chat

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/kbtypes"
)

type fixedAnswerer struct {
	answer  kbtypes.Answer
	queries []string
}

func (f *fixedAnswerer) ProcessQuery(ctx context.Context, query string) kbtypes.Answer {
	f.queries = append(f.queries, query)
	return f.answer
}

func newTestClient() (*Client, *fixedAnswerer, *bytes.Buffer) {
	var buf bytes.Buffer
	answerer := &fixedAnswerer{answer: kbtypes.Answer{
		Answer:     "Segue o contacto para Manuela Joia:",
		Contacts:   []kbtypes.Contact{{Name: "Manuela Joia", Phone: "218442345", Department: "DSAR"}},
		Strategy:   "lexical",
		Confidence: 0.95,
		Sources:    []kbtypes.Source{{Source: "central_telefonica.pdf", Page: 1}},
	}}
	store := kbstore.NewLoaded([]kbtypes.Chunk{
		{ID: "a", Content: "x", Embedding: []float64{1}, Metadata: kbtypes.ChunkMetadata{Source: "central_telefonica.pdf"}},
	})
	client := NewClient(answerer, store, NewUI(&buf, true, false), "")
	client.ShowThinking = false
	return client, answerer, &buf
}

func TestParseSlashCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantNil  bool
		wantCmd  string
		wantArgs []string
	}{
		{"qual o horário", true, "", nil},
		{"/", true, "", nil},
		{"/help", false, "help", []string{}},
		{"/QUIT", false, "quit", []string{}},
		{"/markdown off", false, "markdown", []string{"off"}},
		{`/say "olá mundo" x`, false, "say", []string{"olá mundo", "x"}},
		{`/say 'it\'s'`, false, "say", []string{"it's"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := ParseSlashCommand(tt.input)
			if tt.wantNil {
				if cmd != nil {
					t.Errorf("expected nil, got %+v", cmd)
				}
				return
			}
			if cmd == nil {
				t.Fatal("expected a command")
			}
			if cmd.Command != tt.wantCmd || !reflect.DeepEqual(cmd.Args, tt.wantArgs) {
				t.Errorf("got %q %q, want %q %q", cmd.Command, cmd.Args, tt.wantCmd, tt.wantArgs)
			}
		})
	}
}

func TestHandleInputQuestion(t *testing.T) {
	client, answerer, buf := newTestClient()

	if quit := client.HandleInput(context.Background(), "  contacto da manuela joia  "); quit {
		t.Fatal("question should not quit")
	}

	if !reflect.DeepEqual(answerer.queries, []string{"contacto da manuela joia"}) {
		t.Errorf("queries = %q", answerer.queries)
	}
	out := buf.String()
	for _, want := range []string{"Segue o contacto para Manuela Joia:", "218442345", "DSAR", "strategy lexical", "confidence 0.95", "central_telefonica.pdf p.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHandleInputCommands(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		input    string
		wantQuit bool
		wantOut  string
	}{
		{"/help", false, "/markdown on|off"},
		{"/stats", false, "central_telefonica.pdf"},
		{"/sources", false, "No question asked yet"},
		{"/markdown", false, "Usage: /markdown on|off"},
		{"/markdown maybe", false, "Invalid value"},
		{"/markdown on", false, "Markdown rendering enabled"},
		{"/nope", false, "Unknown command: /nope"},
		{"/quit", true, ""},
		{"/exit", true, ""},
		{"   ", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			client, answerer, buf := newTestClient()

			if quit := client.HandleInput(ctx, tt.input); quit != tt.wantQuit {
				t.Errorf("quit = %v, want %v", quit, tt.wantQuit)
			}
			if len(answerer.queries) != 0 {
				t.Errorf("command reached the assistant: %q", answerer.queries)
			}
			if !strings.Contains(buf.String(), tt.wantOut) {
				t.Errorf("output %q missing %q", buf.String(), tt.wantOut)
			}
		})
	}
}

func TestSourcesAfterAnswer(t *testing.T) {
	client, _, buf := newTestClient()
	ctx := context.Background()

	client.HandleInput(ctx, "contacto")
	buf.Reset()
	client.HandleInput(ctx, "/sources")

	if !strings.Contains(buf.String(), "1. central_telefonica.pdf, page 1") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestContactsTable(t *testing.T) {
	out := ContactsTable([]kbtypes.Contact{
		{Name: "Receção", Phone: "218442200", Department: "DGADR"},
		{Name: "CCDR Norte", Phone: "226086300", Email: "geral@ccdr-n.pt", Department: "Externo"},
	}, false)

	for _, want := range []string{"CONTACT", "Receção", "218442200", "geral@ccdr-n.pt"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestStatsTable(t *testing.T) {
	out := StatsTable(kbstore.Stats{
		Loaded:     true,
		Entries:    3,
		Dimensions: 768,
		Sources: []kbstore.SourceCount{
			{Source: "eaf.pdf", Chunks: 1},
			{Source: "regadio.pdf", Chunks: 2},
		},
	}, false)

	for _, want := range []string{"3 chunks, 768 dimensions", "eaf.pdf", "regadio.pdf", "TOTAL"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestPrintAnswerOutOfScope(t *testing.T) {
	var buf bytes.Buffer
	ui := NewUI(&buf, true, false)

	ui.PrintAnswer(kbtypes.Answer{Answer: "Não é da DGADR.", Contacts: []kbtypes.Contact{}, Strategy: "scripted", OutOfScope: true})

	out := buf.String()
	if !strings.Contains(out, "out of scope") || strings.Contains(out, "CONTACT") {
		t.Errorf("unexpected output %q", out)
	}
}
