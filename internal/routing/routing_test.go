/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Routing
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package routing

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"kiosk-assistant/internal/kbtypes"
)

const minimalTables = `
defaults:
  answer: Resposta genérica
  error_answer: Erro
  irrelevant_answer: Irrelevante
  out_of_scope_answer: Fora
  contact: {name: Balcão, phone: 21 000 00 00}
`

func newDefaultRouter(t *testing.T) *Router {
	t.Helper()
	r, err := NewDefaultRouter()
	if err != nil {
		t.Fatalf("NewDefaultRouter() error = %v", err)
	}
	return r
}

func names(contacts []kbtypes.Contact) []string {
	var out []string
	for _, c := range contacts {
		out = append(out, c.Name)
	}
	return out
}

func TestDefaultTables(t *testing.T) {
	tables, err := DefaultTables()
	if err != nil {
		t.Fatalf("DefaultTables() error = %v", err)
	}

	if len(tables.Contacts) < 40 || len(tables.External) != 20 {
		t.Errorf("unexpected table sizes: %d contacts, %d external", len(tables.Contacts), len(tables.External))
	}
	if len(tables.Procedures) != 5 || len(tables.Legislation) != 2 {
		t.Errorf("unexpected documents: %d procedures, %d legislation", len(tables.Procedures), len(tables.Legislation))
	}

	want := kbtypes.Contact{
		Name:       "Atendimento Geral DGADR",
		Phone:      "21 844 22 00",
		Email:      "geral@dgadr.pt",
		Department: "Informação e Encaminhamento",
	}
	if tables.Defaults.Contact != want {
		t.Errorf("default contact = %+v", tables.Defaults.Contact)
	}

	wantOut := "Exmo.(a) Senhor(a), a questão apresentada não se enquadra nas competências da DGADR. " +
		"A DGADR tem âmbito nacional e atua em matérias de engenharia e ordenamento rural, regadio, " +
		"infraestruturas hidráulicas, gestão de recursos naturais, qualidade e recursos genéticos, " +
		"apoio às explorações e diversificação/associativismo. Para a sua questão, sugerimos o " +
		"contacto com a entidade competente."
	if tables.Defaults.OutOfScopeAnswer != wantOut {
		t.Errorf("out of scope answer = %q", tables.Defaults.OutOfScopeAnswer)
	}
}

func TestParseTablesErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "scope: ["},
		{"missing defaults", "topics: []"},
		{"contact without phone", strings.Replace(minimalTables, ", phone: 21 000 00 00", "", 1)},
		{"negative limit", minimalTables + "contact_limit: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTables([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewRouterRejectsBadPatterns(t *testing.T) {
	tables, err := ParseTables([]byte(minimalTables + "topics: [{name: x, contacts: '('}]\n"))
	if err != nil {
		t.Fatalf("ParseTables() error = %v", err)
	}
	if _, err := NewRouter(tables); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestRouteScope(t *testing.T) {
	r := newDefaultRouter(t)

	tests := []struct {
		query        string
		outOfScope   bool
		inScope      bool
		irrelevant   bool
		undetermined bool
	}{
		{"Quem ganhou o jogo de futebol?", true, false, true, false},
		{"Como renovar o cartão aplicador?", true, false, false, false},
		{"Apoios ao REGADIO", false, true, false, false},
		{"Regadio e sanidade animal", true, false, false, false},
		{"bom dia", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			d := r.Route(tt.query)
			if d.OutOfScope != tt.outOfScope || d.InScope != tt.inScope ||
				d.Irrelevant != tt.irrelevant || d.Undetermined() != tt.undetermined {
				t.Errorf("Route() = out:%v in:%v irrelevant:%v undetermined:%v",
					d.OutOfScope, d.InScope, d.Irrelevant, d.Undetermined())
			}
		})
	}
}

func TestRouteExternalContacts(t *testing.T) {
	r := newDefaultRouter(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "applicator card goes to every regional commission",
			query: "Como renovar o cartão aplicador?",
			want:  []string{"CCDR Norte", "CCDR Centro", "CCDR Lisboa e Vale do Tejo", "CCDR Alentejo", "CCDR Algarve"},
		},
		{
			name:  "water licence capped at two",
			query: "Preciso de licença captação água para um furo",
			want:  []string{"APA - Agência Portuguesa do Ambiente", "ARH Tejo e Oeste"},
		},
		{
			name:  "division redirection when no route matches",
			query: "Qual a doença animal das aves?",
			want:  []string{"Direção-Geral de Alimentação e Veterinária (DGAV)"},
		},
		{
			name:  "irrelevant questions get nothing",
			query: "Onde ver cinema?",
			want:  nil,
		},
		{
			name:  "in scope questions get no external contacts",
			query: "regadio",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := names(r.Route(tt.query).External); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("External = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRouteInternalContacts(t *testing.T) {
	r := newDefaultRouter(t)

	d := r.Route("Como funciona o regadio?")
	if !reflect.DeepEqual(d.Topics, []string{"hidroagricola"}) {
		t.Errorf("Topics = %v", d.Topics)
	}
	if got := names(d.Contacts); !reflect.DeepEqual(got, []string{"Eng.ª Isabel Loureiro", "Dr.ª Anabela Marreiros", "Dr.ª Vanda Feliz"}) {
		t.Errorf("Contacts = %v", got)
	}
	if !reflect.DeepEqual(d.Divisions, []string{"DIR"}) {
		t.Errorf("Divisions = %v", d.Divisions)
	}
	if got := names(d.DivisionContacts); !reflect.DeepEqual(got, []string{"Eng.ª Isabel Loureiro", "Dr.ª Anabela Marreiros"}) {
		t.Errorf("DivisionContacts = %v", got)
	}
	if len(d.Procedures) != 0 {
		t.Errorf("unexpected procedures: %d", len(d.Procedures))
	}
}

func TestRouteDefaultTopic(t *testing.T) {
	d := newDefaultRouter(t).Route("bom dia")

	if !reflect.DeepEqual(d.Topics, []string{"agricultura"}) {
		t.Errorf("Topics = %v", d.Topics)
	}
	if got := names(d.Contacts); !reflect.DeepEqual(got, []string{"Dr. Rodrigo Câmara", "Eng.ª Fernanda Castiço", "Eng.ª Manuela Joia"}) {
		t.Errorf("Contacts = %v", got)
	}
	if got := names(d.DivisionContacts); !reflect.DeepEqual(got, []string{"Receção Geral"}) {
		t.Errorf("DivisionContacts = %v", got)
	}
}

func TestRouteProceduresAndDedupe(t *testing.T) {
	d := newDefaultRouter(t).Route("Quero o estatuto da agricultura familiar")

	if !reflect.DeepEqual(d.Topics, []string{"familiar", "agricultura"}) {
		t.Errorf("Topics = %v", d.Topics)
	}

	emails := make(map[string]bool)
	for _, c := range d.Contacts {
		if emails[c.Email] {
			t.Errorf("duplicate contact %s", c.Email)
		}
		emails[c.Email] = true
	}
	if len(d.Contacts) != 3 {
		t.Errorf("expected 3 contacts, got %d", len(d.Contacts))
	}

	if len(d.Procedures) != 1 || !strings.HasPrefix(d.Procedures[0], "ESTATUTO DA AGRICULTURA FAMILIAR") {
		t.Errorf("Procedures = %v", d.Procedures)
	}
	if len(d.Legislation) != 1 || !strings.Contains(d.Legislation[0], "64/2018") {
		t.Errorf("Legislation = %v", d.Legislation)
	}
}

func TestRespond(t *testing.T) {
	r := newDefaultRouter(t)

	tests := []struct {
		query  string
		prefix string
	}{
		{"Quais os apoios do PEPAC?", "A DGADR presta enquadramento técnico"},
		{"Horário de funcionamento", "Informação e atendimento DGADR"},
		{"Corte de uma floresta", "Assuntos florestais"},
		{"bom dia", "A DGADR atua nas áreas"},
		{"", "A DGADR atua nas áreas"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := r.Respond(tt.query); !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("Respond() = %q, want prefix %q", got, tt.prefix)
			}
		})
	}
}

func TestIsNoInformation(t *testing.T) {
	r := newDefaultRouter(t)

	if !r.IsNoInformation("NÃO TENHO INFORMAÇÃO específica sobre este assunto.") {
		t.Error("expected marker to match case-insensitively")
	}
	if r.IsNoInformation("O regadio é gerido pela DGADR.") {
		t.Error("unexpected match")
	}
}

func TestReloadFile(t *testing.T) {
	r := newDefaultRouter(t)
	path := filepath.Join(t.TempDir(), "tables.yaml")

	if err := os.WriteFile(path, []byte(minimalTables), 0600); err != nil {
		t.Fatal(err)
	}
	if err := r.ReloadFile(path); err != nil {
		t.Fatalf("ReloadFile() error = %v", err)
	}
	if got := r.Respond("regadio"); got != "Resposta genérica" {
		t.Errorf("Respond() = %q after reload", got)
	}
	if r.Defaults().Contact.Name != "Balcão" {
		t.Errorf("Defaults() = %+v", r.Defaults())
	}

	if err := os.WriteFile(path, []byte("defaults: {answer: ''}"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := r.ReloadFile(path); err == nil {
		t.Error("expected error for invalid tables")
	}
	if got := r.Respond("regadio"); got != "Resposta genérica" {
		t.Errorf("previous tables not kept, Respond() = %q", got)
	}

	if err := r.ReloadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWatch(t *testing.T) {
	r := newDefaultRouter(t)
	path := filepath.Join(t.TempDir(), "tables.yaml")
	if err := os.WriteFile(path, []byte(minimalTables), 0600); err != nil {
		t.Fatal(err)
	}

	w, err := r.Watch(path)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Stop()
	time.Sleep(50 * time.Millisecond)

	updated := strings.Replace(minimalTables, "Resposta genérica", "Resposta nova", 1)
	if err := os.WriteFile(path, []byte(updated), 0600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.Respond("x") == "Resposta nova" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("tables not reloaded, Respond() = %q", r.Respond("x"))
}
