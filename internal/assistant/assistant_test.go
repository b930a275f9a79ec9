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
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kiosk-assistant/internal/kbstore"
	"kiosk-assistant/internal/kbtypes"
	"kiosk-assistant/internal/llm"
	"kiosk-assistant/internal/routing"
)

const directoryText = `Assunto Prioridade Nome DS. Ext. Tel.
Jovens Agricultores 1.ª - Manuela Joia DAEA 2454 21 844 24 54
Regadio coletivo
e   emparcelamento
1.º - Rui Lopes DSR 2012 21 844 20 12
Paulo Dias DSR 2013 21 844 20 13`

var testChunks = []kbtypes.Chunk{
	{
		ID:        "dir-1",
		Content:   directoryText,
		Embedding: []float64{1, 0, 0},
		Metadata:  kbtypes.ChunkMetadata{Source: "central_telefonica.pdf", Page: 1},
	},
	{
		ID:        "reg-1",
		Content:   "O regadio coletivo é apoiado pela DGADR.\nAs candidaturas ao regadio decorrem no PEPAC.",
		Embedding: []float64{0, 1, 0},
		Metadata:  kbtypes.ChunkMetadata{Source: "regadio.pdf", Page: 3},
	},
	{
		ID:        "eaf-1",
		Content:   "O Estatuto da Agricultura Familiar reconhece a agricultura familiar.",
		Embedding: []float64{0, 0, 1},
		Metadata:  kbtypes.ChunkMetadata{Source: "eaf.pdf", Page: 2},
	},
}

type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float64{-1, -1, -1}, nil
}

func (f *fakeEmbedder) Dimensions() int      { return 3 }
func (f *fakeEmbedder) ModelName() string    { return "fake" }
func (f *fakeEmbedder) ProviderName() string { return "fake" }

type fakeGenerator struct {
	answer string
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	return f.answer, f.err
}

type panicStrategy struct{}

func (panicStrategy) Name() string { return "panic" }

func (panicStrategy) Attempt(ctx context.Context, query string) (*Result, error) {
	panic("boom")
}

type memRecorder struct {
	mu      sync.Mutex
	queries []string
	answers []kbtypes.Answer
}

func (m *memRecorder) Record(ctx context.Context, query string, answer kbtypes.Answer, elapsed time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	m.answers = append(m.answers, answer)
	return nil
}

// OrchestratorTestSuite exercises the full question pipeline against an
// in-memory knowledge store and the built-in routing tables
type OrchestratorTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *kbstore.Store
	router   *routing.Router
	defaults routing.Defaults
}

func (s *OrchestratorTestSuite) SetupSuite() {
	s.ctx = context.Background()

	router, err := routing.NewDefaultRouter()
	s.Require().NoError(err)
	s.router = router
	s.defaults = router.Defaults()
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.store = kbstore.NewLoaded(testChunks)
}

func (s *OrchestratorTestSuite) newOrchestrator(cfg Config) *Orchestrator {
	if cfg.Store == nil {
		cfg.Store = s.store
	}
	cfg.Router = s.router
	o, err := New(cfg)
	s.Require().NoError(err)
	return o
}

func (s *OrchestratorTestSuite) assertWellFormed(a kbtypes.Answer) {
	s.NotEmpty(a.Answer)
	s.NotNil(a.Contacts)
	s.NotEmpty(a.Strategy)
}

func (s *OrchestratorTestSuite) TestNewRequiresStoreAndRouter() {
	_, err := New(Config{Router: s.router})
	s.Error(err)
	_, err = New(Config{Store: s.store})
	s.Error(err)
}

func (s *OrchestratorTestSuite) TestStrategyChain() {
	s.Equal([]string{StrategyLexical, StrategyScripted}, s.newOrchestrator(Config{}).Strategies())

	withEmbedder := s.newOrchestrator(Config{Embedder: &fakeEmbedder{}})
	s.Equal([]string{StrategyEmbedding, StrategyLexical, StrategyScripted}, withEmbedder.Strategies())
}

func (s *OrchestratorTestSuite) TestDirectoryContact() {
	o := s.newOrchestrator(Config{})

	a := o.ProcessQuery(s.ctx, "qual o contacto da Manuela Joia")

	s.Equal("Segue o contacto para Jovens Agricultores:", a.Answer)
	s.Require().Len(a.Contacts, 1)
	s.Equal("Manuela Joia", a.Contacts[0].Name)
	s.Equal("21 844 24 54", a.Contacts[0].Phone)
	s.Equal("Jovens Agricultores", a.Contacts[0].Department)
	s.Equal(StrategyLexical, a.Strategy)
	s.Equal([]kbtypes.Source{{Source: "central_telefonica.pdf", Page: 1}}, a.Sources)
	s.False(a.OutOfScope)
	s.InDelta(0.95, a.Confidence, 1e-9)
}

func (s *OrchestratorTestSuite) TestEmbeddingWithGenerator() {
	gen := &fakeGenerator{answer: "O regadio coletivo é apoiado pela DGADR."}
	o := s.newOrchestrator(Config{
		Embedder:  &fakeEmbedder{vectors: map[string][]float64{"Como funciona o regadio?": {0, 1, 0}}},
		Generator: gen,
	})

	a := o.ProcessQuery(s.ctx, "Como funciona o regadio?")

	s.Equal(StrategyEmbedding, a.Strategy)
	s.Equal("O regadio coletivo é apoiado pela DGADR.", a.Answer)
	s.Equal([]kbtypes.Source{{Source: "regadio.pdf", Page: 3}}, a.Sources)
	s.InDelta(1.0, a.Confidence, 1e-9)
	s.Equal(1, gen.calls)

	s.Require().NotEmpty(a.Contacts)
	s.Equal("Eng.ª Isabel Loureiro", a.Contacts[0].Name)
}

func (s *OrchestratorTestSuite) TestEmbeddingWithoutGeneratorExcerpts() {
	o := s.newOrchestrator(Config{
		Embedder: &fakeEmbedder{vectors: map[string][]float64{"candidaturas": {0, 1, 0}}},
	})

	a := o.ProcessQuery(s.ctx, "candidaturas")

	s.Equal(StrategyEmbedding, a.Strategy)
	s.Contains(a.Answer, "As candidaturas ao regadio decorrem no PEPAC.")
}

func (s *OrchestratorTestSuite) TestEmbeddingFailureFallsBackToLexical() {
	gen := &fakeGenerator{answer: "unused"}
	o := s.newOrchestrator(Config{
		Embedder:  &fakeEmbedder{err: errors.New("connection refused")},
		Generator: gen,
	})

	a := o.ProcessQuery(s.ctx, "candidaturas")

	s.Equal(StrategyLexical, a.Strategy)
	s.Require().NotEmpty(a.Sources)
	s.Equal("regadio.pdf", a.Sources[0].Source)
	s.Zero(gen.calls)
	s.assertWellFormed(a)
}

func (s *OrchestratorTestSuite) TestGeneratorFailureFallsBackToLexical() {
	o := s.newOrchestrator(Config{
		Embedder:  &fakeEmbedder{vectors: map[string][]float64{"candidaturas": {0, 1, 0}}},
		Generator: &fakeGenerator{err: errors.New("quota exceeded")},
	})

	a := o.ProcessQuery(s.ctx, "candidaturas")

	s.Equal(StrategyLexical, a.Strategy)
	s.assertWellFormed(a)
}

func (s *OrchestratorTestSuite) TestNoRelevantEmbeddingFallsBackToLexical() {
	o := s.newOrchestrator(Config{Embedder: &fakeEmbedder{}})

	a := o.ProcessQuery(s.ctx, "qual o contacto da Manuela Joia")

	s.Equal(StrategyLexical, a.Strategy)
	s.Len(a.Contacts, 1)
}

func (s *OrchestratorTestSuite) TestProceduresAppended() {
	o := s.newOrchestrator(Config{})

	a := o.ProcessQuery(s.ctx, "estatuto da agricultura familiar")

	s.Equal(StrategyLexical, a.Strategy)
	s.Contains(a.Answer, "Estatuto da Agricultura Familiar reconhece")
	s.Contains(a.Answer, "\n\nESTATUTO DA AGRICULTURA FAMILIAR (EAF)")
	s.Contains(a.Answer, "64/2018")
	s.Require().NotEmpty(a.Contacts)
	s.Equal("Dr. Rodrigo Câmara", a.Contacts[0].Name)
}

func (s *OrchestratorTestSuite) TestNoInformationAnswerIsRedirected() {
	o := s.newOrchestrator(Config{
		Embedder:  &fakeEmbedder{vectors: map[string][]float64{"Como funciona o regadio?": {0, 1, 0}}},
		Generator: &fakeGenerator{answer: "Não tenho informação sobre esse assunto."},
	})

	a := o.ProcessQuery(s.ctx, "Como funciona o regadio?")

	s.True(strings.HasPrefix(a.Answer, "Questões sobre regadio"), a.Answer)
	s.NotContains(a.Answer, "Não tenho informação")
	s.Nil(a.Sources)
	s.False(a.OutOfScope)
	s.NotEmpty(a.Contacts)
}

func (s *OrchestratorTestSuite) TestOutOfScopeGetsExternalContacts() {
	o := s.newOrchestrator(Config{})

	a := o.ProcessQuery(s.ctx, "Como renovar o cartão aplicador?")

	s.True(a.OutOfScope)
	s.Equal(s.defaults.OutOfScopeAnswer, a.Answer)
	s.Equal(StrategyScripted, a.Strategy)
	s.Require().NotEmpty(a.Contacts)
	for _, c := range a.Contacts {
		s.True(strings.HasPrefix(c.Name, "CCDR"), c.Name)
	}
}

func (s *OrchestratorTestSuite) TestOutOfScopeOverridesGroundedAnswer() {
	o := s.newOrchestrator(Config{})

	a := o.ProcessQuery(s.ctx, "regadio e sanidade animal")

	s.True(a.OutOfScope)
	s.Equal(s.defaults.OutOfScopeAnswer, a.Answer)
	s.Equal(StrategyLexical, a.Strategy)
	s.Nil(a.Sources)
	s.NotEmpty(a.Contacts)
}

func (s *OrchestratorTestSuite) TestIrrelevantHasNoContacts() {
	o := s.newOrchestrator(Config{})

	a := o.ProcessQuery(s.ctx, "Quem ganhou o jogo de futebol?")

	s.True(a.OutOfScope)
	s.Equal(s.defaults.IrrelevantAnswer, a.Answer)
	s.NotNil(a.Contacts)
	s.Empty(a.Contacts)
}

func (s *OrchestratorTestSuite) TestStopwordOnlyQuery() {
	o := s.newOrchestrator(Config{})

	a := o.ProcessQuery(s.ctx, "qual é o")

	s.Equal(StrategyScripted, a.Strategy)
	s.True(a.OutOfScope)
	s.Equal([]kbtypes.Contact{s.defaults.Contact}, a.Contacts)
}

func (s *OrchestratorTestSuite) TestEmptyStoreUsesScriptedAnswers() {
	o := s.newOrchestrator(Config{
		Store:    kbstore.NewLoaded(nil),
		Embedder: &fakeEmbedder{err: errors.New("must not be called")},
	})

	a := o.ProcessQuery(s.ctx, "Como funciona o regadio?")

	s.Equal(StrategyScripted, a.Strategy)
	s.False(a.OutOfScope)
	s.True(strings.HasPrefix(a.Answer, "Questões sobre regadio"), a.Answer)
	s.NotEmpty(a.Contacts)
}

func (s *OrchestratorTestSuite) TestMalformedInputs() {
	o := s.newOrchestrator(Config{Embedder: &fakeEmbedder{}})

	inputs := []string{
		"",
		"   ",
		"?!?!...",
		"🌾🚜",
		strings.Repeat("regadio ", 2000),
		strings.Repeat("x", 20000),
		"\x00\xff",
	}
	for _, q := range inputs {
		s.assertWellFormed(o.ProcessQuery(s.ctx, q))
	}
}

func (s *OrchestratorTestSuite) TestPanicYieldsErrorAnswer() {
	o := s.newOrchestrator(Config{Strategies: []Strategy{panicStrategy{}}})

	a := o.ProcessQuery(s.ctx, "regadio")

	s.Equal(StrategyError, a.Strategy)
	s.Equal(s.defaults.ErrorAnswer, a.Answer)
	s.Equal([]kbtypes.Contact{s.defaults.Contact}, a.Contacts)
}

func (s *OrchestratorTestSuite) TestRecorderSeesEveryQuery() {
	rec := &memRecorder{}
	o := s.newOrchestrator(Config{Recorder: rec})

	o.ProcessQuery(s.ctx, "qual o contacto da Manuela Joia")
	o.ProcessQuery(s.ctx, "Quem ganhou o jogo de futebol?")

	s.Equal([]string{"qual o contacto da Manuela Joia", "Quem ganhou o jogo de futebol?"}, rec.queries)
	s.Equal(StrategyLexical, rec.answers[0].Strategy)
}

func (s *OrchestratorTestSuite) TestConcurrentQueries() {
	o := s.newOrchestrator(Config{})

	var wg sync.WaitGroup
	answers := make([]kbtypes.Answer, 20)
	for i := range answers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			answers[i] = o.ProcessQuery(s.ctx, "qual o contacto da Manuela Joia")
		}(i)
	}
	wg.Wait()

	for _, a := range answers {
		s.Len(a.Contacts, 1)
	}
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
