package graph

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
	"github.com/OFFIS-RIT/lexgraph/pkg/tokenize"
)

type stageRecorder struct {
	mu     sync.Mutex
	stages []string
	failed []string
}

func (r *stageRecorder) ObserveStage(stage string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
	if err != nil {
		r.failed = append(r.failed, stage)
	}
}

type countingRelations struct {
	mu    sync.Mutex
	calls map[string]int
	dumps map[string]lexicon.RelationDump
}

func (c *countingRelations) Lookup(_ context.Context, word string) (lexicon.RelationDump, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[word]++
	return c.dumps[word], nil
}

func newTestClient(t *testing.T, params NewGraphClientParams) *GraphClient {
	t.Helper()
	if params.Compounds == nil {
		params.Compounds = lexicon.StaticCompounds{"pomme de terre", "chemin de fer"}
	}
	if params.Senses == nil {
		params.Senses = lexicon.StaticSenses{
			"chat":           {{Sense: "félin", Weight: 80}, {Sense: "conversation", Weight: 20}},
			"pomme de terre": {{Sense: "tubercule", Weight: 50}},
		}
	}
	c, err := NewGraphClient(params)
	if err != nil {
		t.Fatalf("NewGraphClient: %v", err)
	}
	return c
}

func TestProcess(t *testing.T) {
	rec := &stageRecorder{}
	c := newTestClient(t, NewGraphClientParams{Observer: rec})

	res, err := c.Process(context.Background(), "Le chat mange la pomme de terre, il dort.")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	wantTokens := []string{"le", "chat", "mange", "la", "pomme", "de", "terre", "il", "dort"}
	if !reflect.DeepEqual(res.Tokens, wantTokens) {
		t.Fatalf("tokens = %v", res.Tokens)
	}
	g := res.Graph
	if res.Compounds != 1 || !g.HasEdge("la", "pomme de terre", common.LabelSucc) || !g.HasEdge("pomme de terre", "il", common.LabelSucc) {
		t.Fatalf("compound not spliced: %v", g.Edges())
	}
	if !g.HasEdge("chat", "félin", common.LabelDisambiguate) {
		t.Fatalf("chat not disambiguated: %v", g.Edges())
	}
	if !g.HasEdge("pomme de terre", "tubercule", common.LabelDisambiguate) {
		t.Fatalf("compound not disambiguated")
	}
	// il is one step from the compound proposed by la.
	if !g.HasEdge("il", "pomme de terre", common.LabelReference) {
		t.Fatalf("il not resolved to the compound: %v", g.Edges())
	}

	want := []string{StageTokenize, StageChain, StageCompound, StageDisambiguate, StageAnaphora}
	if !reflect.DeepEqual(rec.stages, want) {
		t.Fatalf("stages = %v, want %v", rec.stages, want)
	}
	if len(rec.failed) != 0 {
		t.Fatalf("failed stages = %v", rec.failed)
	}
}

func TestProcessIdempotent(t *testing.T) {
	c := newTestClient(t, NewGraphClientParams{})
	ctx := context.Background()
	sentence := "Le chat voit le chemin de fer et il le suit."

	first, err := c.Process(ctx, sentence)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	second, err := c.Process(ctx, sentence)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !reflect.DeepEqual(first.Graph.Export(), second.Graph.Export()) {
		t.Fatalf("runs differ:\n%+v\n%+v", first.Graph.Export(), second.Graph.Export())
	}
	if !reflect.DeepEqual(first.References, second.References) {
		t.Fatalf("references differ: %v vs %v", first.References, second.References)
	}
}

func TestProcessValidationErrors(t *testing.T) {
	rec := &stageRecorder{}
	c := newTestClient(t, NewGraphClientParams{Observer: rec})

	tests := []struct {
		name string
		text string
		want error
	}{
		{name: "empty", text: "", want: tokenize.ErrEmptyInput},
		{name: "whitespace", text: "  \n\t", want: tokenize.ErrEmptyInput},
		{name: "invalid utf-8", text: "caf\xe9", want: tokenize.ErrInvalidText},
		{name: "punctuation only", text: "?!…", want: ErrEmptyChain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Process(context.Background(), tt.text); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProcessProviderError(t *testing.T) {
	boom := errors.New("lexicon down")
	c := newTestClient(t, NewGraphClientParams{Senses: failingSenses{err: boom}})
	if _, err := c.Process(context.Background(), "le chat"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestProcessPrefetch(t *testing.T) {
	rel := &countingRelations{dumps: map[string]lexicon.RelationDump{}}
	rec := &stageRecorder{}
	c := newTestClient(t, NewGraphClientParams{
		Relations:         rel,
		PrefetchRelations: true,
		ParallelLookups:   2,
		Observer:          rec,
	})
	if _, err := c.Process(context.Background(), "le chat et le chien"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, w := range []string{"le", "chat", "et", "chien"} {
		if rel.calls[w] != 1 {
			t.Fatalf("prefetch calls for %q = %d, want 1", w, rel.calls[w])
		}
	}
	found := false
	for _, s := range rec.stages {
		if s == StagePrefetch {
			found = true
		}
	}
	if !found {
		t.Fatalf("prefetch stage not observed: %v", rec.stages)
	}
}

func TestAnalyze(t *testing.T) {
	c := newTestClient(t, NewGraphClientParams{})
	a, err := c.Analyze(context.Background(), "Le chat dort, il rêve.")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(a.ID) != 21 {
		t.Fatalf("id %q is not a default nanoid", a.ID)
	}
	if a.Sentence != "Le chat dort, il rêve." || len(a.Tokens) != 5 {
		t.Fatalf("analysis = %+v", a)
	}
	if len(a.Graph.Nodes) == 0 || a.Graph.Meta[StartNode].Kind != common.KindSentinel {
		t.Fatalf("graph not exported: %+v", a.Graph)
	}
	if a.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not set")
	}

	b, err := c.AnalyzeWithID(context.Background(), "fixed", "Le chat dort.")
	if err != nil || b.ID != "fixed" {
		t.Fatalf("AnalyzeWithID = %+v, %v", b, err)
	}
}

func TestNewGraphClientValidation(t *testing.T) {
	tests := []struct {
		name   string
		params NewGraphClientParams
	}{
		{name: "no compounds", params: NewGraphClientParams{Senses: lexicon.StaticSenses{}}},
		{name: "no senses", params: NewGraphClientParams{Compounds: lexicon.StaticCompounds{}}},
		{name: "prefetch without relations", params: NewGraphClientParams{
			Compounds:         lexicon.StaticCompounds{},
			Senses:            lexicon.StaticSenses{},
			PrefetchRelations: true,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGraphClient(tt.params); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestRelationsWithoutProvider(t *testing.T) {
	c := newTestClient(t, NewGraphClientParams{})
	if _, err := c.Relations(context.Background(), "chat"); !errors.Is(err, ErrNoRelations) {
		t.Fatalf("err = %v, want ErrNoRelations", err)
	}
}

func TestCompoundIndexReused(t *testing.T) {
	c := newTestClient(t, NewGraphClientParams{})
	list := []string{"pomme de terre"}
	first := c.compoundIndex(list)
	if c.compoundIndex(list) != first {
		t.Fatalf("index rebuilt for the same list")
	}
	if c.compoundIndex([]string{"pomme de terre"}) == first {
		t.Fatalf("index reused for a different list")
	}
}

func TestProcessDashIsNotAChainNode(t *testing.T) {
	c := newTestClient(t, NewGraphClientParams{})
	res, err := c.Process(context.Background(), "Le chat - il dort.")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if want := []string{"le", "chat", "il", "dort"}; !reflect.DeepEqual(res.Tokens, want) {
		t.Fatalf("tokens = %v, want %v", res.Tokens, want)
	}
	ref, ok := findRef(res.References, "il")
	if !ok || ref.Antecedent != "chat" {
		t.Fatalf("il not resolved to chat: %v", res.References)
	}
	if math.Abs(ref.Score-0.5) > 1e-9 {
		t.Fatalf("score = %v, want 1/2", ref.Score)
	}
}
