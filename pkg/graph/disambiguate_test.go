package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
)

type failingSenses struct{ err error }

func (f failingSenses) Lookup(context.Context, string) ([]lexicon.Candidate, error) {
	return nil, f.err
}

func TestSelectors(t *testing.T) {
	tests := []struct {
		name       string
		selector   SenseSelector
		candidates []lexicon.Candidate
		want       string
		ok         bool
	}{
		{
			name:       "sense order ignores weight",
			selector:   LastBySense,
			candidates: []lexicon.Candidate{{Sense: "sens_a", Weight: 5}, {Sense: "sens_b", Weight: 9}},
			want:       "sens_b",
			ok:         true,
		},
		{
			name:       "sense order picks greatest string over heavier",
			selector:   LastBySense,
			candidates: []lexicon.Candidate{{Sense: "zèbre", Weight: 1}, {Sense: "animal", Weight: 100}},
			want:       "zèbre",
			ok:         true,
		},
		{
			name:     "weight breaks sense ties",
			selector: LastBySense,
			candidates: []lexicon.Candidate{
				{Sense: "fruit", Weight: 9}, {Sense: "fruit", Weight: 3},
			},
			want: "fruit",
			ok:   true,
		},
		{
			name:       "max by weight",
			selector:   MaxByWeight,
			candidates: []lexicon.Candidate{{Sense: "zèbre", Weight: 1}, {Sense: "animal", Weight: 100}},
			want:       "animal",
			ok:         true,
		},
		{
			name:       "max by weight keeps first on ties",
			selector:   MaxByWeight,
			candidates: []lexicon.Candidate{{Sense: "b", Weight: 7}, {Sense: "a", Weight: 7}},
			want:       "b",
			ok:         true,
		},
		{name: "no candidates", selector: LastBySense},
		{name: "no candidates by weight", selector: MaxByWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.selector(tt.candidates)
			if ok != tt.ok || got.Sense != tt.want {
				t.Fatalf("got %q, %v, want %q, %v", got.Sense, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLastBySenseTieOnWeight(t *testing.T) {
	got, _ := LastBySense([]lexicon.Candidate{{Sense: "fruit", Weight: 9}, {Sense: "fruit", Weight: 3}})
	if got.Weight != 9 {
		t.Fatalf("weight = %d, want 9", got.Weight)
	}
}

func TestSelectorByName(t *testing.T) {
	for _, name := range []string{"", "sense", "weight"} {
		if _, err := SelectorByName(name); err != nil {
			t.Fatalf("SelectorByName(%q): %v", name, err)
		}
	}
	if _, err := SelectorByName("random"); err == nil {
		t.Fatalf("unknown selector accepted")
	}
}

func TestResolveSenses(t *testing.T) {
	ctx := context.Background()
	g := chainFor(t, "l", "avocat", "mange", "un", "avocat")
	senses := lexicon.StaticSenses{
		"avocat": {{Sense: "fruit", Weight: 60}, {Sense: "juriste", Weight: 40}},
		"mange":  {{Sense: "manger", Weight: 10}},
		"⊤":      {{Sense: "sentinel sense", Weight: 1}},
	}

	n, err := ResolveSenses(ctx, g, senses, nil)
	if err != nil {
		t.Fatalf("ResolveSenses: %v", err)
	}
	if n != 3 {
		t.Fatalf("edges added = %d, want 3", n)
	}
	if !g.HasEdge("avocat", "juriste", common.LabelDisambiguate) || !g.HasEdge("avocat#2", "juriste", common.LabelDisambiguate) {
		t.Fatalf("avocat not linked to juriste: %v", g.Edges())
	}
	if !g.HasEdge("mange", "manger", common.LabelDisambiguate) {
		t.Fatalf("mange not linked")
	}
	sense, _ := g.Node("juriste")
	if sense.Kind != common.KindSense {
		t.Fatalf("sense node kind = %s", sense.Kind)
	}
	if _, ok := g.Node("sentinel sense"); ok {
		t.Fatalf("sentinel was disambiguated")
	}
	for _, node := range g.Nodes() {
		if len(g.OutEdges(node.Key, common.LabelDisambiguate)) > 1 {
			t.Fatalf("%s has more than one sense", node.Key)
		}
	}

	again, err := ResolveSenses(ctx, g, senses, MaxByWeight)
	if err != nil {
		t.Fatalf("ResolveSenses: %v", err)
	}
	if again != 0 {
		t.Fatalf("second run added %d edges", again)
	}
}

func TestResolveSensesCompound(t *testing.T) {
	tokens := []string{"pomme", "de", "terre"}
	g := chainFor(t, tokens...)
	if _, err := LinkCompounds(g, tokens, []string{"pomme de terre"}, CompoundOptions{}); err != nil {
		t.Fatalf("LinkCompounds: %v", err)
	}
	senses := lexicon.StaticSenses{"pomme de terre": {{Sense: "tubercule", Weight: 50}}}
	if _, err := ResolveSenses(context.Background(), g, senses, LastBySense); err != nil {
		t.Fatalf("ResolveSenses: %v", err)
	}
	if !g.HasEdge("pomme de terre", "tubercule", common.LabelDisambiguate) {
		t.Fatalf("compound not disambiguated")
	}
}

func TestResolveSensesProviderError(t *testing.T) {
	boom := errors.New("lookup failed")
	g := chainFor(t, "chat")
	if _, err := ResolveSenses(context.Background(), g, failingSenses{err: boom}, nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
