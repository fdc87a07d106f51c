package lexicon

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/lexgraph/pkg/cache"
)

type fakeSource struct {
	compounds     []string
	table         map[string][]Candidate
	dumps         map[string]RelationDump
	err           error
	compoundCalls int
	tableCalls    int
	dumpCalls     map[string]int
}

func (f *fakeSource) CompoundWords(context.Context) ([]string, error) {
	f.compoundCalls++
	return f.compounds, f.err
}

func (f *fakeSource) DisambiguationTable(context.Context) (map[string][]Candidate, error) {
	f.tableCalls++
	return f.table, f.err
}

func (f *fakeSource) RelationDump(_ context.Context, word string) (RelationDump, error) {
	if f.dumpCalls == nil {
		f.dumpCalls = map[string]int{}
	}
	f.dumpCalls[word]++
	return f.dumps[word], f.err
}

func TestHasPOS(t *testing.T) {
	dump := RelationDump{
		EntityID: "150",
		Entities: []Entity{
			{ID: 150, Name: "dort"},
			{ID: 9, Name: "Ver:IPre+SG+P3"},
			{ID: 10, Name: "Nom:Mas+SG"},
		},
		Relations: []Relation{
			{ID: 1, SourceID: 150, TargetID: 9, Type: RelPOS, Weight: 50},
			{ID: 2, SourceID: 10, TargetID: 150, Type: RelPOS, Weight: 10},
		},
	}

	tests := []struct {
		prefix string
		want   bool
	}{
		{"Ver:", true},
		{"Nom:", false},
		{"Adj:", false},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			if got := dump.HasPOS(tt.prefix); got != tt.want {
				t.Fatalf("HasPOS(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}

	if (RelationDump{}).HasPOS("Ver:") {
		t.Fatalf("empty dump reported a part of speech")
	}
}

func TestCompoundWordsStoreFetchesOnce(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{compounds: []string{"pomme de terre"}}
	persister := cache.NewMemoryPersister()

	for i := 0; i < 2; i++ {
		s, err := NewCompoundWordsStore(ctx, StoreParams{Persister: persister}, src)
		if err != nil {
			t.Fatalf("NewCompoundWordsStore: %v", err)
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"pomme de terre"}) {
			t.Fatalf("List = %v", got)
		}
	}
	if src.compoundCalls != 1 {
		t.Fatalf("source calls = %d, want 1", src.compoundCalls)
	}
}

func TestDisambiguationStoreLookup(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{table: map[string][]Candidate{
		"avocat": {{Sense: "juriste", Weight: 40}, {Sense: "fruit", Weight: 60}},
	}}
	s, err := NewDisambiguationStore(ctx, StoreParams{}, src)
	if err != nil {
		t.Fatalf("NewDisambiguationStore: %v", err)
	}

	got, err := s.Lookup(ctx, "avocat")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Lookup = %v", got)
	}
	missing, err := s.Lookup(ctx, "table")
	if err != nil || len(missing) != 0 {
		t.Fatalf("Lookup(table) = %v, %v", missing, err)
	}
	if src.tableCalls != 1 {
		t.Fatalf("table fetched %d times, want 1", src.tableCalls)
	}
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if src.tableCalls != 2 {
		t.Fatalf("table fetched %d times after refresh, want 2", src.tableCalls)
	}
}

func TestRelationStorePerWord(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{dumps: map[string]RelationDump{
		"chat": {EntityID: "1"},
		"dort": {EntityID: "2"},
	}}
	s, err := NewRelationStore(ctx, StoreParams{}, src)
	if err != nil {
		t.Fatalf("NewRelationStore: %v", err)
	}

	for _, w := range []string{"chat", "dort", "chat"} {
		if _, err := s.Lookup(ctx, w); err != nil {
			t.Fatalf("Lookup(%q): %v", w, err)
		}
	}
	if src.dumpCalls["chat"] != 1 || src.dumpCalls["dort"] != 1 {
		t.Fatalf("dump calls = %v", src.dumpCalls)
	}

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if src.dumpCalls["chat"] != 2 || src.dumpCalls["dort"] != 2 {
		t.Fatalf("dump calls after refresh = %v", src.dumpCalls)
	}
}

func TestStoreFetchError(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{err: errors.New("offline")}
	s, err := NewCompoundWordsStore(ctx, StoreParams{}, src)
	if err != nil {
		t.Fatalf("NewCompoundWordsStore: %v", err)
	}
	if _, err := s.List(ctx); !errors.Is(err, cache.ErrFetch) {
		t.Fatalf("List err = %v, want ErrFetch", err)
	}
}
