package setup

import (
	"context"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/lexgraph/pkg/cache"
	cacheio "github.com/OFFIS-RIT/lexgraph/pkg/cache/io"
	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"
)

type fakeSource struct{}

func (fakeSource) CompoundWords(context.Context) ([]string, error) {
	return []string{"pomme de terre"}, nil
}

func (fakeSource) DisambiguationTable(context.Context) (map[string][]lexicon.Candidate, error) {
	return map[string][]lexicon.Candidate{"chat": {{Sense: "félin", Weight: 10}}}, nil
}

func (fakeSource) RelationDump(context.Context, string) (lexicon.RelationDump, error) {
	return lexicon.RelationDump{}, nil
}

func testConfig() Config {
	return Config{CacheBackend: CacheMemory, GraphStore: StoreMemory, RoleClassifier: RolesFixed}
}

func TestNewServices(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, testConfig(), Overrides{Source: fakeSource{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close(ctx)

	a, err := s.Graph.Analyze(ctx, "La pomme de terre et le chat.")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	found := false
	for _, e := range a.Graph.Edges {
		if e.Source == "chat" && e.Target == "félin" && e.Label == common.LabelDisambiguate {
			found = true
		}
	}
	if !found {
		t.Fatalf("pipeline did not use the source: %v", a.Graph.Edges)
	}

	if err := s.Storage.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if _, err := s.Storage.GetAnalysis(ctx, a.ID); err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
}

func TestNewServicesRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "cache backend", mutate: func(c *Config) { c.CacheBackend = "floppy" }},
		{name: "graph store", mutate: func(c *Config) { c.GraphStore = "sqlite" }},
		{name: "role classifier", mutate: func(c *Config) { c.RoleClassifier = "guess" }},
		{name: "sense selector", mutate: func(c *Config) { c.SenseSelector = "random" }},
		{name: "postgres without url", mutate: func(c *Config) { c.GraphStore = StorePostgres }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := New(context.Background(), cfg, Overrides{Source: fakeSource{}}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestStoreByName(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, testConfig(), Overrides{Source: fakeSource{}, Storage: store.NewMemoryStorage()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{lexicon.CompoundWordsStoreName, lexicon.DisambiguationStoreName, lexicon.RelationStoreName} {
		st, err := s.Store(name)
		if err != nil || st.Name() != name {
			t.Fatalf("Store(%s) = %v, %v", name, st, err)
		}
	}
	if _, err := s.Store("nope"); err == nil {
		t.Fatalf("unknown store accepted")
	}
}

func TestNewPersister(t *testing.T) {
	ctx := context.Background()

	p, _, err := NewPersister(ctx, Config{CacheBackend: CacheFile, DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewPersister: %v", err)
	}
	if _, ok := p.(*cacheio.FilePersister); !ok {
		t.Fatalf("file backend = %T", p)
	}

	p, _, err = NewPersister(ctx, Config{CacheBackend: CacheMemory})
	if err != nil {
		t.Fatalf("NewPersister: %v", err)
	}
	if _, err := p.Load(ctx, "x"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("memory Load = %v", err)
	}
}

func TestRoleClassifier(t *testing.T) {
	fixed, err := RoleClassifier("", nil)
	if err != nil {
		t.Fatalf("RoleClassifier: %v", err)
	}
	if _, ok := fixed.(graph.FixedRoles); !ok {
		t.Fatalf("default = %T", fixed)
	}
	pos, err := RoleClassifier(RolesPOS, lexicon.StaticRelations{})
	if err != nil {
		t.Fatalf("RoleClassifier: %v", err)
	}
	if _, ok := pos.(graph.POSRoles); !ok {
		t.Fatalf("pos = %T", pos)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_EXPIRY", "24h")
	t.Setenv("PREFETCH_RELATIONS", "true")
	cfg := ConfigFromEnv()
	if cfg.CacheBackend != CacheRedis || cfg.CacheExpiry.Hours() != 24 || !cfg.PrefetchRelations {
		t.Fatalf("cfg = %+v", cfg)
	}
}
