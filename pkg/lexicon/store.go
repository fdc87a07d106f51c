package lexicon

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/cache"
)

// Store names double as the persisted record names.
const (
	CompoundWordsStoreName  = "compound_words"
	DisambiguationStoreName = "disambiguate_terms"
	RelationStoreName       = "dump_words"
)

// StoreParams holds what every cached store shares. Zero values fall back to
// the cache defaults.
type StoreParams struct {
	Persister cache.Persister
	Expiry    time.Duration
	Observer  cache.Observer
	Clock     func() time.Time
}

// Refresher is a store that can be forced to refetch everything it holds.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) error
}

func newCache[T any](ctx context.Context, name string, params StoreParams, fetch cache.FetchFunc[T]) (*cache.ExpiringCache[T], error) {
	c, err := cache.New(ctx, cache.Params[T]{
		Name:      name,
		Fetch:     fetch,
		Expiry:    params.Expiry,
		Persister: params.Persister,
		Observer:  params.Observer,
		Clock:     params.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s store: %w", name, err)
	}
	return c, nil
}

// CompoundWordsStore serves the compound word list from an expiring cache.
type CompoundWordsStore struct {
	cache *cache.ExpiringCache[[]string]
}

func NewCompoundWordsStore(ctx context.Context, params StoreParams, src Source) (*CompoundWordsStore, error) {
	c, err := newCache(ctx, CompoundWordsStoreName, params, func(ctx context.Context, _ string) ([]string, error) {
		return src.CompoundWords(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &CompoundWordsStore{cache: c}, nil
}

func (s *CompoundWordsStore) Name() string { return CompoundWordsStoreName }

func (s *CompoundWordsStore) List(ctx context.Context) ([]string, error) {
	return s.cache.Get(ctx, "")
}

func (s *CompoundWordsStore) Refresh(ctx context.Context) error {
	_, err := s.cache.Refresh(ctx, "")
	return err
}

// DisambiguationStore holds the whole term to candidates table as one
// cached value and answers lookups from it.
type DisambiguationStore struct {
	cache *cache.ExpiringCache[map[string][]Candidate]
}

func NewDisambiguationStore(ctx context.Context, params StoreParams, src Source) (*DisambiguationStore, error) {
	c, err := newCache(ctx, DisambiguationStoreName, params, func(ctx context.Context, _ string) (map[string][]Candidate, error) {
		return src.DisambiguationTable(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &DisambiguationStore{cache: c}, nil
}

func (s *DisambiguationStore) Name() string { return DisambiguationStoreName }

func (s *DisambiguationStore) Lookup(ctx context.Context, term string) ([]Candidate, error) {
	table, err := s.cache.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	return table[term], nil
}

func (s *DisambiguationStore) Refresh(ctx context.Context) error {
	_, err := s.cache.Refresh(ctx, "")
	return err
}

// RelationStore caches one relation dump per word.
type RelationStore struct {
	cache *cache.ExpiringCache[RelationDump]
}

func NewRelationStore(ctx context.Context, params StoreParams, src Source) (*RelationStore, error) {
	c, err := newCache(ctx, RelationStoreName, params, func(ctx context.Context, word string) (RelationDump, error) {
		if word == "" {
			return RelationDump{}, nil
		}
		return src.RelationDump(ctx, word)
	})
	if err != nil {
		return nil, err
	}
	return &RelationStore{cache: c}, nil
}

func (s *RelationStore) Name() string { return RelationStoreName }

func (s *RelationStore) Lookup(ctx context.Context, word string) (RelationDump, error) {
	return s.cache.Get(ctx, word)
}

// Refresh refetches the dump of every word held.
func (s *RelationStore) Refresh(ctx context.Context) error {
	for _, word := range s.cache.Keys() {
		if _, err := s.cache.Refresh(ctx, word); err != nil {
			return err
		}
	}
	return nil
}
