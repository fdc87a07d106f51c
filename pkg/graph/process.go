package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/tokenize"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// ErrNoRelations is returned by Relations on a client built without a
// relation provider.
var ErrNoRelations = errors.New("graph: no relation provider configured")

// Result is the outcome of one pipeline run.
type Result struct {
	Sentence   string
	Tokens     []string
	Graph      *Graph
	Compounds  int
	Senses     int
	References []common.Reference
}

// Process runs tokenize, chain, compound, disambiguation and anaphora over
// text. Validation errors from the first two stages are returned unwrapped
// so callers can match them with errors.Is.
func (c *GraphClient) Process(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	tokens, err := tokenize.Tokenize(text)
	c.observe(StageTokenize, start, err)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	g, err := BuildChain(tokens)
	c.observe(StageChain, start, err)
	if err != nil {
		return nil, err
	}
	res := &Result{Sentence: text, Tokens: tokens, Graph: g}

	start = time.Now()
	list, err := c.compounds.List(ctx)
	if err == nil {
		res.Compounds, err = LinkCompoundsIndexed(g, tokens, c.compoundIndex(list), c.compoundOptions)
	}
	c.observe(StageCompound, start, err)
	if err != nil {
		return nil, fmt.Errorf("compound linking failed: %w", err)
	}

	start = time.Now()
	res.Senses, err = ResolveSenses(ctx, g, c.senses, c.selector)
	c.observe(StageDisambiguate, start, err)
	if err != nil {
		return nil, fmt.Errorf("disambiguation failed: %w", err)
	}

	if c.prefetch {
		start = time.Now()
		err = c.prefetchRelations(ctx, tokens)
		c.observe(StagePrefetch, start, err)
		if err != nil {
			logger.Warn("[Graph] Relation prefetch incomplete", "err", err)
		}
	}

	start = time.Now()
	res.References, err = ResolveAnaphora(ctx, g, c.roles)
	c.observe(StageAnaphora, start, err)
	if err != nil {
		return nil, fmt.Errorf("anaphora resolution failed: %w", err)
	}

	logger.Debug("[Graph] Sentence processed",
		"tokens", len(tokens),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"compounds", res.Compounds,
		"senses", res.Senses,
		"references", len(res.References),
	)
	return res, nil
}

// Analyze runs Process and packs the result with a fresh ID.
func (c *GraphClient) Analyze(ctx context.Context, text string) (common.Analysis, error) {
	id, err := gonanoid.New()
	if err != nil {
		return common.Analysis{}, fmt.Errorf("failed to generate id: %w", err)
	}
	return c.AnalyzeWithID(ctx, id, text)
}

// AnalyzeWithID is Analyze with a caller supplied ID, used by the queue
// worker so results match their request.
func (c *GraphClient) AnalyzeWithID(ctx context.Context, id, text string) (common.Analysis, error) {
	res, err := c.Process(ctx, text)
	if err != nil {
		return common.Analysis{}, err
	}
	return common.Analysis{
		ID:         id,
		Sentence:   res.Sentence,
		Tokens:     res.Tokens,
		Graph:      res.Graph.Export(),
		References: res.References,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Relations returns the raw relation dump of word.
func (c *GraphClient) Relations(ctx context.Context, word string) (lexicon.RelationDump, error) {
	if c.relations == nil {
		return lexicon.RelationDump{}, ErrNoRelations
	}
	return c.relations.Lookup(ctx, word)
}

func (c *GraphClient) prefetchRelations(ctx context.Context, tokens []string) error {
	seen := make(map[string]bool, len(tokens))
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.parallelLookups)
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		word := tok
		eg.Go(func() error {
			_, err := c.relations.Lookup(gCtx, word)
			return err
		})
	}
	return eg.Wait()
}
