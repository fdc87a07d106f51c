package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
)

// SenseSelector picks one sense among the candidates of a term. It reports
// false when none should be chosen.
type SenseSelector func(candidates []lexicon.Candidate) (lexicon.Candidate, bool)

// LastBySense orders candidates by sense, then weight, ascending and takes
// the last one. The weight only separates identical senses.
func LastBySense(candidates []lexicon.Candidate) (lexicon.Candidate, bool) {
	if len(candidates) == 0 {
		return lexicon.Candidate{}, false
	}
	sorted := make([]lexicon.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Sense != sorted[j].Sense {
			return sorted[i].Sense < sorted[j].Sense
		}
		return sorted[i].Weight < sorted[j].Weight
	})
	return sorted[len(sorted)-1], true
}

// MaxByWeight takes the candidate with the highest weight, the first one on
// ties.
func MaxByWeight(candidates []lexicon.Candidate) (lexicon.Candidate, bool) {
	if len(candidates) == 0 {
		return lexicon.Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Weight > best.Weight {
			best = c
		}
	}
	return best, true
}

// SelectorByName maps "sense" and "weight" to their selectors.
func SelectorByName(name string) (SenseSelector, error) {
	switch name {
	case "", "sense":
		return LastBySense, nil
	case "weight":
		return MaxByWeight, nil
	}
	return nil, fmt.Errorf("unknown sense selector %q", name)
}

// ResolveSenses looks up every node present when it starts, sentinels and
// sense nodes aside, and links each term with candidates to the selected
// sense node through r_disambiguate. Sense nodes are shared between terms.
// Nodes that already carry an r_disambiguate edge are left alone. It returns
// the number of edges added; a provider error aborts the stage.
func ResolveSenses(ctx context.Context, g *Graph, provider lexicon.DisambiguationProvider, selector SenseSelector) (int, error) {
	if selector == nil {
		selector = LastBySense
	}

	added := 0
	for _, n := range g.Nodes() {
		if n.Kind == common.KindSentinel || n.Kind == common.KindSense {
			continue
		}
		if len(g.OutEdges(n.Key, common.LabelDisambiguate)) > 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return added, err
		}

		candidates, err := provider.Lookup(ctx, n.Text)
		if err != nil {
			return added, fmt.Errorf("failed to look up senses of %q: %w", n.Text, err)
		}
		chosen, ok := selector(candidates)
		if !ok {
			continue
		}

		sense := g.EnsureNode(chosen.Sense, common.KindSense)
		if _, err := g.AddEdge(n.Key, sense.Key, common.LabelDisambiguate); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
