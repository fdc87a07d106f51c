package graph

import (
	"context"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

type antecedent struct {
	article string
	key     string
}

// ResolveAnaphora links pronouns to antecedents.
//
// Every article with an outgoing r_succ edge proposes the target of its
// last such edge as an antecedent, one proposal per article node in
// insertion order. Each pronoun scores every proposal as 1/(1+d), d being
// the undirected shortest path length over the whole graph at that moment,
// and gets an r_reference edge to the strictly best one. Unreachable
// proposals, sentinels and the pronoun itself are not considered. Pronouns
// that already reference something are skipped.
func ResolveAnaphora(ctx context.Context, g *Graph, classifier RoleClassifier) ([]common.Reference, error) {
	if classifier == nil {
		classifier = DefaultRoles()
	}

	nodes := g.Nodes()
	roles := make([]Role, len(nodes))
	for i, n := range nodes {
		role, err := classifier.Classify(ctx, g, n)
		if err != nil {
			return nil, err
		}
		roles[i] = role
	}

	var candidates []antecedent
	for i, n := range nodes {
		if !roles[i].Has(RoleArticle) {
			continue
		}
		succ := g.OutEdges(n.Key, common.LabelSucc)
		if len(succ) == 0 {
			continue
		}
		target := succ[len(succ)-1].Target
		if t, _ := g.Node(target); IsSentinel(t) {
			continue
		}
		candidates = append(candidates, antecedent{article: n.Key, key: target})
	}

	var refs []common.Reference
	for i, n := range nodes {
		if !roles[i].Has(RolePronoun) {
			continue
		}
		if len(g.OutEdges(n.Key, common.LabelReference)) > 0 {
			continue
		}

		best, bestScore := "", 0.0
		for _, c := range candidates {
			if c.key == n.Key {
				continue
			}
			d, ok := g.ShortestPathLength(c.key, n.Key)
			if !ok {
				continue
			}
			score := 1 / (1 + float64(d))
			if score > bestScore {
				best, bestScore = c.key, score
			}
		}
		if best == "" {
			continue
		}

		if _, err := g.AddEdge(n.Key, best, common.LabelReference); err != nil {
			return refs, err
		}
		refs = append(refs, common.Reference{Pronoun: n.Key, Antecedent: best, Score: bestScore})
	}
	return refs, nil
}
