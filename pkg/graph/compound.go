package graph

import (
	"sort"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/tokenize"
)

// CompoundOptions tunes LinkCompounds.
//
// MembershipEdges additionally links every compound node to the tokens it
// covers with r_compound.
type CompoundOptions struct {
	MembershipEdges bool
}

type compoundExpr struct {
	surface string
	tokens  []string
}

// CompoundIndex holds tokenized multi-word expressions, indexed by their
// first token. Expressions of fewer than two tokens are dropped.
type CompoundIndex struct {
	exprs   []compoundExpr
	byFirst map[string][]int
}

// NewCompoundIndex tokenizes expressions with the sentence tokenizer.
// Expressions that fail to tokenize are skipped, and so are expressions
// whose tokens repeat an earlier one. The surface of a kept expression is
// its normalized, space-collapsed form.
func NewCompoundIndex(expressions []string) *CompoundIndex {
	idx := &CompoundIndex{byFirst: make(map[string][]int)}
	seen := make(map[string]struct{}, len(expressions))
	for _, expr := range expressions {
		toks, err := tokenize.Tokenize(expr)
		if err != nil || len(toks) < 2 {
			continue
		}
		key := strings.Join(toks, " ")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		surface := strings.Join(strings.Fields(tokenize.Normalize(expr)), " ")
		idx.byFirst[toks[0]] = append(idx.byFirst[toks[0]], len(idx.exprs))
		idx.exprs = append(idx.exprs, compoundExpr{surface: surface, tokens: toks})
	}
	return idx
}

// Len returns the number of usable expressions.
func (idx *CompoundIndex) Len() int { return len(idx.exprs) }

// candidates returns, in list order, the expressions whose first token
// occurs in tokens and whose tokens appear space-joined in the sentence.
func (idx *CompoundIndex) candidates(tokens []string) []int {
	joined := " " + strings.Join(tokens, " ") + " "
	seen := make(map[string]bool, len(tokens))
	var out []int
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		for _, i := range idx.byFirst[tok] {
			if strings.Contains(joined, " "+strings.Join(idx.exprs[i].tokens, " ")+" ") {
				out = append(out, i)
			}
		}
	}
	sort.Ints(out)
	return out
}

// LinkCompounds splices a compound node into g for every match of a known
// expression in tokens. See LinkCompoundsIndexed.
func LinkCompounds(g *Graph, tokens []string, expressions []string, opts CompoundOptions) (int, error) {
	return LinkCompoundsIndexed(g, tokens, NewCompoundIndex(expressions), opts)
}

// LinkCompoundsIndexed scans tokens once per expression from the left. Each
// verified match adds a compound node, an r_succ edge from the chain node
// before the span to it and one from it to the chain node after the span.
// The span tokens and their edges stay. Matches of one expression never
// overlap; matches of different expressions may. It returns the number of
// compound nodes added.
func LinkCompoundsIndexed(g *Graph, tokens []string, idx *CompoundIndex, opts CompoundOptions) (int, error) {
	chain := g.Chain()
	if len(chain) != len(tokens)+2 {
		return 0, ErrChainMismatch
	}

	added := 0
	for _, i := range idx.candidates(tokens) {
		expr := idx.exprs[i]
		m := len(expr.tokens)
		cursor := 0
		for {
			start := indexFrom(tokens, expr.tokens[0], cursor)
			if start < 0 {
				break
			}
			if !matchAt(tokens, expr.tokens, start) {
				cursor = start + 1
				continue
			}
			if err := splice(g, chain, expr.surface, start, start+m-1, opts); err != nil {
				return added, err
			}
			added++
			cursor = start + m
		}
	}
	return added, nil
}

func indexFrom(tokens []string, tok string, from int) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i] == tok {
			return i
		}
	}
	return -1
}

func matchAt(tokens, expr []string, start int) bool {
	if start+len(expr) > len(tokens) {
		return false
	}
	for k, tok := range expr {
		if tokens[start+k] != tok {
			return false
		}
	}
	return true
}

// splice bridges the token span [first, last] with a compound node. Token i
// sits at chain position i+1.
func splice(g *Graph, chain []string, surface string, first, last int, opts CompoundOptions) error {
	c := g.AddNode(surface, common.KindCompound)
	if _, err := g.AddEdge(chain[first], c.Key, common.LabelSucc); err != nil {
		return err
	}
	if _, err := g.AddEdge(c.Key, chain[last+2], common.LabelSucc); err != nil {
		return err
	}
	if opts.MembershipEdges {
		for pos := first + 1; pos <= last+1; pos++ {
			if _, err := g.AddEdge(c.Key, chain[pos], common.LabelCompound); err != nil {
				return err
			}
		}
	}
	return nil
}
