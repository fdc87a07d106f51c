package graph

import (
	"errors"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

var (
	// ErrEmptyChain is returned when a chain is built from zero tokens.
	ErrEmptyChain = errors.New("graph: empty token sequence")
	// ErrChainMismatch is returned when a stage is given tokens that are
	// not the ones the chain was built from.
	ErrChainMismatch = errors.New("graph: tokens do not match the chain")

	ErrUnknownNode  = errors.New("graph: unknown node")
	ErrUnknownLabel = errors.New("graph: unknown label")
)

// BuildChain creates the word chain ⊤ t1 … tn ⊥ with one node per token
// position and an r_succ edge between every consecutive pair.
//
// The chain is the only place word order is recorded; later stages add
// nodes and edges but never reorder it.
func BuildChain(tokens []string) (*Graph, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyChain
	}

	g := New()
	g.insert(&Node{Key: StartNode, Text: StartNode, Kind: common.KindSentinel})
	g.chain = append(g.chain, StartNode)

	for _, tok := range tokens {
		n := g.AddNode(tok, common.KindToken)
		g.chain = append(g.chain, n.Key)
	}

	// A token spelled "⊥" keeps its key and the sentinel gets a suffix.
	end := &Node{Key: g.uniqueKey(EndNode), Text: EndNode, Kind: common.KindSentinel}
	g.insert(end)
	g.chain = append(g.chain, end.Key)

	for i := 0; i+1 < len(g.chain); i++ {
		if _, err := g.AddEdge(g.chain[i], g.chain[i+1], common.LabelSucc); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// IsSentinel reports whether n is one of the chain boundaries.
func IsSentinel(n *Node) bool {
	return n != nil && n.Kind == common.KindSentinel
}
