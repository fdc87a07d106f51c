package graph

import (
	"fmt"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

// Export converts g into its serializable form.
func (g *Graph) Export() common.Graph {
	out := common.Graph{
		Nodes: make([]string, 0, len(g.nodes)),
		Edges: make([]common.Edge, 0, len(g.edges)),
		Meta:  make(map[string]common.NodeMeta, len(g.nodes)),
	}
	for _, n := range g.nodes {
		out.Nodes = append(out.Nodes, n.Key)
		out.Meta[n.Key] = common.NodeMeta{Text: n.Text, Kind: n.Kind}
	}
	for _, e := range g.edges {
		out.Edges = append(out.Edges, common.Edge{Source: e.Source, Target: e.Target, Label: e.Label})
	}
	return out
}

// FromExport rebuilds a graph from its exported form. Nodes without meta
// are treated as tokens whose text is their key. The chain is recovered by
// following r_succ edges of token and sentinel nodes from StartNode.
func FromExport(e common.Graph) (*Graph, error) {
	g := New()
	for _, key := range e.Nodes {
		if _, dup := g.index[key]; dup {
			return nil, fmt.Errorf("graph: duplicate node %q", key)
		}
		meta, ok := e.Meta[key]
		if !ok {
			meta = common.NodeMeta{Text: key, Kind: common.KindToken}
		}
		g.insert(&Node{Key: key, Text: meta.Text, Kind: meta.Kind})
	}
	for _, edge := range e.Edges {
		if _, err := g.AddEdge(edge.Source, edge.Target, edge.Label); err != nil {
			return nil, err
		}
	}
	g.chain = g.recoverChain()
	return g, nil
}

func (g *Graph) recoverChain() []string {
	if _, ok := g.index[StartNode]; !ok {
		return nil
	}
	chain := []string{StartNode}
	seen := map[string]bool{StartNode: true}
	cur := StartNode
	for {
		next := ""
		for _, e := range g.OutEdges(cur, common.LabelSucc) {
			n := g.index[e.Target]
			if n.Kind == common.KindToken || n.Kind == common.KindSentinel {
				next = e.Target
				break
			}
		}
		if next == "" || seen[next] {
			return chain
		}
		chain = append(chain, next)
		seen[next] = true
		if g.index[next].Kind == common.KindSentinel {
			return chain
		}
		cur = next
	}
}
