package graph

import (
	"fmt"
	"strconv"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

const (
	// StartNode is the key of the start-of-sentence sentinel.
	StartNode = "⊤"
	// EndNode is the key of the end-of-sentence sentinel.
	EndNode = "⊥"
)

// Node is a vertex of a lexical graph. Key is unique within the graph; Text
// is the surface form the resolvers match against.
type Node struct {
	Key  string
	Text string
	Kind common.NodeKind
}

// Edge is a directed labeled edge. Shortest paths ignore the direction.
type Edge struct {
	Source string
	Target string
	Label  common.Label
}

// Graph is a labeled multigraph over the tokens of one sentence. Two edges
// between the same nodes may coexist as long as their labels differ.
//
// A Graph is not safe for concurrent use; a pipeline run owns its graph.
type Graph struct {
	nodes []*Node
	index map[string]*Node

	edges   []Edge
	edgeSet map[Edge]struct{}
	out     map[string][]int
	adj     map[string][]string

	chain []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index:   make(map[string]*Node),
		edgeSet: make(map[Edge]struct{}),
		out:     make(map[string][]int),
		adj:     make(map[string][]string),
	}
}

func (g *Graph) uniqueKey(text string) string {
	if _, taken := g.index[text]; !taken {
		return text
	}
	for i := 2; ; i++ {
		key := text + "#" + strconv.Itoa(i)
		if _, taken := g.index[key]; !taken {
			return key
		}
	}
}

// AddNode inserts a new node for text. The key is text itself unless that
// key is taken, in which case a "#n" suffix keeps it unique.
func (g *Graph) AddNode(text string, kind common.NodeKind) *Node {
	n := &Node{Key: g.uniqueKey(text), Text: text, Kind: kind}
	g.insert(n)
	return n
}

func (g *Graph) insert(n *Node) {
	g.nodes = append(g.nodes, n)
	g.index[n.Key] = n
}

// EnsureNode returns the first node with the given kind and text, adding it
// when absent.
func (g *Graph) EnsureNode(text string, kind common.NodeKind) *Node {
	for _, n := range g.nodes {
		if n.Kind == kind && n.Text == text {
			return n
		}
	}
	return g.AddNode(text, kind)
}

// Node returns the node stored under key.
func (g *Graph) Node(key string) (*Node, bool) {
	n, ok := g.index[key]
	return n, ok
}

// Nodes returns the nodes in insertion order. The slice is a copy; the
// nodes are shared.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// AddEdge inserts the edge source -> target with label. It reports false
// when the identical edge already exists.
func (g *Graph) AddEdge(source, target string, label common.Label) (bool, error) {
	if _, ok := g.index[source]; !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownNode, source)
	}
	if _, ok := g.index[target]; !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownNode, target)
	}
	if !label.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}

	e := Edge{Source: source, Target: target, Label: label}
	if _, dup := g.edgeSet[e]; dup {
		return false, nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.out[source] = append(g.out[source], len(g.edges)-1)
	g.adj[source] = append(g.adj[source], target)
	if source != target {
		g.adj[target] = append(g.adj[target], source)
	}
	return true, nil
}

// HasEdge reports whether the exact edge exists.
func (g *Graph) HasEdge(source, target string, label common.Label) bool {
	_, ok := g.edgeSet[Edge{Source: source, Target: target, Label: label}]
	return ok
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// OutEdges returns the edges leaving key with the given label, oldest first.
func (g *Graph) OutEdges(key string, label common.Label) []Edge {
	var out []Edge
	for _, i := range g.out[key] {
		if g.edges[i].Label == label {
			out = append(out, g.edges[i])
		}
	}
	return out
}

// Chain returns the node keys of the word chain from StartNode to EndNode.
func (g *Graph) Chain() []string {
	out := make([]string, len(g.chain))
	copy(out, g.chain)
	return out
}

// ChainNext returns the chain node following key, if key is on the chain
// and not the last element.
func (g *Graph) ChainNext(key string) (*Node, bool) {
	for i, k := range g.chain {
		if k == key && i+1 < len(g.chain) {
			return g.index[g.chain[i+1]], true
		}
	}
	return nil, false
}

// ShortestPathLength returns the number of edges on a shortest path between
// a and b, treating every edge as undirected and of unit weight. The second
// result is false when no path exists.
func (g *Graph) ShortestPathLength(a, b string) (int, bool) {
	if _, ok := g.index[a]; !ok {
		return 0, false
	}
	if _, ok := g.index[b]; !ok {
		return 0, false
	}
	if a == b {
		return 0, true
	}

	dist := map[string]int{a: 0}
	queue := []string{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.adj[cur] {
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[cur] + 1
			if next == b {
				return dist[next], true
			}
			queue = append(queue, next)
		}
	}
	return 0, false
}
