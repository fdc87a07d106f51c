package common

import "time"

// Label is the relation carried by an edge of a lexical graph.
type Label string

const (
	// LabelSucc links a word to the word that follows it.
	LabelSucc Label = "r_succ"
	// LabelCompound links a compound node to a word it covers.
	LabelCompound Label = "r_compound"
	// LabelDisambiguate links a term to the sense chosen for it.
	LabelDisambiguate Label = "r_disambiguate"
	// LabelReference links a pronoun to its antecedent.
	LabelReference Label = "r_reference"
)

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	switch l {
	case LabelSucc, LabelCompound, LabelDisambiguate, LabelReference:
		return true
	}
	return false
}

// NodeKind tells what a node of a lexical graph stands for.
type NodeKind string

const (
	KindSentinel NodeKind = "sentinel"
	KindToken    NodeKind = "token"
	KindCompound NodeKind = "compound"
	KindSense    NodeKind = "sense"
)

// Graph is the exported form of a lexical graph. Nodes lists node keys in
// insertion order; Meta carries the surface text and kind of every node so
// the graph can be rebuilt from storage.
type Graph struct {
	Nodes []string            `json:"nodes"`
	Edges []Edge              `json:"edges"`
	Meta  map[string]NodeMeta `json:"meta,omitempty"`
}

// Edge is a directed, labeled edge between two node keys.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  Label  `json:"label"`
}

// NodeMeta describes a node of an exported Graph.
type NodeMeta struct {
	Text string   `json:"text"`
	Kind NodeKind `json:"kind"`
}

// Reference is a resolved pronoun together with the score that selected its
// antecedent.
type Reference struct {
	Pronoun    string  `json:"pronoun"`
	Antecedent string  `json:"antecedent"`
	Score      float64 `json:"score"`
}

// Analysis is the result of running the pipeline over one sentence. It is
// the unit that gets stored, published on the queue and returned by the API.
type Analysis struct {
	ID         string      `json:"id"`
	Sentence   string      `json:"sentence"`
	Tokens     []string    `json:"tokens"`
	Graph      Graph       `json:"graph"`
	References []Reference `json:"references,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
