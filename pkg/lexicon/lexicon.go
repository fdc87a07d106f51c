// Package lexicon defines the lexical lookups the pipeline depends on and
// the cached stores that serve them.
package lexicon

import (
	"context"
	"strconv"
	"strings"
)

// RelPOS is the JeuxDeMots relation type of part-of-speech relations.
const RelPOS = 4

// Candidate is one sense a term may take, with its weight in the lexical
// network.
type Candidate struct {
	Sense  string `json:"sense" msgpack:"sense"`
	Weight int    `json:"weight" msgpack:"weight"`
}

// NodeType is a node type declared by a relation dump.
type NodeType struct {
	ID   int    `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
}

// Entity is a node of the lexical network.
type Entity struct {
	ID            int64  `json:"id" msgpack:"id"`
	Name          string `json:"name" msgpack:"name"`
	Type          int    `json:"type" msgpack:"type"`
	Weight        int    `json:"weight" msgpack:"weight"`
	FormattedName string `json:"formatted_name,omitempty" msgpack:"formatted_name"`
}

// Relation is a typed, weighted edge of the lexical network.
type Relation struct {
	ID               int64   `json:"id" msgpack:"id"`
	SourceID         int64   `json:"source_id" msgpack:"source_id"`
	TargetID         int64   `json:"target_id" msgpack:"target_id"`
	Type             int     `json:"type" msgpack:"type"`
	Weight           int     `json:"weight" msgpack:"weight"`
	NormalizedWeight float64 `json:"normalized_weight" msgpack:"normalized_weight"`
	Rank             int     `json:"rank" msgpack:"rank"`
}

// RelationText describes a relation type.
type RelationText struct {
	ID      int    `json:"id" msgpack:"id"`
	Name    string `json:"name" msgpack:"name"`
	GPName  string `json:"gp_name" msgpack:"gp_name"`
	Comment string `json:"comment,omitempty" msgpack:"comment"`
}

// RelationDump is everything the lexical network returns for one word.
// EntityID is empty when the word is unknown.
type RelationDump struct {
	EntityID      string         `json:"eid" msgpack:"eid"`
	NodeTypes     []NodeType     `json:"nt" msgpack:"nt"`
	Entities      []Entity       `json:"e" msgpack:"e"`
	Relations     []Relation     `json:"r" msgpack:"r"`
	RelationTexts []RelationText `json:"rt" msgpack:"rt"`
}

// Empty reports whether the dump carries no data for its word.
func (d RelationDump) Empty() bool {
	return d.EntityID == "" && len(d.Entities) == 0 && len(d.Relations) == 0
}

// Entity returns the entity with the given id.
func (d RelationDump) Entity(id int64) (Entity, bool) {
	for _, e := range d.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// HasPOS reports whether the word has an r_pos relation to a part-of-speech
// entity whose name starts with prefix, for example "Ver:".
func (d RelationDump) HasPOS(prefix string) bool {
	eid, err := strconv.ParseInt(d.EntityID, 10, 64)
	known := err == nil
	for _, r := range d.Relations {
		if r.Type != RelPOS {
			continue
		}
		if known && r.SourceID != eid {
			continue
		}
		if e, ok := d.Entity(r.TargetID); ok && strings.HasPrefix(e.Name, prefix) {
			return true
		}
	}
	return false
}

// CompoundWordsProvider lists the known multi-word expressions, lower-cased.
type CompoundWordsProvider interface {
	List(ctx context.Context) ([]string, error)
}

// DisambiguationProvider returns the sense candidates of a term. A term with
// no entry yields an empty slice and no error.
type DisambiguationProvider interface {
	Lookup(ctx context.Context, term string) ([]Candidate, error)
}

// RelationProvider returns the relation dump of a word.
type RelationProvider interface {
	Lookup(ctx context.Context, word string) (RelationDump, error)
}

// Source is the remote network the cached stores fetch from.
type Source interface {
	CompoundWords(ctx context.Context) ([]string, error)
	DisambiguationTable(ctx context.Context) (map[string][]Candidate, error)
	RelationDump(ctx context.Context, word string) (RelationDump, error)
}
