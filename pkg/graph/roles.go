package graph

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
)

// Role is the grammatical role of a node for anaphora resolution. A node
// may hold both roles.
type Role uint8

const (
	// RoleArticle marks a determiner whose successor is an antecedent candidate.
	RoleArticle Role = 1 << iota
	// RolePronoun marks a word that refers back to an antecedent.
	RolePronoun
)

// Has reports whether r includes role.
func (r Role) Has(role Role) bool { return r&role != 0 }

// RoleClassifier decides which roles a node plays.
type RoleClassifier interface {
	Classify(ctx context.Context, g *Graph, n *Node) (Role, error)
}

var (
	// DefaultArticles are the French determiners that propose antecedents.
	DefaultArticles = []string{"le", "la", "les", "l", "un", "une", "des", "du", "de la", "de l", "de les"}
	// DefaultPronouns are the French pronouns resolved to an antecedent.
	// le, la and les appear in both lists.
	DefaultPronouns = []string{"il", "elle", "ils", "elles", "le", "la", "les", "lui", "leur"}
)

// FixedRoles classifies by surface text against two closed word lists. A
// word on both lists is both an article and a pronoun.
type FixedRoles struct {
	articles map[string]struct{}
	pronouns map[string]struct{}
}

func NewFixedRoles(articles, pronouns []string) FixedRoles {
	r := FixedRoles{
		articles: make(map[string]struct{}, len(articles)),
		pronouns: make(map[string]struct{}, len(pronouns)),
	}
	for _, a := range articles {
		r.articles[a] = struct{}{}
	}
	for _, p := range pronouns {
		r.pronouns[p] = struct{}{}
	}
	return r
}

// DefaultRoles returns FixedRoles over DefaultArticles and DefaultPronouns.
func DefaultRoles() FixedRoles {
	return NewFixedRoles(DefaultArticles, DefaultPronouns)
}

func (r FixedRoles) roleOf(n *Node) Role {
	if n.Kind != common.KindToken && n.Kind != common.KindCompound {
		return 0
	}
	var role Role
	if _, ok := r.articles[n.Text]; ok {
		role |= RoleArticle
	}
	if _, ok := r.pronouns[n.Text]; ok {
		role |= RolePronoun
	}
	return role
}

func (r FixedRoles) Classify(_ context.Context, _ *Graph, n *Node) (Role, error) {
	return r.roleOf(n), nil
}

// DefaultVerbPrefix marks verb parts of speech in the lexical network.
const DefaultVerbPrefix = "Ver:"

// POSRoles settles words that FixedRoles gives both roles by looking at the
// next chain word: before a verb the word is a pronoun ("il le mange"),
// otherwise an article ("le chat"). A word closing the sentence is a
// pronoun.
type POSRoles struct {
	Fixed      FixedRoles
	Relations  lexicon.RelationProvider
	VerbPrefix string
}

func NewPOSRoles(relations lexicon.RelationProvider) POSRoles {
	return POSRoles{
		Fixed:      DefaultRoles(),
		Relations:  relations,
		VerbPrefix: DefaultVerbPrefix,
	}
}

func (r POSRoles) Classify(ctx context.Context, g *Graph, n *Node) (Role, error) {
	role := r.Fixed.roleOf(n)
	if !role.Has(RoleArticle) || !role.Has(RolePronoun) {
		return role, nil
	}

	next, ok := g.ChainNext(n.Key)
	if !ok {
		// Not on the chain: nothing to decide from.
		return role, nil
	}
	if IsSentinel(next) {
		return RolePronoun, nil
	}

	dump, err := r.Relations.Lookup(ctx, next.Text)
	if err != nil {
		return 0, fmt.Errorf("failed to look up part of speech of %q: %w", next.Text, err)
	}
	prefix := r.VerbPrefix
	if prefix == "" {
		prefix = DefaultVerbPrefix
	}
	if dump.HasPOS(prefix) {
		return RolePronoun, nil
	}
	return RoleArticle, nil
}
