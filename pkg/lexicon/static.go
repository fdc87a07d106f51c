package lexicon

import "context"

// StaticCompounds is a fixed compound word list.
type StaticCompounds []string

func (s StaticCompounds) List(context.Context) ([]string, error) {
	return []string(s), nil
}

// StaticSenses is a fixed term to candidates table.
type StaticSenses map[string][]Candidate

func (s StaticSenses) Lookup(_ context.Context, term string) ([]Candidate, error) {
	return s[term], nil
}

// StaticRelations is a fixed word to relation dump table. Unknown words
// yield an empty dump.
type StaticRelations map[string]RelationDump

func (s StaticRelations) Lookup(_ context.Context, word string) (RelationDump, error) {
	return s[word], nil
}
