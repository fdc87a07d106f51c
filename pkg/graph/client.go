package graph

import (
	"errors"
	"sync"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
)

// Pipeline stage names reported to a StageObserver.
const (
	StageTokenize     = "tokenize"
	StageChain        = "chain"
	StageCompound     = "compound"
	StageDisambiguate = "disambiguate"
	StagePrefetch     = "prefetch"
	StageAnaphora     = "anaphora"
)

// StageObserver is told how long each pipeline stage took and whether it
// failed.
type StageObserver interface {
	ObserveStage(stage string, duration time.Duration, err error)
}

// GraphClient runs the sentence pipeline against a set of lexical
// providers. It is safe for concurrent use; every run builds its own graph.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	compounds lexicon.CompoundWordsProvider
	senses    lexicon.DisambiguationProvider
	relations lexicon.RelationProvider

	roles           RoleClassifier
	selector        SenseSelector
	compoundOptions CompoundOptions
	prefetch        bool
	parallelLookups int
	observer        StageObserver

	indexMu   sync.Mutex
	indexList []string
	index     *CompoundIndex
}

// NewGraphClientParams defines the configuration parameters for creating a
// new GraphClient.
//
// Compounds and Senses are required. Relations is required when Roles needs
// it or PrefetchRelations is set. Roles defaults to DefaultRoles and
// Selector to LastBySense. PrefetchRelations warms the relation provider for
// every chain word before anaphora resolution, with at most ParallelLookups
// requests in flight.
type NewGraphClientParams struct {
	Compounds lexicon.CompoundWordsProvider
	Senses    lexicon.DisambiguationProvider
	Relations lexicon.RelationProvider

	Roles             RoleClassifier
	Selector          SenseSelector
	MembershipEdges   bool
	PrefetchRelations bool
	ParallelLookups   int
	Observer          StageObserver
}

// NewGraphClient creates and returns a new GraphClient configured with the
// provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		Compounds: compoundStore,
//		Senses:    senseStore,
//		Relations: relationStore,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	analysis, err := client.Analyze(ctx, "Le chat dort, il ronronne.")
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.Compounds == nil {
		return nil, errors.New("graph: compound words provider is required")
	}
	if params.Senses == nil {
		return nil, errors.New("graph: disambiguation provider is required")
	}
	if params.PrefetchRelations && params.Relations == nil {
		return nil, errors.New("graph: relation prefetch needs a relation provider")
	}

	roles := params.Roles
	if roles == nil {
		roles = DefaultRoles()
	}
	selector := params.Selector
	if selector == nil {
		selector = LastBySense
	}
	parallel := params.ParallelLookups
	if parallel <= 0 {
		parallel = 4
	}

	return &GraphClient{
		compounds:       params.Compounds,
		senses:          params.Senses,
		relations:       params.Relations,
		roles:           roles,
		selector:        selector,
		compoundOptions: CompoundOptions{MembershipEdges: params.MembershipEdges},
		prefetch:        params.PrefetchRelations,
		parallelLookups: parallel,
		observer:        params.Observer,
	}, nil
}

// compoundIndex returns the index for list, rebuilding it only when the
// provider hands out a different list.
func (c *GraphClient) compoundIndex(list []string) *CompoundIndex {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()
	if c.index != nil && sameList(c.indexList, list) {
		return c.index
	}
	c.index = NewCompoundIndex(list)
	c.indexList = list
	return c.index
}

func sameList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

func (c *GraphClient) observe(stage string, start time.Time, err error) {
	if c.observer != nil {
		c.observer.ObserveStage(stage, time.Since(start), err)
	}
}
