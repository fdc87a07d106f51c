package pgx

import (
	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

type nodeCols struct {
	keys, texts, kinds []string
}

type edgeCols struct {
	sources, targets, labels []string
}

type referenceCols struct {
	pronouns, antecedents []string
	scores                []float64
}

// nodeColumns flattens the nodes of g into parallel arrays for unnest.
// Nodes without metadata are stored as tokens spelled like their key.
func nodeColumns(g common.Graph) nodeCols {
	cols := nodeCols{
		keys:  make([]string, len(g.Nodes)),
		texts: make([]string, len(g.Nodes)),
		kinds: make([]string, len(g.Nodes)),
	}
	for i, key := range g.Nodes {
		meta, ok := g.Meta[key]
		if !ok {
			meta = common.NodeMeta{Text: key, Kind: common.KindToken}
		}
		cols.keys[i] = util.SanitizeStoredText(key)
		cols.texts[i] = util.SanitizeStoredText(meta.Text)
		cols.kinds[i] = string(meta.Kind)
	}
	return cols
}

func edgeColumns(g common.Graph) edgeCols {
	cols := edgeCols{
		sources: make([]string, len(g.Edges)),
		targets: make([]string, len(g.Edges)),
		labels:  make([]string, len(g.Edges)),
	}
	for i, e := range g.Edges {
		cols.sources[i] = util.SanitizeStoredText(e.Source)
		cols.targets[i] = util.SanitizeStoredText(e.Target)
		cols.labels[i] = string(e.Label)
	}
	return cols
}

func referenceColumns(refs []common.Reference) referenceCols {
	cols := referenceCols{
		pronouns:    make([]string, len(refs)),
		antecedents: make([]string, len(refs)),
		scores:      make([]float64, len(refs)),
	}
	for i, r := range refs {
		cols.pronouns[i] = util.SanitizeStoredText(r.Pronoun)
		cols.antecedents[i] = util.SanitizeStoredText(r.Antecedent)
		cols.scores[i] = r.Score
	}
	return cols
}
