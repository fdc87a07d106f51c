package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Every analysis is an (:Analysis) node owning one (:LexNode) per graph node
// through HAS_NODE. Graph edges are EDGE relationships between LexNodes and
// keep their label and insertion position as properties.
const (
	constraintCypher = `CREATE CONSTRAINT analysis_id IF NOT EXISTS FOR (a:Analysis) REQUIRE a.id IS UNIQUE`
	indexCypher      = `CREATE INDEX lexnode_key IF NOT EXISTS FOR (n:LexNode) ON (n.analysis_id, n.key)`

	deleteCypher = `MATCH (a:Analysis {id: $id})
OPTIONAL MATCH (a)-[:HAS_NODE]->(n:LexNode)
DETACH DELETE a, n`
	createAnalysisCypher = `CREATE (a:Analysis {
  id: $id, sentence: $sentence, tokens: $tokens, created_at: $created_at,
  ref_pronouns: $ref_pronouns, ref_antecedents: $ref_antecedents, ref_scores: $ref_scores
})`
	createNodesCypher = `MATCH (a:Analysis {id: $id})
UNWIND $nodes AS n
CREATE (a)-[:HAS_NODE]->(:LexNode {analysis_id: $id, key: n.key, text: n.text, kind: n.kind, position: n.position})`
	createEdgesCypher = `UNWIND $edges AS e
MATCH (s:LexNode {analysis_id: $id, key: e.source})
MATCH (t:LexNode {analysis_id: $id, key: e.target})
CREATE (s)-[:EDGE {label: e.label, position: e.position}]->(t)`

	readAnalysisCypher = `MATCH (a:Analysis {id: $id})
RETURN a.sentence AS sentence, a.tokens AS tokens, a.created_at AS created_at,
  a.ref_pronouns AS ref_pronouns, a.ref_antecedents AS ref_antecedents, a.ref_scores AS ref_scores`
	readNodesCypher = `MATCH (:Analysis {id: $id})-[:HAS_NODE]->(n:LexNode)
RETURN n.key AS key, n.text AS text, n.kind AS kind
ORDER BY n.position`
	readEdgesCypher = `MATCH (s:LexNode {analysis_id: $id})-[e:EDGE]->(t:LexNode {analysis_id: $id})
RETURN s.key AS source, t.key AS target, e.label AS label
ORDER BY e.position`
)

// GraphStorage stores analyses as property graphs in Neo4j.
type GraphStorage struct {
	driver *Driver
}

func NewGraphStorage(driver *Driver) *GraphStorage {
	return &GraphStorage{driver: driver}
}

// EnsureSchema creates the uniqueness constraint and lookup index used by
// the storage. Both statements are idempotent.
func (s *GraphStorage) EnsureSchema(ctx context.Context) error {
	for _, cypher := range []string{constraintCypher, indexCypher} {
		_, err := s.driver.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
			return run(ctx, tx, cypher, nil)
		})
		if err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *GraphStorage) SaveAnalysis(ctx context.Context, a common.Analysis) error {
	if a.ID == "" {
		return fmt.Errorf("save analysis: empty id")
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	pronouns := make([]string, len(a.References))
	antecedents := make([]string, len(a.References))
	scores := make([]float64, len(a.References))
	for i, r := range a.References {
		pronouns[i] = util.SanitizeStoredText(r.Pronoun)
		antecedents[i] = util.SanitizeStoredText(r.Antecedent)
		scores[i] = r.Score
	}
	tokens := make([]string, len(a.Tokens))
	for i, tok := range a.Tokens {
		tokens[i] = util.SanitizeStoredText(tok)
	}

	nodes := make([]map[string]any, len(a.Graph.Nodes))
	for i, key := range a.Graph.Nodes {
		meta, ok := a.Graph.Meta[key]
		if !ok {
			meta = common.NodeMeta{Text: key, Kind: common.KindToken}
		}
		nodes[i] = map[string]any{
			"key":      util.SanitizeStoredText(key),
			"text":     util.SanitizeStoredText(meta.Text),
			"kind":     string(meta.Kind),
			"position": i,
		}
	}
	edges := make([]map[string]any, len(a.Graph.Edges))
	for i, e := range a.Graph.Edges {
		edges[i] = map[string]any{
			"source":   util.SanitizeStoredText(e.Source),
			"target":   util.SanitizeStoredText(e.Target),
			"label":    string(e.Label),
			"position": i,
		}
	}

	logger.Debug("[Neo4j][SaveAnalysis] Storing analysis", "id", a.ID, "nodes", len(nodes), "edges", len(edges))

	_, err := s.driver.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		steps := []struct {
			cypher string
			params map[string]any
		}{
			{deleteCypher, map[string]any{"id": a.ID}},
			{createAnalysisCypher, map[string]any{
				"id":              a.ID,
				"sentence":        util.SanitizeStoredText(a.Sentence),
				"tokens":          tokens,
				"created_at":      created,
				"ref_pronouns":    pronouns,
				"ref_antecedents": antecedents,
				"ref_scores":      scores,
			}},
			{createNodesCypher, map[string]any{"id": a.ID, "nodes": nodes}},
			{createEdgesCypher, map[string]any{"id": a.ID, "edges": edges}},
		}
		for _, step := range steps {
			if _, err := run(ctx, tx, step.cypher, step.params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", a.ID, err)
	}
	return nil
}

func (s *GraphStorage) GetAnalysis(ctx context.Context, id string) (common.Analysis, error) {
	out, err := s.driver.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		params := map[string]any{"id": id}

		res, err := tx.Run(ctx, readAnalysisCypher, params)
		if err != nil {
			return nil, err
		}
		heads, err := collect(ctx, res, analysisFromRecord)
		if err != nil {
			return nil, err
		}
		if len(heads) == 0 {
			return nil, store.ErrNotFound
		}
		a := heads[0]
		a.ID = id
		a.Graph = common.Graph{Nodes: []string{}, Edges: []common.Edge{}, Meta: map[string]common.NodeMeta{}}

		res, err = tx.Run(ctx, readNodesCypher, params)
		if err != nil {
			return nil, err
		}
		_, err = collect(ctx, res, func(rec *neo4j.Record) (struct{}, error) {
			key, err := recordString(rec, "key")
			if err != nil {
				return struct{}{}, err
			}
			text, err := recordString(rec, "text")
			if err != nil {
				return struct{}{}, err
			}
			kind, err := recordString(rec, "kind")
			if err != nil {
				return struct{}{}, err
			}
			a.Graph.Nodes = append(a.Graph.Nodes, key)
			a.Graph.Meta[key] = common.NodeMeta{Text: text, Kind: common.NodeKind(kind)}
			return struct{}{}, nil
		})
		if err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, readEdgesCypher, params)
		if err != nil {
			return nil, err
		}
		edges, err := collect(ctx, res, edgeFromRecord)
		if err != nil {
			return nil, err
		}
		a.Graph.Edges = append(a.Graph.Edges, edges...)
		return a, nil
	})
	if err != nil {
		return common.Analysis{}, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return out.(common.Analysis), nil
}

func run(ctx context.Context, tx Transaction, cypher string, params map[string]any) (any, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	_, err = res.Consume(ctx)
	return nil, err
}

func analysisFromRecord(rec *neo4j.Record) (common.Analysis, error) {
	var a common.Analysis
	var err error
	if a.Sentence, err = recordString(rec, "sentence"); err != nil {
		return a, err
	}
	if a.Tokens, err = recordStrings(rec, "tokens"); err != nil {
		return a, err
	}
	if a.Tokens == nil {
		a.Tokens = []string{}
	}
	created, _ := rec.Get("created_at")
	switch v := created.(type) {
	case time.Time:
		a.CreatedAt = v.UTC()
	case neo4j.LocalDateTime:
		a.CreatedAt = v.Time().UTC()
	}

	pronouns, err := recordStrings(rec, "ref_pronouns")
	if err != nil {
		return a, err
	}
	antecedents, err := recordStrings(rec, "ref_antecedents")
	if err != nil {
		return a, err
	}
	scores, _ := rec.Get("ref_scores")
	scoreList, _ := scores.([]any)
	if len(antecedents) != len(pronouns) || len(scoreList) != len(pronouns) {
		return a, fmt.Errorf("reference lists differ in length")
	}
	for i := range pronouns {
		score, ok := scoreList[i].(float64)
		if !ok {
			return a, fmt.Errorf("reference score %d is %T", i, scoreList[i])
		}
		a.References = append(a.References, common.Reference{
			Pronoun:    pronouns[i],
			Antecedent: antecedents[i],
			Score:      score,
		})
	}
	return a, nil
}

func edgeFromRecord(rec *neo4j.Record) (common.Edge, error) {
	var e common.Edge
	var err error
	if e.Source, err = recordString(rec, "source"); err != nil {
		return e, err
	}
	if e.Target, err = recordString(rec, "target"); err != nil {
		return e, err
	}
	label, err := recordString(rec, "label")
	if err != nil {
		return e, err
	}
	e.Label = common.Label(label)
	return e, nil
}

func recordString(rec *neo4j.Record, key string) (string, error) {
	v, ok := rec.Get(key)
	if !ok {
		return "", fmt.Errorf("record has no %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("record %q is %T, want string", key, v)
	}
	return s, nil
}

// recordStrings reads a list property; a missing or null list is nil.
func recordStrings(rec *neo4j.Record, key string) ([]string, error) {
	v, _ := rec.Get(key)
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("record %q is %T, want list", key, v)
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("record %q[%d] is %T, want string", key, i, item)
		}
		out[i] = s
	}
	return out, nil
}
