package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

const defaultChunkSize = 1000

// GraphDBStorage stores analyses in PostgreSQL. Every analysis is one row in
// analyses plus ordered rows for its nodes, edges and references, so a graph
// reads back in the order it was built.
type GraphDBStorage struct {
	conn      pgxIConn
	chunkSize int
}

type GraphDBStorageOption func(*GraphDBStorage)

// WithChunkSize bounds the number of rows sent in one insert statement.
func WithChunkSize(n int) GraphDBStorageOption {
	return func(s *GraphDBStorage) {
		s.chunkSize = n
	}
}

// NewGraphDBStorageWithConnection creates a GraphDBStorage on an existing
// connection or pool. The schema is expected to be migrated already.
func NewGraphDBStorageWithConnection(conn pgxIConn, opts ...GraphDBStorageOption) *GraphDBStorage {
	s := &GraphDBStorage{conn: conn, chunkSize: defaultChunkSize}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

const (
	deleteAnalysisSQL = `DELETE FROM analyses WHERE id = $1`
	insertAnalysisSQL = `INSERT INTO analyses (id, sentence, tokens, created_at) VALUES ($1, $2, $3, $4)`
	insertNodesSQL    = `INSERT INTO analysis_nodes (analysis_id, position, key, text, kind)
SELECT $1, $2 + t.ord - 1, t.key, t.text, t.kind
FROM unnest($3::text[], $4::text[], $5::text[]) WITH ORDINALITY AS t(key, text, kind, ord)`
	insertEdgesSQL = `INSERT INTO analysis_edges (analysis_id, position, source, target, label)
SELECT $1, $2 + t.ord - 1, t.source, t.target, t.label
FROM unnest($3::text[], $4::text[], $5::text[]) WITH ORDINALITY AS t(source, target, label, ord)`
	insertReferencesSQL = `INSERT INTO analysis_references (analysis_id, position, pronoun, antecedent, score)
SELECT $1, $2 + t.ord - 1, t.pronoun, t.antecedent, t.score
FROM unnest($3::text[], $4::text[], $5::float8[]) WITH ORDINALITY AS t(pronoun, antecedent, score, ord)`

	selectAnalysisSQL   = `SELECT sentence, tokens, created_at FROM analyses WHERE id = $1`
	selectNodesSQL      = `SELECT key, text, kind FROM analysis_nodes WHERE analysis_id = $1 ORDER BY position`
	selectEdgesSQL      = `SELECT source, target, label FROM analysis_edges WHERE analysis_id = $1 ORDER BY position`
	selectReferencesSQL = `SELECT pronoun, antecedent, score FROM analysis_references WHERE analysis_id = $1 ORDER BY position`
)

// SaveAnalysis replaces any analysis stored under a.ID within one
// transaction.
func (s *GraphDBStorage) SaveAnalysis(ctx context.Context, a common.Analysis) error {
	if a.ID == "" {
		return fmt.Errorf("save analysis: empty id")
	}
	logger.Debug("[Graph][SaveAnalysis] Storing analysis", "id", a.ID, "nodes", len(a.Graph.Nodes), "edges", len(a.Graph.Edges))

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteAnalysisSQL, a.ID); err != nil {
		return fmt.Errorf("delete previous analysis %s: %w", a.ID, err)
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	tokens := make([]string, len(a.Tokens))
	for i, tok := range a.Tokens {
		tokens[i] = util.SanitizeStoredText(tok)
	}
	if _, err := tx.Exec(ctx, insertAnalysisSQL, a.ID, util.SanitizeStoredText(a.Sentence), tokens, created); err != nil {
		return fmt.Errorf("insert analysis %s: %w", a.ID, err)
	}

	nodes := nodeColumns(a.Graph)
	err = store.ChunkRange(len(nodes.keys), s.chunkSize, func(start, end int) error {
		_, err := tx.Exec(ctx, insertNodesSQL, a.ID, start,
			nodes.keys[start:end], nodes.texts[start:end], nodes.kinds[start:end])
		return err
	})
	if err != nil {
		return fmt.Errorf("insert nodes of %s: %w", a.ID, err)
	}

	edges := edgeColumns(a.Graph)
	err = store.ChunkRange(len(edges.sources), s.chunkSize, func(start, end int) error {
		_, err := tx.Exec(ctx, insertEdgesSQL, a.ID, start,
			edges.sources[start:end], edges.targets[start:end], edges.labels[start:end])
		return err
	})
	if err != nil {
		return fmt.Errorf("insert edges of %s: %w", a.ID, err)
	}

	refs := referenceColumns(a.References)
	err = store.ChunkRange(len(refs.pronouns), s.chunkSize, func(start, end int) error {
		_, err := tx.Exec(ctx, insertReferencesSQL, a.ID, start,
			refs.pronouns[start:end], refs.antecedents[start:end], refs.scores[start:end])
		return err
	})
	if err != nil {
		return fmt.Errorf("insert references of %s: %w", a.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit analysis %s: %w", a.ID, err)
	}
	return nil
}

// GetAnalysis loads the analysis stored under id.
func (s *GraphDBStorage) GetAnalysis(ctx context.Context, id string) (common.Analysis, error) {
	a := common.Analysis{ID: id}
	err := s.conn.QueryRow(ctx, selectAnalysisSQL, id).Scan(&a.Sentence, &a.Tokens, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.Analysis{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return common.Analysis{}, fmt.Errorf("load analysis %s: %w", id, err)
	}
	if a.Tokens == nil {
		a.Tokens = []string{}
	}

	a.Graph = common.Graph{Nodes: []string{}, Edges: []common.Edge{}, Meta: map[string]common.NodeMeta{}}
	err = s.scan(ctx, selectNodesSQL, id, func(row pgxv5.Rows) error {
		var key string
		var meta common.NodeMeta
		if err := row.Scan(&key, &meta.Text, &meta.Kind); err != nil {
			return err
		}
		a.Graph.Nodes = append(a.Graph.Nodes, key)
		a.Graph.Meta[key] = meta
		return nil
	})
	if err != nil {
		return common.Analysis{}, fmt.Errorf("load nodes of %s: %w", id, err)
	}

	err = s.scan(ctx, selectEdgesSQL, id, func(row pgxv5.Rows) error {
		var e common.Edge
		if err := row.Scan(&e.Source, &e.Target, &e.Label); err != nil {
			return err
		}
		a.Graph.Edges = append(a.Graph.Edges, e)
		return nil
	})
	if err != nil {
		return common.Analysis{}, fmt.Errorf("load edges of %s: %w", id, err)
	}

	err = s.scan(ctx, selectReferencesSQL, id, func(row pgxv5.Rows) error {
		var r common.Reference
		if err := row.Scan(&r.Pronoun, &r.Antecedent, &r.Score); err != nil {
			return err
		}
		a.References = append(a.References, r)
		return nil
	})
	if err != nil {
		return common.Analysis{}, fmt.Errorf("load references of %s: %w", id, err)
	}

	return a, nil
}

func (s *GraphDBStorage) scan(ctx context.Context, sql, id string, fn func(pgxv5.Rows) error) error {
	rows, err := s.conn.Query(ctx, sql, id)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
