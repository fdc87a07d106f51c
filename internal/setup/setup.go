package setup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lexgraph/internal/metrics"
	"github.com/OFFIS-RIT/lexgraph/internal/storage"
	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/cache"
	cacheio "github.com/OFFIS-RIT/lexgraph/pkg/cache/io"
	cacheredis "github.com/OFFIS-RIT/lexgraph/pkg/cache/redis"
	caches3 "github.com/OFFIS-RIT/lexgraph/pkg/cache/s3"
	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon/jdm"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"
	neostore "github.com/OFFIS-RIT/lexgraph/pkg/store/neo4j"
	pgstore "github.com/OFFIS-RIT/lexgraph/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

type closer func(ctx context.Context) error

// Services are the shared, long-lived parts of a process: the cached
// lexical stores, the pipeline built on them and the graph storage.
type Services struct {
	Metrics   *metrics.Metrics
	Compounds *lexicon.CompoundWordsStore
	Senses    *lexicon.DisambiguationStore
	Relations *lexicon.RelationStore
	Graph     *graph.GraphClient
	Storage   store.GraphStorage

	closers []closer
}

// Overrides replace parts that New would otherwise build from Config.
type Overrides struct {
	Source    lexicon.Source
	Persister cache.Persister
	Storage   store.GraphStorage
}

// New builds the services described by cfg. Call Close when done.
func New(ctx context.Context, cfg Config, o Overrides) (*Services, error) {
	s := &Services{Metrics: metrics.New()}

	source := o.Source
	if source == nil {
		source = jdm.NewClient(jdm.NewClientParams{
			Timeout:           cfg.JDMTimeout,
			CompoundWordsURL:  cfg.CompoundWordsURL,
			DisambiguationURL: cfg.DisambiguationURL,
			RelationDumpURL:   cfg.RelationDumpURL,
			UserAgent:         cfg.UserAgent,
		})
	}

	persister := o.Persister
	if persister == nil {
		p, c, err := NewPersister(ctx, cfg)
		if err != nil {
			return nil, err
		}
		persister = p
		s.addCloser(c)
	}

	params := lexicon.StoreParams{
		Persister: persister,
		Expiry:    cfg.CacheExpiry,
		Observer:  s.Metrics,
	}
	var err error
	if s.Compounds, err = lexicon.NewCompoundWordsStore(ctx, params, source); err != nil {
		return nil, s.fail(ctx, err)
	}
	if s.Senses, err = lexicon.NewDisambiguationStore(ctx, params, source); err != nil {
		return nil, s.fail(ctx, err)
	}
	if s.Relations, err = lexicon.NewRelationStore(ctx, params, source); err != nil {
		return nil, s.fail(ctx, err)
	}

	selector, err := graph.SelectorByName(cfg.SenseSelector)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	roles, err := RoleClassifier(cfg.RoleClassifier, s.Relations)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	s.Graph, err = graph.NewGraphClient(graph.NewGraphClientParams{
		Compounds:         s.Compounds,
		Senses:            s.Senses,
		Relations:         s.Relations,
		Roles:             roles,
		Selector:          selector,
		MembershipEdges:   cfg.MembershipEdges,
		PrefetchRelations: cfg.PrefetchRelations,
		ParallelLookups:   cfg.ParallelLookups,
		Observer:          s.Metrics,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	s.Storage = o.Storage
	if s.Storage == nil {
		st, c, err := NewGraphStorage(ctx, cfg)
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		s.Storage = st
		s.addCloser(c)
	}

	logger.Info("[Setup] Services ready",
		"cache", cfg.CacheBackend, "store", cfg.GraphStore,
		"roles", cfg.RoleClassifier, "expiry", cfg.CacheExpiry)
	return s, nil
}

// Stores returns the cached stores in refresh order.
func (s *Services) Stores() []lexicon.Refresher {
	return []lexicon.Refresher{s.Compounds, s.Senses, s.Relations}
}

// Store returns the cached store called name.
func (s *Services) Store(name string) (lexicon.Refresher, error) {
	for _, st := range s.Stores() {
		if st.Name() == name {
			return st, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q", name)
}

// Close releases connections in reverse order of creation.
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Services) addCloser(c closer) {
	if c != nil {
		s.closers = append(s.closers, c)
	}
}

func (s *Services) fail(ctx context.Context, err error) error {
	_ = s.Close(ctx)
	return err
}

// NewPersister opens the cache backend named by cfg.CacheBackend.
func NewPersister(ctx context.Context, cfg Config) (cache.Persister, closer, error) {
	switch cfg.CacheBackend {
	case "", CacheFile:
		return cacheio.NewFilePersister(cfg.DataDir), nil, nil
	case CacheMemory:
		return cache.NewMemoryPersister(), nil, nil
	case CacheRedis:
		client, err := cacheredis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		p := cacheredis.NewRedisPersister(cacheredis.NewRedisPersisterParams{
			Client: client,
			Prefix: cfg.RedisPrefix,
		})
		return p, func(context.Context) error { return client.Close() }, nil
	case CacheS3:
		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		if err := storage.EnsureBucket(ctx, client, cfg.S3.Bucket); err != nil {
			return nil, nil, err
		}
		return caches3.NewS3Persister(caches3.NewS3PersisterParams{
			Client: client,
			Bucket: cfg.S3.Bucket,
			Prefix: cfg.S3.Prefix,
		}), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}

// openPostgres migrates the database and returns a pool once it answers.
func openPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if err := pgstore.Migrate(url); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	err = util.RetryErrWithContext(ctx, 5, 2*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

// NewGraphStorage opens the graph store named by cfg.GraphStore. Postgres is
// migrated before use; Neo4j gets its constraints.
func NewGraphStorage(ctx context.Context, cfg Config) (store.GraphStorage, closer, error) {
	switch cfg.GraphStore {
	case "", StoreMemory:
		return store.NewMemoryStorage(), nil, nil
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL is required for the postgres store")
		}
		pool, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewGraphDBStorageWithConnection(pool), func(context.Context) error {
			pool.Close()
			return nil
		}, nil
	case StoreNeo4j:
		driver, err := neostore.NewDriver(ctx, neostore.Config{
			URI:      cfg.Neo4jURI,
			Username: cfg.Neo4jUser,
			Password: cfg.Neo4jPassword,
			Database: cfg.Neo4jDatabase,
		})
		if err != nil {
			return nil, nil, err
		}
		st := neostore.NewGraphStorage(driver)
		if err := st.EnsureSchema(ctx); err != nil {
			_ = driver.Close(ctx)
			return nil, nil, err
		}
		return st, driver.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown graph store %q", cfg.GraphStore)
}

// RoleClassifier returns the classifier named name: "fixed" uses the closed
// word lists, "pos" settles article/pronoun overlaps with parts of speech.
func RoleClassifier(name string, relations lexicon.RelationProvider) (graph.RoleClassifier, error) {
	switch name {
	case "", RolesFixed:
		return graph.DefaultRoles(), nil
	case RolesPOS:
		return graph.NewPOSRoles(relations), nil
	}
	return nil, fmt.Errorf("unknown role classifier %q", name)
}
