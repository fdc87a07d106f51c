package setup

import (
	"time"

	"github.com/OFFIS-RIT/lexgraph/internal/storage"
	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/cache"
)

const (
	CacheFile   = "file"
	CacheS3     = "s3"
	CacheRedis  = "redis"
	CacheMemory = "memory"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreNeo4j    = "neo4j"

	RolesFixed = "fixed"
	RolesPOS   = "pos"
)

// Config is everything the services read from the environment.
type Config struct {
	CacheBackend string
	DataDir      string
	CacheExpiry  time.Duration
	RedisURL     string
	RedisPrefix  string
	S3           storage.S3Config

	CompoundWordsURL  string
	DisambiguationURL string
	RelationDumpURL   string
	JDMTimeout        time.Duration
	UserAgent         string

	GraphStore    string
	DatabaseURL   string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	SenseSelector     string
	RoleClassifier    string
	MembershipEdges   bool
	PrefetchRelations bool
	ParallelLookups   int
}

func ConfigFromEnv() Config {
	return Config{
		CacheBackend: util.GetEnvString("CACHE_BACKEND", CacheFile),
		DataDir:      util.GetEnvString("DATA_DIR", "data"),
		CacheExpiry:  util.GetEnvDuration("CACHE_EXPIRY", cache.DefaultExpiry),
		RedisURL:     util.GetEnvString("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix:  util.GetEnvString("REDIS_PREFIX", "lexgraph:"),
		S3:           storage.S3ConfigFromEnv(),

		CompoundWordsURL:  util.GetEnv("JDM_COMPOUND_WORDS_URL"),
		DisambiguationURL: util.GetEnv("JDM_DISAMBIGUATION_URL"),
		RelationDumpURL:   util.GetEnv("JDM_RELATION_DUMP_URL"),
		JDMTimeout:        util.GetEnvDuration("JDM_TIMEOUT", 5*time.Minute),
		UserAgent:         util.GetEnvString("JDM_USER_AGENT", "lexgraph"),

		GraphStore:    util.GetEnvString("GRAPH_STORE", StoreMemory),
		DatabaseURL:   util.GetEnv("DATABASE_URL"),
		Neo4jURI:      util.GetEnvString("NEO4J_URI", "neo4j://localhost:7687"),
		Neo4jUser:     util.GetEnvString("NEO4J_USER", "neo4j"),
		Neo4jPassword: util.GetEnv("NEO4J_PASSWORD"),
		Neo4jDatabase: util.GetEnv("NEO4J_DATABASE"),

		SenseSelector:     util.GetEnv("SENSE_SELECTOR"),
		RoleClassifier:    util.GetEnvString("ROLE_CLASSIFIER", RolesFixed),
		MembershipEdges:   util.GetEnvBool("MEMBERSHIP_EDGES", false),
		PrefetchRelations: util.GetEnvBool("PREFETCH_RELATIONS", false),
		ParallelLookups:   util.GetEnvInt("PARALLEL_LOOKUPS", 4),
	}
}
