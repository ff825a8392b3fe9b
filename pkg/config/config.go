// Package config loads and validates configuration for the index builder and
// the query runner from YAML files with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Indexer   IndexerConfig   `yaml:"indexer"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// IndexerConfig controls block sizing, the merge buffer and where index
// artifacts are written.
type IndexerConfig struct {
	IndexDir            string `yaml:"indexDir"`
	BlockDir            string `yaml:"blockDir"`
	Encoding            string `yaml:"encoding"`
	SafetyFactor        int    `yaml:"safetyFactor"`
	MemoryBudget        uint64 `yaml:"memoryBudget"`
	MinFreeMemory       uint64 `yaml:"minFreeMemory"`
	MemoryCheckInterval int    `yaml:"memoryCheckInterval"`
	BufferLength        int    `yaml:"bufferLength"`
	Workers             int    `yaml:"workers"`
	KeepBlocks          bool   `yaml:"keepBlocks"`
	IndexHeadline       bool   `yaml:"indexHeadline"`
}

// NormalizeConfig holds the token normalization toggles used at build time.
type NormalizeConfig struct {
	CaseFolding    bool `yaml:"caseFolding"`
	SpecialStrings bool `yaml:"specialStrings"`
	StopWords      bool `yaml:"stopWords"`
	Stemming       bool `yaml:"stemming"`
	Lemmatization  bool `yaml:"lemmatization"`
}

// SearchConfig controls the scoring model and result output.
type SearchConfig struct {
	Model      string  `yaml:"model"`
	K1         float64 `yaml:"k1"`
	B          float64 `yaml:"b"`
	K3         float64 `yaml:"k3"`
	TopK       int     `yaml:"topK"`
	PerTopic   bool    `yaml:"perTopic"`
	RunName    string  `yaml:"runName"`
	ResultsDir string  `yaml:"resultsDir"`
}

// CacheConfig selects the per-term score cache backend: memory, redis or none.
// Flush drops the run's redis namespace before ranking.
type CacheConfig struct {
	Backend string `yaml:"backend"`
	Flush   bool   `yaml:"flush"`
}

// RedisConfig holds Redis connection parameters for the redis cache backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds the broker list and topic for index-complete events.
type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers"`
	IndexComplete string   `yaml:"indexComplete"`
}

// PostgresConfig holds PostgreSQL connection parameters for the results sink.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with defaults suitable for a local run.
func Default() *Config {
	return &Config{
		Indexer: IndexerConfig{
			IndexDir:            "index",
			Encoding:            "utf-8",
			SafetyFactor:        4,
			MinFreeMemory:       64 << 20,
			MemoryCheckInterval: 1000,
			BufferLength:        100,
			Workers:             1,
		},
		Search: SearchConfig{
			Model:      "tfidf",
			K1:         1.2,
			B:          0.75,
			K3:         8,
			TopK:       1000,
			RunName:    "run",
			ResultsDir: "results",
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			IndexComplete: "index.complete",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "spimisearch",
			User:            "spimisearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Validate rejects values the builder or the ranker cannot work with.
func (c *Config) Validate() error {
	if c.Indexer.BufferLength <= 0 {
		return fmt.Errorf("indexer.bufferLength must be positive, got %d", c.Indexer.BufferLength)
	}
	if c.Indexer.SafetyFactor <= 0 {
		return fmt.Errorf("indexer.safetyFactor must be positive, got %d", c.Indexer.SafetyFactor)
	}
	if c.Indexer.Workers <= 0 {
		return fmt.Errorf("indexer.workers must be positive, got %d", c.Indexer.Workers)
	}
	switch strings.ToLower(c.Indexer.Encoding) {
	case "utf-8", "utf8", "iso-8859-1", "latin-1", "latin1":
	default:
		return fmt.Errorf("indexer.encoding %q is not supported", c.Indexer.Encoding)
	}
	switch c.Search.Model {
	case "tfidf", "bm25", "bm25alt", "bm25va":
	default:
		return fmt.Errorf("search.model %q is not one of tfidf, bm25, bm25alt, bm25va", c.Search.Model)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.topK must be positive, got %d", c.Search.TopK)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.backend %q is not one of memory, redis, none", c.Cache.Backend)
	}
	return nil
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_INDEX_DIR"); v != "" {
		cfg.Indexer.IndexDir = v
	}
	if v := os.Getenv("SP_BLOCK_DIR"); v != "" {
		cfg.Indexer.BlockDir = v
	}
	if v := os.Getenv("SP_ENCODING"); v != "" {
		cfg.Indexer.Encoding = v
	}
	if v := os.Getenv("SP_MEMORY_BUDGET"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Indexer.MemoryBudget = n
		}
	}
	if v := os.Getenv("SP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = n
		}
	}
	if v := os.Getenv("SP_RESULTS_DIR"); v != "" {
		cfg.Search.ResultsDir = v
	}
	if v := os.Getenv("SP_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
