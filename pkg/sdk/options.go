package wikirank

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/wikirank/internal/db/driver"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "mongo", "redis", "valkey" or "file"
	uri      string
	addrs    []string
	username string
	password string
	database string
	path     string

	collection string
	keyPrefix  string

	readinessTimeout time.Duration
	queryTimeout     time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMongo configures the client to read a MongoDB database.
func WithMongo(uri, database string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driver.Mongo
		c.uri = uri
		c.database = database
	})
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driver.Valkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driver.Redis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithFile reads articles from a JSONL export. Index declarations are kept
// next to it in path + ".indexes.yaml".
func WithFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driver.File
		c.path = path
	})
}

// WithCredentials sets the username and password for MongoDB or ACL-enabled
// Redis/Valkey.
func WithCredentials(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithCollection sets the article collection name. Default: "articles".
func WithCollection(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.collection = name
	})
}

// WithKeyPrefix sets the hash key prefix for Redis/Valkey.
// Default: "<collection>:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithReadinessTimeout bounds the initial connectivity check. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithQueryTimeout bounds every report query. Zero leaves it to the store.
func WithQueryTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryTimeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
