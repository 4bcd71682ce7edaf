package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/db/ft"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultMaxRows caps FT.AGGREGATE replies when a pipeline has no limit.
const DefaultMaxRows = 100000

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs      []string
	Username   string
	Password   string
	DB         int
	Collection string
	KeyPrefix  string
	Schema     db.Schema
	MaxRows    int
}

// Store implements db.Store via rueidis for Redis 8+ (RediSearch).
// Articles are hashes under KeyPrefix.
type Store struct {
	*ft.Catalog

	client  rueidis.Client
	schema  db.Schema
	maxRows int
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.AGGREGATE result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, db.Unavailable(db.OpConnect, err)
	}

	return newStore(client, cfg), nil
}

func newStore(client rueidis.Client, cfg Config) *Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = cfg.Collection + ":"
	}
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Store{
		Catalog: ft.NewCatalog(client, cfg.Collection, prefix, cfg.Schema, true),
		client:  client,
		schema:  cfg.Schema,
		maxRows: maxRows,
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return db.Unavailable(db.OpPing, err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return db.Unavailable(db.OpPing, fmt.Errorf("timeout waiting for database: %w", ctx.Err()))
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}
