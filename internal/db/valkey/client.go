// Package valkey implements db.Store for Valkey with the valkey-search
// module. valkey-search has no FT.AGGREGATE, so indexes are declared with
// FT.CREATE and pipelines are evaluated in process over the scanned hashes.
package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/db/ft"
	"github.com/kailas-cloud/wikirank/internal/db/memory"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Valkey store.
type Config struct {
	Addrs      []string
	Username   string
	Password   string
	Collection string
	KeyPrefix  string
	Schema     db.Schema
}

// Store implements db.Store via rueidis for Valkey.
type Store struct {
	*ft.Catalog

	client rueidis.Client
}

// NewStore creates a Valkey store via rueidis.
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
		DisableCache: true,
		AlwaysRESP2:  true,
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
	return &Store{
		// valkey-search rejects SORTABLE.
		Catalog: ft.NewCatalog(client, cfg.Collection, prefix, cfg.Schema, false),
		client:  client,
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

// Aggregate scans the collection's hashes and evaluates p in process.
func (s *Store) Aggregate(ctx context.Context, p *db.Pipeline) ([]db.Row, error) {
	if err := p.Validate(); err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	docs, err := s.LoadDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, &db.Error{Op: db.OpAggregate, Err: db.ErrCollectionNotFound}
	}
	return memory.Evaluate(docs, p)
}
