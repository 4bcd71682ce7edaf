// Package mongodb implements db.Store on a MongoDB collection. Pipelines
// translate one-to-one into aggregation stages and indexes map onto
// createIndexes with explicit names.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kailas-cloud/wikirank/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const disconnectTimeout = 5 * time.Second

// Config holds connection parameters for a MongoDB store.
type Config struct {
	URI        string
	Username   string
	Password   string
	Database   string
	Collection string
	// ConnectTimeout bounds server selection and the initial handshake.
	ConnectTimeout time.Duration
}

// Store implements db.Store via the official MongoDB driver.
type Store struct {
	be         backend
	collection string
}

// NewStore creates a MongoDB store. The driver connects lazily; use
// WaitForReady to confirm the deployment is reachable.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("uri is required")
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("database and collection are required")
	}

	opts := options.Client().ApplyURI(cfg.URI).SetAppName("wikirank")
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}
	if cfg.ConnectTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout).SetConnectTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, db.Unavailable(db.OpConnect, err)
	}

	return &Store{be: newDriver(client, cfg.Database, cfg.Collection), collection: cfg.Collection}, nil
}

// Ping checks connectivity against the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.be.Ping(ctx); err != nil {
		return db.Unavailable(db.OpPing, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	_ = s.be.Disconnect(ctx)
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

// CollectionExists reports whether the bound collection exists.
func (s *Store) CollectionExists(ctx context.Context) (bool, error) {
	names, err := s.be.CollectionNames(ctx, s.collection)
	if err != nil {
		return false, wrapErr(db.OpListCollections, err)
	}
	return len(names) > 0, nil
}

// EnsureIndex creates spec under its explicit name unless an index of that
// name exists. An existing index with different keys is a conflict and is
// left untouched.
func (s *Store) EnsureIndex(ctx context.Context, spec *db.IndexSpec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, &db.Error{Op: db.OpCreateIndex, Err: fmt.Errorf("%w: %w", db.ErrQuery, err)}
	}

	existing, err := s.ListIndexes(ctx)
	if err != nil {
		return false, err
	}
	for _, ix := range existing {
		if ix.Name != spec.Name {
			continue
		}
		if spec.SameKeys(ix.Keys) {
			return false, nil
		}
		return false, db.NewIndexConflict(spec.Name, ix.Keys, spec.Keys)
	}

	if err := s.be.CreateIndex(ctx, keysDoc(spec.Keys), spec.Name); err != nil {
		return false, wrapErr(db.OpCreateIndex, err)
	}
	return true, nil
}

// ListIndexes returns the collection's indexes, _id_ included, in server order.
func (s *Store) ListIndexes(ctx context.Context) ([]db.IndexSpec, error) {
	docs, err := s.be.ListIndexes(ctx)
	if err != nil {
		return nil, wrapErr(db.OpListIndexes, err)
	}
	specs := make([]db.IndexSpec, 0, len(docs))
	for _, d := range docs {
		specs = append(specs, db.IndexSpec{Name: d.Name, Keys: parseKeys(d.Key)})
	}
	return specs, nil
}

func keysDoc(keys []db.IndexKey) bson.D {
	d := make(bson.D, len(keys))
	for i, k := range keys {
		d[i] = bson.E{Key: k.Field, Value: int32(k.Direction)}
	}
	return d
}

// parseKeys reads an index key document. Special index types ("text",
// "2dsphere", "hashed") have no direction and decode as zero.
func parseKeys(d bson.D) []db.IndexKey {
	keys := make([]db.IndexKey, len(d))
	for i, e := range d {
		keys[i].Field = e.Key
		if v, ok := db.AsFloat(e.Value); ok {
			if dir, err := db.ParseDirection(int64(v)); err == nil {
				keys[i].Direction = dir
			}
		}
	}
	return keys
}
