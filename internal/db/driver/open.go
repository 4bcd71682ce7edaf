// Package driver builds the article store selected by name.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/db/memory"
	dbMongo "github.com/kailas-cloud/wikirank/internal/db/mongodb"
	dbRedis "github.com/kailas-cloud/wikirank/internal/db/redis"
	dbValkey "github.com/kailas-cloud/wikirank/internal/db/valkey"
	"github.com/kailas-cloud/wikirank/internal/domain/article"
)

// Driver names.
const (
	Mongo  = "mongo"
	Redis  = "redis"
	Valkey = "valkey"
	File   = "file"
)

// Config holds the connection settings of every driver. Fields a driver
// does not use are ignored.
type Config struct {
	Driver     string
	URI        string // mongo
	Addrs      []string
	Username   string
	Password   string
	Database   string // mongo
	Collection string
	KeyPrefix  string // redis, valkey
	Path       string // file: JSONL export
	// ConnectTimeout bounds mongo server selection.
	ConnectTimeout time.Duration
}

// Open creates the store for cfg.Driver. It does not wait for readiness.
func Open(ctx context.Context, cfg Config) (db.Store, error) {
	switch cfg.Driver {
	case Mongo:
		s, err := dbMongo.NewStore(ctx, dbMongo.Config{
			URI:            cfg.URI,
			Username:       cfg.Username,
			Password:       cfg.Password,
			Database:       cfg.Database,
			Collection:     cfg.Collection,
			ConnectTimeout: cfg.ConnectTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create mongo store: %w", err)
		}
		return s, nil
	case Redis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			Collection: cfg.Collection,
			KeyPrefix:  cfg.KeyPrefix,
			Schema:     article.Schema,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		return s, nil
	case Valkey:
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			Collection: cfg.Collection,
			KeyPrefix:  cfg.KeyPrefix,
			Schema:     article.Schema,
		})
		if err != nil {
			return nil, fmt.Errorf("create valkey store: %w", err)
		}
		return s, nil
	case File:
		s, err := memory.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
		}
		s, err = s.WithIndexFile(IndexFilePath(cfg.Path))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// IndexFilePath is where the file driver keeps index declarations.
func IndexFilePath(dataPath string) string {
	return dataPath + ".indexes.yaml"
}
