package indexes

import (
	"context"

	"github.com/kailas-cloud/wikirank/internal/db"
)

// Store defines the storage contract for index declaration.
type Store interface {
	CollectionExists(ctx context.Context) (bool, error)
	EnsureIndex(ctx context.Context, spec *db.IndexSpec) (bool, error)
	ListIndexes(ctx context.Context) ([]db.IndexSpec, error)
}
