package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// A Store is bound to a single collection at construction time.
type Store interface {
	Pinger
	CollectionChecker
	IndexManager
	Aggregator
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CollectionChecker reports whether the bound collection holds any data.
type CollectionChecker interface {
	CollectionExists(ctx context.Context) (bool, error)
}

// IndexManager provides secondary index lifecycle operations.
type IndexManager interface {
	// EnsureIndex declares spec. It reports created=false when an identical
	// index already exists and returns an *IndexConflictError when an index
	// with the same name but different keys is present.
	EnsureIndex(ctx context.Context, spec *IndexSpec) (created bool, err error)
	ListIndexes(ctx context.Context) ([]IndexSpec, error)
}

// Aggregator evaluates a validated pipeline against the bound collection.
type Aggregator interface {
	Aggregate(ctx context.Context, p *Pipeline) ([]Row, error)
}
