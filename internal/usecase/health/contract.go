package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CollectionChecker checks that the article collection exists.
type CollectionChecker interface {
	CollectionExists(ctx context.Context) (bool, error)
}
