package report

import (
	"context"

	"github.com/kailas-cloud/wikirank/internal/db"
)

// Store defines the storage contract the reports read through.
type Store interface {
	CollectionExists(ctx context.Context) (bool, error)
	Aggregate(ctx context.Context, p *db.Pipeline) ([]db.Row, error)
}

// Renderer writes one labeled section per report.
type Renderer interface {
	Section(q Query, rows []db.Row) error
}
