package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/logger"
	"github.com/kailas-cloud/wikirank/internal/metrics"
)

// Engine runs the report set sequentially against one store.
type Engine struct {
	store   Store
	queries []Query
	timeout time.Duration
}

// New creates an Engine for the four standard reports. timeout bounds each
// report; zero leaves it to the store.
func New(store Store, params Params, timeout time.Duration) (*Engine, error) {
	queries, err := Queries(params)
	if err != nil {
		return nil, err
	}
	return &Engine{store: store, queries: queries, timeout: timeout}, nil
}

// Queries returns the reports in execution order.
func (e *Engine) Queries() []Query {
	return e.queries
}

// Run executes every report in order and renders each as soon as it
// completes. The first failure stops the run; sections already rendered
// stay written.
func (e *Engine) Run(ctx context.Context, r Renderer) error {
	exists, err := e.store.CollectionExists(ctx)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		return fmt.Errorf("run reports: %w", db.ErrCollectionNotFound)
	}

	for _, q := range e.queries {
		rows, err := e.Execute(ctx, q)
		if err != nil {
			return err
		}
		if err := r.Section(q, rows); err != nil {
			return fmt.Errorf("render %s: %w", q.Name, err)
		}
	}
	return nil
}

// Execute runs a single report.
func (e *Engine) Execute(ctx context.Context, q Query) ([]db.Row, error) {
	log := logger.FromContext(ctx)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := e.store.Aggregate(ctx, q.Pipeline)
	elapsed := time.Since(start)
	metrics.QueryDuration.WithLabelValues(q.Name).Observe(elapsed.Seconds())

	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues(q.Name, errorType(err)).Inc()
		log.Error("report_failed",
			zap.String("report", q.Name),
			zap.String("pipeline", q.Pipeline.String()),
			zap.Duration("latency", elapsed),
			zap.Error(err),
		)
		return nil, fmt.Errorf("report %s: %w", q.Name, err)
	}

	metrics.QueryRows.WithLabelValues(q.Name).Set(float64(len(rows)))
	log.Info("report_done",
		zap.String("report", q.Name),
		zap.Int("rows", len(rows)),
		zap.Duration("latency", elapsed),
	)
	return rows, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, db.ErrQuery):
		return "query"
	case errors.Is(err, db.ErrStorageUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}
