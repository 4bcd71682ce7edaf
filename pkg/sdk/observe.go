package wikirank

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/wikirank/internal/db"
	indexesuc "github.com/kailas-cloud/wikirank/internal/usecase/indexes"
)

// Operation status label values. Failures are split by storage error kind.
const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
	statusConflict    = "conflict"
	statusQuery       = "query"
	statusMissing     = "missing"
	statusError       = "error"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	reportRows *prometheus.GaugeVec
	indexes    *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wikirank",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK operations by operation and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wikirank",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds, per report for report runs.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation", "report"}),
		reportRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wikirank",
			Subsystem: "sdk",
			Name:      "report_rows",
			Help:      "Rows returned by the last successful run of a report.",
		}, []string{"report"}),
		indexes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wikirank",
			Subsystem: "sdk",
			Name:      "index_outcomes_total",
			Help:      "Index declarations by outcome.",
		}, []string{"outcome"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.reportRows); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.indexes); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("wikirank: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("wikirank: register metric: %w", err)
	}
	return nil
}

// errorStatus maps an operation error onto its status label.
func errorStatus(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, db.ErrCollectionNotFound):
		return statusMissing
	case errors.Is(err, db.ErrStorageUnavailable):
		return statusUnavailable
	case errors.Is(err, db.ErrIndexConflict):
		return statusConflict
	case errors.Is(err, db.ErrQuery):
		return statusQuery
	default:
		return statusError
	}
}

// observer logs and counts SDK operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// observe records an operation that is not tied to a single report.
func (o *observer) observe(op string, start time.Time, err error) {
	o.record(op, "", start, err)
}

// observeReport records one report pipeline and, on success, its row count.
func (o *observer) observeReport(name string, start time.Time, rows int, err error) {
	if o == nil {
		return
	}
	o.record("report", name, start, err)
	if err == nil && o.metrics != nil {
		o.metrics.reportRows.WithLabelValues(name).Set(float64(rows))
	}
}

// observeIndexes counts each declaration outcome. An error that aborted the
// declarations counts once as "error".
func (o *observer) observeIndexes(start time.Time, results []indexesuc.Result, err error) {
	if o == nil {
		return
	}
	o.record("ensure_indexes", "", start, err)
	if o.metrics == nil {
		return
	}
	for _, r := range results {
		o.metrics.indexes.WithLabelValues(string(r.Outcome)).Inc()
	}
	if err != nil && !errors.Is(err, db.ErrIndexConflict) {
		o.metrics.indexes.WithLabelValues(statusError).Inc()
	}
}

func (o *observer) record(op, report string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := errorStatus(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op, report).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	attrs := []any{"op", op, "duration", dur}
	if report != "" {
		attrs = append(attrs, "report", report)
	}
	if err != nil {
		o.logger.Warn("operation failed", append(attrs, "status", status, "error", err)...)
		return
	}
	o.logger.Debug("operation completed", attrs...)
}
