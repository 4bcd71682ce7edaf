// Package metrics holds the Prometheus collectors of the batch commands.
// A run writes them once at exit to a node_exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Report and index Prometheus metrics.
var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wikirank",
			Name:      "query_duration_seconds",
			Help:      "Report pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"report"},
	)

	QueryRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wikirank",
			Name:      "query_rows",
			Help:      "Rows returned by the last run of a report",
		},
		[]string{"report"},
	)

	QueryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikirank",
			Name:      "query_errors_total",
			Help:      "Total failed report pipelines",
		},
		[]string{"report", "error_type"},
	)

	IndexEnsureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wikirank",
			Name:      "index_ensure_total",
			Help:      "Index declarations by outcome",
		},
		[]string{"outcome"}, // "created" / "exists" / "conflict" / "error"
	)
)

// Registry holds the wikirank collectors.
var Registry = prometheus.NewRegistry()

var registered bool

// Register adds the collectors to Registry. Must be called once from main.
func Register() {
	if registered {
		return
	}
	Registry.MustRegister(QueryDuration)
	Registry.MustRegister(QueryRows)
	Registry.MustRegister(QueryErrorsTotal)
	Registry.MustRegister(IndexEnsureTotal)
	registered = true
}

// WriteTextfile writes Registry in the text exposition format. The file is
// written atomically so a concurrent scrape never sees a partial file.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
