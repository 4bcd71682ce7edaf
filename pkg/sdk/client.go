package wikirank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/db/driver"
	healthuc "github.com/kailas-cloud/wikirank/internal/usecase/health"
	indexesuc "github.com/kailas-cloud/wikirank/internal/usecase/indexes"
	reportuc "github.com/kailas-cloud/wikirank/internal/usecase/report"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCollection       = "articles"
)

// Internal interfaces for substitution in tests.
type indexUseCase interface {
	Ensure(ctx context.Context) ([]indexesuc.Result, error)
	List(ctx context.Context) ([]db.IndexSpec, error)
}

type reportUseCase interface {
	Queries() []reportuc.Query
	Run(ctx context.Context, r reportuc.Renderer) error
	Execute(ctx context.Context, q reportuc.Query) ([]db.Row, error)
}

// Client is the wikirank SDK entry point.
type Client struct {
	store     db.Store
	indexSvc  indexUseCase
	healthSvc healthUseCase
	reports   func(p reportuc.Params) (reportUseCase, error)
	obs       *observer
}

// New creates a wikirank Client and connects to the store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		collection:       defaultCollection,
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.driver == "" {
		return nil, errors.New("wikirank: store required (use WithMongo, WithRedis, WithValkey or WithFile)")
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("wikirank: store not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	s, err := driver.Open(ctx, driver.Config{
		Driver:         cfg.driver,
		URI:            cfg.uri,
		Addrs:          cfg.addrs,
		Username:       cfg.username,
		Password:       cfg.password,
		Database:       cfg.database,
		Collection:     cfg.collection,
		KeyPrefix:      cfg.keyPrefix,
		Path:           cfg.path,
		ConnectTimeout: cfg.readinessTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("wikirank: %w", err)
	}
	return s, nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	return &Client{
		store:     store,
		indexSvc:  indexesuc.New(store),
		healthSvc: healthuc.New(store, store),
		reports: func(p reportuc.Params) (reportUseCase, error) {
			return reportuc.New(store, p, cfg.queryTimeout)
		},
		obs: obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndexes declares the indexes the reports rely on. Existing
// identical indexes are kept; conflicting ones are reported, never replaced.
func (c *Client) EnsureIndexes(ctx context.Context) ([]IndexResult, error) {
	start := time.Now()
	results, err := c.indexSvc.Ensure(ctx)
	c.obs.observeIndexes(start, results, err)

	out := make([]IndexResult, len(results))
	for i, r := range results {
		out[i] = IndexResult{Index: fromSpec(r.Spec), Outcome: string(r.Outcome)}
	}
	if err != nil {
		return out, fmt.Errorf("ensure indexes: %w", err)
	}
	return out, nil
}

// Indexes returns the current index set sorted by name.
func (c *Client) Indexes(ctx context.Context) ([]Index, error) {
	start := time.Now()
	specs, err := c.indexSvc.List(ctx)
	c.obs.observe("list_indexes", start, err)
	if err != nil {
		return nil, err
	}

	out := make([]Index, len(specs))
	for i, s := range specs {
		out[i] = fromSpec(s)
	}
	return out, nil
}

// RunReports runs every report in order and writes them to w.
func (c *Client) RunReports(ctx context.Context, p ReportParams, format Format, w io.Writer) error {
	f, err := reportuc.ParseFormat(string(format))
	if err != nil {
		return fmt.Errorf("wikirank: %w", err)
	}
	renderer, err := reportuc.NewRenderer(f, w)
	if err != nil {
		return fmt.Errorf("wikirank: %w", err)
	}
	engine, err := c.reports(toParams(p))
	if err != nil {
		return fmt.Errorf("wikirank: %w", err)
	}

	start := time.Now()
	err = engine.Run(ctx, renderer)
	c.obs.observe("run_reports", start, err)
	return err
}

// Report runs a single report by name.
func (c *Client) Report(ctx context.Context, name string, p ReportParams) (ReportResult, error) {
	engine, err := c.reports(toParams(p))
	if err != nil {
		return ReportResult{}, fmt.Errorf("wikirank: %w", err)
	}

	for _, q := range engine.Queries() {
		if q.Name != name {
			continue
		}
		start := time.Now()
		rows, err := engine.Execute(ctx, q)
		c.obs.observeReport(name, start, len(rows), err)
		if err != nil {
			return ReportResult{}, err
		}

		out := ReportResult{Name: q.Name, Label: q.Label, Columns: q.Columns(), Rows: make([]map[string]any, len(rows))}
		for i, r := range rows {
			out.Rows[i] = r
		}
		return out, nil
	}
	return ReportResult{}, fmt.Errorf("wikirank: unknown report %q", name)
}

func toParams(p ReportParams) reportuc.Params {
	out := reportuc.DefaultParams()
	if p.Language != "" {
		out.Language = p.Language
	}
	if p.OverviewLimit > 0 {
		out.OverviewLimit = p.OverviewLimit
	}
	if p.TopLimit > 0 {
		out.TopLimit = p.TopLimit
	}
	return out
}

func fromSpec(s db.IndexSpec) Index {
	keys := make([]IndexKey, len(s.Keys))
	for i, k := range s.Keys {
		keys[i] = IndexKey{Field: k.Field, Direction: int(k.Direction)}
	}
	return Index{Name: s.Name, Keys: keys}
}
