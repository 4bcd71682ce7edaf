package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/usecase/health"
	"github.com/kailas-cloud/wikirank/internal/usecase/indexes"
	"github.com/kailas-cloud/wikirank/internal/usecase/report"
)

func (a *app) buildIndexesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build-indexes",
		Short: "Declare the secondary indexes the reports need",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := indexes.New(a.store)
			results, err := svc.Ensure(cmd.Context())
			if err != nil {
				return err
			}

			created := 0
			for _, r := range results {
				if r.Outcome == indexes.Created {
					created++
				}
			}
			a.logger.Info("Indexes ensured", zap.Int("declared", len(results)), zap.Int("created", created))

			specs, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			return printIndexes(a.stdout, specs)
		},
	}
}

func (a *app) listIndexesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-indexes",
		Short: "Print the current index set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			specs, err := indexes.New(a.store).List(cmd.Context())
			if err != nil {
				return err
			}
			return printIndexes(a.stdout, specs)
		},
	}
}

func (a *app) runReportsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-reports",
		Short: "Run the language, quality, ranking and title length reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(a.cfg.Reports.Format)
			if err != nil {
				return err
			}
			renderer, err := report.NewRenderer(format, a.stdout)
			if err != nil {
				return err
			}

			params := report.Params{
				Language:      a.cfg.Reports.Language,
				OverviewLimit: a.cfg.Reports.OverviewLimit,
				TopLimit:      a.cfg.Reports.TopLimit,
			}
			timeout := time.Duration(a.cfg.Database.QueryTimeout) * time.Second
			engine, err := report.New(a.store, params, timeout)
			if err != nil {
				return err
			}

			start := time.Now()
			if err := engine.Run(cmd.Context(), renderer); err != nil {
				return err
			}
			a.logger.Info("Reports finished",
				zap.Int("reports", len(engine.Queries())),
				zap.Duration("latency", time.Since(start)),
			)
			return nil
		},
	}
}

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check store connectivity and collection presence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep := health.New(a.store, a.store).Check(cmd.Context())
			if err := printHealth(a.stdout, a.cfg.Database.Collection, rep); err != nil {
				return err
			}
			switch rep.Status {
			case health.Unhealthy:
				return db.Unavailable(db.OpPing, fmt.Errorf("store is %s", rep.Status))
			case health.Degraded:
				return fmt.Errorf("check: %w", db.ErrCollectionNotFound)
			}
			return nil
		},
	}
}

type indexLine struct {
	Name string       `json:"name"`
	Keys []indexField `json:"keys"`
}

type indexField struct {
	Field     string `json:"field"`
	Direction int    `json:"direction"`
}

// printIndexes writes one JSON line per index.
func printIndexes(w io.Writer, specs []db.IndexSpec) error {
	enc := json.NewEncoder(w)
	for _, spec := range specs {
		line := indexLine{Name: spec.Name, Keys: make([]indexField, len(spec.Keys))}
		for i, k := range spec.Keys {
			line.Keys[i] = indexField{Field: k.Field, Direction: int(k.Direction)}
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("print indexes: %w", err)
		}
	}
	return nil
}

type healthLine struct {
	Status     health.Status                 `json:"status"`
	Collection string                        `json:"collection"`
	Checks     map[string]health.CheckResult `json:"checks"`
}

func printHealth(w io.Writer, collection string, rep health.Report) error {
	if err := json.NewEncoder(w).Encode(healthLine{
		Status:     rep.Status,
		Collection: collection,
		Checks:     rep.Checks,
	}); err != nil {
		return fmt.Errorf("print health: %w", err)
	}
	return nil
}
