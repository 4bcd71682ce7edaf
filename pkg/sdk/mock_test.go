package wikirank

import (
	"context"

	"github.com/kailas-cloud/wikirank/internal/db"
	healthuc "github.com/kailas-cloud/wikirank/internal/usecase/health"
	indexesuc "github.com/kailas-cloud/wikirank/internal/usecase/indexes"
	reportuc "github.com/kailas-cloud/wikirank/internal/usecase/report"
)

// --- indexUseCase mock ---

type mockIndexUC struct {
	ensureFn func(ctx context.Context) ([]indexesuc.Result, error)
	listFn   func(ctx context.Context) ([]db.IndexSpec, error)
}

func (m *mockIndexUC) Ensure(ctx context.Context) ([]indexesuc.Result, error) {
	return m.ensureFn(ctx)
}

func (m *mockIndexUC) List(ctx context.Context) ([]db.IndexSpec, error) {
	return m.listFn(ctx)
}

// --- reportUseCase mock ---

type mockReportUC struct {
	queries   []reportuc.Query
	runFn     func(ctx context.Context, r reportuc.Renderer) error
	executeFn func(ctx context.Context, q reportuc.Query) ([]db.Row, error)
}

func (m *mockReportUC) Queries() []reportuc.Query { return m.queries }

func (m *mockReportUC) Run(ctx context.Context, r reportuc.Renderer) error {
	return m.runFn(ctx, r)
}

func (m *mockReportUC) Execute(ctx context.Context, q reportuc.Query) ([]db.Row, error) {
	return m.executeFn(ctx, q)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testClient(indexSvc indexUseCase, healthSvc healthUseCase, rep reportUseCase) *Client {
	return &Client{
		indexSvc:  indexSvc,
		healthSvc: healthSvc,
		reports: func(_ reportuc.Params) (reportUseCase, error) {
			return rep, nil
		},
	}
}
