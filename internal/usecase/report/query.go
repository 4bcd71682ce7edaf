package report

import (
	"fmt"

	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/domain/article"
)

// Report names, used as metric labels and in logs.
const (
	LanguageOverview    = "language_overview"
	QualityDistribution = "quality_distribution"
	TopRanked           = "top_ranked"
	TitleLengthBins     = "title_length_bins"
)

// Output columns.
const (
	ColArticleCount     = "article_count"
	ColAvgQuality       = "avg_quality"
	ColHighQualityRatio = "high_quality_ratio"
	ColBinCount         = "bin_count"
)

// Params configures the report set.
type Params struct {
	Language      string
	OverviewLimit int
	TopLimit      int
}

// DefaultParams returns lang=en, top 30 languages and top 50 articles.
func DefaultParams() Params {
	return Params{Language: "en", OverviewLimit: 30, TopLimit: 50}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.Language == "" {
		return fmt.Errorf("language is required")
	}
	if p.OverviewLimit <= 0 {
		return fmt.Errorf("overview limit must be positive, got %d", p.OverviewLimit)
	}
	if p.TopLimit <= 0 {
		return fmt.Errorf("top limit must be positive, got %d", p.TopLimit)
	}
	return nil
}

// Query is one named report.
type Query struct {
	Name     string
	Label    string
	Pipeline *db.Pipeline
}

// Columns returns the output columns in order.
func (q Query) Columns() []string {
	return q.Pipeline.OutputFields()
}

// Queries builds Q1..Q4 in execution order.
func Queries(p Params) ([]Query, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("report params: %w", err)
	}

	overview, err := db.NewPipeline().
		GroupBy(article.FieldLang,
			db.Count(ColArticleCount),
			db.Avg(ColAvgQuality, article.FieldQuality),
			db.Avg(ColHighQualityRatio, article.FieldIsHighQuality),
		).
		// count ties ordered by lang
		SortBy(db.Desc(ColArticleCount), db.Asc(article.FieldLang)).
		Limit(p.OverviewLimit).
		Build()
	if err != nil {
		return nil, err
	}

	qualityBins, err := db.NewPipeline().
		Match(article.FieldLang, p.Language).
		GroupBy(article.FieldQualityBin, db.Count(ColBinCount)).
		SortBy(db.Asc(article.FieldQualityBin)).
		Build()
	if err != nil {
		return nil, err
	}

	top, err := db.NewPipeline().
		Match(article.FieldLang, p.Language).
		SortBy(db.Desc(article.FieldQuality)).
		Limit(p.TopLimit).
		Project(article.FieldPageID, article.FieldTitle, article.FieldQuality).
		Build()
	if err != nil {
		return nil, err
	}

	titleBins, err := db.NewPipeline().
		Match(article.FieldLang, p.Language).
		GroupBy(article.FieldTitleLenBin,
			db.Count(ColBinCount),
			db.Avg(ColAvgQuality, article.FieldQuality),
			db.Avg(ColHighQualityRatio, article.FieldIsHighQuality),
		).
		SortBy(db.Asc(article.FieldTitleLenBin)).
		Build()
	if err != nil {
		return nil, err
	}

	return []Query{
		{
			Name:     LanguageOverview,
			Label:    fmt.Sprintf("Q1 Language overview (top %d by count)", p.OverviewLimit),
			Pipeline: overview,
		},
		{
			Name:     QualityDistribution,
			Label:    fmt.Sprintf("Q2 Quality distribution (lang=%s)", p.Language),
			Pipeline: qualityBins,
		},
		{
			Name:     TopRanked,
			Label:    fmt.Sprintf("Q3 Top %d (lang=%s)", p.TopLimit, p.Language),
			Pipeline: top,
		},
		{
			Name:     TitleLengthBins,
			Label:    fmt.Sprintf("Q4 Title length bins (lang=%s)", p.Language),
			Pipeline: titleBins,
		},
	}, nil
}
