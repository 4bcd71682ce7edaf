package wikirank

// IndexKey is one (field, direction) pair. Direction is 1 or -1.
type IndexKey struct {
	Field     string
	Direction int
}

// Index is a declared secondary index.
type Index struct {
	Name string
	Keys []IndexKey
}

// IndexResult is the outcome of one index declaration:
// "created", "exists" or "conflict".
type IndexResult struct {
	Index   Index
	Outcome string
}

// Report names.
const (
	ReportLanguageOverview    = "language_overview"
	ReportQualityDistribution = "quality_distribution"
	ReportTopRanked           = "top_ranked"
	ReportTitleLengthBins     = "title_length_bins"
)

// ReportParams configures the report set. Zero fields take the defaults.
type ReportParams struct {
	Language      string
	OverviewLimit int
	TopLimit      int
}

// DefaultReportParams returns lang=en, top 30 languages and top 50 articles.
func DefaultReportParams() ReportParams {
	return ReportParams{Language: "en", OverviewLimit: 30, TopLimit: 50}
}

// ReportResult holds the rows of one report.
type ReportResult struct {
	Name    string
	Label   string
	Columns []string
	Rows    []map[string]any
}

// Format selects the RunReports output encoding.
type Format string

// Output formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)
