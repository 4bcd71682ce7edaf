package memory

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/wikirank/internal/db"
)

func scenarioDocs() []db.Row {
	return []db.Row{
		{"lang": "en", "quality": 90.0, "is_high_quality": int64(1)},
		{"lang": "en", "quality": 10.0, "is_high_quality": int64(0)},
		{"lang": "fr", "quality": 50.0, "is_high_quality": int64(1)},
	}
}

func overviewPipeline(limit int) *db.Pipeline {
	return db.NewPipeline().
		GroupBy("lang",
			db.Count("article_count"),
			db.Avg("avg_quality", "quality"),
			db.Avg("high_quality_ratio", "is_high_quality"),
		).
		SortBy(db.Desc("article_count"), db.Asc("lang")).
		Limit(limit).
		MustBuild()
}

func TestEvaluate_LanguageOverviewScenario(t *testing.T) {
	rows, err := Evaluate(scenarioDocs(), overviewPipeline(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	want := []db.Row{
		{"lang": "en", "article_count": int64(2), "avg_quality": 50.0, "high_quality_ratio": 0.5},
		{"lang": "fr", "article_count": int64(1), "avg_quality": 50.0, "high_quality_ratio": 1.0},
	}
	for i := range want {
		for k, v := range want[i] {
			if rows[i][k] != v {
				t.Errorf("row %d %s = %#v, want %#v", i, k, rows[i][k], v)
			}
		}
	}
}

func TestEvaluate_GroupEncounterOrderOnTies(t *testing.T) {
	docs := []db.Row{
		{"lang": "fr"}, {"lang": "de"}, {"lang": "en"},
	}
	p := db.NewPipeline().
		GroupBy("lang", db.Count("n")).
		SortBy(db.Desc("n")).
		MustBuild()

	rows, err := Evaluate(docs, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []any{rows[0]["lang"], rows[1]["lang"], rows[2]["lang"]}
	want := []any{"fr", "de", "en"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestEvaluate_OverviewProperties(t *testing.T) {
	var docs []db.Row
	counts := map[string]int64{}
	for i := 0; i < 40; i++ {
		lang := "l" + string(rune('a'+i%35))
		n := i%7 + 1
		for j := 0; j < n; j++ {
			docs = append(docs, db.Row{"lang": lang, "quality": float64(j * 10), "is_high_quality": int64(j % 2)})
			counts[lang]++
		}
	}

	rows, err := Evaluate(docs, overviewPipeline(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) > 30 {
		t.Fatalf("expected at most 30 rows, got %d", len(rows))
	}

	seen := map[any]bool{}
	for i, r := range rows {
		if seen[r["lang"]] {
			t.Errorf("duplicate lang %v", r["lang"])
		}
		seen[r["lang"]] = true

		lang := r["lang"].(string)
		if r["article_count"] != counts[lang] {
			t.Errorf("lang %s count = %v, want %d", lang, r["article_count"], counts[lang])
		}
		if i > 0 && rows[i-1]["article_count"].(int64) < r["article_count"].(int64) {
			t.Errorf("rows %d/%d not sorted by count desc", i-1, i)
		}
	}
}

func TestEvaluate_HighQualityRatio(t *testing.T) {
	docs := []db.Row{
		{"bin": int64(20), "is_high_quality": int64(1)},
		{"bin": int64(20), "is_high_quality": int64(0)},
		{"bin": int64(20), "is_high_quality": int64(0)},
	}
	p := db.NewPipeline().
		GroupBy("bin", db.Count("bin_count"), db.Avg("ratio", "is_high_quality")).
		MustBuild()

	rows, err := Evaluate(docs, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ratio := rows[0]["ratio"].(float64)
	if math.Abs(ratio-1.0/3.0) > 1e-9 {
		t.Errorf("ratio = %v, want 1/3", ratio)
	}
}

func TestEvaluate_BinsAscendingAndSumToTotal(t *testing.T) {
	docs := []db.Row{
		{"lang": "en", "quality_bin": int64(30)},
		{"lang": "en", "quality_bin": int64(10)},
		{"lang": "fr", "quality_bin": int64(0)},
		{"lang": "en", "quality_bin": int64(30)},
		{"lang": "en", "quality_bin": int64(-1)},
	}
	p := db.NewPipeline().
		Match("lang", "en").
		GroupBy("quality_bin", db.Count("bin_count")).
		SortBy(db.Asc("quality_bin")).
		MustBuild()

	rows, err := Evaluate(docs, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantBins := []int64{-1, 10, 30}
	if len(rows) != len(wantBins) {
		t.Fatalf("expected %d bins, got %d", len(wantBins), len(rows))
	}
	var total int64
	for i, r := range rows {
		if r["quality_bin"] != wantBins[i] {
			t.Errorf("bin %d = %v, want %d", i, r["quality_bin"], wantBins[i])
		}
		total += r["bin_count"].(int64)
	}
	if total != 4 {
		t.Errorf("bin counts sum to %d, want 4", total)
	}
}

func TestEvaluate_TopRanked(t *testing.T) {
	var docs []db.Row
	for i := 0; i < 120; i++ {
		lang := "en"
		if i%3 == 0 {
			lang = "de"
		}
		docs = append(docs, db.Row{
			"_internal": i,
			"page_id":   int64(i),
			"title":     "t",
			"lang":      lang,
			"quality":   float64((i * 37) % 101),
		})
	}
	p := db.NewPipeline().
		Match("lang", "en").
		SortBy(db.Desc("quality")).
		Limit(50).
		Project("page_id", "title", "quality").
		MustBuild()

	rows, err := Evaluate(docs, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 50 {
		t.Fatalf("expected 50 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if len(r) != 3 {
			t.Errorf("row %d has fields %v, want only page_id/title/quality", i, r)
		}
		if id := r["page_id"].(int64); id%3 == 0 {
			t.Errorf("row %d is not an en document (page_id %d)", i, id)
		}
		if i > 0 && rows[i-1]["quality"].(float64) < r["quality"].(float64) {
			t.Errorf("rows %d/%d not sorted by quality desc", i-1, i)
		}
	}
}

func TestEvaluate_AvgIgnoresMissing(t *testing.T) {
	docs := []db.Row{
		{"k": "a", "q": 10.0},
		{"k": "a", "q": nil},
		{"k": "a"},
		{"k": "b"},
	}
	p := db.NewPipeline().
		GroupBy("k", db.Count("n"), db.Avg("avg", "q"), db.Sum("sum", "q")).
		MustBuild()

	rows, err := Evaluate(docs, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0]["n"] != int64(3) || rows[0]["avg"] != 10.0 || rows[0]["sum"] != 10.0 {
		t.Errorf("group a = %v", rows[0])
	}
	if rows[1]["avg"] != nil {
		t.Errorf("group b avg = %v, want nil", rows[1]["avg"])
	}
}

func TestEvaluate_AvgSkipsNonFinite(t *testing.T) {
	docs := []db.Row{
		{"k": "a", "q": 20.0},
		{"k": "a", "q": math.NaN()},
		{"k": "a", "q": math.Inf(1)},
		{"k": "b", "q": math.NaN()},
	}
	p := db.NewPipeline().GroupBy("k", db.Count("n"), db.Avg("avg", "q")).MustBuild()

	rows, err := Evaluate(docs, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0]["n"] != int64(3) || rows[0]["avg"] != 20.0 {
		t.Errorf("group a = %v", rows[0])
	}
	if rows[1]["avg"] != nil {
		t.Errorf("group b avg = %v, want nil", rows[1]["avg"])
	}
}

func TestEvaluate_NumericKeysShareGroup(t *testing.T) {
	docs := []db.Row{{"k": int64(1)}, {"k": 1.0}, {"k": "1"}}
	p := db.NewPipeline().GroupBy("k", db.Count("n")).MustBuild()

	rows, err := Evaluate(docs, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 groups, got %d: %v", len(rows), rows)
	}
	if rows[0]["n"] != int64(2) {
		t.Errorf("numeric group count = %v, want 2", rows[0]["n"])
	}
}

func TestEvaluate_EmptyInput(t *testing.T) {
	rows, err := Evaluate(nil, overviewPipeline(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %v", rows)
	}
}

func TestEvaluate_InvalidPipeline(t *testing.T) {
	_, err := Evaluate(nil, &db.Pipeline{})
	if !errors.Is(err, db.ErrQuery) {
		t.Errorf("expected ErrQuery, got %v", err)
	}
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	docs := []db.Row{{"q": 2.0}, {"q": 1.0}}
	p := db.NewPipeline().SortBy(db.Asc("q")).MustBuild()

	if _, err := Evaluate(docs, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0]["q"] != 2.0 {
		t.Error("input slice was reordered")
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b any
		want int
	}{
		{nil, nil, 0},
		{nil, int64(0), -1},
		{int64(1), 1.0, 0},
		{int64(2), 1.5, 1},
		{1.0, "a", -1},
		{"b", "a", 1},
		{"a", nil, 1},
	}
	for _, tc := range tests {
		if got := Compare(tc.a, tc.b); got != tc.want {
			t.Errorf("Compare(%#v, %#v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
