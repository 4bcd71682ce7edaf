package redis

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/wikirank/internal/db"
)

var testSchema = db.Schema{
	"page_id":         db.FieldInteger,
	"title":           db.FieldText,
	"lang":            db.FieldTag,
	"quality":         db.FieldNumeric,
	"quality_bin":     db.FieldInteger,
	"title_len_bin":   db.FieldInteger,
	"is_high_quality": db.FieldInteger,
}

func testConfig() Config {
	return Config{Collection: "articles", Schema: testSchema}
}

func cmdIs(name string) gomock.Matcher {
	return mock.MatchFn(func(cmd []string) bool { return cmd[0] == name })
}

func nonEmptyScan() rueidis.RedisResult {
	return mock.Result(mock.RedisArray(
		mock.RedisInt64(0),
		mock.RedisArray(mock.RedisString("articles:1")),
	))
}

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c, testConfig())
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, testConfig())
	err := s.Ping(context.Background())
	if !errors.Is(err, db.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestNewStore_Validation(t *testing.T) {
	if _, err := NewStore(Config{Collection: "articles"}); err == nil {
		t.Error("expected error without addrs")
	}
	if _, err := NewStore(Config{Addrs: []string{"localhost:6379"}}); err == nil {
		t.Error("expected error without collection")
	}
}

func TestDefaultKeyPrefix(t *testing.T) {
	s := NewStoreForTest(nil, testConfig())
	if got := s.IndexName("lang_1"); got != "articles:lang_1" {
		t.Errorf("IndexName = %q", got)
	}
}

// --- aggregate.go tests ---

func TestAggregateArgs_LanguageOverview(t *testing.T) {
	p := db.NewPipeline().
		GroupBy("lang",
			db.Count("article_count"),
			db.Avg("avg_quality", "quality"),
			db.Avg("high_quality_ratio", "is_high_quality"),
		).
		SortBy(db.Desc("article_count"), db.Asc("lang")).
		Limit(30).
		MustBuild()

	args, types := AggregateArgs("articles:lang_1", p, testSchema, DefaultMaxRows)
	want := "articles:lang_1 * LOAD 3 @lang @quality @is_high_quality " +
		"GROUPBY 1 @lang " +
		"REDUCE COUNT 0 AS article_count " +
		"REDUCE AVG 1 @quality AS avg_quality " +
		"REDUCE AVG 1 @is_high_quality AS high_quality_ratio " +
		"SORTBY 4 @article_count DESC @lang ASC " +
		"LIMIT 0 30 DIALECT 2"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("args:\n got %s\nwant %s", got, want)
	}
	if types["article_count"] != db.FieldInteger || types["avg_quality"] != db.FieldNumeric {
		t.Errorf("unexpected output types: %v", types)
	}
}

func TestAggregateArgs_TopRanked(t *testing.T) {
	p := db.NewPipeline().
		Match("lang", "en").
		SortBy(db.Desc("quality")).
		Limit(50).
		Project("page_id", "title", "quality").
		MustBuild()

	args, _ := AggregateArgs("articles:lang_1_quality_-1", p, testSchema, DefaultMaxRows)
	want := "articles:lang_1_quality_-1 @lang:{en} LOAD 4 @lang @quality @page_id @title " +
		"SORTBY 2 @quality DESC LIMIT 0 50 DIALECT 2"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("args:\n got %s\nwant %s", got, want)
	}
}

func TestAggregateArgs_DefaultLimitAndFilter(t *testing.T) {
	p := db.NewPipeline().
		GroupBy("quality_bin", db.Count("bin_count")).
		Match("quality_bin", int64(10)).
		SortBy(db.Asc("quality_bin")).
		MustBuild()

	args, _ := AggregateArgs("articles:lang_1", p, testSchema, 500)
	got := strings.Join(args, " ")
	if !strings.Contains(got, "FILTER @quality_bin==10") {
		t.Errorf("missing post-group filter: %s", got)
	}
	if !strings.HasSuffix(got, "SORTBY 2 @quality_bin ASC LIMIT 0 500 DIALECT 2") {
		t.Errorf("missing default limit: %s", got)
	}
}

func TestAggregateArgs_WholeDocuments(t *testing.T) {
	p := db.NewPipeline().Match("lang", "en").Limit(5).MustBuild()
	args, _ := AggregateArgs("articles:lang_1", p, testSchema, DefaultMaxRows)
	if got := strings.Join(args, " "); !strings.Contains(got, "LOAD *") {
		t.Errorf("expected LOAD *: %s", got)
	}
}

func expectIndexes(c *mock.Client, specs map[string]string) {
	names := make([]rueidis.RedisMessage, 0, len(specs))
	for name := range specs {
		names = append(names, mock.RedisString("articles:"+name))
	}
	c.EXPECT().Do(gomock.Any(), mock.Match("FT._LIST")).
		Return(mock.Result(mock.RedisArray(names...)))
	for name, keys := range specs {
		c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "articles:"+name)).
			Return(mock.Result(mock.RedisArray(
				mock.RedisString("index_name"), mock.RedisString("articles:"+name),
			)))
		c.EXPECT().Do(gomock.Any(), mock.Match("HGETALL", "wikirank:index:articles:"+name)).
			Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"keys": mock.RedisString(keys),
			})))
	}
}

func TestAggregate_QualityBins(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), cmdIs("SCAN")).Return(nonEmptyScan())
	expectIndexes(c, map[string]string{"lang_1_quality_bin_1": "lang:1,quality_bin:1"})
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.AGGREGATE" && cmd[1] == "articles:lang_1_quality_bin_1" && cmd[2] == "@lang:{en}"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisArray(
				mock.RedisString("quality_bin"), mock.RedisString("10"),
				mock.RedisString("bin_count"), mock.RedisString("3"),
			),
			mock.RedisArray(
				mock.RedisString("quality_bin"), mock.RedisString("90"),
				mock.RedisString("bin_count"), mock.RedisString("1"),
			),
		)))

	s := NewStoreForTest(c, testConfig())
	p := db.NewPipeline().
		Match("lang", "en").
		GroupBy("quality_bin", db.Count("bin_count")).
		SortBy(db.Asc("quality_bin")).
		MustBuild()

	rows, err := s.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["quality_bin"] != int64(10) || rows[0]["bin_count"] != int64(3) {
		t.Errorf("row 0 = %v", rows[0])
	}
	if len(rows[1]) != 2 {
		t.Errorf("row 1 has extra fields: %v", rows[1])
	}
}

func TestAggregate_TopRankedSingleLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), cmdIs("SCAN")).Return(nonEmptyScan())
	expectIndexes(c, map[string]string{
		"lang_1":            "lang:1",
		"lang_1_quality_-1": "lang:1,quality:-1",
	})
	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.AGGREGATE", "articles:lang_1_quality_-1", "@lang:{en}",
			"LOAD", "4", "@lang", "@quality", "@page_id", "@title",
			"SORTBY", "2", "@quality", "DESC",
			"LIMIT", "0", "50",
			"DIALECT", "2",
		)).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisArray(
				mock.RedisString("page_id"), mock.RedisString("7"),
				mock.RedisString("title"), mock.RedisString("Top"),
				mock.RedisString("quality"), mock.RedisString("99.5"),
				mock.RedisString("lang"), mock.RedisString("en"),
			),
			mock.RedisArray(
				mock.RedisString("page_id"), mock.RedisString("3"),
				mock.RedisString("title"), mock.RedisString("Next"),
				mock.RedisString("quality"), mock.RedisString("80"),
				mock.RedisString("lang"), mock.RedisString("en"),
			),
		)))

	s := NewStoreForTest(c, testConfig())
	p := db.NewPipeline().
		Match("lang", "en").
		SortBy(db.Desc("quality")).
		Limit(50).
		Project("page_id", "title", "quality").
		MustBuild()

	rows, err := s.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %v", rows)
	}
	if rows[0]["page_id"] != int64(7) || rows[0]["quality"] != 99.5 {
		t.Errorf("row 0 = %v", rows[0])
	}
	if _, ok := rows[0]["lang"]; ok {
		t.Errorf("projection kept lang: %v", rows[0])
	}
}

func TestAggregateArgs_LimitBeforeGroupKeepsDefault(t *testing.T) {
	p := db.NewPipeline().
		Match("lang", "en").
		Limit(10).
		GroupBy("quality_bin", db.Count("bin_count")).
		MustBuild()

	args, _ := AggregateArgs("articles:lang_1", p, testSchema, 500)
	got := strings.Join(args, " ")
	if !strings.HasSuffix(got, "LIMIT 0 10 GROUPBY 1 @quality_bin REDUCE COUNT 0 AS bin_count LIMIT 0 500 DIALECT 2") {
		t.Errorf("args = %s", got)
	}
}

func TestAggregate_NaNAverageIsNull(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), cmdIs("SCAN")).Return(nonEmptyScan())
	expectIndexes(c, map[string]string{"lang_1": "lang:1"})
	c.EXPECT().Do(gomock.Any(), cmdIs("FT.AGGREGATE")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisArray(
				mock.RedisString("lang"), mock.RedisString("en"),
				mock.RedisString("avg_quality"), mock.RedisString("nan"),
			),
		)))

	s := NewStoreForTest(c, testConfig())
	p := db.NewPipeline().
		GroupBy("lang", db.Count("article_count"), db.Avg("avg_quality", "quality")).
		MustBuild()

	rows, err := s.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := rows[0]["avg_quality"]; !ok || v != nil {
		t.Errorf("avg_quality = %#v, want nil", v)
	}
	if v, ok := rows[0]["article_count"]; !ok || v != nil {
		t.Errorf("absent article_count = %#v, want present nil column", v)
	}
}

func TestAggregate_FallsBackToScan(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), cmdIs("SCAN")).Return(nonEmptyScan()).Times(2)
	c.EXPECT().Do(gomock.Any(), mock.Match("FT._LIST")).
		Return(mock.Result(mock.RedisArray()))
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"lang":            mock.RedisString("en"),
				"quality":         mock.RedisString("90"),
				"is_high_quality": mock.RedisString("1"),
			})),
		})

	s := NewStoreForTest(c, testConfig())
	p := db.NewPipeline().
		GroupBy("lang", db.Count("article_count"), db.Avg("high_quality_ratio", "is_high_quality")).
		MustBuild()

	rows, err := s.Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0]["article_count"] != int64(1) {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if r := rows[0]["high_quality_ratio"].(float64); math.Abs(r-1) > 1e-9 {
		t.Errorf("ratio = %v, want 1", r)
	}
}

func TestAggregate_MissingCollection(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), cmdIs("SCAN")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0), mock.RedisArray())))

	s := NewStoreForTest(c, testConfig())
	p := db.NewPipeline().GroupBy("lang", db.Count("n")).MustBuild()
	_, err := s.Aggregate(context.Background(), p)
	if !errors.Is(err, db.ErrCollectionNotFound) || !errors.Is(err, db.ErrStorageUnavailable) {
		t.Errorf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestAggregate_ServerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), cmdIs("SCAN")).Return(nonEmptyScan())
	expectIndexes(c, map[string]string{"lang_1": "lang:1"})
	c.EXPECT().Do(gomock.Any(), cmdIs("FT.AGGREGATE")).
		Return(mock.Result(mock.RedisError("Property `quality` not loaded nor in schema")))

	s := NewStoreForTest(c, testConfig())
	p := db.NewPipeline().GroupBy("lang", db.Avg("q", "quality")).MustBuild()
	_, err := s.Aggregate(context.Background(), p)
	if !errors.Is(err, db.ErrQuery) {
		t.Errorf("expected ErrQuery, got %v", err)
	}
}

func TestAggregate_InvalidPipeline(t *testing.T) {
	s := NewStoreForTest(nil, testConfig())
	_, err := s.Aggregate(context.Background(), &db.Pipeline{})
	if !errors.Is(err, db.ErrQuery) {
		t.Errorf("expected ErrQuery, got %v", err)
	}
}
