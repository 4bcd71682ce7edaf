package report

import (
	"bytes"
	"math"
	"testing"

	"github.com/kailas-cloud/wikirank/internal/db"
)

func topQuery(t *testing.T) Query {
	t.Helper()
	qs, err := Queries(DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	return qs[2]
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"xml", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestJSONRenderer_ColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(FormatJSON, &buf)
	if err != nil {
		t.Fatal(err)
	}
	rows := []db.Row{
		{"quality": 99.5, "title": `Say "hi"`, "page_id": int64(12)},
		{"page_id": int64(13), "quality": nil},
	}
	if err := r.Section(topQuery(t), rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Q3 Top 50 (lang=en)\n" +
		`{"page_id":12,"title":"Say \"hi\"","quality":99.5}` + "\n" +
		`{"page_id":13,"title":null,"quality":null}` + "\n"
	if buf.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestJSONRenderer_EmptySection(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONRenderer{w: &buf}).Section(topQuery(t), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "Q3 Top 50 (lang=en)\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCSVRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(FormatCSV, &buf)
	if err != nil {
		t.Fatal(err)
	}
	rows := []db.Row{
		{"page_id": int64(12), "title": "Paris, France", "quality": 99.5},
		{"page_id": int64(13), "title": "Lyon", "quality": nil},
	}
	if err := r.Section(topQuery(t), rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Q3 Top 50 (lang=en)\n" +
		"page_id,title,quality\n" +
		"12,\"Paris, France\",99.5\n" +
		"13,Lyon,\n"
	if buf.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestMarshalRow_SortedWithoutColumns(t *testing.T) {
	got, err := MarshalRow(db.Row{"b": int64(2), "a": "x"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":"x","b":2}` {
		t.Errorf("MarshalRow = %s", got)
	}
}

func TestMarshalRow_NonFiniteIsNull(t *testing.T) {
	got, err := MarshalRow(db.Row{"avg_quality": math.NaN(), "n": math.Inf(1)}, []string{"avg_quality", "n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"avg_quality":null,"n":null}` {
		t.Errorf("MarshalRow = %s", got)
	}
	if formatCell(math.NaN()) != "" {
		t.Errorf("formatCell(NaN) = %q, want empty", formatCell(math.NaN()))
	}
}
