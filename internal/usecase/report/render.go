package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/kailas-cloud/wikirank/internal/db"
)

// Format selects the output encoding.
type Format string

const (
	// FormatJSON prints one JSON object per row.
	FormatJSON Format = "json"
	// FormatCSV prints a header line and comma-separated rows.
	FormatCSV Format = "csv"
)

// ParseFormat validates a format name. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or csv)", s)
	}
}

// NewRenderer returns the renderer for format writing to w.
func NewRenderer(format Format, w io.Writer) (Renderer, error) {
	switch format {
	case FormatJSON:
		return &JSONRenderer{w: w}, nil
	case FormatCSV:
		return &CSVRenderer{w: w}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// JSONRenderer prints the label, then one JSON object per row with keys in
// column order.
type JSONRenderer struct {
	w io.Writer
}

// Section implements Renderer.
func (r *JSONRenderer) Section(q Query, rows []db.Row) error {
	if _, err := fmt.Fprintln(r.w, q.Label); err != nil {
		return err
	}
	cols := q.Columns()
	for _, row := range rows {
		line, err := MarshalRow(row, cols)
		if err != nil {
			return err
		}
		line = append(line, '\n')
		if _, err := r.w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// MarshalRow encodes row as a JSON object. Keys follow cols; without cols
// they are sorted.
func MarshalRow(row db.Row, cols []string) ([]byte, error) {
	if cols == nil {
		cols = sortedKeys(row)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(db.Normalize(row[c]))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CSVRenderer prints the label, a header line and one record per row.
// Missing values are empty cells.
type CSVRenderer struct {
	w io.Writer
}

// Section implements Renderer.
func (r *CSVRenderer) Section(q Query, rows []db.Row) error {
	if _, err := fmt.Fprintln(r.w, q.Label); err != nil {
		return err
	}
	cols := q.Columns()
	if cols == nil {
		cols = unionKeys(rows)
	}

	cw := csv.NewWriter(r.w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, c := range cols {
			record[i] = formatCell(row[c])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch n := db.Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return n
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func sortedKeys(row db.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unionKeys(rows []db.Row) []string {
	seen := map[string]bool{}
	var keys []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
