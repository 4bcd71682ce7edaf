package memory

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/domain/article"
)

const maxLineBytes = 4 << 20

// Open loads an articles JSONL export (one Extended JSON document per
// line, the format mongoimport reads). A missing file yields a store whose
// collection does not exist.
func Open(path string) (*Store, error) {
	f, err := os.Open(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return NewMissingStore(), nil
	}
	if err != nil {
		return nil, db.Unavailable(db.OpScan, err)
	}
	defer func() { _ = f.Close() }()

	docs, err := ReadDocuments(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return NewStore(docs), nil
}

// ReadDocuments decodes JSONL article documents and fills derived fields
// that the export left out.
func ReadDocuments(r io.Reader) ([]db.Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var docs []db.Row
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var m bson.M
		if err := bson.UnmarshalExtJSON(raw, false, &m); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, toArticleRow(m))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return docs, nil
}

func toArticleRow(m bson.M) db.Row {
	row := db.RowFromBSON(m)

	if f, ok := row[article.FieldPageID].(float64); ok && f == math.Trunc(f) {
		row[article.FieldPageID] = int64(f)
	}

	quality, hasQuality := db.AsFloat(row[article.FieldQuality])
	if _, ok := row[article.FieldQualityBin]; !ok {
		if hasQuality {
			row[article.FieldQualityBin] = int64(article.QualityBin(quality))
		} else {
			row[article.FieldQualityBin] = int64(article.MissingBin)
		}
	}
	if _, ok := row[article.FieldIsHighQuality]; !ok {
		if hasQuality {
			row[article.FieldIsHighQuality] = int64(article.IsHighQuality(quality))
		} else {
			row[article.FieldIsHighQuality] = int64(0)
		}
	}
	if _, ok := row[article.FieldTitleLenBin]; !ok {
		if title, ok := row[article.FieldTitle].(string); ok {
			row[article.FieldTitleLenBin] = int64(article.TitleLenBin(article.TitleLength(title)))
		} else {
			row[article.FieldTitleLenBin] = int64(article.MissingBin)
		}
	}
	return row
}
