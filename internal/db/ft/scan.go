package ft

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/wikirank/internal/db"
)

const (
	scanCount = 1000
	batchSize = 500
)

// LoadDocuments reads every hash under the catalog's key prefix and decodes
// it with the schema. Keys are fetched in DoMulti batches as SCAN returns
// them; a key removed between SCAN and HGETALL is skipped.
func (c *Catalog) LoadDocuments(ctx context.Context) ([]db.Row, error) {
	var docs []db.Row
	var cursor uint64

	for {
		cmd := c.client.B().Scan().Cursor(cursor).Match(c.keyPrefix + "*").Count(scanCount).Build()
		res, err := c.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, WrapErr(db.OpScan, err)
		}

		for start := 0; start < len(res.Elements); start += batchSize {
			end := min(start+batchSize, len(res.Elements))
			hashes, err := c.hgetallMulti(ctx, res.Elements[start:end])
			if err != nil {
				return nil, err
			}
			for _, h := range hashes {
				if len(h) == 0 {
					continue
				}
				docs = append(docs, c.schema.DecodeHash(h))
			}
		}

		cursor = res.Cursor
		if cursor == 0 {
			return docs, nil
		}
	}
}

// hgetallMulti fetches all fields for multiple hashes in a single DoMulti round-trip.
func (c *Catalog) hgetallMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	cmds := make(rueidis.Commands, len(keys))
	for i, key := range keys {
		cmds[i] = c.client.B().Hgetall().Key(key).Build()
	}

	results := c.client.DoMulti(ctx, cmds...)
	out := make([]map[string]string, len(results))
	for i, res := range results {
		m, err := res.AsStrMap()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue
			}
			return nil, WrapErr(db.OpHGetAll, err)
		}
		out[i] = m
	}
	return out, nil
}
