// Package ft manages secondary indexes on Redis-protocol search modules
// (RediSearch, valkey-search). Each declared index is one FT index over the
// collection's hash prefix; its ordered key spec is kept in a metadata hash
// because FT indexes carry no key order or direction.
package ft

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/wikirank/internal/db"
)

const metaPrefix = "wikirank:index:"

// Catalog declares and lists the FT indexes of one collection.
type Catalog struct {
	client     rueidis.Client
	collection string
	keyPrefix  string
	schema     db.Schema
	sortable   bool
}

// NewCatalog creates a Catalog. sortable adds SORTABLE to every schema
// field, which valkey-search does not accept.
func NewCatalog(client rueidis.Client, collection, keyPrefix string, schema db.Schema, sortable bool) *Catalog {
	return &Catalog{
		client:     client,
		collection: collection,
		keyPrefix:  keyPrefix,
		schema:     schema,
		sortable:   sortable,
	}
}

// IndexName returns the FT index name for a declared index.
func (c *Catalog) IndexName(name string) string {
	return c.collection + ":" + name
}

func (c *Catalog) metaKey(name string) string {
	return metaPrefix + c.collection + ":" + name
}

// EnsureIndex creates the FT index for spec unless an identical one exists.
func (c *Catalog) EnsureIndex(ctx context.Context, spec *db.IndexSpec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, &db.Error{Op: db.OpCreateIndex, Err: fmt.Errorf("%w: %w", db.ErrQuery, err)}
	}

	existing, found, err := c.describe(ctx, spec.Name)
	if err != nil {
		return false, err
	}
	if found {
		return false, compare(spec, existing)
	}

	args, err := CreateArgs(c.IndexName(spec.Name), c.keyPrefix, spec, c.schema, c.sortable)
	if err != nil {
		return false, &db.Error{Op: db.OpCreateIndex, Err: fmt.Errorf("%w: %w", db.ErrQuery, err)}
	}

	cmd := c.client.B().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		if IsRedisErr(err, "index already exists") {
			// Lost a race with a concurrent declaration; judge what won.
			existing, found, derr := c.describe(ctx, spec.Name)
			if derr != nil {
				return false, derr
			}
			if found {
				return false, compare(spec, existing)
			}
		}
		return false, WrapErr(db.OpCreateIndex, err)
	}

	meta := c.client.B().Hset().Key(c.metaKey(spec.Name)).FieldValue().
		FieldValue("name", spec.Name).
		FieldValue("collection", c.collection).
		FieldValue("keys", db.EncodeKeys(spec.Keys)).
		Build()
	if err := c.client.Do(ctx, meta).Error(); err != nil {
		return false, WrapErr(db.OpHSet, err)
	}
	return true, nil
}

// ListIndexes returns the collection's declared indexes sorted by name.
func (c *Catalog) ListIndexes(ctx context.Context) ([]db.IndexSpec, error) {
	cmd := c.client.B().Arbitrary("FT._LIST").Build()
	names, err := c.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, WrapErr(db.OpListIndexes, err)
	}

	own := c.collection + ":"
	var specs []db.IndexSpec
	for _, full := range names {
		name, ok := strings.CutPrefix(full, own)
		if !ok {
			continue
		}
		desc, found, err := c.describe(ctx, name)
		if err != nil {
			return nil, err
		}
		if found {
			specs = append(specs, desc.IndexSpec)
		}
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

// CollectionExists reports whether any key carries the collection prefix.
func (c *Catalog) CollectionExists(ctx context.Context) (bool, error) {
	var cursor uint64
	for {
		cmd := c.client.B().Scan().Cursor(cursor).Match(c.keyPrefix + "*").Count(1000).Build()
		res, err := c.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return false, WrapErr(db.OpScan, err)
		}
		if len(res.Elements) > 0 {
			return true, nil
		}
		cursor = res.Cursor
		if cursor == 0 {
			return false, nil
		}
	}
}

// described is an existing index. Foreign indexes were created outside
// this tool and have no metadata; only their field names are known.
type described struct {
	db.IndexSpec
	foreign bool
}

// describe loads the declared keys of name.
func (c *Catalog) describe(ctx context.Context, name string) (described, bool, error) {
	info := c.client.B().Arbitrary("FT.INFO").Args(c.IndexName(name)).Build()
	raw, err := c.client.Do(ctx, info).ToAny()
	if err != nil {
		if IsRedisErr(err, "unknown index name") || IsRedisErr(err, "not found") {
			return described{}, false, nil
		}
		return described{}, false, WrapErr(db.OpIndexInfo, err)
	}

	metaCmd := c.client.B().Hgetall().Key(c.metaKey(name)).Build()
	meta, err := c.client.Do(ctx, metaCmd).AsStrMap()
	if err != nil {
		return described{}, false, WrapErr(db.OpHGetAll, err)
	}
	if encoded, ok := meta["keys"]; ok {
		keys, err := db.DecodeKeys(encoded)
		if err != nil {
			return described{}, false, fmt.Errorf("index %q metadata: %w", name, err)
		}
		return described{IndexSpec: db.IndexSpec{Name: name, Keys: keys}}, true, nil
	}

	fields := InfoAttributes(raw)
	keys := make([]db.IndexKey, len(fields))
	for i, f := range fields {
		keys[i] = db.IndexKey{Field: f, Direction: db.Ascending}
	}
	return described{IndexSpec: db.IndexSpec{Name: name, Keys: keys}, foreign: true}, true, nil
}

// compare returns nil for an identical declaration and a conflict otherwise.
func compare(spec *db.IndexSpec, existing described) error {
	if existing.foreign {
		if slicesEqual(spec.Fields(), existing.Fields()) {
			return nil
		}
	} else if spec.SameKeys(existing.Keys) {
		return nil
	}
	return db.NewIndexConflict(spec.Name, existing.Keys, spec.Keys)
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CreateArgs builds FT.CREATE arguments for spec over HASH keys under prefix.
func CreateArgs(index, prefix string, spec *db.IndexSpec, schema db.Schema, sortable bool) ([]string, error) {
	if index == "" {
		return nil, errors.New("index name is required")
	}
	if len(spec.Keys) == 0 {
		return nil, errors.New("at least one key is required")
	}

	args := []string{index, "ON", "HASH"}
	if prefix != "" {
		args = append(args, "PREFIX", "1", prefix)
	}
	args = append(args, "SCHEMA")

	for _, k := range spec.Keys {
		ft, ok := schema[k.Field]
		if !ok {
			return nil, fmt.Errorf("field %q has no schema type", k.Field)
		}
		args = append(args, k.Field)
		switch ft {
		case db.FieldTag:
			args = append(args, "TAG")
		case db.FieldText:
			args = append(args, "TEXT")
		case db.FieldNumeric, db.FieldInteger:
			args = append(args, "NUMERIC")
		default:
			return nil, fmt.Errorf("field %q has unknown type", k.Field)
		}
		if sortable {
			args = append(args, "SORTABLE")
		}
	}
	return args, nil
}

// InfoAttributes extracts attribute identifiers from an FT.INFO reply.
func InfoAttributes(info any) []string {
	m, ok := info.(map[string]any)
	if !ok {
		m = pairsToMap(info)
	}
	attrs, _ := m["attributes"].([]any)
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		var items []any
		switch v := a.(type) {
		case []any:
			items = v
		case map[string]any:
			if id, ok := v["identifier"].(string); ok {
				out = append(out, id)
			}
			continue
		}
		for i := 0; i+1 < len(items); i++ {
			if s, ok := items[i].(string); ok && strings.EqualFold(s, "identifier") {
				if id, ok := items[i+1].(string); ok {
					out = append(out, id)
				}
				break
			}
		}
	}
	return out
}

func pairsToMap(v any) map[string]any {
	arr, _ := v.([]any)
	m := make(map[string]any, len(arr)/2)
	for i := 0; i+1 < len(arr); i += 2 {
		if k, ok := arr[i].(string); ok {
			m[k] = arr[i+1]
		}
	}
	return m
}
