package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/wikirank/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store is a read-only document collection held in memory. Index metadata is
// kept in process and, when an index file is configured, persisted as YAML.
type Store struct {
	mu        sync.Mutex
	docs      []db.Row
	indexes   map[string]db.IndexSpec
	indexFile string
	missing   bool
}

// NewStore wraps already-decoded documents.
func NewStore(docs []db.Row) *Store {
	return &Store{docs: docs, indexes: make(map[string]db.IndexSpec)}
}

// NewMissingStore returns a store whose collection does not exist.
func NewMissingStore() *Store {
	return &Store{indexes: make(map[string]db.IndexSpec), missing: true}
}

// WithIndexFile loads persisted index metadata from path and saves every
// newly created index back to it.
func (s *Store) WithIndexFile(path string) (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.indexFile = path
	specs, err := readIndexFile(path)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		s.indexes[spec.Name] = spec
	}
	return s, nil
}

// Ping always succeeds: the data is already in process.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error {
	return nil
}

// CollectionExists reports whether the collection was loaded.
func (s *Store) CollectionExists(_ context.Context) (bool, error) {
	return !s.missing, nil
}

// EnsureIndex records spec, rejecting a same-name index with other keys.
func (s *Store) EnsureIndex(_ context.Context, spec *db.IndexSpec) (bool, error) {
	if err := spec.Validate(); err != nil {
		return false, &db.Error{Op: db.OpCreateIndex, Err: fmt.Errorf("%w: %w", db.ErrQuery, err)}
	}
	if s.missing {
		return false, db.ErrCollectionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.indexes[spec.Name]; ok {
		if existing.SameKeys(spec.Keys) {
			return false, nil
		}
		return false, db.NewIndexConflict(spec.Name, existing.Keys, spec.Keys)
	}

	s.indexes[spec.Name] = db.IndexSpec{
		Name: spec.Name,
		Keys: append([]db.IndexKey(nil), spec.Keys...),
	}
	if s.indexFile != "" {
		if err := writeIndexFile(s.indexFile, s.sortedIndexes()); err != nil {
			delete(s.indexes, spec.Name)
			return false, &db.Error{Op: db.OpCreateIndex, Err: err}
		}
	}
	return true, nil
}

// ListIndexes returns declared indexes sorted by name.
func (s *Store) ListIndexes(_ context.Context) ([]db.IndexSpec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedIndexes(), nil
}

// Aggregate evaluates p over the loaded documents.
func (s *Store) Aggregate(ctx context.Context, p *db.Pipeline) ([]db.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, db.Unavailable(db.OpAggregate, err)
	}
	if s.missing {
		return nil, db.ErrCollectionNotFound
	}
	rows, err := Evaluate(s.docs, p)
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	return rows, nil
}

func (s *Store) sortedIndexes() []db.IndexSpec {
	out := make([]db.IndexSpec, 0, len(s.indexes))
	for _, spec := range s.indexes {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// indexFileEntry is the YAML layout of one persisted index.
type indexFileEntry struct {
	Name string `yaml:"name"`
	Keys string `yaml:"keys"` // db.EncodeKeys format
}

func readIndexFile(path string) ([]db.IndexSpec, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index file %s: %w", path, err)
	}

	var entries []indexFileEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse index file %s: %w", path, err)
	}

	specs := make([]db.IndexSpec, 0, len(entries))
	for _, e := range entries {
		keys, err := db.DecodeKeys(e.Keys)
		if err != nil {
			return nil, fmt.Errorf("index file %s: index %q: %w", path, e.Name, err)
		}
		specs = append(specs, db.IndexSpec{Name: e.Name, Keys: keys})
	}
	return specs, nil
}

func writeIndexFile(path string, specs []db.IndexSpec) error {
	entries := make([]indexFileEntry, len(specs))
	for i, spec := range specs {
		entries[i] = indexFileEntry{Name: spec.Name, Keys: db.EncodeKeys(spec.Keys)}
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode index file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write index file %s: %w", path, err)
	}
	return nil
}
