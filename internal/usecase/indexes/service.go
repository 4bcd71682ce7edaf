package indexes

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/domain/article"
	"github.com/kailas-cloud/wikirank/internal/logger"
	"github.com/kailas-cloud/wikirank/internal/metrics"
)

// Outcome is the result of one index declaration.
type Outcome string

const (
	// Created means the index did not exist and was built.
	Created Outcome = "created"
	// Exists means an identical index was already present.
	Exists Outcome = "exists"
	// Conflict means an index of that name has different keys.
	Conflict Outcome = "conflict"
)

// Result reports one declaration.
type Result struct {
	Spec    db.IndexSpec
	Outcome Outcome
}

// RequiredIndexes returns the article indexes in declaration order.
func RequiredIndexes() []*db.IndexSpec {
	return []*db.IndexSpec{
		db.NewIndex().Asc(article.FieldLang).MustBuild(),
		db.NewIndex().Asc(article.FieldLang).Desc(article.FieldQuality).MustBuild(),
		db.NewIndex().Asc(article.FieldLang).Asc(article.FieldQualityBin).MustBuild(),
		db.NewIndex().Asc(article.FieldLang).Asc(article.FieldTitleLenBin).MustBuild(),
	}
}

// Service declares and lists the collection's secondary indexes.
type Service struct {
	store    Store
	required []*db.IndexSpec
}

// New creates an index service for the required article indexes.
func New(store Store) *Service {
	return &Service{store: store, required: RequiredIndexes()}
}

// Ensure declares every required index in order. A missing collection or an
// unreachable store aborts at once; conflicts are collected, never
// overwritten, and returned joined after all declarations were attempted.
func (s *Service) Ensure(ctx context.Context) ([]Result, error) {
	log := logger.FromContext(ctx)

	exists, err := s.store.CollectionExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("ensure indexes: %w", db.ErrCollectionNotFound)
	}

	results := make([]Result, 0, len(s.required))
	var conflicts []error
	for _, spec := range s.required {
		created, err := s.store.EnsureIndex(ctx, spec)
		switch {
		case errors.Is(err, db.ErrIndexConflict):
			conflicts = append(conflicts, err)
			results = append(results, Result{Spec: *spec, Outcome: Conflict})
			metrics.IndexEnsureTotal.WithLabelValues(string(Conflict)).Inc()
			log.Warn("index_ensured",
				zap.String("name", spec.Name),
				zap.String("outcome", string(Conflict)),
				zap.Error(err),
			)
			continue
		case err != nil:
			metrics.IndexEnsureTotal.WithLabelValues("error").Inc()
			return results, fmt.Errorf("ensure index %s: %w", spec.Name, err)
		}

		outcome := Exists
		if created {
			outcome = Created
		}
		results = append(results, Result{Spec: *spec, Outcome: outcome})
		metrics.IndexEnsureTotal.WithLabelValues(string(outcome)).Inc()
		log.Info("index_ensured",
			zap.String("name", spec.Name),
			zap.String("keys", db.FormatKeys(spec.Keys)),
			zap.String("outcome", string(outcome)),
		)
	}

	if len(conflicts) > 0 {
		return results, errors.Join(conflicts...)
	}
	return results, nil
}

// List returns the current index set sorted by name.
func (s *Service) List(ctx context.Context) ([]db.IndexSpec, error) {
	specs, err := s.store.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	sort.SliceStable(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}
