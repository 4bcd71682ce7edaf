package db

// IndexBuilder is a fluent builder for index specs.
type IndexBuilder struct {
	spec IndexSpec
}

// NewIndex starts building an index spec. The name defaults to the
// conventional key-derived name unless Named is called.
func NewIndex() *IndexBuilder {
	return &IndexBuilder{}
}

// Named sets an explicit index name.
func (b *IndexBuilder) Named(name string) *IndexBuilder {
	b.spec.Name = name
	return b
}

// Asc adds an ascending key.
func (b *IndexBuilder) Asc(field string) *IndexBuilder {
	b.spec.Keys = append(b.spec.Keys, IndexKey{Field: field, Direction: Ascending})
	return b
}

// Desc adds a descending key.
func (b *IndexBuilder) Desc(field string) *IndexBuilder {
	b.spec.Keys = append(b.spec.Keys, IndexKey{Field: field, Direction: Descending})
	return b
}

// Build validates and returns the index spec.
func (b *IndexBuilder) Build() (*IndexSpec, error) {
	spec := IndexSpec{
		Name: b.spec.Name,
		Keys: append([]IndexKey(nil), b.spec.Keys...),
	}
	if spec.Name == "" {
		spec.Name = DefaultIndexName(spec.Keys)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexSpec {
	spec, err := b.Build()
	if err != nil {
		panic(err)
	}
	return spec
}

// String returns a debug representation resembling a createIndex call.
func (s *IndexSpec) String() string {
	return s.Name + " " + FormatKeys(s.Keys)
}

// PipelineBuilder is a fluent builder for aggregation pipelines.
type PipelineBuilder struct {
	stages []Stage
}

// NewPipeline starts building a pipeline.
func NewPipeline() *PipelineBuilder {
	return &PipelineBuilder{}
}

// Match appends an equality filter.
func (b *PipelineBuilder) Match(field string, value any) *PipelineBuilder {
	b.stages = append(b.stages, Match{Field: field, Value: value})
	return b
}

// GroupBy appends a group stage.
func (b *PipelineBuilder) GroupBy(key string, aggs ...Aggregate) *PipelineBuilder {
	b.stages = append(b.stages, Group{Key: key, Aggregates: aggs})
	return b
}

// SortBy appends a sort stage.
func (b *PipelineBuilder) SortBy(keys ...SortKey) *PipelineBuilder {
	b.stages = append(b.stages, Sort{Keys: keys})
	return b
}

// Limit appends a limit stage.
func (b *PipelineBuilder) Limit(n int) *PipelineBuilder {
	b.stages = append(b.stages, Limit{N: n})
	return b
}

// Project appends a projection stage.
func (b *PipelineBuilder) Project(fields ...string) *PipelineBuilder {
	b.stages = append(b.stages, Project{Fields: fields})
	return b
}

// Build validates and returns the pipeline.
func (b *PipelineBuilder) Build() (*Pipeline, error) {
	p := &Pipeline{Stages: append([]Stage(nil), b.stages...)}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// MustBuild calls Build and panics on error.
func (b *PipelineBuilder) MustBuild() *Pipeline {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// Count produces the number of documents in each group.
func Count(as string) Aggregate {
	return Aggregate{As: as, Acc: AccCount}
}

// Sum produces the sum of field over each group.
func Sum(as, field string) Aggregate {
	return Aggregate{As: as, Acc: AccSum, Field: field}
}

// Avg produces the mean of field over each group.
func Avg(as, field string) Aggregate {
	return Aggregate{As: as, Acc: AccAvg, Field: field}
}

// Asc is an ascending sort key.
func Asc(field string) SortKey {
	return SortKey{Field: field, Direction: Ascending}
}

// Desc is a descending sort key.
func Desc(field string) SortKey {
	return SortKey{Field: field, Direction: Descending}
}
