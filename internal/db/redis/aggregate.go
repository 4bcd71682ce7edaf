package redis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/db/ft"
	"github.com/kailas-cloud/wikirank/internal/db/memory"
)

// Aggregate runs p via FT.AGGREGATE on the declared index that best covers
// it. Without a covering index the documents are scanned and the pipeline
// is evaluated in process.
func (s *Store) Aggregate(ctx context.Context, p *db.Pipeline) ([]db.Row, error) {
	if err := p.Validate(); err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	exists, err := s.CollectionExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &db.Error{Op: db.OpAggregate, Err: db.ErrCollectionNotFound}
	}

	specs, err := s.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}
	spec, ok := ft.ChooseIndex(specs, p)
	if !ok {
		docs, err := s.LoadDocuments(ctx)
		if err != nil {
			return nil, err
		}
		return memory.Evaluate(docs, p)
	}

	args, types := AggregateArgs(s.IndexName(spec.Name), p, s.schema, s.maxRows)
	cmd := s.client.B().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, ft.WrapErr(db.OpAggregate, err)
	}

	rows, err := parseAggregateReply(raw, types)
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	if cols := p.OutputFields(); cols != nil {
		for i, r := range rows {
			rows[i] = restrict(r, cols)
		}
	}
	return rows, nil
}

// AggregateArgs translates p into FT.AGGREGATE arguments for index. It also
// returns the decoding types of every output field. Projection is left to
// the caller.
func AggregateArgs(index string, p *db.Pipeline, schema db.Schema, maxRows int) ([]string, db.Schema) {
	types := make(db.Schema, len(schema))
	for k, v := range schema {
		types[k] = v
	}

	var query []string
	i := 0
	for ; i < len(p.Stages); i++ {
		m, ok := p.Stages[i].(db.Match)
		if !ok {
			break
		}
		query = append(query, ft.MatchQuery(m, schema))
	}
	q := "*"
	if len(query) > 0 {
		q = strings.Join(query, " ")
	}
	args := []string{index, q}

	load := loadFields(p)
	if load == nil {
		args = append(args, "LOAD", "*")
	} else if len(load) > 0 {
		args = append(args, "LOAD", strconv.Itoa(len(load)))
		for _, f := range load {
			args = append(args, "@"+f)
		}
	}

	// Project emits nothing, so it must not reset endsWithLimit.
	endsWithLimit := false
	for _, st := range p.Stages[i:] {
		switch s := st.(type) {
		case db.Match:
			args = append(args, "FILTER", filterExpr(s, types))
			endsWithLimit = false
		case db.Group:
			endsWithLimit = false
			args = append(args, "GROUPBY", "1", "@"+s.Key)
			for _, a := range s.Aggregates {
				switch a.Acc {
				case db.AccCount:
					args = append(args, "REDUCE", "COUNT", "0", "AS", a.As)
					types[a.As] = db.FieldInteger
				case db.AccAvg:
					args = append(args, "REDUCE", "AVG", "1", "@"+a.Field, "AS", a.As)
					types[a.As] = db.FieldNumeric
				case db.AccSum:
					args = append(args, "REDUCE", "SUM", "1", "@"+a.Field, "AS", a.As)
					types[a.As] = db.FieldNumeric
				}
			}
		case db.Sort:
			endsWithLimit = false
			args = append(args, "SORTBY", strconv.Itoa(2*len(s.Keys)))
			for _, k := range s.Keys {
				args = append(args, "@"+k.Field, k.Direction.String())
			}
		case db.Limit:
			args = append(args, "LIMIT", "0", strconv.Itoa(s.N))
			endsWithLimit = true
		}
	}
	if !endsWithLimit {
		args = append(args, "LIMIT", "0", strconv.Itoa(maxRows))
	}

	args = append(args, "DIALECT", "2")
	return args, types
}

// loadFields lists the document fields the pipeline reads. nil means every
// field is needed.
func loadFields(p *db.Pipeline) []string {
	seen := map[string]bool{}
	fields := []string{}
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}

	for _, st := range p.Stages {
		switch s := st.(type) {
		case db.Match:
			add(s.Field)
		case db.Sort:
			for _, k := range s.Keys {
				add(k.Field)
			}
		case db.Group:
			add(s.Key)
			for _, a := range s.Aggregates {
				if a.Acc != db.AccCount {
					add(a.Field)
				}
			}
			return fields
		case db.Project:
			for _, f := range s.Fields {
				add(f)
			}
			return fields
		}
	}
	return nil
}

func filterExpr(m db.Match, types db.Schema) string {
	switch types[m.Field] {
	case db.FieldNumeric, db.FieldInteger:
		return fmt.Sprintf("@%s==%v", m.Field, m.Value)
	default:
		v := strings.ReplaceAll(fmt.Sprint(m.Value), "'", "\\'")
		return fmt.Sprintf("@%s=='%s'", m.Field, v)
	}
}

// parseAggregateReply decodes [total, [k, v, ...], ...].
func parseAggregateReply(raw []rueidis.RedisMessage, types db.Schema) ([]db.Row, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if _, err := raw[0].AsInt64(); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	rows := make([]db.Row, 0, len(raw)-1)
	for _, msg := range raw[1:] {
		pairs, err := msg.ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse row: %w", err)
		}
		row := make(db.Row, len(pairs)/2)
		for j := 0; j+1 < len(pairs); j += 2 {
			name, err := pairs[j].ToString()
			if err != nil {
				continue
			}
			value, err := pairs[j+1].ToString()
			if err != nil {
				row[name] = nil
				continue
			}
			row[name] = decodeValue(types, name, value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeValue(types db.Schema, field, raw string) any {
	v := types.Decode(field, raw)
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

func restrict(r db.Row, cols []string) db.Row {
	out := make(db.Row, len(cols))
	for _, c := range cols {
		out[c] = r[c]
	}
	return out
}
