package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kailas-cloud/wikirank/internal/db"
)

// Aggregate runs p as a MongoDB aggregation on the bound collection.
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

	docs, err := s.be.Aggregate(ctx, Translate(p))
	if err != nil {
		return nil, wrapErr(db.OpAggregate, err)
	}

	groupKey := ""
	if g, ok := p.GroupStage(); ok {
		groupKey = g.Key
	}
	cols := p.OutputFields()

	rows := make([]db.Row, len(docs))
	for i, d := range docs {
		row := db.RowFromBSON(d)
		if id, ok := d["_id"]; ok && groupKey != "" {
			row[groupKey] = db.NormalizeBSON(id)
		}
		if cols != nil {
			out := make(db.Row, len(cols))
			for _, c := range cols {
				out[c] = row[c]
			}
			row = out
		}
		rows[i] = row
	}
	return rows, nil
}

// Translate converts p into aggregation stages. After the group stage the
// group key lives in _id.
func Translate(p *db.Pipeline) mongo.Pipeline {
	groupKey := ""
	ref := func(field string) string {
		if groupKey != "" && field == groupKey {
			return "_id"
		}
		return field
	}

	out := make(mongo.Pipeline, 0, len(p.Stages))
	for _, st := range p.Stages {
		switch s := st.(type) {
		case db.Match:
			out = append(out, bson.D{{Key: "$match", Value: bson.D{{Key: ref(s.Field), Value: s.Value}}}})
		case db.Group:
			group := bson.D{{Key: "_id", Value: "$" + s.Key}}
			for _, a := range s.Aggregates {
				var acc bson.D
				switch a.Acc {
				case db.AccCount:
					acc = bson.D{{Key: "$sum", Value: 1}}
				case db.AccSum:
					acc = bson.D{{Key: "$sum", Value: "$" + a.Field}}
				case db.AccAvg:
					acc = bson.D{{Key: "$avg", Value: "$" + a.Field}}
				}
				group = append(group, bson.E{Key: a.As, Value: acc})
			}
			out = append(out, bson.D{{Key: "$group", Value: group}})
			groupKey = s.Key
		case db.Sort:
			keys := make(bson.D, len(s.Keys))
			for i, k := range s.Keys {
				keys[i] = bson.E{Key: ref(k.Field), Value: int(k.Direction)}
			}
			out = append(out, bson.D{{Key: "$sort", Value: keys}})
		case db.Limit:
			out = append(out, bson.D{{Key: "$limit", Value: int64(s.N)}})
		case db.Project:
			proj := bson.D{}
			keepID := false
			for _, f := range s.Fields {
				if ref(f) == "_id" {
					keepID = true
				}
				proj = append(proj, bson.E{Key: ref(f), Value: 1})
			}
			if !keepID {
				proj = append(bson.D{{Key: "_id", Value: 0}}, proj...)
			}
			out = append(out, bson.D{{Key: "$project", Value: proj}})
		}
	}
	return out
}
