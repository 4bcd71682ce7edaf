package db

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NormalizeBSON converts a decoded BSON value into a Row value. ObjectIDs
// become hex strings and Decimal128 becomes float64.
func NormalizeBSON(v any) any {
	switch n := v.(type) {
	case primitive.ObjectID:
		return n.Hex()
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return n.String()
		}
		return Normalize(f)
	case primitive.DateTime:
		return n.Time().UTC().Format("2006-01-02T15:04:05.000Z")
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return Normalize(v)
	}
}

// RowFromBSON converts a decoded document, dropping the _id field.
func RowFromBSON(m bson.M) Row {
	row := make(Row, len(m))
	for k, v := range m {
		if k == "_id" {
			continue
		}
		row[k] = NormalizeBSON(v)
	}
	return row
}
