package db

import (
	"math"
	"strconv"
)

// Row is a single result record. Values are normalized to nil, string,
// int64 or float64 by every backend.
type Row map[string]any

// FieldType tells key-value backends how a stored string decodes.
type FieldType int

const (
	// FieldTag is an exact-match string field (FT TAG).
	FieldTag FieldType = iota
	// FieldText is a free-text string field (FT TEXT).
	FieldText
	// FieldNumeric is a float field (FT NUMERIC).
	FieldNumeric
	// FieldInteger is an integral field, indexed as FT NUMERIC.
	FieldInteger
)

// Schema maps document field names to their types.
type Schema map[string]FieldType

// Decode converts a raw string field value according to the schema.
// Unknown fields stay strings; unparsable numbers become nil.
func (s Schema) Decode(field, raw string) any {
	switch s[field] {
	case FieldNumeric:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return f
	case FieldInteger:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f != math.Trunc(f) {
			return nil
		}
		return int64(f)
	default:
		return raw
	}
}

// DecodeHash converts a hash of raw strings into a Row.
func (s Schema) DecodeHash(fields map[string]string) Row {
	row := make(Row, len(fields))
	for k, v := range fields {
		row[k] = s.Decode(k, v)
	}
	return row
}

// Normalize converts common Go numeric types into int64/float64. NaN and
// infinities become nil, the way a missing value reads.
func Normalize(v any) any {
	switch n := v.(type) {
	case nil, string, int64:
		return v
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int16:
		return int64(n)
	case int8:
		return int64(n)
	case uint32:
		return int64(n)
	case uint16:
		return int64(n)
	case uint8:
		return int64(n)
	case float32:
		return Normalize(float64(n))
	case bool:
		if n {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}

// AsFloat returns v as float64 when it is numeric.
func AsFloat(v any) (float64, bool) {
	switch n := Normalize(v).(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
