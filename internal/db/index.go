package db

import (
	"errors"
	"strconv"
	"strings"
)

// Direction is the order of an index key or a sort key.
type Direction int

const (
	// Ascending orders smallest first (+1).
	Ascending Direction = 1
	// Descending orders largest first (-1).
	Descending Direction = -1
)

// Valid reports whether d is +1 or -1.
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// ParseDirection converts a stored +1/-1 value into a Direction.
func ParseDirection(v int64) (Direction, error) {
	switch v {
	case 1:
		return Ascending, nil
	case -1:
		return Descending, nil
	default:
		return 0, errors.New("direction must be 1 or -1, got " + strconv.FormatInt(v, 10))
	}
}

// IndexKey is one (field, direction) pair of a compound index.
type IndexKey struct {
	Field     string
	Direction Direction
}

// IndexSpec is a named, ordered list of index keys.
type IndexSpec struct {
	Name string
	Keys []IndexKey
}

// Validate checks that the index spec is well-formed.
func (s *IndexSpec) Validate() error {
	if s.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(s.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(s.Keys) == 0 {
		return errors.New("at least one key is required")
	}

	seen := make(map[string]bool, len(s.Keys))
	for i, k := range s.Keys {
		if k.Field == "" {
			return errors.New("field name is required at key " + strconv.Itoa(i))
		}
		if seen[k.Field] {
			return errors.New("duplicate key field: " + k.Field)
		}
		seen[k.Field] = true

		if !k.Direction.Valid() {
			return errors.New("invalid direction for key " + k.Field)
		}
	}
	return nil
}

// SameKeys reports whether both specs list the same keys in the same order.
func (s *IndexSpec) SameKeys(keys []IndexKey) bool {
	if len(s.Keys) != len(keys) {
		return false
	}
	for i := range s.Keys {
		if s.Keys[i] != keys[i] {
			return false
		}
	}
	return true
}

// Fields returns the key field names in declaration order.
func (s *IndexSpec) Fields() []string {
	out := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		out[i] = k.Field
	}
	return out
}

// DefaultIndexName derives the conventional name "field_dir[_field_dir...]",
// e.g. "lang_1_quality_-1".
func DefaultIndexName(keys []IndexKey) string {
	parts := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		parts = append(parts, k.Field, strconv.Itoa(int(k.Direction)))
	}
	return strings.Join(parts, "_")
}

// FormatKeys renders keys as "{lang: 1, quality: -1}".
func FormatKeys(keys []IndexKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Field + ": " + strconv.Itoa(int(k.Direction))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// EncodeKeys serializes keys as "lang:1,quality:-1" for metadata storage.
func EncodeKeys(keys []IndexKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Field + ":" + strconv.Itoa(int(k.Direction))
	}
	return strings.Join(parts, ",")
}

// DecodeKeys parses the EncodeKeys format.
func DecodeKeys(s string) ([]IndexKey, error) {
	if s == "" {
		return nil, errors.New("empty key list")
	}
	items := strings.Split(s, ",")
	keys := make([]IndexKey, 0, len(items))
	for _, item := range items {
		field, dirStr, ok := strings.Cut(item, ":")
		if !ok || field == "" {
			return nil, errors.New("malformed index key: " + item)
		}
		v, err := strconv.ParseInt(dirStr, 10, 64)
		if err != nil {
			return nil, errors.New("malformed index direction: " + item)
		}
		dir, err := ParseDirection(v)
		if err != nil {
			return nil, err
		}
		keys = append(keys, IndexKey{Field: field, Direction: dir})
	}
	return keys, nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
