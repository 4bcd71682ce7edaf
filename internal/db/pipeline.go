package db

import (
	"fmt"
	"strings"
)

// Stage is one typed step of an aggregation pipeline. The set of stages is
// closed: Match, Group, Sort, Limit and Project.
type Stage interface {
	stageName() string
}

// Match keeps documents whose Field equals Value.
type Match struct {
	Field string
	Value any
}

// Accumulator is the reducer applied to each group.
type Accumulator int

const (
	// AccCount counts the documents in a group.
	AccCount Accumulator = iota
	// AccSum sums a numeric field.
	AccSum
	// AccAvg averages a numeric field, ignoring non-numeric values.
	AccAvg
)

func (a Accumulator) String() string {
	switch a {
	case AccCount:
		return "COUNT"
	case AccSum:
		return "SUM"
	case AccAvg:
		return "AVG"
	default:
		return fmt.Sprintf("Accumulator(%d)", int(a))
	}
}

// Aggregate names an output column computed per group.
type Aggregate struct {
	As    string
	Acc   Accumulator
	Field string // unused for AccCount
}

// Group partitions documents by Key. The key value is emitted under the
// Key name, never as an internal identifier.
type Group struct {
	Key        string
	Aggregates []Aggregate
}

// SortKey is one field of a Sort stage.
type SortKey struct {
	Field     string
	Direction Direction
}

// Sort orders rows by Keys, first key most significant.
type Sort struct {
	Keys []SortKey
}

// Limit keeps the first N rows.
type Limit struct {
	N int
}

// Project keeps only Fields, in that order.
type Project struct {
	Fields []string
}

func (Match) stageName() string   { return "match" }
func (Group) stageName() string   { return "group" }
func (Sort) stageName() string    { return "sort" }
func (Limit) stageName() string   { return "limit" }
func (Project) stageName() string { return "project" }

// Pipeline is an ordered list of stages.
type Pipeline struct {
	Stages []Stage
}

// Validate checks every stage and the field references between them.
// Errors wrap ErrQuery.
func (p *Pipeline) Validate() error {
	if len(p.Stages) == 0 {
		return queryErr("pipeline has no stages")
	}

	// nil means "any document field"; after Group/Project the set is closed.
	var avail map[string]bool
	grouped := false

	for i, st := range p.Stages {
		var err error
		switch s := st.(type) {
		case Match:
			err = checkFieldRef(avail, s.Field)
			if err == nil {
				err = checkMatchValue(s.Value)
			}
		case Group:
			if grouped {
				return queryErr("stage %d: only one group stage is supported", i)
			}
			grouped = true
			avail, err = validateGroup(avail, s)
		case Sort:
			err = validateSort(avail, s)
		case Limit:
			if s.N <= 0 {
				err = fmt.Errorf("limit must be positive, got %d", s.N)
			}
		case Project:
			avail, err = validateProject(avail, s)
		case nil:
			err = fmt.Errorf("nil stage")
		default:
			err = fmt.Errorf("unsupported stage %T", st)
		}
		if err != nil {
			return queryErr("stage %d (%s): %v", i, stageLabel(st), err)
		}
	}
	return nil
}

// OutputFields returns the result columns in order, or nil when rows carry
// whole documents.
func (p *Pipeline) OutputFields() []string {
	var cols []string
	for _, st := range p.Stages {
		switch s := st.(type) {
		case Group:
			cols = make([]string, 0, 1+len(s.Aggregates))
			cols = append(cols, s.Key)
			for _, a := range s.Aggregates {
				cols = append(cols, a.As)
			}
		case Project:
			cols = append([]string(nil), s.Fields...)
		}
	}
	return cols
}

// GroupStage returns the group stage, if any.
func (p *Pipeline) GroupStage() (Group, bool) {
	for _, st := range p.Stages {
		if g, ok := st.(Group); ok {
			return g, true
		}
	}
	return Group{}, false
}

// String returns a debug representation of the stages.
func (p *Pipeline) String() string {
	parts := make([]string, 0, len(p.Stages))
	for _, st := range p.Stages {
		switch s := st.(type) {
		case Match:
			parts = append(parts, fmt.Sprintf("MATCH %s=%v", s.Field, s.Value))
		case Group:
			aggs := make([]string, len(s.Aggregates))
			for i, a := range s.Aggregates {
				if a.Acc == AccCount {
					aggs[i] = a.As + "=COUNT"
				} else {
					aggs[i] = fmt.Sprintf("%s=%s(%s)", a.As, a.Acc, a.Field)
				}
			}
			parts = append(parts, "GROUP "+s.Key+" ["+strings.Join(aggs, " ")+"]")
		case Sort:
			keys := make([]string, len(s.Keys))
			for i, k := range s.Keys {
				keys[i] = k.Field + " " + k.Direction.String()
			}
			parts = append(parts, "SORT "+strings.Join(keys, ", "))
		case Limit:
			parts = append(parts, fmt.Sprintf("LIMIT %d", s.N))
		case Project:
			parts = append(parts, "PROJECT "+strings.Join(s.Fields, ","))
		}
	}
	return strings.Join(parts, " | ")
}

func validateGroup(avail map[string]bool, g Group) (map[string]bool, error) {
	if g.Key == "" {
		return nil, fmt.Errorf("group key is required")
	}
	if err := checkFieldRef(avail, g.Key); err != nil {
		return nil, err
	}

	out := map[string]bool{g.Key: true}
	for _, a := range g.Aggregates {
		if a.As == "" {
			return nil, fmt.Errorf("aggregate output name is required")
		}
		if out[a.As] {
			return nil, fmt.Errorf("duplicate output field %q", a.As)
		}
		switch a.Acc {
		case AccCount:
			if a.Field != "" {
				return nil, fmt.Errorf("count %q takes no field", a.As)
			}
		case AccSum, AccAvg:
			if a.Field == "" {
				return nil, fmt.Errorf("%s %q requires a field", a.Acc, a.As)
			}
			if err := checkFieldRef(avail, a.Field); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown accumulator %v", a.Acc)
		}
		out[a.As] = true
	}
	return out, nil
}

func validateSort(avail map[string]bool, s Sort) error {
	if len(s.Keys) == 0 {
		return fmt.Errorf("sort requires at least one key")
	}
	seen := make(map[string]bool, len(s.Keys))
	for _, k := range s.Keys {
		if err := checkFieldRef(avail, k.Field); err != nil {
			return err
		}
		if seen[k.Field] {
			return fmt.Errorf("duplicate sort key %q", k.Field)
		}
		seen[k.Field] = true
		if !k.Direction.Valid() {
			return fmt.Errorf("invalid direction for sort key %q", k.Field)
		}
	}
	return nil
}

func validateProject(avail map[string]bool, p Project) (map[string]bool, error) {
	if len(p.Fields) == 0 {
		return nil, fmt.Errorf("project requires at least one field")
	}
	out := make(map[string]bool, len(p.Fields))
	for _, f := range p.Fields {
		if err := checkFieldRef(avail, f); err != nil {
			return nil, err
		}
		if out[f] {
			return nil, fmt.Errorf("duplicate projected field %q", f)
		}
		out[f] = true
	}
	return out, nil
}

func checkFieldRef(avail map[string]bool, field string) error {
	if field == "" {
		return fmt.Errorf("field name is required")
	}
	if strings.HasPrefix(field, "$") || strings.HasPrefix(field, "@") {
		return fmt.Errorf("field %q must not carry an operator prefix", field)
	}
	if avail != nil && !avail[field] {
		return fmt.Errorf("field %q is not available at this stage", field)
	}
	return nil
}

func checkMatchValue(v any) error {
	switch Normalize(v).(type) {
	case string, int64, float64:
		return nil
	default:
		return fmt.Errorf("unsupported match value %T", v)
	}
}

func stageLabel(st Stage) string {
	if st == nil {
		return "nil"
	}
	return st.stageName()
}

func queryErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrQuery, fmt.Sprintf(format, args...))
}
