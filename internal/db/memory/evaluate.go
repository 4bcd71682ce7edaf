// Package memory evaluates pipelines in process. It backs the file driver
// and the valkey driver, whose search module has no aggregation command.
package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/wikirank/internal/db"
)

// Evaluate runs p over docs. docs are not modified. Groups are emitted in
// first-encounter order and sorting is stable, so ties keep input order.
func Evaluate(docs []db.Row, p *db.Pipeline) ([]db.Row, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rows := docs
	for _, st := range p.Stages {
		switch s := st.(type) {
		case db.Match:
			rows = match(rows, s)
		case db.Group:
			rows = group(rows, s)
		case db.Sort:
			rows = sortRows(rows, s)
		case db.Limit:
			if len(rows) > s.N {
				rows = rows[:s.N]
			}
		case db.Project:
			rows = project(rows, s)
		default:
			return nil, fmt.Errorf("%w: unsupported stage %T", db.ErrQuery, st)
		}
	}
	return rows, nil
}

func match(rows []db.Row, m db.Match) []db.Row {
	want := db.Normalize(m.Value)
	out := make([]db.Row, 0, len(rows))
	for _, r := range rows {
		if Compare(r[m.Field], want) == 0 {
			out = append(out, r)
		}
	}
	return out
}

type groupState struct {
	key   any
	count int64
	sums  []float64
	nums  []int64
}

func group(rows []db.Row, g db.Group) []db.Row {
	index := make(map[string]*groupState)
	var order []*groupState

	for _, r := range rows {
		key := db.Normalize(r[g.Key])
		id := groupID(key)
		st, ok := index[id]
		if !ok {
			st = &groupState{
				key:  key,
				sums: make([]float64, len(g.Aggregates)),
				nums: make([]int64, len(g.Aggregates)),
			}
			index[id] = st
			order = append(order, st)
		}
		st.count++
		for i, a := range g.Aggregates {
			if a.Acc == db.AccCount {
				continue
			}
			if f, ok := db.AsFloat(r[a.Field]); ok {
				st.sums[i] += f
				st.nums[i]++
			}
		}
	}

	out := make([]db.Row, 0, len(order))
	for _, st := range order {
		row := db.Row{g.Key: st.key}
		for i, a := range g.Aggregates {
			switch a.Acc {
			case db.AccCount:
				row[a.As] = st.count
			case db.AccSum:
				row[a.As] = st.sums[i]
			case db.AccAvg:
				if st.nums[i] == 0 {
					row[a.As] = nil
				} else {
					row[a.As] = st.sums[i] / float64(st.nums[i])
				}
			}
		}
		out = append(out, row)
	}
	return out
}

// groupID makes numerically equal keys (int64 1 and float64 1) share a group.
func groupID(v any) string {
	switch n := v.(type) {
	case nil:
		return "n:"
	case string:
		return "s:" + n
	default:
		if f, ok := db.AsFloat(n); ok {
			return fmt.Sprintf("f:%v", f)
		}
		return fmt.Sprintf("o:%v", n)
	}
}

func sortRows(rows []db.Row, s db.Sort) []db.Row {
	out := append([]db.Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range s.Keys {
			c := Compare(out[i][k.Field], out[j][k.Field])
			if c == 0 {
				continue
			}
			if k.Direction == db.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out
}

func project(rows []db.Row, p db.Project) []db.Row {
	out := make([]db.Row, len(rows))
	for i, r := range rows {
		row := make(db.Row, len(p.Fields))
		for _, f := range p.Fields {
			if v, ok := r[f]; ok {
				row[f] = v
			}
		}
		out[i] = row
	}
	return out
}

// Compare orders values the way document stores do: missing/null first,
// then numbers, then strings. Numbers compare by value regardless of type.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankNull:
		return 0
	case rankNumber:
		fa, _ := db.AsFloat(a)
		fb, _ := db.AsFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case rankString:
		return strings.Compare(a.(string), b.(string))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

const (
	rankNull = iota
	rankNumber
	rankString
	rankOther
)

func rank(v any) int {
	switch db.Normalize(v).(type) {
	case nil:
		return rankNull
	case int64, float64:
		return rankNumber
	case string:
		return rankString
	default:
		return rankOther
	}
}
