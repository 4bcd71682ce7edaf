package ft

import (
	"fmt"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/wikirank/internal/db"
)

// WrapErr classifies a command failure. Server replies (syntax, unknown
// field, module errors) are query faults; anything else means the server
// could not be reached or did not answer in time.
func WrapErr(op string, err error) error {
	if _, ok := rueidis.IsRedisErr(err); ok {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrQuery, err)}
	}
	return db.Unavailable(op, err)
}

// IsRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func IsRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsIgnoreCase(re.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	ls := len(s)
	lsub := len(substr)
	if lsub > ls {
		return false
	}
	for i := 0; i <= ls-lsub; i++ {
		match := true
		for j := 0; j < lsub; j++ {
			sc := s[i+j]
			tc := substr[j]
			if sc >= 'A' && sc <= 'Z' {
				sc += 'a' - 'A'
			}
			if tc >= 'A' && tc <= 'Z' {
				tc += 'a' - 'A'
			}
			if sc != tc {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// MatchQuery renders an equality filter as an FT query clause.
func MatchQuery(m db.Match, schema db.Schema) string {
	switch schema[m.Field] {
	case db.FieldNumeric, db.FieldInteger:
		v := fmt.Sprint(m.Value)
		return fmt.Sprintf("@%s:[%s %s]", m.Field, v, v)
	default:
		return fmt.Sprintf("@%s:{%s}", m.Field, tagEscaper.Replace(fmt.Sprint(m.Value)))
	}
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

// ChooseIndex picks the declared index best suited to p: it must cover
// every matched field and, among those, shares the longest key prefix
// with the matched, grouped and sorted fields in that order.
func ChooseIndex(specs []db.IndexSpec, p *db.Pipeline) (db.IndexSpec, bool) {
	var matched, wanted []string
	for _, st := range p.Stages {
		switch s := st.(type) {
		case db.Match:
			matched = append(matched, s.Field)
			wanted = append(wanted, s.Field)
		case db.Group:
			wanted = append(wanted, s.Key)
		case db.Sort:
			for _, k := range s.Keys {
				wanted = append(wanted, k.Field)
			}
		}
	}

	best, bestScore, found := db.IndexSpec{}, -1, false
	for _, spec := range specs {
		fields := spec.Fields()
		if !covers(fields, matched) {
			continue
		}
		score := 0
		for score < len(fields) && score < len(wanted) && fields[score] == wanted[score] {
			score++
		}
		if score > bestScore || (score == bestScore && len(fields) < len(best.Keys)) {
			best, bestScore, found = spec, score, true
		}
	}
	return best, found
}

func covers(fields, required []string) bool {
	for _, r := range required {
		ok := false
		for _, f := range fields {
			if f == r {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
