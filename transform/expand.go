package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/stream"
)

// ExpandName labels errors raised by Expand.
const ExpandName = "tx"

// DefaultPSS is the prefix/separator/suffix of an expanded list value.
const DefaultPSS = "[,]"

// ExpandSpec names one list-valued column and how its values are framed.
type ExpandSpec struct {
	Column int
	Prefix string
	Sep    string
	Suffix string
}

// ParseExpandSpec parses COL[:PSS]. PSS has up to three characters: one is
// a separator, two are a prefix and suffix, three are all of them.
func ParseExpandSpec(text string) (ExpandSpec, error) {
	colText, pss, _ := strings.Cut(text, ":")
	col, err := strconv.Atoi(colText)
	if err != nil || col < 0 {
		return ExpandSpec{}, errors.Configuration(ExpandName, fmt.Sprintf("bad column in expand spec %q", text))
	}
	if pss == "" {
		pss = DefaultPSS
	}
	s := ExpandSpec{Column: col}
	r := []rune(pss)
	switch len(r) {
	case 1:
		s.Sep = string(r[0])
	case 2:
		s.Prefix, s.Suffix = string(r[0]), string(r[1])
	case 3:
		s.Prefix, s.Sep, s.Suffix = string(r[0]), string(r[1]), string(r[2])
	default:
		return ExpandSpec{}, errors.Configuration(ExpandName, fmt.Sprintf("expand spec %q: PSS is longer than 3 characters", text))
	}
	return s, nil
}

// split unwraps and splits one list value.
func (s ExpandSpec) split(value string) ([]string, error) {
	if len(value) < len(s.Prefix)+len(s.Suffix) ||
		!strings.HasPrefix(value, s.Prefix) || !strings.HasSuffix(value, s.Suffix) {
		return nil, errors.InvalidData(ExpandName,
			fmt.Sprintf("column %d: %q is not framed by %q and %q", s.Column, value, s.Prefix, s.Suffix)).
			WithDetail("column", s.Column)
	}
	inner := value[len(s.Prefix) : len(value)-len(s.Suffix)]
	if s.Sep == "" {
		return []string{inner}, nil
	}
	return strings.Split(inner, s.Sep), nil
}

// Expand replaces each listed column by its list elements, producing one
// row per element. Columns expand in parallel; shorter lists pad with "".
func Expand(src stream.Stream, specs []ExpandSpec) stream.Stream {
	return stream.FlatMap(src, func(_ context.Context, row stream.Row) ([]stream.Row, error) {
		lists := make([][]string, len(specs))
		n := 1
		for i, s := range specs {
			items, err := s.split(row.Get(s.Column))
			if err != nil {
				return nil, err
			}
			lists[i] = items
			n = max(n, len(items))
		}
		out := make([]stream.Row, n)
		for j := range out {
			r := row.Clone()
			for i, s := range specs {
				if s.Column >= len(r) {
					continue
				}
				if j < len(lists[i]) {
					r[s.Column] = lists[i][j]
				} else {
					r[s.Column] = ""
				}
			}
			out[j] = r
		}
		return out, nil
	})
}
