package accumulator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/stream"
)

// Kind tags an accumulator variant.
type Kind uint8

const (
	KindCount Kind = iota + 1
	KindConcatenate
	KindFirst
	KindLast
	KindStatistics
)

func (k Kind) String() string {
	switch k {
	case KindCount:
		return "count"
	case KindConcatenate:
		return "concatenate"
	case KindFirst:
		return "first"
	case KindLast:
		return "last"
	case KindStatistics:
		return "statistics"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Selector chooses which value of a Statistics accumulator to report.
// Other kinds ignore it.
type Selector uint8

const (
	SelNone Selector = iota
	SelCount
	SelSum
	SelSumSq
	SelMin
	SelMax
	SelMean
	SelVar
	SelSD
)

// NoColumn marks an accumulator that is not bound to a source column.
const NoColumn = -1

// Accumulator folds the rows of one partition into a result.
type Accumulator interface {
	Kind() Kind
	// Observe feeds the next row of the partition.
	Observe(row stream.Row) error
	// Result renders the current value.
	Result(sel Selector) string
}

// DefaultListSeparator separates list values when no pss argument is given.
const DefaultListSeparator = ","

// New creates an accumulator of kind bound to column col. arg is the
// optional function argument (the pss string for Concatenate); nil means
// absent, which differs from an empty argument.
func New(kind Kind, col int, arg *string) (Accumulator, error) {
	switch kind {
	case KindCount:
		c := &counter{col: col}
		if col != NoColumn {
			c.seen = make(map[string]struct{})
		}
		return c, nil
	case KindConcatenate:
		c := &concatenator{col: col, sep: DefaultListSeparator}
		if arg != nil {
			if err := c.setPSS(*arg); err != nil {
				return nil, err
			}
		}
		return c, nil
	case KindFirst:
		return &first{col: col}, nil
	case KindLast:
		return &last{col: col}, nil
	case KindStatistics:
		return &statistics{col: col}, nil
	default:
		return nil, errors.Configuration("ta", fmt.Sprintf("unknown accumulator kind %d", kind))
	}
}

// --- Count ---

// counter counts distinct values of its column, or rows when unbound.
type counter struct {
	col  int
	n    int
	seen map[string]struct{}
}

func (c *counter) Kind() Kind { return KindCount }

func (c *counter) Observe(row stream.Row) error {
	c.n++
	if c.seen != nil {
		c.seen[row.Get(c.col)] = struct{}{}
	}
	return nil
}

func (c *counter) Result(Selector) string {
	if c.seen != nil {
		return strconv.Itoa(len(c.seen))
	}
	return strconv.Itoa(c.n)
}

// --- Concatenate ---

type concatenator struct {
	col                 int
	prefix, sep, suffix string
	values              []string
}

// setPSS applies a 0-3 character prefix/separator/suffix spec.
func (c *concatenator) setPSS(pss string) error {
	r := []rune(pss)
	switch len(r) {
	case 0:
		c.prefix, c.sep, c.suffix = "", "", ""
	case 1:
		c.prefix, c.sep, c.suffix = "", string(r[0]), ""
	case 2:
		c.prefix, c.sep, c.suffix = string(r[0]), "", string(r[1])
	case 3:
		c.prefix, c.sep, c.suffix = string(r[0]), string(r[1]), string(r[2])
	default:
		return errors.Configuration("ta", fmt.Sprintf("list separator spec %q is longer than 3 characters", pss))
	}
	return nil
}

func (c *concatenator) Kind() Kind { return KindConcatenate }

func (c *concatenator) Observe(row stream.Row) error {
	c.values = append(c.values, row.Get(c.col))
	return nil
}

func (c *concatenator) Result(Selector) string {
	return c.prefix + strings.Join(c.values, c.sep) + c.suffix
}

// --- First / Last ---

type first struct {
	col   int
	value string
	set   bool
}

func (f *first) Kind() Kind { return KindFirst }

func (f *first) Observe(row stream.Row) error {
	if !f.set {
		f.value = row.Get(f.col)
		f.set = true
	}
	return nil
}

func (f *first) Result(Selector) string { return f.value }

type last struct {
	col   int
	value string
}

func (l *last) Kind() Kind { return KindLast }

func (l *last) Observe(row stream.Row) error {
	l.value = row.Get(l.col)
	return nil
}

func (l *last) Result(Selector) string { return l.value }

// --- Statistics ---

type statistics struct {
	col      int
	n        int
	sum      float64
	sumsq    float64
	min, max float64
}

func (s *statistics) Kind() Kind { return KindStatistics }

func (s *statistics) Observe(row stream.Row) error {
	raw := row.Get(s.col)
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return errors.InvalidData("ta", fmt.Sprintf("column %d: %q is not a number", s.col, raw)).
			WithDetail("column", s.col)
	}
	if s.n == 0 {
		s.min, s.max = v, v
	} else {
		s.min = math.Min(s.min, v)
		s.max = math.Max(s.max, v)
	}
	s.n++
	s.sum += v
	s.sumsq += v * v
	return nil
}

func (s *statistics) mean() float64 {
	if s.n == 0 {
		return 0
	}
	return s.sum / float64(s.n)
}

// variance is the sample variance; fewer than two observations give 0.
func (s *statistics) variance() float64 {
	if s.n < 2 {
		return 0
	}
	n := float64(s.n)
	v := (s.sumsq - s.sum*s.sum/n) / (n - 1)
	if v < 0 {
		return 0
	}
	return v
}

func (s *statistics) Result(sel Selector) string {
	switch sel {
	case SelCount:
		return strconv.Itoa(s.n)
	case SelSum:
		return FormatFloat(s.sum)
	case SelSumSq:
		return FormatFloat(s.sumsq)
	case SelMin:
		return FormatFloat(s.min)
	case SelMax:
		return FormatFloat(s.max)
	case SelVar:
		return FormatFloat(s.variance())
	case SelSD:
		return FormatFloat(math.Sqrt(s.variance()))
	default:
		return FormatFloat(s.mean())
	}
}

// FormatFloat renders f in shortest round-trip form. Integral values keep
// a trailing ".0" and magnitudes outside [1e-4, 1e16) use an exponent.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
