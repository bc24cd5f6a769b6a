package accumulator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/stream"
)

// function describes one aggregation function name.
type function struct {
	kind       Kind
	sel        Selector
	needColumn bool
}

var functions = map[string]function{
	"count": {kind: KindCount},
	"list":  {kind: KindConcatenate, needColumn: true},
	"first": {kind: KindFirst, needColumn: true},
	"last":  {kind: KindLast, needColumn: true},
	"sum":   {kind: KindStatistics, sel: SelSum, needColumn: true},
	"sumsq": {kind: KindStatistics, sel: SelSumSq, needColumn: true},
	"min":   {kind: KindStatistics, sel: SelMin, needColumn: true},
	"max":   {kind: KindStatistics, sel: SelMax, needColumn: true},
	"mean":  {kind: KindStatistics, sel: SelMean, needColumn: true},
	"avg":   {kind: KindStatistics, sel: SelMean, needColumn: true},
	"var":   {kind: KindStatistics, sel: SelVar, needColumn: true},
	"sd":    {kind: KindStatistics, sel: SelSD, needColumn: true},
}

// Functions returns the recognized function names, sorted.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec is one parsed aggregation specifier.
type Spec struct {
	Func     string
	Kind     Kind
	Selector Selector
	Column   int
	Arg      *string
}

func (s Spec) String() string {
	out := s.Func
	if s.Column != NoColumn {
		out += ":" + strconv.Itoa(s.Column)
	}
	if s.Arg != nil {
		out += ":" + *s.Arg
	}
	return out
}

// ParseSpec parses func[:col[:arg]].
func ParseSpec(text string) (Spec, error) {
	tokens := strings.SplitN(text, ":", 3)
	fn, ok := functions[tokens[0]]
	if !ok {
		return Spec{}, errors.Configuration("ta",
			fmt.Sprintf("unknown aggregation function %q (expected one of %s)", tokens[0], strings.Join(Functions(), ", ")))
	}
	spec := Spec{Func: tokens[0], Kind: fn.kind, Selector: fn.sel, Column: NoColumn}

	if len(tokens) > 1 && tokens[1] != "" {
		col, err := strconv.Atoi(tokens[1])
		if err != nil {
			return Spec{}, errors.Configuration("ta", fmt.Sprintf("%q: column %q is not an integer", text, tokens[1]))
		}
		if col < 0 {
			return Spec{}, errors.Configuration("ta", fmt.Sprintf("%q: column must not be negative", text))
		}
		spec.Column = col
	}
	if fn.needColumn && spec.Column == NoColumn {
		return Spec{}, errors.Configuration("ta", fmt.Sprintf("%q: function %s needs a column", text, spec.Func))
	}
	if len(tokens) > 2 {
		arg := tokens[2]
		spec.Arg = &arg
	}
	if spec.Kind == KindConcatenate && spec.Arg != nil && len([]rune(*spec.Arg)) > 3 {
		return Spec{}, errors.Configuration("ta", fmt.Sprintf("%q: list separator spec is longer than 3 characters", text))
	}
	return spec, nil
}

// ParseSpecs parses every specifier, stopping at the first error.
func ParseSpecs(texts []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(texts))
	for _, t := range texts {
		s, err := ParseSpec(t)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// slot is one accumulator instance template within a Plan.
type slot struct {
	kind Kind
	col  int
	arg  *string
}

// output maps one specifier to the slot that answers it.
type output struct {
	slot int
	sel  Selector
}

// Plan lays out the accumulators a partition needs for a list of Specs.
type Plan struct {
	specs   []Spec
	slots   []slot
	outputs []output
}

// NewPlan builds the slot layout. Statistics specifiers on the same column
// share one slot.
func NewPlan(specs []Spec) (*Plan, error) {
	p := &Plan{specs: specs}
	statsByCol := make(map[int]int)
	for _, s := range specs {
		if s.Kind == KindStatistics {
			idx, ok := statsByCol[s.Column]
			if !ok {
				idx = len(p.slots)
				statsByCol[s.Column] = idx
				p.slots = append(p.slots, slot{kind: KindStatistics, col: s.Column})
			}
			p.outputs = append(p.outputs, output{slot: idx, sel: s.Selector})
			continue
		}
		if _, err := New(s.Kind, s.Column, s.Arg); err != nil {
			return nil, err
		}
		p.outputs = append(p.outputs, output{slot: len(p.slots)})
		p.slots = append(p.slots, slot{kind: s.Kind, col: s.Column, arg: s.Arg})
	}
	return p, nil
}

// Specs returns the specifiers the plan was built from.
func (p *Plan) Specs() []Spec { return p.specs }

// Slots returns the number of accumulator instances per partition.
func (p *Plan) Slots() int { return len(p.slots) }

// NewGroup creates the fresh accumulators of one partition.
func (p *Plan) NewGroup() *Group {
	accs := make([]Accumulator, len(p.slots))
	for i, s := range p.slots {
		acc, _ := New(s.kind, s.col, s.arg) // validated by NewPlan
		accs[i] = acc
	}
	return &Group{plan: p, accs: accs}
}

// Group is the accumulator set of one partition.
type Group struct {
	plan *Plan
	accs []Accumulator
}

// Observe feeds row to every accumulator of the group.
func (g *Group) Observe(row stream.Row) error {
	for _, a := range g.accs {
		if err := a.Observe(row); err != nil {
			return err
		}
	}
	return nil
}

// Results renders one value per specifier, in specifier order.
func (g *Group) Results() []string {
	out := make([]string, len(g.plan.outputs))
	for i, o := range g.plan.outputs {
		out[i] = g.accs[o.slot].Result(o.sel)
	}
	return out
}
