package join

import (
	"context"
	"fmt"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/logger"
	"github.com/kbukum/tabletool/observability"
	"github.com/kbukum/tabletool/stream"
)

// OperatorName labels spans, logs and errors raised by this package.
const OperatorName = "tj"

// Combiner shapes an output row from a (left, right) pair. Returning false
// drops the pair.
type Combiner func(ctx context.Context, left, right stream.Row) (stream.Row, bool, error)

// ConcatRows is the default Combiner.
func ConcatRows(_ context.Context, left, right stream.Row) (stream.Row, bool, error) {
	return stream.ConcatRows(left, right), true, nil
}

// Options configures a join.
type Options struct {
	LeftKeys   []int
	RightKeys  []int
	LeftOuter  bool
	RightOuter bool
	Null       string
	Combine    Combiner
	Logger     *logger.Logger
}

// Describe reports what the planner may know about s.
func Describe(s stream.Stream) SideInfo {
	return SideInfo{Size: stream.SizeOf(s), Identity: s}
}

// New joins left and right. Passing the same stream for both sides makes a
// self-join.
func New(left, right stream.Stream, opts Options) (stream.Stream, error) {
	if len(opts.LeftKeys) != len(opts.RightKeys) {
		return nil, errors.Configuration(OperatorName,
			fmt.Sprintf("same number of join columns must be given for both tables (%d != %d)",
				len(opts.LeftKeys), len(opts.RightKeys))).
			WithDetail("left", len(opts.LeftKeys)).
			WithDetail("right", len(opts.RightKeys))
	}
	if opts.Combine == nil {
		opts.Combine = ConcatRows
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	dec := Plan(Describe(left), Describe(right), opts.LeftOuter, opts.RightOuter)
	opts.Logger.Debug("join planned", logger.Fields(
		logger.FieldOperator, OperatorName,
		"build", dec.Build.String(),
		"swapped", dec.Swapped,
		"self", dec.Self,
	))

	j := &joiner{opts: opts, dec: dec}
	j.build, j.probe = right, left
	j.buildKeys, j.probeKeys = opts.RightKeys, opts.LeftKeys
	if dec.Swapped {
		j.build, j.probe = left, right
		j.buildKeys, j.probeKeys = opts.LeftKeys, opts.RightKeys
	}

	closer := func() error {
		err := left.Close()
		if !dec.Self {
			if rerr := right.Close(); err == nil {
				err = rerr
			}
		}
		return err
	}
	return stream.Lazy(j.open, closer), nil
}

type entry struct {
	index int
	row   stream.Row
}

// table is the materialized build side.
type table struct {
	groups map[stream.Key][]entry
	order  []stream.Key
	rows   []stream.Row
	width  int
}

type joiner struct {
	opts      Options
	dec       Decision
	build     stream.Stream
	probe     stream.Stream
	buildKeys []int
	probeKeys []int
}

func (j *joiner) open(ctx context.Context) (stream.Stream, error) {
	t, err := j.materialize(ctx)
	if err != nil {
		return nil, err
	}
	if j.dec.Self {
		return j.selfJoin(t), nil
	}
	return &probeIter{j: j, t: t, matched: make([]bool, len(t.rows)), probeWidth: -1}, nil
}

func (j *joiner) materialize(ctx context.Context) (t *table, err error) {
	ctx, span := observability.StartPhase(ctx, OperatorName, observability.PhaseJoinBuild)
	t = &table{groups: make(map[stream.Key][]entry)}
	defer func() { observability.EndPhase(span, len(t.rows), err) }()

	for {
		row, ok, err := j.build.Next(ctx)
		if err != nil {
			return t, err
		}
		if !ok {
			break
		}
		if len(t.rows) == 0 {
			t.width = len(row)
		}
		key := stream.KeyOf(row, j.buildKeys)
		if _, seen := t.groups[key]; !seen {
			t.order = append(t.order, key)
		}
		t.groups[key] = append(t.groups[key], entry{index: len(t.rows), row: row})
		t.rows = append(t.rows, row)
	}
	if rc := observability.RunContextFromContext(ctx); rc != nil {
		rc.Metrics.RecordMaterialized(ctx, OperatorName, observability.PhaseJoinBuild, int64(len(t.rows)))
	}
	j.opts.Logger.Debug("join side materialized", logger.Fields(
		logger.FieldOperator, OperatorName,
		logger.FieldRows, len(t.rows),
		"side", j.dec.Build.String(),
	))
	return t, nil
}

// orient puts a (probe, build) pair back into user order.
func (j *joiner) orient(probe, build stream.Row) (left, right stream.Row) {
	if j.dec.Swapped {
		return build, probe
	}
	return probe, build
}

// selfJoin pairs every row of each key group with every row of the same
// group, including itself. Groups come out in first-seen key order and are
// keyed by the right-hand key columns only.
func (j *joiner) selfJoin(t *table) stream.Stream {
	type pair struct{ outer, inner int }
	var pairs []pair
	for _, key := range t.order {
		group := t.groups[key]
		for _, o := range group {
			for _, i := range group {
				pairs = append(pairs, pair{outer: o.index, inner: i.index})
			}
		}
	}
	src := stream.FromSlice(pairs)
	return stream.FlatMap(src, func(ctx context.Context, p pair) ([]stream.Row, error) {
		out, ok, err := j.opts.Combine(ctx, t.rows[p.outer], t.rows[p.inner])
		if err != nil || !ok {
			return nil, err
		}
		return []stream.Row{out}, nil
	})
}

// probeIter streams the probe side against the table.
type probeIter struct {
	j          *joiner
	t          *table
	matched    []bool
	probeWidth int

	queue     []stream.Row
	probeDone bool
	tailDone  bool
}

func (it *probeIter) Next(ctx context.Context) (stream.Row, bool, error) {
	for {
		if len(it.queue) > 0 {
			row := it.queue[0]
			it.queue = it.queue[1:]
			return row, true, nil
		}
		if it.probeDone {
			if it.tailDone || !it.j.dec.BuildOuter {
				return nil, false, nil
			}
			it.tailDone = true
			if err := it.emitUnmatched(ctx); err != nil {
				return nil, false, err
			}
			continue
		}

		row, ok, err := it.j.probe.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			it.probeDone = true
			continue
		}
		if it.probeWidth < 0 {
			it.probeWidth = len(row)
		}
		if err := it.match(ctx, row); err != nil {
			return nil, false, err
		}
	}
}

func (it *probeIter) match(ctx context.Context, row stream.Row) error {
	group, hit := it.t.groups[stream.KeyOf(row, it.j.probeKeys)]
	if !hit {
		if it.j.dec.ProbeOuter {
			return it.emit(ctx, row, stream.Nulls(it.t.width, it.j.opts.Null))
		}
		return nil
	}
	for _, e := range group {
		it.matched[e.index] = true
		if err := it.emit(ctx, row, e.row); err != nil {
			return err
		}
	}
	return nil
}

func (it *probeIter) emitUnmatched(ctx context.Context) error {
	width := it.probeWidth
	if width < 0 {
		width = 0
	}
	nulls := stream.Nulls(width, it.j.opts.Null)
	for i, row := range it.t.rows {
		if it.matched[i] {
			continue
		}
		if err := it.emit(ctx, nulls, row); err != nil {
			return err
		}
	}
	return nil
}

func (it *probeIter) emit(ctx context.Context, probe, build stream.Row) error {
	left, right := it.j.orient(probe, build)
	out, ok, err := it.j.opts.Combine(ctx, left, right)
	if err != nil {
		return err
	}
	if ok {
		it.queue = append(it.queue, out)
	}
	return nil
}

func (it *probeIter) Close() error { return nil }
