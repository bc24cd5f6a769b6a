package aggregate

import (
	"context"

	"github.com/kbukum/tabletool/accumulator"
	"github.com/kbukum/tabletool/observability"
	"github.com/kbukum/tabletool/stream"
)

// OperatorName labels spans and errors raised by this package.
const OperatorName = "ta"

// Options configures a group-by.
type Options struct {
	GroupBy   []int
	Specs     []accumulator.Spec
	Streaming bool
}

// New returns the aggregated stream over src. The plan is validated here so
// that configuration errors surface before any row is read.
func New(src stream.Stream, opts Options) (stream.Stream, error) {
	plan, err := accumulator.NewPlan(opts.Specs)
	if err != nil {
		return nil, err
	}
	if opts.Streaming {
		return &streamingIter{src: src, groupBy: opts.GroupBy, plan: plan}, nil
	}
	return stream.Lazy(func(ctx context.Context) (stream.Stream, error) {
		return buffer(ctx, src, opts.GroupBy, plan)
	}, src.Close), nil
}

type partition struct {
	key   stream.Row
	group *accumulator.Group
}

// buffer consumes src completely and returns the flushed partitions.
func buffer(ctx context.Context, src stream.Stream, groupBy []int, plan *accumulator.Plan) (out stream.Stream, err error) {
	ctx, span := observability.StartPhase(ctx, OperatorName, observability.PhaseAggregateFlush)
	var rows []stream.Row
	defer func() { observability.EndPhase(span, len(rows), err) }()

	index := make(map[stream.Key]int)
	var parts []partition
	for {
		row, ok, err := src.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		key := stream.KeyOf(row, groupBy)
		i, seen := index[key]
		if !seen {
			i = len(parts)
			index[key] = i
			parts = append(parts, partition{key: row.Project(groupBy), group: plan.NewGroup()})
		}
		if err := parts[i].group.Observe(row); err != nil {
			return nil, err
		}
	}

	rows = make([]stream.Row, len(parts))
	for i, p := range parts {
		rows[i] = flush(p)
	}
	if rc := observability.RunContextFromContext(ctx); rc != nil {
		rc.Metrics.RecordMaterialized(ctx, OperatorName, observability.PhaseAggregateFlush, int64(len(parts)))
	}
	return stream.FromSlice(rows), nil
}

func flush(p partition) stream.Row {
	return stream.ConcatRows(p.key, p.group.Results())
}

// streamingIter holds only the current partition.
type streamingIter struct {
	src     stream.Stream
	groupBy []int
	plan    *accumulator.Plan

	current *partition
	key     stream.Key
	done    bool
}

func (it *streamingIter) Next(ctx context.Context) (stream.Row, bool, error) {
	for !it.done {
		row, ok, err := it.src.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			it.done = true
			break
		}
		key := stream.KeyOf(row, it.groupBy)
		var out stream.Row
		if it.current != nil && key != it.key {
			out = flush(*it.current)
			it.current = nil
		}
		if it.current == nil {
			it.current = &partition{key: row.Project(it.groupBy), group: it.plan.NewGroup()}
			it.key = key
		}
		if err := it.current.group.Observe(row); err != nil {
			return nil, false, err
		}
		if out != nil {
			return out, true, nil
		}
	}
	if it.current != nil {
		out := flush(*it.current)
		it.current = nil
		return out, true, nil
	}
	return nil, false, nil
}

func (it *streamingIter) Close() error { return it.src.Close() }
