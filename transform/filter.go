package transform

import (
	"context"

	"github.com/kbukum/tabletool/stream"
)

// Evaluator maps one row to at most one output row.
type Evaluator interface {
	Eval(ctx context.Context, row stream.Row) (stream.Row, bool, error)
}

// Filter runs every row of src through ev and keeps the rows it produces.
func Filter(src stream.Stream, ev Evaluator) stream.Stream {
	return stream.FlatMap(src, func(ctx context.Context, row stream.Row) ([]stream.Row, error) {
		out, ok, err := ev.Eval(ctx, row)
		if err != nil || !ok {
			return nil, err
		}
		return []stream.Row{out}, nil
	})
}
