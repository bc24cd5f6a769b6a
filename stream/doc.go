// Package stream defines the lazy, pull-based row streams every operator
// consumes and produces.
//
// An Iterator yields values one at a time through Next and is released with
// Close. Streams are single-owner and single-pass: pulling advances the
// position permanently and nothing rewinds. No work happens until a
// consumer pulls.
//
//	rows := stream.FromSlice([]stream.Row{{"a", "1"}, {"b", "2"}})
//	upper := stream.Map(rows, func(_ context.Context, r stream.Row) (stream.Row, error) {
//	    return stream.Row{strings.ToUpper(r.Get(0)), r.Get(1)}, nil
//	})
//	out, err := stream.Collect(ctx, upper)
package stream
