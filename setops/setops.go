// Package setops implements union, intersection and difference of two row
// streams by projected key. When no key columns are given the whole row is
// the key.
package setops

import (
	"context"
	"fmt"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/observability"
	"github.com/kbukum/tabletool/stream"
)

// Operator names, used for spans and errors.
const (
	UnionName        = "tu"
	IntersectionName = "ti"
	DifferenceName   = "td"
)

// Options selects the key columns of each input.
type Options struct {
	LeftKeys  []int
	RightKeys []int
}

func (o Options) validate(op string) error {
	if len(o.LeftKeys) != len(o.RightKeys) {
		return errors.Configuration(op,
			fmt.Sprintf("same number of key columns must be given for both tables (%d != %d)",
				len(o.LeftKeys), len(o.RightKeys)))
	}
	return nil
}

func keyOf(row stream.Row, cols []int) stream.Key {
	if len(cols) == 0 {
		return stream.MakeKey(row...)
	}
	return stream.KeyOf(row, cols)
}

// Union passes left through unchanged, then the right rows whose key was
// not seen on the left.
func Union(left, right stream.Stream, opts Options) (stream.Stream, error) {
	if err := opts.validate(UnionName); err != nil {
		return nil, err
	}
	seen := make(map[stream.Key]struct{})
	head := stream.Tap(left, func(_ context.Context, row stream.Row) error {
		seen[keyOf(row, opts.LeftKeys)] = struct{}{}
		return nil
	})
	tail := stream.Filter(right, func(_ context.Context, row stream.Row) (bool, error) {
		_, dup := seen[keyOf(row, opts.RightKeys)]
		return !dup, nil
	})
	// Concat does not pull the tail until head is exhausted.
	return stream.Concat(head, tail), nil
}

// Intersection emits the left rows whose key occurs on the right.
func Intersection(left, right stream.Stream, opts Options) (stream.Stream, error) {
	return membership(IntersectionName, left, right, opts, true)
}

// Difference emits the left rows whose key does not occur on the right.
func Difference(left, right stream.Stream, opts Options) (stream.Stream, error) {
	return membership(DifferenceName, left, right, opts, false)
}

func membership(op string, left, right stream.Stream, opts Options, keep bool) (stream.Stream, error) {
	if err := opts.validate(op); err != nil {
		return nil, err
	}
	closer := func() error {
		err := left.Close()
		if rerr := right.Close(); err == nil {
			err = rerr
		}
		return err
	}
	return stream.Lazy(func(ctx context.Context) (stream.Stream, error) {
		keys, err := collectKeys(ctx, op, right, opts.RightKeys)
		if err != nil {
			return nil, err
		}
		return stream.Filter(left, func(_ context.Context, row stream.Row) (bool, error) {
			_, hit := keys[keyOf(row, opts.LeftKeys)]
			return hit == keep, nil
		}), nil
	}, closer), nil
}

func collectKeys(ctx context.Context, op string, s stream.Stream, cols []int) (keys map[stream.Key]struct{}, err error) {
	ctx, span := observability.StartPhase(ctx, op, observability.PhaseSetBuild)
	rows := 0
	defer func() { observability.EndPhase(span, rows, err) }()

	keys = make(map[stream.Key]struct{})
	for {
		row, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		keys[keyOf(row, cols)] = struct{}{}
		rows++
	}
	if rc := observability.RunContextFromContext(ctx); rc != nil {
		rc.Metrics.RecordMaterialized(ctx, op, observability.PhaseSetBuild, int64(rows))
	}
	return keys, nil
}
