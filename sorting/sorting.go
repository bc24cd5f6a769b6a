// Package sorting orders a row stream by a list of column keys.
package sorting

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/observability"
	"github.com/kbukum/tabletool/stream"
)

// OperatorName labels spans and errors raised by this package.
const OperatorName = "ts"

// Key is one sort level.
type Key struct {
	Column     int
	Descending bool
}

func (k Key) String() string {
	if k.Descending {
		return strconv.Itoa(k.Column) + ":r"
	}
	return strconv.Itoa(k.Column)
}

// ParseKey parses COL, COL:r or COLr.
func ParseKey(text string) (Key, error) {
	var k Key
	switch {
	case strings.HasSuffix(text, ":r"):
		k.Descending = true
		text = strings.TrimSuffix(text, ":r")
	case strings.HasSuffix(text, "r"):
		k.Descending = true
		text = strings.TrimSuffix(text, "r")
	}
	col, err := strconv.Atoi(text)
	if err != nil || col < 0 {
		return Key{}, errors.Configuration(OperatorName, fmt.Sprintf("bad sort key %q (expected COL, COL:r or COLr)", text))
	}
	k.Column = col
	return k, nil
}

// ParseKeys parses every key, stopping at the first error.
func ParseKeys(texts []string) ([]Key, error) {
	keys := make([]Key, 0, len(texts))
	for _, t := range texts {
		k, err := ParseKey(t)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Rows sorts rows in place: one stable pass per key, last key first, so the
// first key ends up most significant. Fields compare as strings.
func Rows(rows []stream.Row, keys []Key) {
	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		sort.SliceStable(rows, func(a, b int) bool {
			x, y := rows[a].Get(k.Column), rows[b].Get(k.Column)
			if k.Descending {
				return x > y
			}
			return x < y
		})
	}
}

// New returns src sorted by keys. Nothing is read until the first pull.
func New(src stream.Stream, keys []Key) stream.Stream {
	return stream.Lazy(func(ctx context.Context) (out stream.Stream, err error) {
		ctx, span := observability.StartPhase(ctx, OperatorName, observability.PhaseSort)
		var rows []stream.Row
		defer func() { observability.EndPhase(span, len(rows), err) }()

		for {
			row, ok, err := src.Next(ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			rows = append(rows, row)
		}
		Rows(rows, keys)
		if rc := observability.RunContextFromContext(ctx); rc != nil {
			rc.Metrics.RecordMaterialized(ctx, OperatorName, observability.PhaseSort, int64(len(rows)))
		}
		return stream.FromSlice(rows), nil
	}, src.Close)
}
