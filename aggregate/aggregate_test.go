package aggregate

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/tabletool/accumulator"
	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/stream"
)

func specs(t *testing.T, texts ...string) []accumulator.Spec {
	t.Helper()
	s, err := accumulator.ParseSpecs(texts)
	require.NoError(t, err)
	return s
}

func run(t *testing.T, rows []stream.Row, opts Options) []stream.Row {
	t.Helper()
	out, err := New(stream.FromSlice(rows), opts)
	require.NoError(t, err)
	got, err := stream.Collect(context.Background(), out)
	require.NoError(t, err)
	return got
}

func joined(rows []stream.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = strings.Join(r, "|")
	}
	return out
}

var sample = []stream.Row{
	{"1", "n", "2.0"},
	{"1", "y", "3.0"},
	{"2", "n", "4.0"},
}

func TestMeanByTwoColumns(t *testing.T) {
	got := run(t, sample, Options{GroupBy: []int{0, 1}, Specs: specs(t, "mean:2")})
	assert.Equal(t, []string{"1|n|2.0", "1|y|3.0", "2|n|4.0"}, joined(got))
}

func TestBufferedFirstSeenOrder(t *testing.T) {
	rows := []stream.Row{{"b", "1"}, {"a", "2"}, {"b", "3"}, {"c", "4"}, {"a", "5"}}
	got := run(t, rows, Options{GroupBy: []int{0}, Specs: specs(t, "count", "list:1", "sum:1")})
	assert.Equal(t, []string{"b|2|1,3|4.0", "a|2|2,5|7.0", "c|1|4|4.0"}, joined(got))
}

func TestBufferedMatchesStreamingOnSortedInput(t *testing.T) {
	rows := []stream.Row{
		{"a", "x", "1"}, {"a", "x", "4"}, {"a", "y", "2"},
		{"b", "x", "8"}, {"b", "x", "1"}, {"c", "z", "3"},
	}
	sp := specs(t, "count", "sum:2", "mean:2", "min:2", "max:2", "first:2", "last:2", "count:2")

	buffered := joined(run(t, rows, Options{GroupBy: []int{0, 1}, Specs: sp}))
	streaming := joined(run(t, rows, Options{GroupBy: []int{0, 1}, Specs: sp, Streaming: true}))
	sort.Strings(buffered)
	sort.Strings(streaming)
	assert.Equal(t, buffered, streaming)
	assert.Len(t, streaming, 4)
}

func TestStreamingUnsortedInputSplitsPartitions(t *testing.T) {
	rows := []stream.Row{{"a"}, {"b"}, {"a"}}
	got := run(t, rows, Options{GroupBy: []int{0}, Specs: specs(t, "count"), Streaming: true})
	assert.Equal(t, []string{"a|1", "b|1", "a|1"}, joined(got))
}

func TestNoGroupingColumns(t *testing.T) {
	for _, streaming := range []bool{false, true} {
		got := run(t, sample, Options{Specs: specs(t, "count", "sum:2"), Streaming: streaming})
		assert.Equal(t, []string{"3|9.0"}, joined(got), "streaming=%v", streaming)

		empty := run(t, nil, Options{Specs: specs(t, "count"), Streaming: streaming})
		assert.Empty(t, empty, "streaming=%v", streaming)
	}
}

func TestNonNumericInputFails(t *testing.T) {
	rows := []stream.Row{{"a", "1"}, {"a", "oops"}}
	for _, streaming := range []bool{false, true} {
		out, err := New(stream.FromSlice(rows), Options{GroupBy: []int{0}, Specs: specs(t, "sum:1"), Streaming: streaming})
		require.NoError(t, err)
		_, err = stream.Collect(context.Background(), out)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidData))
	}
}

func TestBufferedIsLazy(t *testing.T) {
	pulled := false
	src := stream.FromFunc(func(context.Context) (stream.Row, bool, error) {
		pulled = true
		return nil, false, nil
	}, nil)
	out, err := New(src, Options{Specs: specs(t, "count")})
	require.NoError(t, err)
	assert.False(t, pulled, "nothing is read until the first pull")
	_, err = stream.Collect(context.Background(), out)
	require.NoError(t, err)
	assert.True(t, pulled)
}

func TestInvalidPlanFailsEagerly(t *testing.T) {
	arg := "abcd"
	_, err := New(stream.Empty[stream.Row](), Options{Specs: []accumulator.Spec{
		{Func: "list", Kind: accumulator.KindConcatenate, Column: 0, Arg: &arg},
	}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
}
