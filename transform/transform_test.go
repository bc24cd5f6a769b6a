package transform

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/expr"
	"github.com/kbukum/tabletool/stream"
)

func rows(lines ...string) []stream.Row {
	out := make([]stream.Row, len(lines))
	for i, l := range lines {
		out[i] = strings.Split(l, "\t")
	}
	return out
}

func collect(t *testing.T, s stream.Stream) []string {
	t.Helper()
	got, err := stream.Collect(context.Background(), s)
	require.NoError(t, err)
	out := make([]string, len(got))
	for i, r := range got {
		out[i] = strings.Join(r, "\t")
	}
	return out
}

func TestFilter(t *testing.T) {
	prog, err := expr.Compile([]string{"?num(IN[1]) > 1", "IN[0]"}, expr.Unary, expr.Options{Operator: "tf"})
	require.NoError(t, err)
	out := Filter(stream.FromSlice(rows("a\t1", "b\t2", "c\t3")), prog)
	assert.Equal(t, []string{"b", "c"}, collect(t, out))
}

func TestParseExpandSpec(t *testing.T) {
	tests := map[string]ExpandSpec{
		"2":     {Column: 2, Prefix: "[", Sep: ",", Suffix: "]"},
		"2:":    {Column: 2, Prefix: "[", Sep: ",", Suffix: "]"},
		"1:;":   {Column: 1, Sep: ";"},
		"1:()":  {Column: 1, Prefix: "(", Suffix: ")"},
		"0:{|}": {Column: 0, Prefix: "{", Sep: "|", Suffix: "}"},
	}
	for in, want := range tests {
		got, err := ParseExpandSpec(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"x", "-1", "1:abcd"} {
		_, err := ParseExpandSpec(bad)
		assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration), bad)
	}
}

func TestExpandParallel(t *testing.T) {
	a, _ := ParseExpandSpec("1")
	b, _ := ParseExpandSpec("2:;")
	out := Expand(stream.FromSlice(rows("id\t[x,y,z]\tp;q", "id2\t[]\tr")), []ExpandSpec{a, b})
	assert.Equal(t, []string{
		"id\tx\tp",
		"id\ty\tq",
		"id\tz\t",
		"id2\t\tr",
	}, collect(t, out))
}

func TestExpandRejectsUnframedValue(t *testing.T) {
	s, _ := ParseExpandSpec("0")
	_, err := stream.Collect(context.Background(), Expand(stream.FromSlice(rows("x,y")), []ExpandSpec{s}))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidData))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestPartitionRoutesRows(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "part.%s.tsv")
	out, err := Partition(stream.FromSlice(rows("a\t1", "b\t2", "a\t3")), PartitionOptions{Column: 0, Template: tmpl, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, collect(t, out))

	assert.Equal(t, []string{"a\t1", "a\t3"}, readLines(t, filepath.Join(dir, "part.a.tsv")))
	assert.Equal(t, []string{"b\t2"}, readLines(t, filepath.Join(dir, "part.b.tsv")))
}

func TestPartitionTee(t *testing.T) {
	dir := t.TempDir()
	out, err := Partition(stream.FromSlice(rows("a\t1", "b\t2")), PartitionOptions{
		Column: 0, Template: filepath.Join(dir, "%s"), Limit: -1, Tee: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a\t1", "b\t2"}, collect(t, out))
}

func TestPartitionLimit(t *testing.T) {
	dir := t.TempDir()
	out, err := Partition(stream.FromSlice(rows("a", "b", "c")), PartitionOptions{
		Column: 0, Template: filepath.Join(dir, "%s"), Limit: 2,
	})
	require.NoError(t, err)
	_, err = stream.Collect(context.Background(), out)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeResourceExhausted))
	app, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 2, app.Details["limit"])
}

func TestPartitionDashPassesDownstream(t *testing.T) {
	out, err := Partition(stream.FromSlice(rows("a\t1", "b\t2")), PartitionOptions{Column: -1, Template: "-", Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"a\t1", "b\t2"}, collect(t, out))

	tee, err := Partition(stream.FromSlice(rows("a\t1", "b\t2")), PartitionOptions{Column: -1, Template: "-", Tee: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a\t1", "b\t2"}, collect(t, tee), "tee must not emit a row twice")
}

func TestPartitionOptionErrors(t *testing.T) {
	for name, opts := range map[string]PartitionOptions{
		"no template":        {Column: 0},
		"placeholder no col": {Column: -1, Template: "x.%s"},
		"col no placeholder": {Column: 1, Template: "x"},
	} {
		_, err := Partition(stream.Empty[stream.Row](), opts)
		assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration), name)
	}
}
