package graph

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/stream"
)

func table(lines ...string) stream.Stream {
	rows := make([]stream.Row, len(lines))
	for i, l := range lines {
		rows[i] = strings.Split(l, ",")
	}
	return stream.FromSlice(rows)
}

func collect(t *testing.T, s stream.Stream) []string {
	t.Helper()
	got, err := stream.Collect(context.Background(), s)
	require.NoError(t, err)
	out := make([]string, len(got))
	for i, r := range got {
		out[i] = strings.Join(r, ",")
	}
	return out
}

func TestLabel(t *testing.T) {
	tests := map[[2]int]string{
		{0, 1}: "0-1",
		{1, 0}: "1-0",
		{1, 1}: "1-1",
		{3, 1}: "n-1",
		{1, 2}: "1-n",
		{2, 5}: "n-m",
		{0, 0}: "0-0",
	}
	for in, want := range tests {
		assert.Equal(t, want, Label(in[0], in[1]), "Label(%d, %d)", in[0], in[1])
	}
}

func TestBucketizeOneToMany(t *testing.T) {
	out, err := Bucketize(table("A1,B1", "A1,B2"), BucketizeOptions{LeftKeys: []int{0}, RightKeys: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"1,1-2,1-n,A1,B1",
		"1,1-2,1-n,A1,B2",
	}, collect(t, out))
}

func TestBucketizeComponents(t *testing.T) {
	out, err := Bucketize(table(
		"a1,b1",
		"a2,b2",
		"a3,b2",
		"a4,",
		",b5",
		"a6,b6",
		"a6,b7",
		"a8,b6",
		"a8,b7",
		",",
	), BucketizeOptions{LeftKeys: []int{0}, RightKeys: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"1,1-1,1-1,a1,b1",
		"2,2-1,n-1,a2,b2",
		"2,2-1,n-1,a3,b2",
		"3,1-0,1-0,a4,",
		"4,0-1,0-1,,b5",
		"5,2-2,n-m,a6,b6",
		"5,2-2,n-m,a6,b7",
		"5,2-2,n-m,a8,b6",
		"5,2-2,n-m,a8,b7",
		"6,0-0,0-0,,",
	}, collect(t, out))
}

func TestBucketizeSidesAreDistinct(t *testing.T) {
	// The same value on both sides names two different nodes.
	out, err := Bucketize(table("x,x"), BucketizeOptions{LeftKeys: []int{0}, RightKeys: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"1,1-1,1-1,x,x"}, collect(t, out))
}

func TestBucketizeNullString(t *testing.T) {
	out, err := Bucketize(table("a,NULL", "a,"), BucketizeOptions{LeftKeys: []int{0}, RightKeys: []int{1}, Null: "NULL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1,1-1,1-1,a,NULL", "1,1-1,1-1,a,"}, collect(t, out), "empty is a real id once NULL is the sentinel")
}

func TestBucketizeMismatchedKeys(t *testing.T) {
	_, err := Bucketize(table(), BucketizeOptions{LeftKeys: []int{0, 1}, RightKeys: []int{2}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
}

func closureOf(t *testing.T, edges ...string) map[string][]string {
	t.Helper()
	got := collect(t, Closure(table(edges...), ClosureOptions{Parent: 0, Child: 1}))
	out := make(map[string][]string)
	for _, pair := range got {
		p := strings.SplitN(pair, ",", 2)
		out[p[0]] = append(out[p[0]], p[1])
	}
	return out
}

func TestClosureChain(t *testing.T) {
	got := closureOf(t, "1,2", "2,3")
	assert.Equal(t, map[string][]string{
		"1": {"1", "2", "3"},
		"2": {"2", "3"},
		"3": {"3"},
	}, got)
}

func TestClosureTwoCycle(t *testing.T) {
	got := closureOf(t, "1,2", "2,1")
	assert.Equal(t, []string{"1", "2"}, got["1"])
	assert.Equal(t, []string{"1", "2"}, got["2"])
}

func TestClosureLongCycleWithTail(t *testing.T) {
	got := closureOf(t, "a,b", "b,c", "c,a", "c,d", "e,a")
	for _, n := range []string{"a", "b", "c"} {
		assert.Equal(t, []string{"a", "b", "c", "d"}, got[n], n)
	}
	assert.Equal(t, []string{"d"}, got["d"])
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got["e"])
}

func TestClosureOutputOrder(t *testing.T) {
	got := collect(t, Closure(table("b,a", "c,b"), ClosureOptions{Parent: 0, Child: 1}))
	assert.Equal(t, []string{"b,b", "b,a", "a,a", "c,b", "c,a", "c,c"}, got)
}

func TestClosureDeepChain(t *testing.T) {
	const n = 200
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("%d,%d", i, i+1)
	}
	got := closureOf(t, lines...)
	assert.Len(t, got["0"], n+1)
	assert.Len(t, got[fmt.Sprint(n)], 1)

	total := 0
	for _, members := range got {
		total += len(members)
	}
	assert.Equal(t, (n+1)*(n+2)/2, total)
	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Len(t, keys, n+1)
}

func TestClosureManyDisjointEdges(t *testing.T) {
	const n = 40000
	g := &digraph{index: make(map[string]int)}
	for i := 0; i < n; i++ {
		g.edge(g.node(fmt.Sprintf("p%d", i)), g.node(fmt.Sprintf("c%d", i)))
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	reach := g.reachability()
	runtime.ReadMemStats(&after)

	total := 0
	for _, r := range reach {
		total += len(r)
	}
	assert.Equal(t, 3*n, total)
	assert.Equal(t, []int{0, 1}, reach[0])
	assert.Equal(t, []int{1}, reach[1])
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20),
		"reachability must grow with the closure size, not the node count squared")
}
