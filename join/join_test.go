package join

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/stream"
)

func rows(lines ...string) []stream.Row {
	out := make([]stream.Row, len(lines))
	for i, l := range lines {
		out[i] = strings.Split(l, ",")
	}
	return out
}

// sizedStream reports a fixed byte size, as a file reader does.
type sizedStream struct {
	stream.Stream
	size int64
}

func (s *sizedStream) Size() int64 { return s.size }

func sized(lines []string, size int64) stream.Stream {
	return &sizedStream{Stream: stream.FromSlice(rows(lines...)), size: size}
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

var (
	people = []string{"1,ann", "2,bob", "2,bea", "4,dan"}
	pets   = []string{"cat,1", "dog,2", "emu,2", "yak,3"}
)

func TestPlan(t *testing.T) {
	small := SideInfo{Size: 10}
	big := SideInfo{Size: 100}
	unknown := SideInfo{Size: -1}

	tests := []struct {
		name        string
		left, right SideInfo
		swapped     bool
	}{
		{"both unknown", unknown, unknown, false},
		{"left smaller", small, big, true},
		{"right smaller", big, small, false},
		{"left known right unknown", small, unknown, true},
		{"left unknown right known", unknown, small, false},
		{"equal sizes", small, small, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Plan(tc.left, tc.right, true, false)
			assert.Equal(t, tc.swapped, d.Swapped)
			if tc.swapped {
				assert.Equal(t, Left, d.Build)
				assert.True(t, d.BuildOuter, "left outer follows the hashed left side")
				assert.False(t, d.ProbeOuter)
			} else {
				assert.Equal(t, Right, d.Build)
				assert.True(t, d.ProbeOuter)
				assert.False(t, d.BuildOuter)
			}
		})
	}

	id := new(int)
	self := Plan(SideInfo{Size: 5, Identity: id}, SideInfo{Size: 5, Identity: id}, true, true)
	assert.True(t, self.Self)
	assert.False(t, self.BuildOuter || self.ProbeOuter)
}

func TestInnerJoinCounts(t *testing.T) {
	for _, swap := range []bool{false, true} {
		leftSize, rightSize := int64(-1), int64(-1)
		if swap {
			leftSize = 1
		}
		out, err := New(sized(people, leftSize), sized(pets, rightSize), Options{LeftKeys: []int{0}, RightKeys: []int{1}})
		require.NoError(t, err)
		got := collect(t, out)
		// key 1: 1x1, key 2: 2x2
		assert.Len(t, got, 5, "swap=%v", swap)
		assert.ElementsMatch(t, []string{
			"1,ann,cat,1",
			"2,bob,dog,2", "2,bob,emu,2",
			"2,bea,dog,2", "2,bea,emu,2",
		}, got, "swap=%v", swap)
	}
}

func TestOuterJoins(t *testing.T) {
	for _, swap := range []bool{false, true} {
		leftSize := int64(-1)
		if swap {
			leftSize = 1
		}
		out, err := New(sized(people, leftSize), sized(pets, -1), Options{
			LeftKeys: []int{0}, RightKeys: []int{1},
			LeftOuter: true, RightOuter: true, Null: "NULL",
		})
		require.NoError(t, err)
		got := collect(t, out)
		assert.Len(t, got, 7, "swap=%v", swap)
		assert.Contains(t, got, "4,dan,NULL,NULL")
		assert.Contains(t, got, "NULL,NULL,yak,3")
	}
}

func TestLeftOuterOnly(t *testing.T) {
	out, err := New(sized(people, -1), sized(pets, -1), Options{LeftKeys: []int{0}, RightKeys: []int{1}, LeftOuter: true})
	require.NoError(t, err)
	got := collect(t, out)
	assert.Equal(t, []string{
		"1,ann,cat,1",
		"2,bob,dog,2", "2,bob,emu,2",
		"2,bea,dog,2", "2,bea,emu,2",
		"4,dan,,",
	}, got)
}

func TestRightOuterUnmatchedInOriginalOrder(t *testing.T) {
	right := []string{"x,9", "cat,1", "y,8", "z,7"}
	out, err := New(sized(people, -1), sized(right, -1), Options{LeftKeys: []int{0}, RightKeys: []int{1}, RightOuter: true})
	require.NoError(t, err)
	got := collect(t, out)
	assert.Equal(t, []string{"1,ann,cat,1", ",,x,9", ",,y,8", ",,z,7"}, got)
}

func TestOuterPaddingForEmptySide(t *testing.T) {
	out, err := New(sized(people, -1), stream.Empty[stream.Row](), Options{LeftKeys: []int{0}, RightKeys: []int{0}, LeftOuter: true})
	require.NoError(t, err)
	got := collect(t, out)
	assert.Equal(t, []string{"1,ann", "2,bob", "2,bea", "4,dan"}, got, "an empty side pads with zero fields")
}

func TestSelfJoin(t *testing.T) {
	s := stream.FromSlice(rows("k,a", "k,b", "k,c"))
	out, err := New(s, s, Options{LeftKeys: []int{0}, RightKeys: []int{0}, LeftOuter: true, RightOuter: true})
	require.NoError(t, err)
	got := collect(t, out)
	require.Len(t, got, 9)
	for _, v := range []string{"a", "b", "c"} {
		assert.Contains(t, got, "k,"+v+",k,"+v)
	}
}

func TestCombinerSeesUserOrderAndFilters(t *testing.T) {
	combine := func(_ context.Context, l, r stream.Row) (stream.Row, bool, error) {
		if l.Get(1) == "bea" {
			return nil, false, nil
		}
		return stream.Row{l.Get(1), r.Get(0)}, true, nil
	}
	for _, leftSize := range []int64{-1, 1} {
		out, err := New(sized(people, leftSize), sized(pets, 1000), Options{
			LeftKeys: []int{0}, RightKeys: []int{1}, Combine: combine,
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"ann,cat", "bob,dog", "bob,emu"}, collect(t, out))
	}
}

func TestMismatchedKeysFailEagerly(t *testing.T) {
	pulled := false
	src := stream.FromFunc(func(context.Context) (stream.Row, bool, error) {
		pulled = true
		return nil, false, nil
	}, nil)
	_, err := New(src, stream.Empty[stream.Row](), Options{LeftKeys: []int{0, 1}, RightKeys: []int{0}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
	assert.False(t, pulled)
}

func TestNoKeysIsCrossProduct(t *testing.T) {
	out, err := New(sized([]string{"a", "b"}, -1), sized([]string{"1", "2", "3"}, -1), Options{})
	require.NoError(t, err)
	assert.Len(t, collect(t, out), 6)
}
