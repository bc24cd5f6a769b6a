package sorting

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/stream"
)

func TestParseKey(t *testing.T) {
	tests := map[string]Key{
		"3":   {Column: 3},
		"3:r": {Column: 3, Descending: true},
		"12r": {Column: 12, Descending: true},
		"0":   {Column: 0},
	}
	for in, want := range tests {
		got, err := ParseKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "r", "x", "-1", "1:x"} {
		_, err := ParseKey(bad)
		assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration), bad)
	}
}

func TestSortStable(t *testing.T) {
	rows := []stream.Row{{"b", "1"}, {"a", "2"}, {"b", "3"}, {"a", "4"}}
	got, err := stream.Collect(context.Background(), New(stream.FromSlice(rows), []Key{{Column: 0}}))
	require.NoError(t, err)
	assert.Equal(t, []stream.Row{{"a", "2"}, {"a", "4"}, {"b", "1"}, {"b", "3"}}, got)
}

func TestSortDescendingStable(t *testing.T) {
	rows := []stream.Row{{"a", "1"}, {"b", "2"}, {"a", "3"}}
	Rows(rows, []Key{{Column: 0, Descending: true}})
	assert.Equal(t, []stream.Row{{"b", "2"}, {"a", "1"}, {"a", "3"}}, rows)
}

func TestSortIsLexicographic(t *testing.T) {
	rows := []stream.Row{{"10"}, {"9"}, {"100"}}
	Rows(rows, []Key{{Column: 0}})
	assert.Equal(t, []stream.Row{{"10"}, {"100"}, {"9"}}, rows)
}

// Repeated stable passes agree with one pass over a combined comparator.
func TestMultiKeyMatchesCombinedComparator(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	letters := []string{"a", "b", "c"}
	rows := make([]stream.Row, 200)
	for i := range rows {
		rows[i] = stream.Row{letters[r.Intn(3)], letters[r.Intn(3)], letters[r.Intn(3)], string(rune('A' + i%26))}
	}
	keys := []Key{{Column: 1}, {Column: 0, Descending: true}, {Column: 2}}

	want := make([]stream.Row, len(rows))
	copy(want, rows)
	sort.SliceStable(want, func(a, b int) bool {
		for _, k := range keys {
			x, y := want[a][k.Column], want[b][k.Column]
			if x == y {
				continue
			}
			if k.Descending {
				return x > y
			}
			return x < y
		}
		return false
	})

	got := make([]stream.Row, len(rows))
	copy(got, rows)
	Rows(got, keys)
	assert.Equal(t, join(want), join(got))
}

func join(rows []stream.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = strings.Join(r, "|")
	}
	return out
}
