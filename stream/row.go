package stream

import (
	"strconv"
	"strings"
)

// Row is an ordered sequence of string fields. Rows are never mutated once
// produced; operators build new rows.
type Row []string

// Get returns field i, or "" when the row is too short.
func (r Row) Get(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Clone returns a copy that shares no storage with r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Project returns the fields at cols, in cols order.
func (r Row) Project(cols []int) Row {
	out := make(Row, len(cols))
	for i, c := range cols {
		out[i] = r.Get(c)
	}
	return out
}

// ConcatRows returns a new row holding the fields of rows in order.
func ConcatRows(rows ...Row) Row {
	n := 0
	for _, r := range rows {
		n += len(r)
	}
	out := make(Row, 0, n)
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// Nulls returns a row of width n filled with null.
func Nulls(n int, null string) Row {
	out := make(Row, n)
	for i := range out {
		out[i] = null
	}
	return out
}

// Key is a comparable encoding of a key tuple. Two keys are equal exactly
// when their field sequences are equal; there is no coercion.
type Key string

// KeyOf extracts the key tuple at cols from row.
func KeyOf(row Row, cols []int) Key {
	var b strings.Builder
	for _, c := range cols {
		writeField(&b, row.Get(c))
	}
	return Key(b.String())
}

// MakeKey encodes fields as a Key.
func MakeKey(fields ...string) Key {
	var b strings.Builder
	for _, f := range fields {
		writeField(&b, f)
	}
	return Key(b.String())
}

func writeField(b *strings.Builder, f string) {
	b.WriteString(strconv.Itoa(len(f)))
	b.WriteByte(':')
	b.WriteString(f)
}
