// Package transform holds the row-at-a-time operators: Filter applies a
// compiled expression program, Expand unrolls list-valued columns and
// Partition routes rows to files named after a column value.
package transform
