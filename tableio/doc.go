// Package tableio reads and writes delimited flat-file tables.
//
// A table is a text file of newline-terminated rows whose fields are
// separated by a fixed string (TAB by default). There is no quoting: a
// field can never contain the separator. On read, blank lines and lines
// starting with the comment prefix are skipped, and the first row fixes the
// expected column count; rows that disagree are logged as DATA_SHAPE
// warnings and passed through unchanged.
package tableio
