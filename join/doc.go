// Package join implements the hash equi-join of two row streams.
//
// One side is materialized into a hash table keyed by its join columns and
// the other side is streamed against it. Which side is hashed is decided
// once, up front, by the pure Plan function: the left stream is hashed only
// when its byte size is known and smaller than the right stream's. Output
// rows are always combined in (left, right) order whichever side was hashed.
//
// Left-outer and right-outer joins pad the missing side with the configured
// null string. When both inputs are the same stream instance the join is a
// self-join: the stream is read once and every key group is paired with
// itself.
package join
