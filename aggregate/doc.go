// Package aggregate groups a row stream by key columns and folds every
// partition through an accumulator plan.
//
// Buffered mode keeps one accumulator set per partition and flushes after
// the input is exhausted, in first-seen partition order. Streaming mode
// assumes the input is sorted by the grouping columns and flushes each
// partition when the key changes; unsorted input yields one row per run of
// equal keys.
//
// Each output row holds the partition's key values followed by one value
// per aggregation specifier.
package aggregate
