// Package accumulator implements the per-partition reducers behind
// aggregation.
//
// Every reducer is one of five kinds (Count, Concatenate, First, Last,
// Statistics) behind the Accumulator interface. Aggregation specifiers of
// the form func[:col[:arg]] are parsed into Specs, and a Plan turns a list
// of Specs into fresh Groups of accumulators, one Group per partition.
// Statistics specifiers on the same column share one accumulator.
package accumulator
