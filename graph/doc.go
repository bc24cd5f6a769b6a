// Package graph holds the two operators that need the whole input as a
// graph before they can emit anything: Bucketize, which classifies the
// connected components of a bipartite id association, and Closure, which
// expands a parent/child relation into its transitive closure.
//
// Both walk their graphs with explicit work stacks, so deep chains and
// cycles do not grow the goroutine stack.
package graph
