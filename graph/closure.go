package graph

import (
	"context"
	"slices"

	"github.com/kbukum/tabletool/observability"
	"github.com/kbukum/tabletool/stream"
)

// ClosureName labels spans raised by Closure.
const ClosureName = "tc"

// ClosureOptions configures Closure.
type ClosureOptions struct {
	Parent int
	Child  int
}

// Closure reads parent/child edges and emits (ancestor, descendant) for
// every node and every node reachable from it, itself included. Nodes and
// their descendants come out in first-seen order.
func Closure(src stream.Stream, opts ClosureOptions) stream.Stream {
	return stream.Lazy(func(ctx context.Context) (stream.Stream, error) {
		return closure(ctx, src, opts)
	}, src.Close)
}

// digraph is a directed graph over string node names.
type digraph struct {
	index map[string]int
	names []string
	adj   [][]int
}

func (g *digraph) node(name string) int {
	if id, ok := g.index[name]; ok {
		return id
	}
	id := len(g.names)
	g.index[name] = id
	g.names = append(g.names, name)
	g.adj = append(g.adj, nil)
	return id
}

func (g *digraph) edge(p, c int) {
	for _, n := range g.adj[p] {
		if n == c {
			return
		}
	}
	g.adj[p] = append(g.adj[p], c)
}

func closure(ctx context.Context, src stream.Stream, opts ClosureOptions) (out stream.Stream, err error) {
	ctx, span := observability.StartPhase(ctx, ClosureName, observability.PhaseGraphBuild)
	edges := 0
	defer func() { observability.EndPhase(span, edges, err) }()

	g := &digraph{index: make(map[string]int)}
	for {
		row, ok, err := src.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		p := g.node(row.Get(opts.Parent))
		c := g.node(row.Get(opts.Child))
		g.edge(p, c)
		edges++
	}

	reach := g.reachability()
	node, next := 0, 0
	return stream.FromFunc(func(context.Context) (stream.Row, bool, error) {
		for node < len(g.names) {
			if next < len(reach[node]) {
				m := reach[node][next]
				next++
				return stream.Row{g.names[node], g.names[m]}, true, nil
			}
			node, next = node+1, 0
		}
		return nil, false, nil
	}, nil), nil
}

// reachability returns, per node, the ascending ids of the nodes reachable
// from it including itself. Strongly connected components are found with an
// iterative Tarjan pass; one list is computed per component and shared by
// its members, and a component is only finished after every component it
// reaches. Lists are merged with an epoch-stamped mark per node, so memory
// is the total closure size.
func (g *digraph) reachability() [][]int {
	n := len(g.names)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	comp := make([]int, n)
	for i := range index {
		index[i] = -1
	}
	mark := make([]int, n)
	var (
		stack   []int
		sets    [][]int
		counter int
		epoch   int
	)

	type frame struct{ v, next int }
	visit := func(v int) {
		index[v], low[v] = counter, counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
	}

	for root := 0; root < n; root++ {
		if index[root] >= 0 {
			continue
		}
		visit(root)
		work := []frame{{v: root}}
		for len(work) > 0 {
			f := &work[len(work)-1]
			if f.next < len(g.adj[f.v]) {
				w := g.adj[f.v][f.next]
				f.next++
				if index[w] < 0 {
					visit(w)
					work = append(work, frame{v: w})
				} else if onStack[w] {
					low[f.v] = min(low[f.v], index[w])
				}
				continue
			}

			v := f.v
			work = work[:len(work)-1]
			if len(work) > 0 {
				p := work[len(work)-1].v
				low[p] = min(low[p], low[v])
			}
			if low[v] != index[v] {
				continue
			}

			c := len(sets)
			epoch++
			var set []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp[w] = c
				mark[w] = epoch
				set = append(set, w)
				if w == v {
					break
				}
			}
			members := len(set)
			for _, m := range set[:members] {
				for _, w := range g.adj[m] {
					if comp[w] == c {
						continue
					}
					for _, x := range sets[comp[w]] {
						if mark[x] != epoch {
							mark[x] = epoch
							set = append(set, x)
						}
					}
				}
			}
			slices.Sort(set)
			sets = append(sets, set)
		}
	}

	reach := make([][]int, n)
	for v := range reach {
		reach[v] = sets[comp[v]]
	}
	return reach
}
