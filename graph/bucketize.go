package graph

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/observability"
	"github.com/kbukum/tabletool/stream"
)

// BucketizeName labels spans and errors raised by Bucketize.
const BucketizeName = "tb"

// BucketizeOptions configures Bucketize.
type BucketizeOptions struct {
	LeftKeys  []int
	RightKeys []int
	// Null marks an absent id. A key whose fields all equal Null is absent.
	Null string
}

type side uint8

const (
	sideA side = iota
	sideB
	sideNone
)

type node struct {
	side side
	cid  int
}

type bipartite struct {
	index map[side]map[stream.Key]int
	nodes []node
	adj   [][]int
}

func newBipartite() *bipartite {
	return &bipartite{index: map[side]map[stream.Key]int{
		sideA: make(map[stream.Key]int),
		sideB: make(map[stream.Key]int),
	}}
}

func (g *bipartite) add(s side, key stream.Key) int {
	if s != sideNone {
		if id, ok := g.index[s][key]; ok {
			return id
		}
	}
	id := len(g.nodes)
	g.nodes = append(g.nodes, node{side: s})
	g.adj = append(g.adj, nil)
	if s != sideNone {
		g.index[s][key] = id
	}
	return id
}

func (g *bipartite) link(a, b int) {
	for _, n := range g.adj[a] {
		if n == b {
			return
		}
	}
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
}

// component is a connected component with its side counts.
type component struct {
	na, nb int
}

func (c component) raw() string {
	return strconv.Itoa(c.na) + "-" + strconv.Itoa(c.nb)
}

// Label classifies side counts as 0, 1 or n. When both sides are n the
// second is reported as m.
func Label(na, nb int) string {
	a, b := cardinality(na), cardinality(nb)
	if a == "n" && b == "n" {
		b = "m"
	}
	return a + "-" + b
}

func cardinality(n int) string {
	switch n {
	case 0:
		return "0"
	case 1:
		return "1"
	default:
		return "n"
	}
}

// Bucketize treats each row as an edge between an A id (LeftKeys) and a B id
// (RightKeys) and prefixes every row with its component id, the raw
// "countA-countB" of the component and the classified bucket label.
func Bucketize(src stream.Stream, opts BucketizeOptions) (stream.Stream, error) {
	if len(opts.LeftKeys) != len(opts.RightKeys) {
		return nil, errors.Configuration(BucketizeName,
			fmt.Sprintf("same number of key columns must be given for both ids (%d != %d)",
				len(opts.LeftKeys), len(opts.RightKeys)))
	}
	return stream.Lazy(func(ctx context.Context) (stream.Stream, error) {
		return bucketize(ctx, src, opts)
	}, src.Close), nil
}

func absent(row stream.Row, cols []int, null string) bool {
	for _, c := range cols {
		if row.Get(c) != null {
			return false
		}
	}
	return true
}

type edgeRow struct {
	node int
	row  stream.Row
}

func bucketize(ctx context.Context, src stream.Stream, opts BucketizeOptions) (out stream.Stream, err error) {
	ctx, span := observability.StartPhase(ctx, BucketizeName, observability.PhaseGraphBuild)
	var rows []edgeRow
	defer func() { observability.EndPhase(span, len(rows), err) }()

	g := newBipartite()
	for {
		row, ok, err := src.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		a, b := -1, -1
		if !absent(row, opts.LeftKeys, opts.Null) {
			a = g.add(sideA, stream.KeyOf(row, opts.LeftKeys))
		}
		if !absent(row, opts.RightKeys, opts.Null) {
			b = g.add(sideB, stream.KeyOf(row, opts.RightKeys))
		}
		switch {
		case a >= 0 && b >= 0:
			g.link(a, b)
			rows = append(rows, edgeRow{node: a, row: row})
		case a >= 0:
			rows = append(rows, edgeRow{node: a, row: row})
		case b >= 0:
			rows = append(rows, edgeRow{node: b, row: row})
		default:
			rows = append(rows, edgeRow{node: g.add(sideNone, ""), row: row})
		}
	}

	comps := g.components()
	if rc := observability.RunContextFromContext(ctx); rc != nil {
		rc.Metrics.RecordMaterialized(ctx, BucketizeName, observability.PhaseGraphBuild, int64(len(rows)))
	}
	return stream.Map(stream.FromSlice(rows), func(_ context.Context, r edgeRow) (stream.Row, error) {
		cid := g.nodes[r.node].cid
		c := comps[cid-1]
		prefix := stream.Row{strconv.Itoa(cid), c.raw(), Label(c.na, c.nb)}
		return stream.ConcatRows(prefix, r.row), nil
	}), nil
}

// components assigns 1-based component ids in first-seen node order.
func (g *bipartite) components() []component {
	var comps []component
	var work []int
	for start := range g.nodes {
		if g.nodes[start].cid != 0 {
			continue
		}
		cid := len(comps) + 1
		var c component
		g.nodes[start].cid = cid
		work = append(work[:0], start)
		for len(work) > 0 {
			n := work[len(work)-1]
			work = work[:len(work)-1]
			switch g.nodes[n].side {
			case sideA:
				c.na++
			case sideB:
				c.nb++
			}
			for _, m := range g.adj[n] {
				if g.nodes[m].cid == 0 {
					g.nodes[m].cid = cid
					work = append(work, m)
				}
			}
		}
		comps = append(comps, c)
	}
	return comps
}
