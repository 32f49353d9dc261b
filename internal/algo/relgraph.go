package algo

import (
	"context"
	"sort"

	"github.com/knotql/knotql/internal/sampling"
	"github.com/knotql/knotql/internal/store"
	"github.com/knotql/knotql/internal/value"
)

// relEdge is one probabilistic edge materialized from an input relation's
// (from, to, probability) rows.
type relEdge struct {
	From, To    value.Value
	Probability float64
}

// relGraph is an adjacency-list view over relation keys rather than a
// dedicated node-ID type, so the same Dijkstra/DFS/Yen's-algorithm shapes
// can run directly against a CozoScript relation's rows.
type relGraph struct {
	out   map[string][]relEdge
	nodes map[string]value.Value
}

func newRelGraph() *relGraph {
	return &relGraph{out: make(map[string][]relEdge), nodes: make(map[string]value.Value)}
}

func keyString(v value.Value) string {
	if enc, err := v.Encode(); err == nil {
		return string(enc)
	}
	return v.String()
}

func (g *relGraph) addNode(v value.Value) {
	k := keyString(v)
	if _, ok := g.nodes[k]; !ok {
		g.nodes[k] = v
	}
}

func (g *relGraph) addEdge(from, to value.Value, prob float64) {
	g.addNode(from)
	g.addNode(to)
	fk := keyString(from)
	g.out[fk] = append(g.out[fk], relEdge{From: from, To: to, Probability: prob})
}

func (g *relGraph) outgoing(v value.Value) []relEdge {
	return g.out[keyString(v)]
}

func (g *relGraph) containsNode(v value.Value) bool {
	_, ok := g.nodes[keyString(v)]
	return ok
}

// clone deep-copies the adjacency lists so Yen's algorithm can remove edges
// from a scratch copy without disturbing the original graph.
func (g *relGraph) clone() *relGraph {
	out := newRelGraph()
	for k, v := range g.nodes {
		out.nodes[k] = v
	}
	for k, edges := range g.out {
		cp := make([]relEdge, len(edges))
		copy(cp, edges)
		out.out[k] = cp
	}
	return out
}

func (g *relGraph) removeEdge(from, to value.Value) {
	fk, tk := keyString(from), keyString(to)
	edges := g.out[fk]
	for i, e := range edges {
		if keyString(e.To) == tk {
			g.out[fk] = append(edges[:i], edges[i+1:]...)
			return
		}
	}
}

func (g *relGraph) edgeProbability(from, to value.Value) (float64, bool) {
	tk := keyString(to)
	for _, e := range g.outgoing(from) {
		if keyString(e.To) == tk {
			return e.Probability, true
		}
	}
	return 0, false
}

// Edges implements sampling.Graph so Monte Carlo reachability can sample
// possible worlds from a relGraph without the sampling package depending
// on it. Edges are listed by source key, so repeated calls return the same
// order and a sampled EdgeMask lines up with an earlier Edges() slice.
func (g *relGraph) Edges() []sampling.Edge {
	keys := make([]string, 0, len(g.out))
	for k := range g.out {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []sampling.Edge
	for _, k := range keys {
		for _, e := range g.out[k] {
			out = append(out, sampling.Edge{From: e.From, To: e.To, Probability: e.Probability})
		}
	}
	return out
}

// buildRelGraph materializes a probabilistic edge relation (from, to,
// probability) into a relGraph, the shape the path and reachability
// algorithms expect as input.
func buildRelGraph(ctx context.Context, tx store.SessionTx, rel RelArg) (*relGraph, error) {
	it, err := rel.Iter(ctx, tx)
	if err != nil {
		return nil, err
	}
	g := newRelGraph()
	for it.Next() {
		tuple := it.Tuple()
		if len(tuple) < 3 {
			return nil, errBadInputShape("probabilistic edge relation", "expected (from, to, probability) rows")
		}
		prob, ok := tuple[2].AsFloat()
		if !ok {
			if i, isInt := tuple[2].AsInt(); isInt {
				prob = float64(i)
			} else {
				return nil, errBadInputShape("probabilistic edge relation", "third column must be a probability")
			}
		}
		g.addEdge(tuple[0], tuple[1], prob)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return g, nil
}
