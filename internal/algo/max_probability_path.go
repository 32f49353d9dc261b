package algo

import (
	"container/heap"
	"context"
	"math"

	"github.com/knotql/knotql/internal/result"
	"github.com/knotql/knotql/internal/store"
	"github.com/knotql/knotql/internal/value"
)

// MaxProbabilityPath finds the highest-probability path between two keys
// in a probabilistic relation, via a modified Dijkstra over
// -log(probability) edge weights — the shortest path under that weight is
// the highest-probability path. Input: one (from, to, probability)
// relation and "start"/"end" options. Output: a single row per path
// element, (seq, key, cumulative_probability).
type MaxProbabilityPath struct{}

func (MaxProbabilityPath) Name() string { return "max_probability_path" }
func (MaxProbabilityPath) Arity() int   { return 3 }

func (a MaxProbabilityPath) Run(ctx context.Context, tx store.SessionTx, rels []RelArg, opts map[string]value.Value, _ map[string]store.DerivedRelStore, out store.DerivedRelStore) error {
	if len(rels) != 1 {
		return errWrongArity(a.Name(), 1, len(rels))
	}
	start, end, err := startEndOpts(opts)
	if err != nil {
		return err
	}
	g, err := buildRelGraph(ctx, tx, rels[0])
	if err != nil {
		return err
	}
	path, err := maxProbabilityPath(g, start, end)
	if err != nil {
		return err
	}
	return writePath(out, path)
}

func startEndOpts(opts map[string]value.Value) (start, end value.Value, err error) {
	start, ok := opts["start"]
	if !ok {
		return value.Value{}, value.Value{}, errBadInputShape("max_probability_path", `missing required option "start"`)
	}
	end, ok = opts["end"]
	if !ok {
		return value.Value{}, value.Value{}, errBadInputShape("max_probability_path", `missing required option "end"`)
	}
	return start, end, nil
}

func writePath(out store.DerivedRelStore, path result.Path) error {
	for i, k := range path.Keys {
		if err := out.Put(store.Tuple{value.Int(int64(i)), k, value.Float(path.Probability)}); err != nil {
			return err
		}
	}
	return nil
}

type pqItem struct {
	key      value.Value
	priority float64
	index    int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].priority < pq[j].priority }
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// maxProbabilityPath runs Dijkstra over -log(p) weights (a probability
// product becomes a weight sum, so Dijkstra's shortest-path guarantee
// carries over unchanged).
func maxProbabilityPath(g *relGraph, start, end value.Value) (result.Path, error) {
	if !g.containsNode(start) {
		return result.Path{}, errBadInputShape("max_probability_path", "start node not present in input relation")
	}
	if !g.containsNode(end) {
		return result.Path{}, errBadInputShape("max_probability_path", "end node not present in input relation")
	}

	dist := map[string]float64{}
	prev := map[string]value.Value{}
	for k := range g.nodes {
		dist[k] = math.Inf(1)
	}
	startKey, endKey := keyString(start), keyString(end)
	dist[startKey] = 0

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{key: start, priority: 0})

	for pq.Len() > 0 {
		curr := heap.Pop(pq).(*pqItem)
		uKey := keyString(curr.key)
		if uKey == endKey {
			break
		}
		if curr.priority > dist[uKey] {
			continue
		}
		for _, edge := range g.outgoing(curr.key) {
			weight := -math.Log(edge.Probability)
			alt := dist[uKey] + weight
			toKey := keyString(edge.To)
			if alt < dist[toKey] {
				dist[toKey] = alt
				prev[toKey] = curr.key
				heap.Push(pq, &pqItem{key: edge.To, priority: alt})
			}
		}
	}

	if math.IsInf(dist[endKey], 1) {
		return result.Path{}, nil
	}

	var keys []value.Value
	for at, atKey := end, endKey; ; {
		keys = append(keys, at)
		if atKey == startKey {
			break
		}
		at = prev[atKey]
		atKey = keyString(at)
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}

	return result.Path{Keys: keys, Probability: math.Exp(-dist[endKey])}, nil
}
