package algo

import (
	"context"

	"github.com/knotql/knotql/internal/result"
	"github.com/knotql/knotql/internal/store"
	"github.com/knotql/knotql/internal/value"
)

// TopKProbabilityPaths is Yen's K-shortest-paths algorithm layered on
// MaxProbabilityPath and run over relGraph. Option "k" (default 1) bounds
// how many paths to emit; each path's rows carry its rank in the "rank"
// (4th) column.
type TopKProbabilityPaths struct{}

func (TopKProbabilityPaths) Name() string { return "top_k_probability_paths" }
func (TopKProbabilityPaths) Arity() int   { return 4 }

func (a TopKProbabilityPaths) Run(ctx context.Context, tx store.SessionTx, rels []RelArg, opts map[string]value.Value, _ map[string]store.DerivedRelStore, out store.DerivedRelStore) error {
	if len(rels) != 1 {
		return errWrongArity(a.Name(), 1, len(rels))
	}
	start, end, err := startEndOpts(opts)
	if err != nil {
		return err
	}
	k := optInt(opts, "k", 1)
	if k <= 0 {
		return errBadInputShape(a.Name(), `option "k" must be greater than 0`)
	}
	g, err := buildRelGraph(ctx, tx, rels[0])
	if err != nil {
		return err
	}
	paths, err := topKMaxProbabilityPaths(g, start, end, k)
	if err != nil {
		return err
	}
	for rank, p := range paths {
		for i, key := range p.Keys {
			row := store.Tuple{value.Int(int64(i)), key, value.Float(p.Probability), value.Int(int64(rank))}
			if err := out.Put(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func equalKeyPrefix(a, b []value.Value) bool {
	if len(a) < len(b) {
		return false
	}
	for i := range b {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func pathProbability(g *relGraph, keys []value.Value) float64 {
	prob := 1.0
	for i := 0; i < len(keys)-1; i++ {
		p, ok := g.edgeProbability(keys[i], keys[i+1])
		if !ok {
			return 0
		}
		prob *= p
	}
	return prob
}

func topKMaxProbabilityPaths(g *relGraph, start, end value.Value, k int) ([]result.Path, error) {
	firstPath, err := maxProbabilityPath(g, start, end)
	if err != nil {
		return nil, err
	}
	if len(firstPath.Keys) == 0 {
		return nil, nil
	}

	results := []result.Path{firstPath}
	var candidates []result.Path

	for i := 1; i < k; i++ {
		prevPath := results[i-1]

		for spurIdx := 0; spurIdx < len(prevPath.Keys)-1; spurIdx++ {
			spurNode := prevPath.Keys[spurIdx]
			rootPathKeys := prevPath.Keys[:spurIdx+1]

			gClone := g.clone()
			for _, p := range results {
				if len(p.Keys) > spurIdx && equalKeyPrefix(p.Keys, rootPathKeys) {
					gClone.removeEdge(p.Keys[spurIdx], p.Keys[spurIdx+1])
				}
			}

			spurPath, err := maxProbabilityPath(gClone, spurNode, end)
			if err != nil || len(spurPath.Keys) == 0 {
				continue
			}

			fullKeys := append(append([]value.Value{}, rootPathKeys[:len(rootPathKeys)-1]...), spurPath.Keys...)
			fullProb := pathProbability(g, fullKeys)

			isDuplicate := false
			for _, c := range candidates {
				if len(c.Keys) == len(fullKeys) && equalKeyPrefix(c.Keys, fullKeys) {
					isDuplicate = true
					break
				}
			}
			if !isDuplicate {
				candidates = append(candidates, result.Path{Keys: fullKeys, Probability: fullProb})
			}
		}

		if len(candidates) == 0 {
			break
		}

		bestIdx := 0
		for j := 1; j < len(candidates); j++ {
			if candidates[j].Probability > candidates[bestIdx].Probability {
				bestIdx = j
			}
		}
		results = append(results, candidates[bestIdx])
		candidates = append(candidates[:bestIdx], candidates[bestIdx+1:]...)
	}

	return results, nil
}
