package algo

import (
	"context"
	"sort"

	"github.com/knotql/knotql/internal/result"
	"github.com/knotql/knotql/internal/store"
	"github.com/knotql/knotql/internal/value"
)

// BuildResult reads a completed algorithm run's output rows into the typed
// result.Result surface, using the output shape documented on each
// Algorithm type. Algorithms whose output is an open-ended table rather than a
// single path or probability (DegreeCentrality) have no natural Kind and
// return errNoTypedResult; callers fall back to the raw tuple rows.
//
// An opts entry "threshold" converts a probabilistic Result (a path, an
// exact probability, or a Monte Carlo estimate) into a result.BooleanResult
// via result.Threshold, mirroring a threshold query over that result.
func BuildResult(ctx context.Context, name string, ds store.DerivedRelStore, opts map[string]value.Value) (result.Result, error) {
	it, err := ds.Iter(ctx)
	if err != nil {
		return nil, err
	}

	switch name {
	case "max_probability_path":
		return buildPathResult(it, opts)
	case "top_k_probability_paths":
		return buildPathsResult(it)
	case "reachability_probability":
		return buildReachabilityResult(it, opts)
	default:
		return nil, errNoTypedResult(name)
	}
}

func withThreshold(pr result.ProbabilisticResult, opts map[string]value.Value) result.Result {
	t, ok := opts["threshold"]
	if !ok {
		return pr
	}
	f, _ := t.AsFloat()
	return result.Threshold(pr, f)
}

// buildPathResult reads MaxProbabilityPath's (seq, key, cumulative_probability)
// rows back into a single result.Path. An empty row set means no path was
// found, reported as a false result.BooleanResult rather than an empty path.
func buildPathResult(it store.RowIter, opts map[string]value.Value) (result.Result, error) {
	var keys []value.Value
	var prob float64
	for it.Next() {
		row := it.Tuple()
		keys = append(keys, row[1])
		prob, _ = row[2].AsFloat()
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return result.BooleanResult{Value: false}, nil
	}
	pr := result.PathResult{Path: result.Path{Keys: keys, Probability: prob}}
	return withThreshold(pr, opts), nil
}

// buildPathsResult reads TopKProbabilityPaths' (seq, key,
// cumulative_probability, rank) rows back into a rank-ordered
// result.PathsResult.
func buildPathsResult(it store.RowIter) (result.Result, error) {
	type accum struct {
		keys []value.Value
		prob float64
	}
	byRank := map[int64]*accum{}
	var ranks []int64
	for it.Next() {
		row := it.Tuple()
		rank, _ := row[3].AsInt()
		a, ok := byRank[rank]
		if !ok {
			a = &accum{}
			byRank[rank] = a
			ranks = append(ranks, rank)
		}
		a.keys = append(a.keys, row[1])
		a.prob, _ = row[2].AsFloat()
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })

	paths := make([]result.Path, len(ranks))
	for i, rank := range ranks {
		a := byRank[rank]
		paths[i] = result.Path{Keys: a.keys, Probability: a.prob}
	}
	return result.PathsResult{Paths: paths}, nil
}

// buildReachabilityResult reads ReachabilityProbability's single output
// row, distinguishing exact mode's one-column (probability) shape from
// monte_carlo mode's six-column (estimate, samples, variance, stderr,
// ci95_low, ci95_high) shape by column count.
func buildReachabilityResult(it store.RowIter, opts map[string]value.Value) (result.Result, error) {
	if !it.Next() {
		if err := it.Err(); err != nil {
			return nil, err
		}
		return nil, errBadInputShape("reachability_probability", "algorithm produced no output row")
	}
	row := it.Tuple()

	var pr result.ProbabilisticResult
	if len(row) == 1 {
		p, _ := row[0].AsFloat()
		pr = result.ProbabilityResult{Probability: p}
	} else {
		estimate, _ := row[0].AsFloat()
		numSamples, _ := row[1].AsInt()
		variance, _ := row[2].AsFloat()
		stdErr, _ := row[3].AsFloat()
		ci95Low, _ := row[4].AsFloat()
		ci95High, _ := row[5].AsFloat()
		pr = result.SampleResult{
			Estimate:   estimate,
			NumSamples: int(numSamples),
			Variance:   variance,
			StdErr:     stdErr,
			CI95Low:    ci95Low,
			CI95High:   ci95High,
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return withThreshold(pr, opts), nil
}
