package algo

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/knotql/knotql/internal/result"
	"github.com/knotql/knotql/internal/sampling"
	"github.com/knotql/knotql/internal/store"
	"github.com/knotql/knotql/internal/value"
)

// ReachabilityProbability computes the probability that end is reachable
// from start in a probabilistic relation: exact reachability via memoized
// probabilistic DFS (option "mode" absent or "exact"), or a Monte Carlo
// estimate over independently-sampled possible worlds (option "mode" =
// "monte_carlo", with "samples" and "seed" options). Output is a single
// row: either (probability) for exact mode, or (estimate, samples,
// variance, stderr, ci95_low, ci95_high) for monte_carlo mode.
type ReachabilityProbability struct{}

func (ReachabilityProbability) Name() string { return "reachability_probability" }
func (ReachabilityProbability) Arity() int   { return 1 }

func (a ReachabilityProbability) Run(ctx context.Context, tx store.SessionTx, rels []RelArg, opts map[string]value.Value, _ map[string]store.DerivedRelStore, out store.DerivedRelStore) error {
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

	mode := optString(opts, "mode", "exact")

	switch mode {
	case "exact":
		p, err := exactReachabilityProbability(g, start, end)
		if err != nil {
			return err
		}
		return out.Put(store.Tuple{value.Float(p)})
	case "monte_carlo":
		samples := optInt(opts, "samples", 1000)
		seed := optUint64(opts, "seed", 0)
		r, err := reachabilityProbabilityMonteCarlo(ctx, g, start, end, samples, seed)
		if err != nil {
			return err
		}
		return out.Put(store.Tuple{
			value.Float(r.Estimate), value.Int(int64(r.NumSamples)),
			value.Float(r.Variance), value.Float(r.StdErr),
			value.Float(r.CI95Low), value.Float(r.CI95High),
		})
	default:
		return errBadInputShape(a.Name(), `option "mode" must be "exact" or "monte_carlo"`)
	}
}

func exactReachabilityProbability(g *relGraph, start, end value.Value) (float64, error) {
	visited := map[string]bool{}
	memo := map[string]float64{}
	return dfsProbabilisticReachability(g, start, end, visited, memo)
}

func dfsProbabilisticReachability(g *relGraph, current, end value.Value, visited map[string]bool, memo map[string]float64) (float64, error) {
	curKey, endKey := keyString(current), keyString(end)
	if curKey == endKey {
		return 1.0, nil
	}
	if val, ok := memo[curKey]; ok {
		return val, nil
	}
	if visited[curKey] {
		return 0.0, nil
	}
	visited[curKey] = true
	defer delete(visited, curKey)

	edges := g.outgoing(current)
	if len(edges) == 0 {
		memo[curKey] = 0.0
		return 0.0, nil
	}

	failProb := 1.0
	for _, edge := range edges {
		childProb, err := dfsProbabilisticReachability(g, edge.To, end, visited, memo)
		if err != nil {
			return 0, err
		}
		failProb *= 1.0 - edge.Probability*childProb
	}

	result := 1.0 - failProb
	memo[curKey] = result
	return result, nil
}

func bfsDeterministicReachability(g *relGraph, start, end value.Value, edgeMask []bool, edges []sampling.Edge) bool {
	present := map[int]bool{}
	for i, ok := range edgeMask {
		if ok {
			present[i] = true
		}
	}
	adjacency := map[string][]sampling.Edge{}
	for i, e := range edges {
		if present[i] {
			k := keyString(e.From)
			adjacency[k] = append(adjacency[k], e)
		}
	}

	visited := map[string]bool{keyString(start): true}
	queue := []value.Value{start}
	endKey := keyString(end)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if keyString(current) == endKey {
			return true
		}
		for _, e := range adjacency[keyString(current)] {
			tk := keyString(e.To)
			if !visited[tk] {
				visited[tk] = true
				queue = append(queue, e.To)
			}
		}
	}
	return false
}

func reachabilityProbabilityMonteCarlo(ctx context.Context, g *relGraph, start, end value.Value, numSamples int, seed uint64) (result.SampleResult, error) {
	if numSamples <= 0 {
		return result.SampleResult{}, errBadInputShape("reachability_probability", `option "samples" must be greater than 0`)
	}

	edges := g.Edges()
	numWorkers := min(runtime.GOMAXPROCS(0), numSamples)

	type workerResult struct {
		successes, trials int
		err               error
	}

	results := make(chan workerResult, numWorkers)
	samplesPerWorker := numSamples / numWorkers
	remainder := numSamples % numWorkers

	for w := 0; w < numWorkers; w++ {
		trials := samplesPerWorker
		if w < remainder {
			trials++
		}
		go func(workerID, trials int) {
			rng := rand.New(rand.NewPCG(seed+uint64(workerID), (seed^0xda942042e4dd58b5)+uint64(workerID)))
			sampler := sampling.IndependentEdgeSampler{Rand: rng}
			successes := 0
			for i := 0; i < trials; i++ {
				if ctx.Err() != nil {
					results <- workerResult{err: ctx.Err()}
					return
				}
				world, err := sampler.Sample(g)
				if err != nil {
					results <- workerResult{err: err}
					return
				}
				if bfsDeterministicReachability(g, start, end, world.EdgeMask, edges) {
					successes++
				}
			}
			results <- workerResult{successes: successes, trials: trials}
		}(w, trials)
	}

	totalSuccesses, totalTrials := 0, 0
	for i := 0; i < numWorkers; i++ {
		r := <-results
		if r.err != nil {
			return result.SampleResult{}, r.err
		}
		totalSuccesses += r.successes
		totalTrials += r.trials
	}

	p := float64(totalSuccesses) / float64(totalTrials)
	variance := p * (1 - p)
	stderr := math.Sqrt(variance / float64(totalTrials))

	return result.SampleResult{
		Estimate:   p,
		NumSamples: numSamples,
		Variance:   variance,
		StdErr:     stderr,
		CI95Low:    p - sampling.CI95ZScore*stderr,
		CI95High:   p + sampling.CI95ZScore*stderr,
	}, nil
}
