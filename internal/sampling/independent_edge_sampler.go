package sampling

import "math/rand/v2"

// CI95ZScore is the z-score for a 95% confidence interval under a normal
// approximation, used to bound Monte Carlo reachability estimates.
const CI95ZScore = 1.96

type IndependentEdgeSampler struct {
	Rand *rand.Rand
}

func (s *IndependentEdgeSampler) Sample(g Graph) (*SampledWorld, error) {
	edges := g.Edges()
	mask := make([]bool, len(edges))
	for i, edge := range edges {
		mask[i] = s.Rand.Float64() <= edge.Probability
	}
	return &SampledWorld{EdgeMask: mask}, nil
}
