// Package sampling draws random possible-worlds from a probabilistic edge
// relation: each edge is independently kept with probability equal to its
// weight, producing one deterministic graph per sample (used by Monte
// Carlo reachability estimation in internal/algo).
package sampling

import "github.com/knotql/knotql/internal/value"

// Edge is one probabilistic edge: a (from, to) pair weighted by the
// probability it is present in a sampled world.
type Edge struct {
	From, To    value.Value
	Probability float64
}

// Graph exposes the edges a WorldSampler draws from. internal/algo adapts
// its input relation to this interface rather than sampling depending on
// any algorithm-specific relation type.
type Graph interface {
	Edges() []Edge
}

// SampledWorld is one Monte Carlo draw: EdgeMask[i] reports whether
// Graph.Edges()[i] is present in this sampled world.
type SampledWorld struct {
	EdgeMask []bool
}

type WorldSampler interface {
	Sample(g Graph) (*SampledWorld, error)
}
