package result

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/knotql/knotql/internal/expr"
	"github.com/knotql/knotql/internal/value"
)

// Path is a sequence of relation keys connected by a probabilistic walk,
// together with the walk's overall probability (product of edge weights
// along it).
type Path struct {
	Keys        []value.Value
	Probability float64
}

// MarshalJSON renders Keys through expr.ToAST, since value.Value carries
// its variants in unexported fields and has no JSON encoding of its own.
func (p Path) MarshalJSON() ([]byte, error) {
	keys := make([]any, len(p.Keys))
	for i, k := range p.Keys {
		keys[i] = expr.ToAST(k)
	}
	return json.Marshal(struct {
		Keys        []any   `json:"keys"`
		Probability float64 `json:"probability"`
	}{Keys: keys, Probability: p.Probability})
}

type PathResult struct {
	Path Path
}

func (r PathResult) Kind() Kind {
	return PathResultKind
}

func (r PathResult) ProbabilityValue() float64 {
	return r.Path.Probability
}

func (r PathResult) String() string {
	return fmt.Sprintf("Path: %s\nProbability: %.6f", formatPath(r.Path.Keys), r.Path.Probability)
}

type PathsResult struct {
	Paths []Path
}

func (r PathsResult) Kind() Kind {
	return PathsResultKind
}

func (r PathsResult) String() string {
	if len(r.Paths) == 0 {
		return "No paths found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Paths (%d):", len(r.Paths))
	for i, p := range r.Paths {
		fmt.Fprintf(&b, "\n  %d. %s (%.6f)", i+1, formatPath(p.Keys), p.Probability)
	}
	return b.String()
}

func formatPath(keys []value.Value) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, " -> ")
}
