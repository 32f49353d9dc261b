// Package knotql wires the CozoScript front end, the chain/path planner,
// the algorithm registry, and the in-memory store into one facade type.
// knotql.Engine is a single entry point for a relational/Datalog engine:
// callers register tables, compile either a CozoScript program or a chain
// expression, and dispatch algorithms against registered tables. Chain
// plans are built and inspected (bindings, join shape) but not executed.
//
// Full rule evaluation (turning a cozoscript.Script into executed tuples)
// is out of this package's scope: the pull/materialize engine and the
// schema catalog are treated as external collaborators, and this module
// implements only the parsing, planning, and algorithm-execution slices of
// the pipeline. Engine exposes those slices directly rather than
// pretending to be a full query executor.
package knotql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/knotql/knotql/internal/algo"
	"github.com/knotql/knotql/internal/chain"
	"github.com/knotql/knotql/internal/cozoscript"
	"github.com/knotql/knotql/internal/expr"
	"github.com/knotql/knotql/internal/result"
	"github.com/knotql/knotql/internal/store"
	"github.com/knotql/knotql/internal/value"
)

// Re-exported types so callers of this package never need to import
// internal/* directly.
type (
	Script       = cozoscript.Script
	Plan         = chain.Plan
	Algorithm    = algo.Algorithm
	RelArg       = algo.RelArg
	TableInfo    = store.TableInfo
	Tuple        = store.Tuple
	Value        = value.Value
	DerivedStore = store.DerivedRelStore
	Result       = result.Result
	MultiResult  = result.MultiResult
)

// Engine is the module's single entry point: a Catalog of base tables, a
// registry of runnable algorithms, and the parser/planner pair that turns
// source text into an AST or a plan against that catalog.
type Engine struct {
	catalog  *store.MemCatalog
	registry *algo.Registry
}

// New returns an Engine with an empty catalog and every algorithm this
// module ships registered ("dispatch is by symbol resolved at
// plan time against a registry").
func New() *Engine {
	return &Engine{
		catalog:  store.NewMemCatalog(),
		registry: algo.NewDefaultRegistry(),
	}
}

// CreateTable registers a base table — a node or edge relation a chain
// can scan, or the probabilistic-edge relation an algorithm reads.
func (e *Engine) CreateTable(info TableInfo, rows []Tuple) error {
	return e.catalog.CreateTable(info, rows)
}

// ReplaceTable overwrites a table's rows, used to publish a rule's or an
// algorithm's output under a stable name for later chains to scan.
func (e *Engine) ReplaceTable(info TableInfo, rows []Tuple) error {
	return e.catalog.ReplaceTable(info, rows)
}

// TableInfo returns the registered shape of a base table.
func (e *Engine) TableInfo(name string) (TableInfo, error) {
	return e.catalog.GetTableInfo(name)
}

// ParseExpression parses a single expression in the symbolic Value
// surface.
func (e *Engine) ParseExpression(src string) (Value, error) {
	return expr.Parse(src)
}

// ParseScript parses a CozoScript program into its normalized AST.
func (e *Engine) ParseScript(src string) (Script, error) {
	return cozoscript.Parse(src)
}

// MarshalScriptJSON renders a parsed Script in its normalized AST JSON
// shape.
func MarshalScriptJSON(s Script) ([]byte, error) {
	return json.Marshal(s)
}

// jsonResult is the {kind, data} envelope MarshalResultJSON renders every
// Result variant into.
type jsonResult struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// MarshalResultJSON renders a Result into the {kind, data} envelope a
// front end dispatches on: "path", "paths", "probability", "sample",
// "boolean", or "multi" (whose data is itself a list of nested envelopes).
func MarshalResultJSON(r Result) ([]byte, error) {
	var jr jsonResult
	switch v := r.(type) {
	case result.PathResult:
		jr = jsonResult{Kind: "path", Data: v}
	case result.PathsResult:
		jr = jsonResult{Kind: "paths", Data: v}
	case result.ProbabilityResult:
		jr = jsonResult{Kind: "probability", Data: v}
	case result.SampleResult:
		jr = jsonResult{Kind: "sample", Data: v}
	case result.BooleanResult:
		jr = jsonResult{Kind: "boolean", Data: v}
	case result.MultiResult:
		items := make([]json.RawMessage, len(v.Results))
		for i, sub := range v.Results {
			b, err := MarshalResultJSON(sub)
			if err != nil {
				return nil, err
			}
			items[i] = b
		}
		jr = jsonResult{Kind: "multi", Data: items}
	default:
		jr = jsonResult{Kind: "unknown", Data: fmt.Sprintf("%v", r)}
	}
	return json.Marshal(jr)
}

// PlanChain parses and plans a single chain expression against this
// Engine's catalog.
func (e *Engine) PlanChain(src string) (*Plan, error) {
	return chain.PlanChain(e.catalog, src)
}

// PlanFrom composes a From clause — a sequence of chain expressions —
// into one plan.
func (e *Engine) PlanFrom(chainSources []string) (*Plan, error) {
	return chain.PlanFrom(e.catalog, nil, chainSources)
}

// FromTable builds a RelArg over a base table resolved through the
// Engine's catalog.
func FromTable(name string) RelArg { return algo.FromTable(name) }

// FromDerived builds a RelArg over a relation produced earlier in the
// same session (a rule's output, another algorithm's output).
func FromDerived(name string) RelArg { return algo.FromDerived(name) }

// RegisterAlgorithm adds a user-supplied algorithm to the registry,
// returning an error on a name collision.
func (e *Engine) RegisterAlgorithm(a Algorithm) error {
	return e.registry.Register(a)
}

// RunAlgorithm begins a scoped session, resolves the named algorithm,
// runs it against rels and opts, and returns the populated derived store.
// The session is released on every exit path, success or error.
func (e *Engine) RunAlgorithm(ctx context.Context, name string, rels []RelArg, opts map[string]Value) (DerivedStore, error) {
	a, ok := e.registry.Lookup(name)
	if !ok {
		return nil, algo.Error{Kind: "UnknownAlgorithm", Message: "no algorithm named " + name + " is registered"}
	}
	tx, release := store.BeginSession(ctx, e.catalog)
	defer release()

	out := tx.NewDerivedStore(name)
	if err := a.Run(ctx, tx, rels, opts, map[string]DerivedStore{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RunAlgorithmResult is RunAlgorithm followed by algo.BuildResult, for
// callers that want the typed Result surface (a path, a probability, a
// boolean) instead of raw tuple rows. Algorithms with no natural typed
// shape, such as DegreeCentrality, return an error whose Kind is
// "NoTypedResult"; callers should fall back to RunAlgorithm for those.
func (e *Engine) RunAlgorithmResult(ctx context.Context, name string, rels []RelArg, opts map[string]Value) (Result, error) {
	ds, err := e.RunAlgorithm(ctx, name, rels, opts)
	if err != nil {
		return nil, err
	}
	return algo.BuildResult(ctx, name, ds, opts)
}

// IsNoTypedResult reports whether err is RunAlgorithmResult's signal that
// the named algorithm has no typed Result shape, so the caller should fall
// back to RunAlgorithm's raw tuple rows instead of treating it as failure.
func IsNoTypedResult(err error) bool {
	var algoErr algo.Error
	return errors.As(err, &algoErr) && algoErr.Kind == "NoTypedResult"
}

// AlgorithmCall is one entry in a concurrent multi-algorithm batch run via
// RunAlgorithms.
type AlgorithmCall struct {
	Name string
	Rels []RelArg
	Opts map[string]Value
}

// RunAlgorithms runs a batch of algorithm calls concurrently, each against
// its own session, fanning them out with errgroup.WithContext for
// first-error cancellation — the same idiom chain.PlanFrom uses to plan a
// sequence of independent chains — then folds the typed results into one
// result.MultiResult in call order.
func (e *Engine) RunAlgorithms(ctx context.Context, calls []AlgorithmCall) (MultiResult, error) {
	results := make([]Result, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			r, err := e.RunAlgorithmResult(gctx, call.Name, call.Rels, call.Opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MultiResult{}, err
	}
	return MultiResult{Results: results}, nil
}
