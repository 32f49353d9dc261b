package chain

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/knotql/knotql/internal/store"
)

// PlanKind discriminates a Plan node's relational-algebra shape
// ("a relational-algebra plan node (RaBox) whose shape is
// one of the primitives {TableScan, CartesianJoin, WhereFilter, ...}").
type PlanKind int

const (
	PlanTableScan PlanKind = iota
	PlanCartesianJoin
	PlanWhereFilter
)

// Predicate is one synthesized equijoin condition: binding.col ==
// binding.col.
type Predicate struct {
	LeftBinding, LeftCol   string
	RightBinding, RightCol string
}

// Plan is a relational-algebra plan node. Only the fields relevant to
// Kind are populated.
type Plan struct {
	Kind PlanKind

	// PlanTableScan
	Binding string
	Table   string
	Assocs  []string

	// PlanCartesianJoin
	Left, Right *Plan

	// PlanWhereFilter
	Inner      *Plan
	Predicates []Predicate
	Join       JoinKind
}

// Bindings returns every binding introduced anywhere in this plan's
// subtree, used for the disjointness check in From-clause composition.
func (p *Plan) Bindings() map[string]bool {
	out := map[string]bool{}
	p.collectBindings(out)
	return out
}

func (p *Plan) collectBindings(out map[string]bool) {
	if p == nil {
		return
	}
	switch p.Kind {
	case PlanTableScan:
		out[p.Binding] = true
	case PlanCartesianJoin:
		p.Left.collectBindings(out)
		p.Right.collectBindings(out)
	case PlanWhereFilter:
		p.Inner.collectBindings(out)
	}
}

// PlanChain parses and plans one chain.
func PlanChain(catalog store.Catalog, src string) (*Plan, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errNotEnoughArguments("chain")
	}
	raw, err := parseChainSyntax(src)
	if err != nil {
		return nil, Error{Kind: "Grammar", Message: err.Error()}
	}
	c, err := convertChain(raw)
	if err != nil {
		return nil, err
	}
	return buildPlan(catalog, c)
}

func buildPlan(catalog store.Catalog, c Chain) (*Plan, error) {
	resolve := func(name string) (store.TableInfo, error) {
		info, err := catalog.GetTableInfo(name)
		if err != nil {
			return store.TableInfo{}, errUnknownTable(name)
		}
		return info, nil
	}

	first := c.Elements[0]
	if _, err := resolve(first.Target); err != nil {
		return nil, err
	}
	plan := &Plan{Kind: PlanTableScan, Binding: first.Binding, Table: first.Target, Assocs: first.Assocs}
	leftNode := first

	for i := 1; i < len(c.Elements); i += 2 {
		edgeEl := c.Elements[i]
		rightNode := c.Elements[i+1]

		edgeInfo, err := resolve(edgeEl.Target)
		if err != nil {
			return nil, err
		}
		leftInfo, err := resolve(leftNode.Target)
		if err != nil {
			return nil, err
		}
		rightInfo, err := resolve(rightNode.Target)
		if err != nil {
			return nil, err
		}

		if edgeEl.Dir == Bidi {
			return nil, errBidiUnsupported()
		}

		// step 4: node->edge prefix is _src_ on Fwd, _dst_ on
		// Bwd; edge->node swaps them.
		leftPrefix, rightPrefix := "_src_", "_dst_"
		if edgeEl.Dir == Bwd {
			leftPrefix, rightPrefix = "_dst_", "_src_"
		}

		var preds []Predicate
		for _, k := range nodeKeys(leftInfo) {
			col := leftPrefix + k
			if !hasColumn(edgeInfo, col) {
				return nil, errSchemaIncomplete(edgeEl.Target, col)
			}
			preds = append(preds, Predicate{
				LeftBinding: leftNode.Binding, LeftCol: k,
				RightBinding: edgeEl.Binding, RightCol: col,
			})
		}
		for _, k := range nodeKeys(rightInfo) {
			col := rightPrefix + k
			if !hasColumn(edgeInfo, col) {
				return nil, errSchemaIncomplete(edgeEl.Target, col)
			}
			preds = append(preds, Predicate{
				LeftBinding: edgeEl.Binding, LeftCol: col,
				RightBinding: rightNode.Binding, RightCol: k,
			})
		}

		edgeScan := &Plan{Kind: PlanTableScan, Binding: edgeEl.Binding, Table: edgeEl.Target, Assocs: edgeEl.Assocs}
		rightScan := &Plan{Kind: PlanTableScan, Binding: rightNode.Binding, Table: rightNode.Target, Assocs: rightNode.Assocs}

		joined := &Plan{
			Kind: PlanCartesianJoin,
			Left: &Plan{Kind: PlanCartesianJoin, Left: plan, Right: edgeScan},
			Right: rightScan,
		}
		plan = &Plan{Kind: PlanWhereFilter, Inner: joined, Predicates: preds, Join: edgeEl.Join}

		leftNode = rightNode
	}
	return plan, nil
}

func nodeKeys(info store.TableInfo) []string {
	if info.KeyArity > len(info.Columns) {
		return info.Columns
	}
	return info.Columns[:info.KeyArity]
}

func hasColumn(info store.TableInfo, name string) bool {
	for _, c := range info.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// PlanFrom composes a sequence of independently-planned chains into one
// plan, Cartesian-joining them with a binding-disjointness check between
// each new chain and the accumulator. upstream must be nil: the From
// operator is non-chainable.
//
// Each chain in the sequence has no shared mutable state with its
// siblings until the disjointness check, so we fan them out with an
// errgroup and then fold the results back together in source order so the
// duplicate-binding error always names the first offending pair. Wait
// returns the first planning error; the other chains are not cancelled and
// still run to completion.
func PlanFrom(catalog store.Catalog, upstream *Plan, chainSources []string) (*Plan, error) {
	if upstream != nil {
		return nil, errUnchainable("From")
	}
	if len(chainSources) == 0 {
		return nil, errNotEnoughArguments("From")
	}

	plans := make([]*Plan, len(chainSources))
	g, _ := errgroup.WithContext(context.Background())
	for i, src := range chainSources {
		i, src := i, src
		g.Go(func() error {
			p, err := PlanChain(catalog, src)
			if err != nil {
				return err
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var acc *Plan
	seen := map[string]bool{}
	for _, p := range plans {
		bindings := lo.Keys(p.Bindings())
		for _, b := range bindings {
			if seen[b] {
				return nil, errDuplicateBinding(b)
			}
		}
		for _, b := range bindings {
			seen[b] = true
		}
		if acc == nil {
			acc = p
		} else {
			acc = &Plan{Kind: PlanCartesianJoin, Left: acc, Right: p}
		}
	}
	return acc, nil
}
