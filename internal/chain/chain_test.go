package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotql/knotql/internal/store"
)

// buildPersonKnowsCatalog builds a small fixture: a node table "Person"
// keyed by {id} and an edge table "Knows" keyed by {_src_id,_dst_id}.
func buildPersonKnowsCatalog(t *testing.T) *store.MemCatalog {
	t.Helper()
	c := store.NewMemCatalog()
	require.NoError(t, c.CreateTable(store.TableInfo{
		Name: "Person", KeyArity: 1, Columns: []string{"id", "name"},
	}, nil))
	require.NoError(t, c.CreateTable(store.TableInfo{
		Name: "Knows", KeyArity: 2, Columns: []string{"_src_id", "_dst_id", "since"},
	}, nil))
	return c
}

func findPredicates(t *testing.T, p *Plan) []Predicate {
	t.Helper()
	require.Equal(t, PlanWhereFilter, p.Kind)
	return p.Predicates
}

// TestForwardChainJoinsOnSrcDst checks that a forward edge joins
// node.id = edge._src_id and edge._dst_id = node.id.
func TestForwardChainJoinsOnSrcDst(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	plan, err := PlanChain(catalog, "(a:Person)-[:Knows]->(b:Person)")
	require.NoError(t, err)

	preds := findPredicates(t, plan)
	require.Len(t, preds, 2)
	assert.Equal(t, Inner, plan.Join)
	assert.Equal(t, Predicate{LeftBinding: "a", LeftCol: "id", RightBinding: "", RightCol: "_src_id"}, withEdgeBinding(preds[0]))
	assert.Equal(t, Predicate{LeftBinding: "", LeftCol: "_dst_id", RightBinding: "b", RightCol: "id"}, withNodeBinding(preds[1]))
}

// withEdgeBinding/withNodeBinding blank out the synthesized edge binding
// so assertions don't need to know its exact anonymous name.
func withEdgeBinding(p Predicate) Predicate {
	p.RightBinding = ""
	return p
}
func withNodeBinding(p Predicate) Predicate {
	p.LeftBinding = ""
	return p
}

// TestBackwardChainSwapsPrefixes checks that a backward edge swaps which
// side gets _src_id vs _dst_id relative to the forward case.
func TestBackwardChainSwapsPrefixes(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	plan, err := PlanChain(catalog, "(a:Person)<-[:Knows]-(b:Person)")
	require.NoError(t, err)

	preds := findPredicates(t, plan)
	require.Len(t, preds, 2)
	assert.Equal(t, "_dst_id", preds[0].RightCol)
	assert.Equal(t, "a", preds[0].LeftBinding)
	assert.Equal(t, "_src_id", preds[1].LeftCol)
	assert.Equal(t, "b", preds[1].RightBinding)
}

// TestDualOuterChainIsRejected checks that marking both sides of an edge
// outer at once is rejected rather than silently resolved.
func TestDualOuterChainIsRejected(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	_, err := PlanChain(catalog, "(a:Person)?-[:Knows]->?(b:Person)")
	require.Error(t, err)
	chainErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, "NoFullOuterInChain", chainErr.Kind)
}

func TestLeftOuterYieldsRightJoin(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	plan, err := PlanChain(catalog, "(a:Person)?-[:Knows]->(b:Person)")
	require.NoError(t, err)
	assert.Equal(t, Right, plan.Join)
}

func TestRightOuterYieldsLeftJoin(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	plan, err := PlanChain(catalog, "(a:Person)-[:Knows]->?(b:Person)")
	require.NoError(t, err)
	assert.Equal(t, Left, plan.Join)
}

func TestUnknownTableIsRejected(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	_, err := PlanChain(catalog, "(a:Ghost)-[:Knows]->(b:Person)")
	require.Error(t, err)
	chainErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, "UnknownTable", chainErr.Kind)
}

func TestSchemaIncompleteIsRejected(t *testing.T) {
	catalog := store.NewMemCatalog()
	require.NoError(t, catalog.CreateTable(store.TableInfo{
		Name: "Person", KeyArity: 1, Columns: []string{"id"},
	}, nil))
	require.NoError(t, catalog.CreateTable(store.TableInfo{
		Name: "Knows", KeyArity: 0, Columns: []string{"weight"},
	}, nil))

	_, err := PlanChain(catalog, "(a:Person)-[:Knows]->(b:Person)")
	require.Error(t, err)
	chainErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, "SchemaIncomplete", chainErr.Kind)
}

func TestEmptyChainIsRejected(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	_, err := PlanChain(catalog, "   ")
	require.Error(t, err)
	chainErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, "NotEnoughArguments", chainErr.Kind)
}

func TestDuplicateBindingWithinChainIsRejected(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	_, err := PlanChain(catalog, "(a:Person)-[:Knows]->(a:Person)")
	require.Error(t, err)
	chainErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, "DuplicateBinding", chainErr.Kind)
}

func TestFromComposesDisjointChains(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	plan, err := PlanFrom(catalog, nil, []string{
		"(a:Person)-[:Knows]->(b:Person)",
		"(c:Person)-[:Knows]->(d:Person)",
	})
	require.NoError(t, err)
	assert.Equal(t, PlanCartesianJoin, plan.Kind)
	assert.Len(t, plan.Bindings(), 6) // a,b,c,d + two anonymous edge bindings
}

func TestFromRejectsOverlappingBindings(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	_, err := PlanFrom(catalog, nil, []string{
		"(a:Person)-[:Knows]->(b:Person)",
		"(a:Person)-[:Knows]->(c:Person)",
	})
	require.Error(t, err)
	chainErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, "DuplicateBinding", chainErr.Kind)
}

func TestFromRejectsNonNilUpstream(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	upstream := &Plan{Kind: PlanTableScan, Binding: "x", Table: "Person"}
	_, err := PlanFrom(catalog, upstream, []string{"(a:Person)-[:Knows]->(b:Person)"})
	require.Error(t, err)
	chainErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, "Unchainable", chainErr.Kind)
}

func TestBidiChainIsLeftOpen(t *testing.T) {
	catalog := buildPersonKnowsCatalog(t)
	_, err := PlanChain(catalog, "(a:Person)-[:Knows]-(b:Person)")
	require.Error(t, err)
	chainErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, "BidiJoinUnsupported", chainErr.Kind)
}
