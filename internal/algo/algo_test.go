package algo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotql/knotql/internal/store"
	"github.com/knotql/knotql/internal/value"
)

// buildEdgeCatalog is a small t.Helper() fixture shared by this package's
// tests.
func buildEdgeCatalog(t *testing.T) *store.MemCatalog {
	t.Helper()
	c := store.NewMemCatalog()
	info := store.TableInfo{Name: "edges", KeyArity: 2, Columns: []string{"from", "to"}}
	rows := []store.Tuple{
		{value.Text("a"), value.Text("b")},
		{value.Text("b"), value.Text("c")},
		{value.Text("a"), value.Text("c")},
	}
	require.NoError(t, c.CreateTable(info, rows))
	return c
}

// TestDegreeCentralityEmitsKeyOrderedCounts runs the worked degree
// centrality example end to end.
func TestDegreeCentralityEmitsKeyOrderedCounts(t *testing.T) {
	catalog := buildEdgeCatalog(t)
	tx, release := store.BeginSession(context.Background(), catalog)
	defer release()

	out := tx.NewDerivedStore("centrality")
	algo := DegreeCentrality{}
	require.NoError(t, algo.Run(context.Background(), tx, []RelArg{FromTable("edges")}, nil, nil, out))

	it, err := out.Iter(context.Background())
	require.NoError(t, err)
	var keys []string
	var totals []int64
	for it.Next() {
		row := it.Tuple()
		k, _ := row[0].AsText()
		total, _ := row[1].AsInt()
		keys = append(keys, k)
		totals = append(totals, total)
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, []int64{2, 2, 2}, totals)
}

func TestDegreeCentralityRejectsWrongArity(t *testing.T) {
	algo := DegreeCentrality{}
	err := algo.Run(context.Background(), nil, nil, nil, nil, nil)
	require.Error(t, err)
}

func buildProbabilisticCatalog(t *testing.T) *store.MemCatalog {
	t.Helper()
	c := store.NewMemCatalog()
	info := store.TableInfo{Name: "pedges", KeyArity: 2, Columns: []string{"from", "to", "p"}}
	rows := []store.Tuple{
		{value.Text("a"), value.Text("b"), value.Float(0.9)},
		{value.Text("b"), value.Text("d"), value.Float(0.5)},
		{value.Text("a"), value.Text("c"), value.Float(0.2)},
		{value.Text("c"), value.Text("d"), value.Float(0.9)},
	}
	require.NoError(t, c.CreateTable(info, rows))
	return c
}

func TestMaxProbabilityPathPicksHighestProduct(t *testing.T) {
	catalog := buildProbabilisticCatalog(t)
	tx, release := store.BeginSession(context.Background(), catalog)
	defer release()

	out := tx.NewDerivedStore("paths")
	algo := MaxProbabilityPath{}
	opts := map[string]value.Value{"start": value.Text("a"), "end": value.Text("d")}
	require.NoError(t, algo.Run(context.Background(), tx, []RelArg{FromTable("pedges")}, opts, nil, out))

	it, err := out.Iter(context.Background())
	require.NoError(t, err)
	var keys []string
	for it.Next() {
		k, _ := it.Tuple()[1].AsText()
		keys = append(keys, k)
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"a", "b", "d"}, keys)
}

func TestReachabilityExactMatchesHandComputedProbability(t *testing.T) {
	catalog := buildProbabilisticCatalog(t)
	tx, release := store.BeginSession(context.Background(), catalog)
	defer release()

	out := tx.NewDerivedStore("reach")
	algo := ReachabilityProbability{}
	opts := map[string]value.Value{"start": value.Text("a"), "end": value.Text("d")}
	require.NoError(t, algo.Run(context.Background(), tx, []RelArg{FromTable("pedges")}, opts, nil, out))

	it, err := out.Iter(context.Background())
	require.NoError(t, err)
	require.True(t, it.Next())
	p, _ := it.Tuple()[0].AsFloat()
	// 1 - (1 - 0.9*0.5)(1 - 0.2*0.9) = 1 - 0.55*0.82 = 0.549
	assert.InDelta(t, 0.549, p, 1e-9)
}

func TestReachabilityMonteCarloEstimatesNearExact(t *testing.T) {
	catalog := buildProbabilisticCatalog(t)
	tx, release := store.BeginSession(context.Background(), catalog)
	defer release()

	out := tx.NewDerivedStore("reach_mc")
	algo := ReachabilityProbability{}
	opts := map[string]value.Value{
		"start": value.Text("a"), "end": value.Text("d"),
		"mode": value.Text("monte_carlo"), "samples": value.Int(20000), "seed": value.Int(7),
	}
	require.NoError(t, algo.Run(context.Background(), tx, []RelArg{FromTable("pedges")}, opts, nil, out))

	it, err := out.Iter(context.Background())
	require.NoError(t, err)
	require.True(t, it.Next())
	estimate, _ := it.Tuple()[0].AsFloat()
	assert.InDelta(t, 0.549, estimate, 0.02)
}

func TestTopKProbabilityPathsRanksByProbability(t *testing.T) {
	catalog := buildProbabilisticCatalog(t)
	tx, release := store.BeginSession(context.Background(), catalog)
	defer release()

	out := tx.NewDerivedStore("topk")
	algo := TopKProbabilityPaths{}
	opts := map[string]value.Value{"start": value.Text("a"), "end": value.Text("d"), "k": value.Int(2)}
	require.NoError(t, algo.Run(context.Background(), tx, []RelArg{FromTable("pedges")}, opts, nil, out))

	it, err := out.Iter(context.Background())
	require.NoError(t, err)
	ranks := map[int64]bool{}
	for it.Next() {
		rank, _ := it.Tuple()[3].AsInt()
		ranks[rank] = true
	}
	require.NoError(t, it.Err())
	assert.Equal(t, map[int64]bool{0: true, 1: true}, ranks)
}

func TestTopKProbabilityPathsRejectsNonPositiveK(t *testing.T) {
	catalog := buildProbabilisticCatalog(t)
	tx, release := store.BeginSession(context.Background(), catalog)
	defer release()

	out := tx.NewDerivedStore("topk")
	algo := TopKProbabilityPaths{}
	opts := map[string]value.Value{"start": value.Text("a"), "end": value.Text("d"), "k": value.Int(0)}
	err := algo.Run(context.Background(), tx, []RelArg{FromTable("pedges")}, opts, nil, out)
	require.Error(t, err)
}

func TestRegistryLookup(t *testing.T) {
	r := NewDefaultRegistry()
	a, ok := r.Lookup("degree_centrality")
	require.True(t, ok)
	assert.Equal(t, 4, a.Arity())

	_, ok = r.Lookup("does_not_exist")
	assert.False(t, ok)
}
