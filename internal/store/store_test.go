package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotql/knotql/internal/value"
)

// buildPersonCatalog is a small t.Helper()-annotated fixture builder shared
// across this package's tests.
func buildPersonCatalog(t *testing.T) *MemCatalog {
	t.Helper()
	c := NewMemCatalog()
	info := TableInfo{Name: "person", KeyArity: 1, Columns: []string{"id", "name", "age"}}
	rows := []Tuple{
		{value.Int(2), value.Text("bob"), value.Int(41)},
		{value.Int(1), value.Text("alice"), value.Int(30)},
	}
	require.NoError(t, c.CreateTable(info, rows))
	return c
}

func TestScanYieldsKeySortedRows(t *testing.T) {
	c := buildPersonCatalog(t)
	handle, err := c.ResolveTable("person")
	require.NoError(t, err)

	it, err := handle.Scan(context.Background())
	require.NoError(t, err)

	var ids []int64
	for it.Next() {
		id, _ := it.Tuple()[0].AsInt()
		ids = append(ids, id)
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestResolveUnknownTable(t *testing.T) {
	c := buildPersonCatalog(t)
	_, err := c.ResolveTable("nope")
	require.Error(t, err)
	var storeErr Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "UnknownTable", storeErr.Kind)
}

func TestScanRespectsCancellation(t *testing.T) {
	c := buildPersonCatalog(t)
	handle, err := c.ResolveTable("person")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	it, err := handle.Scan(ctx)
	require.NoError(t, err)
	assert.False(t, it.Next())
	require.Error(t, it.Err())
}

func TestDerivedStorePreservesInsertionOrder(t *testing.T) {
	s, release := BeginSession(context.Background(), buildPersonCatalog(t))
	defer release()

	derived := s.NewDerivedStore("friend_of_friend")
	require.NoError(t, derived.Put(Tuple{value.Int(1), value.Int(3)}))
	require.NoError(t, derived.Put(Tuple{value.Int(2), value.Int(4)}))

	it, err := derived.Iter(context.Background())
	require.NoError(t, err)

	var got []Tuple
	for it.Next() {
		got = append(got, it.Tuple())
	}
	require.NoError(t, it.Err())
	require.Len(t, got, 2)
	first, _ := got[0][0].AsInt()
	assert.Equal(t, int64(1), first)
}

func TestWrongArityRejected(t *testing.T) {
	c := NewMemCatalog()
	info := TableInfo{Name: "t", KeyArity: 1, Columns: []string{"a", "b"}}
	err := c.CreateTable(info, []Tuple{{value.Int(1)}})
	require.Error(t, err)
}
