package value

import (
	"bytes"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTagMonotonicity checks tag monotonicity: for distinct primitive
// kinds a < b, encode(a) < encode(b) byte-wise.
func TestTagMonotonicity(t *testing.T) {
	ordered := []Value{
		Bool(false),
		Null(),
		Bool(true),
		Int(-5),
		Float(-5.5),
		Text("z"),
		UUID(uuid.Nil),
		UInt(0),
	}
	for i := 0; i < len(ordered)-1; i++ {
		a, b := ordered[i], ordered[i+1]
		require.Truef(t, Less(a, b), "%s should order before %s", a.Tag(), b.Tag())

		encA, err := a.Encode()
		require.NoError(t, err)
		encB, err := b.Encode()
		require.NoError(t, err)
		assert.Truef(t, bytes.Compare(encA, encB) < 0, "encode(%s) should sort before encode(%s)", a.Tag(), b.Tag())
	}
}

func TestIntEncodingPreservesOrder(t *testing.T) {
	ints := []int64{-100, -1, 0, 1, 100, 1 << 40}
	var encoded [][]byte
	for _, i := range ints {
		enc, err := Int(i).Encode()
		require.NoError(t, err)
		encoded = append(encoded, enc)
	}
	sorted := append([][]byte{}, encoded...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })
	assert.Equal(t, encoded, sorted)
}

func TestFloatEncodingPreservesOrder(t *testing.T) {
	floats := []float64{-100.5, -1.0, -0.0, 0.0, 1.0, 100.5}
	var encoded [][]byte
	for _, f := range floats {
		enc, err := Float(f).Encode()
		require.NoError(t, err)
		encoded = append(encoded, enc)
	}
	for i := 0; i < len(encoded)-1; i++ {
		assert.LessOrEqual(t, bytes.Compare(encoded[i], encoded[i+1]), 0)
	}
}

func TestDictKeySortedIteration(t *testing.T) {
	d := NewDict(map[string]Value{
		"z": Int(1),
		"a": Int(2),
		"m": Int(3),
	})
	var keys []string
	d.Range(func(k string, _ Value) { keys = append(keys, k) })
	assert.Equal(t, []string{"a", "m", "z"}, keys)
}

func TestIsEvaluated(t *testing.T) {
	assert.True(t, Int(1).IsEvaluated())
	assert.False(t, Var("a").IsEvaluated())
	assert.False(t, Apply("+", []Value{Int(1), Var("b")}).IsEvaluated())
	assert.True(t, List([]Value{Int(1), Int(2)}).IsEvaluated())
	assert.False(t, List([]Value{Int(1), Var("x")}).IsEvaluated())
}

func TestToOwnedDetachesBackingSlices(t *testing.T) {
	backing := []Value{Int(1), Int(2)}
	shared := List(backing)
	owned := shared.ToOwned()

	backing[0] = Int(99)

	list, ok := owned.AsList()
	require.True(t, ok)
	assert.Equal(t, int64(1), list[0].i)
}

func TestSentinelMustNotEncode(t *testing.T) {
	_, err := MaxTagSentinel().Encode()
	require.Error(t, err)
}

func TestUnevaluatedMustNotEncode(t *testing.T) {
	_, err := Var("x").Encode()
	require.Error(t, err)

	_, err = Apply("+", []Value{Int(1), Int(2)}).Encode()
	require.Error(t, err)
}
