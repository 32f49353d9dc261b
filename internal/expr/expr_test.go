package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knotql/knotql/internal/value"
)

// TestPrecedenceClimbing checks that "1 + 2 * 3" parses as Add(1, Mul(2,
// 3)), not Mul(Add(1,2), 3).
func TestPrecedenceClimbing(t *testing.T) {
	v, err := Parse("1 + 2 * 3")
	require.NoError(t, err)

	op, args, ok := v.ApplyParts()
	require.True(t, ok)
	assert.Equal(t, "+", op)
	require.Len(t, args, 2)
	assert.Equal(t, value.Int(1), args[0])

	rOp, rArgs, ok := args[1].ApplyParts()
	require.True(t, ok)
	assert.Equal(t, "*", rOp)
	assert.Equal(t, value.Int(2), rArgs[0])
	assert.Equal(t, value.Int(3), rArgs[1])
}

func TestPowerIsRightAssociative(t *testing.T) {
	v, err := Parse("2 ** 3 ** 2")
	require.NoError(t, err)
	op, args, ok := v.ApplyParts()
	require.True(t, ok)
	assert.Equal(t, "**", op)
	assert.Equal(t, value.Int(2), args[0])

	innerOp, innerArgs, ok := args[1].ApplyParts()
	require.True(t, ok)
	assert.Equal(t, "**", innerOp)
	assert.Equal(t, value.Int(3), innerArgs[0])
	assert.Equal(t, value.Int(2), innerArgs[1])
}

func TestCoalesceBindsTighterThanArithmetic(t *testing.T) {
	v, err := Parse("1 + null ~~ 2")
	require.NoError(t, err)
	op, args, ok := v.ApplyParts()
	require.True(t, ok)
	assert.Equal(t, "+", op)
	coalesceOp, _, ok := args[1].ApplyParts()
	require.True(t, ok)
	assert.Equal(t, "~~", coalesceOp)
}

func TestUnaryMinusAndNegate(t *testing.T) {
	v, err := Parse("-a")
	require.NoError(t, err)
	op, args, ok := v.ApplyParts()
	require.True(t, ok)
	assert.Equal(t, "--", op)
	name, ok := args[0].VarName()
	require.True(t, ok)
	assert.Equal(t, "a", name)

	v, err = Parse("!flag")
	require.NoError(t, err)
	op, _, ok = v.ApplyParts()
	require.True(t, ok)
	assert.Equal(t, "!", op)
}

func TestLiteralForms(t *testing.T) {
	cases := map[string]value.Value{
		"null":     value.Null(),
		"true":     value.Bool(true),
		"false":    value.Bool(false),
		"0x1F":     value.Int(31),
		"0o17":     value.Int(15),
		"0b101":    value.Int(5),
		"1_000":    value.Int(1000),
		"1.5e2":    value.Float(150),
		`"abc"`:    value.Text("abc"),
		"'abc'":    value.Text("abc"),
		`r#"a"b"#`: value.Text(`a"b`),
	}
	for src, want := range cases {
		got, err := Parse(src)
		require.NoErrorf(t, err, "parsing %q", src)
		assert.Truef(t, value.Equal(want, got), "parsing %q: want %s got %s", src, want, got)
	}
}

func TestListAndDictLiterals(t *testing.T) {
	v, err := Parse("[1, 2, 3]")
	require.NoError(t, err)
	items, ok := v.AsList()
	require.True(t, ok)
	assert.Len(t, items, 3)

	v, err = Parse(`{a: 1, "b": 2}`)
	require.NoError(t, err)
	d, ok := v.AsDict()
	require.True(t, ok)
	assert.Equal(t, 2, d.Len())
}

// TestValueASTRoundTrip is invariant 1: the Value tree and the
// capitalized JSON AST are isomorphic, so ToAST then FromAST recovers the
// original tree.
func TestValueASTRoundTrip(t *testing.T) {
	v, err := Parse(`1 + 2 * 3 == 7 && !done || x ~~ "d"`)
	require.NoError(t, err)

	node := ToAST(v)
	back, err := FromAST(node)
	require.NoError(t, err)
	assert.True(t, value.Equal(v, back))
}

func TestASTUsesCapitalizedOpNames(t *testing.T) {
	v, err := Parse("1 + 2")
	require.NoError(t, err)
	node := ToAST(v)
	assert.Equal(t, "Add", node.Op)
}

// TestClimbResumesMidStream shows internal/cozoscript's usage pattern: tokenize
// once, climb an embedded expression, then keep parsing from the returned
// position without needing to pre-find where the expression ends.
func TestClimbResumesMidStream(t *testing.T) {
	tokens, err := Tokenize("?age > 18, ?name")
	require.NoError(t, err)

	v, pos, err := Climb(tokens, 0, 0)
	require.NoError(t, err)
	op, _, ok := v.ApplyParts()
	require.True(t, ok)
	assert.Equal(t, ">", op)

	require.True(t, tokens[pos].is(KindPunct, ","))
}

func TestTrailingGarbageIsASyntaxError(t *testing.T) {
	_, err := Parse("1 +")
	require.Error(t, err)

	_, err = Parse("1 2")
	require.Error(t, err)
}
