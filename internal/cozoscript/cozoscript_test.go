package cozoscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFriendOfFriendShape parses a minimal rule with a triple body and a
// :limit option end to end.
func TestFriendOfFriendShape(t *testing.T) {
	script, err := Parse(`friend[?a,?b] := [?a knows ?b]; :limit = 10`)
	require.NoError(t, err)

	require.Len(t, script.Rules, 1)
	rule := script.Rules[0]
	assert.Equal(t, "friend", rule.Name)
	require.Len(t, rule.Args, 2)
	assert.Equal(t, "a", rule.Args[0].Var)
	assert.Equal(t, "b", rule.Args[1].Var)
	assert.False(t, rule.Args[0].IsAggregation())

	require.Equal(t, AtomTriple, rule.Body.Kind)
	subjVar, ok := rule.Body.Triple.Subject.Expr.VarName()
	require.True(t, ok)
	assert.Equal(t, "a", subjVar)
	assert.Equal(t, "knows", rule.Body.Triple.Attr)
	objVar, ok := rule.Body.Triple.Object.Expr.VarName()
	require.True(t, ok)
	assert.Equal(t, "b", objVar)

	require.NotNil(t, script.Limit)
	assert.Equal(t, uint64(10), *script.Limit)
}

// TestConstRuleConcatenation checks that two :const declarations for the
// same name merge in source order.
func TestConstRuleConcatenation(t *testing.T) {
	script, err := Parse(`:const pair = [[1, 2]]; :const pair = [[3, 4]]`)
	require.NoError(t, err)

	tuples, ok := script.ConstRules["pair"]
	require.True(t, ok)
	require.Len(t, tuples, 2)

	first := tuples[0]
	a, _ := first[0].AsInt()
	b, _ := first[1].AsInt()
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(2), b)

	second := tuples[1]
	c, _ := second[0].AsInt()
	d, _ := second[1].AsInt()
	assert.Equal(t, int64(3), c)
	assert.Equal(t, int64(4), d)
}

func TestRuleWithAggregationHeadArg(t *testing.T) {
	script, err := Parse(`total[?a, count(?b)] := [?a knows ?b]`)
	require.NoError(t, err)

	require.Len(t, script.Rules, 1)
	args := script.Rules[0].Args
	require.Len(t, args, 2)
	assert.False(t, args[0].IsAggregation())
	assert.True(t, args[1].IsAggregation())
	assert.Equal(t, "count", args[1].Aggr)
	assert.Equal(t, "b", args[1].Symb)
}

func TestNegationAndConjunctionBody(t *testing.T) {
	script, err := Parse(`solo[?a] := [?a knows ?b], not([?a dislikes ?b])`)
	require.NoError(t, err)

	body := script.Rules[0].Body
	require.Equal(t, AtomConj, body.Kind)
	require.Len(t, body.Conj, 2)
	assert.Equal(t, AtomTriple, body.Conj[0].Kind)
	assert.Equal(t, AtomNotExists, body.Conj[1].Kind)
	assert.Equal(t, AtomTriple, body.Conj[1].NotExists.Kind)
}

func TestDisjunctionBody(t *testing.T) {
	script, err := Parse(`p[?a,?b] := [?a knows ?b] | [?a likes ?b]`)
	require.NoError(t, err)

	body := script.Rules[0].Body
	require.Equal(t, AtomDisj, body.Kind)
	require.Len(t, body.Disj, 2)
}

func TestUnifyAtom(t *testing.T) {
	script, err := Parse(`r[?a] := [?a knows ?b], ?c = ?b + 1`)
	require.NoError(t, err)

	body := script.Rules[0].Body
	require.Equal(t, AtomConj, body.Kind)
	unify := body.Conj[1]
	require.Equal(t, AtomUnify, unify.Kind)
	assert.Equal(t, "c", unify.UnifyVar)
}

func TestRuleApplicationAtom(t *testing.T) {
	script, err := Parse(`r[?a,?b] := friend(?a, ?b)`)
	require.NoError(t, err)

	body := script.Rules[0].Body
	require.Equal(t, AtomRuleApp, body.Kind)
	assert.Equal(t, "friend", body.RuleName)
	require.Len(t, body.RuleArgs, 2)
}

func TestTriplePullSubjectForm(t *testing.T) {
	script, err := Parse(`r[?a] := [{name: ?n} knows ?b]`)
	require.NoError(t, err)

	triple := script.Rules[0].Body.Triple
	assert.True(t, triple.Subject.IsPull)
	assert.Equal(t, "name", triple.Subject.PullAttr)
}

func TestSortAndOutOptions(t *testing.T) {
	script, err := Parse(`r[?a,?b] := [?a knows ?b]; :sort = ?a desc, ?b; :out = [id, name]`)
	require.NoError(t, err)

	require.Len(t, script.Sort, 2)
	assert.Equal(t, "a", script.Sort[0].Var)
	assert.True(t, script.Sort[0].Descending)
	assert.Equal(t, "b", script.Sort[1].Var)
	assert.False(t, script.Sort[1].Descending)

	require.NotNil(t, script.Out)
	assert.False(t, script.Out.IsMap)
	require.Len(t, script.Out.List, 2)
	assert.Equal(t, "id", script.Out.List[0].Attr)
	assert.Equal(t, "name", script.Out.List[1].Attr)
}

func TestOutMapFormWithNestedSpec(t *testing.T) {
	script, err := Parse(`r[?a] := [?a knows ?b]; :out = {a: [id, friends{name, *} as f limit 5]}`)
	require.NoError(t, err)

	require.NotNil(t, script.Out)
	require.True(t, script.Out.IsMap)
	list, ok := script.Out.Map["a"]
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, "id", list[0].Attr)

	nested := list[1]
	assert.Equal(t, "friends", nested.Attr)
	assert.Equal(t, "f", nested.As)
	require.NotNil(t, nested.Limit)
	assert.Equal(t, int64(5), *nested.Limit)
	require.Len(t, nested.Sub, 2)
	assert.Equal(t, "name", nested.Sub[0].Attr)
	assert.True(t, nested.Sub[1].Star)
}

func TestMalformedRuleHeadReportsSyntaxError(t *testing.T) {
	_, err := Parse(`r[?a := [?a knows ?b]`)
	require.Error(t, err)
}

func TestGroupingWithSemicolonConjunction(t *testing.T) {
	script, err := Parse(`r[?a] := ([?a knows ?b]; [?a likes ?b])`)
	require.NoError(t, err)

	body := script.Rules[0].Body
	require.Equal(t, AtomConj, body.Kind)
	require.Len(t, body.Conj, 2)
}

func TestMarshalJSONShapeForTripleRule(t *testing.T) {
	script, err := Parse(`friend[?a,?b] := [?a knows ?b]`)
	require.NoError(t, err)

	data, err := script.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rule":"friend"`)
	assert.Contains(t, string(data), `"knows"`)
}
