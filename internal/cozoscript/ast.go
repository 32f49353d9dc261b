// Package cozoscript parses CozoScript source into a normalized AST. The
// grammar is hand-written recursive descent over internal/expr's shared
// token stream: wherever the grammar
// needs an embedded expression, it hands the token slice and its current
// cursor to expr.Climb and resumes from the position Climb returns,
// instead of participle's declarative struct tags (see expr.Tokenize's doc
// comment for why).
package cozoscript

import "github.com/knotql/knotql/internal/value"

// Script is the top-level normalized AST: an object with keys q,
// const_rules, and optional limit, offset, sort, out.
type Script struct {
	Rules      []Rule
	ConstRules map[string][][]value.Value
	Limit      *uint64
	Offset     *uint64
	Sort       []SortEntry
	Out        *OutSpec
}

type SortEntry struct {
	Var        string
	Descending bool
}

// HeadArg is a rule head argument: a plain variable, or an aggregation
// {aggr: name, symb: var}.
type HeadArg struct {
	Var  string
	Aggr string // empty unless this is an aggregation head arg
	Symb string
}

func (a HeadArg) IsAggregation() bool { return a.Aggr != "" }

// Rule is one Datalog rule: a head `name[args]`, an optional `at`
// qualifier, and a body atom (itself possibly a disjunction or
// conjunction).
type Rule struct {
	Name string
	Args []HeadArg
	At   *value.Value
	Body Atom
}

// AtomKind discriminates the body-atom shapes a rule can contain:
// {conj}|{disj}|{not_exists}|{unify,expr}|{rule,args}|<triple-array>|<expr>.
type AtomKind int

const (
	AtomTriple AtomKind = iota
	AtomConj
	AtomDisj
	AtomNotExists
	AtomUnify
	AtomRuleApp
	AtomFilter
)

type Atom struct {
	Kind AtomKind

	Triple Triple

	Conj []Atom
	Disj []Atom

	NotExists *Atom

	UnifyVar  string
	UnifyExpr value.Value

	RuleName string
	RuleArgs []value.Value

	FilterExpr value.Value
}

// Triple is `[subject attribute object]`, the core Datalog pattern.
type Triple struct {
	Subject TripleArg
	Attr    string // dotted identifier path, joined with "."
	Object  TripleArg
}

// TripleArg is either a plain expression or a triple-pull `{attr: expr}`.
type TripleArg struct {
	Expr     value.Value
	IsPull   bool
	PullAttr string
	PullExpr value.Value
}

// PullArg is one element of a pull specification.
type PullArg struct {
	Star bool // "*"
	ID   bool // "_id"
	Attr string
	Sub  []PullArg // non-nil when Attr{subspec} was given

	As      string
	Limit   *int64
	Offset  *int64
	Default *value.Value
	Recurse *value.Value
	Depth   *int64
}

func (p PullArg) hasModifiers() bool {
	return p.As != "" || p.Limit != nil || p.Offset != nil || p.Default != nil || p.Recurse != nil || p.Depth != nil
}

// OutSpec is the value of a `:out` option: either a list of PullArg (list
// form) or a name-keyed map of nested pull specs (map form).
type OutSpec struct {
	IsMap bool
	List  []PullArg
	Map   map[string][]PullArg
}
