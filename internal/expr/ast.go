package expr

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/knotql/knotql/internal/value"
)

// opNames maps internal/value's symbolic Apply operators onto the
// capitalized names CozoScript's JSON AST uses. The two surfaces are
// isomorphic modulo this naming, so ToAST/FromAST round-trip without a
// second climbing implementation: there is exactly one parser (Climb, in
// climb.go), and the JSON-AST view is a structural relabeling of its
// output.
var opNames = map[string]string{
	"||": "Or", "&&": "And",
	">": "Gt", "<": "Lt", ">=": "Ge", "<=": "Le",
	"%":  "Mod",
	"==": "Eq", "!=": "Neq",
	"+": "Add", "-": "Sub", "++": "StrCat",
	"*": "Mul", "/": "Div",
	"**": "Pow",
	"~~": "Coalesce",
	"--": "Minus", "!": "Negate",
}

var opSymbols = func() map[string]string {
	m := make(map[string]string, len(opNames))
	for sym, name := range opNames {
		m[name] = sym
	}
	return m
}()

// Node is the JSON-AST representation of a parsed expression: an Apply
// node carries Op+Args, a Variable carries Var, everything else is a
// literal carried verbatim as a value.Value.
type Node struct {
	Op   string
	Args []*Node
	Var  string
	Lit  value.Value
	isOp bool
	isVar bool
}

// ToAST converts a parsed Value tree into the capitalized-op JSON AST.
func ToAST(v value.Value) *Node {
	switch v.Tag() {
	case value.TagApply:
		op, args, _ := v.ApplyParts()
		name, ok := opNames[op]
		if !ok {
			name = op
		}
		nodeArgs := make([]*Node, len(args))
		for i, a := range args {
			nodeArgs[i] = ToAST(a)
		}
		return &Node{Op: name, Args: nodeArgs, isOp: true}
	case value.TagVariable:
		name, _ := v.VarName()
		return &Node{Var: name, isVar: true}
	default:
		return &Node{Lit: v}
	}
}

// FromAST converts a JSON AST back into a Value tree, the inverse of
// ToAST.
func FromAST(n *Node) (value.Value, error) {
	switch {
	case n.isOp:
		sym, ok := opSymbols[n.Op]
		if !ok {
			sym = n.Op
		}
		args := make([]value.Value, len(n.Args))
		for i, a := range n.Args {
			v, err := FromAST(a)
			if err != nil {
				return value.Value{}, err
			}
			args[i] = v
		}
		return value.Apply(sym, args), nil
	case n.isVar:
		return value.Var(n.Var), nil
	default:
		return n.Lit, nil
	}
}

// MarshalJSON renders Apply nodes as {"op":...,"args":[...]}, variables as
// {"var":"name"}, and literals as their natural JSON form.
func (n *Node) MarshalJSON() ([]byte, error) {
	switch {
	case n.isOp:
		return json.Marshal(struct {
			Op   string  `json:"op"`
			Args []*Node `json:"args"`
		}{n.Op, n.Args})
	case n.isVar:
		return json.Marshal(struct {
			Var string `json:"var"`
		}{n.Var})
	default:
		lit, err := literalJSON(n.Lit)
		if err != nil {
			return nil, err
		}
		return json.Marshal(lit)
	}
}

func literalJSON(v value.Value) (any, error) {
	switch v.Tag() {
	case value.TagNull:
		return nil, nil
	case value.TagBoolTrue:
		return true, nil
	case value.TagBoolFalse:
		return false, nil
	case value.TagInt:
		i, _ := v.AsInt()
		return i, nil
	case value.TagFloat:
		f, _ := v.AsFloat()
		return f, nil
	case value.TagUInt:
		u, _ := v.AsUInt()
		return fmt.Sprintf("%du", u), nil
	case value.TagText:
		s, _ := v.AsText()
		return s, nil
	case value.TagUuid:
		id, _ := v.AsUUID()
		return id.String(), nil
	case value.TagList:
		items, _ := v.AsList()
		out := make([]any, len(items))
		for i, it := range items {
			var err error
			out[i], err = literalJSON(it)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	case value.TagDict:
		d, _ := v.AsDict()
		out := map[string]any{}
		keys := make([]string, 0, d.Len())
		d.Range(func(k string, _ value.Value) { keys = append(keys, k) })
		sort.Strings(keys)
		values := map[string]value.Value{}
		d.Range(func(k string, sub value.Value) { values[k] = sub })
		for _, k := range keys {
			lit, err := literalJSON(values[k])
			if err != nil {
				return nil, err
			}
			out[k] = lit
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of tag %s has no JSON literal form", v.Tag())
	}
}
