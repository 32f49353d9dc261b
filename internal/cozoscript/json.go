package cozoscript

import (
	"encoding/json"

	"github.com/knotql/knotql/internal/expr"
	"github.com/knotql/knotql/internal/value"
)

// MarshalJSON renders Script in its normalized AST shape:
// {"q":[...],"const_rules":{...},"limit"?,"offset"?,"sort"?,"out"?}.
func (s Script) MarshalJSON() ([]byte, error) {
	doc := map[string]any{
		"q":           s.Rules,
		"const_rules": constRulesJSON(s.ConstRules),
	}
	if s.Limit != nil {
		doc["limit"] = *s.Limit
	}
	if s.Offset != nil {
		doc["offset"] = *s.Offset
	}
	if s.Sort != nil {
		sorted := make([]map[string]string, len(s.Sort))
		for i, e := range s.Sort {
			dir := "asc"
			if e.Descending {
				dir = "desc"
			}
			sorted[i] = map[string]string{e.Var: dir}
		}
		doc["sort"] = sorted
	}
	if s.Out != nil {
		doc["out"] = s.Out
	}
	return json.Marshal(doc)
}

func constRulesJSON(m map[string][][]value.Value) map[string][][]any {
	out := make(map[string][][]any, len(m))
	for name, tuples := range m {
		rows := make([][]any, len(tuples))
		for i, tuple := range tuples {
			row := make([]any, len(tuple))
			for j, v := range tuple {
				row[j] = exprLiteral(v)
			}
			rows[i] = row
		}
		out[name] = rows
	}
	return out
}

func exprLiteral(v value.Value) any {
	return expr.ToAST(v)
}

func (r Rule) MarshalJSON() ([]byte, error) {
	doc := map[string]any{
		"rule": r.Name,
		"args": headArgsJSON(r.Args),
		"body": r.Body,
	}
	if r.At != nil {
		doc["at"] = exprLiteral(*r.At)
	}
	return json.Marshal(doc)
}

func headArgsJSON(args []HeadArg) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if a.IsAggregation() {
			out[i] = map[string]string{"aggr": a.Aggr, "symb": a.Symb}
		} else {
			out[i] = "?" + a.Var
		}
	}
	return out
}

func (a Atom) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AtomTriple:
		return json.Marshal([]any{
			tripleArgJSON(a.Triple.Subject), a.Triple.Attr, tripleArgJSON(a.Triple.Object),
		})
	case AtomConj:
		return json.Marshal(map[string]any{"conj": a.Conj})
	case AtomDisj:
		return json.Marshal(map[string]any{"disj": a.Disj})
	case AtomNotExists:
		return json.Marshal(map[string]any{"not_exists": a.NotExists})
	case AtomUnify:
		return json.Marshal(map[string]any{"unify": "?" + a.UnifyVar, "expr": exprLiteral(a.UnifyExpr)})
	case AtomRuleApp:
		args := make([]any, len(a.RuleArgs))
		for i, v := range a.RuleArgs {
			args[i] = exprLiteral(v)
		}
		return json.Marshal(map[string]any{"rule": a.RuleName, "args": args})
	default: // AtomFilter
		return json.Marshal(exprLiteral(a.FilterExpr))
	}
}

func tripleArgJSON(t TripleArg) any {
	if t.IsPull {
		return map[string]any{t.PullAttr: exprLiteral(t.PullExpr)}
	}
	return exprLiteral(t.Expr)
}

func (p PullArg) MarshalJSON() ([]byte, error) {
	if p.Star {
		return json.Marshal("*")
	}
	if p.ID {
		return json.Marshal("_id")
	}
	if !p.hasModifiers() && len(p.Sub) == 0 {
		return json.Marshal(p.Attr)
	}
	doc := map[string]any{"pull": p.Attr}
	if len(p.Sub) > 0 {
		doc["spec"] = p.Sub
	}
	if p.As != "" {
		doc["as"] = p.As
	}
	if p.Limit != nil {
		doc["limit"] = *p.Limit
	}
	if p.Offset != nil {
		doc["offset"] = *p.Offset
	}
	if p.Default != nil {
		doc["default"] = exprLiteral(*p.Default)
	}
	if p.Recurse != nil {
		doc["recurse"] = exprLiteral(*p.Recurse)
	}
	if p.Depth != nil {
		doc["depth"] = *p.Depth
	}
	return json.Marshal(doc)
}

func (o OutSpec) MarshalJSON() ([]byte, error) {
	if o.IsMap {
		return json.Marshal(o.Map)
	}
	return json.Marshal(o.List)
}
