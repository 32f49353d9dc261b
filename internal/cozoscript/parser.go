package cozoscript

import (
	"strings"

	"github.com/knotql/knotql/internal/expr"
	"github.com/knotql/knotql/internal/value"
)

// Parse tokenizes and parses a full CozoScript program into its normalized
// AST. A program is a ';'-separated sequence of rule definitions and
// option declarations.
func Parse(src string) (Script, error) {
	tokens, err := expr.Tokenize(src)
	if err != nil {
		return Script{}, err
	}
	p := &parser{tokens: tokens}
	script := Script{ConstRules: map[string][][]value.Value{}}

	for !p.atEOF() {
		if p.peekPunct(";") {
			p.pos++
			continue
		}
		if p.peekPunct(":") {
			if err := p.parseOption(&script); err != nil {
				return Script{}, err
			}
			continue
		}
		rule, err := p.parseRule()
		if err != nil {
			return Script{}, err
		}
		script.Rules = append(script.Rules, rule)
	}
	return script, nil
}

type parser struct {
	tokens []expr.Token
	pos    int
}

func (p *parser) cur() expr.Token  { return p.tokens[p.pos] }
func (p *parser) atEOF() bool      { return p.cur().Kind == expr.KindEOF }
func (p *parser) peekPunct(s string) bool {
	return p.cur().Kind == expr.KindPunct && p.cur().Text == s
}
func (p *parser) peekOp(s string) bool {
	return p.cur().Kind == expr.KindOp && p.cur().Text == s
}
func (p *parser) peekIdent(s string) bool {
	return p.cur().Kind == expr.KindIdent && p.cur().Text == s
}

func (p *parser) expectPunct(s string) error {
	if !p.peekPunct(s) {
		return errUnexpectedRule(p.cur().Pos, "expected %q, got %q", s, p.cur().Text)
	}
	p.pos++
	return nil
}

// parseRule parses `name[args] (at expr)? := body`.
func (p *parser) parseRule() (Rule, error) {
	if p.cur().Kind != expr.KindIdent {
		return Rule{}, errUnexpectedRule(p.cur().Pos, "expected a rule name, got %q", p.cur().Text)
	}
	name := p.cur().Text
	p.pos++

	if err := p.expectPunct("["); err != nil {
		return Rule{}, err
	}
	var args []HeadArg
	if !p.peekPunct("]") {
		for {
			arg, err := p.parseHeadArg()
			if err != nil {
				return Rule{}, err
			}
			args = append(args, arg)
			if p.peekPunct(",") {
				p.pos++
				continue
			}
			break
		}
	}
	if err := p.expectPunct("]"); err != nil {
		return Rule{}, err
	}

	var at *value.Value
	if p.peekIdent("at") {
		p.pos++
		v, newPos, err := expr.Climb(p.tokens, p.pos, 0)
		if err != nil {
			return Rule{}, err
		}
		p.pos = newPos
		at = &v
	}

	if !p.peekOp(":=") {
		return Rule{}, errUnexpectedRule(p.cur().Pos, "expected ':=' after rule head, got %q", p.cur().Text)
	}
	p.pos++

	body, err := p.parseBody()
	if err != nil {
		return Rule{}, err
	}
	return Rule{Name: name, Args: args, At: at, Body: body}, nil
}

func (p *parser) parseHeadArg() (HeadArg, error) {
	if p.cur().Kind == expr.KindIdent {
		aggr := p.cur().Text
		p.pos++
		if err := p.expectPunct("("); err != nil {
			return HeadArg{}, err
		}
		if p.cur().Kind != expr.KindParam {
			return HeadArg{}, errUnexpectedRule(p.cur().Pos, "expected a variable inside aggregation call")
		}
		symb := p.cur().Text
		p.pos++
		if err := p.expectPunct(")"); err != nil {
			return HeadArg{}, err
		}
		return HeadArg{Aggr: aggr, Symb: symb}, nil
	}
	if p.cur().Kind == expr.KindParam {
		v := p.cur().Text
		p.pos++
		return HeadArg{Var: v}, nil
	}
	return HeadArg{}, errUnexpectedRule(p.cur().Pos, "expected a head argument, got %q", p.cur().Text)
}

// parseBody parses the implicit top-level conjunction of disjunctions that
// makes up a rule body.
func (p *parser) parseBody() (Atom, error) {
	var atoms []Atom
	for {
		a, err := p.parseDisjunction()
		if err != nil {
			return Atom{}, err
		}
		atoms = append(atoms, a)
		if p.peekPunct(",") {
			p.pos++
			continue
		}
		break
	}
	if len(atoms) == 1 {
		return atoms[0], nil
	}
	return Atom{Kind: AtomConj, Conj: atoms}, nil
}

func (p *parser) parseDisjunction() (Atom, error) {
	var atoms []Atom
	for {
		a, err := p.parseAtomTerm()
		if err != nil {
			return Atom{}, err
		}
		atoms = append(atoms, a)
		if p.peekPunct("|") {
			p.pos++
			continue
		}
		break
	}
	if len(atoms) == 1 {
		return atoms[0], nil
	}
	return Atom{Kind: AtomDisj, Disj: atoms}, nil
}

func (p *parser) parseAtomTerm() (Atom, error) {
	switch {
	case p.cur().Kind == expr.KindKeyword && p.cur().Text == "not":
		p.pos++
		if err := p.expectPunct("("); err != nil {
			return Atom{}, err
		}
		inner, err := p.parseBody()
		if err != nil {
			return Atom{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Atom{}, err
		}
		return Atom{Kind: AtomNotExists, NotExists: &inner}, nil

	case p.peekPunct("("):
		p.pos++
		var atoms []Atom
		for {
			a, err := p.parseDisjunction()
			if err != nil {
				return Atom{}, err
			}
			atoms = append(atoms, a)
			if p.peekPunct(";") {
				p.pos++
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return Atom{}, err
		}
		if len(atoms) == 1 {
			return atoms[0], nil
		}
		return Atom{Kind: AtomConj, Conj: atoms}, nil

	case p.peekPunct("["):
		return p.parseTriple()

	case p.cur().Kind == expr.KindIdent && p.tokens[p.pos+1].Is(expr.KindPunct, "("):
		name := p.cur().Text
		p.pos += 2
		var args []value.Value
		if !p.peekPunct(")") {
			for {
				v, newPos, err := expr.Climb(p.tokens, p.pos, 0)
				if err != nil {
					return Atom{}, err
				}
				p.pos = newPos
				args = append(args, v)
				if p.peekPunct(",") {
					p.pos++
					continue
				}
				break
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return Atom{}, err
		}
		return Atom{Kind: AtomRuleApp, RuleName: name, RuleArgs: args}, nil

	case p.cur().Kind == expr.KindParam && p.tokens[p.pos+1].Is(expr.KindPunct, "="):
		name := p.cur().Text
		p.pos += 2
		v, newPos, err := expr.Climb(p.tokens, p.pos, 0)
		if err != nil {
			return Atom{}, err
		}
		p.pos = newPos
		return Atom{Kind: AtomUnify, UnifyVar: name, UnifyExpr: v}, nil

	default:
		v, newPos, err := expr.Climb(p.tokens, p.pos, 0)
		if err != nil {
			return Atom{}, err
		}
		p.pos = newPos
		return Atom{Kind: AtomFilter, FilterExpr: v}, nil
	}
}

func (p *parser) parseTriple() (Atom, error) {
	p.pos++ // consume '['
	subject, err := p.parseTripleArg()
	if err != nil {
		return Atom{}, err
	}
	if p.cur().Kind != expr.KindIdent {
		return Atom{}, errUnexpectedRule(p.cur().Pos, "expected an attribute name in triple")
	}
	var attrParts []string
	attrParts = append(attrParts, p.cur().Text)
	p.pos++
	for p.peekPunct(".") {
		p.pos++
		if p.cur().Kind != expr.KindIdent {
			return Atom{}, errUnexpectedRule(p.cur().Pos, "expected an identifier after '.'")
		}
		attrParts = append(attrParts, p.cur().Text)
		p.pos++
	}
	object, err := p.parseTripleArg()
	if err != nil {
		return Atom{}, err
	}
	if err := p.expectPunct("]"); err != nil {
		return Atom{}, err
	}
	return Atom{Kind: AtomTriple, Triple: Triple{Subject: subject, Attr: strings.Join(attrParts, "."), Object: object}}, nil
}

// parseTripleArg parses a triple-pull `{attr: expr}` or a plain expression
// (); both share the same `{...}` dict-literal grammar, so a
// single-entry Dict value is promoted to pull form after the fact.
func (p *parser) parseTripleArg() (TripleArg, error) {
	v, newPos, err := expr.Climb(p.tokens, p.pos, 0)
	if err != nil {
		return TripleArg{}, err
	}
	p.pos = newPos
	if d, ok := v.AsDict(); ok && d.Len() == 1 {
		var attr string
		var inner value.Value
		d.Range(func(k string, sub value.Value) { attr, inner = k, sub })
		return TripleArg{IsPull: true, PullAttr: attr, PullExpr: inner}, nil
	}
	return TripleArg{Expr: v}, nil
}

func (p *parser) parseOption(script *Script) error {
	p.pos++ // consume ':'
	if p.cur().Kind != expr.KindIdent {
		return errUnexpectedRule(p.cur().Pos, "expected an option name after ':'")
	}
	name := p.cur().Text
	p.pos++

	switch name {
	case "const":
		return p.parseConstOption(script)
	case "limit", "offset":
		if err := p.expectPunct("="); err != nil {
			return err
		}
		v, newPos, err := expr.Climb(p.tokens, p.pos, 0)
		if err != nil {
			return err
		}
		p.pos = newPos
		n, err := coerceUnsigned(v)
		if err != nil {
			return err
		}
		if name == "limit" {
			script.Limit = &n
		} else {
			script.Offset = &n
		}
		return nil
	case "sort":
		if err := p.expectPunct("="); err != nil {
			return err
		}
		entries, err := p.parseSortList()
		if err != nil {
			return err
		}
		script.Sort = entries
		return nil
	case "out":
		if err := p.expectPunct("="); err != nil {
			return err
		}
		out, err := p.parsePullSpecTop()
		if err != nil {
			return err
		}
		script.Out = &out
		return nil
	default:
		return errUnexpectedRule(p.cur().Pos, "unknown option %q", name)
	}
}

func (p *parser) parseConstOption(script *Script) error {
	if p.cur().Kind != expr.KindIdent {
		return errUnexpectedRule(p.cur().Pos, "expected a name after ':const'")
	}
	name := p.cur().Text
	p.pos++
	if err := p.expectPunct("="); err != nil {
		return err
	}
	v, newPos, err := expr.Climb(p.tokens, p.pos, 0)
	if err != nil {
		return err
	}
	p.pos = newPos

	items, ok := v.AsList()
	if !ok {
		return errUnexpectedRule(p.cur().Pos, ":const value must be a list of tuples")
	}
	var tuples [][]value.Value
	for _, item := range items {
		tuple, ok := item.AsList()
		if !ok {
			return errUnexpectedRule(p.cur().Pos, ":const entries must be list tuples")
		}
		tuples = append(tuples, tuple)
	}
	script.ConstRules[name] = append(script.ConstRules[name], tuples...)
	return nil
}

func coerceUnsigned(v value.Value) (uint64, error) {
	if i, ok := v.AsInt(); ok {
		if i < 0 {
			return 0, errUnexpectedRule(0, "expected a non-negative integer")
		}
		return uint64(i), nil
	}
	return 0, errUnexpectedRule(0, "expected an integer")
}

func (p *parser) parseSortList() ([]SortEntry, error) {
	var entries []SortEntry
	for {
		if p.cur().Kind != expr.KindParam {
			return nil, errUnexpectedRule(p.cur().Pos, "expected a variable in :sort")
		}
		v := p.cur().Text
		p.pos++
		desc := false
		if p.peekIdent("asc") {
			p.pos++
		} else if p.peekIdent("desc") {
			desc = true
			p.pos++
		}
		entries = append(entries, SortEntry{Var: v, Descending: desc})
		if p.peekPunct(",") {
			p.pos++
			continue
		}
		break
	}
	return entries, nil
}

func (p *parser) parsePullSpecTop() (OutSpec, error) {
	if p.peekPunct("{") {
		p.pos++
		m := map[string][]PullArg{}
		if !p.peekPunct("}") {
			for {
				if p.cur().Kind != expr.KindIdent && p.cur().Kind != expr.KindString {
					return OutSpec{}, errUnexpectedRule(p.cur().Pos, "expected a name in :out map form")
				}
				key := p.cur().Text
				p.pos++
				if err := p.expectPunct(":"); err != nil {
					return OutSpec{}, err
				}
				list, err := p.parsePullArgList()
				if err != nil {
					return OutSpec{}, err
				}
				m[key] = list
				if p.peekPunct(",") {
					p.pos++
					continue
				}
				break
			}
		}
		if err := p.expectPunct("}"); err != nil {
			return OutSpec{}, err
		}
		return OutSpec{IsMap: true, Map: m}, nil
	}
	list, err := p.parsePullArgList()
	if err != nil {
		return OutSpec{}, err
	}
	return OutSpec{List: list}, nil
}

func (p *parser) parsePullArgList() ([]PullArg, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var args []PullArg
	if !p.peekPunct("]") {
		for {
			a, err := p.parsePullArg()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.peekPunct(",") {
				p.pos++
				continue
			}
			break
		}
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePullArg() (PullArg, error) {
	var arg PullArg
	switch {
	case p.peekOp("*"):
		p.pos++
		arg.Star = true
	case p.cur().Kind == expr.KindIdent && p.cur().Text == "_id":
		p.pos++
		arg.ID = true
	case p.cur().Kind == expr.KindIdent:
		arg.Attr = p.cur().Text
		p.pos++
		if p.peekPunct("{") {
			return p.parseNestedPullArg(arg)
		}
	default:
		return PullArg{}, errUnexpectedRule(p.cur().Pos, "expected a pull argument")
	}

	for {
		switch {
		case p.peekIdent("as"):
			p.pos++
			if p.cur().Kind != expr.KindIdent {
				return PullArg{}, errUnexpectedRule(p.cur().Pos, "expected a name after 'as'")
			}
			arg.As = p.cur().Text
			p.pos++
		case p.peekIdent("limit"):
			p.pos++
			n, err := p.parseIntLiteralHere()
			if err != nil {
				return PullArg{}, err
			}
			arg.Limit = &n
		case p.peekIdent("offset"):
			p.pos++
			n, err := p.parseIntLiteralHere()
			if err != nil {
				return PullArg{}, err
			}
			arg.Offset = &n
		case p.peekIdent("default"):
			p.pos++
			v, newPos, err := expr.Climb(p.tokens, p.pos, 0)
			if err != nil {
				return PullArg{}, err
			}
			p.pos = newPos
			arg.Default = &v
		case p.peekIdent("recurse"):
			p.pos++
			v, newPos, err := expr.Climb(p.tokens, p.pos, 0)
			if err != nil {
				return PullArg{}, err
			}
			p.pos = newPos
			arg.Recurse = &v
		case p.peekIdent("depth"):
			p.pos++
			n, err := p.parseIntLiteralHere()
			if err != nil {
				return PullArg{}, err
			}
			arg.Depth = &n
		default:
			return arg, nil
		}
	}
}

// parseNestedPullArg handles `attr{ subspec }` where subspec is a brace-
// delimited, comma-separated list of pull args.
func (p *parser) parseNestedPullArg(arg PullArg) (PullArg, error) {
	if err := p.expectPunct("{"); err != nil {
		return PullArg{}, err
	}
	var sub []PullArg
	if !p.peekPunct("}") {
		for {
			a, err := p.parsePullArg()
			if err != nil {
				return PullArg{}, err
			}
			sub = append(sub, a)
			if p.peekPunct(",") {
				p.pos++
				continue
			}
			break
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return PullArg{}, err
	}
	arg.Sub = sub

	for {
		switch {
		case p.peekIdent("as"):
			p.pos++
			if p.cur().Kind != expr.KindIdent {
				return PullArg{}, errUnexpectedRule(p.cur().Pos, "expected a name after 'as'")
			}
			arg.As = p.cur().Text
			p.pos++
		case p.peekIdent("limit"):
			p.pos++
			n, err := p.parseIntLiteralHere()
			if err != nil {
				return PullArg{}, err
			}
			arg.Limit = &n
		case p.peekIdent("offset"):
			p.pos++
			n, err := p.parseIntLiteralHere()
			if err != nil {
				return PullArg{}, err
			}
			arg.Offset = &n
		default:
			return arg, nil
		}
	}
}

func (p *parser) parseIntLiteralHere() (int64, error) {
	v, newPos, err := expr.Climb(p.tokens, p.pos, 0)
	if err != nil {
		return 0, err
	}
	p.pos = newPos
	i, ok := v.AsInt()
	if !ok {
		return 0, errUnexpectedRule(p.cur().Pos, "expected an integer literal")
	}
	return i, nil
}
