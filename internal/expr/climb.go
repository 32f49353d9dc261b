package expr

import (
	"strconv"
	"strings"

	"github.com/knotql/knotql/internal/value"
)

// precedence gives each binary operator's level ('s nine
// levels, lowest-binding first) and whether it associates right-to-left.
// "~~" (coalesce) is the highest-binding level; "**" is the only
// right-associative operator.
var precedence = map[string]struct {
	level int
	right bool
}{
	"||": {1, false},
	"&&": {2, false},
	">":  {3, false}, "<": {3, false}, ">=": {3, false}, "<=": {3, false},
	"%":  {4, false},
	"==": {5, false}, "!=": {5, false},
	"+": {6, false}, "-": {6, false}, "++": {6, false},
	"*": {7, false}, "/": {7, false},
	"**": {8, true},
	"~~": {9, false},
}

// Parse tokenizes and climbs text into a single Value expression tree,
// requiring the whole input to be consumed ('s public
// contract: "internal/expr ... parses a CozoScript expression into both a
// Value tree and a JSON-AST node").
func Parse(text string) (value.Value, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return value.Value{}, err
	}
	v, pos, err := Climb(tokens, 0, 0)
	if err != nil {
		return value.Value{}, err
	}
	if tokens[pos].Kind != KindEOF {
		return value.Value{}, newSyntaxError(tokens[pos].Pos, "unexpected trailing token %q", tokens[pos].Text)
	}
	return v, nil
}

// ParseJSON is Parse's JSON-AST-producing twin (): same
// climber, same grammar, the capitalized-op view from ast.go instead of a
// Value tree.
func ParseJSON(text string) (*Node, error) {
	v, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return ToAST(v), nil
}

// Climb runs precedence climbing starting at tokens[pos], stopping at the
// first token that cannot extend the expression (an unrecognized operator,
// a closing bracket, a separator, or EOF) and returning the position just
// past the last consumed token. This lets internal/cozoscript tokenize a
// whole script once and call Climb wherever its grammar embeds an
// expression, without pre-computing where that expression ends.
func Climb(tokens []Token, pos int, minPrec int) (value.Value, int, error) {
	lhs, pos, err := parseUnary(tokens, pos)
	if err != nil {
		return value.Value{}, pos, err
	}
	for {
		tok := tokens[pos]
		if tok.Kind != KindOp {
			break
		}
		info, ok := precedence[tok.Text]
		if !ok || info.level < minPrec {
			break
		}
		nextMin := info.level + 1
		if info.right {
			nextMin = info.level
		}
		rhs, newPos, err := Climb(tokens, pos+1, nextMin)
		if err != nil {
			return value.Value{}, newPos, err
		}
		lhs = value.Apply(tok.Text, []value.Value{lhs, rhs})
		pos = newPos
	}
	return lhs, pos, nil
}

func parseUnary(tokens []Token, pos int) (value.Value, int, error) {
	tok := tokens[pos]
	if tok.Kind == KindOp && tok.Text == "-" {
		operand, newPos, err := parseUnary(tokens, pos+1)
		if err != nil {
			return value.Value{}, newPos, err
		}
		return value.Apply("--", []value.Value{operand}), newPos, nil
	}
	if tok.Kind == KindOp && tok.Text == "!" {
		operand, newPos, err := parseUnary(tokens, pos+1)
		if err != nil {
			return value.Value{}, newPos, err
		}
		return value.Apply("!", []value.Value{operand}), newPos, nil
	}
	return parsePrimary(tokens, pos)
}

func parsePrimary(tokens []Token, pos int) (value.Value, int, error) {
	tok := tokens[pos]
	switch tok.Kind {
	case KindInt:
		i, err := parseIntLiteral(tok.Text)
		if err != nil {
			return value.Value{}, pos, newNumberError(tok.Pos, "%s", err)
		}
		return value.Int(i), pos + 1, nil
	case KindFloat:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return value.Value{}, pos, newNumberError(tok.Pos, "%s", err)
		}
		return value.Float(f), pos + 1, nil
	case KindString:
		return value.Text(tok.Text), pos + 1, nil
	case KindIdent, KindParam:
		return value.Var(tok.Text), pos + 1, nil
	case KindKeyword:
		switch tok.Text {
		case "null":
			return value.Null(), pos + 1, nil
		case "true":
			return value.Bool(true), pos + 1, nil
		case "false":
			return value.Bool(false), pos + 1, nil
		case "not":
			operand, newPos, err := parseUnary(tokens, pos+1)
			if err != nil {
				return value.Value{}, newPos, err
			}
			return value.Apply("!", []value.Value{operand}), newPos, nil
		}
		return value.Value{}, pos, newSyntaxError(tok.Pos, "unexpected keyword %q", tok.Text)
	case KindPunct:
		switch tok.Text {
		case "(":
			v, newPos, err := Climb(tokens, pos+1, 0)
			if err != nil {
				return value.Value{}, newPos, err
			}
			if !tokens[newPos].is(KindPunct, ")") {
				return value.Value{}, newPos, newSyntaxError(tokens[newPos].Pos, "expected ')'")
			}
			return v, newPos + 1, nil
		case "[":
			return parseList(tokens, pos)
		case "{":
			return parseDict(tokens, pos)
		}
	}
	return value.Value{}, pos, newSyntaxError(tok.Pos, "unexpected token %q", tok.Text)
}

func parseList(tokens []Token, pos int) (value.Value, int, error) {
	pos++ // consume '['
	var items []value.Value
	if tokens[pos].is(KindPunct, "]") {
		return value.List(items), pos + 1, nil
	}
	for {
		v, newPos, err := Climb(tokens, pos, 0)
		if err != nil {
			return value.Value{}, newPos, err
		}
		items = append(items, v)
		pos = newPos
		if tokens[pos].is(KindPunct, ",") {
			pos++
			continue
		}
		break
	}
	if !tokens[pos].is(KindPunct, "]") {
		return value.Value{}, pos, newSyntaxError(tokens[pos].Pos, "expected ']'")
	}
	return value.List(items), pos + 1, nil
}

func parseDict(tokens []Token, pos int) (value.Value, int, error) {
	pos++ // consume '{'
	entries := map[string]value.Value{}
	if tokens[pos].is(KindPunct, "}") {
		return value.DictValue(value.NewDict(entries)), pos + 1, nil
	}
	for {
		keyTok := tokens[pos]
		var key string
		switch keyTok.Kind {
		case KindString:
			key = keyTok.Text
		case KindIdent, KindKeyword:
			key = keyTok.Text
		default:
			return value.Value{}, pos, newSyntaxError(keyTok.Pos, "expected dict key")
		}
		pos++
		if !tokens[pos].is(KindPunct, ":") {
			return value.Value{}, pos, newSyntaxError(tokens[pos].Pos, "expected ':'")
		}
		pos++
		v, newPos, err := Climb(tokens, pos, 0)
		if err != nil {
			return value.Value{}, newPos, err
		}
		entries[key] = v
		pos = newPos
		if tokens[pos].is(KindPunct, ",") {
			pos++
			continue
		}
		break
	}
	if !tokens[pos].is(KindPunct, "}") {
		return value.Value{}, pos, newSyntaxError(tokens[pos].Pos, "expected '}'")
	}
	return value.DictValue(value.NewDict(entries)), pos + 1, nil
}

func parseIntLiteral(text string) (int64, error) {
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		return strconv.ParseInt(text[2:], 16, 64)
	case strings.HasPrefix(text, "0o") || strings.HasPrefix(text, "0O"):
		return strconv.ParseInt(text[2:], 8, 64)
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		return strconv.ParseInt(text[2:], 2, 64)
	default:
		return strconv.ParseInt(text, 10, 64)
	}
}
