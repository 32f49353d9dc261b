// Package chain parses relational-algebra "chain" path expressions
// (node-edge-node walks) into a join-predicate plan tree. The grammar
// (grammar.go) is participle-based, unlike internal/cozoscript's
// hand-written recursive descent: chain syntax has no embedded
// arbitrary-precedence sub-expressions to share a token stream with, so
// participle's declarative struct tags are a clean fit here.
package chain

import (
	"strings"

	"github.com/google/uuid"
)

// Direction is a chain edge's derived directionality.
type Direction int

const (
	Fwd Direction = iota
	Bwd
	Bidi
)

// JoinKind is a chain edge's derived join kind.
type JoinKind int

const (
	Inner JoinKind = iota
	Left
	Right
)

// ElemKind discriminates a ChainEl as a node or edge element.
type ElemKind int

const (
	ElemNode ElemKind = iota
	ElemEdge
)

// ChainEl is one element of a parsed chain.
type ChainEl struct {
	Kind    ElemKind
	Binding string
	Target  string
	Assocs  []string
	Dir     Direction // meaningful only when Kind == ElemEdge
	Join    JoinKind  // meaningful only when Kind == ElemEdge
}

// Chain is the parsed, binding-resolved path: alternating node and edge
// elements, guaranteed non-empty.
type Chain struct {
	Elements []ChainEl
}

// convertChain turns the raw participle grammar tree into a Chain,
// synthesizing anonymous bindings and rejecting duplicates within the
// chain (steps 1-2).
func convertChain(raw *chainAST) (Chain, error) {
	seen := map[string]bool{}
	bind := func(given string) (string, error) {
		b := given
		if b == "" {
			b = "@" + uuid.New().String()
		}
		if seen[b] {
			return "", errDuplicateBinding(b)
		}
		seen[b] = true
		return b, nil
	}

	firstBinding, err := bind(raw.First.Binding)
	if err != nil {
		return Chain{}, err
	}
	elements := []ChainEl{{
		Kind:    ElemNode,
		Binding: firstBinding,
		Target:  raw.First.Table,
		Assocs:  raw.First.Assocs,
	}}

	for _, link := range raw.Rest {
		dir, join, err := deriveMarker(link.LeftConn, link.RightConn)
		if err != nil {
			return Chain{}, err
		}

		edgeBinding, err := bind(link.Edge.Binding)
		if err != nil {
			return Chain{}, err
		}
		elements = append(elements, ChainEl{
			Kind:    ElemEdge,
			Binding: edgeBinding,
			Target:  link.Edge.Table,
			Assocs:  link.Edge.Assocs,
			Dir:     dir,
			Join:    join,
		})

		nodeBinding, err := bind(link.Node.Binding)
		if err != nil {
			return Chain{}, err
		}
		elements = append(elements, ChainEl{
			Kind:    ElemNode,
			Binding: nodeBinding,
			Target:  link.Node.Table,
			Assocs:  link.Node.Assocs,
		})
	}

	return Chain{Elements: elements}, nil
}

// deriveMarker derives a chain edge's direction and join kind from its two
// connector markers. The connector lexeme carries an optional '?' outer
// mark on its node side (leading the left connector, trailing the right
// one) and an optional '<'/'>' arrow (grammar.go's Connector token); the
// concrete spelling is this implementation's own surface syntax, chosen to
// put each outer-join marker next to the node it makes optional.
func deriveMarker(leftConn, rightConn string) (Direction, JoinKind, error) {
	srcOuter := strings.HasPrefix(leftConn, "?")
	dstOuter := strings.HasSuffix(rightConn, "?")
	leftArrow := strings.Contains(leftConn, "<")
	rightArrow := strings.Contains(rightConn, ">")

	var dir Direction
	switch {
	case leftArrow == rightArrow:
		dir = Bidi
	case rightArrow:
		dir = Fwd
	default:
		dir = Bwd
	}

	var join JoinKind
	switch {
	case !srcOuter && !dstOuter:
		join = Inner
	case !srcOuter && dstOuter:
		join = Left
	case srcOuter && !dstOuter:
		join = Right
	default:
		return 0, 0, errNoFullOuterInChain()
	}
	return dir, join, nil
}
