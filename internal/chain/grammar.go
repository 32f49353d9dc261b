package chain

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// chainLexer tokenizes chain/path syntax such as
// `(a:Person)-[:Knows]->(b:Person+Tags)`. Connector captures both the
// optional directionality arrow and the optional outer-join marker ('?')
// on each side of an edge segment in one token, longest alternative first
// so e.g. "->?" isn't cut short into "->" followed by a stray "?".
var chainLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Connector", Pattern: `->\?|\?<-|<-|\?-|-\?|->|-`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[()\[\]:+,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// nodeAST is `(binding? : table assocs?)`, e.g. `(a:Person+Tags)`.
type nodeAST struct {
	Binding string   `parser:"\"(\" @Ident? \":\""`
	Table   string   `parser:"@Ident"`
	Assocs  []string `parser:"( \"+\" @Ident )* \")\""`
}

// edgeAST is `[binding? : table assocs?]`, e.g. `[:Knows]`.
type edgeAST struct {
	Binding string   `parser:"\"[\" @Ident? \":\""`
	Table   string   `parser:"@Ident"`
	Assocs  []string `parser:"( \"+\" @Ident )* \"]\""`
}

// chainLinkAST is one (connector, edge, connector, node) step following the
// chain's first node.
type chainLinkAST struct {
	LeftConn  string  `parser:"@Connector"`
	Edge      edgeAST `parser:"@@"`
	RightConn string  `parser:"@Connector"`
	Node      nodeAST `parser:"@@"`
}

// chainAST is the full parsed path: a first node, then zero or more
// edge-node links ("an ordered sequence of ChainEls
// alternating node and edge elements").
type chainAST struct {
	First nodeAST        `parser:"@@"`
	Rest  []chainLinkAST `parser:"( @@ )*"`
}

var chainParser = participle.MustBuild[chainAST](
	participle.Lexer(chainLexer),
	participle.Elide("Whitespace"),
)

// parseChainSyntax parses chain source into its raw grammar tree.
func parseChainSyntax(src string) (*chainAST, error) {
	return chainParser.ParseString("", src)
}
