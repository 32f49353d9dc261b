package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/knotql/knotql"
)

// NewRootCmd builds the knotql-cli command tree: one NewXCmd constructor
// per subcommand, assembled by a single NewRootCmd.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knotql-cli",
		Short: "knotql - a graph/relational query engine",
		Long: `knotql parses CozoScript programs and relational-algebra chain
expressions, plans chains into join trees, and runs graph algorithms
over relations backed by an in-memory store.`,
	}

	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newScriptCmd())
	cmd.AddCommand(newChainCmd())
	cmd.AddCommand(newReplCmd())

	return cmd
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <expression>",
		Short: "Parse a single expression and print its parsed form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := knotql.New()
			v, err := e.ParseExpression(args[0])
			if err != nil {
				return oops.Code("PARSE_FAILED").With("expression", args[0]).Wrap(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
}

func newScriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "script <cozoscript source>",
		Short: "Parse a CozoScript program and print its normalized AST as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := knotql.New()
			script, err := e.ParseScript(args[0])
			if err != nil {
				return oops.Code("SCRIPT_PARSE_FAILED").Wrap(err)
			}
			b, err := knotql.MarshalScriptJSON(script)
			if err != nil {
				return oops.Code("SCRIPT_MARSHAL_FAILED").Wrap(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

func newChainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chain <chain expression>",
		Short: "Plan a chain expression (not available one-shot: there is no catalog to plan against; use repl)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return oops.Code("NO_CATALOG").Errorf("one-shot chain planning needs a populated catalog; run %q and use the 'chain' command there", "knotql-cli repl")
		},
	}
}
