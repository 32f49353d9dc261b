package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/knotql/knotql"
)

const helpText = `knotql interactive REPL

Commands:
  table <name> <keyArity> <col1,col2,...>   Create an empty base table
  load <name> <file.json>                    Load rows (JSON array of arrays) into a table
  parse <expr>                               Parse and print an expression
  script <cozoscript...>                     Parse a CozoScript program, print its JSON AST
  chain <chain expr>                         Plan a chain expression against loaded tables
  algo <name> <table> [key=value ...]        Run a registered algorithm over one relation
  algos <name1> <table1> [k=v...] ; ...      Run a ';'-separated batch of algorithms concurrently
  help                                        Show this help message
  exit / quit                                 Exit the REPL
`

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session against one knotql Engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepl(cmd)
		},
	}
}

func runRepl(cmd *cobra.Command) error {
	engine := knotql.New()
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Fprintln(out, "knotql — graph/relational query engine")
	fmt.Fprintln(out, `Type "help" for available commands.`)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		switch strings.ToLower(parts[0]) {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprint(out, helpText)
		case "table":
			if err := replTable(engine, parts[1:]); err != nil {
				slog.Warn("table command failed", "error", err)
			}
		case "load":
			if err := replLoad(engine, parts[1:]); err != nil {
				slog.Warn("load command failed", "error", err)
			}
		case "parse":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: parse <expression>")
				continue
			}
			v, err := engine.ParseExpression(strings.Join(parts[1:], " "))
			if err != nil {
				slog.Warn("parse failed", "error", err)
				continue
			}
			fmt.Fprintln(out, v.String())
		case "script":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: script <cozoscript source>")
				continue
			}
			script, err := engine.ParseScript(strings.Join(parts[1:], " "))
			if err != nil {
				slog.Warn("script parse failed", "error", err)
				continue
			}
			b, err := knotql.MarshalScriptJSON(script)
			if err != nil {
				slog.Warn("script marshal failed", "error", err)
				continue
			}
			fmt.Fprintln(out, string(b))
		case "chain":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: chain <chain expression>")
				continue
			}
			plan, err := engine.PlanChain(strings.Join(parts[1:], " "))
			if err != nil {
				slog.Warn("chain planning failed", "error", err)
				continue
			}
			bindings := plan.Bindings()
			names := make([]string, 0, len(bindings))
			for b := range bindings {
				names = append(names, b)
			}
			fmt.Fprintf(out, "plan bindings: %v\n", names)
		case "algo":
			if err := replAlgo(out, engine, parts[1:]); err != nil {
				slog.Warn("algorithm run failed", "error", err)
			}
		case "algos":
			rest := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
			if err := replAlgos(out, engine, rest); err != nil {
				slog.Warn("algorithm batch failed", "error", err)
			}
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q (try \"help\")\n", parts[0])
		}
	}
}

func replTable(engine *knotql.Engine, args []string) error {
	if len(args) < 3 {
		return oops.Code("BAD_USAGE").Errorf("usage: table <name> <keyArity> <col1,col2,...>")
	}
	name := args[0]
	keyArity, err := strconv.Atoi(args[1])
	if err != nil {
		return oops.Code("BAD_USAGE").With("keyArity", args[1]).Wrap(err)
	}
	cols := strings.Split(args[2], ",")
	info := knotql.TableInfo{Name: name, KeyArity: keyArity, Columns: cols}
	if err := engine.CreateTable(info, nil); err != nil {
		return oops.Code("CREATE_TABLE_FAILED").With("table", name).Wrap(err)
	}
	return nil
}

func replLoad(engine *knotql.Engine, args []string) error {
	if len(args) < 2 {
		return oops.Code("BAD_USAGE").Errorf("usage: load <name> <file.json>")
	}
	name, path := args[0], args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		return oops.Code("READ_FAILED").With("path", path).Wrap(err)
	}
	var rows [][]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return oops.Code("DECODE_FAILED").With("path", path).Wrap(err)
	}
	info, err := engine.TableInfo(name)
	if err != nil {
		return oops.Code("LOAD_FAILED").With("table", name).Errorf("table %q must be created with \"table\" before it can be loaded", name)
	}
	tuples := make([]knotql.Tuple, len(rows))
	for i, row := range rows {
		tuple := make(knotql.Tuple, len(row))
		for j, cell := range row {
			v, err := jsonCellToValue(cell)
			if err != nil {
				return oops.Code("DECODE_FAILED").With("row", i).With("col", j).Wrap(err)
			}
			tuple[j] = v
		}
		tuples[i] = tuple
	}
	if err := engine.ReplaceTable(info, tuples); err != nil {
		return oops.Code("LOAD_FAILED").With("table", name).Wrap(err)
	}
	return nil
}

// scratch is a throwaway Engine used only for its expression parser, so a
// JSON-decoded cell or a REPL-typed option literal can be turned into a
// knotql.Value without duplicating internal/expr's literal grammar here.
var scratch = knotql.New()

func jsonCellToValue(cell any) (knotql.Value, error) {
	text, err := json.Marshal(cell)
	if err != nil {
		return knotql.Value{}, err
	}
	switch v := cell.(type) {
	case string:
		return scratch.ParseExpression(strconv.Quote(v))
	case float64, bool, nil:
		return scratch.ParseExpression(string(text))
	default:
		return knotql.Value{}, oops.Code("UNSUPPORTED_CELL").Errorf("unsupported JSON cell %T", v)
	}
}

// replAlgo runs a registered algorithm and prints its output. Algorithms
// with a typed Result (a path, a probability, a boolean) print that
// result's String() form; algorithms without one (DegreeCentrality) fall
// back to a tab-separated dump of the raw output rows.
func replAlgo(out io.Writer, engine *knotql.Engine, args []string) error {
	if len(args) < 2 {
		return oops.Code("BAD_USAGE").Errorf("usage: algo <name> <table> [key=value ...]")
	}
	name, table := args[0], args[1]
	opts := map[string]knotql.Value{}
	for _, kv := range args[2:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return oops.Code("BAD_USAGE").With("option", kv).Errorf("expected key=value")
		}
		val, err := scratch.ParseExpression(v)
		if err != nil {
			return oops.Code("BAD_OPTION").With("option", k).Wrap(err)
		}
		opts[k] = val
	}
	rels := []knotql.RelArg{knotql.FromTable(table)}

	res, err := engine.RunAlgorithmResult(context.Background(), name, rels, opts)
	if err == nil {
		fmt.Fprintln(out, res.String())
		return nil
	}
	if !knotql.IsNoTypedResult(err) {
		return oops.Code("ALGO_FAILED").With("algorithm", name).Wrap(err)
	}

	ds, err := engine.RunAlgorithm(context.Background(), name, rels, opts)
	if err != nil {
		return oops.Code("ALGO_FAILED").With("algorithm", name).Wrap(err)
	}
	it, err := ds.Iter(context.Background())
	if err != nil {
		return oops.Code("ITER_FAILED").Wrap(err)
	}
	for it.Next() {
		tuple := it.Tuple()
		cells := make([]string, len(tuple))
		for i, v := range tuple {
			cells[i] = v.String()
		}
		fmt.Fprintln(out, strings.Join(cells, "\t"))
	}
	return it.Err()
}

// replAlgos runs a ';'-separated batch of "name table [key=value ...]"
// groups concurrently via Engine.RunAlgorithms and prints the combined
// MultiResult.
func replAlgos(out io.Writer, engine *knotql.Engine, line string) error {
	var calls []knotql.AlgorithmCall
	for _, group := range strings.Split(line, ";") {
		fields := strings.Fields(strings.TrimSpace(group))
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return oops.Code("BAD_USAGE").Errorf("usage: algos <name1> <table1> [k=v...] ; <name2> <table2> [k=v...] ; ...")
		}
		opts := map[string]knotql.Value{}
		for _, kv := range fields[2:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return oops.Code("BAD_USAGE").With("option", kv).Errorf("expected key=value")
			}
			val, err := scratch.ParseExpression(v)
			if err != nil {
				return oops.Code("BAD_OPTION").With("option", k).Wrap(err)
			}
			opts[k] = val
		}
		calls = append(calls, knotql.AlgorithmCall{
			Name: fields[0],
			Rels: []knotql.RelArg{knotql.FromTable(fields[1])},
			Opts: opts,
		})
	}
	if len(calls) == 0 {
		return oops.Code("BAD_USAGE").Errorf("usage: algos <name1> <table1> [k=v...] ; <name2> <table2> [k=v...] ; ...")
	}
	multi, err := engine.RunAlgorithms(context.Background(), calls)
	if err != nil {
		return oops.Code("ALGOS_FAILED").Wrap(err)
	}
	fmt.Fprintln(out, multi.String())
	return nil
}
