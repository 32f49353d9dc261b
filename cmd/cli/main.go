// Command knotql-cli is the interactive front end to the knotql engine,
// dispatching cobra subcommands rather than a hand-rolled bufio.Scanner
// switch.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("knotql-cli failed", "error", err)
		os.Exit(1)
	}
}
