// Command weekbudgetctl inspects and edits the budget ledger directly in the
// configured store, without going through the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"weekbudget/internal/cli"
	"weekbudget/internal/ledger"
	applog "weekbudget/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cli.LoadEnvFile()

	var (
		backendType string
		dbPath      string
		logLevel    string
		asJSON      bool
	)
	flagSet := pflag.NewFlagSet("weekbudgetctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&backendType, "backend", "", "store backend, memory or sqlite (default: DATA_BACKEND)")
	flagSet.StringVar(&dbPath, "db", "", "SQLite database path (default: SQLITE_DB_PATH)")
	flagSet.StringVar(&logLevel, "log-level", "error", "log level written to stderr")
	flagSet.BoolVar(&asJSON, "json", false, "print results as JSON")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(stderr, flagSet)
		if help {
			return 0
		}
		return 2
	}

	// Flags override the environment so they go through the same validation.
	if backendType != "" {
		_ = os.Setenv("DATA_BACKEND", backendType)
	}
	if dbPath != "" {
		_ = os.Setenv("SQLITE_DB_PATH", dbPath)
	}
	logger := cli.SetupLogger(logLevel, applog.ComponentCLI, stderr)
	cfg := cli.LoadAndValidateConfig(logger)
	// Events are published by the server only.
	cfg.AMQPURL = ""

	ctx := context.Background()
	l, res, err := cli.OpenLedger(ctx, logger, cfg)
	if err != nil {
		fmt.Fprintln(stderr, "open ledger:", err)
		return 1
	}
	defer func() {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
	}()

	env := &env{ledger: l, out: stdout, json: asJSON}
	if err := execute(ctx, env, flagSet.Arg(0), flagSet.Args()[1:]); err != nil {
		var usage usageError
		switch {
		case errors.As(err, &usage):
			fmt.Fprintln(stderr, err)
			return 2
		case errors.Is(err, ledger.ErrRejected):
			fmt.Fprintln(stderr, "refused:", ledger.Reason(err))
			return 1
		default:
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	return 0
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `weekbudgetctl edits the weekly 50/30/20 budget stored by weekbudget.

Usage:
  weekbudgetctl [flags] <command> [args]

Commands:
`)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-36s %s\n", c.usage, c.summary)
	}
	fmt.Fprint(w, "\nFlags:\n")
	fmt.Fprint(w, flagSet.FlagUsages())
}
