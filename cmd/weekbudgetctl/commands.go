package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"weekbudget/internal/core"
	"weekbudget/internal/ledger"
)

type env struct {
	ledger *ledger.Ledger
	out    io.Writer
	json   bool
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"show", "show", "print the active week", runShow},
	{"allowance", "allowance <amount>", "set the weekly allowance", runAllowance},
	{"add", "add <amount> <description> [-c cat] [-r]", "record an expense in the active week", runAdd},
	{"delete", "delete <id>", "remove an expense", runDelete},
	{"advance", "advance", "archive the active week and start the next", runAdvance},
	{"jump", "jump <year-week>", "make another week active", runJump},
	{"prev", "prev", "view the previous week", runPrev},
	{"next", "next", "view the next week", runNext},
	{"history", "history", "list archived weeks and statistics", runHistory},
}

func execute(ctx context.Context, e *env, name string, args []string) error {
	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, e, args)
		}
	}
	return usagef("unknown command %q", name)
}

func exactArgs(name string, args []string, n int) error {
	if len(args) != n {
		return usagef("%s: expected %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func runShow(_ context.Context, e *env, args []string) error {
	if err := exactArgs("show", args, 0); err != nil {
		return err
	}
	return e.printSnapshot(e.ledger.Snapshot())
}

func runAllowance(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("allowance", args, 1); err != nil {
		return err
	}
	amount, err := core.ParseAmount(args[0])
	if err != nil {
		return usagef("allowance: %v", err)
	}
	if err := e.ledger.SetAllowance(ctx, amount); err != nil {
		return err
	}
	return e.printSnapshot(e.ledger.Snapshot())
}

func runAdd(ctx context.Context, e *env, args []string) error {
	var (
		category  string
		recurring bool
	)
	fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&category, "category", "c", string(core.CategoryNeed), "need, want or savings")
	fs.BoolVarP(&recurring, "recurring", "r", false, "mark the expense as recurring")
	if err := fs.Parse(args); err != nil {
		return usagef("add: %v", err)
	}
	if fs.NArg() < 2 {
		return usagef("add: expected <amount> <description>")
	}

	// Unparseable amounts go to the ledger as zero so they are refused
	// with the same reason the API gives.
	amount, _ := core.ParseAmount(fs.Arg(0))
	exp, err := e.ledger.AddExpense(ctx, ledger.NewExpense{
		Amount:      amount,
		Description: strings.Join(fs.Args()[1:], " "),
		Category:    core.Category(category),
		Recurring:   recurring,
	})
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(exp)
	}
	fmt.Fprintf(e.out, "added %s: %s %s (%s)\n", exp.ID, core.FormatPeso(exp.Amount), exp.Description, exp.Category.Label())
	return nil
}

func runDelete(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("delete", args, 1); err != nil {
		return err
	}
	deleted := e.ledger.DeleteExpense(ctx, args[0])
	if e.json {
		return e.printJSON(map[string]bool{"deleted": deleted})
	}
	if !deleted {
		fmt.Fprintf(e.out, "no expense with id %s\n", args[0])
		return nil
	}
	fmt.Fprintf(e.out, "deleted %s\n", args[0])
	return nil
}

func runAdvance(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("advance", args, 0); err != nil {
		return err
	}
	summary, err := e.ledger.AdvanceWeek(ctx)
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(summary)
	}
	fmt.Fprintf(e.out, "archived week %d, %d: spent %s, remaining %s\n",
		summary.WeekNumber, summary.Year, core.FormatPeso(summary.TotalSpent), core.FormatPeso(summary.Remaining))
	return e.printSnapshot(e.ledger.Snapshot())
}

func runJump(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("jump", args, 1); err != nil {
		return err
	}
	if err := e.ledger.JumpToWeek(ctx, args[0]); err != nil {
		return err
	}
	return e.printSnapshot(e.ledger.Snapshot())
}

func runPrev(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("prev", args, 0); err != nil {
		return err
	}
	e.ledger.PreviousWeek(ctx)
	return e.printSnapshot(e.ledger.Snapshot())
}

func runNext(ctx context.Context, e *env, args []string) error {
	if err := exactArgs("next", args, 0); err != nil {
		return err
	}
	e.ledger.NextWeekView(ctx)
	return e.printSnapshot(e.ledger.Snapshot())
}

func runHistory(_ context.Context, e *env, args []string) error {
	if err := exactArgs("history", args, 0); err != nil {
		return err
	}
	history, stats := e.ledger.History(), e.ledger.Stats()
	if e.json {
		return e.printJSON(struct {
			History []core.WeekSummary `json:"history"`
			Stats   core.HistoryStats  `json:"stats"`
		}{history, stats})
	}
	if len(history) == 0 {
		fmt.Fprintln(e.out, "no archived weeks")
		return nil
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WEEK\tDATES\tALLOWANCE\tSPENT\tREMAINING\tSAVED")
	for _, w := range history {
		fmt.Fprintf(tw, "%s\t%s..%s\t%s\t%s\t%s\t%s\n", w.ID, w.StartDate, w.EndDate,
			core.FormatPeso(w.Allowance), core.FormatPeso(w.TotalSpent),
			core.FormatPeso(w.Remaining), core.FormatPeso(w.Savings))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "\n%d of %d weeks on budget, best savings %s, average spent %s, total saved %s\n",
		stats.WeeksOnBudget, stats.WeeksArchived, core.FormatPeso(stats.BestSavings),
		core.FormatPeso(stats.AverageSpent), core.FormatPeso(stats.TotalSaved))
	return nil
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *env) printSnapshot(s core.Snapshot) error {
	if e.json {
		return e.printJSON(s)
	}

	archived := ""
	if s.Archived {
		archived = " [archived]"
	}
	fmt.Fprintf(e.out, "Week %d, %d (%s to %s)%s\n", s.WeekNumber, s.Year, s.StartDate, s.EndDate, archived)
	if !s.HasAllowance {
		fmt.Fprintln(e.out, "No allowance set.")
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Allowance\t%s\n", core.FormatPeso(s.Allowance))
	fmt.Fprintf(tw, "Spent\t%s\t%.0f%%\n", core.FormatPeso(s.TotalSpent), s.BudgetUsedPct)
	fmt.Fprintf(tw, "Remaining\t%s\n", core.FormatPeso(s.Remaining))
	fmt.Fprintln(tw)
	for _, u := range s.Usage {
		fmt.Fprintf(tw, "%s\t%s / %s\t%.0f%%\n", u.Label, core.FormatPeso(u.Spent), core.FormatPeso(u.Allocated), u.UsedPct)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Expenses) == 0 {
		return nil
	}
	fmt.Fprintln(e.out)
	tw = tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, x := range s.Expenses {
		desc := x.Description
		if x.Recurring {
			desc += " (recurring)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", x.ID, x.Date, x.Category, core.FormatPeso(x.Amount), desc)
	}
	return tw.Flush()
}
