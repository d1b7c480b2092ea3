package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/floatgauge/floatgauge"
	"github.com/floatgauge/floatgauge/errprop"
	"github.com/floatgauge/floatgauge/expr"
	"github.com/floatgauge/floatgauge/solver"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "floatgauge",
		Short:         "floating-point error tracking and bound checking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a yaml config file")

	root.AddCommand(selfcheckCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "floatgauge: %v\n", err)
		os.Exit(1)
	}
}

func selfcheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selfcheck",
		Short: "propagate errors through a sample computation and query the solver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := floatgauge.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = floatgauge.LoadConfig(configPath); err != nil {
					return err
				}
			}
			return selfcheck(cmd, cfg)
		},
	}
}

// selfcheck runs the sample scenario: two inputs with unspecified relative
// errors are added, the sum's error is bounded, and z3 (when installed)
// maximizes the input errors under simple constraints.
func selfcheck(cmd *cobra.Command, cfg *floatgauge.Config) error {
	session := floatgauge.NewSession(cfg, nil)
	b := session.Builder
	ledger := session.Ledger

	zero := b.Constant(0, expr.Width32)
	a := b.Read(b.Array("a", expr.Width64), zero)
	bb := b.Read(b.Array("b", expr.Width64), zero)

	errA := ledger.GetError("a", a)
	errB := ledger.GetError("b", bb)

	sum := b.Add(a, bb)
	ledger.PropagateError(errprop.OpAdd, "sum", sum, []errprop.Operand{
		{Key: "a", Expr: a},
		{Key: "b", Expr: bb},
	})
	ledger.OutputErrorBound("sum", 0.05, &errprop.Location{
		Line:     42,
		File:     "sample.c",
		Dir:      "selfcheck",
		Function: "add",
	})

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "ledger state:")
	ledger.Dump(out)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "report:")
	if err := session.WriteReport(out); err != nil {
		return err
	}
	fmt.Fprintln(out)

	if !session.Backend.Available() {
		fmt.Fprintln(out, "z3 not found, skipping solver query")
		return nil
	}

	arrays := expr.ArraysOf(errA, errB)
	constraints := []expr.Expr{
		b.Ule(errA, b.Constant(3, expr.Width8)),
		b.Ule(errB, b.Constant(5, expr.Width8)),
	}
	q := solver.NewQuery(constraints, b.False())
	values, hasSolution, err := session.Optimizer.ComputeOptimalValues(cmd.Context(), q, arrays)
	if err != nil {
		return err
	}
	if !hasSolution {
		return fmt.Errorf("selfcheck: constraints reported unsatisfiable")
	}
	for i, v := range values {
		fmt.Fprintf(out, "max %s = %s\n", arrays[i].Name, formatOptimal(v))
	}
	fmt.Fprintln(out)

	printStats(out, session.Stats)
	return nil
}

func formatOptimal(v solver.OptimalValue) string {
	if v.Infinite {
		return "unbounded"
	}
	s := fmt.Sprintf("%g", v.Value)
	if v.Epsilon {
		s += " (open bound)"
	}
	return s
}

// printStats renders the solver counters as an aligned two-column table.
func printStats(out io.Writer, stats *solver.Stats) {
	rows := [][2]string{
		{"queries", fmt.Sprintf("%d", stats.Queries)},
		{"counterexample queries", fmt.Sprintf("%d", stats.QueryCounterexamples)},
		{"valid", fmt.Sprintf("%d", stats.QueriesValid)},
		{"invalid", fmt.Sprintf("%d", stats.QueriesInvalid)},
		{"query time", stats.QueryTime.String()},
	}
	width := 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r[0]); w > width {
			width = w
		}
	}
	bold, reset := "\x1b[1m", "\x1b[0m"
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		bold, reset = "", ""
	}
	fmt.Fprintf(out, "%ssolver stats%s\n", bold, reset)
	for _, r := range rows {
		pad := strings.Repeat(" ", width-runewidth.StringWidth(r[0]))
		fmt.Fprintf(out, "  %s%s  %s\n", r[0], pad, r[1])
	}
}
