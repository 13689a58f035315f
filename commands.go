package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"bitnum/internal/closure"
	"bitnum/internal/config"
	"bitnum/internal/render"
	"bitnum/internal/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type cli struct {
	opts        config.Options
	configPath  string
	verbose     bool
	metricsFile string
	workers     int
	fixedPoint  bool
}

func newRootCmd() *cobra.Command {
	c := &cli{opts: config.Default()}
	root := &cobra.Command{
		Use:           "bitnum",
		Short:         "Cheapest bit-budget expression for every value in a range",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.resolve(cmd)
		},
		RunE: c.runReport,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML file with search and report options")
	pf.Uint16Var(&c.opts.Limit, "limit", c.opts.Limit, "largest value the search keeps")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log every closure pass")
	pf.StringVar(&c.metricsFile, "metrics-file", "", "write closure metrics to this Prometheus textfile")

	f := root.Flags()
	f.Uint16Var(&c.opts.MaxNum, "max-num", c.opts.MaxNum, "report values 0..max-num")
	f.BoolVar(&c.opts.PrintOne, "print-one", c.opts.PrintOne, "print only the cheapest derivation of each value")
	f.BoolVar(&c.opts.SimplePrint, "simple-print", c.opts.SimplePrint, "print \"<value>: <expr>\" lines")
	f.BoolVar(&c.opts.PrintBig, "print-big", c.opts.PrintBig, "print only derivations with an operand above max-num")
	f.BoolVar(&c.opts.SkipTop, "skip-top", c.opts.SkipTop, "skip derivations repeating a top operator already printed")
	f.BoolVar(&c.opts.MarkMax, "mark-max", c.opts.MarkMax, "mark each new longest expression with *")

	root.AddCommand(c.verifyCmd(), c.lookupCmd())
	return root
}

func (c *cli) verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the table invariants and that every expression evaluates to its value",
		Args:  cobra.NoArgs,
		RunE:  c.runVerify,
	}
	cmd.Flags().IntVar(&c.workers, "workers", 0, "round-trip workers (0 = one per CPU)")
	cmd.Flags().BoolVar(&c.fixedPoint, "fixed-point", true, "also confirm one more pass adds nothing")
	return cmd
}

func (c *cli) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup VALUE...",
		Short: "Print every live derivation of the given values",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runLookup,
	}
}

// resolve layers the config file under any flag set on the command line.
func (c *cli) resolve(cmd *cobra.Command) error {
	if c.configPath == "" {
		return nil
	}
	loaded, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("limit") {
		c.opts.Limit = loaded.Limit
	}
	if !flags.Changed("max-num") {
		c.opts.MaxNum = loaded.MaxNum
	}
	if !flags.Changed("print-one") {
		c.opts.PrintOne = loaded.PrintOne
	}
	if !flags.Changed("simple-print") {
		c.opts.SimplePrint = loaded.SimplePrint
	}
	if !flags.Changed("print-big") {
		c.opts.PrintBig = loaded.PrintBig
	}
	if !flags.Changed("skip-top") {
		c.opts.SkipTop = loaded.SkipTop
	}
	if !flags.Changed("mark-max") {
		c.opts.MarkMax = loaded.MarkMax
	}
	return nil
}

func (c *cli) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// build runs the closure and writes the metrics file when one is asked for.
func (c *cli) build(cmd *cobra.Command) (*closure.Table, *slog.Logger, error) {
	logger := c.logger(cmd)
	reg := prometheus.NewRegistry()
	t := closure.Build(c.opts.Limit,
		closure.WithLogger(logger),
		closure.WithMetrics(closure.NewMetrics(reg)))
	if c.metricsFile != "" {
		if err := prometheus.WriteToTextfile(c.metricsFile, reg); err != nil {
			return nil, nil, fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return t, logger, nil
}

func (c *cli) runReport(cmd *cobra.Command, args []string) error {
	if err := c.opts.Validate(); err != nil {
		return err
	}
	t, logger, err := c.build(cmd)
	if err != nil {
		return err
	}
	s, err := report.Write(cmd.OutOrStdout(), t, c.opts)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info("report written", "values", s.Values, "lines", s.Lines, "missing", len(s.Missing))
	return nil
}

func (c *cli) runVerify(cmd *cobra.Command, args []string) error {
	t, logger, err := c.build(cmd)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := closure.Verify(t, c.opts.Limit, c.fixedPoint); err != nil {
		return fmt.Errorf("table invariants: %w", err)
	}
	n, err := render.CheckRoundTrip(cmd.Context(), t, c.workers)
	if err != nil {
		return fmt.Errorf("round trip: %w", err)
	}
	logger.Info("table verified", "expressions", n, "elapsed", time.Since(start))
	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d keys, %d expressions evaluated\n", t.Len(), n)
	return nil
}

func (c *cli) runLookup(cmd *cobra.Command, args []string) error {
	values := make([]uint16, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseUint(a, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", a, err)
		}
		values = append(values, uint16(v))
	}
	t, _, err := c.build(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, v := range values {
		keys := t.Live(v)
		if len(keys) == 0 {
			fmt.Fprintf(out, "%d was not found\n", v)
			continue
		}
		for _, k := range keys {
			p, _ := t.Lookup(k)
			fmt.Fprintln(out, report.Line(k, p, render.Render(p, t, false), false))
		}
	}
	return nil
}
