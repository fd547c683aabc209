// Package main provides a command line host for adaptive filters over CSV
// files and DuckDB queries.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	adaptive "github.com/hugr-lab/adaptive-filter"
	"github.com/hugr-lab/adaptive-filter/duckdbtable"
	"github.com/hugr-lab/adaptive-filter/table"
	"github.com/hugr-lab/adaptive-filter/widget"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitInputError   = 2
	ExitRuntimeError = 3
)

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitRuntimeError
}

func main() {
	err := newRootCmd().Execute()
	os.Exit(exitCode(err))
}

// options holds the flags shared by all commands.
type options struct {
	verbose   bool
	csvPath   string
	duckdb    string
	query     string
	overrides string
	namespace string

	selects []string
	ranges  []string
	periods []string
	bounds  []string
	sql     bool
	limit   int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "adaptive-filter",
		Short: "Adaptive filter widgets for tabular data",
		Long: `adaptive-filter profiles the columns of a table, picks a filter widget
for each of them and applies widget states to the rows.

The table is read from a CSV file (--csv) or a DuckDB query (--duckdb, --query).
DuckDB queries need a binary built with the duckdb_arrow tag:

  go build -tags duckdb_arrow ./cmd/adaptive-filter

Exit codes:
  0 - Success
  1 - Invalid overrides or widget states
  2 - Table could not be loaded
  3 - Runtime errors

Examples:
  # Show the widgets of a CSV file
  adaptive-filter widgets --csv tips.csv

  # Filter rows and print the DuckDB WHERE clause
  adaptive-filter apply --csv tips.csv --select day=Sun,Sat --range tip=2:4 --sql`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&opts.csvPath, "csv", "", "Read the table from a CSV file")
	root.PersistentFlags().StringVar(&opts.duckdb, "duckdb", "", "DuckDB database path (\"\" with --query for in-memory)")
	root.PersistentFlags().StringVar(&opts.query, "query", "", "DuckDB query producing the table")
	root.PersistentFlags().StringVar(&opts.overrides, "overrides", "", "YAML file with widget overrides")
	root.PersistentFlags().StringVar(&opts.namespace, "namespace", "", "Widget input id namespace")

	widgetsCmd := &cobra.Command{
		Use:   "widgets",
		Short: "Print the resolved filter widgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWidgets(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply widget states and print the matching rows",
		Long: `Apply widget states and print the matching rows.

States:
  --select col=a,b            categorical selection
  --range  col=min:max        numeric range, either side may be empty
  --period col=from..to       dates (2006-01-02) or RFC 3339 timestamps
  --bounds col=minx,miny,maxx,maxy
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	applyCmd.Flags().StringArrayVar(&opts.selects, "select", nil, "Selection state col=a,b")
	applyCmd.Flags().StringArrayVar(&opts.ranges, "range", nil, "Range state col=min:max")
	applyCmd.Flags().StringArrayVar(&opts.periods, "period", nil, "Period state col=from..to; a date as upper bound includes the whole day")
	applyCmd.Flags().StringArrayVar(&opts.bounds, "bounds", nil, "Extent state col=minx,miny,maxx,maxy")
	applyCmd.Flags().BoolVar(&opts.sql, "sql", false, "Print the DuckDB WHERE clause")
	applyCmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum rows to print (0 for all)")

	root.AddCommand(widgetsCmd, applyCmd)
	return root
}

func runWidgets(ctx context.Context, stdout, stderr io.Writer, opts *options) error {
	tbl, f, err := openFilter(ctx, stderr, opts)
	if err != nil {
		return err
	}
	defer tbl.Release()

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tKIND\tLABEL\tINPUT\tDOMAIN")
	for _, w := range f.Widgets() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", w.Column, w.KindName, w.Label, w.InputID, domain(w))
	}
	if err := tw.Flush(); err != nil {
		return withCode(ExitRuntimeError, err)
	}

	for _, p := range f.Problems() {
		fmt.Fprintf(stderr, "warning: %v\n", p)
	}
	return nil
}

func runApply(ctx context.Context, stdout, stderr io.Writer, opts *options) error {
	tbl, f, err := openFilter(ctx, stderr, opts)
	if err != nil {
		return err
	}
	defer tbl.Release()

	states, err := parseStates(opts)
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	for _, s := range states {
		if err := f.Set(s.column, s.state); err != nil {
			return withCode(ExitConfigError, err)
		}
	}

	idx := f.Index()
	fmt.Fprintf(stdout, "matched %d of %d rows\n", idx.Len(), idx.NumRows())
	if opts.sql {
		fmt.Fprintf(stdout, "where: %s\n", f.WhereClause(nil))
	}

	rec, err := f.Filtered(ctx)
	if err != nil {
		return withCode(ExitRuntimeError, err)
	}
	defer rec.Release()

	return withCode(ExitRuntimeError, printRows(stdout, rec, opts.limit))
}

// openFilter loads the table and builds a filter over it.
// Caller must Release the table.
func openFilter(ctx context.Context, stderr io.Writer, opts *options) (*table.Table, *adaptive.Filter, error) {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	overrides, err := readOverrides(opts.overrides)
	if err != nil {
		return nil, nil, withCode(ExitConfigError, err)
	}

	tbl, err := loadTable(ctx, opts)
	if err != nil {
		return nil, nil, withCode(ExitInputError, err)
	}
	logger.Debug("Table loaded", "rows", tbl.NumRows(), "columns", tbl.Schema().NumFields())

	f, err := adaptive.New(tbl, overrides, adaptive.Config{
		Logger:    logger,
		Namespace: opts.namespace,
	})
	if err != nil {
		tbl.Release()
		return nil, nil, withCode(ExitConfigError, err)
	}
	return tbl, f, nil
}

func readOverrides(path string) (adaptive.Overrides, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open overrides: %w", err)
	}
	defer file.Close()
	return adaptive.LoadOverrides(file, nil)
}

func loadTable(ctx context.Context, opts *options) (*table.Table, error) {
	switch {
	case opts.csvPath != "" && opts.query != "":
		return nil, errors.New("--csv and --query are mutually exclusive")
	case opts.csvPath != "":
		file, err := os.Open(opts.csvPath)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer file.Close()
		return table.ReadCSV(ctx, file, memory.DefaultAllocator)
	case opts.query != "":
		db, err := sql.Open("duckdb", opts.duckdb)
		if err != nil {
			return nil, fmt.Errorf("open duckdb: %w", err)
		}
		defer db.Close()
		return duckdbtable.Query(ctx, db, opts.query)
	}
	return nil, errors.New("no table: use --csv or --query")
}

type columnState struct {
	column string
	state  widget.State
}

func parseStates(opts *options) ([]columnState, error) {
	var out []columnState
	add := func(flag string, values []string, parse func(string) (widget.State, error)) error {
		for _, v := range values {
			column, raw, ok := strings.Cut(v, "=")
			if !ok || column == "" {
				return fmt.Errorf("--%s %q: expected col=value", flag, v)
			}
			st, err := parse(raw)
			if err != nil {
				return fmt.Errorf("--%s %q: %w", flag, v, err)
			}
			out = append(out, columnState{column: column, state: st})
		}
		return nil
	}

	if err := add("select", opts.selects, parseSelection); err != nil {
		return nil, err
	}
	if err := add("range", opts.ranges, parseRange); err != nil {
		return nil, err
	}
	if err := add("period", opts.periods, parsePeriod); err != nil {
		return nil, err
	}
	if err := add("bounds", opts.bounds, parseBounds); err != nil {
		return nil, err
	}
	return out, nil
}

func parseSelection(raw string) (widget.State, error) {
	if raw == "" {
		return widget.Selection(nil), nil
	}
	return widget.Selection(strings.Split(raw, ",")), nil
}

func parseRange(raw string) (widget.State, error) {
	lo, hi, ok := strings.Cut(raw, ":")
	if !ok {
		return nil, errors.New("expected min:max")
	}
	var r widget.Range
	var err error
	if r.Min, err = optionalFloat(lo); err != nil {
		return nil, err
	}
	if r.Max, err = optionalFloat(hi); err != nil {
		return nil, err
	}
	return r, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parsePeriod(raw string) (widget.State, error) {
	from, to, ok := strings.Cut(raw, "..")
	if !ok {
		return nil, errors.New("expected from..to")
	}
	var p widget.Period
	var err error
	if p.From, err = optionalTime(from, false); err != nil {
		return nil, err
	}
	if p.To, err = optionalTime(to, true); err != nil {
		return nil, err
	}
	return p, nil
}

// optionalTime parses a date or an RFC 3339 time. A date used as an upper
// bound covers the whole day.
func optionalTime(s string, upper bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		if upper {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("cannot parse time %q", s)
}

func parseBounds(raw string) (widget.State, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, errors.New("expected minx,miny,maxx,maxy")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return widget.Within(orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}), nil
}

// domain describes what a widget offers to choose from.
func domain(w widget.Spec) string {
	switch {
	case len(w.Options) > 0:
		return strings.Join(w.Options, ",")
	case w.Min != nil && w.Max != nil:
		s := fmt.Sprintf("%g..%g", *w.Min, *w.Max)
		if w.Step > 0 {
			s += fmt.Sprintf(" step %g", w.Step)
		}
		return s
	case w.Start != nil && w.End != nil:
		return w.Start.Format(time.RFC3339) + ".." + w.End.Format(time.RFC3339)
	case w.Extent != nil:
		return fmt.Sprintf("[%g %g %g %g]", w.Extent.Min[0], w.Extent.Min[1], w.Extent.Max[0], w.Extent.Max[1])
	}
	return "-"
}

func printRows(w io.Writer, rec arrow.RecordBatch, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	schema := rec.Schema()
	for i := 0; i < schema.NumFields(); i++ {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, schema.Field(i).Name)
	}
	fmt.Fprintln(tw)

	rows := int(rec.NumRows())
	if limit > 0 && rows > limit {
		rows = limit
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < int(rec.NumCols()); c++ {
			if c > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, rec.Column(c).ValueStr(r))
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if more := int(rec.NumRows()) - rows; more > 0 {
		fmt.Fprintf(w, "... %d more rows\n", more)
	}
	return nil
}
