package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"GlobalLiquidity/internal/domain/models"
	"GlobalLiquidity/internal/services/report"

	"github.com/google/subcommands"
)

type engine interface {
	Compute(ctx context.Context, p models.Params) (*models.ResultTable, error)
	Components() []models.Component
	Invalidate(ctx context.Context) error
}

type opener func() (engine, error)

// commands builds the subcommands; tables go to out and run warnings to warn.
func commands(open opener, out, warn io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&tableCmd{open: open, out: out, warn: warn},
		&exportCmd{open: open, warn: warn},
		&componentsCmd{open: open, out: out},
		&invalidateCmd{open: open},
	}
}

// paramFlags are shared by every command that computes a table.
type paramFlags struct {
	years int
	shift int
}

func (p *paramFlags) register(f *flag.FlagSet) {
	f.IntVar(&p.years, "years", 8, "lookback in years (3..15)")
	f.IntVar(&p.shift, "shift", 0, "money supply shift in months (-24..24)")
}

func (p *paramFlags) params() models.Params {
	return models.Params{LookbackYears: p.years, ShiftMonths: p.shift}
}

func compute(ctx context.Context, open opener, warn io.Writer, p models.Params) (*models.ResultTable, subcommands.ExitStatus) {
	if err := p.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitUsageError
	}
	eng, err := open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	t, err := eng.Compute(ctx, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	ids := make([]string, 0, len(t.Failures))
	for id := range t.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(warn, "warning: %s unavailable: %s\n", id, t.Failures[id])
	}
	for _, w := range t.Warnings {
		fmt.Fprintf(warn, "warning: %s\n", w)
	}
	return t, subcommands.ExitSuccess
}

type tableCmd struct {
	open   opener
	out    io.Writer
	warn   io.Writer
	params paramFlags
	format string
}

func (*tableCmd) Name() string     { return "table" }
func (*tableCmd) Synopsis() string { return "print the global liquidity table" }
func (*tableCmd) Usage() string {
	return `liqctl table [-years <n>] [-shift <months>] [-format text|csv|json]

  Computes the monthly table and prints it to stdout.
`
}

func (c *tableCmd) SetFlags(f *flag.FlagSet) {
	c.params.register(f)
	f.StringVar(&c.format, "format", "text", "output format: text, csv or json")
}

func (c *tableCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch c.format {
	case "text", "csv", "json":
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	t, status := compute(ctx, c.open, c.warn, c.params.params())
	if status != subcommands.ExitSuccess {
		return status
	}

	var err error
	switch c.format {
	case "csv":
		err = report.WriteCSV(c.out, t)
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		err = enc.Encode(t)
	default:
		err = writeText(c.out, t)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeText(w io.Writer, t *models.ResultTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "date\tglobal_m2\tglobal_assets\tprice\tratio\t")
	for _, r := range t.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			r.Date.Format("2006-01-02"),
			cell(r.GlobalM2, 2), cell(r.GlobalAssets, 2), cell(r.Price, 0), cell(r.Ratio, 4))
	}
	return tw.Flush()
}

func cell(v models.Value, prec int) string {
	if !v.OK {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, v.V)
}

type exportCmd struct {
	open   opener
	warn   io.Writer
	params paramFlags
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the table to an xlsx workbook" }
func (*exportCmd) Usage() string {
	return `liqctl export -o <file.xlsx> [-years <n>] [-shift <months>]

  Computes the monthly table and writes it with run metadata to a workbook.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.params.register(f)
	f.StringVar(&c.output, "o", "global-liquidity.xlsx", "output file")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, status := compute(ctx, c.open, c.warn, c.params.params())
	if status != subcommands.ExitSuccess {
		return status
	}

	file, err := os.Create(c.output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := report.WriteXLSX(file, t); err != nil {
		_ = file.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := file.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(c.warn, "wrote %d rows to %s\n", len(t.Rows), c.output)
	return subcommands.ExitSuccess
}

type componentsCmd struct {
	open opener
	out  io.Writer
}

func (*componentsCmd) Name() string     { return "components" }
func (*componentsCmd) Synopsis() string { return "list the configured series" }
func (*componentsCmd) Usage() string {
	return `liqctl components
`
}

func (*componentsCmd) SetFlags(*flag.FlagSet) {}

func (c *componentsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	eng, err := c.open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tmetric\tunit\tscale\tfx")
	for _, comp := range eng.Components() {
		fx := "-"
		if comp.FX != "" {
			fx = fmt.Sprintf("%s %s", comp.FXOp, comp.FX)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g/%g\t%s\n", comp.ID, comp.Metric, comp.Unit, comp.Scale.Num, comp.Scale.Den, fx)
	}
	if err := tw.Flush(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type invalidateCmd struct {
	open opener
}

func (*invalidateCmd) Name() string     { return "invalidate" }
func (*invalidateCmd) Synopsis() string { return "drop every cached table" }
func (*invalidateCmd) Usage() string {
	return `liqctl invalidate

  Removes cached tables from the configured cache so the next request
  recomputes. Only meaningful with the redis or layered cache.
`
}

func (*invalidateCmd) SetFlags(*flag.FlagSet) {}

func (c *invalidateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	eng, err := c.open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := eng.Invalidate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
