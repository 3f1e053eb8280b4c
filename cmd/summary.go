package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/realfolio/date"
	"github.com/etnz/realfolio/renderer"
	"github.com/google/subcommands"
)

type summaryCmd struct {
	date string
	json bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "value the portfolio on a date" }
func (*summaryCmd) Usage() string {
	return `rf summary [-d <date>] [-json]

  Replays the ledger up to the date and values the cash, the interest deposits
  and the holdings in USD and TRY, with the inflation adjusted return.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date for the summary. See 'rf topic valuation'.")
	f.BoolVar(&c.json, "json", false, "Print the summary as JSON")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		return usageError(f, "invalid date %q: %v", c.date, err)
	}
	return run(ctx, func(a *app) error {
		a.forecast(ctx)
		view, err := a.svc.Snapshot(ctx, a.portfolio, on)
		if err != nil {
			return err
		}
		if c.json {
			return printJSON(view)
		}
		printMarkdown(renderer.Summary(view))
		return nil
	})
}

type pnlCmd struct {
	period string
	json   bool
}

func (*pnlCmd) Name() string     { return "pnl" }
func (*pnlCmd) Synopsis() string { return "profit and loss over a period" }
func (*pnlCmd) Usage() string {
	return `rf pnl [-p 1m|3m|1y|5y|all|FROM..TO] [-json]

  Computes the profit and loss over the period in USD, in TRY and adjusted for
  inflation.
`
}

func (c *pnlCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "1y", "Period. See 'rf topic pnl'.")
	f.BoolVar(&c.json, "json", false, "Print the profit and loss as JSON")
}

func (c *pnlCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		a.forecast(ctx)
		view, err := a.svc.PeriodPnL(ctx, a.portfolio, c.period)
		if err != nil {
			return fmt.Errorf("period %q: %w", c.period, err)
		}
		if c.json {
			return printJSON(view)
		}
		printMarkdown(renderer.PnL(view))
		return nil
	})
}
