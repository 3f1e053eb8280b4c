package cmd

import (
	"context"
	"flag"

	"github.com/etnz/realfolio/renderer"
	"github.com/google/subcommands"
)

type cpiCmd struct{}

func (*cpiCmd) Name() string     { return "cpi" }
func (*cpiCmd) Synopsis() string { return "show the quarterly US CPI and the expected inflation" }
func (*cpiCmd) Usage() string {
	return `rf cpi

  Shows the quarterly CPI-U used to adjust returns for inflation, and the
  expected annual inflation used for the quarters not published yet.
`
}

func (*cpiCmd) SetFlags(*flag.FlagSet) {}

func (*cpiCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		exp := a.market.Expected(ctx)
		printMarkdown(renderer.CPI(a.market.CPIPoints(ctx), exp.AnnualRate, exp.Source))
		return nil
	})
}

type ratesCmd struct{}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "show the live USD/TRY rate and bank quotes" }
func (*ratesCmd) Usage() string {
	return `rf rates

  Shows the live USD/TRY market rate, and the bank buying and selling rates.
`
}

func (*ratesCmd) SetFlags(*flag.FlagSet) {}

func (*ratesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		printMarkdown(renderer.BankRate(a.market.LiveRate(ctx), a.market.BankRate(ctx)))
		return nil
	})
}
