package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/renderer"
	"github.com/google/subcommands"
)

type logCmd struct {
	limit int
}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list the latest transactions" }
func (*logCmd) Usage() string {
	return `rf log [-n <limit>]

  Lists the most recently recorded transactions first.
`
}

func (c *logCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", realfolio.DefaultListLimit, fmt.Sprintf("Number of transactions, at most %d", realfolio.MaxListLimit))
}

func (c *logCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		txs, err := a.svc.Transactions(ctx, a.portfolio, c.limit)
		if err != nil {
			return err
		}
		printMarkdown(renderer.Transactions(txs))
		return nil
	})
}

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the ledger file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `rf fmt

  Validates the ledger, sorts it in replay order and rewrites it in the
  canonical JSONL format. The file is left unchanged when it does not replay.
`
}

func (*fmtCmd) SetFlags(*flag.FlagSet) {}

func (*fmtCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		ledger, err := a.store.Load(ctx, a.portfolio)
		if err != nil {
			return err
		}
		if err := realfolio.Check(ledger); err != nil {
			return err
		}
		if err := a.store.Save(ctx, a.portfolio, ledger); err != nil {
			return err
		}
		path, _ := a.store.Path(a.portfolio)
		fmt.Fprintf(os.Stderr, "Formatted %d transactions in %s\n", ledger.Len(), path)
		return nil
	})
}
