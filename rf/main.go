// Command rf values a USD/TRY portfolio and reports its profit and loss.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/realfolio/cmd"
	"github.com/etnz/realfolio/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	name := path.Base(os.Args[0])
	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	// exits when the shell asks for completions
	completion(commander).Complete(name)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion describes the commands and their flags to the shell.
func completion(commander *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flags(flag.CommandLine),
	}
	root.Flags["ledger-dir"] = predict.Dirs("*")
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		root.Sub[c.Name()] = &complete.Command{Flags: flags(fs)}
	})
	if topic, ok := root.Sub["topic"]; ok {
		if topics, err := docs.List(); err == nil {
			topic.Args = predict.Set(topics)
		}
	}
	if exchange, ok := root.Sub["exchange"]; ok {
		exchange.Flags["dir"] = predict.Set{"buy_usd", "sell_usd"}
	}
	if pnl, ok := root.Sub["pnl"]; ok {
		pnl.Flags["p"] = predict.Set{"1m", "3m", "1y", "5y", "all"}
	}
	for _, name := range []string{"deposit", "withdraw", "interest-in", "interest-out"} {
		if c, ok := root.Sub[name]; ok {
			c.Flags["c"] = predict.Set{"USD", "TRY"}
		}
	}
	return root
}

func flags(fs *flag.FlagSet) map[string]complete.Predictor {
	m := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			m[f.Name] = predict.Nothing
			return
		}
		m[f.Name] = predict.Something
	})
	return m
}
