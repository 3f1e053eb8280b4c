package cmd

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/etnz/realfolio/api"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the portfolios over HTTP" }
func (*serveCmd) Usage() string {
	return `rf serve [-addr <host:port>]

  Serves every portfolio of the ledger directory over a JSON HTTP API until
  interrupted. See 'rf topic server'.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address, RF_HTTP_ADDR by default")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return run(ctx, func(a *app) error {
		a.forecast(ctx)
		addr := c.addr
		if addr == "" {
			addr = a.cfg.HTTPAddr
		}
		return api.NewServer(a.svc, a.market, a.log, a.cfg.CORSOrigin).ListenAndServe(ctx, addr)
	})
}
