// Package cmd implements the rf command line to manage portfolios.
package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/api"
	"github.com/etnz/realfolio/bls"
	"github.com/etnz/realfolio/config"
	"github.com/etnz/realfolio/netutil"
	"github.com/etnz/realfolio/oracle"
	"github.com/etnz/realfolio/tcmb"
	"github.com/etnz/realfolio/yahoo"
	"github.com/google/subcommands"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&depositCmd{}, "transactions")
	c.Register(&withdrawCmd{}, "transactions")
	c.Register(&exchangeCmd{}, "transactions")
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&interestInCmd{}, "transactions")
	c.Register(&interestOutCmd{}, "transactions")
	c.Register(&deleteCmd{}, "transactions")
	c.Register(&logCmd{}, "transactions")
	c.Register(&fmtCmd{}, "transactions")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&pnlCmd{}, "reports")
	c.Register(&cpiCmd{}, "reports")
	c.Register(&ratesCmd{}, "reports")

	c.Register(&topicCmd{}, "help")
	c.Register(&assistCmd{}, "help")
	c.Register(&serveCmd{}, "server")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var ledgerDir = flag.String("ledger-dir", "", "Directory of the ledger files, RF_LEDGER_DIR by default")
var portfolioName = flag.String("portfolio", "", "Portfolio to work on, RF_PORTFOLIO by default")
var verbose = flag.Bool("v", false, "Verbose logging")

// marketSource is what the commands need from the market oracle.
type marketSource interface {
	realfolio.Market
	realfolio.CPISource
	api.MarketInfo
	Inflation(ctx context.Context) *realfolio.Inflation
	Close()
}

// newMarket creates the market oracle. Tests replace it to stay offline.
var newMarket = func(cfg config.Config, logger *zap.Logger) (marketSource, error) {
	live := &http.Client{Timeout: cfg.Oracle().Timeout}
	return oracle.New(cfg.Oracle(), yahoo.New(live), tcmb.New(live), bls.New(netutil.Daily()), logger)
}

// app is the environment shared by the commands.
type app struct {
	cfg       config.Config
	log       *zap.Logger
	store     *realfolio.FileStore
	market    marketSource
	svc       *realfolio.Service
	portfolio string
}

func newLogger() *zap.Logger {
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openApp loads the configuration, the flags override it.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if *ledgerDir != "" {
		cfg.LedgerDir = *ledgerDir
	}
	if *portfolioName != "" {
		cfg.Portfolio = *portfolioName
	}
	logger := newLogger()
	market, err := newMarket(cfg, logger)
	if err != nil {
		return nil, err
	}
	store := realfolio.NewFileStore(cfg.LedgerDir)
	return &app{
		cfg:       cfg,
		log:       logger,
		store:     store,
		market:    market,
		svc:       realfolio.NewService(store, market, realfolio.NewInflation(market, cfg.ExpectedInflation), logger),
		portfolio: cfg.Portfolio,
	}, nil
}

// forecast switches the service to the published inflation expectation,
// RF_EXPECTED_INFLATION is only a fallback then.
func (a *app) forecast(ctx context.Context) {
	a.svc = realfolio.NewService(a.store, a.market, a.market.Inflation(ctx), a.log)
}

func (a *app) Close() {
	a.market.Close()
	_ = a.log.Sync()
}

// run opens the app and runs f, errors are reported on stderr.
func run(ctx context.Context, f func(*app) error) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	if err := f(a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printMarkdown renders md for the terminal, raw when it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
