package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/date"
	"github.com/etnz/realfolio/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// txFlags are the flags shared by every transaction.
type txFlags struct {
	date string
	rate float64
	memo string
}

func (c *txFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Transaction date. See 'rf topic ledger' for supported formats.")
	f.Float64Var(&c.rate, "rate", 0, "USD/TRY rate, the market rate on the transaction date by default")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the transaction")
}

func (c *txFlags) parse() (date.Date, realfolio.Rate, error) {
	day, err := date.Parse(c.date)
	if err != nil {
		return day, realfolio.Rate{}, fmt.Errorf("invalid date %q: %w", c.date, err)
	}
	if c.rate < 0 {
		return day, realfolio.Rate{}, fmt.Errorf("USD/TRY rate must be positive, got %v", c.rate)
	}
	return day, realfolio.R(c.rate), nil
}

// appendTransaction records tx in the portfolio and prints it.
func appendTransaction(ctx context.Context, tx realfolio.Transaction) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		recorded, err := a.svc.Append(ctx, a.portfolio, tx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s (%s)\n", recorded.When(), renderer.Transaction(recorded), recorded.Identity())
		return nil
	})
}

func usageError(f *flag.FlagSet, format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	f.Usage()
	return subcommands.ExitUsageError
}

// --- Deposit Command ---

type depositCmd struct {
	txFlags
	amount   float64
	currency string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "deposit cash into the portfolio" }
func (*depositCmd) Usage() string {
	return `rf deposit -a <amount> [-c USD|TRY] [-d <date>] [-rate <usdtry>] [-m <memo>]

  Deposits external cash into the portfolio.
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	c.txFlags.SetFlags(f)
	f.Float64Var(&c.amount, "a", 0, "Amount to deposit")
	f.StringVar(&c.currency, "c", realfolio.USD, "Currency, USD or TRY")
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, rate, err := c.parse()
	if err != nil {
		return usageError(f, "%v", err)
	}
	tx := realfolio.NewDeposit(on, realfolio.M(c.amount, strings.ToUpper(c.currency)), rate, c.memo)
	return appendTransaction(ctx, tx)
}

// --- Withdraw Command ---

type withdrawCmd struct {
	txFlags
	amount   float64
	currency string
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "withdraw cash from the portfolio" }
func (*withdrawCmd) Usage() string {
	return `rf withdraw -a <amount> [-c USD|TRY] [-d <date>] [-rate <usdtry>] [-m <memo>]

  Withdraws cash out of the portfolio. The cash balance must cover it.
`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	c.txFlags.SetFlags(f)
	f.Float64Var(&c.amount, "a", 0, "Amount to withdraw")
	f.StringVar(&c.currency, "c", realfolio.USD, "Currency, USD or TRY")
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, rate, err := c.parse()
	if err != nil {
		return usageError(f, "%v", err)
	}
	tx := realfolio.NewWithdraw(on, realfolio.M(c.amount, strings.ToUpper(c.currency)), rate, c.memo)
	return appendTransaction(ctx, tx)
}

// --- Exchange Command ---

type exchangeCmd struct {
	txFlags
	direction string
	amount    float64
}

func (*exchangeCmd) Name() string     { return "exchange" }
func (*exchangeCmd) Synopsis() string { return "exchange cash between USD and TRY" }
func (*exchangeCmd) Usage() string {
	return `rf exchange -dir buy_usd|sell_usd -a <amount> [-d <date>] [-rate <usdtry>] [-m <memo>]

  Exchanges cash at the USD/TRY rate. The amount is in the sold currency:
  TRY to buy USD, USD to sell USD.
`
}

func (c *exchangeCmd) SetFlags(f *flag.FlagSet) {
	c.txFlags.SetFlags(f)
	f.StringVar(&c.direction, "dir", "", "Direction, buy_usd or sell_usd")
	f.Float64Var(&c.amount, "a", 0, "Amount sold")
}

func (c *exchangeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, rate, err := c.parse()
	if err != nil {
		return usageError(f, "%v", err)
	}
	dir, err := realfolio.ParseDirection(c.direction)
	if err != nil {
		return usageError(f, "%v", err)
	}
	sold := realfolio.USD
	if dir == realfolio.BuyUSD {
		sold = realfolio.TRY
	}
	tx := realfolio.NewExchange(on, dir, realfolio.M(c.amount, sold), rate, c.memo)
	return appendTransaction(ctx, tx)
}

// --- Buy and Sell Commands ---

type tradeFlags struct {
	txFlags
	symbol   string
	quantity float64
	price    float64
}

func (c *tradeFlags) SetFlags(f *flag.FlagSet) {
	c.txFlags.SetFlags(f)
	f.StringVar(&c.symbol, "s", "", "Symbol, BIST symbols end with .IS and trade in TRY")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Price per share in the symbol's currency")
}

func (c *tradeFlags) parseTrade() (on date.Date, inst realfolio.Instrument, rate realfolio.Rate, err error) {
	if c.symbol == "" {
		return on, inst, rate, errors.New("symbol is required")
	}
	on, rate, err = c.parse()
	return on, realfolio.NewInstrument(c.symbol), rate, err
}

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy shares to open or add to a position" }
func (*buyCmd) Usage() string {
	return `rf buy -s <symbol> -q <quantity> -p <price> [-d <date>] [-rate <usdtry>] [-m <memo>]

  Buys shares. The cost is debited from the cash in the symbol's currency.
`
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, inst, rate, err := c.parseTrade()
	if err != nil {
		return usageError(f, "%v", err)
	}
	tx := realfolio.NewBuy(on, inst, realfolio.Q(c.quantity), realfolio.M(c.price, inst.Currency), rate, c.memo)
	return appendTransaction(ctx, tx)
}

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares to trim or close a position" }
func (*sellCmd) Usage() string {
	return `rf sell -s <symbol> -q <quantity> -p <price> [-d <date>] [-rate <usdtry>] [-m <memo>]

  Sells shares. The proceeds are credited to the cash in the symbol's currency.
`
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, inst, rate, err := c.parseTrade()
	if err != nil {
		return usageError(f, "%v", err)
	}
	tx := realfolio.NewSell(on, inst, realfolio.Q(c.quantity), realfolio.M(c.price, inst.Currency), rate, c.memo)
	return appendTransaction(ctx, tx)
}

// --- Interest Commands ---

type interestInCmd struct {
	txFlags
	amount     float64
	currency   string
	annualRate string
	start, end string
	interval   string
}

func (*interestInCmd) Name() string     { return "interest-in" }
func (*interestInCmd) Synopsis() string { return "lock cash into a deposit earning simple interest" }
func (*interestInCmd) Usage() string {
	return `rf interest-in -a <amount> [-c USD|TRY] -r <annual %> -start <date> -end <date> [-i daily|weekly|monthly|end] [-m <memo>]

  Moves cash into an interest-bearing deposit, released with 'rf interest-out'.
`
}

func (c *interestInCmd) SetFlags(f *flag.FlagSet) {
	c.txFlags.SetFlags(f)
	f.Float64Var(&c.amount, "a", 0, "Principal")
	f.StringVar(&c.currency, "c", realfolio.TRY, "Currency, USD or TRY")
	f.StringVar(&c.annualRate, "r", "", "Annual interest rate in percent")
	f.StringVar(&c.start, "start", "", "First day of the deposit, the transaction date by default")
	f.StringVar(&c.end, "end", "", "Maturity of the deposit")
	f.StringVar(&c.interval, "i", "end", "Payment interval")
}

func (c *interestInCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, rate, err := c.parse()
	if err != nil {
		return usageError(f, "%v", err)
	}
	start := on
	if c.start != "" {
		if start, err = date.Parse(c.start); err != nil {
			return usageError(f, "invalid start date %q: %v", c.start, err)
		}
	}
	end, err := date.Parse(c.end)
	if err != nil {
		return usageError(f, "invalid end date %q: %v", c.end, err)
	}
	annual, err := decimal.NewFromString(c.annualRate)
	if err != nil {
		return usageError(f, "invalid annual rate %q: %v", c.annualRate, err)
	}
	interval, err := realfolio.ParsePaymentInterval(c.interval)
	if err != nil {
		return usageError(f, "%v", err)
	}
	tx := realfolio.NewInterestIn(realfolio.M(c.amount, strings.ToUpper(c.currency)), annual, start, end, interval, rate, c.memo)
	return appendTransaction(ctx, tx)
}

type interestOutCmd struct {
	txFlags
	currency string
	deposit  string
}

func (*interestOutCmd) Name() string     { return "interest-out" }
func (*interestOutCmd) Synopsis() string { return "release interest deposits back to cash" }
func (*interestOutCmd) Usage() string {
	return `rf interest-out [-c USD|TRY] [-id <deposit id>] [-d <date>] [-m <memo>]

  Releases the open deposits in a currency, or a single one with -id. The
  principal and the interest earned over the whole deposit are credited to cash.
`
}

func (c *interestOutCmd) SetFlags(f *flag.FlagSet) {
	c.txFlags.SetFlags(f)
	f.StringVar(&c.currency, "c", realfolio.TRY, "Currency, USD or TRY")
	f.StringVar(&c.deposit, "id", "", "Deposit to release, all open deposits by default")
}

func (c *interestOutCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, rate, err := c.parse()
	if err != nil {
		return usageError(f, "%v", err)
	}
	tx := realfolio.NewInterestOut(on, strings.ToUpper(c.currency), c.deposit, rate, c.memo)
	return appendTransaction(ctx, tx)
}

// --- Delete Command ---

type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a transaction" }
func (*deleteCmd) Usage() string {
	return `rf delete <id>

  Deletes a transaction by id, or by a unique id prefix as shown by 'rf log'.
  The deletion is refused when the remaining ledger does not replay.
`
}

func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "delete needs exactly one id")
	}
	return run(ctx, func(a *app) error {
		ledger, err := a.svc.Ledger(ctx, a.portfolio)
		if err != nil {
			return err
		}
		id, err := resolveID(ledger, f.Arg(0))
		if err != nil {
			return err
		}
		if err := a.svc.Delete(ctx, a.portfolio, id); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", id)
		return nil
	})
}

// resolveID finds the transaction id starting with prefix.
func resolveID(ledger *realfolio.Ledger, prefix string) (string, error) {
	var found []string
	for _, tx := range ledger.Transactions() {
		if tx.Identity() == prefix {
			return prefix, nil
		}
		if strings.HasPrefix(tx.Identity(), prefix) {
			found = append(found, tx.Identity())
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("transaction %q: %w", prefix, realfolio.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("transaction id %q is ambiguous, it matches %d transactions", prefix, len(found))
	}
}
