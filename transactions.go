package realfolio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/realfolio/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommandType is a typed string for identifying transaction commands.
type CommandType string

// Command types used for identifying transactions.
const (
	CmdDeposit     CommandType = "deposit"
	CmdWithdraw    CommandType = "withdraw"
	CmdExchange    CommandType = "exchange"
	CmdBuy         CommandType = "buy"
	CmdSell        CommandType = "sell"
	CmdInterestIn  CommandType = "interest_in"
	CmdInterestOut CommandType = "interest_out"
)

// Transaction defines the common interface for all types of financial transactions
// that can be recorded in the ledger.
type Transaction interface {
	What() CommandType    // What returns the command type of the transaction (e.g., "buy", "sell").
	When() date.Date      // When returns the effective date of the transaction.
	Identity() string     // Identity returns the unique id of the transaction.
	CreatedAt() time.Time // CreatedAt returns when the transaction was recorded.
	USDTRY() Rate         // USDTRY returns the rate in effect at transaction time.
	Rationale() string    // Rationale returns the memo.
	Validate() (Transaction, error)
}

type baseCmd struct {
	Command CommandType `json:"command"`
	ID      string      `json:"id"`
	Date    date.Date   `json:"date"`
	Created time.Time   `json:"created"`
	Rate    Rate        `json:"usd_try"`
	Memo    string      `json:"memo,omitempty"`
}

func newBase(cmd CommandType, on date.Date, rate Rate, memo string) baseCmd {
	return baseCmd{
		Command: cmd,
		ID:      uuid.NewString(),
		Date:    on,
		Created: time.Now().UTC(),
		Rate:    rate,
		Memo:    memo,
	}
}

func (t baseCmd) What() CommandType    { return t.Command }
func (t baseCmd) When() date.Date      { return t.Date }
func (t baseCmd) Identity() string     { return t.ID }
func (t baseCmd) CreatedAt() time.Time { return t.Created }
func (t baseCmd) USDTRY() Rate         { return t.Rate }
func (t baseCmd) Rationale() string    { return t.Memo }

// MarshalJSON implements the json.Marshaler interface for baseCmd.
func (t baseCmd) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("command", t.Command)
	w.Append("id", t.ID)
	w.Append("date", t.Date)
	w.Append("created", t.Created)
	w.Append("usd_try", t.Rate)
	w.Optional("memo", t.Memo)
	return w.MarshalJSON()
}

// validate fills the missing identity fields and checks the rate.
// It's meant to be called by the transactions validation methods.
func (t *baseCmd) validate() error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Created.IsZero() {
		t.Created = time.Now().UTC()
	}
	if t.Date.IsZero() {
		t.Date = date.Today()
	}
	if !t.Rate.IsPositive() {
		return fmt.Errorf("USD/TRY rate must be positive, got %s: %w", t.Rate, ErrInvalidAmount)
	}
	return nil
}

// ValidateCurrency checks that cur is one of the portfolio currencies.
func ValidateCurrency(cur string) error {
	if cur != USD && cur != TRY {
		return fmt.Errorf("unsupported currency %q, want USD or TRY: %w", cur, ErrInvalidAmount)
	}
	return nil
}

// validatePositive checks that m is a positive amount in a supported currency.
func validatePositive(what string, m Money) error {
	if err := ValidateCurrency(m.Currency()); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if !m.IsPositive() {
		return fmt.Errorf("%s must be positive, got %s: %w", what, m, ErrInvalidAmount)
	}
	return nil
}

// Deposit adds cash to the portfolio. It is an external inflow.
type Deposit struct {
	baseCmd
	Amount Money
}

// NewDeposit creates a new Deposit transaction.
func NewDeposit(on date.Date, amount Money, rate Rate, memo string) Deposit {
	return Deposit{baseCmd: newBase(CmdDeposit, on, rate, memo), Amount: amount}
}

func (t Deposit) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(t.baseCmd)
	w.EmbedFrom(t.Amount)
	return w.MarshalJSON()
}

func (t Deposit) Validate() (Transaction, error) {
	err := errors.Join(t.baseCmd.validate(), validatePositive("deposit amount", t.Amount))
	return t, err
}

// Withdraw removes cash from the portfolio. It is an external outflow.
type Withdraw struct {
	baseCmd
	Amount Money
}

// NewWithdraw creates a new Withdraw transaction.
func NewWithdraw(on date.Date, amount Money, rate Rate, memo string) Withdraw {
	return Withdraw{baseCmd: newBase(CmdWithdraw, on, rate, memo), Amount: amount}
}

func (t Withdraw) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(t.baseCmd)
	w.EmbedFrom(t.Amount)
	return w.MarshalJSON()
}

func (t Withdraw) Validate() (Transaction, error) {
	err := errors.Join(t.baseCmd.validate(), validatePositive("withdraw amount", t.Amount))
	return t, err
}

// Direction of a currency exchange.
type Direction string

const (
	BuyUSD  Direction = "buy_usd"  // TRY is sold for USD
	SellUSD Direction = "sell_usd" // USD is sold for TRY
)

// ParseDirection parses "buy_usd" or "sell_usd".
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case BuyUSD, SellUSD:
		return d, nil
	default:
		return "", fmt.Errorf("unknown exchange direction %q, want %q or %q", s, BuyUSD, SellUSD)
	}
}

// Exchange converts cash between TRY and USD at the transaction rate.
type Exchange struct {
	baseCmd
	Direction Direction
	Amount    Money // in the source currency
}

// NewExchange creates a new Exchange transaction. The amount is in the source
// currency: TRY to buy USD, USD to sell USD.
func NewExchange(on date.Date, direction Direction, amount Money, rate Rate, memo string) Exchange {
	return Exchange{baseCmd: newBase(CmdExchange, on, rate, memo), Direction: direction, Amount: amount}
}

// Source returns the currency debited by the exchange.
func (t Exchange) Source() string {
	if t.Direction == BuyUSD {
		return TRY
	}
	return USD
}

// Target returns the currency credited by the exchange.
func (t Exchange) Target() string {
	if t.Direction == BuyUSD {
		return USD
	}
	return TRY
}

// Proceeds returns the amount credited in the target currency.
func (t Exchange) Proceeds() Money { return t.Rate.To(t.Target(), t.Amount) }

func (t Exchange) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(t.baseCmd)
	w.Append("direction", t.Direction)
	w.EmbedFrom(t.Amount)
	return w.MarshalJSON()
}

func (t Exchange) Validate() (Transaction, error) {
	errs := []error{t.baseCmd.validate()}
	if _, err := ParseDirection(string(t.Direction)); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", err, ErrInvalidAmount))
	} else if t.Amount.Currency() != t.Source() {
		errs = append(errs, fmt.Errorf("%s exchange amount must be in %s, got %s: %w", t.Direction, t.Source(), t.Amount.Currency(), ErrInvalidAmount))
	}
	errs = append(errs, validatePositive("exchange amount", t.Amount))
	return t, errors.Join(errs...)
}

// Instrument is a tradable asset and the currency it trades in.
type Instrument struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

// bistSuffix marks symbols listed on Borsa Istanbul.
const bistSuffix = ".IS"

// NewInstrument returns the instrument for symbol. Borsa Istanbul symbols
// (suffix ".IS") trade in TRY, every other symbol trades in USD.
func NewInstrument(symbol string) Instrument {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(symbol, bistSuffix) {
		return Instrument{Symbol: symbol, Currency: TRY}
	}
	return Instrument{Symbol: symbol, Currency: USD}
}

// secCmd is a component for instrument trades (buy, sell).
type secCmd struct {
	baseCmd
	Instrument
	Quantity Quantity
	Price    Money // per unit, in the instrument currency
}

// Cost returns the cash amount exchanged by the trade, in the instrument currency.
func (t secCmd) Cost() Money { return t.Price.Mul(t.Quantity) }

// PriceUSD returns the unit price converted at the transaction rate.
func (t secCmd) PriceUSD() Money { return t.Rate.ToUSD(t.Price) }

func (t secCmd) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(t.baseCmd)
	w.Append("symbol", t.Symbol)
	w.Append("currency", t.Price.Currency())
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price.Decimal())
	return w.MarshalJSON()
}

func (t *secCmd) validate() error {
	errs := []error{t.baseCmd.validate()}
	if t.Symbol == "" {
		errs = append(errs, fmt.Errorf("symbol is missing: %w", ErrInvalidAmount))
	}
	if t.Currency == "" {
		t.Currency = NewInstrument(t.Symbol).Currency
	}
	if t.Price.Currency() != t.Currency {
		errs = append(errs, fmt.Errorf("%s trades in %s, price is in %s: %w", t.Symbol, t.Currency, t.Price.Currency(), ErrInvalidAmount))
	}
	if !t.Quantity.IsPositive() {
		errs = append(errs, fmt.Errorf("quantity must be positive, got %s: %w", t.Quantity, ErrInvalidAmount))
	}
	errs = append(errs, validatePositive("price", t.Price))
	return errors.Join(errs...)
}

// Buy represents the purchase of a quantity of an instrument.
type Buy struct{ secCmd }

// NewBuy creates a new Buy transaction. The price is per unit in the instrument currency.
func NewBuy(on date.Date, inst Instrument, quantity Quantity, price Money, rate Rate, memo string) Buy {
	return Buy{secCmd{baseCmd: newBase(CmdBuy, on, rate, memo), Instrument: inst, Quantity: quantity, Price: price}}
}

func (t Buy) MarshalJSON() ([]byte, error) { return t.secCmd.MarshalJSON() }

func (t Buy) Validate() (Transaction, error) {
	err := t.secCmd.validate()
	return t, err
}

// Sell represents the sale of a quantity of an instrument.
type Sell struct{ secCmd }

// NewSell creates a new Sell transaction. The price is per unit in the instrument currency.
func NewSell(on date.Date, inst Instrument, quantity Quantity, price Money, rate Rate, memo string) Sell {
	return Sell{secCmd{baseCmd: newBase(CmdSell, on, rate, memo), Instrument: inst, Quantity: quantity, Price: price}}
}

func (t Sell) MarshalJSON() ([]byte, error) { return t.secCmd.MarshalJSON() }

func (t Sell) Validate() (Transaction, error) {
	err := t.secCmd.validate()
	return t, err
}

// PaymentInterval is the payment cadence of an interest deposit. It is informative only,
// the interest is always earned over the whole deposit and paid at release.
type PaymentInterval string

const (
	PayDaily   PaymentInterval = "daily"
	PayWeekly  PaymentInterval = "weekly"
	PayMonthly PaymentInterval = "monthly"
	PayAtEnd   PaymentInterval = "end"
)

// ParsePaymentInterval parses an interval name, the empty string is PayAtEnd.
func ParsePaymentInterval(s string) (PaymentInterval, error) {
	switch p := PaymentInterval(strings.ToLower(s)); p {
	case "":
		return PayAtEnd, nil
	case PayDaily, PayWeekly, PayMonthly, PayAtEnd:
		return p, nil
	default:
		return "", fmt.Errorf("unknown payment interval %q", s)
	}
}

// InterestIn moves cash into an interest-bearing deposit.
type InterestIn struct {
	baseCmd
	Amount     Money           // principal
	AnnualRate decimal.Decimal // in percent, 45 means 45%
	Start, End date.Date
	Interval   PaymentInterval
}

// NewInterestIn creates a new InterestIn transaction effective on start.
func NewInterestIn(principal Money, annualRate decimal.Decimal, start, end date.Date, interval PaymentInterval, rate Rate, memo string) InterestIn {
	return InterestIn{
		baseCmd:    newBase(CmdInterestIn, start, rate, memo),
		Amount:     principal,
		AnnualRate: annualRate,
		Start:      start,
		End:        end,
		Interval:   interval,
	}
}

// Days returns the number of days the deposit earns interest.
func (t InterestIn) Days() int { return max(t.End.Sub(t.Start), 0) }

// Earned returns the interest earned over the whole deposit.
func (t InterestIn) Earned() Money { return Accrue(t.Amount, t.AnnualRate, t.Start, t.End) }

func (t InterestIn) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(t.baseCmd)
	w.EmbedFrom(t.Amount)
	w.Append("annual_rate", t.AnnualRate)
	w.Append("start", t.Start)
	w.Append("end", t.End)
	w.Optional("interval", t.Interval)
	return w.MarshalJSON()
}

func (t InterestIn) Validate() (Transaction, error) {
	if t.Date.IsZero() {
		t.Date = t.Start
	}
	if t.Interval == "" {
		t.Interval = PayAtEnd
	}
	errs := []error{t.baseCmd.validate(), validatePositive("interest principal", t.Amount)}
	if !t.AnnualRate.IsPositive() {
		errs = append(errs, fmt.Errorf("annual rate must be positive, got %s: %w", t.AnnualRate, ErrInvalidAmount))
	}
	if t.Start.IsZero() || !t.End.After(t.Start) {
		errs = append(errs, fmt.Errorf("interest end %s must be after start %s: %w", t.End, t.Start, ErrInvalidDate))
	}
	if _, err := ParsePaymentInterval(string(t.Interval)); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", err, ErrInvalidAmount))
	}
	return t, errors.Join(errs...)
}

// InterestOut releases interest deposits back to cash, principal and earned interest.
type InterestOut struct {
	baseCmd
	Currency string
	Deposit  string // id of the released InterestIn, all open deposits in Currency when empty
}

// NewInterestOut creates a new InterestOut transaction.
func NewInterestOut(on date.Date, currency, deposit string, rate Rate, memo string) InterestOut {
	return InterestOut{baseCmd: newBase(CmdInterestOut, on, rate, memo), Currency: currency, Deposit: deposit}
}

func (t InterestOut) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(t.baseCmd)
	w.Append("currency", t.Currency)
	w.Optional("deposit", t.Deposit)
	return w.MarshalJSON()
}

func (t InterestOut) Validate() (Transaction, error) {
	err := errors.Join(t.baseCmd.validate(), ValidateCurrency(t.Currency))
	return t, err
}

// Validate checks tx and fills its missing defaults. The returned transaction
// must be used in place of tx.
func Validate(tx Transaction) (Transaction, error) {
	fixed, err := tx.Validate()
	if err != nil {
		return tx, fmt.Errorf("invalid %s: %w", tx.What(), err)
	}
	return fixed, nil
}
