package realfolio

import (
	"github.com/etnz/realfolio/date"
	"github.com/shopspring/decimal"
)

// usd is a helper for test to create USD money from const
func usd(v float64) Money { return M(v, "USD") }

// try is a helper for test to create TRY money from const
func try(v float64) Money { return M(v, "TRY") }

// day is a helper for test to parse a date.
func day(s string) date.Date { return date.MustParse(s) }

// rate is the USD/TRY rate used by most tests.
var rate = R(36.5)

var (
	AAPL   = NewInstrument("AAPL")
	THYAO  = NewInstrument("THYAO.IS")
	ASELS  = NewInstrument("ASELS.IS")
	GOOGL  = NewInstrument("googl")
	noMemo = ""
)

func deposit(on string, m Money) Deposit { return NewDeposit(day(on), m, rate, noMemo) }

func withdraw(on string, m Money) Withdraw { return NewWithdraw(day(on), m, rate, noMemo) }

func buy(on string, inst Instrument, qty float64, price Money) Buy {
	return NewBuy(day(on), inst, Q(qty), price, rate, noMemo)
}

func sell(on string, inst Instrument, qty float64, price Money) Sell {
	return NewSell(day(on), inst, Q(qty), price, rate, noMemo)
}

// flatMarket returns a market with a single rate and prices known since 2000.
func flatMarket(r Rate, prices map[string]Money) *MarketData {
	m := NewMarketData()
	origin := day("2000-01-01")
	m.SetRate(origin, r)
	for sym, p := range prices {
		m.SetPrice(sym, origin, p)
	}
	return m
}

func decimalFromString(s string) decimal.Decimal { return decimal.RequireFromString(s) }
