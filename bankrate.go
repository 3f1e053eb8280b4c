package realfolio

import (
	"github.com/shopspring/decimal"
)

// EstimatedSpread is the bank spread, in percent, assumed when no bank quotes are available.
const EstimatedSpread = 1.5

// BankRate is a USD/TRY bank quote.
type BankRate struct {
	Bid       Rate    `json:"bid"`
	Ask       Rate    `json:"ask"`
	Mid       Rate    `json:"mid"`
	SpreadPct Percent `json:"spread_pct"`
	Source    string  `json:"source"`
}

// NewBankRate returns the quote for a bid and an ask. The spread is relative to the bid.
func NewBankRate(bid, ask Rate, source string) BankRate {
	mid := Rate{value: bid.value.Add(ask.value).Div(decimal.NewFromInt(2))}
	b := BankRate{Bid: bid, Ask: ask, Mid: mid, Source: source}
	if bid.IsPositive() {
		b.SpreadPct = Percent(ask.value.Sub(bid.value).Div(bid.value).Mul(hundred).InexactFloat64())
	}
	return b
}

// EstimateBankRate spreads EstimatedSpread around a market mid rate.
func EstimateBankRate(mid Rate) BankRate {
	half := decimal.NewFromFloat(EstimatedSpread / 200)
	one := decimal.NewFromInt(1)
	bid := Rate{value: mid.value.Mul(one.Sub(half))}
	ask := Rate{value: mid.value.Mul(one.Add(half))}
	return BankRate{Bid: bid, Ask: ask, Mid: mid, SpreadPct: EstimatedSpread, Source: "estimated"}
}
