package realfolio

import (
	"github.com/etnz/realfolio/date"
)

// PortfolioView is the complete picture of a portfolio on a date: its valuation,
// nominal and real performance.
type PortfolioView struct {
	*Valuation
	Inception date.Date
	Real      *RealReturn // nil without CPI data
	Returns   Returns
}

// Evaluate replays the ledger up to 'on', values it with market, and adjusts it for
// inflation when inflation is not nil.
func Evaluate(ledger *Ledger, market Market, inflation *Inflation, on date.Date) (*PortfolioView, error) {
	v, err := ledger.Value(market, on)
	if err != nil {
		return nil, err
	}
	view := &PortfolioView{
		Valuation: v,
		Inception: ledger.Prefix(Until(on)).InceptionDate(),
	}
	view.Returns = v.Returns(view.Inception)
	if inflation != nil {
		view.Real = inflation.Adjust(v.Flows, v.TotalUSD, on)
	}
	return view, nil
}

// AllWarnings returns the valuation and inflation warnings.
func (v *PortfolioView) AllWarnings() []error {
	w := append([]error(nil), v.Warnings...)
	if v.Real != nil {
		w = append(w, v.Real.Warnings...)
	}
	return w
}

// HoldingView is the JSON view of a valued holding.
type HoldingView struct{ HoldingValue }

func (h HoldingView) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", h.Symbol)
	w.Append("currency", h.Currency)
	w.Append("quantity", h.Quantity)
	w.Amount("avg_cost_usd", h.AvgCostUSD)
	w.Amount("current_price", h.Price)
	w.Amount("current_price_usd", h.PriceUSD)
	w.Amount("market_value_usd", h.ValueUSD)
	w.Amount("unrealized_pnl_usd", h.UnrealizedUSD)
	w.Percent("unrealized_pnl_pct", h.UnrealizedPct)
	w.Amount("realized_pnl_usd", h.RealizedUSD)
	w.Optional("stale", h.Stale)
	w.Optional("closed", h.IsClosed())
	return w.MarshalJSON()
}

// DepositView is the JSON view of an open interest deposit.
type DepositView struct {
	InterestIn
	On date.Date
}

func (d DepositView) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", d.ID)
	w.Append("currency", d.Amount.Currency())
	w.Amount("principal", d.Amount)
	w.Append("annual_rate", d.AnnualRate)
	w.Append("start", d.Start)
	w.Append("end", d.End)
	w.Append("interval", d.Interval)
	w.Append("interest_days", d.Days())
	w.Amount("accrued", d.AccruedOn(d.On))
	w.Amount("interest_earned", d.Earned())
	return w.MarshalJSON()
}

func (v *PortfolioView) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", v.On)
	w.Optional("inception", v.Inception)
	w.Append("usd_try_rate", v.Rate)
	w.Amount("cash_usd", v.Cash[USD])
	w.Amount("cash_try", v.Cash[TRY])
	w.Amount("interest_balance_usd", v.Interest[USD])
	w.Amount("interest_balance_try", v.Interest[TRY])
	w.Amount("holdings_value_usd", v.HoldingsUSD)
	w.Amount("total_value_usd", v.TotalUSD)
	w.Amount("total_value_try", v.TotalTRY)
	w.Amount("total_deposited_usd", v.DepositedUSD)
	w.Amount("total_deposited_try", v.DepositedTRY)
	w.Amount("total_withdrawn_usd", v.WithdrawnUSD)
	w.Amount("total_withdrawn_try", v.WithdrawnTRY)
	w.Amount("nominal_pnl_usd", v.NominalUSD())
	w.Amount("nominal_pnl_try", v.NominalTRY())
	w.Percent("nominal_pnl_pct", v.Returns.SinceInception)
	w.Amount("net_pnl_usd", v.NetUSD())
	w.Amount("net_pnl_try", v.NetTRY())
	w.Amount("realized_pnl_usd", v.RealizedUSD())
	w.Amount("unrealized_pnl_usd", v.UnrealizedUSD())

	var r jsonObjectWriter
	r.Append("days", v.Returns.Days)
	r.Percent("since_inception", v.Returns.SinceInception)
	r.Percent("annualized", v.Returns.Annualized)
	r.Percent("quarterly_average", v.Returns.QuarterlyAverage)
	w.Append("returns", &r)

	if v.Real != nil {
		var rw jsonObjectWriter
		rw.Amount("required_value", v.Real.Required)
		rw.Amount("real_pnl_usd", v.Real.PnL)
		rw.Percent("real_pnl_pct", v.Real.Pct)
		rw.Append("estimated", v.Real.Estimated())
		if len(v.Real.Quarters) > 0 {
			rw.Append("quarters", v.Real.Quarters)
		}
		w.Append("inflation", &rw)
	}

	holdings := make([]HoldingView, len(v.Holdings))
	for i, h := range v.Holdings {
		holdings[i] = HoldingView{h}
	}
	w.Append("holdings", holdings)

	deposits := make([]DepositView, len(v.Deposits))
	for i, d := range v.Deposits {
		deposits[i] = DepositView{InterestIn: d, On: v.On}
	}
	w.Append("deposits", deposits)

	if warnings := v.AllWarnings(); len(warnings) > 0 {
		w.Append("warnings", warningStrings(warnings))
	}
	return w.MarshalJSON()
}

// TransactionView is the JSON view of a transaction with its derived amounts.
type TransactionView struct{ Transaction }

// Amount returns the cash amount moved by the transaction, zero for interest releases.
func Amount(tx Transaction) Money {
	switch v := tx.(type) {
	case Deposit:
		return v.Amount
	case Withdraw:
		return v.Amount
	case Exchange:
		return v.Amount
	case Buy:
		return v.Cost()
	case Sell:
		return v.Cost()
	case InterestIn:
		return v.Amount
	default:
		return Money{}
	}
}

func (t TransactionView) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(t.Transaction)
	rate := t.USDTRY()
	if amount := Amount(t.Transaction); amount.Currency() != "" && rate.IsPositive() {
		w.Amount("amount_usd", rate.ToUSD(amount))
		w.Amount("amount_try", rate.ToTRY(amount))
	}
	w.Append("usd_try_rate", rate)
	if in, ok := t.Transaction.(InterestIn); ok && rate.IsPositive() {
		earned := in.Earned()
		w.Append("interest_days", in.Days())
		w.Amount("interest_earned_usd", rate.ToUSD(earned))
		w.Amount("interest_earned_try", rate.ToTRY(earned))
	}
	return w.MarshalJSON()
}
