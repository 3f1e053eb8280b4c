package realfolio

import (
	"fmt"

	"github.com/etnz/realfolio/date"
)

// HoldingValue is a holding valued at a market price.
type HoldingValue struct {
	*Holding
	Price         Money // unit price in the trade currency
	PriceUSD      Money
	ValueUSD      Money
	UnrealizedUSD Money
	UnrealizedPct *Percent // nil for a closed or zero cost position
	Stale         bool     // no price was known, the holding is valued at its average cost
}

// Valuation is a State valued in USD and TRY with a single USD/TRY rate.
type Valuation struct {
	*State
	On       date.Date
	Rate     Rate
	Holdings []HoldingValue // sorted by symbol, closed positions included

	CashUSD     Money // USD cash plus TRY cash converted
	InterestUSD Money // principal of open deposits, both currencies converted
	HoldingsUSD Money
	TotalUSD    Money
	TotalTRY    Money

	Warnings []error
}

// IsEmpty reports whether nothing ever happened in the state.
func (s *State) IsEmpty() bool {
	return len(s.Flows) == 0 && len(s.Holdings) == 0 && len(s.Deposits) == 0 &&
		s.Cash[USD].IsZero() && s.Cash[TRY].IsZero()
}

// Value values the state with the prices and the rate known by market as of 'on'.
//
// A holding without a price is valued at its average cost, flagged as stale and
// reported in the warnings. A missing rate fails with ErrMissingRate unless the
// state is empty.
func Value(s *State, market Market, on date.Date) (*Valuation, error) {
	rate, ok := market.Rate(on)
	if !ok || !rate.IsPositive() {
		if !s.IsEmpty() {
			return nil, fmt.Errorf("cannot value portfolio on %s: %w", on, ErrMissingRate)
		}
		rate = R(1)
	}
	v := &Valuation{
		State:       s,
		On:          on,
		Rate:        rate,
		HoldingsUSD: M(0, USD),
	}

	v.CashUSD = s.Cash[USD].Add(rate.ToUSD(s.Cash[TRY]))
	v.InterestUSD = s.Interest[USD].Add(rate.ToUSD(s.Interest[TRY]))

	for _, sym := range s.Symbols() {
		h := s.Holdings[sym]
		hv := HoldingValue{Holding: h}
		price, ok := market.Price(sym, on)
		switch {
		case ok && price.IsPositive():
			hv.Price = rate.To(h.Currency, price)
			hv.PriceUSD = rate.ToUSD(price)
		case h.IsClosed():
			hv.Price = rate.To(h.Currency, h.AvgCostUSD)
			hv.PriceUSD = h.AvgCostUSD
		default:
			hv.Stale = true
			hv.Price = rate.To(h.Currency, h.AvgCostUSD)
			hv.PriceUSD = h.AvgCostUSD
			v.Warnings = append(v.Warnings, fmt.Errorf("%s has no price on %s, valued at average cost %s: %w", sym, on, h.AvgCostUSD, ErrMissingPrice))
		}
		hv.ValueUSD = hv.PriceUSD.Mul(h.Quantity)
		hv.UnrealizedUSD = hv.PriceUSD.Sub(h.AvgCostUSD).Mul(h.Quantity)
		if !h.IsClosed() {
			hv.UnrealizedPct = hv.UnrealizedUSD.Ratio(h.CostUSD())
		}
		v.HoldingsUSD = v.HoldingsUSD.Add(hv.ValueUSD)
		v.Holdings = append(v.Holdings, hv)
	}

	v.TotalUSD = v.CashUSD.Add(v.InterestUSD).Add(v.HoldingsUSD)
	v.TotalTRY = rate.ToTRY(v.TotalUSD)
	return v, nil
}

// NominalUSD returns the total value minus all deposits in USD. Withdrawals
// are not netted: withdrawn cash counts as a loss of value.
func (v *Valuation) NominalUSD() Money { return v.TotalUSD.Sub(v.DepositedUSD) }

// NominalTRY returns the total value minus all deposits in TRY.
func (v *Valuation) NominalTRY() Money { return v.TotalTRY.Sub(v.DepositedTRY) }

// NetUSD returns the total value minus the net deposited amount in USD.
func (v *Valuation) NetUSD() Money { return v.TotalUSD.Sub(v.NetDepositedUSD()) }

// NetTRY returns the total value minus the net deposited amount in TRY.
func (v *Valuation) NetTRY() Money { return v.TotalTRY.Sub(v.NetDepositedTRY()) }

// UnrealizedUSD returns the sum of unrealized gains over open positions.
func (v *Valuation) UnrealizedUSD() Money {
	total := M(0, USD)
	for _, h := range v.Holdings {
		total = total.Add(h.UnrealizedUSD)
	}
	return total
}

// RealizedUSD returns the sum of realized gains over all positions.
func (v *Valuation) RealizedUSD() Money {
	total := M(0, USD)
	for _, h := range v.Holdings {
		total = total.Add(h.RealizedUSD)
	}
	return total
}

// Value returns the valuation of a portfolio from its ledger as of 'on'.
func (l *Ledger) Value(market Market, on date.Date) (*Valuation, error) {
	s, err := Replay(l, on)
	if err != nil {
		return nil, err
	}
	return Value(s, market, on)
}
