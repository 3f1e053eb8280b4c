package realfolio

import (
	"fmt"
	"strings"

	"github.com/etnz/realfolio/date"
)

// Preset names a P&L window ending today.
type Preset string

const (
	LastMonth    Preset = "1m"
	Last3Months  Preset = "3m"
	LastYear     Preset = "1y"
	Last5Years   Preset = "5y"
	SinceIncept  Preset = "all"
	DefaultRange        = LastMonth
)

// Presets lists the supported presets.
var Presets = []Preset{LastMonth, Last3Months, LastYear, Last5Years, SinceIncept}

// Range returns the window of the preset ending on 'end'. SinceIncept starts on
// the inception date, or 'end' when there is none.
func (p Preset) Range(inception, end date.Date) (date.Range, error) {
	switch p {
	case LastMonth:
		return date.NewRange(end.AddMonth(-1), end), nil
	case Last3Months:
		return date.NewRange(end.AddMonth(-3), end), nil
	case LastYear:
		return date.NewRange(end.AddMonth(-12), end), nil
	case Last5Years:
		return date.NewRange(end.AddMonth(-60), end), nil
	case SinceIncept:
		if inception.IsZero() || inception.After(end) {
			return date.NewRange(end, end), nil
		}
		return date.NewRange(inception, end), nil
	default:
		return date.Range{}, fmt.Errorf("unknown period %q, want one of 1m, 3m, 1y, 5y, all or FROM..TO", string(p))
	}
}

// ParseWindow parses a preset or a custom "FROM..TO" window. Dates accept the
// relative forms of date.Parse.
func ParseWindow(s string, inception, end date.Date) (date.Range, error) {
	if from, to, ok := strings.Cut(s, ".."); ok {
		f, err := date.Parse(from)
		if err != nil {
			return date.Range{}, err
		}
		t, err := date.Parse(to)
		if err != nil {
			return date.Range{}, err
		}
		if t.Before(f) {
			return date.Range{}, fmt.Errorf("window %q ends before it starts: %w", s, ErrInvalidDate)
		}
		return date.NewRange(f, t), nil
	}
	if s == "" {
		s = string(DefaultRange)
	}
	return Preset(strings.ToLower(s)).Range(inception, end)
}

// PnLBlock is the profit and loss over a window in a single currency.
type PnLBlock struct {
	StartValue Money
	Inflows    Money
	Outflows   Money // positive
	EndValue   Money
	CostBasis  Money    // StartValue + Inflows - Outflows, or the inflation required value
	PnL        Money    // EndValue - CostBasis
	Pct        *Percent // nil when CostBasis is zero
}

func newPnLBlock(start, end Money, flows []Money) PnLBlock {
	cur := start.Currency()
	b := PnLBlock{StartValue: start, EndValue: end, Inflows: M(0, cur), Outflows: M(0, cur)}
	for _, f := range flows {
		if f.IsPositive() {
			b.Inflows = b.Inflows.Add(f)
		} else {
			b.Outflows = b.Outflows.Sub(f)
		}
	}
	b.close(start.Add(b.Inflows).Sub(b.Outflows))
	return b
}

func (b *PnLBlock) close(costBasis Money) {
	b.CostBasis = costBasis
	b.PnL = b.EndValue.Sub(costBasis)
	b.Pct = b.PnL.Ratio(costBasis)
}

func (b PnLBlock) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Amount("start_value", b.StartValue)
	w.Amount("inflows", b.Inflows)
	w.Amount("outflows", b.Outflows)
	w.Amount("end_value", b.EndValue)
	w.Amount("cost_basis", b.CostBasis)
	w.Amount("pnl", b.PnL)
	w.Percent("pnl_pct", b.Pct)
	return w.MarshalJSON()
}

// PnLView is the profit and loss of a portfolio over a window, in USD, in TRY
// and in USD adjusted for inflation.
type PnLView struct {
	Period    date.Range
	USD       PnLBlock
	TRY       PnLBlock
	Inflation PnLBlock // cost basis is the inflation required value
	Quarters  []QuarterFactor
	Warnings  []error
}

func (v *PnLView) MarshalJSON() ([]byte, error) {
	var p jsonObjectWriter
	p.Append("start_date", v.Period.From)
	p.Append("end_date", v.Period.To)
	p.Append("total_days", v.Period.Len())

	var w jsonObjectWriter
	w.Append("period", &p)
	w.Append("usd_pnl", v.USD)
	w.Append("try_pnl", v.TRY)
	w.Append("inflation_pnl", v.Inflation)
	if len(v.Quarters) > 0 {
		w.Append("quarters", v.Quarters)
	}
	if len(v.Warnings) > 0 {
		w.Append("warnings", warningStrings(v.Warnings))
	}
	return w.MarshalJSON()
}

// PeriodPnL computes the profit and loss of the ledger over window.
//
// The start value is the portfolio made of transactions before window.From,
// valued as of window.From. The end value is the portfolio made of
// transactions up to window.To, valued as of window.To. Deposits and
// withdrawals within the window are flows. The inflation block adjusts the
// start value and the flows up to window.To.
func PeriodPnL(ledger *Ledger, market Market, inflation *Inflation, window date.Range) (*PnLView, error) {
	startState, err := Replay(ledger, window.From.Add(-1))
	if err != nil {
		return nil, err
	}
	startVal, err := Value(startState, market, window.From)
	if err != nil {
		return nil, fmt.Errorf("start of period: %w", err)
	}
	endState, err := Replay(ledger, window.To)
	if err != nil {
		return nil, err
	}
	endVal, err := Value(endState, market, window.To)
	if err != nil {
		return nil, fmt.Errorf("end of period: %w", err)
	}

	var flows []Flow
	var usd, try []Money
	for _, f := range endState.Flows {
		if window.Contains(f.Date) {
			flows = append(flows, f)
			usd = append(usd, f.USD)
			try = append(try, f.TRY)
		}
	}

	v := &PnLView{
		Period: window,
		USD:    newPnLBlock(startVal.TotalUSD, endVal.TotalUSD, usd),
		TRY:    newPnLBlock(startVal.TotalTRY, endVal.TotalTRY, try),
	}
	v.Warnings = append(v.Warnings, startVal.Warnings...)
	v.Warnings = append(v.Warnings, endVal.Warnings...)

	v.Inflation = v.USD
	if inflation != nil {
		rr := inflation.adjust(startVal.TotalUSD, window.From.Add(-1), flows, endVal.TotalUSD, window.To)
		v.Inflation.close(rr.Required)
		v.Inflation.Pct = rr.Pct
		v.Quarters = rr.Quarters
		v.Warnings = append(v.Warnings, rr.Warnings...)
	}
	return v, nil
}

func warningStrings(errs []error) []string {
	s := make([]string, len(errs))
	for i, err := range errs {
		s[i] = err.Error()
	}
	return s
}
