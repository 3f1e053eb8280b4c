package realfolio

import (
	"github.com/etnz/realfolio/date"
	"github.com/shopspring/decimal"
)

var (
	hundred    = decimal.NewFromInt(100)
	daysInYear = decimal.NewFromInt(365)
)

// Accrue returns the simple interest earned by principal at annualRate (in
// percent) between start and end:
//
//	principal × annualRate/100 × days/365
//
// A range where end is not after start earns nothing.
func Accrue(principal Money, annualRate decimal.Decimal, start, end date.Date) Money {
	days := max(end.Sub(start), 0)
	v := principal.value.Mul(annualRate).Div(hundred).Mul(decimal.NewFromInt(int64(days))).Div(daysInYear)
	return Money{value: v, cur: principal.cur}
}

// AccruedOn returns the interest earned by the deposit up to 'on', capped at its end date.
func (t InterestIn) AccruedOn(on date.Date) Money {
	return Accrue(t.Amount, t.AnnualRate, t.Start, date.Min(t.End, on))
}
