package realfolio

import (
	"math"

	"github.com/etnz/realfolio/date"
)

// Returns are the nominal returns of a portfolio since its inception.
type Returns struct {
	Days             int      // since inception
	SinceInception   *Percent // nominal pnl over net deposits
	Annualized       *Percent // (1+r)^(365/days) - 1
	QuarterlyAverage *Percent // r / (days/90), r itself within the first quarter
}

// PeriodicReturns derives the returns from a total nominal return r, in percent,
// earned over days.
func PeriodicReturns(r *Percent, days int) Returns {
	ret := Returns{Days: days, SinceInception: r}
	if r == nil || days <= 0 {
		return ret
	}
	rate := float64(*r) / 100
	if rate > -1 {
		a := Percent((math.Pow(1+rate, 365/float64(days)) - 1) * 100)
		ret.Annualized = &a
	}
	q := Percent(float64(*r) / math.Max(float64(days)/90, 1))
	ret.QuarterlyAverage = &q
	return ret
}

// Returns computes the returns of the valuation since inception.
func (v *Valuation) Returns(inception date.Date) Returns {
	if inception.IsZero() {
		return Returns{}
	}
	return PeriodicReturns(v.NominalUSD().Ratio(v.DepositedUSD), v.On.Sub(inception))
}
