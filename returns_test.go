package realfolio

import (
	"math"
	"testing"
)

func TestPeriodicReturns(t *testing.T) {
	pct := func(v float64) *Percent { p := Percent(v); return &p }
	tests := []struct {
		name                  string
		r                     *Percent
		days                  int
		annualized, quarterly *Percent
	}{
		{"one year", pct(10), 365, pct(10), pct(10 / (365.0 / 90))},
		{"half year", pct(10), 182, pct((math.Pow(1.1, 365.0/182) - 1) * 100), pct(10 / (182.0 / 90))},
		{"first quarter", pct(3), 30, pct((math.Pow(1.03, 365.0/30) - 1) * 100), pct(3)},
		{"total loss", pct(-100), 100, nil, pct(-100 / (100.0 / 90))},
		{"undefined", nil, 100, nil, nil},
		{"same day", pct(5), 0, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PeriodicReturns(tt.r, tt.days)
			if !samePercent(got.Annualized, tt.annualized) {
				t.Errorf("Annualized = %s, want %s", PercentString(got.Annualized), PercentString(tt.annualized))
			}
			if !samePercent(got.QuarterlyAverage, tt.quarterly) {
				t.Errorf("QuarterlyAverage = %s, want %s", PercentString(got.QuarterlyAverage), PercentString(tt.quarterly))
			}
		})
	}
}

func samePercent(a, b *Percent) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func TestBankRate(t *testing.T) {
	b := EstimateBankRate(R(40))
	if !b.Bid.Equal(R(39.7)) || !b.Ask.Equal(R(40.3)) || b.Source != "estimated" {
		t.Errorf("EstimateBankRate(40) = %+v, want 39.7/40.3 estimated", b)
	}
	if b.SpreadPct != EstimatedSpread {
		t.Errorf("SpreadPct = %v, want %v", b.SpreadPct, EstimatedSpread)
	}

	q := NewBankRate(R(40), R(41), "TCMB")
	if !q.Mid.Equal(R(40.5)) || !q.SpreadPct.Equal(2.5) {
		t.Errorf("NewBankRate(40, 41) = %+v, want mid 40.5 spread 2.5%%", q)
	}
}
