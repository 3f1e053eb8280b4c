package realfolio

import (
	"errors"
	"testing"

	"github.com/etnz/realfolio/date"
	"github.com/shopspring/decimal"
)

func TestValue(t *testing.T) {
	l := NewLedger(
		deposit("2025-01-02", usd(10000)),
		deposit("2025-01-02", try(73000)),
		buy("2025-01-05", AAPL, 10, usd(100)),
		buy("2025-01-07", THYAO, 100, try(292)),
		NewInterestIn(try(36500), decimal.NewFromInt(40), day("2025-01-08"), day("2025-04-08"), PayAtEnd, rate, ""),
	)
	market := flatMarket(R(40), map[string]Money{
		"AAPL":     usd(150),
		"THYAO.IS": try(400),
	})

	v, err := l.Value(market, day("2025-02-01"))
	if err != nil {
		t.Fatalf("Value() unexpected error: %v", err)
	}
	// cash: 9000 USD + 7300 TRY / 40
	if got, want := v.CashUSD, usd(9182.5); !got.Equal(want) {
		t.Errorf("CashUSD = %v, want %v", got, want)
	}
	// interest: 36500 TRY / 40
	if got, want := v.InterestUSD, usd(912.5); !got.Equal(want) {
		t.Errorf("InterestUSD = %v, want %v", got, want)
	}
	// holdings: 10 × 150 + 100 × 400 / 40
	if got, want := v.HoldingsUSD, usd(2500); !got.Equal(want) {
		t.Errorf("HoldingsUSD = %v, want %v", got, want)
	}
	if got, want := v.TotalUSD, usd(12595); !got.Equal(want) {
		t.Errorf("TotalUSD = %v, want %v", got, want)
	}
	if got, want := v.TotalTRY, try(503800); !got.Equal(want) {
		t.Errorf("TotalTRY = %v, want %v", got, want)
	}
	// deposits: 10000 + 73000 / 36.5
	if got, want := v.NominalUSD(), usd(595); !got.Equal(want) {
		t.Errorf("NominalUSD() = %v, want %v", got, want)
	}
	if got, want := v.NominalTRY(), try(503800-438000); !got.Equal(want) {
		t.Errorf("NominalTRY() = %v, want %v", got, want)
	}

	thyao := v.Holdings[1]
	if thyao.Symbol != "THYAO.IS" {
		t.Fatalf("Holdings[1] = %s, want THYAO.IS", thyao.Symbol)
	}
	// bought at 8 USD, now 10 USD
	if got, want := thyao.UnrealizedUSD, usd(200); !got.Equal(want) {
		t.Errorf("THYAO.IS UnrealizedUSD = %v, want %v", got, want)
	}
	if thyao.UnrealizedPct == nil || !thyao.UnrealizedPct.Equal(25) {
		t.Errorf("THYAO.IS UnrealizedPct = %v, want 25%%", PercentString(thyao.UnrealizedPct))
	}
	if len(v.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", v.Warnings)
	}
}

func TestValue_MissingPrice(t *testing.T) {
	l := NewLedger(
		deposit("2025-01-02", usd(1000)),
		buy("2025-01-05", AAPL, 2, usd(100)),
		buy("2025-01-05", GOOGL, 1, usd(300)),
		sell("2025-01-06", GOOGL, 1, usd(310)),
	)
	market := flatMarket(rate, nil)

	v, err := l.Value(market, day("2025-02-01"))
	if err != nil {
		t.Fatalf("Value() unexpected error: %v", err)
	}
	aapl := v.Holdings[0]
	if !aapl.Stale {
		t.Errorf("AAPL Stale = false, want true")
	}
	if got, want := aapl.ValueUSD, usd(200); !got.Equal(want) {
		t.Errorf("AAPL ValueUSD = %v, want %v", got, want)
	}
	if v.Holdings[1].Stale {
		t.Errorf("closed GOOGL Stale = true, want false")
	}
	if len(v.Warnings) != 1 || !errors.Is(v.Warnings[0], ErrMissingPrice) {
		t.Errorf("Warnings = %v, want a single %v", v.Warnings, ErrMissingPrice)
	}
	if got, want := v.RealizedUSD(), usd(10); !got.Equal(want) {
		t.Errorf("RealizedUSD() = %v, want %v", got, want)
	}
}

func TestValue_MissingRate(t *testing.T) {
	l := NewLedger(deposit("2025-01-02", usd(1000)))
	market := NewMarketData()
	market.SetRate(day("2025-03-01"), rate)

	if _, err := l.Value(market, day("2025-02-01")); !errors.Is(err, ErrMissingRate) {
		t.Errorf("Value() error = %v, want %v", err, ErrMissingRate)
	}

	empty, err := NewLedger().Value(market, day("2025-02-01"))
	if err != nil {
		t.Fatalf("Value() of an empty ledger unexpected error: %v", err)
	}
	if !empty.TotalUSD.IsZero() {
		t.Errorf("TotalUSD = %v, want 0", empty.TotalUSD)
	}
}

func TestMarketData_AsOf(t *testing.T) {
	m := NewMarketData()
	m.SetPrice("AAPL", day("2025-01-02"), usd(100))
	m.SetPrice("AAPL", day("2025-01-05"), usd(110))

	tests := []struct {
		on   date.Date
		want Money
		ok   bool
	}{
		{day("2025-01-01"), Money{}, false},
		{day("2025-01-02"), usd(100), true},
		{day("2025-01-04"), usd(100), true},
		{day("2025-02-01"), usd(110), true},
	}
	for _, tt := range tests {
		got, ok := m.Price("AAPL", tt.on)
		if ok != tt.ok || (ok && !got.Equal(tt.want)) {
			t.Errorf("Price(AAPL, %s) = %v, %v, want %v, %v", tt.on, got, ok, tt.want, tt.ok)
		}
	}
	if _, ok := m.Price("MSFT", day("2025-02-01")); ok {
		t.Errorf("Price(MSFT) ok = true, want false")
	}
}

func TestValue_Withdrawal(t *testing.T) {
	l := NewLedger(
		deposit("2025-01-02", usd(1000)),
		withdraw("2025-01-10", usd(400)),
	)
	v, err := l.Value(flatMarket(rate, nil), day("2025-02-01"))
	if err != nil {
		t.Fatalf("Value() unexpected error: %v", err)
	}
	tests := []struct {
		name      string
		got, want Money
	}{
		{"TotalUSD", v.TotalUSD, usd(600)},
		{"DepositedUSD", v.DepositedUSD, usd(1000)},
		{"NominalUSD()", v.NominalUSD(), usd(-400)},
		{"NominalTRY()", v.NominalTRY(), try(-14600)},
		{"NetUSD()", v.NetUSD(), usd(0)},
	}
	for _, tt := range tests {
		if !tt.got.Equal(tt.want) {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	loss := Percent(-40)
	if got, want := PercentString(v.Returns(day("2025-01-02")).SinceInception), PercentString(&loss); got != want {
		t.Errorf("Returns().SinceInception = %s, want %s", got, want)
	}
}
