package renderer

import (
	"strings"
	"testing"

	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/date"
)

func testLedger(t *testing.T) (*realfolio.Ledger, *realfolio.MarketData) {
	t.Helper()
	rate := realfolio.R(36.5)
	txs := []realfolio.Transaction{
		realfolio.NewDeposit(date.New(2025, 1, 2), realfolio.M(1000, realfolio.USD), rate, "salary"),
		realfolio.NewBuy(date.New(2025, 1, 3), realfolio.NewInstrument("AAPL"), realfolio.Q(5), realfolio.M(100, realfolio.USD), rate, ""),
	}
	for i, tx := range txs {
		fixed, err := realfolio.Validate(tx)
		if err != nil {
			t.Fatal(err)
		}
		txs[i] = fixed
	}
	md := realfolio.NewMarketData()
	md.SetRate(date.New(2000, 1, 1), rate)
	md.SetPrice("AAPL", date.New(2000, 1, 1), realfolio.M(120, realfolio.USD))
	return realfolio.NewLedger(txs...), md
}

func TestSummary(t *testing.T) {
	ledger, md := testLedger(t)
	view, err := realfolio.Evaluate(ledger, md, nil, date.New(2025, 2, 1))
	if err != nil {
		t.Fatal(err)
	}
	got := Summary(view)
	for _, want := range []string{
		"# Portfolio on 2025-02-01",
		"| Holdings | $600.00 | |",
		"| **Total** | **$1,100.00** |",
		"| Nominal P&L | +$100.00 (+10.00%) |",
		"| AAPL | 5 | $100.00 | $120.00 | $600.00 | +$100.00 (+20.00%) | - |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() does not contain %q, got:\n%s", want, got)
		}
	}
	if strings.Contains(got, "error") || strings.Contains(got, "## Warnings") {
		t.Errorf("Summary() = %s, want no error and no warnings", got)
	}
}

func TestPnL(t *testing.T) {
	ledger, md := testLedger(t)
	view, err := realfolio.PeriodPnL(ledger, md, nil, date.NewRange(date.New(2025, 1, 1), date.New(2025, 2, 1)))
	if err != nil {
		t.Fatal(err)
	}
	got := PnL(view)
	for _, want := range []string{
		"# P&L from 2025-01-01 to 2025-02-01",
		"32 days.",
		"| Inflows | $1,000.00 |",
		"| **P&L** | **+$100.00** |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("PnL() does not contain %q, got:\n%s", want, got)
		}
	}
}

func TestTransactions(t *testing.T) {
	ledger, _ := testLedger(t)
	var txs []realfolio.Transaction
	for _, tx := range ledger.Transactions() {
		txs = append(txs, tx)
	}
	got := Transactions(txs)
	for _, want := range []string{"Deposited $1,000.00", "Bought 5 AAPL at $100.00", "| salary |"} {
		if !strings.Contains(got, want) {
			t.Errorf("Transactions() does not contain %q, got:\n%s", want, got)
		}
	}
	if got := Transactions(nil); got != "No transactions.\n" {
		t.Errorf("Transactions(nil) = %q, want %q", got, "No transactions.\n")
	}
}

func TestShortID(t *testing.T) {
	tests := []struct{ id, want string }{
		{"0b5e2c1a-9d1f-4c3e-8a7b-1234567890ab", "0b5e2c1a"},
		{"d1", "d1"},
	}
	for _, tt := range tests {
		if got := shortID(tt.id); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestCPI(t *testing.T) {
	points := []realfolio.CPIPoint{
		{Quarter: "2024-Q4", Value: 310.5, Status: realfolio.Published},
		{Quarter: "2025-Q1", Value: 312.8, Status: realfolio.Published},
	}
	got := CPI(points, 2.52, "Cleveland Fed")
	for _, want := range []string{"| 2025-Q1 | 312.800 | +0.74% | published |", "Expected inflation: 2.52% a year (Cleveland Fed)"} {
		if !strings.Contains(got, want) {
			t.Errorf("CPI() does not contain %q, got:\n%s", want, got)
		}
	}
	if got := CPI(nil, 3, "configured"); strings.Contains(got, "| Quarter |") {
		t.Errorf("CPI(nil) = %q, want no table", got)
	}
}

func TestBankRate(t *testing.T) {
	got := BankRate(realfolio.R(40.4), realfolio.NewBankRate(realfolio.R(40), realfolio.R(41), "TCMB"))
	for _, want := range []string{"| Bank mid | 40.5000 |", "| Spread | 2.50% |", "Source: TCMB"} {
		if !strings.Contains(got, want) {
			t.Errorf("BankRate() does not contain %q, got:\n%s", want, got)
		}
	}
}
