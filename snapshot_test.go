package realfolio

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/etnz/realfolio/date"
	"github.com/shopspring/decimal"
)

func TestReplay(t *testing.T) {
	l := NewLedger(
		deposit("2025-01-02", usd(10000)),
		deposit("2025-01-02", try(73000)),
		NewExchange(day("2025-01-03"), BuyUSD, try(36500), rate, ""),
		NewExchange(day("2025-01-04"), SellUSD, usd(100), rate, ""),
		buy("2025-01-05", AAPL, 10, usd(100)),
		buy("2025-01-06", AAPL, 10, usd(200)),
		buy("2025-01-07", THYAO, 100, try(292)),
		sell("2025-01-08", AAPL, 5, usd(250)),
		withdraw("2025-01-09", usd(500)),
	)

	s, err := Replay(l, date.Date{})
	if err != nil {
		t.Fatalf("Replay() unexpected error: %v", err)
	}

	// USD: 10000 + 1000 - 100 - 1000 - 2000 + 1250 - 500
	if got, want := s.Cash[USD], usd(8650); !got.Equal(want) {
		t.Errorf("Cash[USD] = %v, want %v", got, want)
	}
	// TRY: 73000 - 36500 + 3650 - 29200
	if got, want := s.Cash[TRY], try(10950); !got.Equal(want) {
		t.Errorf("Cash[TRY] = %v, want %v", got, want)
	}

	aapl, _ := s.Holding("AAPL")
	if got, want := aapl.Quantity, Q(15); !got.Equal(want) {
		t.Errorf("AAPL Quantity = %v, want %v", got, want)
	}
	if got, want := aapl.RealizedUSD, usd(500); !got.Equal(want) {
		t.Errorf("AAPL RealizedUSD = %v, want %v", got, want)
	}

	thyao, _ := s.Holding("THYAO.IS")
	// 292 TRY at 36.5
	if got, want := thyao.AvgCostUSD, usd(8); !got.Equal(want) {
		t.Errorf("THYAO.IS AvgCostUSD = %v, want %v", got, want)
	}

	if got, want := s.DepositedUSD, usd(12000); !got.Equal(want) {
		t.Errorf("DepositedUSD = %v, want %v", got, want)
	}
	if got, want := s.DepositedTRY, try(438000); !got.Equal(want) {
		t.Errorf("DepositedTRY = %v, want %v", got, want)
	}
	if got, want := s.NetDepositedUSD(), usd(11500); !got.Equal(want) {
		t.Errorf("NetDepositedUSD() = %v, want %v", got, want)
	}
	if got := len(s.Flows); got != 3 {
		t.Errorf("len(Flows) = %d, want 3", got)
	}
}

func TestReplay_Deterministic(t *testing.T) {
	l := NewLedger(
		deposit("2025-01-02", usd(1000)),
		buy("2025-01-05", AAPL, 3, usd(101.37)),
		sell("2025-02-05", AAPL, 1, usd(99.12)),
	)
	a, err := Replay(l, date.Date{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Replay(l.Clone(), date.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Replay() is not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestReplay_Prefix(t *testing.T) {
	l := NewLedger(
		deposit("2025-01-02", usd(1000)),
		buy("2025-01-05", AAPL, 3, usd(100)),
	)
	s, err := Replay(l, day("2025-01-04"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s.Cash[USD], usd(1000); !got.Equal(want) {
		t.Errorf("Cash[USD] on 2025-01-04 = %v, want %v", got, want)
	}
	if len(s.Holdings) != 0 {
		t.Errorf("Holdings on 2025-01-04 = %v, want none", s.Holdings)
	}
}

func TestReplay_Rejections(t *testing.T) {
	in := NewInterestIn(try(1000), decimal.NewFromInt(45), day("2025-01-03"), day("2025-02-03"), PayAtEnd, rate, "")
	tests := []struct {
		name string
		txs  []Transaction
		want error
		msg  string
	}{
		{
			name: "withdraw",
			txs:  []Transaction{deposit("2025-03-01", usd(100)), withdraw("2025-03-01", usd(500))},
			want: ErrInsufficientFunds,
			msg:  "on 2025-03-01, cannot withdraw $500.00, cash balance is $100.00: insufficient funds",
		},
		{
			name: "buy",
			txs:  []Transaction{deposit("2025-03-01", usd(100)), buy("2025-03-02", AAPL, 2, usd(60))},
			want: ErrInsufficientFunds,
		},
		{
			name: "buy BIST with USD",
			txs:  []Transaction{deposit("2025-03-01", usd(100000)), buy("2025-03-02", THYAO, 1, try(300))},
			want: ErrInsufficientFunds,
		},
		{
			name: "exchange",
			txs:  []Transaction{deposit("2025-03-01", usd(100)), NewExchange(day("2025-03-02"), SellUSD, usd(101), rate, "")},
			want: ErrInsufficientFunds,
		},
		{
			name: "sell",
			txs:  []Transaction{deposit("2025-03-01", usd(100)), buy("2025-03-02", AAPL, 1, usd(60)), sell("2025-03-03", AAPL, 2, usd(60))},
			want: ErrInsufficientHoldings,
		},
		{
			name: "sell unknown",
			txs:  []Transaction{sell("2025-03-03", AAPL, 1, usd(60))},
			want: ErrInsufficientHoldings,
		},
		{
			name: "interest in",
			txs:  []Transaction{deposit("2025-01-01", try(999)), in},
			want: ErrInsufficientFunds,
		},
		{
			name: "interest out",
			txs:  []Transaction{NewInterestOut(day("2025-03-03"), TRY, "", rate, "")},
			want: ErrNotFound,
		},
		{
			name: "withdraw before deposit",
			txs:  []Transaction{withdraw("2025-02-28", usd(50)), deposit("2025-03-01", usd(100))},
			want: ErrInsufficientFunds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Replay(NewLedger(tt.txs...), date.Date{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Replay() error = %v, want %v", err, tt.want)
			}
			if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Replay() error = %q, want %q", err, tt.msg)
			}
		})
	}
}

func TestReplay_Interest(t *testing.T) {
	in1 := NewInterestIn(try(10000), decimal.NewFromInt(36), day("2025-01-01"), day("2025-02-01"), PayMonthly, rate, "")
	in2 := NewInterestIn(try(5000), decimal.NewFromInt(73), day("2025-01-10"), day("2025-01-20"), PayAtEnd, rate, "")
	l := NewLedger(
		deposit("2024-12-31", try(20000)),
		in1,
		in2,
	)

	s, err := Replay(l, day("2025-01-15"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s.Cash[TRY], try(5000); !got.Equal(want) {
		t.Errorf("Cash[TRY] = %v, want %v", got, want)
	}
	if got, want := s.Interest[TRY], try(15000); !got.Equal(want) {
		t.Errorf("Interest[TRY] = %v, want %v", got, want)
	}
	if len(s.Deposits) != 2 {
		t.Fatalf("len(Deposits) = %d, want 2", len(s.Deposits))
	}

	// release only the second deposit: 5000 × 73% × 10/365 = 100
	l.Append(NewInterestOut(day("2025-01-20"), TRY, in2.Identity(), rate, ""))
	s, err = Replay(l, date.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s.Cash[TRY], try(10100); !got.Equal(want) {
		t.Errorf("Cash[TRY] after release = %v, want %v", got, want)
	}
	if got, want := s.Interest[TRY], try(10000); !got.Equal(want) {
		t.Errorf("Interest[TRY] after release = %v, want %v", got, want)
	}

	// release all: 10000 × 36% × 31/365 ≈ 305.75
	l.Append(NewInterestOut(day("2025-02-01"), TRY, "", rate, ""))
	s, err = Replay(l, date.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s.Cash[TRY].Round(), try(20405.75); !got.Equal(want) {
		t.Errorf("Cash[TRY] after release all = %v, want %v", got, want)
	}
	if !s.Interest[TRY].IsZero() || len(s.Deposits) != 0 {
		t.Errorf("Interest[TRY] = %v with %d deposits, want none", s.Interest[TRY], len(s.Deposits))
	}

	// the released deposit cannot be released twice
	l.Append(NewInterestOut(day("2025-02-02"), TRY, in2.Identity(), rate, ""))
	if _, err := Replay(l, date.Date{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replay() error = %v, want %v", err, ErrNotFound)
	}
}
