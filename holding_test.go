package realfolio

import (
	"errors"
	"testing"
)

func TestHolding_WeightedAverage(t *testing.T) {
	h := newHolding(AAPL)
	h.buy(Q(10), usd(100))
	h.buy(Q(10), usd(200))

	if got, want := h.AvgCostUSD, usd(150); !got.Equal(want) {
		t.Errorf("AvgCostUSD = %v, want %v", got, want)
	}
	if got, want := h.Quantity, Q(20); !got.Equal(want) {
		t.Errorf("Quantity = %v, want %v", got, want)
	}

	if err := h.sell(Q(5), usd(170)); err != nil {
		t.Fatalf("sell() unexpected error: %v", err)
	}
	if got, want := h.AvgCostUSD, usd(150); !got.Equal(want) {
		t.Errorf("AvgCostUSD after sell = %v, want %v", got, want)
	}
	if got, want := h.RealizedUSD, usd(100); !got.Equal(want) {
		t.Errorf("RealizedUSD = %v, want %v", got, want)
	}
}

func TestHolding_BuySellSamePrice(t *testing.T) {
	h := newHolding(AAPL)
	h.buy(Q(7), usd(123.45))
	if err := h.sell(Q(7), usd(123.45)); err != nil {
		t.Fatalf("sell() unexpected error: %v", err)
	}
	if !h.RealizedUSD.IsZero() {
		t.Errorf("RealizedUSD = %v, want 0", h.RealizedUSD)
	}
	if !h.IsClosed() {
		t.Errorf("IsClosed() = false, want true")
	}
	if got, want := h.AvgCostUSD, usd(123.45); !got.Equal(want) {
		t.Errorf("AvgCostUSD of a closed holding = %v, want %v", got, want)
	}
}

func TestHolding_Oversell(t *testing.T) {
	h := newHolding(AAPL)
	h.buy(Q(1), usd(10))
	err := h.sell(Q(2), usd(10))
	if !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("sell() error = %v, want %v", err, ErrInsufficientHoldings)
	}
	if got, want := h.Quantity, Q(1); !got.Equal(want) {
		t.Errorf("Quantity after failed sell = %v, want %v", got, want)
	}
}

func TestHolding_Dust(t *testing.T) {
	h := newHolding(AAPL)
	h.buy(Q(1.00005), usd(10))
	if err := h.sell(Q(1), usd(10)); err != nil {
		t.Fatalf("sell() unexpected error: %v", err)
	}
	if !h.IsClosed() {
		t.Errorf("Quantity = %v, want closed", h.Quantity)
	}
}

func TestHolding_SmallRemainder(t *testing.T) {
	btc := NewInstrument("BTC")
	h := newHolding(btc)
	h.buy(Q(0.5), usd(100000))
	if err := h.sell(Q(0.49995), usd(100000)); err != nil {
		t.Fatalf("sell() unexpected error: %v", err)
	}
	if got, want := h.Quantity, Q(0.00005); !got.Equal(want) {
		t.Errorf("Quantity = %v, want %v", got, want)
	}
	if got, want := h.CostUSD(), usd(5); !got.Equal(want) {
		t.Errorf("CostUSD() = %v, want %v", got, want)
	}
	if err := h.sell(Q(0.00005), usd(100000)); err != nil {
		t.Fatalf("sell(remainder) unexpected error: %v", err)
	}
	if !h.IsClosed() {
		t.Errorf("IsClosed() = false after selling the remainder, quantity %v", h.Quantity)
	}
}
