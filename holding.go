package realfolio

import "fmt"

// Holding is the position in a single instrument, valued at its weighted average cost.
type Holding struct {
	Instrument
	Quantity    Quantity
	AvgCostUSD  Money // per unit
	RealizedUSD Money
}

func newHolding(inst Instrument) *Holding {
	return &Holding{Instrument: inst, AvgCostUSD: M(0, USD), RealizedUSD: M(0, USD)}
}

// IsClosed reports whether the position has been entirely sold. The cost record is kept.
func (h *Holding) IsClosed() bool { return h.Quantity.IsZero() }

// CostUSD returns the cost basis of the remaining units.
func (h *Holding) CostUSD() Money { return h.AvgCostUSD.Mul(h.Quantity) }

// buy adds units and recomputes the average cost:
//
//	avg = (qty × avg + n × price) / (qty + n)
func (h *Holding) buy(n Quantity, priceUSD Money) {
	total := h.Quantity.Add(n)
	cost := h.AvgCostUSD.Mul(h.Quantity).Add(priceUSD.Mul(n))
	h.AvgCostUSD = cost.Div(total)
	h.Quantity = total
}

// sell removes units, realizing the difference between price and average cost.
// The average cost is unchanged.
func (h *Holding) sell(n Quantity, priceUSD Money) error {
	if n.GreaterThan(h.Quantity) {
		return fmt.Errorf("cannot sell %s %s, holding is %s: %w", n, h.Symbol, h.Quantity, ErrInsufficientHoldings)
	}
	h.RealizedUSD = h.RealizedUSD.Add(priceUSD.Sub(h.AvgCostUSD).Mul(n))
	h.Quantity = h.Quantity.Sub(n)
	return nil
}
