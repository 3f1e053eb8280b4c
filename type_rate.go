package realfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rate is a USD/TRY exchange rate: the price of one USD in TRY.
type Rate struct {
	value decimal.Decimal
}

func R[T number](value T) Rate { return Rate{value: newDecimal(value)} }

func (r Rate) IsZero() bool             { return r.value.IsZero() }
func (r Rate) IsPositive() bool         { return r.value.IsPositive() }
func (r Rate) Equal(s Rate) bool        { return r.value.Equal(s.value) }
func (r Rate) String() string           { return r.value.StringFixed(4) }
func (r Rate) Float() float64           { return r.value.InexactFloat64() }
func (r Rate) Decimal() decimal.Decimal { return r.value }

// To converts m into currency cur. Money already in cur is returned unchanged.
func (r Rate) To(cur string, m Money) Money {
	switch {
	case m.cur == cur:
		return m
	case m.cur == USD && cur == TRY:
		return Money{value: m.value.Mul(r.value), cur: TRY}
	case m.cur == TRY && cur == USD:
		return Money{value: m.value.Div(r.value), cur: USD}
	default:
		panic(fmt.Sprintf("cannot convert %s to %s with USD/TRY rate", m.cur, cur))
	}
}

// ToUSD converts m into USD.
func (r Rate) ToUSD(m Money) Money { return r.To(USD, m) }

// ToTRY converts m into TRY.
func (r Rate) ToTRY(m Money) Money { return r.To(TRY, m) }

func (r Rate) MarshalJSON() ([]byte, error)  { return r.value.MarshalJSON() }
func (r *Rate) UnmarshalJSON(b []byte) error { return r.value.UnmarshalJSON(b) }
