package realfolio

import (
	"fmt"
	"slices"

	"github.com/etnz/realfolio/date"
)

// Flow is an external cash movement: a deposit (positive) or a withdrawal (negative).
type Flow struct {
	Date   date.Date
	Kind   CommandType
	Amount Money // signed, in the transaction currency
	USD    Money // signed, converted at the transaction rate
	TRY    Money // signed, converted at the transaction rate
}

// State is the portfolio derived from replaying a ledger up to a date.
// It holds quantities and costs only, valuing it requires a Market.
type State struct {
	On       date.Date
	Cash     map[string]Money // by currency
	Interest map[string]Money // principal locked in open deposits, by currency
	Deposits []InterestIn     // open deposits, in opening order
	Holdings map[string]*Holding
	Flows    []Flow

	DepositedUSD, DepositedTRY Money
	WithdrawnUSD, WithdrawnTRY Money
}

func newState(on date.Date) *State {
	return &State{
		On:           on,
		Cash:         map[string]Money{USD: M(0, USD), TRY: M(0, TRY)},
		Interest:     map[string]Money{USD: M(0, USD), TRY: M(0, TRY)},
		Holdings:     make(map[string]*Holding),
		DepositedUSD: M(0, USD),
		DepositedTRY: M(0, TRY),
		WithdrawnUSD: M(0, USD),
		WithdrawnTRY: M(0, TRY),
	}
}

// Replay folds every transaction of the ledger effective on or before 'on' into
// a State. The zero date replays the whole ledger. It fails on the first
// transaction that would make a cash balance or a holding negative.
func Replay(ledger *Ledger, on date.Date) (*State, error) {
	journal, err := NewJournal(ledger)
	if err != nil {
		return nil, err
	}
	s := newState(on)
	for _, e := range journal.until(on) {
		if err := s.apply(e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Check replays the whole ledger and reports the first inconsistency.
func Check(ledger *Ledger) error {
	_, err := Replay(ledger, date.Date{})
	return err
}

// apply processes a single event.
func (s *State) apply(e event) error {
	tx := e.source()
	switch v := e.(type) {
	case creditCash:
		s.Cash[v.amount.Currency()] = s.Cash[v.amount.Currency()].Add(v.amount)
		if v.external {
			f := s.flow(tx, v.amount)
			s.DepositedUSD = s.DepositedUSD.Add(f.USD)
			s.DepositedTRY = s.DepositedTRY.Add(f.TRY)
		}
	case debitCash:
		balance := s.Cash[v.amount.Currency()]
		if balance.LessThan(v.amount) {
			return fmt.Errorf("on %s, cannot %s %s, cash balance is %s: %w", tx.When(), verb(tx), v.amount, balance, ErrInsufficientFunds)
		}
		s.Cash[v.amount.Currency()] = balance.Sub(v.amount)
		if v.external {
			f := s.flow(tx, v.amount.Neg())
			s.WithdrawnUSD = s.WithdrawnUSD.Sub(f.USD)
			s.WithdrawnTRY = s.WithdrawnTRY.Sub(f.TRY)
		}
	case acquireUnits:
		h, ok := s.Holdings[v.inst.Symbol]
		if !ok {
			h = newHolding(v.inst)
			s.Holdings[v.inst.Symbol] = h
		}
		h.buy(v.quantity, v.priceUSD)
	case disposeUnits:
		h, ok := s.Holdings[v.inst.Symbol]
		if !ok {
			return fmt.Errorf("on %s, cannot sell %s %s, nothing held: %w", tx.When(), v.quantity, v.inst.Symbol, ErrInsufficientHoldings)
		}
		if err := h.sell(v.quantity, v.priceUSD); err != nil {
			return fmt.Errorf("on %s, %w", tx.When(), err)
		}
	case lockInterest:
		cur := v.deposit.Amount.Currency()
		s.Interest[cur] = s.Interest[cur].Add(v.deposit.Amount)
		s.Deposits = append(s.Deposits, v.deposit)
	case releaseInterest:
		released := 0
		s.Deposits = slices.DeleteFunc(s.Deposits, func(d InterestIn) bool {
			if d.Amount.Currency() != v.currency || (v.deposit != "" && d.ID != v.deposit) {
				return false
			}
			s.Interest[v.currency] = s.Interest[v.currency].Sub(d.Amount)
			s.Cash[v.currency] = s.Cash[v.currency].Add(d.Amount).Add(d.Earned())
			released++
			return true
		})
		if released == 0 {
			if v.deposit != "" {
				return fmt.Errorf("on %s, no open %s interest deposit %q: %w", tx.When(), v.currency, v.deposit, ErrNotFound)
			}
			return fmt.Errorf("on %s, no open %s interest deposit: %w", tx.When(), v.currency, ErrNotFound)
		}
	default:
		return fmt.Errorf("unhandled event type: %T", e)
	}
	return nil
}

// flow records an external movement of signed amount and returns it.
func (s *State) flow(tx Transaction, amount Money) Flow {
	f := Flow{
		Date:   tx.When(),
		Kind:   tx.What(),
		Amount: amount,
		USD:    tx.USDTRY().ToUSD(amount),
		TRY:    tx.USDTRY().ToTRY(amount),
	}
	s.Flows = append(s.Flows, f)
	return f
}

// verb names the cash movement of tx for error messages.
func verb(tx Transaction) string {
	switch tx.What() {
	case CmdExchange:
		return "exchange"
	case CmdInterestIn:
		return "lock"
	default:
		return string(tx.What())
	}
}

// NetDepositedUSD returns deposits minus withdrawals, each at its own rate.
func (s *State) NetDepositedUSD() Money { return s.DepositedUSD.Sub(s.WithdrawnUSD) }

// NetDepositedTRY returns deposits minus withdrawals, each at its own rate.
func (s *State) NetDepositedTRY() Money { return s.DepositedTRY.Sub(s.WithdrawnTRY) }

// Symbols returns the held symbols, closed positions included, sorted.
func (s *State) Symbols() []string {
	symbols := make([]string, 0, len(s.Holdings))
	for sym := range s.Holdings {
		symbols = append(symbols, sym)
	}
	slices.Sort(symbols)
	return symbols
}

// Holding returns the position for symbol.
func (s *State) Holding(symbol string) (*Holding, bool) {
	h, ok := s.Holdings[symbol]
	return h, ok
}
