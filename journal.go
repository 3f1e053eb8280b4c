package realfolio

import (
	"fmt"

	"github.com/etnz/realfolio/date"
)

// event represents a single, atomic operation in the portfolio's history.
// It is the lowest-level fact from which all states are derived.
type event interface {
	source() Transaction
}

// Journal holds the chronologically sorted list of atomic events compiled from a ledger.
type Journal struct {
	events []event
}

// --- Cash Events ---

// creditCash increases the balance of a cash account.
type creditCash struct {
	tx       Transaction
	amount   Money
	external bool // true when cash comes from outside.
}

// debitCash decreases the balance of a cash account.
type debitCash struct {
	tx       Transaction
	amount   Money
	external bool // true when cash goes outside.
}

// --- Instrument Events ---

// acquireUnits adds units of an instrument at a USD unit price.
type acquireUnits struct {
	tx       Transaction
	inst     Instrument
	quantity Quantity
	priceUSD Money
}

// disposeUnits removes units of an instrument at a USD unit price.
type disposeUnits struct {
	tx       Transaction
	inst     Instrument
	quantity Quantity
	priceUSD Money
}

// --- Interest Events ---

// lockInterest opens an interest deposit.
type lockInterest struct {
	tx      Transaction
	deposit InterestIn
}

// releaseInterest closes open interest deposits back into cash.
type releaseInterest struct {
	tx       Transaction
	currency string
	deposit  string // empty for every open deposit in currency
}

func (e creditCash) source() Transaction      { return e.tx }
func (e debitCash) source() Transaction       { return e.tx }
func (e acquireUnits) source() Transaction    { return e.tx }
func (e disposeUnits) source() Transaction    { return e.tx }
func (e lockInterest) source() Transaction    { return e.tx }
func (e releaseInterest) source() Transaction { return e.tx }

// NewJournal converts a Ledger of high-level transactions into a Journal of low-level, atomic events.
func NewJournal(ledger *Ledger) (*Journal, error) {
	journal := &Journal{
		events: make([]event, 0, len(ledger.transactions)*2),
	}

	// ledger order is the replay order, events of a transaction keep their order:
	// the debit (and its checks) always comes first.
	for _, tx := range ledger.transactions {
		switch v := tx.(type) {
		case Deposit:
			journal.events = append(journal.events,
				creditCash{tx: v, amount: v.Amount, external: true},
			)
		case Withdraw:
			journal.events = append(journal.events,
				debitCash{tx: v, amount: v.Amount, external: true},
			)
		case Exchange:
			journal.events = append(journal.events,
				debitCash{tx: v, amount: v.Amount},
				creditCash{tx: v, amount: v.Proceeds()},
			)
		case Buy:
			journal.events = append(journal.events,
				debitCash{tx: v, amount: v.Cost()},
				acquireUnits{tx: v, inst: v.Instrument, quantity: v.Quantity, priceUSD: v.PriceUSD()},
			)
		case Sell:
			journal.events = append(journal.events,
				disposeUnits{tx: v, inst: v.Instrument, quantity: v.Quantity, priceUSD: v.PriceUSD()},
				creditCash{tx: v, amount: v.Cost()},
			)
		case InterestIn:
			journal.events = append(journal.events,
				debitCash{tx: v, amount: v.Amount},
				lockInterest{tx: v, deposit: v},
			)
		case InterestOut:
			journal.events = append(journal.events,
				releaseInterest{tx: v, currency: v.Currency, deposit: v.Deposit},
			)
		default:
			return nil, fmt.Errorf("unhandled transaction type: %T", tx)
		}
	}
	return journal, nil
}

// Len returns the number of events.
func (j *Journal) Len() int { return len(j.events) }

// until returns the events whose transaction is effective on or before 'on'.
// The zero date means no limit.
func (j *Journal) until(on date.Date) []event {
	if on.IsZero() {
		return j.events
	}
	for i, e := range j.events {
		if e.source().When().After(on) {
			return j.events[:i]
		}
	}
	return j.events
}
