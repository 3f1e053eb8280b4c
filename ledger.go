package realfolio

import (
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/etnz/realfolio/date"
)

// Ledger represents a list of transactions.
//
// In a Ledger transactions are always in chronological order: by effective
// date, then by creation time, then by insertion order.
type Ledger struct {
	transactions []Transaction
}

// NewLedger creates a ledger with transactions.
func NewLedger(txs ...Transaction) *Ledger {
	l := &Ledger{transactions: make([]Transaction, 0, len(txs))}
	l.Append(txs...)
	return l
}

// Append appends transactions to this ledger and maintains the chronological order of transactions.
func (l *Ledger) Append(txs ...Transaction) {
	l.transactions = append(l.transactions, txs...)
	l.stableSort()
}

// Remove removes the transaction with that id.
func (l *Ledger) Remove(id string) (Transaction, error) {
	i := slices.IndexFunc(l.transactions, func(tx Transaction) bool { return tx.Identity() == id })
	if i < 0 {
		return nil, fmt.Errorf("transaction %q: %w", id, ErrNotFound)
	}
	tx := l.transactions[i]
	l.transactions = slices.Delete(l.transactions, i, i+1)
	return tx, nil
}

// Get returns the transaction with that id.
func (l *Ledger) Get(id string) (Transaction, bool) {
	for _, tx := range l.transactions {
		if tx.Identity() == id {
			return tx, true
		}
	}
	return nil, false
}

// Len returns the number of transactions.
func (l *Ledger) Len() int { return len(l.transactions) }

// Clone returns a shallow copy, transactions are immutable values.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{transactions: slices.Clone(l.transactions)}
}

// Transactions returns an iterator over the transactions accepted by all filters, in chronological order.
func (l *Ledger) Transactions(filters ...func(Transaction) bool) iter.Seq2[int, Transaction] {
	return func(yield func(int, Transaction) bool) {
	next:
		for i, tx := range l.transactions {
			for _, filter := range filters {
				if !filter(tx) {
					continue next
				}
			}
			if !yield(i, tx) {
				return
			}
		}
	}
}

// Until filters transactions effective on or before 'on'.
func Until(on date.Date) func(Transaction) bool {
	return func(tx Transaction) bool { return !tx.When().After(on) }
}

// Before filters transactions effective strictly before 'on'.
func Before(on date.Date) func(Transaction) bool {
	return func(tx Transaction) bool { return tx.When().Before(on) }
}

// Within filters transactions effective in r.
func Within(r date.Range) func(Transaction) bool {
	return func(tx Transaction) bool { return r.Contains(tx.When()) }
}

// Prefix returns a new ledger with the transactions accepted by the filters.
func (l *Ledger) Prefix(filters ...func(Transaction) bool) *Ledger {
	p := &Ledger{}
	for _, tx := range l.Transactions(filters...) {
		p.transactions = append(p.transactions, tx)
	}
	return p
}

// Recent returns at most limit transactions, most recently created first.
func (l *Ledger) Recent(limit int) []Transaction {
	txs := slices.Clone(l.transactions)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt().After(txs[j].CreatedAt()) })
	if limit >= 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs
}

// stableSort sorts the ledger by effective date then creation time. The sort is stable,
// transactions created at the same instant keep their insertion order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.transactions, func(i, j int) bool {
		a, b := l.transactions[i], l.transactions[j]
		if c := a.When().Compare(b.When()); c != 0 {
			return c < 0
		}
		return a.CreatedAt().Before(b.CreatedAt())
	})
}

// InceptionDate returns the date of the first transaction, the zero date if the ledger is empty.
func (l *Ledger) InceptionDate() date.Date {
	if len(l.transactions) == 0 {
		return date.Date{}
	}
	return l.transactions[0].When()
}

// NewestTransactionDate returns the date of the latest transaction.
func (l *Ledger) NewestTransactionDate() date.Date {
	if len(l.transactions) == 0 {
		return date.Date{}
	}
	return l.transactions[len(l.transactions)-1].When()
}

// Symbols returns every instrument symbol traded in the ledger, sorted.
func (l *Ledger) Symbols() []string {
	var symbols []string
	for _, tx := range l.transactions {
		switch v := tx.(type) {
		case Buy:
			symbols = append(symbols, v.Symbol)
		case Sell:
			symbols = append(symbols, v.Symbol)
		}
	}
	slices.Sort(symbols)
	return slices.Compact(symbols)
}
