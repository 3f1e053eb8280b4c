package realfolio

import (
	"sync"

	"github.com/etnz/realfolio/date"
)

// Market supplies the prices and the USD/TRY rate used to value a portfolio.
type Market interface {
	// Price returns the unit price of symbol, in its trade currency, as of 'on'.
	Price(symbol string, on date.Date) (Money, bool)
	// Rate returns the USD/TRY rate as of 'on'.
	Rate(on date.Date) (Rate, bool)
}

// MarketData is an in-memory Market made of daily price and rate histories.
// Lookups return the latest value on or before the requested date.
// It is safe for concurrent use.
type MarketData struct {
	mu     sync.RWMutex
	prices map[string]*date.History[Money]
	rates  date.History[Rate]
}

// NewMarketData returns a new empty market data collection.
func NewMarketData() *MarketData {
	return &MarketData{prices: make(map[string]*date.History[Money])}
}

// SetPrice records the price of symbol on a given day.
func (m *MarketData) SetPrice(symbol string, on date.Date, price Money) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.prices[symbol]
	if !ok {
		h = new(date.History[Money])
		m.prices[symbol] = h
	}
	h.Append(on, price)
}

// SetRate records the USD/TRY rate on a given day.
func (m *MarketData) SetRate(on date.Date, rate Rate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates.Append(on, rate)
}

func (m *MarketData) Price(symbol string, on date.Date) (Money, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.prices[symbol]
	if !ok {
		return Money{}, false
	}
	return h.ValueAsOf(on)
}

func (m *MarketData) Rate(on date.Date) (Rate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rates.ValueAsOf(on)
}

// Has reports whether any price is known for symbol.
func (m *MarketData) Has(symbol string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.prices[symbol]
	return ok
}

// LatestRate returns the most recent known rate and its date.
func (m *MarketData) LatestRate() (date.Date, Rate) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rates.Latest()
}
