// Package oracle composes the market data fetchers into a realfolio.Market and
// a realfolio.CPISource.
//
// Live values are cached for a short time, history is loaded once per symbol.
// When a remote source fails the oracle retries a few times, then falls back
// to the last known value, and finally to configured estimates.
package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/bls"
	"github.com/etnz/realfolio/date"
	"github.com/etnz/realfolio/tcmb"
	"github.com/etnz/realfolio/yahoo"
	"go.uber.org/zap"
)

// Config tunes the oracle.
type Config struct {
	FallbackRate      float64       // USD/TRY used when no rate is known at all
	ExpectedInflation float64       // annual percent used when no expectation is available
	RateTTL           time.Duration // live prices, rates and bank quotes
	CPITTL            time.Duration // CPI index and inflation expectation
	Timeout           time.Duration // per lookup
	Attempts          int           // per remote call
	HistoryRange      string        // range of daily closes loaded per symbol
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		FallbackRate:      36.5,
		ExpectedInflation: 3,
		RateTTL:           300 * time.Second,
		CPITTL:            24 * time.Hour,
		Timeout:           15 * time.Second,
		Attempts:          3,
		HistoryRange:      "10y",
	}
}

// SourceConfigured tags an expectation that comes from the configuration.
const SourceConfigured = "configured"

// cache keys
const (
	keyRate     = "rate"
	keyBank     = "bank"
	keyCPI      = "cpi"
	keyExpected = "expected"
	keyPrice    = "price:"
)

// Oracle implements realfolio.Market and realfolio.CPISource on top of the remote sources.
type Oracle struct {
	cfg   Config
	yahoo *yahoo.Client
	tcmb  *tcmb.Client
	bls   *bls.Client
	log   *zap.Logger
	today func() date.Date
	cache *ristretto.Cache

	history *realfolio.MarketData
	cpi     *realfolio.CPISeries

	loading sync.Mutex      // serializes history loads
	loaded  map[string]bool // symbols whose history is loaded, guarded by loading

	mu       sync.Mutex
	lastRate realfolio.Rate
}

// New returns an Oracle reading from the given clients. A nil logger discards logs.
func New(cfg Config, y *yahoo.Client, t *tcmb.Client, b *bls.Client, logger *zap.Logger) (*Oracle, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 10,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oracle cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.HistoryRange == "" {
		cfg.HistoryRange = DefaultConfig().HistoryRange
	}
	return &Oracle{
		cfg:     cfg,
		yahoo:   y,
		tcmb:    t,
		bls:     b,
		log:     logger,
		today:   date.Today,
		cache:   c,
		history: realfolio.NewMarketData(),
		cpi:     realfolio.NewCPISeries(),
		loaded:  make(map[string]bool),
	}, nil
}

// Close releases the cache.
func (o *Oracle) Close() { o.cache.Close() }

// History returns the daily closes loaded so far.
func (o *Oracle) History() *realfolio.MarketData { return o.history }

func (o *Oracle) set(key string, value any, ttl time.Duration) {
	o.cache.SetWithTTL(key, value, 1, ttl)
	o.cache.Wait()
}

func (o *Oracle) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.cfg.Timeout)
}

// retry calls f up to 'attempts' times, doubling the pause between calls.
func retry[T any](ctx context.Context, attempts int, f func(context.Context) (T, error)) (res T, err error) {
	pause := 200 * time.Millisecond
	for i := range attempts {
		if res, err = f(ctx); err == nil {
			return res, nil
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			return res, fmt.Errorf("%w (after %d attempts: %w)", ctx.Err(), i+1, err)
		case <-t.C:
		}
		pause *= 2
	}
	return res, err
}

// loadHistory loads the daily closes of symbol, and of the USD/TRY rate for the empty symbol.
func (o *Oracle) loadHistory(ctx context.Context, symbol string) {
	o.loading.Lock()
	defer o.loading.Unlock()
	if o.loaded[symbol] {
		return
	}
	var symbols []string
	if symbol != "" {
		symbols = append(symbols, symbol)
	}
	// the rate history is refreshed with every symbol.
	_, err := retry(ctx, o.cfg.Attempts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.yahoo.Fill(ctx, o.history, o.cfg.HistoryRange, symbols...)
	})
	if err != nil {
		o.log.Warn("cannot load price history", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	o.loaded[symbol] = true
	o.loaded[""] = true
}

// Price implements realfolio.Market. Today's price is the live quote, earlier
// prices are daily closes.
func (o *Oracle) Price(symbol string, on date.Date) (realfolio.Money, bool) {
	ctx, cancel := o.context()
	defer cancel()
	inst := realfolio.NewInstrument(symbol)
	if !on.Before(o.today()) {
		if p, err := o.LivePrice(ctx, inst.Symbol); err == nil {
			return p, true
		}
	}
	o.loadHistory(ctx, inst.Symbol)
	p, ok := o.history.Price(inst.Symbol, on)
	if !ok {
		o.log.Warn("no price", zap.String("symbol", inst.Symbol), zap.Stringer("on", on))
	}
	return p, ok
}

// LivePrice returns the current price of symbol.
func (o *Oracle) LivePrice(ctx context.Context, symbol string) (realfolio.Money, error) {
	key := keyPrice + symbol
	if v, ok := o.cache.Get(key); ok {
		return v.(realfolio.Money), nil
	}
	p, err := retry(ctx, o.cfg.Attempts, func(ctx context.Context) (realfolio.Money, error) {
		return o.yahoo.Price(ctx, symbol)
	})
	if err != nil {
		o.log.Warn("live price unavailable", zap.String("symbol", symbol), zap.Error(err))
		return realfolio.Money{}, err
	}
	o.set(key, p, o.cfg.RateTTL)
	o.history.SetPrice(symbol, o.today(), p)
	return p, nil
}

// Rate implements realfolio.Market. Today's rate is the live rate, earlier
// rates are daily closes.
func (o *Oracle) Rate(on date.Date) (realfolio.Rate, bool) {
	ctx, cancel := o.context()
	defer cancel()
	if !on.Before(o.today()) {
		return o.LiveRate(ctx), true
	}
	o.loadHistory(ctx, "")
	r, ok := o.history.Rate(on)
	if !ok {
		o.log.Warn("no USD/TRY rate", zap.Stringer("on", on))
	}
	return r, ok
}

// LiveRate returns the current USD/TRY rate. It never fails: it falls back to
// the last known rate, then to the configured fallback rate.
func (o *Oracle) LiveRate(ctx context.Context) realfolio.Rate {
	if v, ok := o.cache.Get(keyRate); ok {
		return v.(realfolio.Rate)
	}
	r, err := retry(ctx, o.cfg.Attempts, o.yahoo.Rate)
	if err == nil {
		o.set(keyRate, r, o.cfg.RateTTL)
		o.history.SetRate(o.today(), r)
		o.mu.Lock()
		o.lastRate = r
		o.mu.Unlock()
		return r
	}

	o.mu.Lock()
	last := o.lastRate
	o.mu.Unlock()
	if !last.IsZero() {
		o.log.Warn("live USD/TRY rate unavailable, using last known", zap.Stringer("rate", last), zap.Error(err))
		return last
	}
	if _, h := o.history.LatestRate(); !h.IsZero() {
		o.log.Warn("live USD/TRY rate unavailable, using latest close", zap.Stringer("rate", h), zap.Error(err))
		return h
	}
	fallback := realfolio.R(o.cfg.FallbackRate)
	o.log.Warn("live USD/TRY rate unavailable, using fallback", zap.Stringer("rate", fallback), zap.Error(err))
	return fallback
}

// BankRate returns the central bank quote, or an estimate around the live rate.
func (o *Oracle) BankRate(ctx context.Context) realfolio.BankRate {
	if v, ok := o.cache.Get(keyBank); ok {
		return v.(realfolio.BankRate)
	}
	b, err := retry(ctx, o.cfg.Attempts, o.tcmb.BankRate)
	if err != nil {
		o.log.Warn("bank rate unavailable, estimating", zap.Error(err))
		return realfolio.EstimateBankRate(o.LiveRate(ctx))
	}
	o.set(keyBank, b, o.cfg.RateTTL)
	return b
}

// refreshCPI loads the published CPI once per CPITTL. Failures are retried after RateTTL.
func (o *Oracle) refreshCPI(ctx context.Context) {
	if _, ok := o.cache.Get(keyCPI); ok {
		return
	}
	points, err := retry(ctx, o.cfg.Attempts, func(ctx context.Context) ([]realfolio.CPIPoint, error) {
		return o.bls.CPI(ctx, o.today())
	})
	if err != nil {
		o.log.Warn("CPI unavailable", zap.Int("known_quarters", o.cpi.Len()), zap.Error(err))
		o.set(keyCPI, false, o.cfg.RateTTL)
		return
	}
	o.cpi.Add(points...)
	o.set(keyCPI, true, o.cfg.CPITTL)
}

// CPI implements realfolio.CPISource.
func (o *Oracle) CPI(quarter string) (realfolio.CPIPoint, bool) {
	ctx, cancel := o.context()
	defer cancel()
	o.refreshCPI(ctx)
	return o.cpi.CPI(quarter)
}

// CPIPoints returns the published quarters.
func (o *Oracle) CPIPoints(ctx context.Context) []realfolio.CPIPoint {
	o.refreshCPI(ctx)
	return o.cpi.Points()
}

// Expected returns the expected annual inflation: the Cleveland Fed estimate,
// else the trailing four quarters, else the configured rate.
func (o *Oracle) Expected(ctx context.Context) bls.Expectation {
	if v, ok := o.cache.Get(keyExpected); ok {
		return v.(bls.Expectation)
	}
	e, err := retry(ctx, o.cfg.Attempts, o.bls.Expected)
	if err == nil {
		o.set(keyExpected, e, o.cfg.CPITTL)
		return e
	}
	o.refreshCPI(ctx)
	if t, ok := bls.Trailing(o.cpi); ok {
		o.log.Warn("expected inflation unavailable, using trailing rate", zap.Float64("annual_rate", t.AnnualRate), zap.Error(err))
		o.set(keyExpected, t, o.cfg.RateTTL)
		return t
	}
	o.log.Warn("expected inflation unavailable, using configured rate", zap.Float64("annual_rate", o.cfg.ExpectedInflation), zap.Error(err))
	return bls.Expectation{AnnualRate: o.cfg.ExpectedInflation, Source: SourceConfigured}
}

// Inflation returns the inflation adjustment backed by the oracle.
func (o *Oracle) Inflation(ctx context.Context) *realfolio.Inflation {
	return realfolio.NewInflation(o, o.Expected(ctx).AnnualRate)
}
