package realfolio

import (
	"context"
	"fmt"
	"sync"

	"github.com/etnz/realfolio/date"
	"go.uber.org/zap"
)

// Transaction listing limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Service manages portfolios stored in a Store. Mutations of one portfolio are
// serialized, queries replay the stored ledger without locking.
type Service struct {
	store     Store
	market    Market
	inflation *Inflation
	log       *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService returns a Service. inflation may be nil to skip real returns, a nil
// logger discards logs.
func NewService(store Store, market Market, inflation *Inflation, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		market:    market,
		inflation: inflation,
		log:       logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Market returns the market used to value portfolios.
func (s *Service) Market() Market { return s.market }

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// Inflation returns the inflation adjustment, nil when disabled.
func (s *Service) Inflation() *Inflation { return s.inflation }

func (s *Service) lock(portfolio string) func() {
	s.mu.Lock()
	l, ok := s.locks[portfolio]
	if !ok {
		l = new(sync.Mutex)
		s.locks[portfolio] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Append validates tx against the portfolio's ledger and records it. A missing
// USD/TRY rate is taken from the market as of the transaction date. The
// recorded transaction is returned.
func (s *Service) Append(ctx context.Context, portfolio string, tx Transaction) (Transaction, error) {
	defer s.lock(portfolio)()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if tx.USDTRY().IsZero() && s.market != nil {
		on := tx.When()
		if on.IsZero() {
			on = date.Today()
		}
		if r, ok := s.market.Rate(on); ok {
			tx = withRate(tx, r)
		}
	}
	tx, err := Validate(tx)
	if err != nil {
		return nil, err
	}

	ledger, err := s.store.Load(ctx, portfolio)
	if err != nil {
		return nil, err
	}
	if _, exists := ledger.Get(tx.Identity()); exists {
		return nil, fmt.Errorf("transaction %q already exists: %w", tx.Identity(), ErrInvalidAmount)
	}
	ledger.Append(tx)
	if err := Check(ledger); err != nil {
		s.log.Info("transaction rejected",
			zap.String("portfolio", portfolio),
			zap.String("command", string(tx.What())),
			zap.Error(err))
		return nil, err
	}
	if err := s.store.Append(ctx, portfolio, tx); err != nil {
		return nil, err
	}
	s.log.Debug("transaction recorded",
		zap.String("portfolio", portfolio),
		zap.String("command", string(tx.What())),
		zap.String("id", tx.Identity()))
	return tx, nil
}

// Delete removes a transaction. It fails with ErrNotFound for an unknown id and
// leaves the ledger unchanged when the remaining transactions no longer replay.
func (s *Service) Delete(ctx context.Context, portfolio, id string) error {
	defer s.lock(portfolio)()
	if err := ctx.Err(); err != nil {
		return err
	}
	ledger, err := s.store.Load(ctx, portfolio)
	if err != nil {
		return err
	}
	tx, err := ledger.Remove(id)
	if err != nil {
		return err
	}
	if err := Check(ledger); err != nil {
		s.log.Info("deletion rejected",
			zap.String("portfolio", portfolio),
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("cannot delete %s %s: %w", tx.What(), id, err)
	}
	return s.store.Save(ctx, portfolio, ledger)
}

// Ledger returns the portfolio's ledger.
func (s *Service) Ledger(ctx context.Context, portfolio string) (*Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Load(ctx, portfolio)
}

// Transactions lists the most recently recorded transactions first. A limit
// outside of [1, MaxListLimit] is replaced by DefaultListLimit or MaxListLimit.
func (s *Service) Transactions(ctx context.Context, portfolio string, limit int) ([]Transaction, error) {
	ledger, err := s.Ledger(ctx, portfolio)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return ledger.Recent(limit), nil
}

// Snapshot evaluates the portfolio on 'on', today for the zero date.
func (s *Service) Snapshot(ctx context.Context, portfolio string, on date.Date) (*PortfolioView, error) {
	ledger, err := s.Ledger(ctx, portfolio)
	if err != nil {
		return nil, err
	}
	if on.IsZero() {
		on = date.Today()
	}
	view, err := Evaluate(ledger, s.market, s.inflation, on)
	if err != nil {
		return nil, err
	}
	s.logWarnings(portfolio, view.AllWarnings())
	return view, nil
}

// PeriodPnL computes the profit and loss over a preset (1m, 3m, 1y, 5y, all) or
// a custom "FROM..TO" window ending today.
func (s *Service) PeriodPnL(ctx context.Context, portfolio, window string) (*PnLView, error) {
	ledger, err := s.Ledger(ctx, portfolio)
	if err != nil {
		return nil, err
	}
	r, err := ParseWindow(window, ledger.InceptionDate(), date.Today())
	if err != nil {
		return nil, err
	}
	view, err := PeriodPnL(ledger, s.market, s.inflation, r)
	if err != nil {
		return nil, err
	}
	s.logWarnings(portfolio, view.Warnings)
	return view, nil
}

func (s *Service) logWarnings(portfolio string, warnings []error) {
	for _, w := range warnings {
		s.log.Warn("degraded valuation", zap.String("portfolio", portfolio), zap.Error(w))
	}
}

// withRate returns tx with its USD/TRY rate set.
func withRate(tx Transaction, r Rate) Transaction {
	switch v := tx.(type) {
	case Deposit:
		v.Rate = r
		return v
	case Withdraw:
		v.Rate = r
		return v
	case Exchange:
		v.Rate = r
		return v
	case Buy:
		v.Rate = r
		return v
	case Sell:
		v.Rate = r
		return v
	case InterestIn:
		v.Rate = r
		return v
	case InterestOut:
		v.Rate = r
		return v
	default:
		return tx
	}
}
