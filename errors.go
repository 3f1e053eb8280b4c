package realfolio

import "errors"

// Rejections of a ledger mutation. They are wrapped with the details of the
// failing transaction, test them with errors.Is.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrNotFound             = errors.New("not found")
)

// Degradations of a valuation. They are reported as warnings on a best-effort result.
var (
	ErrMissingPrice = errors.New("missing price data")
	ErrMissingCPI   = errors.New("missing CPI data")
)

// ErrMissingRate is returned when no USD/TRY rate is known for a valuation date.
var ErrMissingRate = errors.New("missing USD/TRY rate")
