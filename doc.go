// Package realfolio values a multi-currency (USD/TRY) investment portfolio
// from an append-only ledger of transactions, and measures its nominal and
// inflation-adjusted performance.
//
// The core functionalities are:
//   - Ledger: an ordered record of deposits, withdrawals, currency exchanges,
//     buys, sells and interest-bearing deposits. Nothing is ever patched in
//     place, every balance is derived by replaying the ledger.
//   - Replay: a stateless fold of the ledger into cash balances, holdings at
//     weighted average cost, and interest deposit balances.
//   - Valuation: the replayed state priced with a Market (prices and USD/TRY
//     rates) into USD and TRY totals.
//   - Inflation: a per-flow quarterly CPI compounding factor giving the value
//     the portfolio needs to keep its purchasing power, hence a real return.
//   - Period P&L: start and end valuations of a date window net of the cash
//     flows that happened during the window.
//
// Prices, rates and CPI figures are inputs, they are fetched by the
// collaborator packages (yahoo, tcmb, bls, oracle).
package realfolio
