package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/realfolio"
)

// Transaction renders a transaction to a string.
func Transaction(tx realfolio.Transaction) string {
	switch v := tx.(type) {
	case realfolio.Buy:
		return fmt.Sprintf("Bought %s %s at %s", v.Quantity, v.Symbol, v.Price)
	case realfolio.Sell:
		return fmt.Sprintf("Sold %s %s at %s", v.Quantity, v.Symbol, v.Price)
	case realfolio.Deposit:
		return fmt.Sprintf("Deposited %s", v.Amount)
	case realfolio.Withdraw:
		return fmt.Sprintf("Withdrew %s", v.Amount)
	case realfolio.Exchange:
		return fmt.Sprintf("Exchanged %s to %s", v.Amount, v.Proceeds())
	case realfolio.InterestIn:
		return fmt.Sprintf("Locked %s at %s%% until %s", v.Amount, v.AnnualRate, v.End)
	case realfolio.InterestOut:
		if v.Deposit != "" {
			return fmt.Sprintf("Released %s deposit %s", v.Currency, v.Deposit)
		}
		return fmt.Sprintf("Released %s deposits", v.Currency)
	default:
		return string(tx.What())
	}
}

// Transactions renders a transaction table.
func Transactions(txs []realfolio.Transaction) string {
	var b strings.Builder
	if len(txs) == 0 {
		b.WriteString("No transactions.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "| Date | ID | Operation | USD/TRY | Memo |\n")
	fmt.Fprintf(&b, "|:---|:---|:---|---:|:---|\n")
	for _, tx := range txs {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", tx.When(), shortID(tx.Identity()), Transaction(tx), tx.USDTRY(), tx.Rationale())
	}
	return b.String()
}

// shortID keeps the first block of uuids.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 && len(id) == 36 {
		return id[:i]
	}
	return id
}

// BankRate renders a USD/TRY bank quote.
func BankRate(live realfolio.Rate, b realfolio.BankRate) string {
	var w strings.Builder
	fmt.Fprintf(&w, "# USD/TRY\n\n")
	fmt.Fprintf(&w, "| Quote | Rate |\n|:---|---:|\n")
	fmt.Fprintf(&w, "| Market | %s |\n", live)
	fmt.Fprintf(&w, "| Bank bid | %s |\n", b.Bid)
	fmt.Fprintf(&w, "| Bank ask | %s |\n", b.Ask)
	fmt.Fprintf(&w, "| Bank mid | %s |\n", b.Mid)
	fmt.Fprintf(&w, "| Spread | %s |\n", b.SpreadPct)
	fmt.Fprintf(&w, "\nSource: %s\n", b.Source)
	return w.String()
}

// CPI renders the quarterly CPI and the expected inflation.
func CPI(points []realfolio.CPIPoint, expected float64, source string) string {
	var w strings.Builder
	fmt.Fprintf(&w, "# US CPI-U\n\n")
	ConditionalBlock(&w, func(w *strings.Builder) bool {
		fmt.Fprintf(w, "| Quarter | Index | Change | Status |\n|:---|---:|---:|:---|\n")
		for i, p := range points {
			change := "-"
			if i > 0 && points[i-1].Value > 0 {
				change = realfolio.Percent((p.Value/points[i-1].Value - 1) * 100).SignedString()
			}
			fmt.Fprintf(w, "| %s | %.3f | %s | %s |\n", p.Quarter, p.Value, change, p.Status)
		}
		fmt.Fprintln(w)
		return len(points) > 0
	})
	fmt.Fprintf(&w, "Expected inflation: %s a year (%s)\n", realfolio.Percent(expected), source)
	return w.String()
}
