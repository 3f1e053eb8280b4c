package realfolio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/realfolio/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DecodeTransaction decodes a single JSON transaction.
func DecodeTransaction(data []byte) (Transaction, error) {
	var identifier struct {
		Command CommandType `json:"command"`
	}
	if err := json.Unmarshal(data, &identifier); err != nil {
		return nil, fmt.Errorf("could not identify command in %q: %w", string(data), err)
	}

	switch identifier.Command {
	case CmdDeposit, CmdWithdraw:
		var temp struct {
			baseCmd
			amountCmd
		}
		if err := json.Unmarshal(data, &temp); err != nil {
			return nil, err
		}
		if identifier.Command == CmdDeposit {
			return Deposit{baseCmd: temp.baseCmd, Amount: temp.Money()}, nil
		}
		return Withdraw{baseCmd: temp.baseCmd, Amount: temp.Money()}, nil

	case CmdExchange:
		var temp struct {
			baseCmd
			amountCmd
			Direction Direction `json:"direction"`
		}
		if err := json.Unmarshal(data, &temp); err != nil {
			return nil, err
		}
		return Exchange{baseCmd: temp.baseCmd, Direction: temp.Direction, Amount: temp.Money()}, nil

	case CmdBuy, CmdSell:
		var temp struct {
			baseCmd
			Instrument
			Quantity Quantity        `json:"quantity"`
			Price    decimal.Decimal `json:"price"`
		}
		if err := json.Unmarshal(data, &temp); err != nil {
			return nil, err
		}
		if temp.Currency == "" {
			temp.Currency = NewInstrument(temp.Symbol).Currency
		}
		sec := secCmd{
			baseCmd:    temp.baseCmd,
			Instrument: temp.Instrument,
			Quantity:   temp.Quantity,
			Price:      M(temp.Price, temp.Currency),
		}
		if identifier.Command == CmdBuy {
			return Buy{sec}, nil
		}
		return Sell{sec}, nil

	case CmdInterestIn:
		var temp struct {
			baseCmd
			amountCmd
			AnnualRate decimal.Decimal `json:"annual_rate"`
			Start      date.Date       `json:"start"`
			End        date.Date       `json:"end"`
			Interval   PaymentInterval `json:"interval"`
		}
		if err := json.Unmarshal(data, &temp); err != nil {
			return nil, err
		}
		return InterestIn{
			baseCmd:    temp.baseCmd,
			Amount:     temp.Money(),
			AnnualRate: temp.AnnualRate,
			Start:      temp.Start,
			End:        temp.End,
			Interval:   temp.Interval,
		}, nil

	case CmdInterestOut:
		var temp struct {
			baseCmd
			Currency string `json:"currency"`
			Deposit  string `json:"deposit"`
		}
		if err := json.Unmarshal(data, &temp); err != nil {
			return nil, err
		}
		return InterestOut{baseCmd: temp.baseCmd, Currency: temp.Currency, Deposit: temp.Deposit}, nil

	default:
		return nil, fmt.Errorf("unknown transaction command: %q", identifier.Command)
	}
}

// DecodeLedger decodes transactions from a stream of JSONL data and returns a
// sorted Ledger. Empty lines are skipped.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue
		}
		tx, err := DecodeTransaction(lineBytes)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return NewLedger(txs...), nil
}

// EncodeTransaction writes tx as a single JSON line.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal %s transaction: %w", tx.What(), err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	return nil
}

// EncodeLedger writes the ledger in JSONL format, in replay order.
func EncodeLedger(w io.Writer, ledger *Ledger) error {
	for _, tx := range ledger.transactions {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}
