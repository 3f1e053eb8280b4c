package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/date"
	"google.golang.org/genai"
)

func newTestService(t *testing.T) *realfolio.Service {
	t.Helper()
	md := realfolio.NewMarketData()
	md.SetRate(date.New(2000, 1, 1), realfolio.R(36.5))
	md.SetPrice("AAPL", date.New(2000, 1, 1), realfolio.M(120, realfolio.USD))
	cpi := realfolio.NewCPISeries(
		realfolio.CPIPoint{Quarter: "2024-Q4", Value: 310.5},
		realfolio.CPIPoint{Quarter: "2025-Q1", Value: 312.8},
	)
	svc := realfolio.NewService(realfolio.NewMemoryStore(), md, realfolio.NewInflation(cpi, 3), nil)
	ctx := context.Background()
	txs := []realfolio.Transaction{
		realfolio.NewDeposit(date.New(2025, 1, 2), realfolio.M(1000, realfolio.USD), realfolio.R(36.5), ""),
		realfolio.NewBuy(date.New(2025, 1, 3), realfolio.NewInstrument("AAPL"), realfolio.Q(5), realfolio.M(100, realfolio.USD), realfolio.R(36.5), ""),
	}
	for _, tx := range txs {
		if _, err := svc.Append(ctx, "alice", tx); err != nil {
			t.Fatalf("Append(%v) error = %v", tx, err)
		}
	}
	return svc
}

func TestLibrary(t *testing.T) {
	lib := NewLibrary(Tools(newTestService(t), "alice"))

	tests := []struct {
		name    string
		args    map[string]any
		want    string // substring of the output
		wantErr bool
	}{
		{name: "Summary", args: map[string]any{"date": "2025-01-10"}, want: "# Portfolio on 2025-01-10"},
		{name: "Summary", args: map[string]any{"date": 12}, wantErr: true},
		{name: "Summary", args: map[string]any{"date": "not a date"}, wantErr: true},
		{name: "PnL", args: map[string]any{"period": "2025-01-01..2025-01-10"}, want: "# P&L from 2025-01-01 to 2025-01-10"},
		{name: "PnL", args: map[string]any{"period": true}, wantErr: true},
		{name: "Transactions", args: map[string]any{"limit": 1.0}, want: "AAPL"},
		{name: "Unknown", wantErr: true},
	}
	for _, tt := range tests {
		resp := lib(context.Background(), &genai.FunctionCall{ID: "1", Name: tt.name, Args: tt.args})
		if resp.ID != "1" || resp.Name != tt.name {
			t.Errorf("%s(%v) responded as %s/%s", tt.name, tt.args, resp.ID, resp.Name)
		}
		_, failed := resp.Response["error"]
		if failed != tt.wantErr {
			t.Errorf("%s(%v) error = %v, want error %v", tt.name, tt.args, resp.Response["error"], tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		got, _ := resp.Response["output"].(string)
		if !strings.Contains(got, tt.want) {
			t.Errorf("%s(%v) = %q, want it to contain %q", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestDeclarations(t *testing.T) {
	experts := []*Expert{NewTrader(), NewAccountant(newTestService(t), "alice")}
	f := newFacilitator(experts...)
	decls := f.Config.Tools[0].FunctionDeclarations
	if len(decls) != len(experts) {
		t.Fatalf("facilitator tools = %d, want %d", len(decls), len(experts))
	}
	for i, d := range decls {
		if d.Name != experts[i].Name {
			t.Errorf("declaration[%d] = %q, want %q", i, d.Name, experts[i].Name)
		}
		if d.Parameters.Required[0] != "question" {
			t.Errorf("declaration[%d] requires %v, want question", i, d.Parameters.Required)
		}
	}
}

func TestExpertCall(t *testing.T) {
	e := NewTrader()
	resp := e.Call(context.Background(), "2", map[string]any{"question": 42})
	if _, ok := resp.Response["error"]; !ok {
		t.Errorf("Call(42) = %v, want an error", resp.Response)
	}
}
