package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/bls"
	"github.com/etnz/realfolio/date"
	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeInfo struct{}

func (fakeInfo) LiveRate(context.Context) realfolio.Rate { return realfolio.R(36.5) }
func (fakeInfo) BankRate(context.Context) realfolio.BankRate {
	return realfolio.NewBankRate(realfolio.R(40), realfolio.R(41), "TCMB")
}
func (fakeInfo) CPIPoints(context.Context) []realfolio.CPIPoint {
	return []realfolio.CPIPoint{{Quarter: "2025-Q1", Value: 312.8, Status: realfolio.Published}}
}
func (fakeInfo) Expected(context.Context) bls.Expectation {
	return bls.Expectation{AnnualRate: 2.5, Source: bls.SourceCleveland}
}

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	md := realfolio.NewMarketData()
	md.SetRate(date.New(2000, 1, 1), realfolio.R(36.5))
	md.SetPrice("AAPL", date.New(2000, 1, 1), realfolio.M(120, realfolio.USD))
	cpi := realfolio.NewCPISeries(
		realfolio.CPIPoint{Quarter: "2024-Q4", Value: 310.5},
		realfolio.CPIPoint{Quarter: "2025-Q1", Value: 312.8},
	)
	svc := realfolio.NewService(realfolio.NewMemoryStore(), md, realfolio.NewInflation(cpi, 3), nil)
	return NewServer(svc, fakeInfo{}, nil, "*")
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return got
}

func TestTransactions(t *testing.T) {
	s := newTestServer()
	const base = "/api/portfolios/alice/transactions"

	w := do(s, http.MethodPost, base, `{"command":"deposit","date":"2025-01-02","amount":1000,"currency":"USD"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	dep := decode(t, w)
	assert.Equal(t, "deposit", dep["command"])
	assert.Equal(t, 36500.0, dep["amount_try"])
	assert.NotEmpty(t, dep["id"])

	w = do(s, http.MethodPost, base, `{"command":"buy","date":"2025-01-03","symbol":"AAPL","quantity":5,"price":100}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	buy := decode(t, w)

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			body string
			code int
		}{
			{`{"command":"withdraw","date":"2025-01-04","amount":5000,"currency":"USD"}`, http.StatusConflict},
			{`{"command":"sell","date":"2025-01-04","symbol":"AAPL","quantity":50,"price":100}`, http.StatusConflict},
			{`{"command":"deposit","date":"2025-01-04","amount":-5,"currency":"USD"}`, http.StatusBadRequest},
			{`{"command":"deposit","date":"2025-01-04","amount":5,"currency":"EUR"}`, http.StatusBadRequest},
			{`{"command":"teleport"}`, http.StatusBadRequest},
			{`not json`, http.StatusBadRequest},
		}
		for _, tt := range tests {
			w := do(s, http.MethodPost, base, tt.body)
			assert.Equal(t, tt.code, w.Code, tt.body)
			assert.NotEmpty(t, decode(t, w)["message"], tt.body)
		}
	})

	w = do(s, http.MethodGet, base+"?limit=1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]any)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, buy["id"], rows[0].(map[string]any)["id"])
	}
	w = do(s, http.MethodGet, base+"?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodDelete, base+"/"+dep["id"].(string), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(s, http.MethodDelete, base+"/"+buy["id"].(string), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(s, http.MethodDelete, base+"/"+buy["id"].(string), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `realfolio_rejected_transactions_total{command="withdraw",reason="insufficient_funds"} 1`)
}

func TestSnapshotAndPnL(t *testing.T) {
	s := newTestServer()
	do(s, http.MethodPost, "/api/portfolios/bob/transactions", `{"command":"deposit","date":"2025-01-02","amount":1000,"currency":"USD"}`)
	do(s, http.MethodPost, "/api/portfolios/bob/transactions", `{"command":"buy","date":"2025-01-03","symbol":"AAPL","quantity":5,"price":100}`)

	w := do(s, http.MethodGet, "/api/portfolios/bob/snapshot?date=2025-02-01", "")
	assert.Equal(t, http.StatusOK, w.Code)
	snap := decode(t, w)
	assert.Equal(t, "2025-02-01", snap["date"])
	assert.Equal(t, 1100.0, snap["total_value_usd"])
	assert.Equal(t, 100.0, snap["nominal_pnl_usd"])

	w = do(s, http.MethodGet, "/api/portfolios/bob/snapshot?date=yesterday-ish", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodGet, "/api/portfolios/bob/pnl?period=2025-01-01..2025-02-01", "")
	assert.Equal(t, http.StatusOK, w.Code)
	pnl := decode(t, w)
	period := pnl["period"].(map[string]any)
	assert.Equal(t, "2025-01-01", period["start_date"])
	assert.Equal(t, "2025-02-01", period["end_date"])
	usd := pnl["usd_pnl"].(map[string]any)
	assert.Equal(t, 1000.0, usd["inflows"])
	assert.Equal(t, 100.0, usd["pnl"])

	w = do(s, http.MethodGet, "/api/portfolios/bob/pnl?period=2025-02-01..2025-01-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReferenceData(t *testing.T) {
	s := newTestServer()

	w := do(s, http.MethodGet, "/api/rates", "")
	assert.Equal(t, http.StatusOK, w.Code)
	rates := decode(t, w)
	assert.Equal(t, 36.5, rates["usd_try"])
	bank := rates["bank"].(map[string]any)
	assert.Equal(t, 40.5, bank["mid"])
	assert.Equal(t, "TCMB", bank["source"])

	w = do(s, http.MethodGet, "/api/cpi", "")
	assert.Equal(t, http.StatusOK, w.Code)
	cpi := decode(t, w)
	assert.Len(t, cpi["quarters"], 1)
	assert.Equal(t, "Cleveland Fed", cpi["expected"].(map[string]any)["source"])
}

func TestCORS(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/api/rates", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
