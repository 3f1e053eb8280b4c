package bls

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/date"
)

const timeseries = `{"status":"REQUEST_SUCCEEDED","Results":{"series":[{"seriesID":"CUSR0000SA0","data":[
	{"year":"2025","period":"M06","periodName":"June","value":"321.500"},
	{"year":"2025","period":"M05","periodName":"May","value":"320.580"},
	{"year":"2025","period":"M03","periodName":"March","value":"319.615"},
	{"year":"2024","period":"M12","periodName":"December","value":"317.603"},
	{"year":"2024","period":"M06","periodName":"June","value":"313.049"}
]}]}}`

const expectations = `Model Output Date,1 year Expected Inflation,2 year Expected Inflation
2025-08-01,2.41,2.45
2025-09-01,2.52,2.48
`

func newServer(t *testing.T) (*Client, *request) {
	t.Helper()
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/timeseries":
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Write([]byte(timeseries))
		case "/expectations.csv":
			w.Write([]byte(expectations))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return &Client{URL: srv.URL + "/timeseries", ExpectationURL: srv.URL + "/expectations.csv", HTTP: srv.Client()}, &got
}

func TestClient_CPI(t *testing.T) {
	c, req := newServer(t)
	points, err := c.CPI(context.Background(), date.New(2025, 8, 20))
	if err != nil {
		t.Fatalf("CPI() unexpected error: %v", err)
	}
	if req.StartYear != "2020" || req.EndYear != "2025" || len(req.SeriesID) != 1 || req.SeriesID[0] != Series {
		t.Errorf("CPI() request = %+v, want %s from 2020 to 2025", *req, Series)
	}

	series := realfolio.NewCPISeries(points...)
	tests := []struct {
		quarter string
		want    float64
		ok      bool
	}{
		{"2025-Q2", 321.5, true},
		{"2025-Q1", 319.615, true},
		{"2024-Q4", 317.603, true},
		{"2024-Q3", 0, false},
		{"2024-Q2", 313.049, true},
	}
	for _, tt := range tests {
		got, ok := series.CPI(tt.quarter)
		if ok != tt.ok || got.Value != tt.want {
			t.Errorf("CPI(%s) = %v, %v, want %v, %v", tt.quarter, got.Value, ok, tt.want, tt.ok)
		}
		if ok && got.Status != realfolio.Published {
			t.Errorf("CPI(%s).Status = %v, want %v", tt.quarter, got.Status, realfolio.Published)
		}
	}

	exp, ok := Trailing(series)
	want := (321.5/313.049 - 1) * 100
	if !ok || math.Abs(exp.AnnualRate-want) > 1e-9 || exp.Source != SourceTrailing {
		t.Errorf("Trailing() = %+v, %v, want %v from %s", exp, ok, want, SourceTrailing)
	}
}

func TestQuarterly_Empty(t *testing.T) {
	var doc any
	json.Unmarshal([]byte(`{"status":"REQUEST_NOT_PROCESSED","Results":{"series":[{"data":[]}]}}`), &doc)
	if _, err := quarterly(doc); err == nil {
		t.Errorf("quarterly() = nil error, want an error")
	}
}

func TestClient_Expected(t *testing.T) {
	c, _ := newServer(t)
	got, err := c.Expected(context.Background())
	if err != nil {
		t.Fatalf("Expected() unexpected error: %v", err)
	}
	if want := (Expectation{AnnualRate: 2.52, Source: SourceCleveland}); got != want {
		t.Errorf("Expected() = %+v, want %+v", got, want)
	}
}

func TestLastRate(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		want    float64
		wantErr bool
	}{
		{"ok", expectations, 2.52, false},
		{"header only", "date,rate\n", 0, true},
		{"one column", "date,rate\n2025-09-01\n", 0, true},
		{"not a number", "date,rate\n2025-09-01,n/a\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lastRate(strings.NewReader(tt.csv))
			if (err != nil) != tt.wantErr {
				t.Fatalf("lastRate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("lastRate() = %v, want %v", got, tt.want)
			}
		})
	}
}
