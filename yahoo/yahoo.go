// Package yahoo fetches quotes and the USD/TRY rate from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/date"
	"github.com/etnz/realfolio/netutil"
)

// DefaultBaseURL is the chart endpoint, the symbol is appended to it.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// RateSymbol is the Yahoo symbol for the USD/TRY rate.
const RateSymbol = "USDTRY=X"

// Client reads the chart API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client using http, the default http client when nil.
func New(http *http.Client) *Client {
	return &Client{BaseURL: DefaultBaseURL, HTTP: http}
}

// Close is a daily closing value.
type Close struct {
	Day   date.Date
	Value float64
}

// chart fetches the raw chart document of symbol.
func (c *Client) chart(ctx context.Context, symbol, interval, rng string) (any, error) {
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("range", rng)
	addr := c.BaseURL + url.PathEscape(symbol) + "?" + q.Encode()
	var doc any
	if err := netutil.GetJSON(ctx, c.HTTP, addr, &doc); err != nil {
		return nil, fmt.Errorf("cannot read %s chart: %w", symbol, err)
	}
	return doc, nil
}

// first unwraps jsonpath results, that are either a single value or a list of one.
func first(v any) any {
	if list, ok := v.([]any); ok && len(list) == 1 {
		return list[0]
	}
	return v
}

// regularPrice extracts the live market price from a chart document.
func regularPrice(doc any) (float64, error) {
	const path = "$.chart.result[0].meta.regularMarketPrice"
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return 0, fmt.Errorf("error parsing %q: %w", path, err)
	}
	price, ok := first(v).(float64)
	if !ok || price <= 0 {
		return 0, fmt.Errorf("error parsing %q: not a price %v", path, v)
	}
	return price, nil
}

// closes extracts the daily closes from a chart document. Null closes are skipped.
func closes(doc any) ([]Close, error) {
	const (
		tsPath    = "$.chart.result[0].timestamp"
		closePath = "$.chart.result[0].indicators.quote[0].close"
	)
	ts, err := jsonpath.Get(tsPath, doc)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", tsPath, err)
	}
	cs, err := jsonpath.Get(closePath, doc)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", closePath, err)
	}
	stamps, ok := ts.([]any)
	if !ok {
		return nil, fmt.Errorf("error parsing %q: not a list", tsPath)
	}
	values, ok := cs.([]any)
	if !ok {
		return nil, fmt.Errorf("error parsing %q: not a list", closePath)
	}
	if len(stamps) != len(values) {
		return nil, fmt.Errorf("%d timestamps for %d closes", len(stamps), len(values))
	}

	res := make([]Close, 0, len(values))
	for i, v := range values {
		value, ok := v.(float64)
		if !ok {
			continue
		}
		sec, ok := stamps[i].(float64)
		if !ok {
			continue
		}
		day := date.Of(time.Unix(int64(sec), 0).UTC())
		res = append(res, Close{Day: day, Value: value})
	}
	return res, nil
}

// Price returns the live price of symbol in its trade currency.
func (c *Client) Price(ctx context.Context, symbol string) (realfolio.Money, error) {
	inst := realfolio.NewInstrument(symbol)
	doc, err := c.chart(ctx, inst.Symbol, "1d", "1d")
	if err != nil {
		return realfolio.Money{}, err
	}
	price, err := regularPrice(doc)
	if err != nil {
		return realfolio.Money{}, fmt.Errorf("cannot read %s price: %w", inst.Symbol, err)
	}
	return realfolio.M(price, inst.Currency), nil
}

// Rate returns the live USD/TRY rate.
func (c *Client) Rate(ctx context.Context) (realfolio.Rate, error) {
	doc, err := c.chart(ctx, RateSymbol, "1d", "2d")
	if err != nil {
		return realfolio.Rate{}, err
	}
	rate, err := regularPrice(doc)
	if err != nil {
		return realfolio.Rate{}, fmt.Errorf("cannot read USD/TRY rate: %w", err)
	}
	return realfolio.R(rate), nil
}

// Closes returns the daily closes of symbol over rng ("1mo", "1y", "5y", "max").
func (c *Client) Closes(ctx context.Context, symbol, rng string) ([]Close, error) {
	doc, err := c.chart(ctx, symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	res, err := closes(doc)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s closes: %w", symbol, err)
	}
	return res, nil
}

// Fill loads the daily USD/TRY rates and the closes of symbols over rng into md.
// Every symbol is attempted, failures are joined.
func (c *Client) Fill(ctx context.Context, md *realfolio.MarketData, rng string, symbols ...string) error {
	var errs []error
	rates, err := c.Closes(ctx, RateSymbol, rng)
	if err != nil {
		errs = append(errs, err)
	}
	for _, r := range rates {
		md.SetRate(r.Day, realfolio.R(r.Value))
	}
	for _, symbol := range symbols {
		inst := realfolio.NewInstrument(symbol)
		prices, err := c.Closes(ctx, inst.Symbol, rng)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, p := range prices {
			md.SetPrice(inst.Symbol, p.Day, realfolio.M(p.Value, inst.Currency))
		}
	}
	return errors.Join(errs...)
}
