// Package bls fetches the US CPI-U index from the Bureau of Labor Statistics and
// the expected inflation from the Federal Reserve Bank of Cleveland.
package bls

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/date"
	"github.com/etnz/realfolio/netutil"
)

const (
	// DefaultURL is the BLS public timeseries API.
	DefaultURL = "https://api.bls.gov/publicAPI/v2/timeseries/data/"
	// DefaultExpectationURL is the Cleveland Fed inflation expectations CSV.
	DefaultExpectationURL = "https://www.clevelandfed.org/api/InflationExpectation/csv"
	// Series is the seasonally adjusted CPI-U, all items.
	Series = "CUSR0000SA0"
	// Years is the depth of history requested.
	Years = 5
)

// Sources of an Expectation.
const (
	SourceCleveland = "Cleveland Fed"
	SourceTrailing  = "BLS trailing 4Q"
)

// quarterEnds maps the last month of each quarter to its quarter.
var quarterEnds = map[string]int{"M03": 1, "M06": 2, "M09": 3, "M12": 4}

// Client reads the CPI and the expected inflation.
type Client struct {
	URL            string
	ExpectationURL string
	HTTP           *http.Client
}

// New returns a client using http, the default http client when nil.
func New(http *http.Client) *Client {
	return &Client{URL: DefaultURL, ExpectationURL: DefaultExpectationURL, HTTP: http}
}

type request struct {
	SeriesID  []string `json:"seriesid"`
	StartYear string   `json:"startyear"`
	EndYear   string   `json:"endyear"`
}

// CPI returns the quarterly CPI published during the last Years years. The
// index of a quarter is the index of its last month.
func (c *Client) CPI(ctx context.Context, today date.Date) ([]realfolio.CPIPoint, error) {
	req := request{
		SeriesID:  []string{Series},
		StartYear: strconv.Itoa(today.Year() - Years),
		EndYear:   strconv.Itoa(today.Year()),
	}
	var doc any
	if err := netutil.PostJSON(ctx, c.HTTP, c.URL, req, &doc); err != nil {
		return nil, fmt.Errorf("cannot read CPI: %w", err)
	}
	points, err := quarterly(doc)
	if err != nil {
		return nil, fmt.Errorf("cannot read CPI: %w", err)
	}
	return points, nil
}

// quarterly extracts the quarter end values from a timeseries response.
func quarterly(doc any) ([]realfolio.CPIPoint, error) {
	const path = "$.Results.series[0].data"
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", path, err)
	}
	entries, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("error parsing %q: not a list", path)
	}

	var points []realfolio.CPIPoint
	var errs []error
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		period, _ := entry["period"].(string)
		q, ok := quarterEnds[period]
		if !ok {
			continue
		}
		year, _ := entry["year"].(string)
		raw, _ := entry["value"].(string)
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			errs = append(errs, fmt.Errorf("invalid CPI %q for %s %s", raw, year, period))
			continue
		}
		points = append(points, realfolio.CPIPoint{
			Quarter: fmt.Sprintf("%s-Q%d", year, q),
			Value:   value,
			Status:  realfolio.Published,
		})
	}
	if len(points) == 0 {
		errs = append(errs, errors.New("no quarterly CPI in response"))
		return nil, errors.Join(errs...)
	}
	return points, nil
}

// Expectation is an expected annual inflation rate, in percent.
type Expectation struct {
	AnnualRate float64 `json:"annual_rate"`
	Source     string  `json:"source"`
}

// Expected returns the one year expected inflation published by the Cleveland
// Fed: the second column of the last row.
func (c *Client) Expected(ctx context.Context) (Expectation, error) {
	content, err := netutil.Get(ctx, c.HTTP, c.ExpectationURL)
	if err != nil {
		return Expectation{}, fmt.Errorf("cannot read expected inflation: %w", err)
	}
	rate, err := lastRate(bytes.NewReader(content))
	if err != nil {
		return Expectation{}, fmt.Errorf("cannot read expected inflation: %w", err)
	}
	return Expectation{AnnualRate: rate, Source: SourceCleveland}, nil
}

func lastRate(r io.Reader) (float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return 0, err
	}
	if len(rows) < 2 {
		return 0, errors.New("no data rows")
	}
	last := rows[len(rows)-1]
	if len(last) < 2 {
		return 0, fmt.Errorf("expected at least 2 columns, got %d", len(last))
	}
	return strconv.ParseFloat(strings.TrimSpace(last[1]), 64)
}

// Trailing returns the expectation derived from the last four published quarters.
func Trailing(series *realfolio.CPISeries) (Expectation, bool) {
	rate, ok := series.TrailingAnnualRate()
	if !ok {
		return Expectation{}, false
	}
	return Expectation{AnnualRate: rate, Source: SourceTrailing}, true
}
