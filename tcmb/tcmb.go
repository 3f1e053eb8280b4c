// Package tcmb reads the USD/TRY bank rate published daily by the Central Bank
// of the Republic of Turkey.
package tcmb

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/netutil"
	"github.com/shopspring/decimal"
)

// DefaultURL is the daily exchange rates document.
const DefaultURL = "https://www.tcmb.gov.tr/kurlar/today.xml"

// Source is the BankRate source name.
const Source = "TCMB"

// Client reads the daily exchange rates.
type Client struct {
	URL  string
	HTTP *http.Client
}

// New returns a client using http, the default http client when nil.
func New(http *http.Client) *Client {
	return &Client{URL: DefaultURL, HTTP: http}
}

type currency struct {
	Kod          string `xml:"Kod,attr"`
	CurrencyCode string `xml:"CurrencyCode,attr"`
	ForexBuying  string `xml:"ForexBuying"`
	ForexSelling string `xml:"ForexSelling"`
}

type document struct {
	Date       string     `xml:"Date,attr"`
	Currencies []currency `xml:"Currency"`
}

// parse extracts the USD bank rate from a today.xml document.
func parse(content []byte) (realfolio.BankRate, error) {
	var doc document
	if err := xml.Unmarshal(content, &doc); err != nil {
		return realfolio.BankRate{}, fmt.Errorf("cannot parse exchange rates: %w", err)
	}
	for _, c := range doc.Currencies {
		if c.Kod != realfolio.USD && c.CurrencyCode != realfolio.USD {
			continue
		}
		bid, err := decimal.NewFromString(strings.TrimSpace(c.ForexBuying))
		if err != nil {
			return realfolio.BankRate{}, fmt.Errorf("invalid USD forex buying %q: %w", c.ForexBuying, err)
		}
		ask, err := decimal.NewFromString(strings.TrimSpace(c.ForexSelling))
		if err != nil {
			return realfolio.BankRate{}, fmt.Errorf("invalid USD forex selling %q: %w", c.ForexSelling, err)
		}
		if !bid.IsPositive() || ask.LessThan(bid) {
			return realfolio.BankRate{}, fmt.Errorf("inconsistent USD quote %s/%s", bid, ask)
		}
		return realfolio.NewBankRate(realfolio.R(bid), realfolio.R(ask), Source), nil
	}
	return realfolio.BankRate{}, fmt.Errorf("no USD quote in exchange rates")
}

// BankRate returns today's USD/TRY forex buying and selling rates.
func (c *Client) BankRate(ctx context.Context) (realfolio.BankRate, error) {
	content, err := netutil.Get(ctx, c.HTTP, c.URL)
	if err != nil {
		return realfolio.BankRate{}, err
	}
	return parse(content)
}
