package agent

import (
	"context"
	"fmt"

	"github.com/etnz/realfolio"
	"github.com/etnz/realfolio/date"
	"github.com/etnz/realfolio/docs"
	"github.com/etnz/realfolio/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and dedicated to you, they keep context of your previous questions.

			The user holds US dollars, Turkish lira, US stocks and Borsa Istanbul stocks (symbols ending in .IS).
			Figures are reported in USD and TRY, and adjusted for US inflation.

			Devise a plan of questions to ask to each expert and come up with the best response to the user's request.
			Check the portfolio first when the user mentions a symbol.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader creates an expert grounded on Google Search.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader, aware of US and Turkish markets,
		of the latest news about companies and of the lira exchange rate.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in trading, you can search and find about anything related to
			companies, markets, central banks and inflation. Leverage Google Search to
			ground your assertions.
				`}}},
		},
	}
}

// NewAccountant creates an expert reading the portfolio through svc.
func NewAccountant(svc *realfolio.Service, portfolio string) *Expert {
	lib := Tools(svc, portfolio)
	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant, in charge of the user's portfolio.
		He knows the cash balances, the holdings, their value and the profit and loss over any period.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's portfolio.
				Use the Tools to get the portfolio summary on a date, the profit and loss over
				a period and the latest transactions. Other experts might ask you questions
				about the portfolio, pardon their approximate language and figure out what they meant.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func markdown(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

// Tools returns the accountant's functions on a portfolio.
func Tools(svc *realfolio.Service, portfolio string) []Function {
	return []Function{
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name: "Summary",
				Description: `Summary values the portfolio on a date: cash, holdings, totals in USD and TRY,
				unrealized and realized gains and the inflation adjusted return.

				` + must(docs.Topic("valuation")),
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"date": {
							Type: genai.TypeString,
							Description: `The valuation date, today by default. Either YYYY-MM-DD or
							relative to today like "-1d", "-2w" or "-3m".`,
						},
					},
				},
				Response: markdown("A markdown report of the portfolio on that date."),
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				on, err := parseDate(args)
				if err != nil {
					return failure(id, "Summary", err)
				}
				view, err := svc.Snapshot(ctx, portfolio, on)
				if err != nil {
					return failure(id, "Summary", err)
				}
				return output(id, "Summary", renderer.Summary(view))
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name: "PnL",
				Description: `PnL computes the profit and loss over a period in USD, in TRY and adjusted for inflation.

				` + must(docs.Topic("pnl")),
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"period": {
							Type:        genai.TypeString,
							Description: `The period: 1m, 3m, 1y, 5y, all or FROM..TO with ISO dates. Default is 1y.`,
						},
					},
				},
				Response: markdown("A markdown report of the profit and loss."),
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				period := "1y"
				if p, ok := args["period"]; ok {
					s, ok := p.(string)
					if !ok {
						return failure(id, "PnL", fmt.Errorf("invalid period type got %T, expected string", p))
					}
					period = s
				}
				view, err := svc.PeriodPnL(ctx, portfolio, period)
				if err != nil {
					return failure(id, "PnL", err)
				}
				return output(id, "PnL", renderer.PnL(view))
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Transactions",
				Description: `Transactions lists the latest transactions of the portfolio, newest first.`,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"limit": {
							Type:        genai.TypeInteger,
							Description: "Maximum number of transactions, 50 by default.",
						},
					},
				},
				Response: markdown("A markdown table of transactions."),
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				limit := realfolio.DefaultListLimit
				// JSON numbers arrive as float64
				if l, ok := args["limit"].(float64); ok {
					limit = int(l)
				}
				txs, err := svc.Transactions(ctx, portfolio, limit)
				if err != nil {
					return failure(id, "Transactions", err)
				}
				return output(id, "Transactions", renderer.Transactions(txs))
			},
		},
	}
}

func parseDate(args map[string]any) (date.Date, error) {
	v, ok := args["date"]
	if !ok {
		return date.Today(), nil
	}
	s, ok := v.(string)
	if !ok {
		return date.Date{}, fmt.Errorf("invalid date type got %T, expected string", v)
	}
	if s == "" {
		return date.Today(), nil
	}
	return date.Parse(s)
}
