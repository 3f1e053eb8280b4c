// Package renderer renders portfolio views as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/realfolio"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"money":  money,
	"signed": signed,
	"pct":    realfolio.PercentString,
	"get":    get,
	"rate":   func(r float64) string { return fmt.Sprintf("%+.2f%%", r*100) },
}

// money formats m, "-" when it has no currency.
func money(m realfolio.Money) string {
	if m.Currency() == "" {
		return "-"
	}
	return m.String()
}

func signed(m realfolio.Money) string {
	if m.Currency() == "" {
		return "-"
	}
	return m.SignedString()
}

// get returns the amount of cur in m, zero when missing.
func get(m map[string]realfolio.Money, cur string) realfolio.Money {
	if v, ok := m[cur]; ok {
		return v
	}
	return realfolio.M(0, cur)
}

// Summary renders a portfolio view.
func Summary(v *realfolio.PortfolioView) string {
	partials := map[string]string{
		"summary_value":       "summary_value.md",
		"summary_performance": "summary_performance.md",
		"summary_holdings":    "summary_holdings.md",
		"summary_deposits":    "summary_deposits.md",
		"summary_warnings":    "summary_warnings.md",
	}
	return renderTemplate("summary", "summary.md", partials, v)
}

// PnL renders a period profit and loss.
func PnL(v *realfolio.PnLView) string {
	return renderTemplate("pnl", "pnl.md", nil, v)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
