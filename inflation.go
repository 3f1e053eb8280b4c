package realfolio

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/etnz/realfolio/date"
)

// CPIStatus tells whether a CPI value was published or projected.
type CPIStatus string

const (
	Published CPIStatus = "published"
	Estimated CPIStatus = "estimated"
)

// CPIPoint is the US CPI-U index for a calendar quarter.
type CPIPoint struct {
	Quarter string    `json:"quarter"` // e.g. "2025-Q1"
	Value   float64   `json:"value"`
	Status  CPIStatus `json:"status"`
}

// CPISource supplies the CPI index of a quarter.
type CPISource interface {
	CPI(quarter string) (CPIPoint, bool)
}

// CPISeries is an in-memory CPISource, safe for concurrent use.
type CPISeries struct {
	mu     sync.RWMutex
	points map[string]CPIPoint
}

// NewCPISeries returns a series holding points.
func NewCPISeries(points ...CPIPoint) *CPISeries {
	s := &CPISeries{points: make(map[string]CPIPoint)}
	s.Add(points...)
	return s
}

// Add records points, overwriting existing quarters. Points without a status are published.
func (s *CPISeries) Add(points ...CPIPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if p.Status == "" {
			p.Status = Published
		}
		s.points[p.Quarter] = p
	}
}

func (s *CPISeries) CPI(quarter string) (CPIPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.points[quarter]
	return p, ok
}

// Len returns the number of quarters in the series.
func (s *CPISeries) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Points returns all the points sorted by quarter.
func (s *CPISeries) Points() []CPIPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points := make([]CPIPoint, 0, len(s.points))
	for _, p := range s.points {
		points = append(points, p)
	}
	// "2025-Q1" labels sort chronologically as strings.
	slices.SortFunc(points, func(a, b CPIPoint) int {
		switch {
		case a.Quarter < b.Quarter:
			return -1
		case a.Quarter > b.Quarter:
			return 1
		}
		return 0
	})
	return points
}

// Latest returns the most recent point.
func (s *CPISeries) Latest() (CPIPoint, bool) {
	points := s.Points()
	if len(points) == 0 {
		return CPIPoint{}, false
	}
	return points[len(points)-1], true
}

// TrailingAnnualRate returns the inflation over the last four known quarters, in percent.
func (s *CPISeries) TrailingAnnualRate() (float64, bool) {
	last, ok := s.Latest()
	if !ok {
		return 0, false
	}
	r, err := date.ParseQuarter(last.Quarter)
	if err != nil {
		return 0, false
	}
	prev, ok := s.CPI(date.QuarterLabel(r.From.AddMonth(-12)))
	if !ok || prev.Value <= 0 {
		return 0, false
	}
	return (last.Value/prev.Value - 1) * 100, true
}

// maxLookback bounds the search for a known CPI point when projecting.
const maxLookback = 40

// Inflation compounds quarterly CPI-U changes. Quarters without a published
// index are projected from the last known one at the expected annual rate.
type Inflation struct {
	source   CPISource
	expected float64 // annual, in percent
}

// NewInflation returns an Inflation reading from source and projecting missing
// quarters at expectedAnnual percent a year.
func NewInflation(source CPISource, expectedAnnual float64) *Inflation {
	return &Inflation{source: source, expected: expectedAnnual}
}

// expectedQuarterly returns the quarterly rate equivalent to the expected annual rate.
func (in *Inflation) expectedQuarterly() float64 {
	return math.Pow(1+in.expected/100, 0.25) - 1
}

// Point returns the CPI of the quarter starting on 'start', projected when it is not known.
func (in *Inflation) Point(start date.Date) (CPIPoint, bool) {
	label := date.QuarterLabel(start)
	if in.source != nil {
		if p, ok := in.source.CPI(label); ok {
			return p, true
		}
		for n := 1; n <= maxLookback; n++ {
			known, ok := in.source.CPI(date.QuarterLabel(start.AddMonth(-3 * n)))
			if !ok {
				continue
			}
			v := known.Value * math.Pow(1+in.expectedQuarterly(), float64(n))
			return CPIPoint{Quarter: label, Value: v, Status: Estimated}, true
		}
	}
	return CPIPoint{Quarter: label, Status: Estimated}, false
}

// QuarterRate returns the inflation rate of the quarter containing d:
//
//	CPI(Q) / CPI(Q-1) - 1
func (in *Inflation) QuarterRate(d date.Date) (float64, CPIStatus) {
	start := d.StartOf(date.Quarterly)
	cur, ok1 := in.Point(start)
	prev, ok2 := in.Point(start.AddMonth(-3))
	if !ok1 || !ok2 || prev.Value <= 0 {
		return in.expectedQuarterly(), Estimated
	}
	status := Published
	if cur.Status == Estimated || prev.Status == Estimated {
		status = Estimated
	}
	return cur.Value/prev.Value - 1, status
}

// QuarterFactor is the inflation multiplier applied for one quarter.
type QuarterFactor struct {
	Quarter    string    `json:"quarter"`
	Rate       float64   `json:"rate"`
	Exposed    int       `json:"exposed_days"`
	Days       int       `json:"days"`
	Multiplier float64   `json:"multiplier"`
	Status     CPIStatus `json:"status"`
}

// Factor returns the inflation accumulated by a flow on 'from' up to 'to'.
// Exposure counts the days after 'from', 'to' included. Each quarter contributes
//
//	(1 + rate)^(exposed / days)
//
// No exposure gives exactly 1.
func (in *Inflation) Factor(from, to date.Date) (float64, []QuarterFactor) {
	if !to.After(from) {
		return 1, nil
	}
	exposure := date.NewRange(from.Add(1), to)
	factor := 1.0
	var quarters []QuarterFactor
	for q := range exposure.Periods(date.Quarterly) {
		inter, ok := q.Intersect(exposure)
		if !ok {
			continue
		}
		rate, status := in.QuarterRate(q.From)
		qf := QuarterFactor{
			Quarter: date.QuarterLabel(q.From),
			Rate:    rate,
			Exposed: inter.Len(),
			Days:    q.Len(),
			Status:  status,
		}
		if qf.Exposed == qf.Days {
			qf.Multiplier = 1 + rate
		} else {
			qf.Multiplier = math.Pow(1+rate, float64(qf.Exposed)/float64(qf.Days))
		}
		factor *= qf.Multiplier
		quarters = append(quarters, qf)
	}
	return factor, quarters
}

// RealReturn is a USD value compared to the inflation protected value of the flows that built it.
type RealReturn struct {
	Required Money
	PnL      Money
	Pct      *Percent // nil when the required value is not positive
	Quarters []QuarterFactor
	Warnings []error
}

// Estimated reports whether a projected CPI point was used.
func (r *RealReturn) Estimated() bool { return len(r.Warnings) > 0 }

// Adjust compares value, as of 'on', to the flows adjusted for inflation up to 'on':
//
//	required = Σ flow × Factor(flow date, on)
//
// where withdrawals are negative flows.
func (in *Inflation) Adjust(flows []Flow, value Money, on date.Date) *RealReturn {
	return in.adjust(M(0, USD), date.Date{}, flows, value, on)
}

// adjust is Adjust with an initial value on 'start' adjusted like a flow.
func (in *Inflation) adjust(initial Money, start date.Date, flows []Flow, value Money, on date.Date) *RealReturn {
	r := &RealReturn{Required: M(0, USD)}
	if !initial.IsZero() {
		f, _ := in.Factor(start, on)
		r.Required = r.Required.Add(initial.Scale(f))
	}
	first := start
	for _, flow := range flows {
		if flow.Date.After(on) {
			continue
		}
		if first.IsZero() || flow.Date.Before(first) {
			first = flow.Date
		}
		f, _ := in.Factor(flow.Date, on)
		r.Required = r.Required.Add(flow.USD.Scale(f))
	}
	if !first.IsZero() {
		_, r.Quarters = in.Factor(first, on)
	}
	for _, q := range r.Quarters {
		if q.Status == Estimated {
			r.Warnings = append(r.Warnings, fmt.Errorf("CPI for %s is projected at %.2f%% a year: %w", q.Quarter, in.expected, ErrMissingCPI))
		}
	}
	r.PnL = value.Sub(r.Required)
	if r.Required.IsPositive() {
		r.Pct = r.PnL.Ratio(r.Required)
	}
	return r
}
