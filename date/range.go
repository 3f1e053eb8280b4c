package date

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
)

// Range represents an inclusive range of dates.
type Range struct{ From, To Date }

// NewRange creates a new date range. If 'from' is after 'to', they are swapped.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Len returns the number of days in the range, boundaries included.
func (r Range) Len() int { return r.To.Sub(r.From) + 1 }

// Days returns an iterator that yields each date within the range, inclusive.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.From; !d.After(r.To); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Periods yields each full period 'p' that contains at least one day of r.
func (r Range) Periods(p Period) iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for current := r.From; !current.After(r.To); {
			periodRange := p.Range(current)
			if !yield(periodRange) {
				return
			}
			current = periodRange.To.Add(1)
		}
	}
}

// Intersect returns the overlap of r and x, ok is false when they are disjoint.
func (r Range) Intersect(x Range) (Range, bool) {
	i := Range{From: Max(r.From, x.From), To: Min(r.To, x.To)}
	if i.From.After(i.To) {
		return Range{}, false
	}
	return i, true
}

// Period returns the period of this range if it's a standard one.
func (r Range) Period() (p Period, ok bool) {
	switch {
	case r.From == r.To:
		return Daily, true
	case r.From.Weekday() == time.Monday && r.From.EndOf(Weekly) == r.To:
		return Weekly, true
	case r.From.Day() == 1 && r.From.EndOf(Monthly) == r.To:
		return Monthly, true
	case r.From.StartOf(Quarterly) == r.From && r.From.EndOf(Quarterly) == r.To:
		return Quarterly, true
	case r.From.StartOf(Yearly) == r.From && r.From.EndOf(Yearly) == r.To:
		return Yearly, true
	default:
		return Daily, false
	}
}

// Name the period range
func (r Range) Name() string {
	if p, ok := r.Period(); ok {
		return p.String()
	}
	return "special"
}

// Identifier computes a unique identifier for the Range, short for standard periods.
func (r Range) Identifier() string {
	p, ok := r.Period()
	if !ok {
		return fmt.Sprintf("%s_%s", r.From, r.To)
	}
	switch p {
	case Daily:
		return r.From.String()
	case Weekly:
		_, week := r.From.ISOWeek()
		return fmt.Sprintf("%d-W%02d", r.From.Year(), week)
	case Monthly:
		return r.From.Layout("2006-01")
	case Quarterly:
		return QuarterLabel(r.From)
	case Yearly:
		return r.From.Layout("2006")
	default:
		panic("unknown period")
	}
}

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }

// QuarterLabel returns the "2025-Q1" label of the quarter containing d.
func QuarterLabel(d Date) string { return fmt.Sprintf("%d-Q%d", d.Year(), d.Quarter()) }

// ParseQuarter parses a "2025-Q1" label into the quarter's range.
func ParseQuarter(label string) (Range, error) {
	y, q, ok := strings.Cut(strings.ToUpper(label), "-Q")
	if !ok {
		return Range{}, fmt.Errorf("invalid quarter %q, want format 2006-Q1", label)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return Range{}, fmt.Errorf("invalid year in quarter %q: %w", label, err)
	}
	quarter, err := strconv.Atoi(q)
	if err != nil || quarter < 1 || quarter > 4 {
		return Range{}, fmt.Errorf("invalid quarter number in %q", label)
	}
	return Quarterly.Range(New(year, time.Month(quarter*3), 1)), nil
}
