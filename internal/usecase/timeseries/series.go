// Package timeseries reconstructs daily chart series from the ledger and historical closes.
package timeseries

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// Point is one (day, value) pair; Date is a canonical calendar day
type Point struct {
	Date  time.Time
	Value decimal.Decimal
}

// Series is a chart payload. A series without points is unavailable and ErrorMessage says why.
type Series struct {
	Points         []Point
	MissingSymbols []string
	ErrorMessage   string
}

// Available reports whether the series can be charted
func (s Series) Available() bool {
	return len(s.Points) > 0
}

// LabeledSeries is one line of a multi-line chart
type LabeledSeries struct {
	Key    string
	Label  string
	Points []Point
}

// Overlay is the multi-line P&L chart payload
type Overlay struct {
	Series         []LabeledSeries
	MissingSymbols []string
	ErrorMessage   string
}

// Range is an inclusive range of calendar days
type Range struct {
	Start time.Time
	End   time.Time
}

// Days lists every calendar day of the range
func (r Range) Days() []time.Time {
	return domain.DaysBetween(r.Start, r.End)
}

// LastDays is the range of n days ending on today
func LastDays(today time.Time, n int) Range {
	end := domain.Day(today.Date())
	return Range{Start: end.AddDate(0, 0, -n), End: end}
}

// ParseRange reads an optional ISO start and end day. Missing bounds default to the last defaultDays days.
func ParseRange(rawStart, rawEnd string, today time.Time, defaultDays int) (Range, error) {
	rng := LastDays(today, defaultDays)

	if strings.TrimSpace(rawStart) != "" {
		start, err := domain.ParseDate(rawStart)
		if err != nil {
			return Range{}, domain.MalformedInputf("Invalid chart start date.")
		}
		rng.Start = start
	}
	if strings.TrimSpace(rawEnd) != "" {
		end, err := domain.ParseDate(rawEnd)
		if err != nil {
			return Range{}, domain.MalformedInputf("Invalid chart end date.")
		}
		rng.End = end
	}
	if rng.Start.After(rng.End) {
		return Range{}, domain.MalformedInputf("Chart start date cannot be after chart end date.")
	}

	return rng, nil
}

// ForwardFill returns the close of each day, carrying the most recent known close across gaps.
// Days before the first known close are unpriced.
func ForwardFill(points []domain.HistoricalPoint, days []time.Time) []decimal.NullDecimal {
	sorted := make([]domain.HistoricalPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	closes := make([]decimal.NullDecimal, len(days))
	var last decimal.NullDecimal
	next := 0
	for i, day := range days {
		for ; next < len(sorted) && !sorted[next].Date.After(day); next++ {
			last = decimal.NewNullDecimal(sorted[next].Close)
		}
		closes[i] = last
	}
	return closes
}

func missingMessage(symbols []string) string {
	return fmt.Sprintf("Missing historical data for: %s", strings.Join(symbols, ", "))
}
