package returns

import (
	"fmt"
	"sort"
)

// CashflowEntry is a single dated, signed amount of cash. Entries carry no
// currency of their own: callers must pre-convert or ensure uniformity.
type CashflowEntry struct {
	Date   Date
	Amount Money
}

func (e CashflowEntry) String() string {
	return fmt.Sprintf("%s: %s", e.Date, e.Amount.SignedString())
}

// CashflowSeries is an ordered list of cashflow entries. Several entries may
// share a date; the solver sums them during evaluation regardless, but
// Aggregate is available for consumers that require one entry per date.
type CashflowSeries []CashflowEntry

// Flow appends an entry and returns the extended series.
func (s CashflowSeries) Flow(on Date, amount Money) CashflowSeries {
	return append(s, CashflowEntry{Date: on, Amount: amount})
}

// Earliest returns the earliest date in the series. The series is not
// required to be sorted: the earliest date anchors the discounting no matter
// where it appears.
func (s CashflowSeries) Earliest() (Date, bool) {
	if len(s) == 0 {
		return Date{}, false
	}
	min := s[0].Date
	for _, e := range s[1:] {
		if e.Date.Before(min) {
			min = e.Date
		}
	}
	return min, true
}

// Total returns the sum of all amounts in the series.
func (s CashflowSeries) Total() Money {
	var total Money
	for _, e := range s {
		total = total.Add(e.Amount)
	}
	return total
}

// Aggregate returns a new series with one entry per date (amounts summed),
// sorted chronologically.
func (s CashflowSeries) Aggregate() CashflowSeries {
	byDate := make(map[Date]Money)
	for _, e := range s {
		byDate[e.Date] = byDate[e.Date].Add(e.Amount)
	}
	out := make(CashflowSeries, 0, len(byDate))
	for on, amount := range byDate {
		out = append(out, CashflowEntry{Date: on, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
