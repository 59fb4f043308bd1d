package returns

import (
	"testing"
	"time"
)

func TestCashflowSeriesEarliest(t *testing.T) {
	var empty CashflowSeries
	if _, ok := empty.Earliest(); ok {
		t.Error("an empty series has no earliest entry")
	}

	// Unsorted on purpose: the earliest entry anchors the discounting no
	// matter where it appears.
	series := CashflowSeries{}.
		Flow(NewDate(2025, time.June, 1), M(-50, "EUR")).
		Flow(NewDate(2025, time.January, 10), M(-100, "EUR")).
		Flow(NewDate(2025, time.March, 1), M(160, "EUR"))

	on, ok := series.Earliest()
	if !ok || on != NewDate(2025, time.January, 10) {
		t.Errorf("Earliest() = %s %v, want 2025-01-10", on, ok)
	}
}

func TestCashflowSeriesTotal(t *testing.T) {
	series := CashflowSeries{}.
		Flow(NewDate(2025, time.January, 10), M(-100, "EUR")).
		Flow(NewDate(2025, time.March, 1), M(160, "EUR"))
	if got := series.Total(); !got.Equal(M(60, "EUR")) {
		t.Errorf("Total() = %s, want €60", got)
	}
}

func TestCashflowSeriesAggregate(t *testing.T) {
	series := CashflowSeries{}.
		Flow(NewDate(2025, time.March, 1), M(30, "EUR")).
		Flow(NewDate(2025, time.January, 10), M(-100, "EUR")).
		Flow(NewDate(2025, time.March, 1), M(20, "EUR"))

	got := series.Aggregate()
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Date != NewDate(2025, time.January, 10) || !got[0].Amount.Equal(M(-100, "EUR")) {
		t.Errorf("entry 0 = %s, want 2025-01-10: -€100", got[0])
	}
	if got[1].Date != NewDate(2025, time.March, 1) || !got[1].Amount.Equal(M(50, "EUR")) {
		t.Errorf("entry 1 = %s, want 2025-03-01: +€50", got[1])
	}
}
