package returns

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestAggregator_AllTimeWindow(t *testing.T) {
	agg := Aggregator{
		Points: ValuationSeries{
			{Date: NewDate(2024, time.December, 31), Value: M(100, "EUR"), Base: M(100, "EUR")},
			{Date: NewDate(2025, time.December, 31), Value: M(101, "EUR"), Base: M(100, "EUR")},
		},
		Today: NewDate(2025, time.December, 31),
	}

	got := agg.Window(Range{})
	if got.Err != "" {
		t.Fatalf("Window() failed: %s", got.Err)
	}
	if !got.Rate.Equal(Percent(1.0)) {
		t.Errorf("Rate = %s, want 1.00%%", got.Rate)
	}
	if !got.Final.Equal(M(101, "EUR")) {
		t.Errorf("Final = %s, want €101", got.Final)
	}
	if !got.Invested.Equal(M(100, "EUR")) {
		t.Errorf("Invested = %s, want €100", got.Invested)
	}
}

func TestAggregator_BoundedWindowOpensWithPriorValue(t *testing.T) {
	agg := Aggregator{
		Points: ValuationSeries{
			{Date: NewDate(2024, time.December, 31), Value: M(100, "EUR"), Base: M(100, "EUR")},
			{Date: NewDate(2025, time.December, 31), Value: M(101, "EUR"), Base: M(100, "EUR")},
		},
		Today: NewDate(2025, time.December, 31),
	}

	got := agg.Window(Range{From: NewDate(2025, time.January, 1)})
	if got.Err != "" {
		t.Fatalf("Window() failed: %s", got.Err)
	}
	if !got.Initial.Equal(M(100, "EUR")) {
		t.Errorf("Initial = %s, want €100", got.Initial)
	}
	// No cash moved inside the window: the whole gain is return.
	if !got.Invested.IsZero() {
		t.Errorf("Invested = %s, want zero", got.Invested)
	}
	if !got.Rate.Equal(Percent(1.0)) {
		t.Errorf("Rate = %s, want 1.00%%", got.Rate)
	}
}

func TestAggregator_EmptySeriesDegrades(t *testing.T) {
	agg := Aggregator{Today: NewDate(2025, time.June, 30)}
	got := agg.Window(Range{})
	if got.Err != RateUnavailable {
		t.Errorf("Err = %q, want %q", got.Err, RateUnavailable)
	}
	if got.Display() != RateUnavailable {
		t.Errorf("Display() = %q, want %q", got.Display(), RateUnavailable)
	}
}

func TestAggregator_LiveValueClosesTheWindow(t *testing.T) {
	agg := Aggregator{
		Points: ValuationSeries{
			{Date: NewDate(2024, time.December, 31), Value: M(100, "EUR"), Base: M(100, "EUR")},
		},
		Today: NewDate(2025, time.December, 31),
		Live:  func() (Money, error) { return M(102, "EUR"), nil },
	}

	got := agg.Window(Range{})
	if got.Err != "" {
		t.Fatalf("Window() failed: %s", got.Err)
	}
	if !got.Final.Equal(M(102, "EUR")) {
		t.Errorf("Final = %s, want the live €102", got.Final)
	}
	if !got.Rate.Equal(Percent(2.0)) {
		t.Errorf("Rate = %s, want 2.00%%", got.Rate)
	}
}

func TestAggregator_LiveFailureFallsBackToCheckpoint(t *testing.T) {
	agg := Aggregator{
		Points: ValuationSeries{
			{Date: NewDate(2024, time.December, 31), Value: M(100, "EUR"), Base: M(100, "EUR")},
			{Date: NewDate(2025, time.December, 31), Value: M(101, "EUR"), Base: M(100, "EUR")},
		},
		Today: NewDate(2025, time.December, 31),
		Live:  func() (Money, error) { return Money{}, errors.New("quote source down") },
	}

	got := agg.Window(Range{})
	if got.Err != "" {
		t.Fatalf("Window() failed: %s", got.Err)
	}
	if !got.Final.Equal(M(101, "EUR")) {
		t.Errorf("Final = %s, want the checkpoint €101", got.Final)
	}
}

func TestAggregator_Historical(t *testing.T) {
	// Steady 1% a year over two years of year-end checkpoints.
	points := ValuationSeries{
		{Date: NewDate(2021, time.December, 31), Value: M(100, "EUR"), Base: M(100, "EUR")},
		{Date: NewDate(2022, time.December, 31), Value: M(101, "EUR"), Base: M(100, "EUR")},
		{Date: NewDate(2023, time.December, 31), Value: M(102.01, "EUR"), Base: M(100, "EUR")},
	}
	agg := Aggregator{Points: points, Today: NewDate(2023, time.December, 31)}

	report := agg.Historical()
	for name, result := range map[string]Result{
		"year to date": report.YearToDate,
		"five years":   report.FiveYear,
		"all time":     report.AllTime,
	} {
		if result.Err != "" {
			t.Errorf("%s window failed: %s", name, result.Err)
			continue
		}
		if !result.Rate.Equal(Percent(1.0)) {
			t.Errorf("%s rate = %s, want 1.00%%", name, result.Rate)
		}
	}

	// The trailing-year window opens with the last checkpoint before it. With
	// yearly checkpoints that opening value is a year stale, so the window
	// sees two years of growth.
	if report.OneYear.Err != "" {
		t.Fatalf("one year window failed: %s", report.OneYear.Err)
	}
	if got := float64(report.OneYear.Rate); math.Abs(got-2.0) > 0.05 {
		t.Errorf("one year rate = %s, want about 2.00%%", report.OneYear.Rate)
	}
}

func TestInflationRate(t *testing.T) {
	index := NewInflationIndex()
	index.Record(NewDate(2020, time.December, 31), 100)
	index.Record(NewDate(2025, time.December, 31), 110)

	got, err := InflationRate(index, Range{}, NewDate(2025, time.December, 31))
	if err != nil {
		t.Fatalf("InflationRate() returned unexpected error: %v", err)
	}
	// (110/100)^(1/5)-1
	if math.Abs(float64(got)-1.9245) > 0.05 {
		t.Errorf("InflationRate() = %s, want about 1.92%%", got)
	}
}

func TestInflationRate_SingleObservation(t *testing.T) {
	index := NewInflationIndex()
	index.Record(NewDate(2025, time.January, 31), 100)

	if _, err := InflationRate(index, Range{}, NewDate(2025, time.June, 30)); !errors.Is(err, ErrNoCashflows) {
		t.Errorf("InflationRate() error = %v, want ErrNoCashflows", err)
	}
}

func TestCompareInflation(t *testing.T) {
	// Steady 3% a year over two years of year-end observations.
	index := NewInflationIndex()
	index.Record(NewDate(2021, time.December, 31), 100)
	index.Record(NewDate(2022, time.December, 31), 103)
	index.Record(NewDate(2023, time.December, 31), 106.09)

	got := CompareInflation(index, NewDate(2023, time.December, 31))

	for name, result := range map[string]Result{
		"year to date": got.YearToDate,
		"1 year":       got.OneYear,
		"5 years":      got.FiveYear,
		"all time":     got.AllTime,
	} {
		if result.Err != "" {
			t.Errorf("%s window failed: %s", name, result.Err)
			continue
		}
		if !result.Rate.Equal(Percent(3.0)) {
			t.Errorf("%s inflation = %s, want 3.00%%", name, result.Rate)
		}
	}
}

func TestCompareInflation_EmptyIndexDegrades(t *testing.T) {
	got := CompareInflation(NewInflationIndex(), NewDate(2025, time.June, 30))

	for name, result := range map[string]Result{
		"year to date": got.YearToDate,
		"1 year":       got.OneYear,
		"5 years":      got.FiveYear,
		"all time":     got.AllTime,
	} {
		if result.Err != RateUnavailable {
			t.Errorf("%s Err = %q, want %q", name, result.Err, RateUnavailable)
		}
	}
}

func TestSegmentedPerformance(t *testing.T) {
	securities := NewSecurityBook()
	securities.Add(NewSecurity("ACME", "Acme Corp", "EUR", Stock).MarkToMarket())
	securities.Add(NewSecurity("CASH", "Savings", "EUR", Savings))

	book := NewValuationBook()
	book.UpsertSecurityValuation(SecurityValuation{
		Date: NewDate(2024, time.December, 31), Security: "ACME", Owner: "alice",
		Value: M(100, "EUR"), Base: M(100, "EUR"),
	})
	book.UpsertSecurityValuation(SecurityValuation{
		Date: NewDate(2025, time.December, 31), Security: "ACME", Owner: "alice",
		Value: M(105, "EUR"), Base: M(100, "EUR"),
	})
	book.UpsertSecurityValuation(SecurityValuation{
		Date: NewDate(2024, time.December, 31), Security: "CASH", Owner: "alice",
		Value: M(300, "EUR"), Base: M(300, "EUR"),
	})
	book.UpsertSecurityValuation(SecurityValuation{
		Date: NewDate(2025, time.December, 31), Security: "CASH", Owner: "alice",
		Value: M(303, "EUR"), Base: M(300, "EUR"),
	})

	segments := SegmentedPerformance(book, securities, "alice", Range{}, NewDate(2025, time.December, 31))
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}

	var fractions float64
	for _, s := range segments {
		if s.Result.Err != "" {
			t.Errorf("segment %s failed: %s", s.Kind, s.Result.Err)
		}
		fractions += float64(s.Fraction)
	}
	if math.Abs(fractions-100) > 0.01 {
		t.Errorf("fractions sum to %.2f%%, want 100%%", fractions)
	}
}

func TestQuarterlyCashflows(t *testing.T) {
	securities := NewSecurityBook()
	securities.Add(NewSecurity("CASH", "Savings", "EUR", Savings))
	securities.Add(NewSecurity("LIFE", "Accruing plan", "EUR", Pension).AccumulateInterest(Percent(2)))

	ledger := NewLedger()
	ledger.Append(
		TransactionRecord{Date: NewDate(2024, time.November, 5), Kind: Buy, Security: "CASH",
			Cashflow: M(-500, "EUR"), Account: "bank", Owner: "alice"},
		TransactionRecord{Date: NewDate(2025, time.May, 20), Kind: Sell, Security: "CASH",
			Cashflow: M(200, "EUR"), Account: "bank", Owner: "alice"},
		// Internal accrual must not count as external cashflow.
		TransactionRecord{Date: NewDate(2025, time.February, 1), Kind: Interest, Security: "LIFE",
			Cashflow: M(50, "EUR"), Account: "plan", Owner: "alice"},
	)

	flows := QuarterlyCashflows(ledger, securities, TransactionFilter{Owner: "alice"})

	want := []QuarterFlow{
		{Year: 2024, Quarter: 4, Amount: M(-500, "EUR")},
		{Year: 2025, Quarter: 1, Amount: Money{}},
		{Year: 2025, Quarter: 2, Amount: M(200, "EUR")},
	}
	if len(flows) != len(want) {
		t.Fatalf("got %d quarters, want %d: %v", len(flows), len(want), flows)
	}
	for i, q := range flows {
		if q.Year != want[i].Year || q.Quarter != want[i].Quarter || !q.Amount.Equal(want[i].Amount) {
			t.Errorf("quarter %d = %+v, want %+v", i, q, want[i])
		}
	}
}

func TestInterestPayment(t *testing.T) {
	sec := NewSecurity("LIFE", "Accruing plan", "EUR", Pension).AccumulateInterest(Percent(2))

	ledger := NewLedger()
	ledger.Append(TransactionRecord{
		Date: NewDate(2025, time.January, 1), Kind: Buy, Security: "LIFE",
		Cashflow: M(-100, "EUR"), Account: "plan", Owner: "alice",
	})

	got := InterestPayment(ledger, sec, TransactionFilter{Owner: "alice"},
		Range{From: NewDate(2025, time.January, 1), To: NewDate(2026, time.January, 1)},
		NewDate(2026, time.June, 1))

	// A 100 balance held a full year at 2%.
	if math.Abs(got.AsFloat()-2.0) > 0.01 {
		t.Errorf("InterestPayment() = %s, want about €2", got)
	}
}
