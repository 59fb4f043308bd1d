package returns

// ValuationPoint is one checkpoint of a valuation series: what the holdings
// were worth on a date, and the net external cash put into them up to that
// date.
type ValuationPoint struct {
	Date  Date
	Value Money
	Base  Money
}

// ValuationSeries is a chronological list of valuation points.
type ValuationSeries []ValuationPoint

// RateUnavailable is displayed in place of a rate the solver could not
// produce, whether from missing data or non-convergence.
const RateUnavailable = "n/a"

// Result is the outcome of measuring one time window. When the rate could not
// be computed, Err holds the display marker and Rate is zero.
type Result struct {
	Rate Percent
	Err  string
	// Initial is what the holdings were worth entering the window, Final what
	// they are worth at its end, and Invested the net external cash added in
	// between.
	Initial  Money
	Final    Money
	Invested Money
}

// Display returns the rate as text, or the unavailability marker.
func (r Result) Display() string {
	if r.Err != "" {
		return r.Err
	}
	return r.Rate.SignedString()
}

// Report holds the four standard measurement windows, computed independently
// of one another.
type Report struct {
	Owner string
	Date  Date

	YearToDate Result
	OneYear    Result
	FiveYear   Result
	AllTime    Result

	// Inflation, when set, carries the annualized inflation over the same
	// windows.
	Inflation *InflationComparison
}

// Aggregator turns a valuation series into annualized rates of return. Live,
// when set, supplies today's holding value so the closing entry reflects the
// market rather than the last checkpoint; when it fails or is nil the last
// checkpoint value closes the series.
type Aggregator struct {
	Points ValuationSeries
	Today  Date
	Live   func() (Money, error)
}

// Window measures the annualized rate of return over one time window. A zero
// From makes the window start at inception; a zero To ends it today.
//
// The window is priced as a synthetic cashflow series: the value entering the
// window flows in the day before it opens, every change of invested base
// flows on its checkpoint date, and the closing value flows out at the end.
// The internal rate of that series is the money-weighted return.
func (a *Aggregator) Window(r Range) Result {
	end := a.Today
	if !r.To.IsZero() && r.To.Before(end) {
		end = r.To
	}

	var series CashflowSeries
	var result Result

	prevBase := M(0, "")
	if !r.From.IsZero() {
		if before, ok := a.latestBefore(r.From); ok {
			result.Initial = before.Value
			prevBase = before.Base
			if !before.Value.IsZero() {
				series = series.Flow(r.From.Add(-1), before.Value)
			}
		}
	}

	last, inWindow := ValuationPoint{}, false
	for _, p := range a.Points {
		if p.Date.After(end) {
			break
		}
		if !r.From.IsZero() && p.Date.Before(r.From) {
			continue
		}
		if delta := p.Base.Sub(prevBase); !delta.IsZero() {
			series = series.Flow(p.Date, delta)
			result.Invested = result.Invested.Add(delta)
		}
		prevBase = p.Base
		last, inWindow = p, true
	}

	final, closeOn := result.Initial, end
	if inWindow {
		final, closeOn = last.Value, last.Date
	}
	if a.Live != nil && (r.To.IsZero() || !r.To.Before(a.Today)) {
		if live, err := a.Live(); err == nil {
			final, closeOn = live, a.Today
		}
	}
	result.Final = final
	if !final.IsZero() {
		series = series.Flow(closeOn, final.Neg())
	}

	rate, err := RateOfReturn(series)
	if err != nil {
		result.Err = RateUnavailable
		return result
	}
	result.Rate = rate
	return result
}

// latestBefore returns the last point strictly before 'on'.
func (a *Aggregator) latestBefore(on Date) (ValuationPoint, bool) {
	var found ValuationPoint
	var ok bool
	for _, p := range a.Points {
		if !p.Date.Before(on) {
			break
		}
		found, ok = p, true
	}
	return found, ok
}

// Historical computes the four standard windows: year to date, trailing one
// year, trailing five years, and since inception. Each window is measured
// independently; a failure in one leaves the others intact.
func (a *Aggregator) Historical() Report {
	return Report{
		Date:       a.Today,
		YearToDate: a.Window(Range{From: a.Today.StartOfYear()}),
		OneYear:    a.Window(Range{From: a.Today.YearsAgo(1)}),
		FiveYear:   a.Window(Range{From: a.Today.YearsAgo(5)}),
		AllTime:    a.Window(Range{}),
	}
}

// InflationRate measures the annualized inflation over a window as the rate
// of return of a pseudo-investment tracking the index: the opening level
// flows in, the closing level flows out.
func InflationRate(index *InflationIndex, r Range, today Date) (Percent, error) {
	from := r.From
	if from.IsZero() {
		first, _, ok := index.First()
		if !ok {
			return 0, ErrNoCashflows
		}
		from = first
	}
	to := r.To
	if to.IsZero() {
		to = today
	}

	date1, level1, ok := index.LevelAsOf(from)
	if !ok {
		// No observation before the window opens: anchor at the first one.
		if date1, level1, ok = index.First(); !ok {
			return 0, ErrNoCashflows
		}
	}
	date2, level2, ok := index.LevelAsOf(to)
	if !ok || date1 == date2 {
		return 0, ErrNoCashflows
	}

	series := CashflowSeries{}.
		Flow(date1, M(level1, "")).
		Flow(date2, M(-level2, ""))
	return RateOfReturn(series)
}

// InflationComparison holds the annualized inflation over the four standard
// windows.
type InflationComparison struct {
	YearToDate Result
	OneYear    Result
	FiveYear   Result
	AllTime    Result
}

// CompareInflation measures an inflation index over the same windows
// Historical measures, so each rate of return reads against the inflation of
// its own span.
func CompareInflation(index *InflationIndex, today Date) *InflationComparison {
	window := func(r Range) Result {
		rate, err := InflationRate(index, r, today)
		if err != nil {
			return Result{Err: RateUnavailable}
		}
		return Result{Rate: rate}
	}
	return &InflationComparison{
		YearToDate: window(Range{From: today.StartOfYear()}),
		OneYear:    window(Range{From: today.YearsAgo(1)}),
		FiveYear:   window(Range{From: today.YearsAgo(5)}),
		AllTime:    window(Range{}),
	}
}

// Segment is the performance of one asset class, with its share of the total
// current value.
type Segment struct {
	Kind     SecurityKind
	Result   Result
	Fraction Percent
}

// SegmentedPerformance measures each asset class separately over a window,
// grouping security checkpoints by the kind of their security.
func SegmentedPerformance(book *ValuationBook, catalog SecurityCatalog, owner string, r Range, today Date) []Segment {
	byKind := make(map[SecurityKind][]string)
	for sec := range catalog.Securities() {
		byKind[sec.Kind()] = append(byKind[sec.Kind()], sec.Ticker())
	}

	var segments []Segment
	var total float64
	for _, kind := range []SecurityKind{Savings, Stock, StockETF, Bond, BondETF, Pension} {
		tickers := byKind[kind]
		if len(tickers) == 0 {
			continue
		}
		series := book.SecuritySeries(ValuationFilter{Owner: owner, Securities: tickers})
		if len(series) == 0 {
			continue
		}
		agg := Aggregator{Points: series, Today: today}
		result := agg.Window(r)
		segments = append(segments, Segment{Kind: kind, Result: result})
		total += result.Final.AsFloat()
	}
	for i := range segments {
		if total != 0 {
			segments[i].Fraction = Percent(segments[i].Result.Final.AsFloat() / total * 100)
		}
	}
	return segments
}

// QuarterFlow is the net external cashflow of one calendar quarter.
type QuarterFlow struct {
	Year    int
	Quarter int
	Amount  Money
}

// QuarterlyCashflows sums external cashflows per calendar quarter. Internal
// accrual on interest-accumulating securities is excluded. Quarters with no
// activity between the first and last are present with a zero amount.
func QuarterlyCashflows(src TransactionSource, catalog SecurityCatalog, f TransactionFilter) []QuarterFlow {
	type quarterKey struct{ year, quarter int }
	sums := make(map[quarterKey]Money)
	first, last := quarterKey{}, quarterKey{}
	seen := false
	for t := range src.Transactions(f) {
		if sec := catalog.Security(t.Security); sec != nil && sec.isInternalAccrual(t.Kind) {
			continue
		}
		key := quarterKey{t.Date.Year(), (int(t.Date.Month())-1)/3 + 1}
		sums[key] = sums[key].Add(t.Cashflow)
		if !seen {
			first, seen = key, true
		}
		last = key
	}
	if !seen {
		return nil
	}

	var out []QuarterFlow
	for key := first; ; {
		out = append(out, QuarterFlow{Year: key.year, Quarter: key.quarter, Amount: sums[key]})
		if key == last {
			break
		}
		if key.quarter == 4 {
			key = quarterKey{key.year + 1, 1}
		} else {
			key.quarter++
		}
	}
	return out
}

// InterestPayment computes the day-weighted interest an accruing position
// earned over a window, at the security's configured annual rate. The balance
// is reconstructed from the ledger; each balance span contributes
// balance * rate * days/365.
func InterestPayment(src TransactionSource, sec *Security, f TransactionFilter, r Range, today Date) Money {
	from := r.From
	to := r.To
	if to.IsZero() {
		to = today
	}

	f.Securities = []string{sec.Ticker()}
	f.Range = Range{To: to}

	var interest float64
	st := positionState{}
	prev := Date{}
	accrue := func(until Date) {
		if prev.IsZero() || !until.After(prev) {
			return
		}
		start := prev
		if !from.IsZero() && start.Before(from) {
			start = from
		}
		if !until.After(start) {
			return
		}
		days := float64(until.Sub(start))
		interest += st.value.AsFloat() * float64(sec.InterestRate()) / 100 * days / daysPerYear
	}

	for t := range src.Transactions(f) {
		accrue(t.Date)
		st.apply(t, sec)
		if t.Date.After(prev) {
			prev = t.Date
		}
	}
	accrue(to)
	return M(interest, sec.Currency())
}
