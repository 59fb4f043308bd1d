package returns

import (
	"testing"
	"time"
)

// newTestBooks builds a catalog with one savings position, one accruing
// savings position and one mark-to-market stock.
func newTestBooks(t *testing.T) *SecurityBook {
	t.Helper()
	book := NewSecurityBook()
	book.Add(NewSecurity("CASH", "Savings account", "EUR", Savings))
	book.Add(NewSecurity("LIFE", "Accruing plan", "EUR", Pension).AccumulateInterest(Percent(2)))
	book.Add(NewSecurity("ACME", "Acme Corp", "EUR", Stock).MarkToMarket())
	return book
}

func runWalker(t *testing.T, ledger *Ledger, securities *SecurityBook, store *ValuationBook, today Date) {
	t.Helper()
	w := Walker{Transactions: ledger, Securities: securities, Store: store, Today: today}
	w.Run("alice")
}

func TestWalker_SavingsPosition(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(TransactionRecord{
		Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "CASH",
		Cashflow: M(-100, "EUR"), Account: "bank", Owner: "alice",
	})
	securities := newTestBooks(t)
	store := NewValuationBook()

	runWalker(t, ledger, securities, store, NewDate(2025, time.February, 20))

	got := store.SecurityValuations(ValuationFilter{Owner: "alice"})
	wantDates := []Date{
		NewDate(2025, time.January, 15),
		NewDate(2025, time.January, 31),
		NewDate(2025, time.February, 15),
	}
	if len(got) != len(wantDates) {
		t.Fatalf("got %d checkpoints, want %d", len(got), len(wantDates))
	}
	for i, v := range got {
		if v.Date != wantDates[i] {
			t.Errorf("checkpoint %d on %s, want %s", i, v.Date, wantDates[i])
		}
		if !v.Value.Equal(M(100, "EUR")) {
			t.Errorf("checkpoint %s value = %s, want €100", v.Date, v.Value)
		}
		if !v.Base.Equal(M(100, "EUR")) {
			t.Errorf("checkpoint %s base = %s, want €100", v.Date, v.Base)
		}
	}

	if got, want := store.Watermark("alice"), NewDate(2025, time.February, 15); got != want {
		t.Errorf("watermark = %s, want %s", got, want)
	}
}

func TestWalker_MarkToMarketUsesHistoricalPrice(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(TransactionRecord{
		Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "ACME",
		Quantity: Q(10), Cashflow: M(-100, "EUR"), Account: "broker", Owner: "alice",
	})
	securities := newTestBooks(t)
	securities.Security("ACME").RecordPrice(NewDate(2025, time.January, 10), 10)
	securities.Security("ACME").RecordPrice(NewDate(2025, time.February, 1), 12)
	store := NewValuationBook()

	runWalker(t, ledger, securities, store, NewDate(2025, time.February, 20))

	got := store.SecurityValuations(ValuationFilter{Owner: "alice", Securities: []string{"ACME"}})
	if len(got) != 3 {
		t.Fatalf("got %d checkpoints, want 3", len(got))
	}
	// Before the price change the position is worth 10 x 10.
	if !got[0].Value.Equal(M(100, "EUR")) {
		t.Errorf("january value = %s, want €100", got[0].Value)
	}
	// The February checkpoint picks the most recent price at or before it.
	if !got[2].Value.Equal(M(120, "EUR")) {
		t.Errorf("february value = %s, want €120", got[2].Value)
	}
	if !got[2].Quantity.Equal(Q(10)) {
		t.Errorf("quantity = %s, want 10", got[2].Quantity)
	}
}

func TestWalker_MissingPriceValuesAtZero(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(TransactionRecord{
		Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "ACME",
		Quantity: Q(10), Cashflow: M(-100, "EUR"), Account: "broker", Owner: "alice",
	})
	securities := newTestBooks(t)
	store := NewValuationBook()

	runWalker(t, ledger, securities, store, NewDate(2025, time.January, 20))

	got := store.SecurityValuations(ValuationFilter{Owner: "alice"})
	if len(got) != 1 {
		t.Fatalf("got %d checkpoints, want 1", len(got))
	}
	if !got[0].Value.IsZero() {
		t.Errorf("value = %s, want zero when no price is recorded", got[0].Value)
	}
	if !got[0].Base.Equal(M(100, "EUR")) {
		t.Errorf("base = %s, want €100", got[0].Base)
	}
}

func TestWalker_InternalAccrualLeavesBaseUntouched(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(
		TransactionRecord{
			Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "LIFE",
			Cashflow: M(-100, "EUR"), Account: "plan", Owner: "alice",
		},
		TransactionRecord{
			Date: NewDate(2025, time.January, 20), Kind: Interest, Security: "LIFE",
			Cashflow: M(5, "EUR"), Account: "plan", Owner: "alice",
		},
		TransactionRecord{
			Date: NewDate(2025, time.January, 25), Kind: Match, Security: "LIFE",
			Cashflow: M(2, "EUR"), Account: "plan", Owner: "alice",
		},
	)
	securities := newTestBooks(t)
	store := NewValuationBook()

	runWalker(t, ledger, securities, store, NewDate(2025, time.February, 5))

	got := store.SecurityValuations(ValuationFilter{Owner: "alice"})
	if len(got) != 2 {
		t.Fatalf("got %d checkpoints, want 2", len(got))
	}
	last := got[len(got)-1]
	if !last.Value.Equal(M(107, "EUR")) {
		t.Errorf("value = %s, want €107 (accrued interest and match)", last.Value)
	}
	if !last.Base.Equal(M(100, "EUR")) {
		t.Errorf("base = %s, want €100 (accrual is not external cash)", last.Base)
	}
}

func TestWalker_WriteDownLowersValueOnly(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(
		TransactionRecord{
			Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "CASH",
			Cashflow: M(-100, "EUR"), Account: "bank", Owner: "alice",
		},
		TransactionRecord{
			Date: NewDate(2025, time.January, 20), Kind: WriteDown, Security: "CASH",
			Cashflow: M(30, "EUR"), Account: "bank", Owner: "alice",
		},
	)
	securities := newTestBooks(t)
	store := NewValuationBook()

	runWalker(t, ledger, securities, store, NewDate(2025, time.February, 1))

	got := store.SecurityValuations(ValuationFilter{Owner: "alice"})
	last := got[len(got)-1]
	if !last.Value.Equal(M(70, "EUR")) {
		t.Errorf("value = %s, want €70 after the write-down", last.Value)
	}
	if !last.Base.Equal(M(100, "EUR")) {
		t.Errorf("base = %s, want €100 (a write-down keeps the invested base)", last.Base)
	}
}

func TestWalker_FullSaleStopsCheckpoints(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(
		TransactionRecord{
			Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "CASH",
			Cashflow: M(-100, "EUR"), Account: "bank", Owner: "alice",
		},
		TransactionRecord{
			Date: NewDate(2025, time.February, 10), Kind: Sell, Security: "CASH",
			Cashflow: M(100, "EUR"), Account: "bank", Owner: "alice",
		},
	)
	securities := newTestBooks(t)
	store := NewValuationBook()

	runWalker(t, ledger, securities, store, NewDate(2025, time.April, 30))

	got := store.SecurityValuations(ValuationFilter{Owner: "alice"})
	// January 15, January 31: the position is live. February 15 records the
	// closing zero, then the position stops being emitted.
	if len(got) != 3 {
		t.Fatalf("got %d checkpoints, want 3: %v", len(got), got)
	}
	last := got[len(got)-1]
	if last.Date != NewDate(2025, time.February, 15) {
		t.Errorf("last checkpoint on %s, want 2025-02-15", last.Date)
	}
	if !last.Value.IsZero() || !last.Base.IsZero() {
		t.Errorf("closing checkpoint value %s base %s, want both zero", last.Value, last.Base)
	}
}

func TestWalker_ClosedPositionStaysClosedAcrossRuns(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(
		TransactionRecord{
			Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "CASH",
			Cashflow: M(-100, "EUR"), Account: "bank", Owner: "alice",
		},
		TransactionRecord{
			Date: NewDate(2025, time.February, 10), Kind: Sell, Security: "CASH",
			Cashflow: M(100, "EUR"), Account: "bank", Owner: "alice",
		},
	)
	securities := newTestBooks(t)
	store := NewValuationBook()

	runWalker(t, ledger, securities, store, NewDate(2025, time.April, 20))
	first := store.SecurityValuations(ValuationFilter{Owner: "alice"})

	// A later run resumes from the stored checkpoints. The position was sold
	// off entirely; it must not come back to life with its pre-sale value.
	runWalker(t, ledger, securities, store, NewDate(2025, time.June, 30))
	second := store.SecurityValuations(ValuationFilter{Owner: "alice"})

	if len(second) != len(first) {
		t.Fatalf("resumed run grew the checkpoint count from %d to %d: %v",
			len(first), len(second), second)
	}
	last := second[len(second)-1]
	if last.Date != NewDate(2025, time.February, 15) {
		t.Errorf("last checkpoint on %s, want the 2025-02-15 closing one", last.Date)
	}
	if !last.Value.IsZero() || !last.Base.IsZero() || !last.Quantity.IsZero() {
		t.Errorf("closing checkpoint = %+v, want zero value, base and quantity", last)
	}
}

func TestWalker_OversoldMarkToMarketValuesAtZero(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(
		TransactionRecord{
			Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "ACME",
			Quantity: Q(10), Cashflow: M(-100, "EUR"), Account: "broker", Owner: "alice",
		},
		TransactionRecord{
			Date: NewDate(2025, time.January, 20), Kind: Sell, Security: "ACME",
			Quantity: Q(-12), Cashflow: M(120, "EUR"), Account: "broker", Owner: "alice",
		},
	)
	securities := newTestBooks(t)
	securities.Security("ACME").RecordPrice(NewDate(2025, time.January, 2), 10)
	store := NewValuationBook()

	runWalker(t, ledger, securities, store, NewDate(2025, time.January, 31))

	got := store.SecurityValuations(ValuationFilter{Owner: "alice"})
	if len(got) != 2 {
		t.Fatalf("got %d checkpoints, want 2: %v", len(got), got)
	}
	// Selling past zero must not leave a negative market value behind.
	last := got[len(got)-1]
	if !last.Value.IsZero() {
		t.Errorf("oversold value = %s, want zero", last.Value)
	}
	if !last.Base.Equal(M(-20, "EUR")) {
		t.Errorf("base = %s, want -€20", last.Base)
	}
}

func TestWalker_Idempotent(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(
		TransactionRecord{
			Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "ACME",
			Quantity: Q(10), Cashflow: M(-100, "EUR"), Account: "broker", Owner: "alice",
		},
		TransactionRecord{
			Date: NewDate(2025, time.February, 10), Kind: Buy, Security: "CASH",
			Cashflow: M(-50, "EUR"), Account: "bank", Owner: "alice",
		},
	)
	securities := newTestBooks(t)
	securities.Security("ACME").RecordPrice(NewDate(2025, time.January, 2), 10)
	store := NewValuationBook()

	today := NewDate(2025, time.March, 20)
	runWalker(t, ledger, securities, store, today)
	first := store.SecurityValuations(ValuationFilter{Owner: "alice"})

	// Running again over the same span must not duplicate or alter anything.
	runWalker(t, ledger, securities, store, today)
	second := store.SecurityValuations(ValuationFilter{Owner: "alice"})

	if len(first) != len(second) {
		t.Fatalf("second run changed checkpoint count: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Date != second[i].Date || first[i].Security != second[i].Security ||
			!first[i].Value.Equal(second[i].Value) || !first[i].Base.Equal(second[i].Base) {
			t.Errorf("checkpoint %d changed between runs: %+v -> %+v", i, first[i], second[i])
		}
	}
}

func TestWalker_ResumesFromWatermark(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(TransactionRecord{
		Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "CASH",
		Cashflow: M(-100, "EUR"), Account: "bank", Owner: "alice",
	})
	securities := newTestBooks(t)
	store := NewValuationBook()

	runWalker(t, ledger, securities, store, NewDate(2025, time.January, 31))

	// A later transaction arrives, then the walk resumes up to a later date.
	ledger.Append(TransactionRecord{
		Date: NewDate(2025, time.February, 10), Kind: Buy, Security: "CASH",
		Cashflow: M(-50, "EUR"), Account: "bank", Owner: "alice",
	})
	runWalker(t, ledger, securities, store, NewDate(2025, time.February, 28))

	got := store.SecurityValuations(ValuationFilter{Owner: "alice"})
	if len(got) != 4 {
		t.Fatalf("got %d checkpoints, want 4", len(got))
	}
	last := got[len(got)-1]
	if last.Date != NewDate(2025, time.February, 28) {
		t.Errorf("last checkpoint on %s, want 2025-02-28", last.Date)
	}
	if !last.Value.Equal(M(150, "EUR")) || !last.Base.Equal(M(150, "EUR")) {
		t.Errorf("resumed state lost the earlier deposit: value %s base %s", last.Value, last.Base)
	}
}

func TestWalker_AccountTotalsMatchSecurityTotals(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(
		TransactionRecord{
			Date: NewDate(2025, time.January, 10), Kind: Buy, Security: "CASH",
			Cashflow: M(-100, "EUR"), Account: "bank", Owner: "alice",
		},
		TransactionRecord{
			Date: NewDate(2025, time.January, 12), Kind: Buy, Security: "ACME",
			Quantity: Q(5), Cashflow: M(-50, "EUR"), Account: "broker", Owner: "alice",
		},
		TransactionRecord{
			Date: NewDate(2025, time.February, 3), Kind: Buy, Security: "LIFE",
			Cashflow: M(-20, "EUR"), Account: "bank", Owner: "alice",
		},
	)
	securities := newTestBooks(t)
	securities.Security("ACME").RecordPrice(NewDate(2025, time.January, 2), 10)
	store := NewValuationBook()

	runWalker(t, ledger, securities, store, NewDate(2025, time.March, 10))

	perDate := make(map[Date]Money)
	for _, v := range store.SecurityValuations(ValuationFilter{Owner: "alice"}) {
		perDate[v.Date] = perDate[v.Date].Add(v.Value)
	}
	for _, v := range store.AccountValuations(ValuationFilter{Owner: "alice"}) {
		perDate[v.Date] = perDate[v.Date].Sub(v.Value)
	}
	for on, diff := range perDate {
		if !diff.IsZero() {
			t.Errorf("on %s account totals differ from security totals by %s", on, diff)
		}
	}
}

func TestValuationBook_WatermarkDefault(t *testing.T) {
	store := NewValuationBook()
	if got := store.Watermark("nobody"); got != DistantPast {
		t.Errorf("Watermark() = %s, want %s", got, DistantPast)
	}
}
