package returns

import (
	"testing"
	"time"
)

func TestValuationBookUpsertReplaces(t *testing.T) {
	book := NewValuationBook()
	on := NewDate(2025, time.January, 15)
	book.UpsertSecurityValuation(SecurityValuation{
		Date: on, Security: "ACME", Owner: "alice", Value: M(100, "EUR"), Base: M(100, "EUR"),
	})
	book.UpsertSecurityValuation(SecurityValuation{
		Date: on, Security: "ACME", Owner: "alice", Value: M(110, "EUR"), Base: M(100, "EUR"),
	})

	got := book.SecurityValuations(ValuationFilter{})
	if len(got) != 1 {
		t.Fatalf("got %d checkpoints, want 1 after upserting the same key", len(got))
	}
	if !got[0].Value.Equal(M(110, "EUR")) {
		t.Errorf("value = %s, want the replacing €110", got[0].Value)
	}
}

func TestValuationBookSecurityValuationsAsOf(t *testing.T) {
	book := NewValuationBook()
	for _, v := range []SecurityValuation{
		{Date: NewDate(2025, time.January, 15), Security: "ACME", Owner: "alice", Value: M(100, "EUR")},
		{Date: NewDate(2025, time.January, 31), Security: "ACME", Owner: "alice", Value: M(105, "EUR")},
		{Date: NewDate(2025, time.February, 15), Security: "ACME", Owner: "alice", Value: M(110, "EUR")},
		{Date: NewDate(2025, time.January, 31), Security: "CASH", Owner: "alice", Value: M(50, "EUR")},
		{Date: NewDate(2025, time.January, 31), Security: "ACME", Owner: "bob", Value: M(999, "EUR")},
	} {
		book.UpsertSecurityValuation(v)
	}

	got := book.SecurityValuationsAsOf("alice", NewDate(2025, time.February, 1))
	if len(got) != 2 {
		t.Fatalf("got %d positions, want 2", len(got))
	}
	// Sorted by ticker, each at its latest checkpoint on or before the date.
	if got[0].Security != "ACME" || !got[0].Value.Equal(M(105, "EUR")) {
		t.Errorf("position 0 = %s %s, want ACME at €105", got[0].Security, got[0].Value)
	}
	if got[1].Security != "CASH" || !got[1].Value.Equal(M(50, "EUR")) {
		t.Errorf("position 1 = %s %s, want CASH at €50", got[1].Security, got[1].Value)
	}
}

func TestValuationBookAccountSeries(t *testing.T) {
	book := NewValuationBook()
	for _, v := range []AccountValuation{
		{Date: NewDate(2025, time.January, 15), Account: "bank", Owner: "alice", Value: M(50, "EUR"), Base: M(50, "EUR")},
		{Date: NewDate(2025, time.January, 15), Account: "broker", Owner: "alice", Value: M(100, "EUR"), Base: M(90, "EUR")},
		{Date: NewDate(2025, time.January, 31), Account: "broker", Owner: "alice", Value: M(120, "EUR"), Base: M(90, "EUR")},
	} {
		book.UpsertAccountValuation(v)
	}

	series := book.AccountSeries(ValuationFilter{Owner: "alice"})
	if len(series) != 2 {
		t.Fatalf("got %d points, want 2", len(series))
	}
	if !series[0].Value.Equal(M(150, "EUR")) || !series[0].Base.Equal(M(140, "EUR")) {
		t.Errorf("point 0 = %s/%s, want accounts summed to €150/€140", series[0].Value, series[0].Base)
	}
	if series[1].Date != NewDate(2025, time.January, 31) || !series[1].Value.Equal(M(120, "EUR")) {
		t.Errorf("point 1 = %s %s, want 2025-01-31 at €120", series[1].Date, series[1].Value)
	}

	filtered := book.AccountSeries(ValuationFilter{Owner: "alice", Accounts: []string{"bank"}})
	if len(filtered) != 1 || !filtered[0].Value.Equal(M(50, "EUR")) {
		t.Errorf("filtered series = %v, want the single bank point", filtered)
	}
}
