package returns

import (
	"fmt"
	"slices"
)

// TransactionKind identifies the kind of a ledger transaction.
type TransactionKind string

const (
	Buy       TransactionKind = "buy"
	Sell      TransactionKind = "sell"
	Interest  TransactionKind = "interest"
	Dividend  TransactionKind = "dividend"
	Match     TransactionKind = "match"
	WriteDown TransactionKind = "write-down"
)

// ParseTransactionKind parses a string into a TransactionKind.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch TransactionKind(s) {
	case Buy, Sell, Interest, Dividend, Match, WriteDown:
		return TransactionKind(s), nil
	default:
		return "", fmt.Errorf("unknown transaction kind: %q", s)
	}
}

// TransactionRecord is one row of the transaction ledger.
//
// Sign convention: Cashflow is negative when cash leaves the owner (a buy, an
// expense) and positive when cash arrives (sell, dividend, interest). The one
// exception is interest-accumulating securities, where INTEREST and MATCH
// records represent internal accrual: they are excluded from external-cashflow
// aggregations but still enter the value rollup.
type TransactionRecord struct {
	Date     Date
	Kind     TransactionKind
	Security string   // security ticker
	Quantity Quantity // signed number of units exchanged; zero for non-trade kinds
	Cashflow Money
	Tax      Money
	Expense  Money
	Account  string
	Owner    string
}

func (t TransactionRecord) String() string {
	return fmt.Sprintf("%s: (%s) %s %s", t.Date, t.Kind, t.Security, t.Cashflow)
}

// MatchOf returns the employer-matching copy of a transaction: same date,
// security and account, kind MATCH, and a positive cashflow worth 'percent'
// of the original's absolute cashflow.
func (t TransactionRecord) MatchOf(percent Percent) TransactionRecord {
	matched := t
	matched.Kind = Match
	matched.Cashflow = t.Cashflow.Abs().Mul(Q(float64(percent) / 100))
	matched.Quantity = Q(0)
	matched.Tax = M(0, t.Tax.Currency())
	matched.Expense = M(0, t.Expense.Currency())
	return matched
}

// TransactionFilter selects a subset of the ledger. Zero fields select
// everything: an empty Owner matches all owners, empty slices match all
// accounts or securities, zero dates leave the range unbounded.
type TransactionFilter struct {
	Owner      string
	Accounts   []string
	Securities []string
	Range      Range
}

// matches reports whether a record passes the filter.
func (f TransactionFilter) matches(t TransactionRecord) bool {
	if f.Owner != "" && t.Owner != f.Owner {
		return false
	}
	if len(f.Accounts) > 0 && !slices.Contains(f.Accounts, t.Account) {
		return false
	}
	if len(f.Securities) > 0 && !slices.Contains(f.Securities, t.Security) {
		return false
	}
	return f.Range.Contains(t.Date)
}

// MarshalJSON implements the json.Marshaler interface for TransactionRecord.
func (t TransactionRecord) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", t.Date)
	w.Append("kind", t.Kind)
	w.Append("security", t.Security)
	if !t.Quantity.IsZero() {
		w.Append("quantity", t.Quantity)
	}
	w.EmbedFrom(t.Cashflow)
	if !t.Tax.IsZero() {
		w.Append("tax", t.Tax.value)
	}
	if !t.Expense.IsZero() {
		w.Append("expense", t.Expense.value)
	}
	w.Append("account", t.Account)
	w.Optional("owner", t.Owner)
	return w.MarshalJSON()
}
