package returns

import (
	"iter"
	"sort"
)

// Ledger is the append-only list of all transactions, kept in chronological
// order. Records sharing a date keep their insertion order.
type Ledger struct {
	transactions []TransactionRecord
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger { return &Ledger{} }

// Len returns the number of records in the ledger.
func (l *Ledger) Len() int { return len(l.transactions) }

// Append adds records to the ledger and restores chronological order.
func (l *Ledger) Append(records ...TransactionRecord) {
	l.transactions = append(l.transactions, records...)
	sort.SliceStable(l.transactions, func(i, j int) bool {
		return l.transactions[i].Date.Before(l.transactions[j].Date)
	})
}

// Transactions iterates the records passing the filter, in chronological
// order.
func (l *Ledger) Transactions(f TransactionFilter) iter.Seq[TransactionRecord] {
	return func(yield func(TransactionRecord) bool) {
		for _, t := range l.transactions {
			if !f.matches(t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Earliest returns the date of the first record passing the filter.
func (l *Ledger) Earliest(f TransactionFilter) (Date, bool) {
	for t := range l.Transactions(f) {
		return t.Date, true
	}
	return Date{}, false
}

// Owners returns the distinct owners appearing in the ledger, in first-seen
// order.
func (l *Ledger) Owners() []string {
	seen := make(map[string]bool)
	var owners []string
	for _, t := range l.transactions {
		if !seen[t.Owner] {
			seen[t.Owner] = true
			owners = append(owners, t.Owner)
		}
	}
	return owners
}

// Accounts returns the distinct accounts an owner has transacted in, in
// first-seen order. An empty owner matches all owners.
func (l *Ledger) Accounts(owner string) []string {
	seen := make(map[string]bool)
	var accounts []string
	for _, t := range l.transactions {
		if owner != "" && t.Owner != owner {
			continue
		}
		if !seen[t.Account] {
			seen[t.Account] = true
			accounts = append(accounts, t.Account)
		}
	}
	return accounts
}

// TransactionSource is the read capability the valuation engine needs over
// the transaction ledger.
type TransactionSource interface {
	Transactions(f TransactionFilter) iter.Seq[TransactionRecord]
	Earliest(f TransactionFilter) (Date, bool)
}

var _ TransactionSource = (*Ledger)(nil)
