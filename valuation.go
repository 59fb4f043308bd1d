package returns

import (
	"slices"
	"sort"
	"time"
)

// Valuation checkpoints are computed twice a month, on the 15th and on the
// last day of the month. They are upserted: recomputing a checkpoint that
// already exists replaces it in place, keyed by date, owner and position.

// SecurityValuation is the state of one security position at a checkpoint
// date.
type SecurityValuation struct {
	Date     Date
	Security string
	Owner    string
	// Value is what the position is worth at the checkpoint.
	Value Money
	// Base is the accumulated net external cashflow into the position. It is
	// the cost basis the performance windows measure gains against.
	Base     Money
	Quantity Quantity
	Modified time.Time
}

// AccountValuation is the aggregate state of all positions held in one
// account at a checkpoint date.
type AccountValuation struct {
	Date     Date
	Account  string
	Owner    string
	Value    Money
	Base     Money
	Modified time.Time
}

// SnapshotStore is the persistence capability the valuation engine writes
// checkpoints through. Upserts must be idempotent: re-running the engine over
// an already computed span leaves the store unchanged apart from timestamps.
type SnapshotStore interface {
	UpsertSecurityValuation(v SecurityValuation)
	UpsertAccountValuation(v AccountValuation)

	// SecurityValuationsAsOf returns, for each security the owner holds a
	// checkpoint for, the latest checkpoint at or before 'on'.
	SecurityValuationsAsOf(owner string, on Date) []SecurityValuation

	// Watermark returns the date up to which checkpoints are known complete
	// for this owner. Before any run it is DistantPast.
	Watermark(owner string) Date
	SetWatermark(owner string, on Date)
}

type securityValuationKey struct {
	on       Date
	security string
	owner    string
}

type accountValuationKey struct {
	on      Date
	account string
	owner   string
}

// ValuationBook is the in-memory snapshot store. It implements SnapshotStore.
type ValuationBook struct {
	securities map[securityValuationKey]SecurityValuation
	accounts   map[accountValuationKey]AccountValuation
	watermarks map[string]Date
}

// NewValuationBook returns an empty snapshot store.
func NewValuationBook() *ValuationBook {
	return &ValuationBook{
		securities: make(map[securityValuationKey]SecurityValuation),
		accounts:   make(map[accountValuationKey]AccountValuation),
		watermarks: make(map[string]Date),
	}
}

func (b *ValuationBook) UpsertSecurityValuation(v SecurityValuation) {
	b.securities[securityValuationKey{v.Date, v.Security, v.Owner}] = v
}

func (b *ValuationBook) UpsertAccountValuation(v AccountValuation) {
	b.accounts[accountValuationKey{v.Date, v.Account, v.Owner}] = v
}

func (b *ValuationBook) SecurityValuationsAsOf(owner string, on Date) []SecurityValuation {
	latest := make(map[string]SecurityValuation)
	for k, v := range b.securities {
		if k.owner != owner || k.on.After(on) {
			continue
		}
		if prev, ok := latest[k.security]; !ok || prev.Date.Before(k.on) {
			latest[k.security] = v
		}
	}
	out := make([]SecurityValuation, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Security < out[j].Security })
	return out
}

// Watermark returns the completion watermark for an owner, DistantPast when
// the owner has never been processed.
func (b *ValuationBook) Watermark(owner string) Date {
	if on, ok := b.watermarks[owner]; ok {
		return on
	}
	return DistantPast
}

func (b *ValuationBook) SetWatermark(owner string, on Date) { b.watermarks[owner] = on }

// SecurityValuations returns all security checkpoints passing the filter, in
// chronological order (ties broken by ticker).
func (b *ValuationBook) SecurityValuations(f ValuationFilter) []SecurityValuation {
	var out []SecurityValuation
	for k, v := range b.securities {
		if f.Owner != "" && k.owner != f.Owner {
			continue
		}
		if len(f.Securities) > 0 && !slices.Contains(f.Securities, k.security) {
			continue
		}
		if !f.Range.Contains(k.on) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Security < out[j].Security
	})
	return out
}

// AccountValuations returns all account checkpoints passing the filter, in
// chronological order (ties broken by account).
func (b *ValuationBook) AccountValuations(f ValuationFilter) []AccountValuation {
	var out []AccountValuation
	for k, v := range b.accounts {
		if f.Owner != "" && k.owner != f.Owner {
			continue
		}
		if len(f.Accounts) > 0 && !slices.Contains(f.Accounts, k.account) {
			continue
		}
		if !f.Range.Contains(k.on) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Account < out[j].Account
	})
	return out
}

// ValuationFilter selects a subset of checkpoints. Zero fields select
// everything.
type ValuationFilter struct {
	Owner      string
	Accounts   []string
	Securities []string
	Range      Range
}

// AccountSeries sums the matching account checkpoints per date into a single
// valuation series.
func (b *ValuationBook) AccountSeries(f ValuationFilter) ValuationSeries {
	points := make(map[Date]ValuationPoint)
	for _, v := range b.AccountValuations(f) {
		p := points[v.Date]
		p.Date = v.Date
		p.Value = p.Value.Add(v.Value)
		p.Base = p.Base.Add(v.Base)
		points[v.Date] = p
	}
	return sortedSeries(points)
}

// SecuritySeries sums the matching security checkpoints per date into a
// single valuation series.
func (b *ValuationBook) SecuritySeries(f ValuationFilter) ValuationSeries {
	points := make(map[Date]ValuationPoint)
	for _, v := range b.SecurityValuations(f) {
		p := points[v.Date]
		p.Date = v.Date
		p.Value = p.Value.Add(v.Value)
		p.Base = p.Base.Add(v.Base)
		points[v.Date] = p
	}
	return sortedSeries(points)
}

func sortedSeries(points map[Date]ValuationPoint) ValuationSeries {
	out := make(ValuationSeries, 0, len(points))
	for _, p := range points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

var _ SnapshotStore = (*ValuationBook)(nil)
