package returns

import (
	"sort"
	"time"
)

// Walker recomputes valuation checkpoints from the transaction ledger. It
// walks the checkpoint schedule (the 15th and the last day of every month)
// from the owner's watermark up to today, replaying transactions into
// per-position running state and upserting one checkpoint per position per
// date. Running it twice over the same span produces identical checkpoints.
type Walker struct {
	Transactions TransactionSource
	Securities   SecurityCatalog
	Store        SnapshotStore
	// Today bounds the walk; checkpoints are never computed in the future.
	Today Date

	// now stamps the Modified field of upserted checkpoints, time.Now unless
	// overridden in tests.
	now func() time.Time
}

// positionState is the running state of one position between checkpoints.
type positionState struct {
	quantity     Quantity
	base         Money
	value        Money
	markToMarket bool
	active       bool
	everActive   bool
	// closed marks that the closing checkpoint of a flat position has been
	// stored already.
	closed bool
}

// apply folds one transaction into the position state.
//
// Base tracks net external cash put into the position, so it moves opposite
// to the cashflow sign: a buy (negative cashflow) raises it. Internal accrual
// and write-downs involve no external cash and leave it untouched. A
// write-down records the amount lost as a positive cashflow.
func (st *positionState) apply(t TransactionRecord, sec *Security) {
	st.active, st.everActive = true, true
	st.closed = false

	internal := sec != nil && sec.isInternalAccrual(t.Kind)
	if !internal && t.Kind != WriteDown {
		st.base = st.base.Sub(t.Cashflow)
	}

	switch {
	case st.markToMarket:
		st.quantity = st.quantity.Add(t.Quantity)
	case internal:
		st.value = st.value.Add(t.Cashflow)
	default:
		st.value = st.value.Sub(t.Cashflow.Sub(t.Tax).Sub(t.Expense))
	}
}

func (w *Walker) modified() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

// Run recomputes all pending checkpoints for an owner and advances the
// watermark to the last checkpoint date processed.
func (w *Walker) Run(owner string) {
	end := w.Today.LastBucket()
	watermark := w.Store.Watermark(owner)
	if !watermark.Before(end) {
		return
	}

	w.securityPass(owner, watermark, end)
	w.accountPass(owner, watermark, end)
	w.Store.SetWatermark(owner, end)
}

// securityPass resumes per-security state from the checkpoints stored at the
// watermark and walks forward from there.
func (w *Walker) securityPass(owner string, watermark, end Date) {
	states := make(map[string]*positionState)
	for _, v := range w.Store.SecurityValuationsAsOf(owner, watermark) {
		st := &positionState{
			quantity:     v.Quantity,
			base:         v.Base,
			value:        v.Value,
			markToMarket: w.isMarkToMarket(v.Security),
			everActive:   true,
		}
		if st.markToMarket {
			st.active = st.quantity.IsPositive()
		} else {
			st.active = st.value.IsPositive()
		}
		st.closed = !st.active && st.base.IsZero()
		states[v.Security] = st
	}

	var pending []TransactionRecord
	for t := range w.Transactions.Transactions(TransactionFilter{
		Owner: owner,
		Range: Range{From: watermark.Add(1), To: end},
	}) {
		pending = append(pending, t)
	}

	start := nextBucketAfter(watermark)
	if len(pending) == 0 && len(states) == 0 {
		return
	}
	if watermark == DistantPast && len(pending) > 0 {
		start = pending[0].Date.BucketAt()
	}

	next := 0
	for bucket := start; !bucket.After(end); bucket = bucket.NextBucket() {
		for next < len(pending) && !pending[next].Date.After(bucket) {
			t := pending[next]
			next++
			st, ok := states[t.Security]
			if !ok {
				st = &positionState{markToMarket: w.isMarkToMarket(t.Security)}
				states[t.Security] = st
			}
			st.apply(t, w.Securities.Security(t.Security))
		}
		for _, ticker := range sortedKeys(states) {
			st := states[ticker]
			if !st.everActive {
				continue
			}
			w.checkpoint(ticker, st, bucket)
			// A position that goes flat is emitted once more: the stored
			// state must show it closed for the next resume.
			if !st.active && st.base.IsZero() && st.closed {
				continue
			}
			w.Store.UpsertSecurityValuation(SecurityValuation{
				Date:     bucket,
				Security: ticker,
				Owner:    owner,
				Value:    st.value,
				Base:     st.base,
				Quantity: st.quantity,
				Modified: w.modified(),
			})
			st.closed = !st.active && st.base.IsZero()
		}
	}
}

// accountPass replays the whole ledger from inception. Per-account state
// cannot be resumed from account checkpoints: an account mixes positions
// whose individual quantities are not stored at the account level.
func (w *Walker) accountPass(owner string, watermark, end Date) {
	type positionKey struct{ security, account string }
	states := make(map[positionKey]*positionState)

	var pending []TransactionRecord
	for t := range w.Transactions.Transactions(TransactionFilter{
		Owner: owner,
		Range: Range{To: end},
	}) {
		pending = append(pending, t)
	}
	if len(pending) == 0 {
		return
	}

	next := 0
	for bucket := pending[0].Date.BucketAt(); !bucket.After(end); bucket = bucket.NextBucket() {
		for next < len(pending) && !pending[next].Date.After(bucket) {
			t := pending[next]
			next++
			key := positionKey{t.Security, t.Account}
			st, ok := states[key]
			if !ok {
				st = &positionState{markToMarket: w.isMarkToMarket(t.Security)}
				states[key] = st
			}
			st.apply(t, w.Securities.Security(t.Security))
		}
		if !bucket.After(watermark) {
			continue
		}

		type accountTotal struct {
			value, base Money
			active      bool
		}
		totals := make(map[string]*accountTotal)
		for key, st := range states {
			if !st.everActive {
				continue
			}
			w.checkpoint(key.security, st, bucket)
			if !st.active && st.base.IsZero() {
				continue
			}
			total, ok := totals[key.account]
			if !ok {
				total = &accountTotal{}
				totals[key.account] = total
			}
			total.value = total.value.Add(st.value)
			total.base = total.base.Add(st.base)
			total.active = total.active || st.active
		}
		for _, account := range sortedKeys(totals) {
			total := totals[account]
			if !total.active && total.base.IsZero() {
				continue
			}
			w.Store.UpsertAccountValuation(AccountValuation{
				Date:     bucket,
				Account:  account,
				Owner:    owner,
				Value:    total.value,
				Base:     total.base,
				Modified: w.modified(),
			})
		}
	}
}

// checkpoint marks a position to market at the checkpoint date and updates
// its active flag. A mark-to-market position with no recorded price values at
// zero; once its quantity is no longer positive it goes inactive and its
// value is zeroed. Any other position goes inactive once its value is no
// longer positive.
func (w *Walker) checkpoint(ticker string, st *positionState, bucket Date) {
	if st.markToMarket {
		price := w.Securities.HistoricalPrice(ticker, bucket)
		st.value = price.Mul(st.quantity)
		if !st.quantity.IsPositive() {
			st.active = false
			st.value = M(0, st.value.Currency())
		}
		return
	}
	if !st.value.IsPositive() {
		st.active = false
	}
}

func (w *Walker) isMarkToMarket(ticker string) bool {
	sec := w.Securities.Security(ticker)
	return sec != nil && sec.IsMarkToMarket()
}

// nextBucketAfter returns the first checkpoint date strictly after 'on'.
func nextBucketAfter(on Date) Date { return on.Add(1).BucketAt() }

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
