package returns

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// SecurityKind is the asset class of a security, used to segment performance
// reports.
type SecurityKind string

const (
	Savings  SecurityKind = "savings"
	Stock    SecurityKind = "stock"
	StockETF SecurityKind = "stock-etf"
	Bond     SecurityKind = "bond"
	BondETF  SecurityKind = "bond-etf"
	Pension  SecurityKind = "pension"
)

// ParseSecurityKind parses a string into a SecurityKind.
func ParseSecurityKind(s string) (SecurityKind, error) {
	switch SecurityKind(s) {
	case Savings, Stock, StockETF, Bond, BondETF, Pension:
		return SecurityKind(s), nil
	default:
		return "", fmt.Errorf("unknown security kind: %q", s)
	}
}

// ErrPriceUnavailable is returned when no live price is known for a security.
// Historical lookups never fail this way: they fall back to a zero price.
var ErrPriceUnavailable = errors.New("price unavailable")

// Security describes a single instrument held in an account.
type Security struct {
	ticker   string
	name     string
	currency string
	kind     SecurityKind

	// markToMarket securities are valued as quantity held times price; the
	// others track their value purely through accumulated cashflows.
	markToMarket bool
	// accumulatesInterest marks savings-type securities whose interest and
	// match records are internal accrual, not external cashflow.
	accumulatesInterest bool
	// interestRate is the configured annual rate used to compute interest
	// payments for accruing securities, in percent.
	interestRate Percent

	prices History[float64]
}

// NewSecurity creates a security definition.
func NewSecurity(ticker, name, currency string, kind SecurityKind) *Security {
	return &Security{ticker: ticker, name: name, currency: currency, kind: kind}
}

// MarkToMarket flags the security as valued by quantity held times market
// price.
func (s *Security) MarkToMarket() *Security { s.markToMarket = true; return s }

// AccumulateInterest flags the security as accruing interest internally, at
// the given annual rate.
func (s *Security) AccumulateInterest(rate Percent) *Security {
	s.accumulatesInterest = true
	s.interestRate = rate
	return s
}

func (s *Security) Ticker() string               { return s.ticker }
func (s *Security) Name() string                 { return s.name }
func (s *Security) Currency() string             { return s.currency }
func (s *Security) Kind() SecurityKind           { return s.kind }
func (s *Security) IsMarkToMarket() bool         { return s.markToMarket }
func (s *Security) IsAccumulatingInterest() bool { return s.accumulatesInterest }
func (s *Security) InterestRate() Percent        { return s.interestRate }

func (s *Security) String() string { return fmt.Sprintf("%s (%s)", s.ticker, s.name) }

// RecordPrice records a historical price observation. An existing observation
// on the same date is overwritten.
func (s *Security) RecordPrice(on Date, value float64) { s.prices.Append(on, value) }

// Prices iterates all recorded price observations in chronological order.
func (s *Security) Prices() iter.Seq2[Date, float64] { return s.prices.Values() }

// isInternalAccrual reports whether a transaction of this kind represents
// accrual inside the position rather than cash crossing the owner boundary.
func (s *Security) isInternalAccrual(kind TransactionKind) bool {
	return s.accumulatesInterest && (kind == Interest || kind == Match)
}

// SecurityCatalog is the read capability the valuation engine needs over
// security definitions and their prices.
type SecurityCatalog interface {
	// Security returns the definition for a ticker, or nil if unknown.
	Security(ticker string) *Security
	// Securities iterates all definitions in ticker order.
	Securities() iter.Seq[*Security]
	// HistoricalPrice returns the value of one unit on the most recent
	// observation at or before 'on'. When no observation exists it returns a
	// defined zero price, never an error.
	HistoricalPrice(ticker string, on Date) Money
	// CurrentPrice returns the latest known value of one unit, or
	// ErrPriceUnavailable when the security has no price record at all.
	CurrentPrice(ticker string) (Money, error)
}

// SecurityBook holds the set of known securities and their price histories.
// It implements SecurityCatalog.
type SecurityBook struct {
	securities []*Security
	index      map[string]*Security
}

// NewSecurityBook returns a new empty security collection.
func NewSecurityBook() *SecurityBook {
	return &SecurityBook{
		securities: make([]*Security, 0),
		index:      make(map[string]*Security),
	}
}

func (b *SecurityBook) Has(ticker string) bool {
	_, ok := b.index[ticker]
	return ok
}

// Security returns the security declared with this ticker, or nil if unknown.
func (b *SecurityBook) Security(ticker string) *Security { return b.index[ticker] }

// Add registers a security, keeping the collection sorted by ticker.
// Registering an already known ticker replaces the previous definition.
func (b *SecurityBook) Add(sec *Security) {
	if prev, ok := b.index[sec.ticker]; ok {
		i := slices.Index(b.securities, prev)
		b.securities[i] = sec
		b.index[sec.ticker] = sec
		return
	}
	b.securities = append(b.securities, sec)
	b.index[sec.ticker] = sec
	slices.SortFunc(b.securities, func(a, c *Security) int {
		return strings.Compare(a.ticker, c.ticker)
	})
}

// Securities iterates all securities in ticker order.
func (b *SecurityBook) Securities() iter.Seq[*Security] {
	return func(yield func(*Security) bool) {
		for _, sec := range b.securities {
			if !yield(sec) {
				return
			}
		}
	}
}

// HistoricalPrice returns the price of one unit as of 'on', falling back to
// the most recent earlier observation, and to zero when none exists.
func (b *SecurityBook) HistoricalPrice(ticker string, on Date) Money {
	sec, ok := b.index[ticker]
	if !ok {
		return M(0, "")
	}
	value, ok := sec.prices.ValueAsOf(on)
	if !ok {
		return M(0, sec.currency)
	}
	return M(value, sec.currency)
}

// CurrentPrice returns the latest recorded price of one unit.
func (b *SecurityBook) CurrentPrice(ticker string) (Money, error) {
	sec, ok := b.index[ticker]
	if !ok {
		return Money{}, fmt.Errorf("security %q: %w", ticker, ErrPriceUnavailable)
	}
	_, value, ok := sec.prices.Latest()
	if !ok {
		return Money{}, fmt.Errorf("security %q: %w", ticker, ErrPriceUnavailable)
	}
	return M(value, sec.currency), nil
}

var _ SecurityCatalog = (*SecurityBook)(nil)
