package returns

import (
	"errors"
	"fmt"
)

// Validate checks a record against the security catalog and the sign
// conventions of the ledger, and returns an error joining all failures.
func Validate(catalog SecurityCatalog, t TransactionRecord) error {
	var errs error

	if t.Security == "" {
		errs = errors.Join(errs, fmt.Errorf("missing security ticker"))
	}
	if t.Account == "" {
		errs = errors.Join(errs, fmt.Errorf("missing account"))
	}
	if t.Date.IsZero() {
		errs = errors.Join(errs, fmt.Errorf("missing date"))
	}

	sec := catalog.Security(t.Security)
	if sec == nil {
		errs = errors.Join(errs, fmt.Errorf("security %q is not declared", t.Security))
	}

	switch t.Kind {
	case Buy:
		if !t.Cashflow.IsNegative() {
			errs = errors.Join(errs, fmt.Errorf("a buy must have a negative cashflow, got %s", t.Cashflow))
		}
		if t.Quantity.IsNegative() {
			errs = errors.Join(errs, fmt.Errorf("a buy cannot remove units, got %s", t.Quantity))
		}
		if sec != nil && sec.IsMarkToMarket() && t.Quantity.IsZero() {
			errs = errors.Join(errs, fmt.Errorf("a buy of mark-to-market security %q needs a quantity", t.Security))
		}
	case Sell:
		if !t.Cashflow.IsPositive() {
			errs = errors.Join(errs, fmt.Errorf("a sell must have a positive cashflow, got %s", t.Cashflow))
		}
		if t.Quantity.IsPositive() {
			errs = errors.Join(errs, fmt.Errorf("a sell cannot add units, got %s", t.Quantity))
		}
	case Interest, Dividend, Match:
		if t.Cashflow.IsNegative() {
			errs = errors.Join(errs, fmt.Errorf("a %s must have a positive cashflow, got %s", t.Kind, t.Cashflow))
		}
	case WriteDown:
		// The amount lost is recorded positive; it lowers the position value
		// without touching the invested base.
		if !t.Cashflow.IsPositive() {
			errs = errors.Join(errs, fmt.Errorf("a write-down must record the amount lost as a positive cashflow, got %s", t.Cashflow))
		}
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown transaction kind %q", t.Kind))
	}

	if t.Kind == Match && (sec == nil || !sec.IsAccumulatingInterest()) {
		errs = errors.Join(errs, fmt.Errorf("a match is only valid on an interest-accumulating security"))
	}
	if t.Tax.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("tax must be recorded as a positive amount, got %s", t.Tax))
	}
	if t.Expense.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("expense must be recorded as a positive amount, got %s", t.Expense))
	}

	return errs
}
