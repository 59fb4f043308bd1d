package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/mseiler/returns"
)

// txFlags holds the flags shared by all transaction commands.
type txFlags struct {
	date     string
	security string
	account  string
	owner    string
	amount   float64
	currency string
	quantity float64
	tax      float64
	expense  float64
}

func (c *txFlags) setCommon(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", returns.Today().String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.security, "s", "", "Ticker of the security")
	f.StringVar(&c.account, "a", "", "Account holding the security")
	f.StringVar(&c.owner, "o", "", "Owner of the account")
	f.Float64Var(&c.amount, "amount", 0, "Amount of cash exchanged, as a positive number")
	f.StringVar(&c.currency, "c", "EUR", "Currency of the amount")
	f.Float64Var(&c.tax, "tax", 0, "Tax withheld, as a positive number")
	f.Float64Var(&c.expense, "expense", 0, "Fees and expenses, as a positive number")
}

// record validates the common flags and builds the base record. The cashflow
// sign is applied by each command.
func (c *txFlags) record(kind returns.TransactionKind) (returns.TransactionRecord, error) {
	if c.security == "" || c.account == "" {
		return returns.TransactionRecord{}, fmt.Errorf("-s and -a flags are required")
	}
	if c.amount <= 0 {
		return returns.TransactionRecord{}, fmt.Errorf("-amount must be a positive number")
	}
	day, err := returns.ParseDate(c.date)
	if err != nil {
		return returns.TransactionRecord{}, err
	}
	return returns.TransactionRecord{
		Date:     day,
		Kind:     kind,
		Security: c.security,
		Account:  c.account,
		Owner:    c.owner,
		Cashflow: returns.M(c.amount, c.currency),
		Tax:      returns.M(c.tax, c.currency),
		Expense:  returns.M(c.expense, c.currency),
	}, nil
}

type buyCmd struct{ txFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase of a security" }
func (*buyCmd) Usage() string {
	return `buy -s <ticker> -a <account> -amount <amount> [-q <quantity>] [-d <date>]

  Records a purchase. The amount is the cash spent; it leaves the owner, so it
  is stored as a negative cashflow.
`
}
func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	c.setCommon(f)
	f.Float64Var(&c.quantity, "q", 0, "Number of units bought")
}
func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, err := c.record(returns.Buy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	t.Cashflow = t.Cashflow.Neg()
	t.Quantity = returns.Q(c.quantity)
	return appendTransaction(t)
}

type sellCmd struct{ txFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale of a security" }
func (*sellCmd) Usage() string {
	return `sell -s <ticker> -a <account> -amount <amount> [-q <quantity>] [-d <date>]

  Records a sale. The amount is the cash received; the quantity leaves the
  position, so it is stored negative.
`
}
func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	c.setCommon(f)
	f.Float64Var(&c.quantity, "q", 0, "Number of units sold, as a positive number")
}
func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, err := c.record(returns.Sell)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	t.Quantity = returns.Q(-c.quantity)
	return appendTransaction(t)
}

type dividendCmd struct{ txFlags }

func (*dividendCmd) Name() string     { return "dividend" }
func (*dividendCmd) Synopsis() string { return "record a dividend payment" }
func (*dividendCmd) Usage() string {
	return `dividend -s <ticker> -a <account> -amount <amount> [-d <date>]

  Records a dividend paid by a security.
`
}
func (c *dividendCmd) SetFlags(f *flag.FlagSet) { c.setCommon(f) }
func (c *dividendCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, err := c.record(returns.Dividend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return appendTransaction(t)
}

type interestCmd struct {
	txFlags
	match    float64
	estimate bool
}

func (*interestCmd) Name() string     { return "interest" }
func (*interestCmd) Synopsis() string { return "record an interest payment" }
func (*interestCmd) Usage() string {
	return `interest -s <ticker> -a <account> (-amount <amount> | -estimate) [-match <percent>] [-d <date>]

  Records an interest payment. With -match, an employer-matching record worth
  the given percentage of the amount is appended alongside. With -estimate,
  the amount is computed from the security's configured annual rate,
  day-weighted over the balance since the last recorded interest payment.
`
}
func (c *interestCmd) SetFlags(f *flag.FlagSet) {
	c.setCommon(f)
	f.Float64Var(&c.match, "match", 0, "Employer matching, in percent of the amount")
	f.BoolVar(&c.estimate, "estimate", false, "Compute the amount from the security's annual rate")
}
func (c *interestCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.estimate {
		amount, err := c.estimateAmount()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error estimating interest: %v\n", err)
			return subcommands.ExitFailure
		}
		c.amount = amount
		fmt.Printf("Estimated interest: %.2f %s\n", amount, c.currency)
	}
	t, err := c.record(returns.Interest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if status := appendTransaction(t); status != subcommands.ExitSuccess {
		return status
	}
	if c.match > 0 {
		return appendTransaction(t.MatchOf(returns.Percent(c.match)))
	}
	return subcommands.ExitSuccess
}

// estimateAmount reconstructs the position balance from the ledger and
// accrues it at the security's annual rate since the last recorded interest
// payment.
func (c *interestCmd) estimateAmount() (float64, error) {
	book, err := loadSecurities()
	if err != nil {
		return 0, err
	}
	sec := book.Security(c.security)
	if sec == nil {
		return 0, fmt.Errorf("security %q is not declared", c.security)
	}
	if sec.InterestRate() == 0 {
		return 0, fmt.Errorf("security %q has no configured interest rate", c.security)
	}
	ledger, err := loadLedger()
	if err != nil {
		return 0, err
	}
	day, err := returns.ParseDate(c.date)
	if err != nil {
		return 0, err
	}

	var from returns.Date
	for t := range ledger.Transactions(returns.TransactionFilter{
		Owner:      c.owner,
		Securities: []string{c.security},
	}) {
		if t.Kind == returns.Interest && t.Date.After(from) {
			from = t.Date
		}
	}
	if !from.IsZero() {
		from = from.Add(1)
	}

	var accounts []string
	if c.account != "" {
		accounts = []string{c.account}
	}
	paid := returns.InterestPayment(ledger, sec,
		returns.TransactionFilter{Owner: c.owner, Accounts: accounts},
		returns.Range{From: from, To: day}, day)
	return paid.AsFloat(), nil
}

type writedownCmd struct{ txFlags }

func (*writedownCmd) Name() string     { return "writedown" }
func (*writedownCmd) Synopsis() string { return "record a loss of value without a cash movement" }
func (*writedownCmd) Usage() string {
	return `writedown -s <ticker> -a <account> -amount <amount> [-d <date>]

  Records that a position lost value without cash changing hands. The amount
  lowers the position value but leaves the invested base untouched.
`
}
func (c *writedownCmd) SetFlags(f *flag.FlagSet) { c.setCommon(f) }
func (c *writedownCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, err := c.record(returns.WriteDown)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return appendTransaction(t)
}
