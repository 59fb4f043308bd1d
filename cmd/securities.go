package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/mseiler/returns"
)

type declareCmd struct {
	ticker       string
	name         string
	currency     string
	kind         string
	markToMarket bool
	accrues      bool
	rate         float64
}

func (*declareCmd) Name() string     { return "declare-security" }
func (*declareCmd) Synopsis() string { return "declare a security for use within the ledger" }
func (*declareCmd) Usage() string {
	return `declare-security -ticker <ticker> -currency <currency> -kind <kind> [-mtm] [-accrues -rate <percent>]

  Declares a security before its first use in a transaction. Mark-to-market
  securities are valued by quantity held times recorded price; accruing
  securities treat interest and match records as internal accrual.
`
}

func (c *declareCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Ticker to define (e.g. 'ACME')")
	f.StringVar(&c.name, "name", "", "Human readable name")
	f.StringVar(&c.currency, "currency", "EUR", "Currency of the security")
	f.StringVar(&c.kind, "kind", "", "Asset class: savings, stock, stock-etf, bond, bond-etf or pension")
	f.BoolVar(&c.markToMarket, "mtm", false, "Value the position as quantity times market price")
	f.BoolVar(&c.accrues, "accrues", false, "Interest and match records accrue inside the position")
	f.Float64Var(&c.rate, "rate", 0, "Annual interest rate for accruing securities, in percent")
}

func (c *declareCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.kind == "" {
		fmt.Fprintln(os.Stderr, "Error: -ticker and -kind flags are required.")
		return subcommands.ExitUsageError
	}
	kind, err := returns.ParseSecurityKind(c.kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	book, err := loadSecurities()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading securities: %v\n", err)
		return subcommands.ExitFailure
	}
	if book.Has(c.ticker) {
		fmt.Fprintf(os.Stderr, "Error: ticker %q is already declared.\n", c.ticker)
		return subcommands.ExitFailure
	}

	sec := returns.NewSecurity(c.ticker, c.name, c.currency, kind)
	if c.markToMarket {
		sec.MarkToMarket()
	}
	if c.accrues {
		sec.AccumulateInterest(returns.Percent(c.rate))
	}
	book.Add(sec)

	if err := saveSecurities(book); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving securities: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Declared security %q (%s)\n", c.ticker, kind)
	return subcommands.ExitSuccess
}

type priceCmd struct {
	ticker string
	date   string
	value  float64
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "record a historical price observation" }
func (*priceCmd) Usage() string {
	return `price -ticker <ticker> -value <price> [-d <date>]

  Records the value of one unit of a security on a date. An existing
  observation on the same date is overwritten.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Ticker of the security")
	f.StringVar(&c.date, "d", returns.Today().String(), "Observation date (YYYY-MM-DD)")
	f.Float64Var(&c.value, "value", 0, "Price of one unit")
}

func (c *priceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.value <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -ticker and a positive -value are required.")
		return subcommands.ExitUsageError
	}
	day, err := returns.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	book, err := loadSecurities()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading securities: %v\n", err)
		return subcommands.ExitFailure
	}
	sec := book.Security(c.ticker)
	if sec == nil {
		fmt.Fprintf(os.Stderr, "Error: unknown ticker %q, declare it first.\n", c.ticker)
		return subcommands.ExitFailure
	}
	sec.RecordPrice(day, c.value)

	if err := saveSecurities(book); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving securities: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s = %v on %s\n", c.ticker, c.value, day)
	return subcommands.ExitSuccess
}
