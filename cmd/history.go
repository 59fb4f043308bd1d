package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/mseiler/returns"
	"github.com/mseiler/returns/renderer"
)

type historyCmd struct {
	owner     string
	accounts  string
	security  string
	start     string
	end       string
	quarterly bool
	head      int
	tail      int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list transactions or quarterly cashflows" }
func (*historyCmd) Usage() string {
	return `history [-o <owner>] [-a <accounts>] [-s <ticker>] [-from <date>] [-to <date>] [-quarterly] [-head <n>] [-tail <n>]

  Lists transactions from the ledger, with options for filtering and limiting
  the output. With -quarterly, sums external cashflows per calendar quarter
  instead; quarters with no activity show a zero.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "o", "", "Owner to list")
	f.StringVar(&c.accounts, "a", "", "Comma-separated list of accounts. Defaults to all.")
	f.StringVar(&c.security, "s", "", "Ticker to list. Defaults to all.")
	f.StringVar(&c.start, "from", "", "Start date of the listing")
	f.StringVar(&c.end, "to", "", "End date of the listing")
	f.BoolVar(&c.quarterly, "quarterly", false, "Sum external cashflows per calendar quarter")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	filter := returns.TransactionFilter{Owner: c.owner}
	if c.accounts != "" {
		filter.Accounts = strings.Split(c.accounts, ",")
	}
	if c.security != "" {
		filter.Securities = []string{c.security}
	}
	var err error
	if c.start != "" {
		if filter.Range.From, err = returns.ParseDate(c.start); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.end != "" {
		if filter.Range.To, err = returns.ParseDate(c.end); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	ledger, err := loadLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.quarterly {
		securities, err := loadSecurities()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading securities: %v\n", err)
			return subcommands.ExitFailure
		}
		flows := returns.QuarterlyCashflows(ledger, securities, filter)
		printMarkdown(renderer.QuarterlyMarkdown(flows))
		return subcommands.ExitSuccess
	}

	var transactions []returns.TransactionRecord
	for t := range ledger.Transactions(filter) {
		transactions = append(transactions, t)
	}
	if c.head > 0 && len(transactions) > c.head {
		transactions = transactions[:c.head]
	}
	if c.tail > 0 && len(transactions) > c.tail {
		transactions = transactions[len(transactions)-c.tail:]
	}

	printMarkdown(renderer.TransactionsMarkdown(transactions))
	return subcommands.ExitSuccess
}
