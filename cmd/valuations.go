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

type valuationsCmd struct {
	owner    string
	accounts string
	security string
	start    string
	end      string
}

func (*valuationsCmd) Name() string     { return "valuations" }
func (*valuationsCmd) Synopsis() string { return "list valuation checkpoints" }
func (*valuationsCmd) Usage() string {
	return `valuations [-o <owner>] [-a <accounts>] [-s <ticker>] [-from <date>] [-to <date>]

  Lists the valuation checkpoints computed by 'revalue', summed per date.
  With -s, lists the checkpoints of a single security; otherwise the account
  checkpoints are listed.
`
}

func (c *valuationsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "o", "", "Owner to list")
	f.StringVar(&c.accounts, "a", "", "Comma-separated list of accounts. Defaults to all.")
	f.StringVar(&c.security, "s", "", "Ticker to list checkpoints for")
	f.StringVar(&c.start, "from", "", "Start date of the listing")
	f.StringVar(&c.end, "to", "", "End date of the listing")
}

func (c *valuationsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filter := returns.ValuationFilter{Owner: c.owner}
	if c.accounts != "" {
		filter.Accounts = strings.Split(c.accounts, ",")
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

	book, err := loadValuations()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading valuations: %v\n", err)
		return subcommands.ExitFailure
	}

	title := "Account valuations"
	var points returns.ValuationSeries
	if c.security != "" {
		filter.Securities = []string{c.security}
		title = fmt.Sprintf("Valuations of %s", c.security)
		points = book.SecuritySeries(filter)
	} else {
		points = book.AccountSeries(filter)
	}

	printMarkdown(renderer.ValuationsMarkdown(title, points))
	return subcommands.ExitSuccess
}
