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

type reportCmd struct {
	owner    string
	accounts string
	date     string
	segments bool
	live     bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "report annualized rates of return" }
func (*reportCmd) Usage() string {
	return `report [-o <owner>] [-a <accounts>] [-d <date>] [-segments] [-live]

  Reports the money-weighted annualized rate of return over the four standard
  windows: year to date, trailing year, trailing five years, and all time.
  With -segments, adds a per-asset-class breakdown. With -live, values
  mark-to-market positions at their latest exchange quote.
  When an inflation index is available, each window is compared to the
  inflation of its own span.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "o", "", "Owner to report on")
	f.StringVar(&c.accounts, "a", "", "Comma-separated list of accounts. Defaults to all.")
	f.StringVar(&c.date, "d", returns.Today().String(), "Report date (YYYY-MM-DD)")
	f.BoolVar(&c.segments, "segments", false, "Add a per-asset-class breakdown")
	f.BoolVar(&c.live, "live", false, "Value mark-to-market positions at their latest quote")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	today, err := returns.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	securities, err := loadSecurities()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading securities: %v\n", err)
		return subcommands.ExitFailure
	}
	valuations, err := loadValuations()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading valuations: %v\n", err)
		return subcommands.ExitFailure
	}

	var accounts []string
	if c.accounts != "" {
		accounts = strings.Split(c.accounts, ",")
	}
	points := valuations.AccountSeries(returns.ValuationFilter{
		Owner:    c.owner,
		Accounts: accounts,
	})

	agg := returns.Aggregator{Points: points, Today: today}
	if c.live {
		quoter := &returns.TradegateQuoter{}
		agg.Live = returns.LiveHoldingValue(valuations, securities, quoter, c.owner, today)
	}

	report := agg.Historical()
	report.Owner = c.owner
	if index, err := loadInflation(); err == nil && index.Len() > 0 {
		report.Inflation = returns.CompareInflation(index, today)
	}
	printMarkdown(renderer.PerformanceMarkdown(&report))

	if c.segments {
		segments := returns.SegmentedPerformance(valuations, securities, c.owner, returns.Range{}, today)
		printMarkdown(renderer.SegmentsMarkdown(segments))
	}
	return subcommands.ExitSuccess
}
