package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/mseiler/returns"
)

type revalueCmd struct {
	owner string
	date  string
}

func (*revalueCmd) Name() string     { return "revalue" }
func (*revalueCmd) Synopsis() string { return "recompute valuation checkpoints from the ledger" }
func (*revalueCmd) Usage() string {
	return `revalue [-o <owner>] [-d <date>]

  Walks the checkpoint schedule (the 15th and the last day of every month)
  from each owner's watermark up to the given date, replaying the ledger into
  valuation checkpoints. Running it twice is harmless: checkpoints are
  upserted in place.
`
}

func (c *revalueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "o", "", "Owner to revalue. Defaults to every owner in the ledger.")
	f.StringVar(&c.date, "d", returns.Today().String(), "Upper bound of the walk (YYYY-MM-DD)")
}

func (c *revalueCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	today, err := returns.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	ledger, err := loadLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
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

	owners := ledger.Owners()
	if c.owner != "" {
		owners = []string{c.owner}
	}

	walker := returns.Walker{
		Transactions: ledger,
		Securities:   securities,
		Store:        valuations,
		Today:        today,
	}
	for _, owner := range owners {
		walker.Run(owner)
		fmt.Printf("Revalued %q up to %s\n", owner, today.LastBucket())
	}

	if err := saveValuations(valuations); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving valuations: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
