package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/mseiler/returns"
	"github.com/mseiler/returns/insee"
)

type inseeCmd struct {
	idBank string
	start  string
	end    string
}

func (*inseeCmd) Name() string     { return "fetch-inflation" }
func (*inseeCmd) Synopsis() string { return "download consumer price index observations from INSEE" }
func (*inseeCmd) Usage() string {
	return `fetch-inflation [-id <idBank>] [-from <date>] [-to <date>]

  Downloads a price index series from the INSEE statistics service and merges
  it into the inflation index file. The default series is the French
  all-households consumer price index.
`
}

func (c *inseeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.idBank, "id", insee.ConsumerPriceIndex, "INSEE idBank of the series")
	f.StringVar(&c.start, "from", "", "Start of the requested span")
	f.StringVar(&c.end, "to", "", "End of the requested span")
}

func (c *inseeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var r returns.Range
	var err error
	if c.start != "" {
		if r.From, err = returns.ParseDate(c.start); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.end != "" {
		if r.To, err = returns.ParseDate(c.end); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	fetched, err := insee.FetchIndex(c.idBank, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching index: %v\n", err)
		return subcommands.ExitFailure
	}

	index, err := loadInflation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading inflation index: %v\n", err)
		return subcommands.ExitFailure
	}
	for on, level := range fetched.Levels() {
		index.Record(on, level)
	}

	if err := saveInflation(index); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving inflation index: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Merged %d observations into %s\n", fetched.Len(), *inflationFile)
	return subcommands.ExitSuccess
}
