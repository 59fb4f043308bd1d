package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/mseiler/returns"
)

type importCmd struct {
	mappingFile string
	account     string
	owner       string
	dryRun      bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a broker's JSON export" }
func (*importCmd) Usage() string {
	return `import -mapping <mapping.json> [-a <account>] [-o <owner>] [-n] <export.json>

  Imports transactions from a raw broker export. The mapping file describes
  where each transaction field lives inside the export, as JSONPath
  expressions, for example:

    {"rows": "$.transactions[*]", "date": "$.bookingDate",
     "amount": "$.amount.value", "currency": "$.amount.unit",
     "security": "$.isin", "defaultKind": "buy"}

  With -n, prints the parsed transactions without appending them.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mappingFile, "mapping", "", "Path to the JSONPath mapping file")
	f.StringVar(&c.account, "a", "", "Account to stamp on every imported record")
	f.StringVar(&c.owner, "o", "", "Owner to stamp on every imported record")
	f.BoolVar(&c.dryRun, "n", false, "Parse and print, do not append to the ledger")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.mappingFile == "" || f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: -mapping and exactly one export file are required.")
		return subcommands.ExitUsageError
	}

	mdata, err := os.ReadFile(c.mappingFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading mapping file: %v\n", err)
		return subcommands.ExitFailure
	}
	var jm struct {
		Rows        string `json:"rows"`
		Date        string `json:"date"`
		Kind        string `json:"kind"`
		Security    string `json:"security"`
		Quantity    string `json:"quantity"`
		Amount      string `json:"amount"`
		Currency    string `json:"currency"`
		Tax         string `json:"tax"`
		Expense     string `json:"expense"`
		DefaultKind string `json:"defaultKind"`
	}
	if err := json.Unmarshal(mdata, &jm); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing mapping file: %v\n", err)
		return subcommands.ExitFailure
	}
	mapping := returns.BrokerMapping{
		Rows:     jm.Rows,
		Date:     jm.Date,
		Kind:     jm.Kind,
		Security: jm.Security,
		Quantity: jm.Quantity,
		Amount:   jm.Amount,
		Currency: jm.Currency,
		Tax:      jm.Tax,
		Expense:  jm.Expense,
		Account:  c.account,
		Owner:    c.owner,
	}
	if jm.DefaultKind != "" {
		if mapping.DefaultKind, err = returns.ParseTransactionKind(jm.DefaultKind); err != nil {
			fmt.Fprintf(os.Stderr, "Error in mapping file: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	export, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening export file: %v\n", err)
		return subcommands.ExitFailure
	}
	defer export.Close()

	records, err := returns.ImportTransactions(export, mapping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.dryRun {
		for _, t := range records {
			fmt.Println(t)
		}
		return subcommands.ExitSuccess
	}
	for _, t := range records {
		if status := appendTransaction(t); status != subcommands.ExitSuccess {
			return status
		}
	}
	fmt.Printf("Imported %d transactions\n", len(records))
	return subcommands.ExitSuccess
}
