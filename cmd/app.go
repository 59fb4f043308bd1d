// Package cmd implements the CLI application to record transactions and
// report rates of return.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/mseiler/returns"
)

// Register the subcommands. A main package calls Register() and then
// Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&declareCmd{}, "securities")
	c.Register(&priceCmd{}, "securities")

	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&dividendCmd{}, "transactions")
	c.Register(&interestCmd{}, "transactions")
	c.Register(&writedownCmd{}, "transactions")
	c.Register(&importCmd{}, "transactions")

	c.Register(&revalueCmd{}, "valuations")
	c.Register(&valuationsCmd{}, "valuations")

	c.Register(&reportCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")

	c.Register(&inseeCmd{}, "inflation")
}

// As a CLI application it has a very short lived lifecycle, so it is ok to
// use global variables for the shared flags.

var ledgerFile = flag.String("ledger-file", "transactions.jsonl", "Path to the ledger file (JSONL format)")
var securitiesFile = flag.String("securities-file", "securities.jsonl", "Path to the securities definition file (JSONL format)")
var pricesFile = flag.String("prices-file", "prices.jsonl", "Path to the historical prices file (JSONL format)")
var valuationsFile = flag.String("valuations-file", "valuations.jsonl", "Path to the valuation checkpoints file (JSONL format)")
var inflationFile = flag.String("inflation-file", "inflation.jsonl", "Path to the inflation index file (JSONL format)")

// loadLedger reads the app ledger file. A missing file yields an empty
// ledger.
func loadLedger() (*returns.Ledger, error) {
	f, err := os.Open(*ledgerFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, ledger file does not exist, starting from an empty ledger")
		return returns.NewLedger(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return returns.DecodeLedger(f)
}

// appendTransaction validates a record against the declared securities and
// appends it to the app ledger file.
func appendTransaction(t returns.TransactionRecord) subcommands.ExitStatus {
	book, err := loadSecurities()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading securities: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := returns.Validate(book, t); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid transaction:\n%v\n", err)
		return subcommands.ExitFailure
	}

	f, err := os.OpenFile(*ledgerFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger file %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}
	defer f.Close()

	if err := returns.EncodeTransaction(f, t); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing to ledger file %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Successfully appended transaction to %s\n", *ledgerFile)
	return subcommands.ExitSuccess
}

// loadSecurities reads the securities definitions and their prices. Missing
// files yield an empty book.
func loadSecurities() (*returns.SecurityBook, error) {
	f, err := os.Open(*securitiesFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, securities file does not exist, starting from an empty book")
		return returns.NewSecurityBook(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	book, err := returns.DecodeSecurities(f)
	if err != nil {
		return nil, err
	}

	p, err := os.Open(*pricesFile)
	if errors.Is(err, fs.ErrNotExist) {
		return book, nil
	}
	if err != nil {
		return nil, err
	}
	defer p.Close()
	if err := returns.DecodePrices(p, book); err != nil {
		return nil, err
	}
	return book, nil
}

// saveSecurities persists the definitions and prices back to their files.
func saveSecurities(book *returns.SecurityBook) error {
	f, err := os.Create(*securitiesFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := returns.EncodeSecurities(f, book); err != nil {
		return err
	}

	p, err := os.Create(*pricesFile)
	if err != nil {
		return err
	}
	defer p.Close()
	return returns.EncodePrices(p, book)
}

// loadValuations reads the checkpoint store. A missing file yields an empty
// book with watermarks at their default.
func loadValuations() (*returns.ValuationBook, error) {
	f, err := os.Open(*valuationsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return returns.NewValuationBook(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return returns.DecodeValuations(f)
}

func saveValuations(book *returns.ValuationBook) error {
	f, err := os.Create(*valuationsFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return returns.EncodeValuations(f, book)
}

func loadInflation() (*returns.InflationIndex, error) {
	f, err := os.Open(*inflationFile)
	if errors.Is(err, fs.ErrNotExist) {
		return returns.NewInflationIndex(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return returns.DecodeInflationIndex(f)
}

func saveInflation(index *returns.InflationIndex) error {
	f, err := os.Create(*inflationFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return returns.EncodeInflationIndex(f, index)
}

// printMarkdown renders a markdown string to the terminal.
func printMarkdown(source string) {
	out, err := glamour.Render(source, "auto")
	if err != nil {
		// Fall back to the raw markdown.
		fmt.Println(source)
		return
	}
	fmt.Print(out)
}
