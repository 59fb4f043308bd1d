package returns

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// This file contains functions to handle the import/export format, and the
// import of raw broker exports. The import/export format remains human
// readable, single file, and easy to merge into a database.

// BrokerMapping describes where each transaction field lives inside a
// broker's JSON export, as JSONPath expressions. Rows selects the list of raw
// records; the field paths are evaluated against each row. An empty field
// path leaves the field at its zero value.
type BrokerMapping struct {
	Rows     string
	Date     string
	Kind     string
	Security string
	Quantity string
	Amount   string
	Currency string
	Tax      string
	Expense  string

	// DefaultKind applies when the Kind path is empty or yields nothing.
	DefaultKind TransactionKind
	// Account and Owner stamp every imported record; broker exports rarely
	// carry them.
	Account string
	Owner   string
}

// ImportTransactions parses a broker's JSON export according to the mapping
// and returns the transactions it contains.
func ImportTransactions(r io.Reader, m BrokerMapping) ([]TransactionRecord, error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("cannot parse broker export: %w", err)
	}

	jrows, err := jsonpath.Get(m.Rows, jobj)
	if err != nil {
		return nil, fmt.Errorf("cannot select rows with %q: %w", m.Rows, err)
	}
	rows, ok := jrows.([]any)
	if !ok {
		return nil, fmt.Errorf("path %q does not select a list", m.Rows)
	}

	records := make([]TransactionRecord, 0, len(rows))
	for i, row := range rows {
		t := TransactionRecord{Account: m.Account, Owner: m.Owner, Kind: m.DefaultKind}

		jdate, err := jpString(m.Date, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if t.Date, err = ParseDate(jdate); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		if m.Kind != "" {
			jkind, err := jpString(m.Kind, row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			if t.Kind, err = ParseTransactionKind(jkind); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}

		if m.Security != "" {
			if t.Security, err = jpString(m.Security, row); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}

		currency := ""
		if m.Currency != "" {
			if currency, err = jpString(m.Currency, row); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}

		amount, err := jpFloat(m.Amount, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		t.Cashflow = M(amount, currency)

		if m.Quantity != "" {
			q, err := jpFloat(m.Quantity, row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			t.Quantity = Q(q)
		}
		if m.Tax != "" {
			v, err := jpFloat(m.Tax, row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			t.Tax = M(v, currency)
		}
		if m.Expense != "" {
			v, err := jpFloat(m.Expense, row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			t.Expense = M(v, currency)
		}
		records = append(records, t)
	}
	return records, nil
}

// jpGet evaluates a JSONPath expression against a row. Because jsonpath is
// never clear about whether it returns a list of one answer or a single
// answer, a list of one is unwrapped.
func jpGet(path string, row any) (any, error) {
	jval, err := jsonpath.Get(path, row)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	return jval, nil
}

func jpString(path string, row any) (string, error) {
	jval, err := jpGet(path, row)
	if err != nil {
		return "", err
	}
	s, ok := jval.(string)
	if !ok {
		return "", fmt.Errorf("path %q: not a string: %v", path, jval)
	}
	return s, nil
}

// jpFloat reads a number, tolerating broker exports that format numbers as
// strings with comma decimal separators.
func jpFloat(path string, row any) (float64, error) {
	jval, err := jpGet(path, row)
	if err != nil {
		return 0, err
	}
	if val, ok := jval.(float64); ok {
		return val, nil
	}
	sval, ok := jval.(string)
	if !ok {
		return 0, fmt.Errorf("path %q: neither a float nor a string: %v", path, jval)
	}
	sval = strings.ReplaceAll(sval, ",", ".")
	sval = strings.ReplaceAll(sval, " ", "")
	val, err := strconv.ParseFloat(sval, 64)
	if err != nil {
		return 0, fmt.Errorf("path %q: invalid number %q: %w", path, sval, err)
	}
	return val, nil
}

// ImportSecurities imports securities from 'r' in the import/export format.
//
// The format is a JSONL file, where each line is a JSON object holding the
// security definition and a 'history' object mapping dates to prices.
func ImportSecurities(r io.Reader) (*SecurityBook, error) {
	type jsecurity struct {
		Ticker              string             `json:"ticker"`
		Name                string             `json:"name,omitempty"`
		Currency            string             `json:"currency"`
		Kind                string             `json:"kind"`
		MarkToMarket        bool               `json:"markToMarket,omitempty"`
		AccumulatesInterest bool               `json:"accumulatesInterest,omitempty"`
		InterestRate        float64            `json:"interestRate,omitempty"`
		History             map[string]float64 `json:"history"`
	}

	book := NewSecurityBook()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var js jsecurity
		if err := json.Unmarshal(line, &js); err != nil {
			return nil, fmt.Errorf("cannot parse line for security import format: %q: %w", string(line), err)
		}
		kind, err := ParseSecurityKind(js.Kind)
		if err != nil {
			return nil, fmt.Errorf("cannot parse line for security import format: %q: %w", string(line), err)
		}

		sec := NewSecurity(js.Ticker, js.Name, js.Currency, kind)
		if js.MarkToMarket {
			sec.MarkToMarket()
		}
		if js.AccumulatesInterest {
			sec.AccumulateInterest(Percent(js.InterestRate))
		}
		for day, value := range js.History {
			on, err := ParseDate(day)
			if err != nil {
				return nil, fmt.Errorf("cannot parse history date for %q: %w", js.Ticker, err)
			}
			sec.RecordPrice(on, value)
		}
		book.Add(sec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading security import: %w", err)
	}
	return book, nil
}

// ExportSecurities exports the securities to 'w' in the import/export format,
// one security per line with its full price history inlined.
func ExportSecurities(w io.Writer, book *SecurityBook) error {
	for sec := range book.Securities() {
		var jw jsonObjectWriter
		jw.Append("ticker", sec.Ticker())
		jw.Optional("name", sec.Name())
		jw.Append("currency", sec.Currency())
		jw.Append("kind", sec.Kind())
		jw.Optional("markToMarket", sec.IsMarkToMarket())
		jw.Optional("accumulatesInterest", sec.IsAccumulatingInterest())
		jw.Optional("interestRate", float64(sec.InterestRate()))

		history := make(map[string]float64)
		for day, value := range sec.Prices() {
			history[day.String()] = value
		}
		jw.Append("history", history)

		data, err := jw.MarshalJSON()
		if err != nil {
			return fmt.Errorf("cannot marshal security %q: %w", sec.Ticker(), err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write security export: %w", err)
		}
	}
	return nil
}
