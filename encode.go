package returns

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Persistence is JSONL throughout: one record per line, human-readable and
// git-friendly. Keys are written in a fixed order so that re-encoding an
// unchanged book produces an identical file.

// DecodeLedger decodes transactions from a JSONL stream and returns a
// chronologically sorted ledger.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	type jtransaction struct {
		jamount
		Date     Date            `json:"date"`
		Kind     string          `json:"kind"`
		Security string          `json:"security"`
		Quantity Quantity        `json:"quantity"`
		Tax      decimal.Decimal `json:"tax"`
		Expense  decimal.Decimal `json:"expense"`
		Account  string          `json:"account"`
		Owner    string          `json:"owner"`
	}

	ledger := NewLedger()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var jt jtransaction
		if err := json.Unmarshal(raw, &jt); err != nil {
			return nil, fmt.Errorf("format error on ledger line %d: %w", line, err)
		}
		kind, err := ParseTransactionKind(jt.Kind)
		if err != nil {
			return nil, fmt.Errorf("format error on ledger line %d: %w", line, err)
		}
		ledger.Append(TransactionRecord{
			Date:     jt.Date,
			Kind:     kind,
			Security: jt.Security,
			Quantity: jt.Quantity,
			Cashflow: jt.Money(),
			Tax:      M(jt.Tax, jt.Currency),
			Expense:  M(jt.Expense, jt.Currency),
			Account:  jt.Account,
			Owner:    jt.Owner,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ledger: %w", err)
	}
	return ledger, nil
}

// EncodeTransaction marshals a single record and writes it followed by a
// newline.
func EncodeTransaction(w io.Writer, t TransactionRecord) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("cannot marshal transaction %s: %w", t, err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("cannot write transaction: %w", err)
	}
	return nil
}

// EncodeLedger persists the whole ledger in chronological order, one record
// per line.
func EncodeLedger(w io.Writer, ledger *Ledger) error {
	for t := range ledger.Transactions(TransactionFilter{}) {
		if err := EncodeTransaction(w, t); err != nil {
			return err
		}
	}
	return nil
}

// jsecurity is the persisted form of a security definition.
type jsecurity struct {
	Ticker              string  `json:"ticker"`
	Name                string  `json:"name,omitempty"`
	Currency            string  `json:"currency"`
	Kind                string  `json:"kind"`
	MarkToMarket        bool    `json:"markToMarket,omitempty"`
	AccumulatesInterest bool    `json:"accumulatesInterest,omitempty"`
	InterestRate        float64 `json:"interestRate,omitempty"`
}

// DecodeSecurities parses a JSONL stream of security definitions.
func DecodeSecurities(r io.Reader) (*SecurityBook, error) {
	book := NewSecurityBook()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var js jsecurity
		if err := json.Unmarshal(raw, &js); err != nil {
			return nil, fmt.Errorf("format error on securities line %d: %w", line, err)
		}
		kind, err := ParseSecurityKind(js.Kind)
		if err != nil {
			return nil, fmt.Errorf("format error on securities line %d: %w", line, err)
		}
		if book.Has(js.Ticker) {
			return nil, fmt.Errorf("format error on securities line %d: ticker %q is already defined", line, js.Ticker)
		}
		sec := NewSecurity(js.Ticker, js.Name, js.Currency, kind)
		if js.MarkToMarket {
			sec.MarkToMarket()
		}
		if js.AccumulatesInterest {
			sec.AccumulateInterest(Percent(js.InterestRate))
		}
		book.Add(sec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading securities: %w", err)
	}
	return book, nil
}

// EncodeSecurities persists the security definitions in ticker order.
func EncodeSecurities(w io.Writer, book *SecurityBook) error {
	for sec := range book.Securities() {
		js := jsecurity{
			Ticker:              sec.Ticker(),
			Name:                sec.Name(),
			Currency:            sec.Currency(),
			Kind:                string(sec.Kind()),
			MarkToMarket:        sec.IsMarkToMarket(),
			AccumulatesInterest: sec.IsAccumulatingInterest(),
			InterestRate:        float64(sec.InterestRate()),
		}
		data, err := json.Marshal(js)
		if err != nil {
			return fmt.Errorf("cannot marshal security %q: %w", sec.Ticker(), err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write security %q: %w", sec.Ticker(), err)
		}
	}
	return nil
}

const attrOn = "on"

// DecodePrices reads price lines of the form {"on":"2024-01-15","ACME":12.3}
// into an existing security book. Tickers must already be defined.
func DecodePrices(r io.Reader, book *SecurityBook) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		jobj := make(map[string]any)
		if err := json.Unmarshal(raw, &jobj); err != nil {
			return fmt.Errorf("format error on prices line %d: %w", line, err)
		}
		jon, ok := jobj[attrOn].(string)
		if !ok {
			return fmt.Errorf("format error on prices line %d: missing the property %q with a date", line, attrOn)
		}
		on, err := ParseDate(jon)
		if err != nil {
			return fmt.Errorf("format error on prices line %d: %w", line, err)
		}
		for ticker, price := range jobj {
			if ticker == attrOn {
				continue
			}
			p, ok := price.(float64)
			if !ok {
				return fmt.Errorf("format error on prices line %d: property %q must be a number", line, ticker)
			}
			sec := book.Security(ticker)
			if sec == nil {
				return fmt.Errorf("format error on prices line %d: unknown ticker %q", line, ticker)
			}
			sec.RecordPrice(on, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading prices: %w", err)
	}
	return nil
}

// EncodePrices persists all price observations, one line per date, tickers
// merged and sorted for stable output.
func EncodePrices(w io.Writer, book *SecurityBook) error {
	byDate := make(map[Date]map[string]float64)
	for sec := range book.Securities() {
		for on, price := range sec.Prices() {
			if byDate[on] == nil {
				byDate[on] = make(map[string]float64)
			}
			byDate[on][sec.Ticker()] = price
		}
	}
	days := make([]Date, 0, len(byDate))
	for on := range byDate {
		days = append(days, on)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, on := range days {
		var jw jsonObjectWriter
		jw.Append(attrOn, on.String())
		for _, ticker := range sortedKeys(byDate[on]) {
			jw.Append(ticker, byDate[on][ticker])
		}
		data, err := jw.MarshalJSON()
		if err != nil {
			return fmt.Errorf("cannot marshal prices for %s: %w", on, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write prices for %s: %w", on, err)
		}
	}
	return nil
}

// Valuation checkpoints persist as a single JSONL stream mixing three record
// shapes, discriminated by the "record" key.
const (
	recordSecurity  = "security"
	recordAccount   = "account"
	recordWatermark = "watermark"
)

type jvaluation struct {
	Record   string          `json:"record"`
	Date     Date            `json:"date"`
	Security string          `json:"security,omitempty"`
	Account  string          `json:"account,omitempty"`
	Owner    string          `json:"owner,omitempty"`
	Value    decimal.Decimal `json:"value"`
	Base     decimal.Decimal `json:"base"`
	Quantity Quantity        `json:"quantity"`
	Currency string          `json:"currency,omitempty"`
	Modified time.Time       `json:"modified,omitzero"`
}

// DecodeValuations reads a checkpoint stream into a new book.
func DecodeValuations(r io.Reader) (*ValuationBook, error) {
	book := NewValuationBook()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var jv jvaluation
		if err := json.Unmarshal(raw, &jv); err != nil {
			return nil, fmt.Errorf("format error on valuations line %d: %w", line, err)
		}
		switch jv.Record {
		case recordSecurity:
			book.UpsertSecurityValuation(SecurityValuation{
				Date:     jv.Date,
				Security: jv.Security,
				Owner:    jv.Owner,
				Value:    M(jv.Value, jv.Currency),
				Base:     M(jv.Base, jv.Currency),
				Quantity: jv.Quantity,
				Modified: jv.Modified,
			})
		case recordAccount:
			book.UpsertAccountValuation(AccountValuation{
				Date:     jv.Date,
				Account:  jv.Account,
				Owner:    jv.Owner,
				Value:    M(jv.Value, jv.Currency),
				Base:     M(jv.Base, jv.Currency),
				Modified: jv.Modified,
			})
		case recordWatermark:
			book.SetWatermark(jv.Owner, jv.Date)
		default:
			return nil, fmt.Errorf("format error on valuations line %d: unknown record %q", line, jv.Record)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading valuations: %w", err)
	}
	return book, nil
}

// EncodeValuations persists all checkpoints and watermarks, sorted for stable
// output.
func EncodeValuations(w io.Writer, book *ValuationBook) error {
	write := func(jv jvaluation) error {
		var jw jsonObjectWriter
		jw.Append("record", jv.Record)
		jw.Append("date", jv.Date)
		jw.Optional("security", jv.Security)
		jw.Optional("account", jv.Account)
		jw.Optional("owner", jv.Owner)
		if jv.Record != recordWatermark {
			jw.Append("value", jv.Value)
			jw.Append("base", jv.Base)
			if !jv.Quantity.IsZero() {
				jw.Append("quantity", jv.Quantity)
			}
			jw.Optional("currency", jv.Currency)
			if !jv.Modified.IsZero() {
				jw.Append("modified", jv.Modified.UTC().Format(time.RFC3339))
			}
		}
		data, err := jw.MarshalJSON()
		if err != nil {
			return fmt.Errorf("cannot marshal valuation: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write valuation: %w", err)
		}
		return nil
	}

	for _, v := range book.SecurityValuations(ValuationFilter{}) {
		jv := jvaluation{
			Record:   recordSecurity,
			Date:     v.Date,
			Security: v.Security,
			Owner:    v.Owner,
			Value:    v.Value.value,
			Base:     v.Base.value,
			Quantity: v.Quantity,
			Currency: v.Value.cur,
			Modified: v.Modified,
		}
		if err := write(jv); err != nil {
			return err
		}
	}
	for _, v := range book.AccountValuations(ValuationFilter{}) {
		jv := jvaluation{
			Record:   recordAccount,
			Date:     v.Date,
			Account:  v.Account,
			Owner:    v.Owner,
			Value:    v.Value.value,
			Base:     v.Base.value,
			Currency: v.Value.cur,
			Modified: v.Modified,
		}
		if err := write(jv); err != nil {
			return err
		}
	}
	for _, owner := range sortedKeys(book.watermarks) {
		jv := jvaluation{Record: recordWatermark, Owner: owner, Date: book.watermarks[owner]}
		if err := write(jv); err != nil {
			return err
		}
	}
	return nil
}

// DecodeInflationIndex reads lines of the form {"on":"2024-01-31","level":117.4}.
func DecodeInflationIndex(r io.Reader) (*InflationIndex, error) {
	type jlevel struct {
		On    Date    `json:"on"`
		Level float64 `json:"level"`
	}
	index := NewInflationIndex()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var jl jlevel
		if err := json.Unmarshal(raw, &jl); err != nil {
			return nil, fmt.Errorf("format error on inflation line %d: %w", line, err)
		}
		index.Record(jl.On, jl.Level)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading inflation index: %w", err)
	}
	return index, nil
}

// EncodeInflationIndex persists the index observations in chronological
// order.
func EncodeInflationIndex(w io.Writer, index *InflationIndex) error {
	for on, level := range index.Levels() {
		var jw jsonObjectWriter
		jw.Append("on", on)
		jw.Append("level", level)
		data, err := jw.MarshalJSON()
		if err != nil {
			return fmt.Errorf("cannot marshal inflation level for %s: %w", on, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write inflation level for %s: %w", on, err)
		}
	}
	return nil
}
