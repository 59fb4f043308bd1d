// Package renderer turns reports into markdown strings, ready to be printed
// to a terminal or published.
package renderer

import (
	"bytes"
	"fmt"

	"github.com/mseiler/returns"
	md "github.com/nao1215/markdown"
)

// PerformanceMarkdown renders the four standard measurement windows.
func PerformanceMarkdown(r *returns.Report) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	title := "Performance"
	if r.Owner != "" {
		title = fmt.Sprintf("Performance for %s", r.Owner)
	}
	doc.H1(title)
	doc.PlainText(fmt.Sprintf("As of %s.", r.Date))
	doc.PlainText("")

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Window", "Rate", "Initial", "Invested", "Final"},
		Rows:   [][]string{},
	}
	if r.Inflation != nil {
		table.Alignment = append(table.Alignment, md.AlignRight)
		table.Header = append(table.Header, "Inflation")
	}
	var inflation returns.InflationComparison
	if r.Inflation != nil {
		inflation = *r.Inflation
	}
	for _, row := range []struct {
		name      string
		result    returns.Result
		inflation returns.Result
	}{
		{"Year to date", r.YearToDate, inflation.YearToDate},
		{"1 year", r.OneYear, inflation.OneYear},
		{"5 years", r.FiveYear, inflation.FiveYear},
		{"All time", r.AllTime, inflation.AllTime},
	} {
		cells := []string{
			row.name,
			row.result.Display(),
			row.result.Initial.String(),
			row.result.Invested.SignedString(),
			row.result.Final.String(),
		}
		if r.Inflation != nil {
			cells = append(cells, row.inflation.Display())
		}
		table.Rows = append(table.Rows, cells)
	}
	doc.Table(table)

	return doc.String()
}

// SegmentsMarkdown renders per-asset-class performance with each class's
// share of the total value.
func SegmentsMarkdown(segments []returns.Segment) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Performance by asset class")

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Class", "Rate", "Value", "Share"},
		Rows:   [][]string{},
	}
	for _, s := range segments {
		table.Rows = append(table.Rows, []string{
			string(s.Kind),
			s.Result.Display(),
			s.Result.Final.String(),
			s.Fraction.String(),
		})
	}
	doc.Table(table)

	return doc.String()
}

// TransactionsMarkdown renders a transaction listing.
func TransactionsMarkdown(transactions []returns.TransactionRecord) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Transactions")

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"Date", "Kind", "Security", "Quantity", "Cashflow", "Account"},
		Rows:   [][]string{},
	}
	for _, t := range transactions {
		table.Rows = append(table.Rows, []string{
			t.Date.String(),
			string(t.Kind),
			t.Security,
			t.Quantity.String(),
			t.Cashflow.SignedString(),
			t.Account,
		})
	}
	doc.Table(table)

	return doc.String()
}

// QuarterlyMarkdown renders net external cashflow per calendar quarter.
func QuarterlyMarkdown(flows []returns.QuarterFlow) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Quarterly cashflows")

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
		},
		Header: []string{"Quarter", "Net cashflow"},
		Rows:   [][]string{},
	}
	for _, q := range flows {
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%d-Q%d", q.Year, q.Quarter),
			q.Amount.SignedString(),
		})
	}
	doc.Table(table)

	return doc.String()
}

// ValuationsMarkdown renders the checkpoint history of a holding.
func ValuationsMarkdown(title string, points returns.ValuationSeries) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(title)

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Value", "Invested"},
		Rows:   [][]string{},
	}
	for _, p := range points {
		table.Rows = append(table.Rows, []string{
			p.Date.String(),
			p.Value.String(),
			p.Base.SignedString(),
		})
	}
	doc.Table(table)

	return doc.String()
}
