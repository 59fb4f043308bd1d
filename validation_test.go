package returns

import (
	"testing"
	"time"
)

func testCatalog(t *testing.T) *SecurityBook {
	t.Helper()
	book := NewSecurityBook()
	book.Add(NewSecurity("ACME", "Acme Corp", "EUR", Stock).MarkToMarket())
	book.Add(NewSecurity("CASH", "Savings", "EUR", Savings))
	book.Add(NewSecurity("LIFE", "Accruing plan", "EUR", Pension).AccumulateInterest(Percent(2)))
	return book
}

func TestValidate(t *testing.T) {
	catalog := testCatalog(t)
	on := NewDate(2025, time.January, 10)

	testCases := []struct {
		name   string
		record TransactionRecord
		valid  bool
	}{
		{"valid buy",
			TransactionRecord{Date: on, Kind: Buy, Security: "ACME", Quantity: Q(10),
				Cashflow: M(-100, "EUR"), Account: "broker"}, true},
		{"buy with positive cashflow",
			TransactionRecord{Date: on, Kind: Buy, Security: "ACME", Quantity: Q(10),
				Cashflow: M(100, "EUR"), Account: "broker"}, false},
		{"buy of mark-to-market without quantity",
			TransactionRecord{Date: on, Kind: Buy, Security: "ACME",
				Cashflow: M(-100, "EUR"), Account: "broker"}, false},
		{"buy of savings without quantity",
			TransactionRecord{Date: on, Kind: Buy, Security: "CASH",
				Cashflow: M(-100, "EUR"), Account: "bank"}, true},
		{"valid sell",
			TransactionRecord{Date: on, Kind: Sell, Security: "ACME", Quantity: Q(-10),
				Cashflow: M(100, "EUR"), Account: "broker"}, true},
		{"sell adding units",
			TransactionRecord{Date: on, Kind: Sell, Security: "ACME", Quantity: Q(10),
				Cashflow: M(100, "EUR"), Account: "broker"}, false},
		{"valid dividend",
			TransactionRecord{Date: on, Kind: Dividend, Security: "ACME",
				Cashflow: M(3, "EUR"), Tax: M(0.5, "EUR"), Account: "broker"}, true},
		{"negative interest",
			TransactionRecord{Date: on, Kind: Interest, Security: "CASH",
				Cashflow: M(-3, "EUR"), Account: "bank"}, false},
		{"match on an accruing security",
			TransactionRecord{Date: on, Kind: Match, Security: "LIFE",
				Cashflow: M(50, "EUR"), Account: "plan"}, true},
		{"match on a plain security",
			TransactionRecord{Date: on, Kind: Match, Security: "ACME",
				Cashflow: M(50, "EUR"), Account: "broker"}, false},
		{"write-down records the loss positive",
			TransactionRecord{Date: on, Kind: WriteDown, Security: "CASH",
				Cashflow: M(30, "EUR"), Account: "bank"}, true},
		{"write-down with negative cashflow",
			TransactionRecord{Date: on, Kind: WriteDown, Security: "CASH",
				Cashflow: M(-30, "EUR"), Account: "bank"}, false},
		{"undeclared ticker",
			TransactionRecord{Date: on, Kind: Buy, Security: "GHOST",
				Cashflow: M(-100, "EUR"), Account: "broker"}, false},
		{"missing account",
			TransactionRecord{Date: on, Kind: Buy, Security: "CASH",
				Cashflow: M(-100, "EUR")}, false},
		{"missing date",
			TransactionRecord{Kind: Buy, Security: "CASH",
				Cashflow: M(-100, "EUR"), Account: "bank"}, false},
		{"negative tax",
			TransactionRecord{Date: on, Kind: Dividend, Security: "ACME",
				Cashflow: M(3, "EUR"), Tax: M(-0.5, "EUR"), Account: "broker"}, false},
		{"unknown kind",
			TransactionRecord{Date: on, Kind: "steal", Security: "CASH",
				Cashflow: M(-100, "EUR"), Account: "bank"}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(catalog, tc.record)
			if tc.valid && err != nil {
				t.Errorf("Validate() returned unexpected error: %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("Validate() expected an error, got none")
			}
		})
	}
}
