package model

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"
)

// Transaction represents a single extracted statement record.
// Amounts are always stored as positive numbers: debits are money
// going out, credits are money coming in.
type Transaction struct {
	Date        string  `json:"date"`                  // Normalized to MM/DD/YYYY when recognizable
	Description string  `json:"description"`           // Merchant name or transaction description
	Reference   string  `json:"reference,omitempty"`   // Bank reference number, if present
	Category    string  `json:"category,omitempty"`    // Classification (Groceries, Income, ...)
	Debit       float64 `json:"debit"`                 // Withdrawal amount (positive)
	Credit      float64 `json:"credit"`                // Deposit amount (positive)
	Balance     float64 `json:"balance"`               // Running balance after the transaction
	Strategy    string  `json:"strategy,omitempty"`    // Which parsing strategy produced this record
}

// Statement represents a complete extracted bank statement.
// Transaction order is document order and is semantically meaningful;
// no component may reorder records.
type Statement struct {
	AccountNumber  string        `json:"account_number,omitempty"`
	Period         string        `json:"statement_period,omitempty"`
	Transactions   []Transaction `json:"transactions"`
	TotalDebits    float64       `json:"total_debits"`
	TotalCredits   float64       `json:"total_credits"`
	OpeningBalance float64       `json:"opening_balance,omitempty"`
	ClosingBalance float64       `json:"closing_balance,omitempty"`
}

// CalculateTotals recomputes total debits and credits from the records.
func (s *Statement) CalculateTotals() {
	var debits, credits float64
	for _, t := range s.Transactions {
		debits += t.Debit
		credits += t.Credit
	}
	s.TotalDebits = debits
	s.TotalCredits = credits
}

// Clone returns a deep copy of the statement. Validation operates on a
// copy so the input statement is never mutated.
func (s *Statement) Clone() *Statement {
	out := *s
	out.Transactions = make([]Transaction, len(s.Transactions))
	copy(out.Transactions, s.Transactions)
	return &out
}

// ToCSV renders the statement as CSV with a trailing summary block.
func (s *Statement) ToCSV() (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"Date", "Description", "Category", "Debit", "Credit", "Balance"}); err != nil {
		return "", err
	}
	for _, t := range s.Transactions {
		row := []string{t.Date, t.Description, t.Category, "", "", ""}
		if t.Debit > 0 {
			row[3] = formatAmount(t.Debit)
		}
		if t.Credit > 0 {
			row[4] = formatAmount(t.Credit)
		}
		if t.Balance != 0 {
			row[5] = formatAmount(t.Balance)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	_ = w.Write([]string{})
	_ = w.Write([]string{"Summary", "", "", "", "", ""})
	_ = w.Write([]string{"Total Debits", "", "", formatAmount(s.TotalDebits), "", ""})
	_ = w.Write([]string{"Total Credits", "", "", "", formatAmount(s.TotalCredits), ""})
	if s.OpeningBalance != 0 {
		_ = w.Write([]string{"Opening Balance", "", "", "", "", formatAmount(s.OpeningBalance)})
	}
	if s.ClosingBalance != 0 {
		_ = w.Write([]string{"Closing Balance", "", "", "", "", formatAmount(s.ClosingBalance)})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// dateLayouts are the input formats NormalizeDate recognizes, tried in order.
var dateLayouts = []string{
	"01/02/2006", "02/01/2006", "2006-01-02",
	"01-02-2006", "02-01-2006", "2006/01/02",
	"01/02/06", "02/01/06",
}

// NormalizeDate converts a recognized date string to MM/DD/YYYY.
// Unrecognized values are returned unchanged so the validator can
// still flag them downstream.
func NormalizeDate(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, v); err == nil {
			return parsed.Format("01/02/2006")
		}
	}
	return v
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
