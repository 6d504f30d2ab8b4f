package extract

import (
	"math"
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
)

// statementDoc mirrors the JSON document shape backends are prompted
// to emit. Parsing goes through these intermediate types so the model
// package stays free of wire-format concerns.
type statementDoc struct {
	AccountNumber   string           `json:"account_number"`
	StatementPeriod string           `json:"statement_period"`
	Transactions    []transactionDoc `json:"transactions"`
	TotalDebits     float64          `json:"total_debits"`
	TotalCredits    float64          `json:"total_credits"`
	OpeningBalance  float64          `json:"opening_balance"`
	ClosingBalance  float64          `json:"closing_balance"`
}

type transactionDoc struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Reference   string  `json:"reference"`
	Category    string  `json:"category"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Balance     float64 `json:"balance"`
}

// toStatement converts the document into the domain model, taking the
// absolute value of amounts (backends sometimes emit debits as
// negatives) and normalizing dates.
func (d *statementDoc) toStatement() *model.Statement {
	st := &model.Statement{
		AccountNumber:  strings.TrimSpace(d.AccountNumber),
		Period:         strings.TrimSpace(d.StatementPeriod),
		TotalDebits:    d.TotalDebits,
		TotalCredits:   d.TotalCredits,
		OpeningBalance: d.OpeningBalance,
		ClosingBalance: d.ClosingBalance,
	}
	for _, t := range d.Transactions {
		st.Transactions = append(st.Transactions, model.Transaction{
			Date:        model.NormalizeDate(strings.TrimSpace(t.Date)),
			Description: strings.TrimSpace(t.Description),
			Reference:   strings.TrimSpace(t.Reference),
			Category:    strings.TrimSpace(t.Category),
			Debit:       math.Abs(t.Debit),
			Credit:      math.Abs(t.Credit),
			Balance:     math.Abs(t.Balance),
		})
	}
	return st
}
