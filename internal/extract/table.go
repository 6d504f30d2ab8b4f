package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
)

var (
	datePattern     = regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`)
	dateWordPattern = regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)\b`)
	amountPattern   = regexp.MustCompile(`[-+]?\$?[\d,]+\.?\d*`)
	amountJunk      = regexp.MustCompile(`[^\d.,\-]`)
)

// TableStrategy is the last resort: the backend ignored the JSON
// instructions and replied with a plain-text table. It detects the
// header row to learn the column layout, then parses pipe-delimited
// rows positionally and space-delimited rows heuristically.
type TableStrategy struct{}

func (s *TableStrategy) Name() string { return "delimited-table" }

func (s *TableStrategy) Parse(text string) (*model.Statement, error) {
	lines := strings.Split(text, "\n")

	headerIdx := -1
	var columns map[string]int
	for i, line := range lines {
		if isTableHeader(line) {
			headerIdx = i
			columns = analyzeHeader(line)
			break
		}
	}

	var transactions []model.Transaction
	for i, line := range lines {
		if headerIdx >= 0 && i <= headerIdx {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "=") {
			continue
		}
		if !datePattern.MatchString(line) && !dateWordPattern.MatchString(line) {
			continue
		}

		var t *model.Transaction
		if strings.Contains(line, "|") {
			t = parsePipeRow(line, columns)
		} else {
			t = parseSpaceRow(line)
		}
		if t == nil || t.Description == "" {
			continue
		}
		// Summary rows like "Closing Balance" are not transactions.
		if strings.Contains(strings.ToLower(t.Description), "balance") {
			continue
		}
		repairDepositColumn(t)
		t.Date = model.NormalizeDate(t.Date)
		transactions = append(transactions, *t)
	}

	if len(transactions) == 0 {
		return nil, fmt.Errorf("no transaction rows found")
	}
	return &model.Statement{Transactions: transactions}, nil
}

// isTableHeader recognizes a header row by the co-occurrence of a date
// column, a description column, and at least one amount column.
func isTableHeader(line string) bool {
	lower := strings.ToLower(line)
	if !strings.Contains(lower, "date") {
		return false
	}
	if !strings.Contains(lower, "description") && !strings.Contains(lower, "transaction") {
		return false
	}
	for _, kw := range []string{"debit", "withdrawal", "credit", "deposit"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// analyzeHeader maps canonical field names to column positions,
// folding the aliases banks actually print: withdrawal means debit,
// deposit means credit, transaction means description.
func analyzeHeader(header string) map[string]int {
	if !strings.Contains(header, "|") {
		return nil
	}
	columns := make(map[string]int)
	for i, part := range strings.Split(header, "|") {
		switch lower := strings.ToLower(strings.TrimSpace(part)); {
		case strings.Contains(lower, "date"):
			columns["date"] = i
		case strings.Contains(lower, "description"), strings.Contains(lower, "transaction"):
			columns["description"] = i
		case strings.Contains(lower, "debit"), strings.Contains(lower, "withdrawal"):
			columns["debit"] = i
		case strings.Contains(lower, "credit"), strings.Contains(lower, "deposit"):
			columns["credit"] = i
		case strings.Contains(lower, "balance"):
			columns["balance"] = i
		case strings.Contains(lower, "ref"):
			columns["reference"] = i
		}
	}
	return columns
}

func parsePipeRow(line string, columns map[string]int) *model.Transaction {
	parts := strings.Split(line, "|")
	if len(columns) == 0 || len(parts) < 3 {
		return nil
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(parts) {
			return ""
		}
		return parts[idx]
	}

	t := &model.Transaction{
		Date:        field("date"),
		Description: field("description"),
		Reference:   field("reference"),
		Debit:       parseAmount(field("debit")),
		Credit:      parseAmount(field("credit")),
		Balance:     parseAmount(field("balance")),
	}
	if t.Date == "" || t.Description == "" {
		return nil
	}
	return t
}

// parseSpaceRow handles rows without delimiters: date, then
// description, then one to three trailing amounts. With a single
// amount it can only be the balance; with two, the first is debit or
// credit depending on the description and the second is the balance;
// with three or more, the order is debit, credit, balance.
func parseSpaceRow(line string) *model.Transaction {
	loc := datePattern.FindStringIndex(line)
	if loc == nil {
		loc = dateWordPattern.FindStringIndex(line)
	}
	if loc == nil {
		return nil
	}

	t := &model.Transaction{Date: line[loc[0]:loc[1]]}
	remaining := strings.TrimSpace(line[loc[1]:])

	matches := amountPattern.FindAllStringIndex(remaining, -1)
	if len(matches) == 0 {
		t.Description = strings.Trim(strings.TrimSpace(remaining), "|")
		return t
	}

	t.Description = strings.Trim(strings.TrimSpace(remaining[:matches[0][0]]), "|")

	var amounts []float64
	for _, m := range matches {
		raw := strings.NewReplacer("$", "", ",", "").Replace(remaining[m[0]:m[1]])
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			amounts = append(amounts, v)
		}
	}

	credit := false
	for _, kw := range []string{"deposit", "salary", "income", "payroll"} {
		if strings.Contains(strings.ToLower(t.Description), kw) {
			credit = true
			break
		}
	}

	switch len(amounts) {
	case 0:
	case 1:
		t.Balance = math.Abs(amounts[0])
	case 2:
		if credit {
			t.Credit = math.Abs(amounts[0])
		} else {
			t.Debit = math.Abs(amounts[0])
		}
		t.Balance = math.Abs(amounts[1])
	default:
		t.Debit = math.Abs(amounts[0])
		t.Credit = math.Abs(amounts[1])
		t.Balance = math.Abs(amounts[len(amounts)-1])
	}
	return t
}

// parseAmount extracts a numeric value from a table cell, tolerating
// currency symbols and thousands separators. Empty or dash cells
// yield zero.
func parseAmount(cell string) float64 {
	cleaned := amountJunk.ReplaceAllString(cell, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" || cleaned == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return math.Abs(v)
}

// repairDepositColumn moves deposits that landed in the withdrawals
// column. Statements that print a single amount column force the
// model to guess; descriptions win over column position.
func repairDepositColumn(t *model.Transaction) {
	lower := strings.ToLower(t.Description)
	if !strings.Contains(lower, "deposit") && !strings.Contains(lower, "payroll") {
		return
	}
	if t.Debit > 0 && t.Credit == 0 {
		t.Credit = t.Debit
		t.Debit = 0
	}
}
