package validate

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/score"
)

// balanceEpsilon absorbs rounding in printed running balances.
const balanceEpsilon = 0.01

var refPattern = regexp.MustCompile(`\s*\{(\d+)\}`)

// Validator checks an extracted statement for structural and
// financial consistency, applies the deterministic corrections, and
// reports everything it found. Validation never mutates its input:
// the returned statement is a corrected copy, and attaching the
// report makes the pair terminal.
type Validator struct {
	rules  *RuleTable
	scorer *score.Scorer
}

// NewValidator creates a validator using the given rule table. A nil
// table falls back to the built-in keyword rules.
func NewValidator(rules *RuleTable) *Validator {
	if rules == nil {
		rules = DefaultRuleTable()
	}
	return &Validator{rules: rules, scorer: score.NewScorer()}
}

// record tracks a kept transaction together with its index in the
// original document so issues reference pre-drop positions.
type record struct {
	orig int
	t    model.Transaction
}

// Validate runs the full check-and-correct pass and returns the
// corrected statement with its report.
func (v *Validator) Validate(input *model.Statement) (*model.Statement, *model.ValidationReport) {
	st := input.Clone()
	report := &model.ValidationReport{}

	kept := v.screenRecords(st, report)
	v.checkBalanceChain(kept, st.OpeningBalance, report)
	v.classify(kept, report)

	st.Transactions = make([]model.Transaction, len(kept))
	for i, r := range kept {
		st.Transactions[i] = r.t
	}
	st.CalculateTotals()

	v.scorer.Calculate(st, report)
	return st, report
}

// screenRecords handles the per-record structural pass: the opening
// balance row, required fields, reference extraction, description
// cleanup, and ambiguous amounts.
func (v *Validator) screenRecords(st *model.Statement, report *model.ValidationReport) []record {
	var kept []record

	for i, t := range st.Transactions {
		// Statements often print the opening balance as the first row;
		// it is not a transaction.
		if i == 0 && strings.Contains(strings.ToLower(t.Description), "opening balance") {
			if st.OpeningBalance == 0 && t.Balance != 0 {
				st.OpeningBalance = t.Balance
			}
			report.Issues = append(report.Issues, model.Issue{
				Record:     i,
				Kind:       model.IssueOpeningBalanceRow,
				Correction: "removed opening balance row from transactions",
			})
			report.Corrected++
			continue
		}

		if t.Date == "" || t.Description == "" {
			field := "date"
			if t.Date != "" {
				field = "description"
			}
			log.Printf("validate.Validator: dropping record %d: missing %s", i, field)
			report.Issues = append(report.Issues, model.Issue{
				Record: i,
				Field:  field,
				Kind:   model.IssueMissingField,
			})
			report.Dropped++
			continue
		}

		// Reference numbers sometimes end up braced inside the
		// description.
		if m := refPattern.FindStringSubmatch(t.Description); m != nil {
			if t.Reference == "" {
				t.Reference = m[1]
			}
			t.Description = strings.TrimSpace(refPattern.ReplaceAllString(t.Description, ""))
			report.Issues = append(report.Issues, model.Issue{
				Record:     i,
				Field:      "description",
				Kind:       model.IssueReferenceMoved,
				Correction: fmt.Sprintf("moved reference %s out of description", m[1]),
			})
			report.Corrected++
		}

		// OCR placeholder text leaks into descriptions.
		if strings.Contains(strings.ToLower(t.Description), "blank") {
			cleaned := strings.TrimSpace(strings.NewReplacer("blank", "", "Blank", "", "BLANK", "").Replace(t.Description))
			if cleaned != "" {
				t.Description = cleaned
			}
		}

		if t.Debit > 0 && t.Credit > 0 {
			report.Issues = append(report.Issues, model.Issue{
				Record: i,
				Kind:   model.IssueAmbiguousAmount,
			})
			report.Unresolved++
		}

		kept = append(kept, record{orig: i, t: t})
	}
	return kept
}

// checkBalanceChain verifies prev - debit + credit == balance for
// every record with a printed balance. A discontinuity that a
// debit/credit swap would exactly reconcile is corrected; anything
// else is reported unresolved — the engine never guesses.
func (v *Validator) checkBalanceChain(kept []record, opening float64, report *model.ValidationReport) {
	prev := opening
	seeded := opening != 0

	for i := range kept {
		t := &kept[i].t
		if t.Balance == 0 {
			// No printed balance; carry the expectation forward.
			if seeded {
				prev = prev - t.Debit + t.Credit
			}
			continue
		}
		if !seeded {
			// No opening balance to anchor on: the first printed
			// balance becomes the anchor and is not checkable.
			prev = t.Balance
			seeded = true
			continue
		}

		expected := prev - t.Debit + t.Credit
		if math.Abs(expected-t.Balance) <= balanceEpsilon {
			prev = t.Balance
			continue
		}

		// Swap hypothesis: the amount landed in the wrong column.
		swapped := prev - t.Credit + t.Debit
		if math.Abs(swapped-t.Balance) <= balanceEpsilon && t.Debit != t.Credit {
			t.Debit, t.Credit = t.Credit, t.Debit
			report.Issues = append(report.Issues, model.Issue{
				Record:     kept[i].orig,
				Kind:       model.IssueBalanceMismatch,
				Correction: "swapped debit and credit to reconcile running balance",
			})
			report.Corrected++
		} else {
			log.Printf("validate.Validator: balance discontinuity at record %d: expected %.2f, printed %.2f",
				kept[i].orig, expected, t.Balance)
			report.Issues = append(report.Issues, model.Issue{
				Record: kept[i].orig,
				Kind:   model.IssueBalanceMismatch,
			})
			report.Unresolved++
		}
		// The printed balance is the anchor for the next link either
		// way.
		prev = t.Balance
	}
}

// classify fills in missing categories and applies forced rule
// matches. Overriding a category the backend already assigned counts
// as a correction; filling an empty one does not.
func (v *Validator) classify(kept []record, report *model.ValidationReport) {
	for i := range kept {
		t := &kept[i].t
		category, forced := v.rules.Classify(t.Description, t.Debit, t.Credit)

		switch {
		case forced && t.Category != "" && t.Category != category:
			report.Issues = append(report.Issues, model.Issue{
				Record:     kept[i].orig,
				Field:      "category",
				Kind:       model.IssueReclassified,
				Correction: fmt.Sprintf("reclassified %s as %s", t.Category, category),
			})
			report.Corrected++
			t.Category = category
		case t.Category == "":
			t.Category = category
		}
	}
}
