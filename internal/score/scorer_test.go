package score

import (
	"math"
	"testing"

	"github.com/ledgerline/ledgerline/internal/model"
)

func statementWith(n int) *model.Statement {
	st := &model.Statement{}
	for i := 0; i < n; i++ {
		st.Transactions = append(st.Transactions, model.Transaction{
			Date:        "01/15/2024",
			Description: "Record",
			Category:    "Groceries",
			Debit:       10,
		})
	}
	return st
}

func TestCalculate_CleanStatement(t *testing.T) {
	st := statementWith(10)
	report := &model.ValidationReport{}

	NewScorer().Calculate(st, report)

	if report.Confidence != 1.0 {
		t.Errorf("confidence = %.2f, want 1.0", report.Confidence)
	}
	for _, sig := range report.Signals {
		if sig.Severity != model.SeverityInfo {
			t.Errorf("clean statement produced %s signal: %s", sig.Severity, sig.Description)
		}
	}
}

func TestCalculate_ConfidenceFormula(t *testing.T) {
	st := statementWith(8)
	report := &model.ValidationReport{
		Corrected:  1,
		Unresolved: 1,
		Dropped:    2, // total = 8 kept + 2 dropped = 10
	}

	NewScorer().Calculate(st, report)

	if math.Abs(report.Confidence-0.8) > 1e-9 {
		t.Errorf("confidence = %.2f, want 0.80", report.Confidence)
	}
}

func TestCalculate_ClampsAtZero(t *testing.T) {
	st := statementWith(2)
	report := &model.ValidationReport{Corrected: 2, Unresolved: 2}

	NewScorer().Calculate(st, report)

	if report.Confidence != 0 {
		t.Errorf("confidence = %.2f, want 0", report.Confidence)
	}
}

func TestCalculate_EmptyStatement(t *testing.T) {
	report := &model.ValidationReport{}
	NewScorer().Calculate(&model.Statement{}, report)

	if report.Confidence != 0 {
		t.Errorf("confidence = %.2f, want 0", report.Confidence)
	}
	if len(report.Signals) == 0 || report.Signals[0].Severity != model.SeverityCritical {
		t.Error("empty statement should raise a critical signal")
	}
}

func TestCalculate_BalanceChainSignal(t *testing.T) {
	st := statementWith(5)

	report := &model.ValidationReport{
		Corrected: 1,
		Issues: []model.Issue{
			{Record: 2, Kind: model.IssueBalanceMismatch, Correction: "swapped debit and credit"},
		},
	}
	NewScorer().Calculate(st, report)
	if sig := findSignal(report, model.SignalBalanceChain); sig == nil || sig.Severity != model.SeverityWarning {
		t.Errorf("corrected mismatch should raise a warning, got %+v", sig)
	}

	report = &model.ValidationReport{
		Unresolved: 1,
		Issues: []model.Issue{
			{Record: 2, Kind: model.IssueBalanceMismatch},
		},
	}
	NewScorer().Calculate(st, report)
	if sig := findSignal(report, model.SignalBalanceChain); sig == nil || sig.Severity != model.SeverityCritical {
		t.Errorf("unresolved mismatch should raise a critical signal, got %+v", sig)
	}
}

func TestCalculate_CategoryCoverage(t *testing.T) {
	st := statementWith(4)
	st.Transactions[0].Category = "Other"
	st.Transactions[1].Category = ""
	st.Transactions[2].Category = ""

	report := &model.ValidationReport{}
	NewScorer().Calculate(st, report)

	sig := findSignal(report, model.SignalCategoryCoverage)
	if sig == nil {
		t.Fatal("missing category coverage signal")
	}
	if sig.Severity != model.SeverityWarning {
		t.Errorf("25%% coverage should raise a warning, got %s", sig.Severity)
	}
}

func TestCalculate_DroppedRecordsSeverity(t *testing.T) {
	st := statementWith(2)
	report := &model.ValidationReport{Dropped: 2} // half the records gone

	NewScorer().Calculate(st, report)

	sig := findSignal(report, model.SignalDroppedRecords)
	if sig == nil || sig.Severity != model.SeverityCritical {
		t.Errorf("losing half the records should be critical, got %+v", sig)
	}
}

func findSignal(report *model.ValidationReport, typ model.SignalType) *model.Signal {
	for i := range report.Signals {
		if report.Signals[i].Type == typ {
			return &report.Signals[i]
		}
	}
	return nil
}
