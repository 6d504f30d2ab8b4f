package score

import (
	"fmt"

	"github.com/ledgerline/ledgerline/internal/model"
)

// Scorer computes the confidence score for a validated statement and
// generates the diagnostic signals that explain it. The score is
// deliberately transparent: every deduction has a matching signal.
type Scorer struct{}

// NewScorer creates a new scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate fills in the report's confidence and signals. Confidence
// is 1 - (corrected + unresolved) / total records, clamped to [0, 1];
// dropped records count toward the total so a statement that lost
// half its rows cannot score as clean.
func (s *Scorer) Calculate(statement *model.Statement, report *model.ValidationReport) {
	total := len(statement.Transactions) + report.Dropped

	if total == 0 {
		report.Confidence = 0
		report.Signals = append(report.Signals, model.Signal{
			Type:        model.SignalDroppedRecords,
			Severity:    model.SeverityCritical,
			Description: "statement contains no transactions",
		})
		return
	}

	confidence := 1.0 - float64(report.Corrected+report.Unresolved)/float64(total)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	report.Confidence = confidence

	report.Signals = append(report.Signals, s.balanceChainSignal(report, total))
	if sig := s.ambiguousSignal(report, total); sig.Type != "" {
		report.Signals = append(report.Signals, sig)
	}
	if sig := s.droppedSignal(report, total); sig.Type != "" {
		report.Signals = append(report.Signals, sig)
	}
	report.Signals = append(report.Signals, s.coverageSignal(statement))
}

func (s *Scorer) balanceChainSignal(report *model.ValidationReport, total int) model.Signal {
	var corrected, unresolved int
	for _, issue := range report.Issues {
		if issue.Kind != model.IssueBalanceMismatch {
			continue
		}
		if issue.Correction != "" {
			corrected++
		} else {
			unresolved++
		}
	}

	switch {
	case unresolved > 0:
		return model.Signal{
			Type:        model.SignalBalanceChain,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("%d of %d records break the running balance chain", unresolved, total),
			Data:        map[string]any{"corrected": corrected, "unresolved": unresolved},
		}
	case corrected > 0:
		return model.Signal{
			Type:        model.SignalBalanceChain,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d balance discontinuities corrected by swapping debit and credit", corrected),
			Data:        map[string]any{"corrected": corrected},
		}
	default:
		return model.Signal{
			Type:        model.SignalBalanceChain,
			Severity:    model.SeverityInfo,
			Description: "running balance chain reconciles",
		}
	}
}

func (s *Scorer) ambiguousSignal(report *model.ValidationReport, total int) model.Signal {
	var count int
	for _, issue := range report.Issues {
		if issue.Kind == model.IssueAmbiguousAmount {
			count++
		}
	}
	if count == 0 {
		return model.Signal{}
	}
	return model.Signal{
		Type:        model.SignalAmbiguousAmounts,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d of %d records carry both a debit and a credit", count, total),
		Data:        map[string]any{"count": count},
	}
}

func (s *Scorer) droppedSignal(report *model.ValidationReport, total int) model.Signal {
	if report.Dropped == 0 {
		return model.Signal{}
	}
	severity := model.SeverityWarning
	if report.Dropped*2 >= total {
		severity = model.SeverityCritical
	}
	return model.Signal{
		Type:        model.SignalDroppedRecords,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d records dropped for missing required fields", report.Dropped, total),
		Data:        map[string]any{"dropped": report.Dropped},
	}
}

func (s *Scorer) coverageSignal(statement *model.Statement) model.Signal {
	if len(statement.Transactions) == 0 {
		return model.Signal{
			Type:        model.SignalCategoryCoverage,
			Severity:    model.SeverityInfo,
			Description: "no records to categorize",
		}
	}

	var categorized int
	for _, t := range statement.Transactions {
		if t.Category != "" && t.Category != "Other" {
			categorized++
		}
	}
	coverage := float64(categorized) / float64(len(statement.Transactions))

	severity := model.SeverityInfo
	if coverage < 0.5 {
		severity = model.SeverityWarning
	}
	return model.Signal{
		Type:        model.SignalCategoryCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d records categorized", categorized, len(statement.Transactions)),
		Data:        map[string]any{"coverage": coverage},
	}
}
