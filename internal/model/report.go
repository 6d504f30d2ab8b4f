package model

// IssueKind classifies a validation finding.
type IssueKind string

const (
	// IssueAmbiguousAmount flags a record with both debit and credit
	// non-zero. Never auto-corrected; surfaced to the caller.
	IssueAmbiguousAmount IssueKind = "ambiguous_amount"

	// IssueBalanceMismatch flags a running-balance discontinuity. The
	// correction field records the swap hypothesis when it reconciled
	// the chain; otherwise the mismatch is reported unresolved.
	IssueBalanceMismatch IssueKind = "balance_mismatch"

	// IssueMissingField flags a record dropped for a missing required
	// field. Fatal for the record, never for the whole statement.
	IssueMissingField IssueKind = "missing_field"

	// IssueReclassified records a category forced by a rule-table
	// pattern or keyword match.
	IssueReclassified IssueKind = "reclassified"

	// IssueReferenceMoved records a reference number extracted out of
	// a description into the reference field.
	IssueReferenceMoved IssueKind = "reference_moved"

	// IssueOpeningBalanceRow records an opening-balance row removed
	// from the transaction list.
	IssueOpeningBalanceRow IssueKind = "opening_balance_row"
)

// Issue is a single validation finding against one record.
type Issue struct {
	Record     int       `json:"record"`               // Index in document order (pre-drop)
	Field      string    `json:"field,omitempty"`      // Affected field, if any
	Kind       IssueKind `json:"kind"`
	Correction string    `json:"correction,omitempty"` // Corrective action taken, empty if none
}

// ValidationReport is the outcome of validating a statement. Once a
// report is attached to a statement the pair is terminal: further
// edits must produce a new statement.
type ValidationReport struct {
	Issues     []Issue  `json:"issues,omitempty"`
	Corrected  int      `json:"corrected"`  // Records changed by a deterministic correction
	Unresolved int      `json:"unresolved"` // Flags left standing (ambiguous amounts, unreconciled chains)
	Dropped    int      `json:"dropped"`    // Records removed for missing required fields
	Confidence float64  `json:"confidence"` // 1 - (corrected+unresolved)/total, clamped to [0,1]
	Signals    []Signal `json:"signals,omitempty"`
}

// Signal is a diagnostic datapoint explaining the confidence score.
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// SignalType classifies the diagnostic signal.
type SignalType string

const (
	SignalBalanceChain     SignalType = "balance_chain"     // Running-balance consistency
	SignalAmbiguousAmounts SignalType = "ambiguous_amounts" // Debit/credit exclusivity
	SignalDroppedRecords   SignalType = "dropped_records"   // Structurally invalid records
	SignalCategoryCoverage SignalType = "category_coverage" // Share of categorized records
)

// SignalSeverity indicates the importance of the signal.
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
