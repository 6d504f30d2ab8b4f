package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/pipeline"
)

// resultOutput is the JSON shape emitted by process, parse, and batch.
type resultOutput struct {
	Statement         *model.Statement        `json:"statement"`
	Report            *model.ValidationReport `json:"report"`
	BackendUsed       string                  `json:"backend_used,omitempty"`
	Strategy          string                  `json:"strategy,omitempty"`
	CacheHit          bool                    `json:"cache_hit"`
	SensitiveOverride bool                    `json:"sensitive_override,omitempty"`
}

func newResultOutput(r *pipeline.Result) resultOutput {
	return resultOutput{
		Statement:         r.Statement,
		Report:            r.Report,
		BackendUsed:       r.BackendUsed,
		Strategy:          r.Strategy,
		CacheHit:          r.CacheHit,
		SensitiveOverride: r.SensitiveOverride,
	}
}

// writeResult renders the result as JSON (to stdout when path is
// empty) and optionally as CSV.
func writeResult(r *pipeline.Result, jsonPath, csvPath string) error {
	data, err := json.MarshalIndent(newResultOutput(r), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if jsonPath == "" {
		fmt.Println(string(data))
	} else if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}

	if csvPath != "" {
		csvData, err := r.Statement.ToCSV()
		if err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
		if err := os.WriteFile(csvPath, []byte(csvData), 0644); err != nil {
			return fmt.Errorf("write %s: %w", csvPath, err)
		}
	}
	return nil
}

// printSummary writes the one-look result summary to stderr.
func printSummary(r *pipeline.Result) {
	fmt.Fprintf(os.Stderr, "✓ %d transactions (strategy: %s", len(r.Statement.Transactions), r.Strategy)
	if r.BackendUsed != "" {
		fmt.Fprintf(os.Stderr, ", backend: %s", r.BackendUsed)
	}
	if r.CacheHit {
		fmt.Fprintf(os.Stderr, ", cached")
	}
	fmt.Fprintf(os.Stderr, ")\n")
	fmt.Fprintf(os.Stderr, "✓ Confidence: %.2f (corrected %d, unresolved %d, dropped %d)\n",
		r.Report.Confidence, r.Report.Corrected, r.Report.Unresolved, r.Report.Dropped)
	for _, sig := range r.Report.Signals {
		if sig.Severity != model.SeverityInfo {
			fmt.Fprintf(os.Stderr, "! %s: %s\n", sig.Severity, sig.Description)
		}
	}
}
