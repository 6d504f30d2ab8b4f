package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ledgerline/ledgerline/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	processPrompt    string
	processBackend   string
	processFallbacks []string
	allowSensitive   bool
	processTimeout   time.Duration
	outJSON          string
	outCSV           string
	noCache          bool
)

// defaultPrompt is the extraction instruction sent with the document
// when the caller does not supply one.
const defaultPrompt = `Extract ALL transactions from this bank statement as a JSON object
with fields: account_number, statement_period, transactions (date,
description, reference, debit, credit, balance), opening_balance,
closing_balance. Start from the first real transaction, not the
opening balance row, and continue to the very last entry. Use positive
numbers for both debits and credits.`

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <document>",
	Short: "Extract structured transactions from a statement document",
	Long: `Process sends a statement document to an inference backend and turns
the response into validated transaction data.

The full flow runs: admission control, result cache, backend routing
with fallback, response parsing, and validation. Documents containing
account numbers or other sensitive patterns stay on local backends
unless --allow-sensitive-remote is set.

Example:
  ledgerline process statement.pdf
  ledgerline process statement.png --backend openai --json out.json
  ledgerline process statement.pdf --csv out.csv --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processPrompt, "prompt", defaultPrompt, "extraction prompt sent with the document")
	processCmd.Flags().StringVar(&processBackend, "backend", "", "preferred backend name (default: configured routing)")
	processCmd.Flags().StringSliceVar(&processFallbacks, "fallback", nil, "fallback backend names, tried in order")
	processCmd.Flags().BoolVar(&allowSensitive, "allow-sensitive-remote", false, "allow sensitive documents on remote backends (recorded in the result)")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 5*time.Minute, "overall processing timeout")
	processCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default: stdout)")
	processCmd.Flags().StringVar(&outCSV, "csv", "", "output CSV path (optional)")
	processCmd.Flags().BoolVar(&noCache, "no-cache", false, "invalidate any cached result before processing")
}

func runProcess(cmd *cobra.Command, args []string) error {
	attachment, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if processBackend != "" {
		cfg.Routing.Default = processBackend
	}
	if processFallbacks != nil {
		cfg.Routing.Fallbacks = processFallbacks
	}
	if allowSensitive {
		cfg.Routing.AllowSensitiveRemote = true
	}

	p, err := pipeline.NewProcessor(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	if noCache {
		p.InvalidateCache(processPrompt, attachment)
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Processing: %s (%d bytes)\n", args[0], len(attachment))
		fmt.Fprintf(os.Stderr, "Backend: %s (fallbacks: %v)\n\n", cfg.Routing.Default, cfg.Routing.Fallbacks)
	}

	result, err := p.Process(ctx, processPrompt, attachment)
	if err != nil {
		return fmt.Errorf("process failed: %w", err)
	}

	if verbose {
		printSummary(result)
		fmt.Fprintln(os.Stderr)
	}
	return writeResult(result, outJSON, outCSV)
}
