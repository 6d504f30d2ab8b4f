package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledgerline/ledgerline/internal/pipeline"
	"github.com/ledgerline/ledgerline/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchCSV     bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Parse multiple saved responses from a manifest in parallel",
	Long: `Batch parses saved backend responses concurrently:
- Read response file paths from the manifest (one per line)
- Parse and validate each file in parallel
- Write one result file per input into the output directory

Per-file failures are reported at the end; they never stop the batch.

Example:
  ledgerline batch responses.txt
  ledgerline batch responses.txt --concurrency 8 --output-dir ./results
  ledgerline batch responses.txt --csv`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: configured batch.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./ledgerline-results", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchCSV, "csv", false, "also write a CSV per statement")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Batch.Workers
	}

	p, err := pipeline.NewProcessor(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Batch: %s (%d workers, output: %s)\n\n", args[0], workers, outputDir)

	results, err := worker.NewBatchProcessor(p, workers).ProcessFile(ctx, args[0])
	if err != nil {
		return err
	}

	var failed int
	for _, r := range results {
		if r.Err() != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Path, r.Err())
			continue
		}
		if err := writeBatchResult(r); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Path, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %d transactions, confidence %.2f\n",
			r.Path, len(r.Result.Statement.Transactions), r.Result.Report.Confidence)
	}

	fmt.Fprintf(os.Stderr, "\nDone: %d succeeded, %d failed\n", len(results)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func writeBatchResult(r *worker.ParseResult) error {
	base := strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path))

	data, err := json.MarshalIndent(newResultOutput(r.Result), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	jsonPath := filepath.Join(outputDir, base+".json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}

	if batchCSV {
		csvData, err := r.Result.Statement.ToCSV()
		if err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
		csvPath := filepath.Join(outputDir, base+".csv")
		if err := os.WriteFile(csvPath, []byte(csvData), 0644); err != nil {
			return fmt.Errorf("write %s: %w", csvPath, err)
		}
	}
	return nil
}
