package cli

import (
	"fmt"
	"os"

	"github.com/ledgerline/ledgerline/internal/pipeline"
	"github.com/ledgerline/ledgerline/internal/validate"
	"github.com/spf13/cobra"
)

var (
	parseCSV     bool
	parseOutJSON string
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <response-file>",
	Short: "Parse a saved backend response without invoking a backend",
	Long: `Parse runs extraction and validation on response text saved from an
earlier backend call. No backend, cache, or admission is involved, so
it works offline and is the fast path for re-running a parse after a
rule table change.

Example:
  ledgerline parse response.txt
  ledgerline parse response.txt --csv
  ledgerline parse response.txt --json out.json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVar(&parseCSV, "csv", false, "print CSV to stdout instead of JSON")
	parseCmd.Flags().StringVar(&parseOutJSON, "json", "", "output JSON path (default: stdout)")
}

func runParse(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read response file: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var rules *validate.RuleTable
	if cfg.Rules.Path != "" {
		if rules, err = validate.LoadRuleTable(cfg.Rules.Path); err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
	}

	result, err := pipeline.Parse(string(data), rules)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	if verbose {
		printSummary(result)
		fmt.Fprintln(os.Stderr)
	}

	if parseCSV {
		csvData, err := result.Statement.ToCSV()
		if err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
		fmt.Print(csvData)
		return nil
	}
	return writeResult(result, parseOutJSON, "")
}
