package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledgerline/ledgerline/internal/cache"
	"github.com/ledgerline/ledgerline/internal/pipeline"
	"github.com/spf13/cobra"
)

var invalidatePrompt string

// cacheCmd represents the cache command group
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the result cache",
	Long: `Manage the validated-result cache. Results are keyed by document
content, prompt, and invocation options; with a cache directory
configured they persist across runs.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache configuration and occupancy",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProcessor()
		if err != nil {
			return err
		}
		defer p.Close()

		size, maxEntries, ttl := p.CacheStats()
		fmt.Printf("Entries:     %d / %d\n", size, maxEntries)
		fmt.Printf("TTL:         %v\n", ttl)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached result",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProcessor()
		if err != nil {
			return err
		}
		defer p.Close()

		if err := p.ClearCache(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Cache cleared")
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <document|fingerprint>",
	Short: "Drop the cached result for one document",
	Long: `Invalidate removes the cached result for a document so the next
process run recomputes it. The argument is either a document path or a
raw cache fingerprint (ledgerline:v1:...). For a document path, the
prompt must match the one used when processing; the default matches the
process command's default.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProcessor()
		if err != nil {
			return err
		}
		defer p.Close()

		if strings.HasPrefix(args[0], cache.FingerprintPrefix) {
			p.InvalidateFingerprint(args[0])
			fmt.Fprintf(os.Stderr, "Invalidated %s\n", args[0])
			return nil
		}

		attachment, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		p.InvalidateCache(invalidatePrompt, attachment)
		fmt.Fprintf(os.Stderr, "Invalidated cached result for %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)

	cacheInvalidateCmd.Flags().StringVar(&invalidatePrompt, "prompt", defaultPrompt, "prompt the result was cached under")
}

func newProcessor() (*pipeline.Processor, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return pipeline.NewProcessor(cfg)
}
