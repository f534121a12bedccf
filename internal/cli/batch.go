package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/riskpoint/internal/pipeline"
	"github.com/ppiankov/riskpoint/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	batchOutJSON string
	batchTimeout time.Duration
)

// batchResult is one line of the batch JSON output
type batchResult struct {
	Line   int    `json:"line"`
	Query  string `json:"query"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Score many answer sets from a file in parallel",
	Long: `Batch scores answer sets concurrently:
- Read one query string per line (blank lines and # comments are skipped)
- Load the question feed once
- Score every set with a configurable worker count
- Print a per-line summary and optionally write all results as JSON

Example:
  riskpoint batch answers.txt --mock
  riskpoint batch answers.txt --concurrency 8 --json results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&batchOutJSON, "json", "", "output JSON path for all results (optional)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 5*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, _, p, err := setup()
	if err != nil {
		return err
	}
	workers := cfg.Concurrency.Workers
	if concurrency > 0 {
		workers = concurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  riskpoint Batch Scoring\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	fmt.Fprintf(os.Stderr, "⚙️  Loading questions...\n")
	if _, err := p.Load(ctx); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	processor := worker.NewBatchProcessor(p, workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Scored %d answer sets\n", len(results))
	fmt.Fprintf(os.Stderr, "\n")

	successCount := 0
	failureCount := 0
	out := make([]batchResult, 0, len(results))

	for _, r := range results {
		entry := batchResult{Line: r.Line, Query: r.Query}
		if r.Error != nil {
			failureCount++
			entry.Error = r.Error.Error()
			out = append(out, entry)
			fmt.Fprintf(os.Stderr, "✗ %v\n", r.Error)
			continue
		}

		successCount++
		entry.Result = r.Result
		out = append(out, entry)
		fmt.Fprintf(os.Stderr, "✓ line %d: %.2f RP (high: %s, low: %s)\n",
			r.Line, r.Result.TotalScore, r.Result.HighRisk.Category, r.Result.LowRisk.Category)
	}

	if batchOutJSON != "" {
		renderer := pipeline.NewRenderer(true)
		if err := writeFile(batchOutJSON, func(f *os.File) error { return renderer.RenderJSON(f, out) }); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d answer sets\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	if batchOutJSON != "" {
		fmt.Fprintf(os.Stderr, "  Output:    %s\n", batchOutJSON)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
