package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/veracity/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputPath   string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Score many responses from a JSON Lines file in parallel",
	Long: `Batch runs detection over a JSON Lines file:
- Each line is a request: {"response": "...", "context": {...}, "resample": false}
- Requests run in parallel with a configurable worker count
- Results are written as JSON Lines in input order
- Malformed lines are reported without stopping the batch

Example:
  veracity batch requests.jsonl
  veracity batch requests.jsonl --concurrency 10 --output results.jsonl
  veracity batch requests.jsonl --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers from config)")
	batchCmd.Flags().StringVar(&outputPath, "output", "", "output JSON Lines path (default: stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

// batchLine is one line of batch output
type batchLine struct {
	Line   int         `json:"line"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]

	deps, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close() }()

	workers := concurrency
	if workers <= 0 {
		workers = deps.cfg.Concurrency.Workers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Veracity Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if deps.provider != nil {
		fmt.Fprintf(os.Stderr, "  Sampler:      %s\n", deps.provider.Name())
	}
	fmt.Fprintf(os.Stderr, "\n")

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, createErr := os.Create(outputPath)
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		out = f
	}

	processor := worker.NewBatchProcessor(deps.detector, deps.sampler, workers)

	fmt.Fprintf(os.Stderr, "⚙️  Processing requests with %d workers...\n", workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	stats, err := writeBatchResults(out, results)
	if err != nil {
		return err
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:           %d requests\n", len(results))
	fmt.Fprintf(os.Stderr, "  Reliable:        %d\n", stats.reliable)
	fmt.Fprintf(os.Stderr, "  Hallucinations:  %d\n", stats.flagged)
	fmt.Fprintf(os.Stderr, "  Failures:        %d\n", stats.failed)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

type batchStats struct {
	reliable int
	flagged  int
	failed   int
}

// writeBatchResults writes one JSON line per result and tallies verdicts
func writeBatchResults(w io.Writer, results []*worker.DetectJobResult) (batchStats, error) {
	var stats batchStats
	enc := json.NewEncoder(w)

	for _, r := range results {
		line := batchLine{Line: r.Line}
		switch {
		case r.Error != nil:
			stats.failed++
			line.Error = r.Error.Error()
			fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", r.Line, r.Error)
		case r.Result.IsHallucination:
			stats.flagged++
			line.Result = r.Result
		default:
			stats.reliable++
			line.Result = r.Result
		}

		if err := enc.Encode(line); err != nil {
			return stats, fmt.Errorf("write result: %w", err)
		}
	}
	return stats, nil
}
