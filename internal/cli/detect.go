package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/veracity/internal/extract"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	responseFile   string
	contextFile    string
	contextHTML    string
	contextEntries []string
	resample       bool
	outputFormat   string
	detectTimeout  time.Duration
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect [response]",
	Short: "Score a single response for hallucination",
	Long: `Detect analyzes one response against its context:
- Measure hedging and linguistic uncertainty
- Resample the configured model and compare answers (--resample)
- Verify each claim against the context and knowledge base
- Report a confidence score, categories, evidence and mitigations

The response is read from the argument, --response-file, or stdin ("-").

Example:
  veracity detect "Earth orbits the Sun." --set astronomy="The Earth orbits the Sun."
  veracity detect --response-file answer.txt --context context.yaml
  veracity detect --response-file answer.txt --context-html source.html --format text
  echo "Paris is the capital of France." | veracity detect - --resample`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	// Input flags
	detectCmd.Flags().StringVar(&responseFile, "response-file", "", "read the response from a file")
	detectCmd.Flags().StringVar(&contextFile, "context", "", "context file (JSON or YAML object)")
	detectCmd.Flags().StringVar(&contextHTML, "context-html", "", "HTML document whose visible text is added to the context as \"document\"")
	detectCmd.Flags().StringArrayVar(&contextEntries, "set", nil, "context entry as key=value (repeatable)")

	// Detection flags
	detectCmd.Flags().BoolVar(&resample, "resample", false, "sample the configured model for a consistency check")
	detectCmd.Flags().DurationVar(&detectTimeout, "timeout", 2*time.Minute, "overall detection timeout")

	// Output flags
	detectCmd.Flags().StringVar(&outputFormat, "format", "json", "output format (json, text)")
}

func runDetect(cmd *cobra.Command, args []string) error {
	response, err := readResponse(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	input, err := buildContext(contextFile, contextHTML, contextEntries)
	if err != nil {
		return err
	}

	deps, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close() }()

	if resample && deps.sampler == nil {
		return fmt.Errorf("--resample requires a sampler provider (set sampler.provider in config or VERACITY_SAMPLER_PROVIDER)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), detectTimeout)
	defer cancel()

	result, err := deps.detector.DetectRequest(ctx, model.DetectRequest{
		Response: response,
		Context:  input,
		Resample: resample,
	}, deps.sampler)
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), result, outputFormat)
}

// readResponse takes the response from the argument, --response-file, or
// stdin when the argument is "-"
func readResponse(stdin io.Reader, args []string) (string, error) {
	switch {
	case responseFile != "":
		data, err := os.ReadFile(responseFile)
		if err != nil {
			return "", fmt.Errorf("read response file: %w", err)
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("no response given (pass it as an argument, --response-file, or - for stdin)")
	}
}

// buildContext merges the context file, the HTML document and --set entries,
// later sources overriding earlier ones
func buildContext(path, htmlPath string, entries []string) (map[string]interface{}, error) {
	input := map[string]interface{}{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read context file: %w", err)
		}

		// JSON documents parse as YAML
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse context file %s: %w", filepath.Base(path), err)
		}
		switch m := doc.(type) {
		case nil:
		case map[string]interface{}:
			for k, v := range m {
				input[k] = v
			}
		default:
			return nil, model.NewInvalidInputError("context", "must be an object")
		}
	}

	if htmlPath != "" {
		data, err := os.ReadFile(htmlPath)
		if err != nil {
			return nil, fmt.Errorf("read context HTML: %w", err)
		}
		text, err := extract.VisibleText(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse context HTML: %w", err)
		}
		input["document"] = text
	}

	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --set entry %q (expected key=value)", entry)
		}
		input[strings.TrimSpace(key)] = value
	}

	return input, nil
}

// writeResult renders a result as JSON or a short text report
func writeResult(w io.Writer, result model.DetectionResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)

	case "text":
		verdict := "RELIABLE"
		if result.IsHallucination {
			verdict = "POTENTIAL HALLUCINATION"
		}

		fv := result.Evidence.FactVerification
		fmt.Fprintf(w, "Verdict:     %s\n", verdict)
		fmt.Fprintf(w, "Confidence:  %.2f (%s)\n", result.ConfidenceScore, result.ConfidenceLevel)
		fmt.Fprintf(w, "Claims:      %d verified, %d contradicted, %d unverified\n", fv.VerifiedCount, fv.ContradictedCount, fv.UnverifiedCount)
		if c := result.Evidence.Consistency; c != nil {
			fmt.Fprintf(w, "Agreement:   %.2f over %d/%d samples\n", c.AgreementScore, c.EffectiveSamples(), c.RequestedSamples)
		}
		fmt.Fprintf(w, "\n%s\n", result.Reasoning)

		fmt.Fprintf(w, "\nMitigations:\n")
		for _, m := range result.MitigationSuggestions {
			fmt.Fprintf(w, "  - %s\n", m)
		}
		return nil

	default:
		return fmt.Errorf("unknown output format: %s (supported: json, text)", format)
	}
}
