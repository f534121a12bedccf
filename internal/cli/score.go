package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/riskpoint/internal/params"
	"github.com/ppiankov/riskpoint/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	scoreAnswers  string
	scoreOutJSON  string
	scoreOutMD    string
	scoreOutHTML  string
	scoreShareURL string
	noAnswers     bool
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one answer set",
	Long: `Score computes weighted risk points for one answer set:
- Apply cross-question impact coefficients to each answer
- Total risk points per category
- Pick the highest- and lowest-risk categories
- Resolve their feedback messages and result images

Example:
  riskpoint score --mock --answers "1=1&2=2&3=1&4=1&5=0&6=0&7=0&8=1&9=1&10=0"
  riskpoint score --answers "1=0&2=1" --debug
  riskpoint score --answers "..." --json result.json --md result.md --html result.html
  riskpoint score --answers "..." --share-url https://example.com/result`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreAnswers, "answers", "", "selections as a query string of record number=option index")
	scoreCmd.Flags().StringVar(&scoreOutJSON, "json", "", "output JSON path (optional)")
	scoreCmd.Flags().StringVar(&scoreOutMD, "md", "", "output Markdown path (optional)")
	scoreCmd.Flags().StringVar(&scoreOutHTML, "html", "", "output HTML path (optional)")
	scoreCmd.Flags().StringVar(&scoreShareURL, "share-url", "", "base URL for a shareable result link")
	scoreCmd.Flags().BoolVar(&noAnswers, "no-answers", false, "omit the per-answer table from Markdown output")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, _, p, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.HTTP.Timeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Answers: %s\n", scoreAnswers)
		fmt.Fprintf(os.Stderr, "Mock feed: %v\n", cfg.Feed.Mock)
		fmt.Fprintf(os.Stderr, "Debug: %v\n", cfg.Output.Debug)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "⚙️  Loading questions...\n")
	}

	set, err := p.Load(ctx)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded %d records in %d categories\n", set.Count(), len(set.Categories()))
	}

	store, err := params.FromQuery(scoreAnswers, nil)
	if err != nil {
		return fmt.Errorf("parse answers: %w", err)
	}

	result, err := p.Score(ctx, store.All())
	if err != nil {
		return fmt.Errorf("score failed: %w", err)
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Scored %d/%d answers\n", result.Answered, result.Expected)
		if len(result.Unresolved) > 0 {
			fmt.Fprintf(os.Stderr, "⚠️  Unresolved impact targets: %v\n", result.Unresolved)
		}
		fmt.Fprintln(os.Stderr)
	}

	shareURL := ""
	if scoreShareURL != "" {
		shareURL, err = pipeline.ShareURL(scoreShareURL, store.All())
		if err != nil {
			return fmt.Errorf("share url: %w", err)
		}
	}

	renderer := pipeline.NewRenderer(!noAnswers)
	if err := renderer.RenderSummary(os.Stdout, result); err != nil {
		return err
	}
	if shareURL != "" {
		fmt.Printf("Share: %s\n", shareURL)
	}

	outputs := []struct {
		path   string
		render func(f *os.File) error
	}{
		{scoreOutJSON, func(f *os.File) error { return renderer.RenderJSON(f, result) }},
		{scoreOutMD, func(f *os.File) error { return renderer.RenderMarkdown(f, result) }},
		{scoreOutHTML, func(f *os.File) error { return renderer.RenderHTML(f, result, shareURL) }},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := writeFile(out.path, out.render); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", out.path)
		}
	}

	return nil
}

func writeFile(path string, render func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return render(f)
}
