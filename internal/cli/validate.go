package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/riskpoint/internal/pipeline"
	"github.com/spf13/cobra"
)

var validateJSON bool

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the question feed for data problems",
	Long: `Validate loads the question feed and reports records that would skew
scoring: duplicate record numbers, visible questions without choices,
impact rules pointing at unknown or own questions, rules without a
threshold, unknown operators and zero coefficients.

Exits non-zero when any error-level issue is found.

Example:
  riskpoint validate
  riskpoint validate --mock --json`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the report as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, _, p, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.HTTP.Timeout)
	defer cancel()

	if _, err := p.Load(ctx); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	report := p.Validation()

	if validateJSON {
		if err := pipeline.NewRenderer(false).RenderJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		for _, issue := range report.Issues {
			fmt.Println(issue.String())
		}
		fmt.Printf("%d records, %d errors, %d warnings\n", report.Records, report.Errors(), report.Warnings())
	}

	if n := report.Errors(); n > 0 {
		return fmt.Errorf("feed has %d error(s)", n)
	}
	return nil
}
