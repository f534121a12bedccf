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
	questionsAnswers string
	questionsJSON    bool
)

// questionsCmd represents the questions command
var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the questionnaire grouped by category",
	Long: `Load the question feed and print every visible question with its
choices, grouped by category in display order.

Example:
  riskpoint questions --mock
  riskpoint questions --answers "1=0&2=1" --debug
  riskpoint questions --json`,
	Args: cobra.NoArgs,
	RunE: runQuestions,
}

func init() {
	rootCmd.AddCommand(questionsCmd)

	questionsCmd.Flags().StringVar(&questionsAnswers, "answers", "", "selections to mark as chosen (query string)")
	questionsCmd.Flags().BoolVar(&questionsJSON, "json", false, "print JSON instead of text")
}

func runQuestions(cmd *cobra.Command, args []string) error {
	cfg, _, p, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.HTTP.Timeout)
	defer cancel()

	if _, err := p.Load(ctx); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	store, err := params.FromQuery(questionsAnswers, nil)
	if err != nil {
		return fmt.Errorf("parse answers: %w", err)
	}

	q, err := p.Questionnaire(store.All())
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(false)
	if questionsJSON {
		return renderer.RenderJSON(os.Stdout, q)
	}
	return renderer.RenderQuestionnaire(os.Stdout, q)
}
