// Package llm writes optional supplementary preparedness advice for a scored
// survey. Advice is appended to a result and never changes scores or messages.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/riskpoint/internal/model"
)

// Provider generates advice text from a scored result
type Provider interface {
	// Name returns the provider name
	Name() string

	// Advise generates advice for the result
	Advise(ctx context.Context, req AdviceRequest) (*AdviceResponse, error)
}

// AdviceRequest contains the input for advice generation
type AdviceRequest struct {
	Result model.Result

	// Prompt overrides the default prompt when set
	Prompt string

	// Model overrides the configured model when set
	Model string

	MaxTokens int
}

// AdviceResponse contains the generated advice
type AdviceResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds provider settings
type Config struct {
	// Provider name: "openai", "ollama" or "" (disabled)
	Provider string

	Model     string
	APIKey    string
	BaseURL   string
	Timeout   int // seconds
	MaxTokens int
}

// DefaultConfig returns advice disabled
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 600,
	}
}

// BuildPrompt describes the scored result for the model
func BuildPrompt(result model.Result) string {
	var b strings.Builder

	b.WriteString(`You are helping a household review a disaster-preparedness self-assessment.
Higher scores mean higher risk. Do not restate or change the scores.

RULES:
1. Give 3-5 short, concrete actions, most urgent first.
2. Focus on the highest-risk category; mention the lowest-risk category only as a strength.
3. Do not invent facts about the household beyond the data below.
4. Answer in the same language as the category names.

`)

	fmt.Fprintf(&b, "Total score: %.2f\n", result.TotalScore)
	b.WriteString("Category totals:\n")
	for _, c := range result.Categories {
		fmt.Fprintf(&b, "- %s: %.2f (%d answers)\n", c.Category, c.Total, c.Entries)
	}

	if result.HighRisk.Category != "" {
		fmt.Fprintf(&b, "\nHighest risk: %s (%.2f)\n", result.HighRisk.Category, result.HighRisk.Score)
		if result.HighRisk.Message != "" {
			fmt.Fprintf(&b, "Existing guidance: %s\n", result.HighRisk.Message)
		}
	}
	if result.LowRisk.Category != "" {
		fmt.Fprintf(&b, "Lowest risk: %s (%.2f)\n", result.LowRisk.Category, result.LowRisk.Score)
	}

	b.WriteString("\nWrite the actions as a short bulleted list.")
	return b.String()
}
