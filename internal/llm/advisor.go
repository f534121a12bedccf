package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/riskpoint/internal/model"
)

// Advisor wraps a provider and produces model.Advice
type Advisor struct {
	provider Provider
	config   Config
}

// NewAdvisor creates an advisor; it returns nil when advice is disabled
func NewAdvisor(config Config) (*Advisor, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}
	return &Advisor{provider: provider, config: config}, nil
}

// NewAdvisorWithProvider creates an advisor around an existing provider
func NewAdvisorWithProvider(provider Provider, config Config) *Advisor {
	return &Advisor{provider: provider, config: config}
}

// Advise generates advice for a scored result
func (a *Advisor) Advise(ctx context.Context, result model.Result) (*model.Advice, error) {
	resp, err := a.provider.Advise(ctx, AdviceRequest{
		Result:    result,
		Model:     a.config.Model,
		MaxTokens: a.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("advice: %w", err)
	}

	return &model.Advice{
		Provider: a.provider.Name(),
		Model:    resp.Model,
		Text:     resp.Text,
	}, nil
}
