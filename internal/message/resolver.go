// Package message resolves the narrative high/low risk text shown for a
// category's extremal question.
package message

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// NoQuestionText is shown when a category has no scored question to look up
const NoQuestionText = "質問が見つかりませんでした"

// Variant names used in fallback text
const (
	VariantHigh = "High risk"
	VariantLow  = "Low risk"
)

// HighLow is the message pair stored per question
type HighLow struct {
	HighRisk string `json:"high_risk"`
	LowRisk  string `json:"low_risk"`
}

type entry struct {
	Messages *HighLow `json:"messages"`
}

// Store is the decoded document: category -> question number -> messages
type Store map[string]map[string]entry

// Fallback returns the text used when a question has no message of the given variant
func Fallback(variant, question string) string {
	return fmt.Sprintf("メッセージデータのリビルドが必要です。設問%sに対応する %s メッセージが見つかりませんでした", question, variant)
}

// Resolver looks up messages, loading the store once per instance
type Resolver struct {
	source Source
	logger *slog.Logger

	mu    sync.Mutex
	store Store
}

// NewResolver creates a resolver over source
func NewResolver(source Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{source: source, logger: logger}
}

// Load fetches and decodes the store on first success; later calls reuse it.
// A failed load is not cached.
func (r *Resolver) Load(ctx context.Context) (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		return r.store, nil
	}

	data, err := r.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("decode message store %s: %w", r.source, err)
	}
	if store == nil {
		store = Store{}
	}

	r.logger.Debug("message store loaded", "source", r.source.String(), "categories", len(store))
	r.store = store
	return store, nil
}

// Lookup returns the message pair for (category, question). Each variant
// missing from the store is replaced by its fallback independently. When the
// store cannot be loaded both fallbacks are returned together with the error.
func (r *Resolver) Lookup(ctx context.Context, category, question string) (HighLow, error) {
	fallback := HighLow{
		HighRisk: Fallback(VariantHigh, question),
		LowRisk:  Fallback(VariantLow, question),
	}

	store, err := r.Load(ctx)
	if err != nil {
		return fallback, err
	}

	var found HighLow
	if msgs := store[category][question].Messages; msgs != nil {
		found = *msgs
	}

	if found.HighRisk == "" {
		r.logger.Warn("high risk message missing", "category", category, "question", question)
		found.HighRisk = fallback.HighRisk
	}
	if found.LowRisk == "" {
		r.logger.Warn("low risk message missing", "category", category, "question", question)
		found.LowRisk = fallback.LowRisk
	}

	return found, nil
}

// HighRiskMessage returns the high risk text for a question, never failing
func (r *Resolver) HighRiskMessage(ctx context.Context, category, question string, withBreaks bool) string {
	return r.message(ctx, category, question, true, withBreaks)
}

// LowRiskMessage returns the low risk text for a question, never failing
func (r *Resolver) LowRiskMessage(ctx context.Context, category, question string, withBreaks bool) string {
	return r.message(ctx, category, question, false, withBreaks)
}

func (r *Resolver) message(ctx context.Context, category, question string, high, withBreaks bool) string {
	pair, err := r.Lookup(ctx, category, question)
	if err != nil {
		r.logger.Warn("message store unavailable, using fallback", "source", r.source.String(), "error", err)
	}

	text := pair.LowRisk
	if high {
		text = pair.HighRisk
	}
	if withBreaks {
		text = WithBreaks(text)
	}
	return text
}

// WithBreaks converts newlines into <br> markup
func WithBreaks(text string) string {
	return strings.ReplaceAll(text, "\n", "<br>")
}
