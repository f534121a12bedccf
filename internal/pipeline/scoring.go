package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/riskpoint/internal/impact"
	"github.com/ppiankov/riskpoint/internal/message"
	"github.com/ppiankov/riskpoint/internal/model"
	"github.com/ppiankov/riskpoint/internal/params"
	"github.com/ppiankov/riskpoint/internal/record"
	"github.com/ppiankov/riskpoint/internal/score"
)

// ScoreQuery scores an answer query such as "1=0&2=1"
func (p *Pipeline) ScoreQuery(ctx context.Context, rawQuery string) (*model.Result, error) {
	store, err := params.FromQuery(strings.TrimPrefix(rawQuery, "?"), nil)
	if err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	return p.Score(ctx, store.All())
}

// Score runs one scoring pass over selections (record number -> option index).
// Keys that are not visible questions are ignored.
func (p *Pipeline) Score(ctx context.Context, selections map[string]string) (*model.Result, error) {
	start := time.Now()
	result, err := p.score(ctx, selections)

	if p.metrics != nil {
		p.metrics.ScoringDuration.Observe(time.Since(start).Seconds())
		outcome := "success"
		switch {
		case errors.Is(err, ErrIncomplete):
			outcome = "incomplete"
		case err != nil:
			outcome = "error"
		}
		p.metrics.ScoringPasses.WithLabelValues(outcome).Inc()
	}

	return result, err
}

func (p *Pipeline) score(ctx context.Context, selections map[string]string) (*model.Result, error) {
	set := p.records()
	if set == nil {
		return nil, ErrNotLoaded
	}

	answers, expected, err := collectAnswers(set, selections)
	if err != nil {
		return nil, err
	}

	complete := len(answers) == expected
	if !complete && !p.Debug() {
		return nil, fmt.Errorf("%w: %d of %d answered", ErrIncomplete, len(answers), expected)
	}

	outcome := score.Calculate(answers, p.logger)
	if p.metrics != nil && len(outcome.Unresolved) > 0 {
		p.metrics.UnresolvedTargets.Add(float64(len(outcome.Unresolved)))
	}

	result := &model.Result{
		ScoredAt:   p.now().UTC(),
		TotalScore: outcome.Total,
		Answers:    outcome.Answers,
		Answered:   len(answers),
		Expected:   expected,
		Complete:   complete,
		Unresolved: outcome.Unresolved,
	}

	agg := outcome.Aggregator
	for _, category := range agg.Categories() {
		total, _ := agg.CategoryTotalScore(category)
		average, _ := agg.CategoryAverageScore(category)
		result.Categories = append(result.Categories, model.CategoryScore{
			Category: category,
			Total:    total,
			Average:  average,
			Entries:  agg.CategoryEntries(category),
			Image:    p.ImagePath(agg.CategoryImageName(category, p.images)),
		})
	}

	if err := p.resolveExtremes(ctx, agg, result); err != nil {
		return nil, err
	}

	if p.advisor != nil {
		advice, err := p.advisor.Advise(ctx, *result)
		if err != nil {
			p.logger.Warn("advice generation failed", "error", err)
		} else {
			result.Advice = advice
		}
	}

	p.logger.Debug("scored",
		"total", result.TotalScore,
		"answered", result.Answered,
		"high", result.HighRisk.Category,
		"low", result.LowRisk.Category,
	)

	return result, nil
}

// collectAnswers turns selections into scoring answers in questionnaire order
func collectAnswers(set *record.Set, selections map[string]string) ([]score.Answer, int, error) {
	visible := set.Visible()
	answers := make([]score.Answer, 0, len(visible))

	for _, rec := range visible {
		raw, ok := selections[rec.RecordNumber]
		if !ok {
			continue
		}

		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || idx < 0 || idx >= len(rec.Choices) {
			return nil, 0, fmt.Errorf("%w: question %s has no option %q", ErrInvalidSelection, rec.RecordNumber, raw)
		}

		riskPoint := rec.Choices[idx].RiskPoint
		answers = append(answers, score.Answer{
			RecordNumber: rec.RecordNumber,
			Category:     rec.Category,
			Value:        riskPoint,
			Formula:      impact.ComposeFormula(strconv.Itoa(riskPoint), set.ImpactTable(rec.RecordNumber)),
		})
	}

	return answers, len(visible), nil
}

// resolveExtremes fills the high and low risk categories, looking up both
// messages concurrently
func (p *Pipeline) resolveExtremes(ctx context.Context, agg *score.Aggregator, result *model.Result) error {
	maxCategory, err := agg.MaxScoreCategory()
	if errors.Is(err, score.ErrEmptyAggregate) {
		return nil
	}
	if err != nil {
		return err
	}
	minCategory, err := agg.MinScoreCategory()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result.HighRisk = p.extreme(gctx, agg, maxCategory, true)
		return nil
	})
	g.Go(func() error {
		result.LowRisk = p.extreme(gctx, agg, minCategory, false)
		return nil
	})

	return g.Wait()
}

func (p *Pipeline) extreme(ctx context.Context, agg *score.Aggregator, category string, high bool) model.Extreme {
	total, _ := agg.CategoryTotalScore(category)
	e := model.Extreme{
		Category: category,
		Score:    total,
		Image:    p.ImagePath(agg.CategoryImageName(category, p.images)),
	}

	question, ok := agg.CategoryMaxScoreQuestion(category)
	variant := message.VariantHigh
	if !high {
		question, ok = agg.CategoryMinScoreQuestion(category)
		variant = message.VariantLow
	}

	switch {
	case !ok:
		e.Message = message.NoQuestionText
	case high:
		e.Message = p.resolver.HighRiskMessage(ctx, category, question, false)
	default:
		e.Message = p.resolver.LowRiskMessage(ctx, category, question, false)
	}
	e.RecordNumber = question
	e.MessageHTML = message.WithBreaks(e.Message)

	if p.metrics != nil && ok && e.Message == message.Fallback(variant, question) {
		p.metrics.MessageFallbacks.Inc()
	}

	return e
}
