package score

import (
	"log/slog"

	"github.com/ppiankov/riskpoint/internal/impact"
	"github.com/ppiankov/riskpoint/internal/model"
)

// Answer is one answered question entering a scoring pass
type Answer struct {
	RecordNumber string
	Category     string
	Value        int    // Risk point of the chosen option
	Formula      string // Impact formula of the chosen option
}

// Outcome is the result of folding answers into category totals
type Outcome struct {
	Aggregator *Aggregator
	Total      float64
	Answers    []model.ScoredAnswer
	Unresolved []string // Formula targets that were not answered
}

// Calculate applies every answer's impact formula to the other answers and
// aggregates the adjusted scores. A question's final score is its base value
// multiplied by every coefficient other answers contribute to it.
// Record numbers are expected to be unique within answers.
func Calculate(answers []Answer, logger *slog.Logger) *Outcome {
	if logger == nil {
		logger = slog.Default()
	}

	index := make(map[string]int, len(answers))
	for i, a := range answers {
		index[a.RecordNumber] = i
	}

	coefficients := make([][]float64, len(answers))
	var unresolved []string
	seenUnresolved := make(map[string]bool)

	for _, source := range answers {
		adjustments, malformed := impact.ParseFormula(source.Formula)
		for _, entry := range malformed {
			logger.Warn("malformed impact entry", "source", source.RecordNumber, "entry", entry)
		}

		for _, adj := range adjustments {
			if adj.Target == source.RecordNumber {
				logger.Debug("ignoring self-targeted impact", "record", source.RecordNumber)
				continue
			}
			target, ok := index[adj.Target]
			if !ok {
				logger.Warn("impact target not answered", "source", source.RecordNumber, "target", adj.Target)
				if !seenUnresolved[adj.Target] {
					seenUnresolved[adj.Target] = true
					unresolved = append(unresolved, adj.Target)
				}
				continue
			}
			coefficients[target] = append(coefficients[target], adj.Coefficient)
		}
	}

	out := &Outcome{
		Aggregator: NewAggregator(),
		Answers:    make([]model.ScoredAnswer, 0, len(answers)),
		Unresolved: unresolved,
	}

	for i, a := range answers {
		final := float64(a.Value)
		for _, c := range coefficients[i] {
			final *= c
		}

		out.Total += final
		out.Aggregator.AddEntry(a.Category, final, a.RecordNumber)
		out.Answers = append(out.Answers, model.ScoredAnswer{
			RecordNumber: a.RecordNumber,
			Category:     a.Category,
			Base:         a.Value,
			Final:        final,
			Coefficients: coefficients[i],
			Formula:      a.Formula,
		})
	}

	return out
}
