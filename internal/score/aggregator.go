// Package score aggregates adjusted answer scores per category and selects
// the highest- and lowest-risk categories.
package score

import "errors"

// ErrEmptyAggregate is returned when extremes are requested before any entry
var ErrEmptyAggregate = errors.New("no categories recorded")

type entry struct {
	score        float64
	recordNumber string
}

type categoryData struct {
	total   float64
	entries []entry
}

// Aggregator accumulates per-category totals for one scoring pass.
// It is not safe for concurrent use; each pass builds its own.
type Aggregator struct {
	order      []string
	categories map[string]*categoryData
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		categories: make(map[string]*categoryData),
	}
}

// AddEntry adds a question's final score to its category
func (a *Aggregator) AddEntry(category string, score float64, recordNumber string) {
	data, ok := a.categories[category]
	if !ok {
		data = &categoryData{}
		a.categories[category] = data
		a.order = append(a.order, category)
	}

	data.total += score
	data.entries = append(data.entries, entry{score: score, recordNumber: recordNumber})
}

// Categories returns recorded categories in the order they were first added
func (a *Aggregator) Categories() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// MaxScoreCategory returns the category with the highest total.
// Ties go to the category recorded first.
func (a *Aggregator) MaxScoreCategory() (string, error) {
	if len(a.order) == 0 {
		return "", ErrEmptyAggregate
	}

	best := a.order[0]
	bestTotal := a.categories[best].total
	for _, category := range a.order[1:] {
		if total := a.categories[category].total; total > bestTotal {
			best, bestTotal = category, total
		}
	}
	return best, nil
}

// MinScoreCategory returns the category with the lowest total.
// Ties go to the category recorded first.
func (a *Aggregator) MinScoreCategory() (string, error) {
	if len(a.order) == 0 {
		return "", ErrEmptyAggregate
	}

	best := a.order[0]
	bestTotal := a.categories[best].total
	for _, category := range a.order[1:] {
		if total := a.categories[category].total; total < bestTotal {
			best, bestTotal = category, total
		}
	}
	return best, nil
}

// CategoryTotalScore returns a category's total; false for unknown categories
func (a *Aggregator) CategoryTotalScore(category string) (float64, bool) {
	data, ok := a.categories[category]
	if !ok {
		return 0, false
	}
	return data.total, true
}

// CategoryAverageScore returns the mean entry score of a category
func (a *Aggregator) CategoryAverageScore(category string) (float64, bool) {
	data, ok := a.categories[category]
	if !ok || len(data.entries) == 0 {
		return 0, false
	}
	return data.total / float64(len(data.entries)), true
}

// IsCategoryAverageScoreAbove reports whether the category mean is at least threshold
func (a *Aggregator) IsCategoryAverageScoreAbove(category string, threshold float64) bool {
	avg, ok := a.CategoryAverageScore(category)
	if !ok {
		return false
	}
	return avg >= threshold
}

// CategoryEntries returns the number of answers recorded for a category
func (a *Aggregator) CategoryEntries(category string) int {
	data, ok := a.categories[category]
	if !ok {
		return 0
	}
	return len(data.entries)
}

// CategoryMaxScoreQuestion returns the record number with the highest
// individual score in the category. The first such entry wins.
func (a *Aggregator) CategoryMaxScoreQuestion(category string) (string, bool) {
	return a.pickEntry(category, func(candidate, current float64) bool { return candidate > current })
}

// CategoryMinScoreQuestion returns the record number with the lowest
// individual score in the category. The first such entry wins.
func (a *Aggregator) CategoryMinScoreQuestion(category string) (string, bool) {
	return a.pickEntry(category, func(candidate, current float64) bool { return candidate < current })
}

func (a *Aggregator) pickEntry(category string, better func(candidate, current float64) bool) (string, bool) {
	data, ok := a.categories[category]
	if !ok || len(data.entries) == 0 {
		return "", false
	}

	picked := data.entries[0]
	for _, e := range data.entries[1:] {
		if better(e.score, picked.score) {
			picked = e
		}
	}
	return picked.recordNumber, true
}

// CategoryImageName selects the result image for a category from its total.
// Returns "" when the category has no entries or no image.
func (a *Aggregator) CategoryImageName(category string, table ImageTable) string {
	total, ok := a.CategoryTotalScore(category)
	if !ok || a.CategoryEntries(category) == 0 {
		return ""
	}
	return table.ImageName(category, total)
}
