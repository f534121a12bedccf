// Package record normalizes the raw attribute-value feed into questions,
// choices and impact rules.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/ppiankov/riskpoint/internal/model"
)

// ErrDecode is returned when the feed document is not valid JSON
var ErrDecode = errors.New("decode feed")

// Set holds one normalization pass over a feed. It is read-only after
// construction and safe for concurrent readers.
type Set struct {
	count   int
	schema  model.Schema
	raw     []model.RawRecord
	records []model.Record
}

// Parse decodes a feed document and normalizes it
func Parse(data []byte, schema model.Schema) (*Set, error) {
	var feed model.RawFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return New(feed, schema), nil
}

// New normalizes an already decoded feed
func New(feed model.RawFeed, schema model.Schema) *Set {
	s := &Set{
		count:   feed.Count,
		schema:  schema,
		raw:     feed.Items,
		records: make([]model.Record, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		s.records = append(s.records, normalize(item, schema))
	}
	return s
}

// Count returns the item count reported by the feed
func (s *Set) Count() int {
	return s.count
}

// Len returns the number of records actually present
func (s *Set) Len() int {
	return len(s.records)
}

// Schema returns the field names this set was normalized with
func (s *Set) Schema() model.Schema {
	return s.schema
}

// Records returns every record in feed order
func (s *Set) Records() []model.Record {
	return slices.Clone(s.records)
}

// Record looks up a record by its record number
func (s *Set) Record(recordNumber string) (model.Record, bool) {
	for _, r := range s.records {
		if r.RecordNumber == recordNumber {
			return r, true
		}
	}
	return model.Record{}, false
}

// Questions returns the question text of every record
func (s *Set) Questions() []string {
	questions := make([]string, len(s.records))
	for i, r := range s.records {
		questions[i] = r.Question
	}
	return questions
}

// Categories returns distinct categories in first-seen order
func (s *Set) Categories() []string {
	var categories []string
	seen := make(map[string]bool)
	for _, r := range s.records {
		if !seen[r.Category] {
			seen[r.Category] = true
			categories = append(categories, r.Category)
		}
	}
	return categories
}

// ItemsByCategory returns the visible records of a category ordered by
// display order. Records without a usable order sort last; ties keep feed order.
func (s *Set) ItemsByCategory(category string) []model.Record {
	var items []model.Record
	for _, r := range s.records {
		if r.Category != category {
			continue
		}
		if r.Visibility == s.schema.DisabledValue {
			continue
		}
		items = append(items, r)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return displayOrder(items[i]) < displayOrder(items[j])
	})

	return items
}

// Visible returns every visible record, grouped by category in category
// order and sorted within each category
func (s *Set) Visible() []model.Record {
	var visible []model.Record
	for _, category := range s.Categories() {
		visible = append(visible, s.ItemsByCategory(category)...)
	}
	return visible
}

// CalculateRiskPoints sums the risk point of every choice of every record
func (s *Set) CalculateRiskPoints() int {
	total := 0
	for _, r := range s.records {
		for _, c := range r.Choices {
			total += c.RiskPoint
		}
	}
	return total
}

// Value returns the unwrapped scalar for key on every record, nil where the
// field is absent or not a string/number wrapper
func (s *Set) Value(key string) []*string {
	values := make([]*string, len(s.raw))
	for i, item := range s.raw {
		field, ok := item[key]
		if !ok {
			continue
		}
		if text, ok := field.Text(); ok {
			values[i] = &text
		}
	}
	return values
}

// ChoiceTable returns the ordered choices of every record
func (s *Set) ChoiceTable() [][]model.Choice {
	table := make([][]model.Choice, len(s.records))
	for i, r := range s.records {
		table[i] = slices.Clone(r.Choices)
	}
	return table
}

// ImpactTable returns impact rule groups, one per record. With a record
// number only the groups of matching records are returned.
func (s *Set) ImpactTable(recordNumber ...string) [][]model.ImpactRule {
	filter := len(recordNumber) > 0
	table := make([][]model.ImpactRule, 0, len(s.records))
	for _, r := range s.records {
		if filter && r.RecordNumber != recordNumber[0] {
			continue
		}
		table = append(table, slices.Clone(r.Impacts))
	}
	return table
}

// displayOrder parses a record's display order, +Inf when missing or invalid
func displayOrder(r model.Record) float64 {
	v, ok := parseFloat(r.DisplayOrder)
	if !ok || math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}
