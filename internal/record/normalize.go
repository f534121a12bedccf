package record

import (
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/riskpoint/internal/model"
)

// normalize converts one raw record into the typed model
func normalize(item model.RawRecord, schema model.Schema) model.Record {
	r := model.Record{
		RecordNumber: scalar(item, schema.RecordNumber),
		Question:     scalar(item, schema.Question),
		Category:     scalar(item, schema.Category),
		DisplayOrder: scalar(item, schema.DisplayOrder),
		Visibility:   scalar(item, schema.Visibility),
	}

	for _, choice := range item[schema.Choices].Items() {
		r.Choices = append(r.Choices, model.Choice{
			ID:        tableID(choice),
			Answer:    tableField(choice, schema.ChoiceAnswer),
			RiskPoint: parseIntOrZero(tableField(choice, schema.ChoiceRiskPoint)),
		})
	}

	for _, impact := range item[schema.Impacts].Items() {
		r.Impacts = append(r.Impacts, model.ImpactRule{
			ID:          tableID(impact),
			Target:      tableField(impact, schema.ImpactTarget),
			Description: tableField(impact, schema.ImpactDescription),
			Coefficient: parseFloatOrZero(tableField(impact, schema.ImpactCoefficient)),
			Condition:   model.Condition(strings.TrimSpace(tableField(impact, schema.ImpactCondition))),
			Expect:      parseIntOrNil(tableField(impact, schema.ImpactExpect)),
		})
	}

	return r
}

// scalar unwraps a top-level field, "" when absent
func scalar(item model.RawRecord, key string) string {
	text, _ := item[key].Text()
	return text
}

// tableID reads the id of a choice or impact row
func tableID(row model.AttrValue) string {
	id, _ := row.Path("id")
	text, _ := id.Text()
	return text
}

// tableField reads value.<key>.value of a choice or impact row
func tableField(row model.AttrValue, key string) string {
	field, ok := row.Path("value", key, "value")
	if !ok {
		return ""
	}
	text, _ := field.Text()
	return text
}

// parseIntOrZero parses an integer, truncating decimals, 0 on failure
func parseIntOrZero(s string) int {
	if v, ok := parseInt(s); ok {
		return v
	}
	return 0
}

// parseIntOrNil parses a threshold, nil when empty or invalid
func parseIntOrNil(s string) *int {
	v, ok := parseInt(s)
	if !ok {
		return nil
	}
	return &v
}

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// parseFloatOrZero parses a coefficient, 0 on failure
func parseFloatOrZero(s string) float64 {
	v, ok := parseFloat(s)
	if !ok {
		return 0
	}
	return v
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
