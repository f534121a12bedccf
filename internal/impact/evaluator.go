// Package impact evaluates cross-question impact rules into coefficient
// formulas and decodes those formulas again at scoring time.
package impact

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/riskpoint/internal/model"
)

const (
	// EntrySeparator joins satisfied rules of one source row
	EntrySeparator = ", "
	// GroupSeparator joins non-empty rows
	GroupSeparator = " / "
)

// ComposeFormula evaluates every rule against the chosen risk point and
// encodes the satisfied ones as "<target>*<coefficient>" entries.
// An unparseable risk point yields "".
func ComposeFormula(riskPoint string, groups [][]model.ImpactRule) string {
	rp, err := strconv.Atoi(strings.TrimSpace(riskPoint))
	if err != nil {
		return ""
	}

	var rows []string
	for _, group := range groups {
		var entries []string
		for _, rule := range group {
			if !rule.Satisfied(rp) {
				continue
			}
			entries = append(entries, formatEntry(rule.Target, rule.Coefficient))
		}
		if len(entries) > 0 {
			rows = append(rows, strings.Join(entries, EntrySeparator))
		}
	}

	return strings.Join(rows, GroupSeparator)
}

func formatEntry(target string, coefficient float64) string {
	return fmt.Sprintf("%s*%.2f", target, coefficient)
}

// Adjustment is one decoded formula entry
type Adjustment struct {
	Target      string
	Coefficient float64
}

// ParseFormula decodes a formula string. Malformed entries are skipped and
// returned separately so callers can report them.
func ParseFormula(formula string) (adjustments []Adjustment, malformed []string) {
	formula = strings.TrimSpace(formula)
	if formula == "" {
		return nil, nil
	}

	for _, row := range strings.Split(formula, GroupSeparator) {
		for _, entry := range strings.Split(row, EntrySeparator) {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}

			idx := strings.LastIndex(entry, "*")
			if idx <= 0 {
				malformed = append(malformed, entry)
				continue
			}
			coefficient, err := strconv.ParseFloat(entry[idx+1:], 64)
			if err != nil {
				malformed = append(malformed, entry)
				continue
			}

			adjustments = append(adjustments, Adjustment{
				Target:      entry[:idx],
				Coefficient: coefficient,
			})
		}
	}

	return adjustments, malformed
}
