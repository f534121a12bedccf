// Package validate checks a loaded question feed for data problems that
// would silently skew scoring.
package validate

import (
	"fmt"
	"sort"

	"github.com/ppiankov/riskpoint/internal/model"
	"github.com/ppiankov/riskpoint/internal/record"
	"github.com/ppiankov/riskpoint/internal/score"
)

// Severity ranks an issue
type Severity string

const (
	SeverityError   Severity = "error"   // Question cannot be answered or scored
	SeverityWarning Severity = "warning" // Scoring works but likely not as intended
)

// Issue is one finding for a record
type Issue struct {
	RecordNumber string   `json:"record_number"`
	Severity     Severity `json:"severity"`
	Code         string   `json:"code"`
	Message      string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s] record %s: %s", i.Severity, i.Code, i.RecordNumber, i.Message)
}

// Report is the outcome of one validation run
type Report struct {
	Records int     `json:"records"`
	Issues  []Issue `json:"issues"`
}

// Errors counts error-level issues
func (r Report) Errors() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Warnings counts warning-level issues
func (r Report) Warnings() int {
	return len(r.Issues) - r.Errors()
}

// Validator checks feeds against an image table
type Validator struct {
	images score.ImageTable
}

// NewValidator creates a validator; categories missing from images are reported
func NewValidator(images score.ImageTable) *Validator {
	return &Validator{images: images}
}

// Validate inspects every record. Hidden records are checked too, except for
// answerability, since impact rules may still point at them.
func (v *Validator) Validate(set *record.Set) Report {
	records := set.Records()
	report := Report{Records: len(records), Issues: []Issue{}}

	add := func(number string, sev Severity, code, format string, args ...any) {
		report.Issues = append(report.Issues, Issue{
			RecordNumber: number,
			Severity:     sev,
			Code:         code,
			Message:      fmt.Sprintf(format, args...),
		})
	}

	if set.Count() != len(records) {
		add("", SeverityWarning, "count-mismatch", "feed Count is %d but %d items were returned", set.Count(), len(records))
	}

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if r.RecordNumber == "" {
			add("", SeverityError, "missing-record-number", "question %q has no record number", r.Question)
			continue
		}
		if seen[r.RecordNumber] {
			add(r.RecordNumber, SeverityError, "duplicate-record-number", "record number appears more than once")
		}
		seen[r.RecordNumber] = true
	}

	disabled := set.Schema().DisabledValue
	for _, r := range records {
		visible := r.Visibility != disabled

		if visible && len(r.Choices) == 0 {
			add(r.RecordNumber, SeverityError, "no-choices", "visible question has no choices")
		}
		if r.Question == "" {
			add(r.RecordNumber, SeverityWarning, "empty-question", "question text is empty")
		}
		if r.Category == "" {
			add(r.RecordNumber, SeverityWarning, "missing-category", "record has no category")
		} else if visible && v.images.ImageName(r.Category, 0) == "" {
			add(r.RecordNumber, SeverityWarning, "unknown-category", "category %q has no result images", r.Category)
		}

		for _, rule := range r.Impacts {
			v.checkRule(r, rule, seen, add)
		}
	}

	sort.SliceStable(report.Issues, func(i, j int) bool {
		return report.Issues[i].Severity == SeverityError && report.Issues[j].Severity != SeverityError
	})
	return report
}

func (v *Validator) checkRule(r model.Record, rule model.ImpactRule, known map[string]bool, add func(string, Severity, string, string, ...any)) {
	switch {
	case rule.Target == "":
		add(r.RecordNumber, SeverityWarning, "missing-target", "impact %s has no target", rule.ID)
		return
	case rule.Target == r.RecordNumber:
		add(r.RecordNumber, SeverityWarning, "self-target", "impact %s targets its own question and is ignored", rule.ID)
	case !known[rule.Target]:
		add(r.RecordNumber, SeverityWarning, "unknown-target", "impact %s targets unknown record %s", rule.ID, rule.Target)
	}

	if rule.Expect == nil {
		add(r.RecordNumber, SeverityWarning, "missing-threshold", "impact %s has no threshold and never applies", rule.ID)
	}

	switch rule.Condition.Normalize() {
	case model.ConditionGreater, model.ConditionLess, model.ConditionGreaterEqual,
		model.ConditionLessEqual, model.ConditionEqual:
	default:
		add(r.RecordNumber, SeverityWarning, "unknown-condition", "impact %s uses unknown condition %q", rule.ID, rule.Condition)
	}

	if rule.Coefficient == 0 {
		add(r.RecordNumber, SeverityWarning, "zero-coefficient", "impact %s zeroes the score of record %s", rule.ID, rule.Target)
	}
}
