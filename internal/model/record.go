package model

// Record is one surveyable question after normalization
type Record struct {
	RecordNumber string       `json:"record_number"`           // Unique identifier, target of impact rules
	Question     string       `json:"question"`                // Free-text question
	Category     string       `json:"category"`                // Grouping key ("" when missing)
	DisplayOrder string       `json:"display_order,omitempty"` // Order within category, raw text
	Visibility   string       `json:"visibility,omitempty"`    // "disabled" hides the record
	Choices      []Choice     `json:"choices"`                 // Source order is significant
	Impacts      []ImpactRule `json:"impacts,omitempty"`       // Rules this question applies to others
}

// Choice is one selectable answer of a record
type Choice struct {
	ID        string `json:"id"`
	Answer    string `json:"answer"`
	RiskPoint int    `json:"risk_point"` // 0 when the raw value does not parse
}

// Condition is the comparison an impact rule applies to the chosen risk point
type Condition string

const (
	ConditionGreater      Condition = ">"
	ConditionLess         Condition = "<"
	ConditionGreaterEqual Condition = ">="
	ConditionLessEqual    Condition = "<="
	ConditionEqual        Condition = "="
)

// ImpactRule adjusts the score of another question when its condition holds
type ImpactRule struct {
	ID          string    `json:"id"`
	Target      string    `json:"target"`      // Record number of the affected question
	Description string    `json:"description"` // Human-readable explanation
	Coefficient float64   `json:"coefficient"` // Multiplier; 0 when the raw value does not parse
	Condition   Condition `json:"condition"`
	Expect      *int      `json:"expect"` // Threshold; nil disables the rule
}

// Satisfied reports whether riskPoint meets the rule's condition.
// Rules without a threshold or with an unknown operator never hold.
func (r ImpactRule) Satisfied(riskPoint int) bool {
	if r.Expect == nil {
		return false
	}
	expect := *r.Expect

	switch r.Condition.Normalize() {
	case ConditionGreater:
		return riskPoint > expect
	case ConditionLess:
		return riskPoint < expect
	case ConditionGreaterEqual:
		return riskPoint >= expect
	case ConditionLessEqual:
		return riskPoint <= expect
	case ConditionEqual:
		return riskPoint == expect
	default:
		return false
	}
}

// Normalize maps the full-width operators used by the survey editors
// onto their ASCII forms
func (c Condition) Normalize() Condition {
	switch c {
	case "≧", "≥", "=>":
		return ConditionGreaterEqual
	case "≦", "≤", "=<":
		return ConditionLessEqual
	case "＝", "==":
		return ConditionEqual
	case "＞":
		return ConditionGreater
	case "＜":
		return ConditionLess
	default:
		return c
	}
}
