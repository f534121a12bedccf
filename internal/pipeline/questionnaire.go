package pipeline

import (
	"fmt"
	"strconv"

	"github.com/ppiankov/riskpoint/internal/impact"
	"github.com/ppiankov/riskpoint/internal/params"
	"github.com/ppiankov/riskpoint/internal/record"
)

var categoryClasses = map[string]string{
	"家族":     "category-1",
	"コミュニティ": "category-2",
	"家屋":     "category-3",
	"情報":     "category-4",
	"お金":     "category-5",
}

// CategoryClass returns the CSS class renderers use for a category
func CategoryClass(category string) string {
	if class, ok := categoryClasses[category]; ok {
		return class
	}
	return "category-default"
}

// ChoiceView is one selectable option
type ChoiceView struct {
	Index      int    `json:"index"` // Value stored in the answer query
	ID         string `json:"id"`
	Label      string `json:"label"`
	RiskPoint  int    `json:"risk_point"`
	Formula    string `json:"formula,omitempty"` // Adjustments this choice applies to other questions
	Selected   bool   `json:"selected,omitempty"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// QuestionView is one rendered question
type QuestionView struct {
	RecordNumber string       `json:"record_number"`
	Category     string       `json:"category"`
	Class        string       `json:"class"`
	Index        int          `json:"index"` // 1-based position within the category
	DisplayOrder string       `json:"display_order,omitempty"`
	Text         string       `json:"text"`
	Choices      []ChoiceView `json:"choices"`
}

// CategoryView groups the questions of a category
type CategoryView struct {
	Category  string         `json:"category"`
	Class     string         `json:"class"`
	Questions []QuestionView `json:"questions"`
}

// Questionnaire is everything a renderer needs to draw the survey
type Questionnaire struct {
	Categories    []CategoryView `json:"categories"`
	Questions     int            `json:"questions"`
	Answered      int            `json:"answered"`
	MaxRiskPoints int            `json:"max_risk_points"`
	Debug         bool           `json:"debug,omitempty"`
}

// Questionnaire builds the rendered survey, marking choices present in selections
func (p *Pipeline) Questionnaire(selections map[string]string) (*Questionnaire, error) {
	set := p.records()
	if set == nil {
		return nil, ErrNotLoaded
	}
	return BuildQuestionnaire(set, params.NewStore(selections, nil), p.Debug()), nil
}

// BuildQuestionnaire lays out the visible questions of set by category
func BuildQuestionnaire(set *record.Set, answers *params.Store, debug bool) *Questionnaire {
	q := &Questionnaire{
		MaxRiskPoints: set.CalculateRiskPoints(),
		Debug:         debug,
	}

	for _, category := range set.Categories() {
		view := CategoryView{Category: category, Class: CategoryClass(category)}

		for i, rec := range set.ItemsByCategory(category) {
			question := QuestionView{
				RecordNumber: rec.RecordNumber,
				Category:     category,
				Class:        view.Class,
				Index:        i + 1,
				Text:         rec.Question,
			}
			if debug {
				question.DisplayOrder = rec.DisplayOrder
			}

			impacts := set.ImpactTable(rec.RecordNumber)
			selected := false
			for n, choice := range rec.Choices {
				c := ChoiceView{
					Index:     n,
					ID:        choice.ID,
					Label:     choice.Answer,
					RiskPoint: choice.RiskPoint,
					Formula:   impact.ComposeFormula(strconv.Itoa(choice.RiskPoint), impacts),
					Selected:  answers.IsSelected(rec.RecordNumber, strconv.Itoa(n)),
				}
				if debug {
					effect := c.Formula
					if effect == "" {
						effect = "none"
					}
					c.Diagnostic = fmt.Sprintf("Num: %s / RP: %d / Effect: %s", rec.RecordNumber, choice.RiskPoint, effect)
				}
				selected = selected || c.Selected
				question.Choices = append(question.Choices, c)
			}

			if selected {
				q.Answered++
			}
			q.Questions++
			view.Questions = append(view.Questions, question)
		}

		q.Categories = append(q.Categories, view)
	}

	return q
}
