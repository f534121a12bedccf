package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/riskpoint/internal/model"
	"github.com/ppiankov/riskpoint/internal/record"
	"github.com/ppiankov/riskpoint/internal/score"
)

func cell(s string) model.AttrValue {
	return model.Map(map[string]model.AttrValue{"value": model.String(s)})
}

func choice(id, risk string) model.AttrValue {
	return model.Map(map[string]model.AttrValue{
		"id": model.String(id),
		"value": model.Map(map[string]model.AttrValue{
			"回答項目":   cell("answer " + id),
			"リスクポイント": cell(risk),
		}),
	})
}

func impact(id, target, cond, expect, coef string) model.AttrValue {
	return model.Map(map[string]model.AttrValue{
		"id": model.String(id),
		"value": model.Map(map[string]model.AttrValue{
			"影響する設問": cell(target),
			"条件":     cell(cond),
			"条件値":    cell(expect),
			"係数":     cell(coef),
		}),
	})
}

func item(number, category string, choices []model.AttrValue, impacts ...model.AttrValue) model.RawRecord {
	r := model.RawRecord{
		"レコード番号":     model.String(number),
		"質問文":        model.String("question " + number),
		"選択肢テーブル":    model.List(choices...),
		"影響する設問テーブル": model.List(impacts...),
	}
	if category != "" {
		r["カテゴリ"] = model.String(category)
	}
	return r
}

func codes(r Report) []string {
	out := make([]string, 0, len(r.Issues))
	for _, i := range r.Issues {
		out = append(out, i.Code)
	}
	return out
}

func TestValidate_Clean(t *testing.T) {
	set := record.New(model.RawFeed{Count: 2, Items: []model.RawRecord{
		item("1", "家族", []model.AttrValue{choice("a", "0"), choice("b", "4")}),
		item("2", "家族", []model.AttrValue{choice("c", "2")}, impact("x", "1", "≧", "2", "1.5")),
	}}, model.DefaultSchema())

	report := NewValidator(score.DefaultImageTable()).Validate(set)

	assert.Equal(t, 2, report.Records)
	assert.Empty(t, report.Issues)
	assert.Zero(t, report.Errors())
	assert.Zero(t, report.Warnings())
}

func TestValidate_RuleProblems(t *testing.T) {
	set := record.New(model.RawFeed{Count: 1, Items: []model.RawRecord{
		item("1", "家族", []model.AttrValue{choice("a", "1")},
			impact("self", "1", ">", "0", "1.1"),
			impact("ghost", "99", ">", "0", "1.1"),
			impact("nothreshold", "1", "<", "", "1.1"),
			impact("weird", "99", "~", "1", "0"),
		),
	}}, model.DefaultSchema())

	report := NewValidator(score.DefaultImageTable()).Validate(set)

	assert.Equal(t, []string{
		"self-target",
		"unknown-target",
		"self-target", "missing-threshold",
		"unknown-target", "unknown-condition", "zero-coefficient",
	}, codes(report))
	assert.Zero(t, report.Errors())
	assert.Equal(t, 7, report.Warnings())
}

func TestValidate_RecordProblems(t *testing.T) {
	hidden := item("4", "家屋", nil)
	hidden["表示設定"] = model.String("disabled")

	set := record.New(model.RawFeed{Count: 9, Items: []model.RawRecord{
		item("1", "家族", nil),
		item("1", "", []model.AttrValue{choice("a", "1")}),
		item("3", "宇宙", []model.AttrValue{choice("b", "1")}),
		hidden,
	}}, model.DefaultSchema())

	report := NewValidator(score.DefaultImageTable()).Validate(set)
	require.NotEmpty(t, report.Issues)

	assert.Equal(t, 2, report.Errors())
	// Errors sort first
	assert.Equal(t, SeverityError, report.Issues[0].Severity)
	assert.Equal(t, SeverityError, report.Issues[1].Severity)

	got := codes(report)
	assert.Contains(t, got, "count-mismatch")
	assert.Contains(t, got, "duplicate-record-number")
	assert.Contains(t, got, "no-choices")
	assert.Contains(t, got, "missing-category")
	assert.Contains(t, got, "unknown-category")

	for _, issue := range report.Issues {
		assert.NotEqual(t, "4", issue.RecordNumber, "hidden question without choices is not an error")
	}
}

func TestIssueString(t *testing.T) {
	i := Issue{RecordNumber: "7", Severity: SeverityWarning, Code: "self-target", Message: "ignored"}
	assert.Equal(t, "warning [self-target] record 7: ignored", i.String())
}
