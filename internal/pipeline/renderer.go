package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/riskpoint/internal/model"
)

const (
	highRiskColor = "#990000"
	lowRiskColor  = "#009900"
)

// Renderer writes questionnaires and results in the supported formats
type Renderer struct {
	includeAnswers bool
}

// NewRenderer creates a renderer; includeAnswers adds per-question detail
func NewRenderer(includeAnswers bool) *Renderer {
	return &Renderer{includeAnswers: includeAnswers}
}

// RenderJSON writes v as indented JSON
func (r *Renderer) RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// RenderMarkdown writes a result report
func (r *Renderer) RenderMarkdown(w io.Writer, result *model.Result) error {
	var b strings.Builder

	b.WriteString("# 防災リスク診断結果\n\n")
	fmt.Fprintf(&b, "**合計リスクポイント:** %s RP\n\n", formatScore(result.TotalScore))
	fmt.Fprintf(&b, "- 回答数: %d / %d\n", result.Answered, result.Expected)
	fmt.Fprintf(&b, "- 採点日時: %s\n\n", result.ScoredAt.Format("2006-01-02 15:04:05 MST"))

	if len(result.Categories) > 0 {
		b.WriteString("## カテゴリ別\n\n")
		b.WriteString("| カテゴリ | 合計 | 平均 | 回答数 |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, c := range result.Categories {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", c.Category, formatScore(c.Total), formatScore(c.Average), c.Entries)
		}
		b.WriteString("\n")
	}

	writeExtremeMarkdown(&b, "高リスク", result.HighRisk)
	writeExtremeMarkdown(&b, "低リスク", result.LowRisk)

	if len(result.Unresolved) > 0 {
		fmt.Fprintf(&b, "> 未回答の設問を参照する影響係数: %s\n\n", strings.Join(result.Unresolved, ", "))
	}

	if r.includeAnswers && len(result.Answers) > 0 {
		b.WriteString("## 回答詳細\n\n")
		b.WriteString("| 設問 | カテゴリ | 基本 | 係数 | 最終 |\n")
		b.WriteString("|---|---|---:|---|---:|\n")
		for _, a := range result.Answers {
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n",
				a.RecordNumber, a.Category, a.Base, formatCoefficients(a.Coefficients), formatScore(a.Final))
		}
		b.WriteString("\n")
	}

	if result.Advice != nil {
		fmt.Fprintf(&b, "## アドバイス (%s)\n\n%s\n", result.Advice.Provider, result.Advice.Text)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeExtremeMarkdown(b *strings.Builder, label string, e model.Extreme) {
	if e.Category == "" {
		return
	}
	fmt.Fprintf(b, "## %s: %s (%s RP)\n\n", label, e.Category, formatScore(e.Score))
	if e.Image != "" {
		fmt.Fprintf(b, "![%s](%s)\n\n", e.Category, e.Image)
	}
	b.WriteString(e.Message)
	b.WriteString("\n\n")
}

// RenderHTML writes the result dialog markup. Messages are inserted as text
// with <br> elements between lines.
func (r *Renderer) RenderHTML(w io.Writer, result *model.Result, shareURL string) error {
	dialog := element(atom.Div, "result-dialog")

	headline := element(atom.H2, "dialog-headline")
	headline.AppendChild(text("あなたの生活困窮リスクポイント"))
	dialog.AppendChild(headline)

	score := element(atom.P, "dialog-score")
	score.AppendChild(text(formatScore(result.TotalScore) + " RP"))
	dialog.AppendChild(score)

	if result.HighRisk.Category != "" {
		dialog.AppendChild(imageWithCaption(result.HighRisk, "高リスク", highRiskColor))
	}
	if result.LowRisk.Category != "" {
		dialog.AppendChild(imageWithCaption(result.LowRisk, "低リスク", lowRiskColor))
	}

	if result.Advice != nil {
		advice := element(atom.Div, "advice")
		appendLines(advice, result.Advice.Text)
		dialog.AppendChild(advice)
	}

	if shareURL != "" {
		link := element(atom.A, "share-url")
		link.Attr = append(link.Attr, html.Attribute{Key: "href", Val: shareURL})
		link.AppendChild(text(shareURL))
		dialog.AppendChild(link)
	}

	return html.Render(w, dialog)
}

func imageWithCaption(e model.Extreme, label, color string) *html.Node {
	container := element(atom.Div, "image-caption-container")

	if e.Image != "" {
		img := element(atom.Img, "caption-image")
		img.Attr = append(img.Attr,
			html.Attribute{Key: "src", Val: e.Image},
			html.Attribute{Key: "alt", Val: e.Category},
		)
		container.AppendChild(img)
	}

	caption := element(atom.Div, "caption-text")
	caption.Attr = append(caption.Attr, html.Attribute{Key: "style", Val: "color: " + color})

	heading := element(atom.H3, "")
	heading.AppendChild(text(label + ": " + e.Category))
	caption.AppendChild(heading)
	appendLines(caption, e.Message)

	container.AppendChild(caption)
	return container
}

func appendLines(parent *html.Node, s string) {
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			parent.AppendChild(&html.Node{Type: html.ElementNode, DataAtom: atom.Br, Data: "br"})
		}
		parent.AppendChild(text(line))
	}
}

func element(a atom.Atom, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// RenderSummary writes a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, result *model.Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Total: %s RP (%d/%d answered)\n", formatScore(result.TotalScore), result.Answered, result.Expected)
	for _, c := range result.Categories {
		fmt.Fprintf(&b, "  %-8s %8s\n", c.Category, formatScore(c.Total))
	}
	if result.HighRisk.Category != "" {
		fmt.Fprintf(&b, "High risk: %s (%s)\n  %s\n", result.HighRisk.Category, formatScore(result.HighRisk.Score), indent(result.HighRisk.Message))
	}
	if result.LowRisk.Category != "" {
		fmt.Fprintf(&b, "Low risk:  %s (%s)\n  %s\n", result.LowRisk.Category, formatScore(result.LowRisk.Score), indent(result.LowRisk.Message))
	}
	if len(result.Unresolved) > 0 {
		fmt.Fprintf(&b, "Unresolved impact targets: %s\n", strings.Join(result.Unresolved, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderQuestionnaire writes the survey as numbered terminal text
func (r *Renderer) RenderQuestionnaire(w io.Writer, q *Questionnaire) error {
	var b strings.Builder

	for _, c := range q.Categories {
		fmt.Fprintf(&b, "カテゴリ: %s\n", c.Category)
		for _, question := range c.Questions {
			fmt.Fprintf(&b, "  質問 %d [%s]: %s", question.Index, question.RecordNumber, question.Text)
			if q.Debug {
				fmt.Fprintf(&b, " (表示順序: %s)", question.DisplayOrder)
			}
			b.WriteString("\n")
			for _, choice := range question.Choices {
				mark := " "
				if choice.Selected {
					mark = "x"
				}
				fmt.Fprintf(&b, "    [%s] %d) %s", mark, choice.Index, choice.Label)
				if choice.Diagnostic != "" {
					fmt.Fprintf(&b, " (%s)", choice.Diagnostic)
				}
				b.WriteString("\n")
			}
		}
	}
	fmt.Fprintf(&b, "\n%d questions, %d answered\n", q.Questions, q.Answered)

	_, err := io.WriteString(w, b.String())
	return err
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCoefficients(cs []float64) string {
	if len(cs) == 0 {
		return "-"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = "×" + formatScore(c)
	}
	return strings.Join(parts, " ")
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n  ")
}
