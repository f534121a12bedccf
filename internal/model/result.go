package model

import "time"

// Result is the outcome of one scoring submission
type Result struct {
	ScoredAt   time.Time       `json:"scored_at"`
	TotalScore float64         `json:"total_score"` // Sum of all adjusted question scores
	Categories []CategoryScore `json:"categories"`  // In first-answered order
	HighRisk   Extreme         `json:"high_risk"`   // Category with the highest total
	LowRisk    Extreme         `json:"low_risk"`    // Category with the lowest total
	Answers    []ScoredAnswer  `json:"answers"`

	Answered   int      `json:"answered"`
	Expected   int      `json:"expected"`
	Complete   bool     `json:"complete"`
	Unresolved []string `json:"unresolved_targets,omitempty"` // Impact targets with no answer

	Advice *Advice `json:"advice,omitempty"` // Optional, never affects scoring
}

// CategoryScore is the aggregate for one category
type CategoryScore struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Average  float64 `json:"average"`
	Entries  int     `json:"entries"`
	Image    string  `json:"image,omitempty"`
}

// Extreme describes the max or min category together with its feedback
type Extreme struct {
	Category     string  `json:"category"`
	Score        float64 `json:"score"`
	RecordNumber string  `json:"record_number,omitempty"` // Question that drove the selection
	Message      string  `json:"message"`
	MessageHTML  string  `json:"message_html"` // Message with newlines as <br>
	Image        string  `json:"image,omitempty"`
}

// ScoredAnswer is one answered question after impact adjustment
type ScoredAnswer struct {
	RecordNumber string    `json:"record_number"`
	Category     string    `json:"category"`
	Base         int       `json:"base"`
	Final        float64   `json:"final"`
	Coefficients []float64 `json:"coefficients,omitempty"` // Applied by other answers
	Formula      string    `json:"formula,omitempty"`      // What this answer applies to others
}

// Advice contains optional generated guidance
type Advice struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Text     string `json:"text"`
}
