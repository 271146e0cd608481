package domain

import "time"

// Label is the binary sentiment class assigned to a piece of text
type Label string

const (
	Positive Label = "POSITIVE"
	Negative Label = "NEGATIVE"
)

// Valid reports whether l is one of the two known labels
func (l Label) Valid() bool {
	return l == Positive || l == Negative
}

// Sentiment is a classified label with its confidence in [0,1]
type Sentiment struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// Signed returns the score with the sign of the label: +score for POSITIVE,
// -score for NEGATIVE.
func (s Sentiment) Signed() float64 {
	if s.Label == Negative {
		return -s.Score
	}
	return s.Score
}

// Theme is a topic detected in text with its relevance score
type Theme struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// AnalysisResult is the per-entry output of the analyzer
type AnalysisResult struct {
	WordCount   int        `json:"word_count"`
	TokenCount  int        `json:"token_count"`
	UniqueWords int        `json:"unique_words"`
	Sentiment   *Sentiment `json:"sentiment,omitempty"`
	Themes      []Theme    `json:"themes"`
	Warnings    []string   `json:"warnings,omitempty"`
}

// Entry represents one saved journal submission with its analysis
type Entry struct {
	ID          int64      `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	Content     string     `json:"content"`
	Prompt      *string    `json:"prompt,omitempty"`
	WordCount   int        `json:"word_count"`
	TokenCount  int        `json:"token_count"`
	UniqueWords int        `json:"unique_words"`
	Sentiment   *Sentiment `json:"sentiment,omitempty"`
	Themes      []Theme    `json:"themes"`
}

// ThemeNames returns the names of the entry's themes in rank order
func (e Entry) ThemeNames() []string {
	names := make([]string, len(e.Themes))
	for i, t := range e.Themes {
		names[i] = t.Name
	}
	return names
}

// StreakInfo summarizes consecutive journaling days
type StreakInfo struct {
	Current   int `json:"current"`
	Longest   int `json:"longest"`
	TotalDays int `json:"total_days"`
}

// Statistics is the store-level convenience aggregate
type Statistics struct {
	TotalEntries  int      `json:"total_entries"`
	TotalWords    int      `json:"total_words"`
	CurrentStreak int      `json:"current_streak"`
	AvgSentiment  *float64 `json:"avg_sentiment,omitempty"`
}
