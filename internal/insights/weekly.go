package insights

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pbaille/serenity/internal/domain"
)

const (
	// WeekWindow is the look-back of the weekly summary.
	WeekWindow = 7 * 24 * time.Hour

	NoHistoryMessage = "Start journaling to receive personalized insights!"
	NoEntriesMessage = "No entries from the past week. Keep journaling to see insights!"
)

// WeeklyStats are the figures the summary rules look at.
type WeeklyStats struct {
	Entries         int          `json:"entries"`
	PositivePercent *float64     `json:"positive_percent,omitempty"`
	TopThemes       []ThemeCount `json:"top_themes"`
	AverageWords    float64      `json:"average_words"`
}

func (s WeeklyStats) hasTheme(name string) bool {
	return slices.ContainsFunc(s.TopThemes, func(t ThemeCount) bool { return t.Name == name })
}

// SummaryRule adds an insight line when its condition holds. Thresholds are
// strict: a value exactly on the boundary does not trigger.
type SummaryRule struct {
	Name  string
	Match func(WeeklyStats) bool
	Text  string
}

// SummaryRules are evaluated in order; every matching rule contributes.
var SummaryRules = []SummaryRule{
	{Name: "work stress", Text: "You've been processing work-related stress. Remember to schedule breaks.",
		Match: func(s WeeklyStats) bool { return s.hasTheme("work stress") }},
	{Name: "gratitude", Text: "You're practicing gratitude! This is linked to improved mental wellbeing.",
		Match: func(s WeeklyStats) bool { return s.hasTheme("gratitude") }},
	{Name: "positive period", Text: "You're experiencing a positive period! What's contributing to this?",
		Match: func(s WeeklyStats) bool { return s.PositivePercent != nil && *s.PositivePercent > 70 }},
	{Name: "self-care", Text: "You might benefit from self-care activities. What brings you joy?",
		Match: func(s WeeklyStats) bool { return s.PositivePercent != nil && *s.PositivePercent < 40 }},
	{Name: "depth", Text: "You're writing detailed entries. This depth can lead to better self-understanding.",
		Match: func(s WeeklyStats) bool { return s.AverageWords > 200 }},
}

// WeeklySummary is the narrative over the last seven days.
type WeeklySummary struct {
	Stats    WeeklyStats `json:"stats"`
	Insights []string    `json:"insights"`
	Text     string      `json:"text"`
}

// InWindow keeps entries strictly newer than now minus d.
func InWindow(entries []domain.Entry, now time.Time, d time.Duration) []domain.Entry {
	cutoff := now.Add(-d)
	var out []domain.Entry
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// BuildWeeklySummary restricts entries to the seven days before now and
// writes the narrative. Top themes here are ranked by occurrence count,
// unlike ThemeDistribution which sums scores.
func BuildWeeklySummary(entries []domain.Entry, now time.Time) WeeklySummary {
	if len(entries) == 0 {
		return WeeklySummary{Text: NoHistoryMessage}
	}
	recent := InWindow(entries, now, WeekWindow)
	if len(recent) == 0 {
		return WeeklySummary{Text: NoEntriesMessage}
	}

	stats := WeeklyStats{
		Entries:         len(recent),
		PositivePercent: PositiveShare(recent),
		TopThemes:       TopThemesByCount(recent, 3),
		AverageWords:    AverageWords(recent),
	}

	var insights []string
	for _, r := range SummaryRules {
		if r.Match(stats) {
			insights = append(insights, r.Text)
		}
	}

	return WeeklySummary{
		Stats:    stats,
		Insights: insights,
		Text:     renderWeekly(stats, insights),
	}
}

func renderWeekly(stats WeeklyStats, insights []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "**Weekly Reflection (%d entries this week)**\n\n", stats.Entries)
	if stats.PositivePercent != nil {
		fmt.Fprintf(&sb, "📊 **Emotional Tone:** %.0f%% of your entries had a positive sentiment.\n\n", *stats.PositivePercent)
	}
	if len(stats.TopThemes) > 0 {
		names := make([]string, len(stats.TopThemes))
		for i, t := range stats.TopThemes {
			names[i] = t.Name
		}
		fmt.Fprintf(&sb, "🎯 **Top Themes:** You wrote most about %s.\n\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&sb, "✍️ **Writing Volume:** Average of %.0f words per entry.\n\n", stats.AverageWords)

	sb.WriteString("💡 **Insights:**\n")
	for _, line := range insights {
		sb.WriteString("- ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}
