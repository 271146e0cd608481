package insights

import (
	"time"

	"github.com/pbaille/serenity/internal/domain"
)

// Breakdown is the detailed view of one reporting period.
type Breakdown struct {
	From         string        `json:"from"`
	To           string        `json:"to"`
	Entries      int           `json:"entries"`
	TotalWords   int           `json:"total_words"`
	AverageWords float64       `json:"average_words"`
	DaysJournal  int           `json:"days_journaled"`
	PeriodDays   int           `json:"period_days"`
	Consistency  float64       `json:"consistency"` // percent
	Positive     int           `json:"positive"`
	Negative     int           `json:"negative"`
	Labeled      int           `json:"labeled"`
	TopThemes    []ThemeCount  `json:"top_themes"`
	Longest      *domain.Entry `json:"longest,omitempty"`
	MostPositive *domain.Entry `json:"most_positive,omitempty"`
}

// BuildBreakdown summarizes the entries whose calendar date falls within
// [from, to], both inclusive.
func BuildBreakdown(entries []domain.Entry, from, to time.Time) Breakdown {
	from, to = Day(from), Day(to)
	period := Filter(entries, FilterOptions{From: &from, To: &to})

	b := Breakdown{
		From:       from.Format(DateLayout),
		To:         to.Format(DateLayout),
		Entries:    len(period),
		PeriodDays: DaysBetween(to, from) + 1,
		TopThemes:  TopThemesByCount(period, 5),
	}
	if len(period) == 0 {
		return b
	}

	b.TotalWords = TotalWords(period)
	b.AverageWords = AverageWords(period)
	b.DaysJournal = len(distinctDaysDesc(period))
	if b.PeriodDays > 0 {
		b.Consistency = float64(b.DaysJournal) / float64(b.PeriodDays) * 100
	}

	for i := range period {
		e := &period[i]
		if b.Longest == nil || e.WordCount > b.Longest.WordCount {
			b.Longest = e
		}
		if e.Sentiment == nil {
			continue
		}
		b.Labeled++
		switch e.Sentiment.Label {
		case domain.Positive:
			b.Positive++
			if b.MostPositive == nil || e.Sentiment.Score > b.MostPositive.Sentiment.Score {
				b.MostPositive = e
			}
		case domain.Negative:
			b.Negative++
		}
	}

	return b
}

// NotesKey is the preference key holding free-text notes for a period.
func NotesKey(from, to time.Time) string {
	return "notes_" + Day(from).Format(DateLayout) + "_" + Day(to).Format(DateLayout)
}
