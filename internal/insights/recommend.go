package insights

import (
	"fmt"
	"time"

	"github.com/pbaille/serenity/internal/domain"
)

const (
	streakGoal       = 7
	minAverageWords  = 100
	recentForMood    = 5
	negativeForMood  = 4
	AllGoodMessage   = "You're doing great! Keep up the excellent journaling practice!"
	startStreakTip   = "Start a streak: Try to journal for 3 days in a row to build momentum."
	writeMoreTip     = "Write more: Try to write at least 100-150 words per entry for deeper reflection."
	selfCareReminder = "Self-care reminder: Your recent entries show some stress. Remember to take care of yourself."
)

// Recommendations turns a streak and a most-recent-first entry window into
// habit suggestions. An empty result means nothing to improve.
func Recommendations(streak domain.StreakInfo, recent []domain.Entry) []string {
	var recs []string

	switch {
	case streak.Current == 0:
		recs = append(recs, startStreakTip)
	case streak.Current < streakGoal:
		recs = append(recs, fmt.Sprintf("Keep going: You're at %d days. Can you reach %d?", streak.Current, streakGoal))
	}

	if len(recent) > 0 && AverageWords(recent) < minAverageWords {
		recs = append(recs, writeMoreTip)
	}

	n := min(len(recent), recentForMood)
	negative := 0
	for _, e := range recent[:n] {
		if e.Sentiment != nil && e.Sentiment.Label == domain.Negative {
			negative++
		}
	}
	if negative >= negativeForMood {
		recs = append(recs, selfCareReminder)
	}

	return recs
}

// Consistency is the share of days since the first entry, up to now, that
// have at least one entry.
func Consistency(entries []domain.Entry, now time.Time) float64 {
	days := distinctDaysDesc(entries)
	if len(days) == 0 {
		return 0
	}
	span := DaysBetween(now, days[len(days)-1]) + 1
	if span < len(days) {
		span = len(days)
	}
	return float64(len(days)) / float64(span) * 100
}
