package insights

import (
	"sort"
	"time"

	"github.com/pbaille/serenity/internal/domain"
)

// Streak computes journaling streaks from the distinct calendar days of the
// entries, in any order. The current streak is anchored on the most recent
// entry day, not on the wall clock.
func Streak(entries []domain.Entry) domain.StreakInfo {
	days := distinctDaysDesc(entries)
	if len(days) == 0 {
		return domain.StreakInfo{}
	}

	current := 1
	for i := 0; i < len(days)-1; i++ {
		if DaysBetween(days[i], days[i+1]) != 1 {
			break
		}
		current++
	}

	longest, run := 1, 1
	for i := 0; i < len(days)-1; i++ {
		if DaysBetween(days[i], days[i+1]) == 1 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}

	return domain.StreakInfo{
		Current:   current,
		Longest:   longest,
		TotalDays: len(days),
	}
}

func distinctDaysDesc(entries []domain.Entry) []time.Time {
	seen := make(map[time.Time]struct{}, len(entries))
	var days []time.Time
	for _, e := range entries {
		d := Day(e.Timestamp)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}
