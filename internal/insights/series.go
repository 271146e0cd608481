// Package insights derives aggregate views from a collection of analyzed
// entries: streaks, sentiment and volume series, theme distribution, weekly
// narrative summary and period breakdowns. Every function is a pure
// transformation of its inputs; time windows take an explicit reference
// instant.
package insights

import (
	"sort"
	"time"

	"github.com/pbaille/serenity/internal/domain"
)

// MaxDistributionThemes caps the theme distribution.
const MaxDistributionThemes = 8

// SentimentPoint is one labeled entry on the sentiment timeline.
type SentimentPoint struct {
	Timestamp time.Time    `json:"timestamp"`
	Score     float64      `json:"score"` // signed
	Label     domain.Label `json:"label"`
}

// ThemeWeight is a theme with its cumulative relevance score.
type ThemeWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// ThemeCount is a theme with its number of occurrences.
type ThemeCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// VolumePoint is the number of words written on one calendar day.
type VolumePoint struct {
	Date  string `json:"date"`
	Words int    `json:"words"`
}

// SentimentSeries emits one point per labeled entry, oldest first. Entries
// without a label are omitted, not zero-filled.
func SentimentSeries(entries []domain.Entry) []SentimentPoint {
	points := make([]SentimentPoint, 0, len(entries))
	for _, e := range entries {
		if e.Sentiment == nil {
			continue
		}
		points = append(points, SentimentPoint{
			Timestamp: e.Timestamp,
			Score:     e.Sentiment.Signed(),
			Label:     e.Sentiment.Label,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}

// ThemeDistribution sums relevance scores per theme across all entries and
// returns the top eight by cumulative weight. Ties keep first-seen order.
func ThemeDistribution(entries []domain.Entry) []ThemeWeight {
	var order []string
	weights := make(map[string]float64)
	for _, e := range entries {
		for _, t := range e.Themes {
			if _, ok := weights[t.Name]; !ok {
				order = append(order, t.Name)
			}
			weights[t.Name] += t.Score
		}
	}

	dist := make([]ThemeWeight, len(order))
	for i, name := range order {
		dist[i] = ThemeWeight{Name: name, Weight: weights[name]}
	}
	sort.SliceStable(dist, func(i, j int) bool {
		return dist[i].Weight > dist[j].Weight
	})
	if len(dist) > MaxDistributionThemes {
		dist = dist[:MaxDistributionThemes]
	}
	return dist
}

// TopThemesByCount ranks themes by how many times they occur, keeping the
// first n. Ties keep first-seen order.
func TopThemesByCount(entries []domain.Entry, n int) []ThemeCount {
	var order []string
	counts := make(map[string]int)
	for _, e := range entries {
		for _, t := range e.Themes {
			if _, ok := counts[t.Name]; !ok {
				order = append(order, t.Name)
			}
			counts[t.Name]++
		}
	}

	top := make([]ThemeCount, len(order))
	for i, name := range order {
		top[i] = ThemeCount{Name: name, Count: counts[name]}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Count > top[j].Count
	})
	if n >= 0 && len(top) > n {
		top = top[:n]
	}
	return top
}

// WritingVolume sums word counts per calendar day, oldest day first.
func WritingVolume(entries []domain.Entry) []VolumePoint {
	words := make(map[string]int)
	for _, e := range entries {
		words[Day(e.Timestamp).Format(DateLayout)] += e.WordCount
	}

	points := make([]VolumePoint, 0, len(words))
	for d, w := range words {
		points = append(points, VolumePoint{Date: d, Words: w})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// PositiveShare returns the percentage of labeled entries that are
// POSITIVE, or nil when no entry is labeled.
func PositiveShare(entries []domain.Entry) *float64 {
	var labeled, positive int
	for _, e := range entries {
		if e.Sentiment == nil {
			continue
		}
		labeled++
		if e.Sentiment.Label == domain.Positive {
			positive++
		}
	}
	if labeled == 0 {
		return nil
	}
	pct := float64(positive) / float64(labeled) * 100
	return &pct
}

// AverageSentiment returns the mean signed score over labeled entries, or
// nil when no entry is labeled.
func AverageSentiment(entries []domain.Entry) *float64 {
	var sum float64
	var n int
	for _, e := range entries {
		if e.Sentiment == nil {
			continue
		}
		sum += e.Sentiment.Signed()
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// TotalWords sums word counts.
func TotalWords(entries []domain.Entry) int {
	total := 0
	for _, e := range entries {
		total += e.WordCount
	}
	return total
}

// AverageWords returns the mean word count, 0 for no entries.
func AverageWords(entries []domain.Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	return float64(TotalWords(entries)) / float64(len(entries))
}
