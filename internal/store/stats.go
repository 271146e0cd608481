package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pbaille/serenity/internal/domain"
	"github.com/pbaille/serenity/internal/insights"
)

// Statistics aggregates counts in SQL and derives the streak from entry
// timestamps.
func (s *Store) Statistics(ctx context.Context) (domain.Statistics, error) {
	var totals struct {
		TotalEntries int
		TotalWords   int
		AvgSentiment sql.NullFloat64
	}
	err := s.db.WithContext(ctx).Model(&Entry{}).
		Select(`COUNT(*) AS total_entries,
			COALESCE(SUM(word_count), 0) AS total_words,
			AVG(CASE WHEN sentiment_label = 'NEGATIVE' THEN -sentiment_score
				WHEN sentiment_label = 'POSITIVE' THEN sentiment_score END) AS avg_sentiment`).
		Scan(&totals).Error
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("aggregate entries: %w", err)
	}

	var stamps []string
	if err := s.db.WithContext(ctx).Model(&Entry{}).Pluck("timestamp", &stamps).Error; err != nil {
		return domain.Statistics{}, fmt.Errorf("load timestamps: %w", err)
	}
	days := make([]domain.Entry, 0, len(stamps))
	for _, ts := range stamps {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return domain.Statistics{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		days = append(days, domain.Entry{Timestamp: t})
	}

	stats := domain.Statistics{
		TotalEntries:  totals.TotalEntries,
		TotalWords:    totals.TotalWords,
		CurrentStreak: insights.Streak(days).Current,
	}
	if totals.AvgSentiment.Valid {
		avg := totals.AvgSentiment.Float64
		stats.AvgSentiment = &avg
	}
	return stats, nil
}
