package journal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pbaille/serenity/internal/domain"
	"github.com/pbaille/serenity/internal/export"
	"github.com/pbaille/serenity/internal/insights"
)

// InsightReport is everything the insights view shows for one filter.
type InsightReport struct {
	Entries           int                       `json:"entries"`
	Sentiment         []insights.SentimentPoint `json:"sentiment"`
	ThemeDistribution []insights.ThemeWeight    `json:"theme_distribution"`
	WritingVolume     []insights.VolumePoint    `json:"writing_volume"`
	PositivePercent   *float64                  `json:"positive_percent,omitempty"`
	AverageSentiment  *float64                  `json:"average_sentiment,omitempty"`
	AverageWords      float64                   `json:"average_words"`
	Longest           *domain.Entry             `json:"longest,omitempty"`
	Streak            domain.StreakInfo         `json:"streak"`
	Consistency       float64                   `json:"consistency"`
	Recommendations   []string                  `json:"recommendations"`
}

// Insights runs the aggregate builder on the filtered window and the
// streak calculator on the full history.
func (s *Service) Insights(ctx context.Context, opts insights.FilterOptions) (InsightReport, error) {
	all, err := s.repo.ListEntries(ctx, 0)
	if err != nil {
		return InsightReport{}, fmt.Errorf("load entries: %w", err)
	}

	opts.Sort = insights.SortNewest
	window := insights.Filter(all, opts)
	streak := insights.Streak(all)

	report := InsightReport{
		Entries:           len(window),
		Sentiment:         insights.SentimentSeries(window),
		ThemeDistribution: insights.ThemeDistribution(window),
		WritingVolume:     insights.WritingVolume(window),
		PositivePercent:   insights.PositiveShare(window),
		AverageSentiment:  insights.AverageSentiment(window),
		AverageWords:      insights.AverageWords(window),
		Streak:            streak,
		Consistency:       insights.Consistency(all, s.now()),
		Recommendations:   insights.Recommendations(streak, window),
	}
	for i := range window {
		if report.Longest == nil || window[i].WordCount > report.Longest.WordCount {
			report.Longest = &window[i]
		}
	}
	return report, nil
}

// WeeklySummary narrates the seven days before now.
func (s *Service) WeeklySummary(ctx context.Context) (insights.WeeklySummary, error) {
	all, err := s.repo.ListEntries(ctx, 0)
	if err != nil {
		return insights.WeeklySummary{}, fmt.Errorf("load entries: %w", err)
	}
	return insights.BuildWeeklySummary(all, s.now()), nil
}

// PeriodReport is the breakdown of a reporting period with its narrative
// and the notes saved for it.
type PeriodReport struct {
	insights.Breakdown
	Summary insights.WeeklySummary `json:"summary"`
	Notes   string                 `json:"notes"`
}

// Period builds the report for calendar dates [from, to]. The narrative
// looks at the week ending with the period, or now when that is earlier.
func (s *Service) Period(ctx context.Context, from, to time.Time) (PeriodReport, error) {
	if to.Before(from) {
		return PeriodReport{}, fmt.Errorf("%w: %s is before %s", ErrInvalidPeriod,
			to.Format(insights.DateLayout), from.Format(insights.DateLayout))
	}

	all, err := s.repo.ListEntries(ctx, 0)
	if err != nil {
		return PeriodReport{}, fmt.Errorf("load entries: %w", err)
	}
	notes, err := s.Notes(ctx, from, to)
	if err != nil {
		return PeriodReport{}, err
	}

	breakdown := insights.BuildBreakdown(all, from, to)
	fromDay, toDay := insights.Day(from), insights.Day(to)
	period := insights.Filter(all, insights.FilterOptions{From: &fromDay, To: &toDay})

	anchor := s.now()
	if end := toDay.AddDate(0, 0, 1); end.Before(anchor) {
		anchor = end
	}
	summary := insights.BuildWeeklySummary(period, anchor)
	if len(all) > 0 && len(period) == 0 {
		summary.Text = insights.NoEntriesMessage
	}

	return PeriodReport{Breakdown: breakdown, Summary: summary, Notes: notes}, nil
}

// Notes returns the notes saved for a period, empty when none.
func (s *Service) Notes(ctx context.Context, from, to time.Time) (string, error) {
	v, _, err := s.repo.GetPreference(ctx, insights.NotesKey(from, to))
	if err != nil {
		return "", fmt.Errorf("load notes: %w", err)
	}
	return v, nil
}

// SaveNotes stores notes for a period.
func (s *Service) SaveNotes(ctx context.Context, from, to time.Time, notes string) error {
	if err := s.repo.SetPreference(ctx, insights.NotesKey(from, to), notes); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}

// ExportPeriod writes the period narrative and notes as markdown.
func (s *Service) ExportPeriod(ctx context.Context, w io.Writer, from, to time.Time) error {
	report, err := s.Period(ctx, from, to)
	if err != nil {
		return err
	}
	return export.WriteSummary(w, from, to, report.Summary, report.Notes)
}
