package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pbaille/serenity/internal/insights"
)

// NoNotes stands in for an empty notes section.
const NoNotes = "No notes added"

// WriteSummary renders a weekly summary and the period notes as markdown.
func WriteSummary(w io.Writer, from, to time.Time, summary insights.WeeklySummary, notes string) error {
	if strings.TrimSpace(notes) == "" {
		notes = NoNotes
	}
	_, err := fmt.Fprintf(w, "# Weekly Journal Summary\n\n**Period:** %s to %s\n\n%s\n\n## Your Notes\n%s\n\n---\n*Generated by Serenity*\n",
		from.Format(insights.DateLayout),
		to.Format(insights.DateLayout),
		strings.TrimRight(summary.Text, "\n"),
		notes,
	)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// SummaryFileName is the suggested download name for a period summary.
func SummaryFileName(from, to time.Time) string {
	return fmt.Sprintf("weekly_summary_%s_%s.md", from.Format(insights.DateLayout), to.Format(insights.DateLayout))
}
