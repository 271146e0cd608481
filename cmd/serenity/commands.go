package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/serenity/internal/api"
	"github.com/pbaille/serenity/internal/domain"
	"github.com/pbaille/serenity/internal/export"
	"github.com/pbaille/serenity/internal/insights"
	"github.com/pbaille/serenity/internal/journal"
	"github.com/pbaille/serenity/internal/store"
)

func writeCmd() *cobra.Command {
	var prompt string
	var suggest bool

	cmd := &cobra.Command{
		Use:   "write [text]",
		Short: "Write a journal entry (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			if suggest && prompt == "" {
				_, p, err := a.svc.NextPrompt(ctx)
				if err != nil {
					return err
				}
				prompt = p
				fmt.Printf("💭 %s\n\n", prompt)
			}

			content := strings.Join(args, " ")
			if content == "" {
				data, err := io.ReadAll(bufio.NewReader(os.Stdin))
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				content = string(data)
			}

			var p *string
			if prompt != "" {
				p = &prompt
			}

			res, err := a.svc.Write(ctx, content, p)
			if errors.Is(err, journal.ErrEmptyContent) {
				return fmt.Errorf("please write something before saving")
			}
			if err != nil {
				return err
			}

			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
			fmt.Printf("✓ Entry saved! (#%d)\n", res.Entry.ID)
			printEntryAnalysis(res.Entry)
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "prompt this entry answers")
	cmd.Flags().BoolVar(&suggest, "suggest", false, "show a suggested prompt and attach it")
	return cmd
}

func listCmd() *cobra.Command {
	var limit int
	var f filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}

			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.svc.Entries(cmd.Context(), opts, limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No entries found")
				return nil
			}

			for _, e := range entries {
				fmt.Printf("#%-4d %s  %s  %4d words  %s\n",
					e.ID,
					e.Timestamp.Local().Format("2006-01-02 15:04"),
					sentimentBadge(e.Sentiment),
					e.WordCount,
					truncate(strings.ReplaceAll(e.Content, "\n", " "), 50))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max entries (0 for all)")
	f.register(cmd)
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry with its analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q", args[0])
			}

			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.svc.Entry(cmd.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("entry #%d not found", id)
			}
			if err != nil {
				return err
			}

			fmt.Printf("## %s\n\n", e.Timestamp.Local().Format(export.HeadingLayout))
			if e.Prompt != nil {
				fmt.Printf("*Prompt: %s*\n\n", *e.Prompt)
			}
			fmt.Printf("%s\n\n", e.Content)
			printEntryAnalysis(e)
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q", args[0])
			}

			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			deleted, err := a.svc.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("entry #%d not found", id)
			}
			fmt.Printf("✓ Deleted entry #%d\n", id)
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("this deletes every entry, pass --yes to confirm")
			}

			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.svc.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("✓ Deleted %d entries\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all entries")
	return cmd
}

func promptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Suggest a writing prompt based on recent entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			pool, prompt, err := a.svc.NextPrompt(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("💭 %s\n", prompt)
			fmt.Printf("   (%s)\n", pool)
			return nil
		},
	}
}

func insightsCmd() *cobra.Command {
	var f filterFlags

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show sentiment, themes and writing patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}

			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.svc.Insights(cmd.Context(), opts)
			if err != nil {
				return err
			}

			printInsights(os.Stdout, r)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func summaryCmd() *cobra.Command {
	var from, to, out string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the weekly reflection, or a breakdown with --from/--to",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			if from == "" && to == "" && out == "" {
				s, err := a.svc.WeeklySummary(ctx)
				if err != nil {
					return err
				}
				fmt.Println(s.Text)
				return nil
			}

			now := time.Now()
			start, err := parseDate(from, now.AddDate(0, 0, -7))
			if err != nil {
				return err
			}
			end, err := parseDate(to, now)
			if err != nil {
				return err
			}

			if out != "" {
				if out == "-" {
					return a.svc.ExportPeriod(ctx, os.Stdout, start, end)
				}
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer file.Close()
				if err := a.svc.ExportPeriod(ctx, file, start, end); err != nil {
					return err
				}
				fmt.Printf("✓ Summary written to %s\n", out)
				return nil
			}

			r, err := a.svc.Period(ctx, start, end)
			if err != nil {
				return err
			}
			printBreakdown(os.Stdout, r)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "period start (YYYY-MM-DD, default 7 days ago)")
	cmd.Flags().StringVar(&to, "to", "", "period end (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the markdown summary to this file (- for stdout)")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show journal statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.svc.Statistics(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Entries:        %d\n", stats.TotalEntries)
			fmt.Printf("Total words:    %d\n", stats.TotalWords)
			fmt.Printf("Current streak: %d days\n", stats.CurrentStreak)
			if stats.AvgSentiment != nil {
				fmt.Printf("Avg sentiment:  %+.2f\n", *stats.AvgSentiment)
			} else {
				fmt.Println("Avg sentiment:  n/a")
			}
			return nil
		},
	}
}

func streakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show journaling streaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.svc.Streak(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("🔥 Current streak: %d days\n", s.Current)
			fmt.Printf("🏆 Longest streak: %d days\n", s.Longest)
			fmt.Printf("📅 Days journaled: %d\n", s.TotalDays)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all entries as markdown, html or json",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if out == "-" {
				return a.svc.Export(cmd.Context(), os.Stdout, f)
			}
			if out == "" {
				out = export.FileName(f, time.Now())
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer file.Close()

			if err := a.svc.Export(cmd.Context(), file, f); err != nil {
				return err
			}
			fmt.Printf("✓ Exported to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "markdown, html or json")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (- for stdout, default journal_export_YYYYMMDD.ext)")
	return cmd
}

func notesCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Read or save reflection notes for a period",
	}
	cmd.PersistentFlags().StringVar(&from, "from", "", "period start (YYYY-MM-DD, default 7 days ago)")
	cmd.PersistentFlags().StringVar(&to, "to", "", "period end (YYYY-MM-DD, default today)")

	period := func() (time.Time, time.Time, error) {
		now := time.Now()
		start, err := parseDate(from, now.AddDate(0, 0, -7))
		if err != nil {
			return start, start, err
		}
		end, err := parseDate(to, now)
		return start, end, err
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the notes saved for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := period()
			if err != nil {
				return err
			}

			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			notes, err := a.svc.Notes(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if notes == "" {
				notes = export.NoNotes
			}
			fmt.Println(notes)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <text>",
		Short: "Save notes for a period",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := period()
			if err != nil {
				return err
			}

			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.SaveNotes(cmd.Context(), start, end, strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Printf("✓ Notes saved as %s\n", insights.NotesKey(start, end))
			return nil
		},
	})

	return cmd
}

func countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count [text]",
		Short: "Count words and tokens (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			m := a.svc.CountTokens(text)
			fmt.Printf("Words:  %d\n", m.WordCount)
			fmt.Printf("Tokens: %d\n", m.TokenCount)
			fmt.Printf("Unique: %d\n", m.UniqueWords)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Serenity API listening on %s\n", addr)
			return api.New(a.svc, addr).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// filterFlags are the entry filters shared by list and insights.
type filterFlags struct {
	from, to   string
	sentiments []string
	query      string
	sort       string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "only entries on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "only entries on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&f.sentiments, "sentiment", nil, "POSITIVE and/or NEGATIVE")
	cmd.Flags().StringVarP(&f.query, "search", "s", "", "case-insensitive text search")
	cmd.Flags().StringVar(&f.sort, "sort", "", "newest, oldest, longest or shortest")
}

func (f *filterFlags) options() (insights.FilterOptions, error) {
	var opts insights.FilterOptions

	if f.from != "" {
		t, err := parseDate(f.from, time.Time{})
		if err != nil {
			return opts, err
		}
		opts.From = &t
	}
	if f.to != "" {
		t, err := parseDate(f.to, time.Time{})
		if err != nil {
			return opts, err
		}
		opts.To = &t
	}

	for _, s := range f.sentiments {
		label := domain.Label(strings.ToUpper(strings.TrimSpace(s)))
		if !label.Valid() {
			return opts, fmt.Errorf("unknown sentiment %q", s)
		}
		opts.Sentiments = append(opts.Sentiments, label)
	}

	sort, err := insights.ParseSortOrder(f.sort)
	if err != nil {
		return opts, err
	}
	opts.Sort = sort
	opts.Query = f.query
	return opts, nil
}

func parseDate(v string, fallback time.Time) (time.Time, error) {
	if v == "" {
		return fallback, nil
	}
	t, err := time.ParseInLocation(insights.DateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return t, nil
}

func sentimentBadge(s *domain.Sentiment) string {
	switch {
	case s == nil:
		return "  ·  "
	case s.Label == domain.Positive:
		return fmt.Sprintf("😊 %.2f", s.Score)
	default:
		return fmt.Sprintf("😔 %.2f", s.Score)
	}
}

func printEntryAnalysis(e domain.Entry) {
	fmt.Printf("   Words: %d  Tokens: %d  Unique: %d\n", e.WordCount, e.TokenCount, e.UniqueWords)
	if e.Sentiment != nil {
		fmt.Printf("   Sentiment: %s (%.0f%% confidence)\n", e.Sentiment.Label, e.Sentiment.Score*100)
	}
	if len(e.Themes) > 0 {
		fmt.Printf("   Themes: %s\n", strings.Join(e.ThemeNames(), ", "))
	}
}

// noMatchMessage is shown when entries exist but none pass the filters.
const noMatchMessage = "No entries match these filters."

func printInsights(w io.Writer, r journal.InsightReport) {
	if r.Entries == 0 {
		if r.Streak.TotalDays == 0 {
			fmt.Fprintln(w, insights.NoHistoryMessage)
		} else {
			fmt.Fprintln(w, noMatchMessage)
		}
		return
	}

	fmt.Fprintf(w, "Entries:           %d\n", r.Entries)
	fmt.Fprintf(w, "Average words:     %.0f\n", r.AverageWords)
	if r.PositivePercent != nil {
		fmt.Fprintf(w, "Positive entries:  %.0f%%\n", *r.PositivePercent)
	}
	if r.AverageSentiment != nil {
		fmt.Fprintf(w, "Average sentiment: %+.2f\n", *r.AverageSentiment)
	}
	fmt.Fprintf(w, "Current streak:    %d days (longest %d)\n", r.Streak.Current, r.Streak.Longest)
	fmt.Fprintf(w, "Consistency:       %.0f%%\n", r.Consistency)

	if len(r.ThemeDistribution) > 0 {
		fmt.Fprintln(w, "\nThemes:")
		for _, t := range r.ThemeDistribution {
			fmt.Fprintf(w, "  %-16s %.2f\n", t.Name, t.Weight)
		}
	}

	if len(r.WritingVolume) > 0 {
		fmt.Fprintln(w, "\nWriting volume:")
		for _, v := range r.WritingVolume {
			fmt.Fprintf(w, "  %s  %5d words\n", v.Date, v.Words)
		}
	}

	fmt.Fprintln(w, "\nRecommendations:")
	if len(r.Recommendations) == 0 {
		fmt.Fprintf(w, "  %s\n", insights.AllGoodMessage)
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
}

func printBreakdown(w io.Writer, r journal.PeriodReport) {
	fmt.Fprintf(w, "Period %s to %s\n\n", r.From, r.To)
	fmt.Fprintf(w, "Entries:        %d\n", r.Entries)
	fmt.Fprintf(w, "Total words:    %d\n", r.TotalWords)
	fmt.Fprintf(w, "Average words:  %.0f\n", r.AverageWords)
	fmt.Fprintf(w, "Days journaled: %d of %d (%.0f%%)\n", r.DaysJournal, r.PeriodDays, r.Consistency)
	if r.Labeled > 0 {
		fmt.Fprintf(w, "Sentiment:      %d positive, %d negative\n", r.Positive, r.Negative)
	}
	if len(r.TopThemes) > 0 {
		names := make([]string, len(r.TopThemes))
		for i, t := range r.TopThemes {
			names[i] = fmt.Sprintf("%s (%d)", t.Name, t.Count)
		}
		fmt.Fprintf(w, "Top themes:     %s\n", strings.Join(names, ", "))
	}
	if r.Longest != nil {
		fmt.Fprintf(w, "Longest entry:  #%d, %d words\n", r.Longest.ID, r.Longest.WordCount)
	}

	fmt.Fprintf(w, "\n%s\n", r.Summary.Text)

	notes := r.Notes
	if notes == "" {
		notes = export.NoNotes
	}
	fmt.Fprintf(w, "\nYour notes:\n%s\n", notes)
}
