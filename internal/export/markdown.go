// Package export serializes journal entries to markdown, HTML and JSON
// documents, and reads the markdown and HTML forms back.
package export

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pbaille/serenity/internal/domain"
)

const (
	// HeadingLayout formats the per-entry heading.
	HeadingLayout = "January 02, 2006 at 03:04 PM"
	// DayLayout formats the export date.
	DayLayout = "January 02, 2006"

	markdownTitle = "# My Journal Entries"
	separator     = "\n---\n\n"
	promptPrefix  = "**Prompt:** *"
	sentimentTag  = "**Sentiment:** "
	themesTag     = "**Themes:** "
)

// Record is what the markdown form preserves of an entry: timestamps to the
// minute, sentiment label without score, theme names without scores.
type Record struct {
	Timestamp time.Time
	Prompt    *string
	Content   string
	Sentiment domain.Label
	Themes    []string
}

// RecordOf projects an entry onto its markdown-visible fields.
func RecordOf(e domain.Entry) Record {
	r := Record{
		Timestamp: e.Timestamp.Truncate(time.Minute),
		Content:   e.Content,
		Themes:    e.ThemeNames(),
	}
	if e.Prompt != nil && *e.Prompt != "" {
		r.Prompt = e.Prompt
	}
	if e.Sentiment != nil {
		r.Sentiment = e.Sentiment.Label
	}
	return r
}

func sortNewestFirst(entries []domain.Entry) []domain.Entry {
	sorted := append([]domain.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted
}

// WriteMarkdown renders entries newest first.
func WriteMarkdown(w io.Writer, entries []domain.Entry, now time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\n\nExported on %s\n\n---\n\n", markdownTitle, now.Format(DayLayout))
	for _, e := range sortNewestFirst(entries) {
		fmt.Fprintf(bw, "## %s\n\n", e.Timestamp.Format(HeadingLayout))
		if e.Prompt != nil && *e.Prompt != "" {
			fmt.Fprintf(bw, "%s%s*\n\n", promptPrefix, *e.Prompt)
		}
		fmt.Fprintf(bw, "%s\n\n", e.Content)
		if e.Sentiment != nil {
			fmt.Fprintf(bw, "%s%s\n", sentimentTag, e.Sentiment.Label)
		}
		if len(e.Themes) > 0 {
			fmt.Fprintf(bw, "%s%s\n", themesTag, strings.Join(e.ThemeNames(), ", "))
		}
		bw.WriteString(separator)
	}

	return bw.Flush()
}

// ParseMarkdown reads a document produced by WriteMarkdown. Headings carry no
// offset, so timestamps are interpreted in loc.
func ParseMarkdown(r io.Reader, loc *time.Location) ([]Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	doc := string(raw)

	if !strings.HasPrefix(doc, markdownTitle) {
		return nil, fmt.Errorf("parse markdown: missing %q title", markdownTitle)
	}
	_, body, ok := strings.Cut(doc, "---\n\n")
	if !ok {
		return nil, fmt.Errorf("parse markdown: missing header separator")
	}

	// A separator inside entry content is only a boundary when an entry
	// heading follows it.
	var blocks []string
	for _, part := range strings.Split(body, separator) {
		if part == "" {
			continue
		}
		if len(blocks) > 0 && !isHeading(part, loc) {
			blocks[len(blocks)-1] += separator + part
			continue
		}
		blocks = append(blocks, part)
	}

	var records []Record
	for _, b := range blocks {
		if strings.TrimSpace(b) == "" {
			continue
		}
		rec, err := parseBlock(b, loc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func isHeading(block string, loc *time.Location) bool {
	line, _, _ := strings.Cut(block, "\n")
	if !strings.HasPrefix(line, "## ") {
		return false
	}
	_, err := time.ParseInLocation(HeadingLayout, strings.TrimPrefix(line, "## "), loc)
	return err == nil
}

func parseBlock(block string, loc *time.Location) (Record, error) {
	heading, body, _ := strings.Cut(block, "\n\n")
	ts, err := time.ParseInLocation(HeadingLayout, strings.TrimPrefix(heading, "## "), loc)
	if err != nil {
		return Record{}, fmt.Errorf("parse heading %q: %w", heading, err)
	}
	rec := Record{Timestamp: ts, Themes: []string{}}

	if strings.HasPrefix(body, promptPrefix) {
		if p, rest, ok := strings.Cut(strings.TrimPrefix(body, promptPrefix), "*\n\n"); ok {
			rec.Prompt = &p
			body = rest
		}
	}

	if line, rest, ok := lastLine(body, themesTag); ok {
		rec.Themes = strings.Split(strings.TrimPrefix(line, themesTag), ", ")
		body = rest
	}
	if line, rest, ok := lastLine(body, sentimentTag); ok {
		rec.Sentiment = domain.Label(strings.TrimPrefix(line, sentimentTag))
		body = rest
	}

	rec.Content = strings.TrimSuffix(body, "\n\n")
	return rec, nil
}

// lastLine splits off the final newline-terminated line of s when it starts
// with prefix.
func lastLine(s, prefix string) (line, rest string, ok bool) {
	if !strings.HasSuffix(s, "\n") {
		return "", s, false
	}
	trimmed := strings.TrimSuffix(s, "\n")
	i := strings.LastIndex(trimmed, "\n")
	line = trimmed[i+1:]
	if !strings.HasPrefix(line, prefix) {
		return "", s, false
	}
	return line, trimmed[:i+1], true
}
