package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/pbaille/serenity/internal/domain"
)

// Format names an export document type.
type Format string

const (
	Markdown Format = "markdown"
	HTML     Format = "html"
	JSON     Format = "json"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "md", "markdown":
		return Markdown, nil
	case "html", "htm":
		return HTML, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Extension is the file suffix for f.
func (f Format) Extension() string {
	switch f {
	case HTML:
		return ".html"
	case JSON:
		return ".json"
	default:
		return ".md"
	}
}

// ContentType is the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case HTML:
		return "text/html; charset=utf-8"
	case JSON:
		return "application/json"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Write renders entries in the given format.
func Write(w io.Writer, f Format, entries []domain.Entry, now time.Time) error {
	switch f {
	case Markdown:
		return WriteMarkdown(w, entries, now)
	case HTML:
		return WriteHTML(w, entries, now)
	case JSON:
		return WriteJSON(w, entries, now)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

type jsonDocument struct {
	ExportedAt time.Time      `json:"exported_at"`
	Entries    []domain.Entry `json:"entries"`
}

// WriteJSON writes entries newest first as a JSON document.
func WriteJSON(w io.Writer, entries []domain.Entry, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	doc := jsonDocument{ExportedAt: now, Entries: sortNewestFirst(entries)}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// FileName is the suggested download name for an export made at now.
func FileName(f Format, now time.Time) string {
	return "journal_export_" + now.Format("20060102") + f.Extension()
}
