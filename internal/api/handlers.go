package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/pbaille/serenity/internal/domain"
	"github.com/pbaille/serenity/internal/export"
	"github.com/pbaille/serenity/internal/insights"
	"github.com/pbaille/serenity/internal/journal"
	"github.com/pbaille/serenity/internal/store"
)

const defaultListLimit = 20

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddEntryRequest is the request body for adding an entry
type AddEntryRequest struct {
	Content string  `json:"content"`
	Prompt  *string `json:"prompt,omitempty"`
}

func (s *Server) addEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.svc.Write(r.Context(), req.Content, req.Prompt)
	if errors.Is(err, journal.ErrEmptyContent) {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	entry, err := s.svc.Entry(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	deleted, err := s.svc.Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearEntries(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "add confirm=true to delete every entry")
		return
	}

	n, err := s.svc.Clear(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	opts, err := filterOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := defaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n >= 0 {
			limit = n
		}
	}

	entries, err := s.svc.Entries(r.Context(), opts, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"limit":   limit,
	})
}

func (s *Server) nextPrompt(w http.ResponseWriter, r *http.Request) {
	pool, prompt, err := s.svc.NextPrompt(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"pool": string(pool), "prompt": prompt})
}

// CountRequest is the request body for a live token count.
type CountRequest struct {
	Text string `json:"text"`
}

func (s *Server) countTokens(w http.ResponseWriter, r *http.Request) {
	var req CountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, s.svc.CountTokens(req.Text))
}

func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	opts, err := filterOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.svc.Insights(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) weeklySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.WeeklySummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// breakdown reports on [from, to], defaulting to the last seven days. With
// format=markdown it returns the summary document instead.
func (s *Server) breakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := s.now()
	from, err := parseDate(q.Get("from"), today.AddDate(0, 0, -7))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDate(q.Get("to"), today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if to.Before(from) {
		writeError(w, http.StatusBadRequest, journal.ErrInvalidPeriod.Error())
		return
	}

	if f := q.Get("format"); f == "markdown" || f == "md" {
		var buf bytes.Buffer
		if err := s.svc.ExportPeriod(r.Context(), &buf, from, to); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", export.Markdown.ContentType())
		w.Header().Set("Content-Disposition", attachment(export.SummaryFileName(from, to)))
		_, _ = w.Write(buf.Bytes())
		return
	}

	report, err := s.svc.Period(r.Context(), from, to)
	if errors.Is(err, journal.ErrInvalidPeriod) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Statistics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	streak, err := s.svc.Streak(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"statistics": stats,
		"streak":     streak,
	})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", attachment(export.FileName(f, s.now())))
	if err := s.svc.Export(r.Context(), w, f); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) getPreference(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, ok, err := s.svc.Preference(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "preference not set")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

// PreferenceRequest is the request body for storing a preference.
type PreferenceRequest struct {
	Value string `json:"value"`
}

func (s *Server) setPreference(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.svc.SetPreference(r.Context(), key, req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}

func entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return 0, false
	}
	return id, true
}

// filterOptions reads from, to, sentiment, q and sort query parameters.
func filterOptions(r *http.Request) (insights.FilterOptions, error) {
	q := r.URL.Query()
	var opts insights.FilterOptions

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &opts.From}, {"to", &opts.To}} {
		if v := q.Get(p.name); v != "" {
			t, err := parseDate(v, time.Time{})
			if err != nil {
				return opts, err
			}
			*p.dst = &t
		}
	}

	if v := q.Get("sentiment"); v != "" {
		for _, l := range strings.Split(v, ",") {
			label := domain.Label(strings.ToUpper(strings.TrimSpace(l)))
			if !label.Valid() {
				return opts, fmt.Errorf("unknown sentiment %q", l)
			}
			opts.Sentiments = append(opts.Sentiments, label)
		}
	}

	sort, err := insights.ParseSortOrder(q.Get("sort"))
	if err != nil {
		return opts, err
	}
	opts.Sort = sort
	opts.Query = q.Get("q")
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

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
