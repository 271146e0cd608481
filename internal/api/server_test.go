package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"

	"github.com/pbaille/serenity/internal/domain"
	"github.com/pbaille/serenity/internal/export"
	"github.com/pbaille/serenity/internal/inference"
	"github.com/pbaille/serenity/internal/journal"
	"github.com/pbaille/serenity/internal/store"
)

type ServerSuite struct {
	suite.Suite
	store   *store.Store
	handler http.Handler
	clock   time.Time
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.clock = time.Date(2024, 5, 20, 19, 0, 0, 0, time.Local)
	now := func() time.Time { return s.clock }

	st, err := store.New(store.Config{
		Path:  filepath.Join(s.T().TempDir(), "journal.db"),
		Clock: now,
	})
	s.Require().NoError(err)
	s.store = st

	lex := inference.NewLexicon()
	svc := journal.NewService(st, &inference.Provider{Sentiment: lex, Themes: lex}, journal.WithClock(now))
	srv := New(svc, ":0")
	srv.now = now
	s.handler = srv.Handler()
}

func (s *ServerSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *ServerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v))
}

func (s *ServerSuite) post(content string) domain.Entry {
	rec := s.do(http.MethodPost, "/entries", AddEntryRequest{Content: content})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var res journal.WriteResult
	s.decode(rec, &res)
	return res.Entry
}

func (s *ServerSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
	s.NotEmpty(rec.Header().Get("X-Request-Id"))
}

func (s *ServerSuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Equal("abc-123", rec.Header().Get("X-Request-Id"))
}

func (s *ServerSuite) TestPreflight() {
	rec := s.do(http.MethodOptions, "/entries", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func (s *ServerSuite) TestAddEntry() {
	e := s.post("I feel grateful and happy after a wonderful walk with my family")
	s.Greater(e.ID, int64(0))
	s.Equal(12, e.WordCount)
	s.Require().NotNil(e.Sentiment)
	s.Equal(domain.Positive, e.Sentiment.Label)
	s.Contains(e.ThemeNames(), "gratitude")
}

func (s *ServerSuite) TestAddEntryValidation() {
	rec := s.do(http.MethodPost, "/entries", AddEntryRequest{Content: "   "})
	s.Equal(http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestGetAndDeleteEntry() {
	e := s.post("A quiet morning with coffee and a book")

	rec := s.do(http.MethodGet, "/entries/"+itoa(e.ID), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var got domain.Entry
	s.decode(rec, &got)
	s.Equal(e.Content, got.Content)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/entries/999", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/entries/abc", nil).Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/entries/"+itoa(e.ID), nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/entries/"+itoa(e.ID), nil).Code)
}

func (s *ServerSuite) TestListAndClear() {
	s.post("First entry about work and a deadline")
	s.clock = s.clock.Add(time.Hour)
	s.post("Second entry about my garden and painting")

	rec := s.do(http.MethodGet, "/entries?q=garden", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list struct {
		Entries []domain.Entry `json:"entries"`
	}
	s.decode(rec, &list)
	s.Require().Len(list.Entries, 1)
	s.Contains(list.Entries[0].Content, "garden")

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/entries?sort=sideways", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/entries?sentiment=meh", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/entries?from=May-1", nil).Code)

	s.Equal(http.StatusBadRequest, s.do(http.MethodDelete, "/entries", nil).Code)
	rec = s.do(http.MethodDelete, "/entries?confirm=true", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"deleted":2}`, rec.Body.String())
}

func (s *ServerSuite) TestPrompt() {
	rec := s.do(http.MethodGet, "/prompt", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var body map[string]string
	s.decode(rec, &body)
	s.Equal("default", body["pool"])
	s.NotEmpty(body["prompt"])
}

func (s *ServerSuite) TestCount() {
	rec := s.do(http.MethodPost, "/count", CountRequest{Text: "one two two"})
	s.Require().Equal(http.StatusOK, rec.Code)
	var body map[string]int
	s.decode(rec, &body)
	s.Equal(3, body["word_count"])
	s.Equal(2, body["unique_words"])
	s.Equal(0, body["token_count"])
}

func (s *ServerSuite) TestInsightsSummaryStats() {
	s.post("Grateful for my family and a happy dinner together")
	s.clock = s.clock.AddDate(0, 0, 1)
	s.post("Work was stressful, the deadline and my boss made me anxious")

	rec := s.do(http.MethodGet, "/insights", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var report journal.InsightReport
	s.decode(rec, &report)
	s.Equal(2, report.Entries)
	s.Equal(2, report.Streak.Current)

	rec = s.do(http.MethodGet, "/summary", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Weekly Reflection (2 entries this week)")

	rec = s.do(http.MethodGet, "/stats", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stats struct {
		Statistics domain.Statistics `json:"statistics"`
		Streak     domain.StreakInfo `json:"streak"`
	}
	s.decode(rec, &stats)
	s.Equal(2, stats.Statistics.TotalEntries)
	s.Equal(2, stats.Streak.TotalDays)
}

func (s *ServerSuite) TestBreakdownAndNotes() {
	s.post("Grateful for a sunny afternoon in the park")

	rec := s.do(http.MethodPut, "/preferences/notes_2024-05-14_2024-05-20", PreferenceRequest{Value: "Good week"})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/breakdown?from=2024-05-14&to=2024-05-20", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var report journal.PeriodReport
	s.decode(rec, &report)
	s.Equal(1, report.Entries)
	s.Equal(7, report.PeriodDays)
	s.Equal("Good week", report.Notes)

	rec = s.do(http.MethodGet, "/breakdown?from=2024-05-14&to=2024-05-20&format=markdown", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Header().Get("Content-Disposition"), "weekly_summary_2024-05-14_2024-05-20.md")
	s.Contains(rec.Body.String(), "## Your Notes\nGood week")

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/breakdown?from=2024-05-20&to=2024-05-14", nil).Code)
}

func (s *ServerSuite) TestBreakdownReversedRangeIsNotADownload() {
	rec := s.do(http.MethodGet, "/breakdown?from=2024-05-20&to=2024-05-14&format=markdown", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Empty(rec.Header().Get("Content-Disposition"))
	s.Equal("application/json", rec.Header().Get("Content-Type"))
}

func (s *ServerSuite) TestBreakdownStoreFailureIsServerError() {
	s.Require().NoError(s.store.Close())

	rec := s.do(http.MethodGet, "/breakdown?from=2024-05-14&to=2024-05-20", nil)
	s.Equal(http.StatusInternalServerError, rec.Code)

	rec = s.do(http.MethodGet, "/breakdown?from=2024-05-14&to=2024-05-20&format=markdown", nil)
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Empty(rec.Header().Get("Content-Disposition"))
}

func (s *ServerSuite) TestExport() {
	s.post("Painting again after months away from the canvas")

	rec := s.do(http.MethodGet, "/export?format=html", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(export.HTML.ContentType(), rec.Header().Get("Content-Type"))
	entries, err := export.ParseHTML(rec.Body)
	s.Require().NoError(err)
	s.Len(entries, 1)

	rec = s.do(http.MethodGet, "/export", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.True(strings.HasPrefix(rec.Body.String(), "# My Journal Entries"))

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/export?format=pdf", nil).Code)
}

func (s *ServerSuite) TestPreferences() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/preferences/theme", nil).Code)

	s.Equal(http.StatusOK, s.do(http.MethodPut, "/preferences/theme", PreferenceRequest{Value: "dark"}).Code)

	rec := s.do(http.MethodGet, "/preferences/theme", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"key":"theme","value":"dark"}`, rec.Body.String())
}

func (s *ServerSuite) TestRunStopsOnCancel() {
	svc := journal.NewService(s.store, nil)
	srv := New(svc, "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("server did not stop")
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
