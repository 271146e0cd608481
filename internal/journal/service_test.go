package journal

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/serenity/internal/domain"
	"github.com/pbaille/serenity/internal/export"
	"github.com/pbaille/serenity/internal/inference"
	"github.com/pbaille/serenity/internal/insights"
	"github.com/pbaille/serenity/internal/prompts"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	entries   []domain.Entry
	prefs     map[string]string
	clock     func() time.Time
	nextID    int64
	lastLimit int
	searched  string
	failList  error
}

func newMemRepo(clock func() time.Time) *memRepo {
	return &memRepo{prefs: map[string]string{}, clock: clock}
}

func (r *memRepo) CreateEntry(_ context.Context, content string, prompt *string, a domain.AnalysisResult) (domain.Entry, error) {
	r.nextID++
	e := domain.Entry{
		ID: r.nextID, Timestamp: r.clock(), Content: content, Prompt: prompt,
		WordCount: a.WordCount, TokenCount: a.TokenCount, UniqueWords: a.UniqueWords,
		Sentiment: a.Sentiment, Themes: a.Themes,
	}
	r.entries = append(r.entries, e)
	return e, nil
}

func (r *memRepo) sorted() []domain.Entry {
	out := append([]domain.Entry(nil), r.entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (r *memRepo) ListEntries(_ context.Context, limit int) ([]domain.Entry, error) {
	r.lastLimit = limit
	if r.failList != nil {
		return nil, r.failList
	}
	out := r.sorted()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) GetEntry(_ context.Context, id int64) (domain.Entry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Entry{}, errors.New("not found")
}

func (r *memRepo) DeleteEntry(_ context.Context, id int64) (bool, error) {
	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) ClearEntries(context.Context) (int64, error) {
	n := int64(len(r.entries))
	r.entries = nil
	return n, nil
}

func (r *memRepo) SearchEntries(_ context.Context, q string) ([]domain.Entry, error) {
	r.searched = q
	var out []domain.Entry
	for _, e := range r.sorted() {
		if strings.Contains(strings.ToLower(e.Content), strings.ToLower(q)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) GetPreference(_ context.Context, key string) (string, bool, error) {
	v, ok := r.prefs[key]
	return v, ok, nil
}

func (r *memRepo) SetPreference(_ context.Context, key, value string) error {
	r.prefs[key] = value
	return nil
}

func (r *memRepo) Statistics(context.Context) (domain.Statistics, error) {
	return domain.Statistics{TotalEntries: len(r.entries)}, nil
}

type stubSentiment struct {
	result domain.Sentiment
	err    error
}

func (s stubSentiment) ClassifySentiment(context.Context, string) (domain.Sentiment, error) {
	return s.result, s.err
}

type stubThemes struct{ scores map[string]float64 }

func (s stubThemes) ClassifyThemes(_ context.Context, _ string, candidates []string) ([]domain.Theme, error) {
	out := make([]domain.Theme, len(candidates))
	for i, c := range candidates {
		out[i] = domain.Theme{Name: c, Score: s.scores[c]}
	}
	return out, nil
}

type stubTokenizer struct{}

func (stubTokenizer) CountTokens(text string) (int, error) { return len(text), nil }

type fixture struct {
	svc   *Service
	repo  *memRepo
	clock time.Time
}

func newFixture(t *testing.T, p *inference.Provider) *fixture {
	t.Helper()
	f := &fixture{clock: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	now := func() time.Time { return f.clock }
	f.repo = newMemRepo(now)
	f.svc = NewService(f.repo, p, WithClock(now), WithRand(rand.New(rand.NewPCG(7, 7))))
	return f
}

func (f *fixture) write(t *testing.T, content string) domain.Entry {
	t.Helper()
	res, err := f.svc.Write(context.Background(), content, nil)
	require.NoError(t, err)
	return res.Entry
}

func happyProvider() *inference.Provider {
	return &inference.Provider{
		Sentiment: stubSentiment{result: domain.Sentiment{Label: domain.Positive, Score: 0.9}},
		Themes:    stubThemes{scores: map[string]float64{"gratitude": 0.8, "family": 0.5, "health": 0.2}},
		Tokenizer: stubTokenizer{},
	}
}

func TestWrite_RejectsEmptyContent(t *testing.T) {
	f := newFixture(t, happyProvider())

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.Write(context.Background(), content, nil)
		assert.ErrorIs(t, err, ErrEmptyContent)
	}
	assert.Empty(t, f.repo.entries)
}

func TestWrite_AnalyzesAndPersists(t *testing.T) {
	f := newFixture(t, happyProvider())
	prompt := "What are you grateful for?"

	res, err := f.svc.Write(context.Background(), "Thankful for my family and a quiet evening", &prompt)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	e := res.Entry
	assert.Equal(t, int64(1), e.ID)
	assert.Equal(t, 8, e.WordCount)
	assert.Equal(t, 42, e.TokenCount)
	require.NotNil(t, e.Sentiment)
	assert.Equal(t, domain.Positive, e.Sentiment.Label)
	assert.Equal(t, []string{"gratitude", "family"}, e.ThemeNames())
	require.NotNil(t, e.Prompt)
	assert.Equal(t, prompt, *e.Prompt)
}

func TestWrite_DegradesOnClassifierFailure(t *testing.T) {
	p := happyProvider()
	p.Sentiment = stubSentiment{err: errors.New("model offline")}
	f := newFixture(t, p)

	blank := "  "
	res, err := f.svc.Write(context.Background(), "Still saved without a mood", &blank)
	require.NoError(t, err)
	assert.Nil(t, res.Entry.Sentiment)
	assert.Nil(t, res.Entry.Prompt)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "model offline")
	assert.Len(t, f.repo.entries, 1)
}

func TestWrite_NoProvider(t *testing.T) {
	f := newFixture(t, nil)
	e := f.write(t, "plain words only")
	assert.Nil(t, e.Sentiment)
	assert.Empty(t, e.Themes)
	assert.Equal(t, 0, e.TokenCount)
	assert.Equal(t, 3, e.WordCount)
}

func TestNextPrompt(t *testing.T) {
	f := newFixture(t, happyProvider())

	pool, prompt, err := f.svc.NextPrompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prompts.Default, pool)
	assert.Contains(t, prompts.Pools[prompts.Default], prompt)
	assert.Equal(t, PromptHistory, f.repo.lastLimit)

	f.write(t, "A wonderful day")
	pool, _, err = f.svc.NextPrompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prompts.Positive, pool)
}

func TestNextPrompt_StoreFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.failList = errors.New("disk gone")
	_, _, err := f.svc.NextPrompt(context.Background())
	assert.Error(t, err)
}

func TestCountTokens(t *testing.T) {
	f := newFixture(t, happyProvider())
	m := f.svc.CountTokens("two words")
	assert.Equal(t, 2, m.WordCount)
	assert.Equal(t, 9, m.TokenCount)
}

func TestEntries_SearchAndFilter(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "Walked to the park")
	f.clock = f.clock.Add(time.Hour)
	f.write(t, "Long walk by the river with a friend")
	f.clock = f.clock.Add(time.Hour)
	f.write(t, "Cooked dinner")

	got, err := f.svc.Entries(context.Background(), insights.FilterOptions{Query: "walk", Sort: insights.SortLongest}, 0)
	require.NoError(t, err)
	assert.Equal(t, "walk", f.repo.searched)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)

	got, err = f.svc.Entries(context.Background(), insights.FilterOptions{}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
}

func TestDeleteAndClear(t *testing.T) {
	f := newFixture(t, nil)
	e := f.write(t, "one")
	f.write(t, "two")

	ok, err := f.svc.Delete(context.Background(), e.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.Delete(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := f.svc.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInsights(t *testing.T) {
	f := newFixture(t, happyProvider())
	start := f.clock
	f.clock = start.AddDate(0, 0, -2)
	f.write(t, "Grateful for family dinner tonight")
	f.clock = start.AddDate(0, 0, -1)
	f.write(t, "Another grateful evening with family and friends around")
	f.clock = start
	f.write(t, "Short")

	from := start.AddDate(0, 0, -1)
	report, err := f.svc.Insights(context.Background(), insights.FilterOptions{From: &from})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Entries)
	assert.Equal(t, domain.StreakInfo{Current: 3, Longest: 3, TotalDays: 3}, report.Streak)
	assert.Len(t, report.Sentiment, 2)
	require.NotEmpty(t, report.ThemeDistribution)
	assert.Equal(t, "gratitude", report.ThemeDistribution[0].Name)
	require.NotNil(t, report.Longest)
	assert.Equal(t, int64(2), report.Longest.ID)
	assert.InDelta(t, 100, report.Consistency, 1e-9)
	assert.Equal(t, []string{
		"Keep going: You're at 3 days. Can you reach 7?",
		"Write more: Try to write at least 100-150 words per entry for deeper reflection.",
	}, report.Recommendations)
}

func TestWeeklySummary(t *testing.T) {
	f := newFixture(t, happyProvider())

	s, err := f.svc.WeeklySummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, insights.NoHistoryMessage, s.Text)

	f.write(t, "Grateful for a calm and happy Sunday")
	s, err = f.svc.WeeklySummary(context.Background())
	require.NoError(t, err)
	assert.Contains(t, s.Text, "**Weekly Reflection (1 entries this week)**")
	assert.Contains(t, s.Insights, "You're practicing gratitude! This is linked to improved mental wellbeing.")
}

func TestPeriodNotesAndExport(t *testing.T) {
	f := newFixture(t, happyProvider())
	from := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	f.clock = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	f.write(t, "Grateful for my family today")
	f.clock = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

	require.NoError(t, f.svc.SaveNotes(context.Background(), from, to, "Slept better this week."))
	assert.Equal(t, "Slept better this week.", f.repo.prefs["notes_2024-03-04_2024-03-10"])

	report, err := f.svc.Period(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Entries)
	assert.Equal(t, 1, report.DaysJournal)
	assert.Equal(t, "Slept better this week.", report.Notes)
	assert.Contains(t, report.Summary.Text, "**Weekly Reflection (1 entries this week)**")

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportPeriod(context.Background(), &buf, from, to))
	assert.True(t, strings.HasPrefix(buf.String(), "# Weekly Journal Summary\n\n**Period:** 2024-03-04 to 2024-03-10"))
	assert.Contains(t, buf.String(), "## Your Notes\nSlept better this week.")

	empty, err := f.svc.Period(context.Background(), from.AddDate(0, 1, 0), to.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, insights.NoEntriesMessage, empty.Summary.Text)

	_, err = f.svc.Period(context.Background(), to, from)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestExport(t *testing.T) {
	f := newFixture(t, happyProvider())
	f.write(t, "Grateful for my family today")

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(context.Background(), &buf, export.Markdown))
	assert.Contains(t, buf.String(), "Exported on March 10, 2024")
	assert.Contains(t, buf.String(), "**Sentiment:** POSITIVE\n**Themes:** gratitude, family\n")
}
