package inference

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/serenity/internal/config"
	"github.com/pbaille/serenity/internal/domain"
)

func TestLexicon_ClassifySentiment(t *testing.T) {
	lex := NewLexicon()
	ctx := context.Background()

	tests := []struct {
		name  string
		text  string
		label domain.Label
	}{
		{"positive", "Today was great, I felt happy and grateful.", domain.Positive},
		{"negative", "I am so stressed and exhausted, everything is awful.", domain.Negative},
		{"negated positive", "I was not happy at all today.", domain.Negative},
		{"neutral", "I went to the store.", domain.Positive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := lex.ClassifySentiment(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.label, s.Label)
			assert.GreaterOrEqual(t, s.Score, 0.5)
			assert.Less(t, s.Score, 1.0)
		})
	}
}

func TestLexicon_ClassifyThemesCoversAllCandidates(t *testing.T) {
	lex := NewLexicon()
	candidates := []string{"work stress", "gratitude", "unknown theme"}

	themes, err := lex.ClassifyThemes(context.Background(), "My boss moved the deadline again but I'm grateful for my team.", candidates)
	require.NoError(t, err)
	require.Len(t, themes, 3)

	assert.Equal(t, "work stress", themes[0].Name)
	assert.Greater(t, themes[0].Score, 0.3)
	assert.Equal(t, "gratitude", themes[1].Name)
	assert.Greater(t, themes[1].Score, 0.3)
	assert.Equal(t, 0.0, themes[2].Score)
}

func TestTiktoken_CountTokens(t *testing.T) {
	tok, err := NewTiktoken("cl100k_base")
	require.NoError(t, err)

	n, err := tok.CountTokens("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = tok.CountTokens("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNewTiktoken_UnknownEncoding(t *testing.T) {
	_, err := NewTiktoken("no_such_encoding")
	assert.Error(t, err)
}

func TestDecodeModelJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"plain", `{"label":"POSITIVE","score":0.9}`, false},
		{"fenced", "```json\n{\"label\":\"NEGATIVE\",\"score\":0.7}\n```", false},
		{"prose", `Sure! {"label":"POSITIVE","score":0.6} Hope that helps.`, false},
		{"empty", "  ", true},
		{"no object", "I cannot answer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out sentimentAnswer
			err := decodeModelJSON(tt.in, &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, out.Label)
		})
	}
}

func TestSentimentAnswerValidation(t *testing.T) {
	s, err := sentimentAnswer{Label: "positive", Score: 0.8}.toSentiment()
	require.NoError(t, err)
	assert.Equal(t, domain.Positive, s.Label)

	_, err = sentimentAnswer{Label: "NEUTRAL", Score: 0.8}.toSentiment()
	assert.Error(t, err)

	_, err = sentimentAnswer{Label: "NEGATIVE", Score: 1.4}.toSentiment()
	assert.Error(t, err)
}

func TestThemesAnswerMapsOntoCandidates(t *testing.T) {
	ans := themesAnswer{Themes: []themeScore{
		{Name: "Gratitude", Score: 0.9},
		{Name: "made up", Score: 0.99},
		{Name: "family", Score: 1.7},
	}}

	themes := ans.toThemes([]string{"family", "gratitude", "health"})
	assert.Equal(t, []domain.Theme{
		{Name: "family", Score: 1},
		{Name: "gratitude", Score: 0.9},
		{Name: "health", Score: 0},
	}, themes)
}

func TestAnthropic_ClassifySentiment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var req apiRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Contains(t, req.Messages[0].Content, "rough day")

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"label\":\"NEGATIVE\",\"score\":0.88}"}]}`))
	}))
	defer srv.Close()

	a, err := NewAnthropic("test-key", "")
	require.NoError(t, err)
	a.endpoint = srv.URL

	s, err := a.ClassifySentiment(context.Background(), "What a rough day")
	require.NoError(t, err)
	assert.Equal(t, domain.Sentiment{Label: domain.Negative, Score: 0.88}, s)
}

func TestAnthropic_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	a, err := NewAnthropic("test-key", "")
	require.NoError(t, err)
	a.endpoint = srv.URL

	_, err = a.ClassifyThemes(context.Background(), "text", []string{"family"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func openAIResponse(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"id":"resp_1","object":"response","created_at":1710000000,"model":"gpt-4o-mini","status":"completed",` +
		`"output":[{"type":"message","id":"msg_1","role":"assistant","status":"completed",` +
		`"content":[{"type":"output_text","annotations":[],"text":` + string(quoted) + `}]}]}`
}

func TestOpenAI_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "gpt-4o-mini", req["model"])

		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(string(body), "Candidate themes") {
			_, _ = w.Write([]byte(openAIResponse(`{"themes":[{"name":"family","score":0.8},{"name":"unknown","score":1}]}`)))
			return
		}
		_, _ = w.Write([]byte(openAIResponse(`{"label":"POSITIVE","score":0.93}`)))
	}))
	defer srv.Close()

	o, err := NewOpenAI("test-key", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	s, err := o.ClassifySentiment(context.Background(), "Lovely dinner with friends")
	require.NoError(t, err)
	assert.Equal(t, domain.Sentiment{Label: domain.Positive, Score: 0.93}, s)

	themes, err := o.ClassifyThemes(context.Background(), "Lovely dinner with my sister", []string{"family", "work stress"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Theme{{Name: "family", Score: 0.8}, {Name: "work stress", Score: 0}}, themes)
}

func TestOpenAI_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI("test-key", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = o.ClassifySentiment(ctx, "text")
	assert.Error(t, err)
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI("", "")
	assert.Error(t, err)
}

func TestNewAnthropic_RequiresKey(t *testing.T) {
	_, err := NewAnthropic("", "")
	assert.Error(t, err)
}

func TestVoyage_ClassifyThemesCachesLabels(t *testing.T) {
	var calls [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls = append(calls, req.Input)

		var resp embeddingResponse
		for _, in := range req.Input {
			vec := []float64{1, 0}
			if strings.Contains(in, "family") || strings.Contains(in, "mom") {
				vec = []float64{0, 1}
			}
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
			}{Embedding: vec})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	v, err := NewVoyage("key", "")
	require.NoError(t, err)
	v.endpoint = srv.URL

	candidates := []string{"family", "work stress"}
	themes, err := v.ClassifyThemes(context.Background(), "called my mom", candidates)
	require.NoError(t, err)
	assert.Equal(t, []domain.Theme{{Name: "family", Score: 1}, {Name: "work stress", Score: 0}}, themes)

	_, err = v.ClassifyThemes(context.Background(), "another day", candidates)
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Len(t, calls[0], 3)
	assert.Equal(t, []string{"another day"}, calls[1])
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1}, []float64{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 2}))
}

func TestNew_DefaultsAndMissingKeys(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("VOYAGE_API_KEY", "")

	p, warnings := New(config.Default().Inference)
	assert.Empty(t, warnings)
	assert.NotNil(t, p.Sentiment)
	assert.NotNil(t, p.Themes)
	assert.NotNil(t, p.Tokenizer)

	p, warnings = New(config.InferenceConfig{Sentiment: "anthropic", Themes: "voyage", Tokenizer: "none"})
	assert.Len(t, warnings, 2)
	assert.Nil(t, p.Sentiment)
	assert.Nil(t, p.Themes)
	assert.Nil(t, p.Tokenizer)
}
