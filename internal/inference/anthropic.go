package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pbaille/serenity/internal/domain"
)

const anthropicAPI = "https://api.anthropic.com/v1/messages"

// Anthropic classifies sentiment and themes through the Anthropic messages API.
type Anthropic struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewAnthropic creates an Anthropic classifier.
func NewAnthropic(apiKey, model string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	return &Anthropic{
		apiKey:   apiKey,
		model:    model,
		endpoint: anthropicAPI,
		client:   http.DefaultClient,
	}, nil
}

// ClassifySentiment asks the model for a POSITIVE/NEGATIVE label with confidence.
func (a *Anthropic) ClassifySentiment(ctx context.Context, text string) (domain.Sentiment, error) {
	resp, err := a.callAPI(ctx, buildSentimentPrompt(text))
	if err != nil {
		return domain.Sentiment{}, fmt.Errorf("api call: %w", err)
	}

	var out sentimentAnswer
	if err := decodeModelJSON(resp, &out); err != nil {
		return domain.Sentiment{}, err
	}
	return out.toSentiment()
}

// ClassifyThemes asks the model to score every candidate independently.
func (a *Anthropic) ClassifyThemes(ctx context.Context, text string, candidates []string) ([]domain.Theme, error) {
	resp, err := a.callAPI(ctx, buildThemesPrompt(text, candidates))
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}

	var out themesAnswer
	if err := decodeModelJSON(resp, &out); err != nil {
		return nil, err
	}
	return out.toThemes(candidates), nil
}

func buildSentimentPrompt(text string) string {
	var sb strings.Builder

	sb.WriteString("Classify the overall sentiment of this journal text. Return JSON only.\n\n")
	sb.WriteString("Text:\n")
	sb.WriteString(text)
	sb.WriteString("\n\n")
	sb.WriteString(`Return a JSON object with this structure:
{"label": "POSITIVE", "score": 0.93}

Rules:
- label is exactly "POSITIVE" or "NEGATIVE"
- score is your confidence in the label, 0.0-1.0

Return ONLY the JSON, no other text.`)

	return sb.String()
}

func buildThemesPrompt(text string, candidates []string) string {
	var sb strings.Builder

	sb.WriteString("Score how strongly each candidate theme applies to this journal text. Return JSON only.\n\n")
	sb.WriteString("Text:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nCandidate themes:\n")
	for _, c := range candidates {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	sb.WriteString(`
Return a JSON object with this structure:
{"themes": [{"name": "gratitude", "score": 0.82}]}

Rules:
- Include every candidate exactly once, using the name as given
- Score each theme independently (multi-label), 0.0-1.0
- Several themes may score high, or none

Return ONLY the JSON, no other text.`)

	return sb.String()
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *Anthropic) callAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := apiRequest{
		Model:     a.model,
		MaxTokens: 1024,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}

	return apiResp.Content[0].Text, nil
}
