package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"

	"github.com/goccy/go-json"

	"github.com/pbaille/serenity/internal/domain"
)

const voyageAPI = "https://api.voyageai.com/v1/embeddings"

// Cosine similarities between a text and a short label rarely leave this
// band; scores are rescaled linearly from it onto [0,1].
const (
	similarityFloor   = 0.25
	similarityCeiling = 0.65
)

// Voyage is a zero-shot theme classifier backed by Voyage AI embeddings:
// a theme scores by the similarity between the text and the theme label.
type Voyage struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client

	mu     sync.Mutex
	labels map[string][]float64
}

// NewVoyage creates a Voyage theme classifier.
func NewVoyage(apiKey, model string) (*Voyage, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("VOYAGE_API_KEY environment variable not set")
	}
	if model == "" {
		model = "voyage-3-lite"
	}

	return &Voyage{
		apiKey:   apiKey,
		model:    model,
		endpoint: voyageAPI,
		client:   http.DefaultClient,
		labels:   make(map[string][]float64),
	}, nil
}

// ClassifyThemes embeds text (and any label not yet cached) in one batch and
// scores each candidate.
func (v *Voyage) ClassifyThemes(ctx context.Context, text string, candidates []string) ([]domain.Theme, error) {
	v.mu.Lock()
	var missing []string
	for _, c := range candidates {
		if _, ok := v.labels[c]; !ok {
			missing = append(missing, c)
		}
	}
	v.mu.Unlock()

	vectors, err := v.EmbedBatch(ctx, append([]string{text}, missing...))
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing)+1 {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing)+1, len(vectors))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for i, c := range missing {
		v.labels[c] = vectors[i+1]
	}

	themes := make([]domain.Theme, len(candidates))
	for i, c := range candidates {
		sim := CosineSimilarity(vectors[0], v.labels[c])
		themes[i] = domain.Theme{
			Name:  c,
			Score: clamp01((sim - similarityFloor) / (similarityCeiling - similarityFloor)),
		}
	}
	return themes, nil
}

// EmbedBatch generates embeddings for multiple texts
func (v *Voyage) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	reqBody := embeddingRequest{
		Input: texts,
		Model: v.model,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp embeddingResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	vectors := make([][]float64, len(apiResp.Data))
	for i, d := range apiResp.Data {
		vectors[i] = d.Embedding
	}

	return vectors, nil
}

// CosineSimilarity computes similarity between two vectors
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}
