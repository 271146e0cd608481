package inference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/pbaille/serenity/internal/domain"
)

// OpenAI classifies sentiment and themes through the OpenAI responses API
// with strict JSON-schema output.
type OpenAI struct {
	client *openai.Client
	model  string
}

var (
	sentimentSchema = generateSchema[sentimentAnswer]()
	themesSchema    = generateSchema[themesAnswer]()
)

const (
	sentimentInstructions = `You are a sentiment classifier for private journal entries.
Classify the overall sentiment of the user's text as POSITIVE or NEGATIVE and give your confidence (0.0-1.0) in that label.`

	themesInstructions = `You are a multi-label topic classifier for private journal entries.
Score how strongly each candidate theme applies to the user's text, independently, from 0.0 to 1.0.
Include every candidate exactly once using the name as given.`
)

// NewOpenAI creates an OpenAI classifier. Extra options are applied after
// the API key.
func NewOpenAI(apiKey, model string, opts ...option.RequestOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAI{client: &client, model: model}, nil
}

// ClassifySentiment implements SentimentClassifier.
func (o *OpenAI) ClassifySentiment(ctx context.Context, text string) (domain.Sentiment, error) {
	params := o.params(sentimentInstructions, text, "Sentiment", sentimentSchema)

	resp, err := callWithRetry(ctx, o.client, params)
	if err != nil {
		return domain.Sentiment{}, err
	}

	var out sentimentAnswer
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return domain.Sentiment{}, fmt.Errorf("unmarshal sentiment: %w", err)
	}
	return out.toSentiment()
}

// ClassifyThemes implements ThemeClassifier.
func (o *OpenAI) ClassifyThemes(ctx context.Context, text string, candidates []string) ([]domain.Theme, error) {
	input := text + "\n\nCandidate themes:\n- " + strings.Join(candidates, "\n- ")
	params := o.params(themesInstructions, input, "Themes", themesSchema)

	resp, err := callWithRetry(ctx, o.client, params)
	if err != nil {
		return nil, err
	}

	var out themesAnswer
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, fmt.Errorf("unmarshal themes: %w", err)
	}
	return out.toThemes(candidates), nil
}

func (o *OpenAI) params(instructions, input, name string, schema map[string]interface{}) responses.ResponseNewParams {
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        name,
			Schema:      schema,
			Strict:      openai.Bool(true),
			Description: openai.String(name + " classification JSON"),
			Type:        "json_schema",
		},
	}

	return responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(512),
		Instructions:    openai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}
}

func callWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	waitTimes := []time.Duration{time.Second, 4 * time.Second}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTimes[attempt]):
		}
	}
	return nil, fmt.Errorf("openai request: %w", lastErr)
}

func isRetryable(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "server_error")
}

func generateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	delete(m, "$schema")
	delete(m, "$id")
	ensureStrict(m)
	return m
}

// ensureStrict marks every object closed and every property required, as
// strict structured outputs demand.
func ensureStrict(schema map[string]interface{}) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]interface{}); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			schema["required"] = required
		}
	}
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]interface{}); ok {
				ensureStrict(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		ensureStrict(items)
	}
}
