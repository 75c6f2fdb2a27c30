// Package suggestai implements the optional, advisory-only Synonym
// Suggester: an OpenAI-backed assistant that proposes additional header
// synonyms for a schema field. It is never consulted by the Header
// Resolver or the Repair Engine — its output requires a human to edit the
// Schema Registry before it has any effect, which is what keeps the
// deterministic, rule-based repair path compliant with spec.md's
// no-fuzzy-inference non-goal while still letting the corpus's OpenAI
// client show up somewhere in the system.
//
// Grounded on the teacher's internal/ai/client.go: same NewClient shape
// (config + OPENAI_API_KEY fallback), same structured-output call via
// ChatCompletionNewParams with ResponseFormat.OfJSONSchema, same bounded
// retry loop for transient failures.
package suggestai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// Config configures the suggester client.
type Config struct {
	APIKey         string
	Model          string
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// Suggestion is one proposed synonym for a canonical field.
type Suggestion struct {
	Synonym    string  `json:"synonym"`
	Confidence float64 `json:"confidence"`
}

// Result is the suggester's structured output for one field.
type Result struct {
	Field       string       `json:"field"`
	Suggestions []Suggestion `json:"suggestions"`
}

var suggestionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"field": map[string]any{"type": "string"},
		"suggestions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"synonym":    map[string]any{"type": "string"},
					"confidence": map[string]any{"type": "number"},
				},
				"required": []string{"synonym", "confidence"},
			},
		},
	},
	"required": []string{"field", "suggestions"},
}

// Client wraps the OpenAI chat completions API for synonym suggestion.
type Client struct {
	client     openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
}

// NewClient builds a Client, resolving the API key from cfg.APIKey or the
// OPENAI_API_KEY env var. Returns an error if neither is set — callers
// should treat the suggester as unavailable rather than gate startup on it.
func NewClient(cfg Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	retryDelay := cfg.RetryBaseDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &Client{
		client:     client,
		model:      model,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

// SuggestSynonyms asks the model for additional candidate synonyms for
// field, given a sample of raw headers observed in the field's source data.
// The result is advisory: nothing in the repair path consults it.
func (c *Client) SuggestSynonyms(ctx context.Context, field string, existingSynonyms []string, observedHeaders []string) (Result, error) {
	prompt := buildPrompt(field, existingSynonyms, observedHeaders)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You propose additional header synonyms for a data schema field. Respond only with the requested JSON."),
		openai.UserMessage(prompt),
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(1<<uint(attempt-1))):
			}
		}

		resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(c.model),
			Messages: messages,
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
					JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
						Name:   "synonym_suggestions",
						Schema: suggestionSchema,
						Strict: openai.Bool(true),
					},
				},
			},
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("suggestai: empty response")
			continue
		}

		var result Result
		if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
			lastErr = fmt.Errorf("suggestai: parse response: %w", err)
			continue
		}
		result.Field = field
		return result, nil
	}

	return Result{}, fmt.Errorf("suggestai: exhausted retries: %w", lastErr)
}

func buildPrompt(field string, existing []string, observed []string) string {
	return fmt.Sprintf(
		"Canonical field: %s\nExisting synonyms: %v\nObserved unmapped headers: %v\nPropose up to 5 additional synonyms this field's Schema Registry entry could accept, each with a confidence between 0 and 1.",
		field, existing, observed,
	)
}
