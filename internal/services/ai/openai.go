package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/ganderhq/gander/internal/models"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements the DraftProvider interface using OpenAI's API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// NewOpenAIProviderWithConfig creates a new OpenAI provider with custom configuration
func NewOpenAIProviderWithConfig(apiKey string, baseURL string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, baseURL, model, nil, false)
}

// DraftUtterance interprets an utterance into a draft command. The
// model is asked for JSON only; the response is parsed leniently but
// the draft's fields are validated downstream by the normalizer, so a
// wrong guess here never reaches the caller unchecked.
func (p *OpenAIProvider) DraftUtterance(ctx context.Context, utterance string, now time.Time, zone string) (*models.DraftCommand, error) {
	prompt := buildDraftPrompt(utterance, now, zone)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are an assistant that converts natural-language calendar, reminder, and note requests into structured JSON. Respond with valid JSON only."),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := ExtractRequestID(ctx)
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "draft_utterance"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "draft_utterance"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to draft utterance: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to draft utterance: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "draft_utterance"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return parseDraftResponse(content)
}

// parseDraftResponse parses the model's JSON into a draft command.
// Models sometimes wrap JSON in prose, so a brace-delimited slice is
// retried before giving up.
func parseDraftResponse(content string) (*models.DraftCommand, error) {
	var draft models.DraftCommand
	raw := content
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		if len(raw) > 0 && raw[0] != '{' {
			start := bytes.Index([]byte(raw), []byte("{"))
			end := bytes.LastIndex([]byte(raw), []byte("}"))
			if start != -1 && end != -1 && end > start {
				raw = raw[start : end+1]
			}
		}
		if err := json.Unmarshal([]byte(raw), &draft); err != nil {
			return nil, fmt.Errorf("failed to parse draft response: %w", err)
		}
	}
	if draft.Intent == "" {
		draft.Intent = "create_event"
	}
	return &draft, nil
}

// buildDraftPrompt builds the interpretation prompt with time context
// so relative phrases resolve against the caller's clock, not the
// model's training data.
func buildDraftPrompt(utterance string, now time.Time, zone string) string {
	prompt := fmt.Sprintf(`Convert the following request into a structured command draft.

Request: %q

Time context:
- Current date and time: %s
- Day of week: %s
- Caller timezone: %s`,
		utterance,
		now.Format(time.RFC3339),
		now.Weekday(),
		zone,
	)

	prompt += `

Respond with a JSON object in this format (omit fields you cannot infer):
{
  "intent": "create_event" | "create_reminder" | "create_note",
  "title": "string",
  "date": "YYYY-MM-DD",
  "start_time": "HH:MM",
  "end_time": "HH:MM",
  "calendar": "string",
  "contacts": ["name"],
  "emails": ["addr@example.com"],
  "repeat": "daily" | "weekly" | "monthly" | "yearly",
  "interval": 1,
  "until": "YYYY-MM-DD",
  "count": 0,
  "days_of_week": [0-6],
  "location": "string",
  "description": "string",
  "zoom_meeting": false
}

Guidelines:
- Times are 24-hour local wall-clock values in the caller's timezone.
- Resolve relative dates ("tomorrow", "next friday") against the time context above.
- Do not invent attendees, emails, or recurrence that the request does not mention.
- "zoom_meeting" is true only when the request asks for a Zoom or video call.

Return only valid JSON.`

	return prompt
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string) (DraftProvider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		model := config["model"]
		baseURL := config["base_url"]

		return NewOpenAIProviderWithConfig(apiKey, baseURL, model), nil
	})
}
