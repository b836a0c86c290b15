package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
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

const classifySystemPrompt = "You classify personal to-do items for a daily planner. Respond with valid JSON only."

// OpenAIClassifier implements Classifier using OpenAI's chat completions API
type OpenAIClassifier struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// OpenAIOptions configures NewOpenAIClassifier
type OpenAIOptions struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	Logger    *zap.Logger
	DebugMode bool
	// MaxRetries overrides the SDK's own retry count when non-nil.
	// The worker re-enqueues on failure, so callers usually pass 0.
	MaxRetries *int
}

// NewOpenAIClassifier creates a new OpenAI-backed classifier
func NewOpenAIClassifier(opts OpenAIOptions) *OpenAIClassifier {
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenAIBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
	}
	if opts.MaxRetries != nil {
		reqOpts = append(reqOpts, option.WithMaxRetries(*opts.MaxRetries))
	}
	client := openai.NewClient(reqOpts...)

	return &OpenAIClassifier{
		client:    client,
		model:     opts.Model,
		logger:    opts.Logger,
		debugMode: opts.DebugMode,
	}
}

// Classify asks the model for a category and duration for title
func (c *OpenAIClassifier) Classify(ctx context.Context, title string) (Classification, error) {
	prompt := buildClassifyPrompt(title)
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifySystemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	userID := ExtractUserID(ctx)
	taskID := ExtractTaskID(ctx)
	if c.debugMode {
		c.logger.Debug("llm_api_request",
			zap.String("operation", "classify_task"),
			zap.String("model", c.model),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("user_id", userID),
			zap.String("task_id", taskID),
			zap.String("request_id", ExtractRequestID(ctx)),
		)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		c.logger.Warn("llm_api_error",
			zap.String("operation", "classify_task"),
			zap.String("model", c.model),
			zap.Error(err),
			zap.String("task_id", taskID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return Classification{}, fmt.Errorf("failed to classify task: %w", apiErr)
		}
		return Classification{}, fmt.Errorf("failed to classify task: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Classification{}, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if c.debugMode {
		c.logger.Debug("llm_api_response",
			zap.String("operation", "classify_task"),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("task_id", taskID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return parseClassification(content)
}

func buildClassifyPrompt(title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify the following task.\n\nTask: %q\n\n", title)
	b.WriteString(`Respond with a JSON object in this format:
{
  "category": "deep" | "light" | "admin",
  "duration": 15 | 30 | 60
}

Guidelines:
- "deep": focused, cognitively demanding work (writing, design, analysis, coding)
- "light": low-effort but not purely procedural work (reading, tidying, short calls)
- "admin": procedural chores (email replies, forms, bills, scheduling)
- "duration" is the realistic time in minutes, rounded to the nearest of 15, 30 or 60

Return only valid JSON.`)
	return b.String()
}

// parseClassification accepts a bare JSON object, one wrapped in prose, and
// durations given as numbers or strings.
func parseClassification(content string) (Classification, error) {
	var raw struct {
		Category string          `json:"category"`
		Duration json.RawMessage `json:"duration"`
	}

	body := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		start := strings.Index(body, "{")
		end := strings.LastIndex(body, "}")
		if start == -1 || end <= start {
			return Classification{}, fmt.Errorf("failed to parse classification response: %w", err)
		}
		if err := json.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
			return Classification{}, fmt.Errorf("failed to parse classification response: %w", err)
		}
	}

	minutes, err := strconv.Atoi(strings.Trim(string(raw.Duration), `" `))
	if err != nil {
		return Classification{}, fmt.Errorf("%w: duration %s", ErrInvalidClassification, raw.Duration)
	}

	c := Classification{
		Category: models.Category(strings.ToLower(strings.TrimSpace(raw.Category))),
		Duration: models.Duration(minutes),
	}
	if err := c.Validate(); err != nil {
		return Classification{}, err
	}
	return c, nil
}

var _ Classifier = (*OpenAIClassifier)(nil)
